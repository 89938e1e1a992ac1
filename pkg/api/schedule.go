package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nextstop/nextstop/pkg/feeds"
	"github.com/nextstop/nextstop/pkg/transit"
)

// getSchedule answers a one-shot upcoming trips request. Pairs arrive in
// the path as "routeId,stopId[,offsetSeconds]" separated by semicolons.
func (s *Server) getSchedule(c *fiber.Ctx) error {
	pairs, err := ParseRoutePairs(c.Params("pairs"))
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	query := transit.ScheduleQuery{
		FeedCode: c.Query("feed"),
		Routes:   pairs,

		Limit:           c.QueryInt("limit", transit.MaxLimit),
		SortByDeparture: c.QueryBool("sortByDeparture"),
		ListMode:        transit.ListMode(c.Query("listMode")),
	}

	if err := query.Validate(transit.MaxRestPairs); err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	backend, err := s.backendFor(query)
	if err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	trips, err := s.Assembler.Assemble(c.Context(), backend, query)
	if err != nil {
		return s.renderError(c, err)
	}

	if trips == nil {
		trips = []transit.ResolvedTrip{}
	}

	return c.JSON(fiber.Map{
		"trips": trips,
	})
}

// backendFor picks the feed's own backend when the query names one, and
// the federated namespace otherwise.
func (s *Server) backendFor(query transit.ScheduleQuery) (feeds.Backend, error) {
	if query.FeedCode == "" {
		return s.Federator, nil
	}

	return s.Registry.Get(query.FeedCode)
}

func (s *Server) renderError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	if feeds.IsClientError(err) {
		status = fiber.StatusBadRequest
	} else if errors.Is(err, feeds.ErrNotFound) {
		status = fiber.StatusNotFound
	}

	c.Status(status)
	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}

// ParseRoutePairs parses the REST pair syntax. Offsets must be whole
// seconds - fractional values are a malformed request.
func ParseRoutePairs(raw string) ([]transit.RouteStopPair, error) {
	if raw == "" {
		return nil, errors.New("no route/stop pairs supplied")
	}

	var pairs []transit.RouteStopPair

	for _, pairText := range strings.Split(raw, ";") {
		fields := strings.Split(pairText, ",")

		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("pair %q must be routeId,stopId or routeId,stopId,offsetSeconds", pairText)
		}

		pair := transit.RouteStopPair{
			RouteID: fields[0],
			StopID:  fields[1],
		}

		if pair.RouteID == "" || pair.StopID == "" {
			return nil, fmt.Errorf("pair %q is missing a route or stop identifier", pairText)
		}

		if len(fields) == 3 {
			offset, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("offset %q is not a whole number of seconds", fields[2])
			}

			pair.OffsetSeconds = float64(offset)
		}

		pairs = append(pairs, pair)
	}

	return pairs, nil
}
