package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/nextstop/nextstop/pkg/transit"
)

func (s *Server) listStops(c *fiber.Ctx) error {
	boundsQuery := c.Query("bounds")

	if boundsQuery == "" {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "A bounds filter must be applied to the request",
		})
	}

	boundsQuerySplit := strings.Split(boundsQuery, ",")
	if len(boundsQuerySplit) != 4 {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Bounds must contain 4 co-ordinates",
		})
	}

	var coordinates [4]float64
	for index, value := range boundsQuerySplit {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			c.Status(fiber.StatusBadRequest)
			return c.JSON(fiber.Map{
				"error": "Bounds co-ordinates must be numeric",
			})
		}
		coordinates[index] = parsed
	}

	box := transit.BoundingBox{
		MinLongitude: coordinates[0],
		MinLatitude:  coordinates[1],
		MaxLongitude: coordinates[2],
		MaxLatitude:  coordinates[3],
	}

	stops, err := s.Federator.StopsInArea(c.Context(), box)
	if err != nil {
		return s.renderError(c, err)
	}

	return c.JSON(stops)
}

func (s *Server) getStop(c *fiber.Ctx) error {
	stop, err := s.Federator.Stop(c.Context(), c.Params("identifier"))
	if err != nil {
		return s.renderError(c, err)
	}

	return c.JSON(stop)
}

func (s *Server) getStopRoutes(c *fiber.Ctx) error {
	routes, err := s.Federator.RoutesForStop(c.Context(), c.Params("identifier"))
	if err != nil {
		return s.renderError(c, err)
	}

	return c.JSON(routes)
}

func (s *Server) getBounds(c *fiber.Ctx) error {
	bounds, err := s.Federator.AgencyBounds(c.Context())
	if err != nil {
		return s.renderError(c, err)
	}

	return c.JSON(bounds)
}
