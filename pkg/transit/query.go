package transit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	MaxRestPairs = 5
	MaxLivePairs = 25
	MaxLimit     = 10
)

type ListMode string

const (
	ListModeSequential   ListMode = "sequential"
	ListModeNextPerRoute          = "nextPerRoute"
)

// RouteStopPair is one (route, stop) the rider cares about.
// OffsetSeconds is a rider-supplied correction (eg walking time to the
// stop) added to both computed times.
type RouteStopPair struct {
	RouteID       string  `json:"routeId"`
	StopID        string  `json:"stopId"`
	OffsetSeconds float64 `json:"offsetSeconds,omitempty"`
}

type ScheduleQuery struct {
	FeedCode string          `json:"feedCode,omitempty"`
	Routes   []RouteStopPair `json:"routeStopPairs"`

	Limit           int      `json:"limit"`
	SortByDeparture bool     `json:"sortByDeparture,omitempty"`
	ListMode        ListMode `json:"listMode,omitempty"`
}

// Validate checks the query against the given pair budget before any
// upstream work happens. Fractional offsets are a malformed query - the
// offset is applied in whole seconds.
func (q *ScheduleQuery) Validate(maxPairs int) error {
	if len(q.Routes) == 0 {
		return errors.New("query must contain at least one route/stop pair")
	}
	if len(q.Routes) > maxPairs {
		return fmt.Errorf("query contains %d route/stop pairs, maximum is %d", len(q.Routes), maxPairs)
	}

	for _, pair := range q.Routes {
		if pair.RouteID == "" || pair.StopID == "" {
			return errors.New("route/stop pair is missing a route or stop identifier")
		}
		if pair.OffsetSeconds != math.Trunc(pair.OffsetSeconds) {
			return fmt.Errorf("offset %v for pair %s/%s is not a whole number of seconds", pair.OffsetSeconds, pair.RouteID, pair.StopID)
		}
	}

	if q.Limit < 1 {
		return errors.New("limit must be at least 1")
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	switch q.ListMode {
	case "":
		q.ListMode = ListModeSequential
	case ListModeSequential, ListModeNextPerRoute:
	default:
		return fmt.Errorf("unknown list mode %q", q.ListMode)
	}

	return nil
}

// ContentKey returns a canonical representation of the query used as the
// subscription identity - two queries with equal content share one
// upstream poll.
func (q *ScheduleQuery) ContentKey() string {
	normalised := *q
	if normalised.ListMode == "" {
		normalised.ListMode = ListModeSequential
	}

	key, _ := json.Marshal(normalised)
	return string(key)
}
