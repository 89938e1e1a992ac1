package feeds

import (
	"context"

	"github.com/nextstop/nextstop/pkg/transit"
)

// Backend is a single timetable source with an optional realtime side.
// Identifiers passed in are raw (feed-local) ids.
type Backend interface {
	Name() string

	// Occurrences returns the calendar-day trip instances visiting the
	// stop on the given route, for a day offset relative to today.
	Occurrences(ctx context.Context, routeID string, stopID string, dayOffset int) ([]transit.ScheduledOccurrence, error)

	// TripUpdates returns the current realtime batch for the given
	// routes, or for all routes when none are given.
	TripUpdates(ctx context.Context, routeIDs []string) ([]transit.RealtimeTripUpdate, error)

	Stop(ctx context.Context, stopID string) (*transit.Stop, error)
	RoutesForStop(ctx context.Context, stopID string) ([]transit.Route, error)
}

// AreaSearcher is an optional capability for backends that can search
// stops geographically.
type AreaSearcher interface {
	StopsInArea(ctx context.Context, box transit.BoundingBox) ([]transit.Stop, error)
}

// BoundsProvider is an optional capability for backends that know the
// geographic extent of their agency.
type BoundsProvider interface {
	AgencyBounds(ctx context.Context) (transit.BoundingBox, error)
}
