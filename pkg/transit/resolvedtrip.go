package transit

import "time"

// ResolvedTrip is the unit returned to callers - one upcoming trip at one
// stop with the best estimate of its arrival and departure.
type ResolvedTrip struct {
	TripID  string `json:"tripId"`
	RouteID string `json:"routeId"`
	StopID  string `json:"stopId"`

	RouteName  string `json:"routeName"`
	RouteColor string `json:"routeColor,omitempty"`
	StopName   string `json:"stopName"`
	Headsign   string `json:"headsign"`
	Vehicle    string `json:"vehicle,omitempty"`

	ArrivalTime   time.Time `json:"arrivalTime"`
	DepartureTime time.Time `json:"departureTime"`

	IsRealtime bool `json:"isRealtime"`
}
