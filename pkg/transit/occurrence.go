package transit

import "time"

// ScheduledOccurrence is one calendar-day instance of a trip visiting a
// stop, as produced by a schedule backend. StartDate is the calendar date
// the trip begins on (YYYYMMDD), which for trips running past midnight is
// not necessarily the date of the visit itself.
type ScheduledOccurrence struct {
	TripID       string
	StartDate    string
	StopSequence int

	RouteID    string
	RouteName  string
	RouteColor string

	StopID   string
	StopName string
	Headsign string

	ScheduledArrival   time.Time
	ScheduledDeparture time.Time
}
