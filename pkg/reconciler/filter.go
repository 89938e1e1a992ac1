package reconciler

import (
	"time"

	"github.com/nextstop/nextstop/pkg/transit"
)

// DefaultActivityWindow bounds how far from "now" an ambiguous-day
// cancellation or skip is still honoured. An update that declares its
// calendar day exactly is honoured regardless.
const DefaultActivityWindow = 4 * time.Hour

type Filter struct {
	ActivityWindow time.Duration
}

func NewFilter() Filter {
	return Filter{ActivityWindow: DefaultActivityWindow}
}

// Keep reports whether the resolved occurrence should be shown. Past
// departures are always hidden; cancellations and skipped stops are
// hidden when the update is trustworthy for this calendar day.
func (f Filter) Keep(resolved transit.ResolvedTrip, occurrence transit.ScheduledOccurrence, match Match, now time.Time) bool {
	if resolved.DepartureTime.Before(now) {
		return false
	}

	arrivalDistance := absDuration(resolved.ArrivalTime.Sub(now))
	departureDistance := absDuration(resolved.DepartureTime.Sub(now))

	feasiblyActive := arrivalDistance < f.ActivityWindow || departureDistance < f.ActivityWindow

	exactDayMatch := match.TripUpdate != nil &&
		match.TripUpdate.StartDate != "" &&
		match.TripUpdate.StartDate == occurrence.StartDate

	if !feasiblyActive && !exactDayMatch {
		return true
	}

	if match.TripUpdate != nil && match.TripUpdate.ScheduleRelationship == transit.ScheduleRelationshipCanceled {
		return false
	}

	if match.StopTimeUpdate != nil && match.StopTimeUpdate.ScheduleRelationship == transit.ScheduleRelationshipSkipped {
		return false
	}

	return true
}

// Deduplicate removes occurrences that resolved to an identical
// (trip, arrival, departure) triple. Overlapping day-offset windows can
// surface the same trip instance twice.
func Deduplicate(trips []transit.ResolvedTrip) []transit.ResolvedTrip {
	type tripKey struct {
		tripID    string
		arrival   time.Time
		departure time.Time
	}

	seen := map[tripKey]bool{}
	var deduplicated []transit.ResolvedTrip

	for _, trip := range trips {
		key := tripKey{tripID: trip.TripID, arrival: trip.ArrivalTime, departure: trip.DepartureTime}
		if seen[key] {
			continue
		}

		seen[key] = true
		deduplicated = append(deduplicated, trip)
	}

	return deduplicated
}
