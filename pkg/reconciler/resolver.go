package reconciler

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/rs/zerolog/log"
)

// Predictions that deviate further than this from the schedule are
// considered untrustworthy and discarded, per common industry guidance.
const DefaultMaxDeviation = 90 * time.Minute

type Resolver struct {
	MaxDeviation time.Duration
}

func NewResolver() Resolver {
	return Resolver{MaxDeviation: DefaultMaxDeviation}
}

// Resolve computes the best-estimate arrival and departure for the
// occurrence given its matched realtime update.
func (r Resolver) Resolve(occurrence transit.ScheduledOccurrence, match Match) transit.ResolvedTrip {
	var resolved transit.ResolvedTrip
	if err := copier.Copy(&resolved, &occurrence); err != nil {
		log.Error().Err(err).Str("trip", occurrence.TripID).Msg("Failed copying occurrence fields")
	}

	resolved.ArrivalTime = occurrence.ScheduledArrival
	resolved.DepartureTime = occurrence.ScheduledDeparture
	resolved.Vehicle = match.VehicleLabel

	stopTimeUpdate := match.StopTimeUpdate
	if stopTimeUpdate == nil {
		return resolved
	}

	inferredDelay := inferDelay(occurrence, stopTimeUpdate)

	arrival := occurrence.ScheduledArrival
	if stopTimeUpdate.ArrivalTime != nil {
		arrival = *stopTimeUpdate.ArrivalTime
	} else if stopTimeUpdate.ArrivalDelay != nil {
		arrival = arrival.Add(time.Duration(*stopTimeUpdate.ArrivalDelay) * time.Second)
	} else {
		arrival = arrival.Add(inferredDelay)
	}

	departure := occurrence.ScheduledDeparture
	if stopTimeUpdate.DepartureTime != nil {
		departure = *stopTimeUpdate.DepartureTime
	} else if stopTimeUpdate.DepartureDelay != nil {
		departure = departure.Add(time.Duration(*stopTimeUpdate.DepartureDelay) * time.Second)
	} else {
		departure = departure.Add(inferredDelay)
	}

	// A vehicle cannot leave before it shows up
	if departure.Before(arrival) {
		departure = arrival
	}

	maxDeviation := absDuration(departure.Sub(occurrence.ScheduledDeparture))
	if arrivalDeviation := absDuration(arrival.Sub(occurrence.ScheduledArrival)); arrivalDeviation > maxDeviation {
		maxDeviation = arrivalDeviation
	}

	if maxDeviation > r.MaxDeviation {
		return resolved
	}

	resolved.ArrivalTime = arrival
	resolved.DepartureTime = departure
	resolved.IsRealtime = true

	return resolved
}

// inferDelay derives a delay for the sides that carry neither an explicit
// delay nor an absolute time. It only applies when exactly one side has an
// absolute time - the difference to that side's schedule is then assumed
// to hold for the whole stop visit.
func inferDelay(occurrence transit.ScheduledOccurrence, update *transit.StopTimeUpdate) time.Duration {
	if update.ArrivalTime != nil && update.DepartureTime == nil {
		return update.ArrivalTime.Sub(occurrence.ScheduledArrival)
	}

	if update.DepartureTime != nil && update.ArrivalTime == nil {
		return update.DepartureTime.Sub(occurrence.ScheduledDeparture)
	}

	return 0
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
