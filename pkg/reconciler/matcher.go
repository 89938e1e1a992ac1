package reconciler

import (
	"strings"

	"github.com/nextstop/nextstop/pkg/transit"
)

// Match is the outcome of pairing one scheduled occurrence with the
// realtime batch. Any of the fields can be empty when no counterpart was
// found.
type Match struct {
	TripUpdate     *transit.RealtimeTripUpdate
	StopTimeUpdate *transit.StopTimeUpdate
	VehicleLabel   string
}

type Matcher struct {
	// FuzzyTripMatching also accepts an update whose trip id is a
	// substring of the scheduled trip id. Some feeds truncate or
	// re-prefix trip ids relative to their own static schedule.
	FuzzyTripMatching bool
}

// Match finds the best realtime update for the occurrence within the
// batch. An update without a start date is ambiguous and matches an
// occurrence on any calendar day.
func (m Matcher) Match(occurrence transit.ScheduledOccurrence, updates []transit.RealtimeTripUpdate) Match {
	for index := range updates {
		update := &updates[index]

		if !m.tripIDMatches(occurrence.TripID, update.TripID) {
			continue
		}

		if update.StartDate != "" && update.StartDate != occurrence.StartDate {
			continue
		}

		return Match{
			TripUpdate:     update,
			StopTimeUpdate: matchStopTimeUpdate(occurrence, update),
			VehicleLabel:   update.VehicleLabel,
		}
	}

	return Match{}
}

func (m Matcher) tripIDMatches(scheduledTripID string, updateTripID string) bool {
	if updateTripID == "" {
		return false
	}

	if scheduledTripID == updateTripID {
		return true
	}

	return m.FuzzyTripMatching && strings.Contains(scheduledTripID, updateTripID)
}

func matchStopTimeUpdate(occurrence transit.ScheduledOccurrence, update *transit.RealtimeTripUpdate) *transit.StopTimeUpdate {
	for index := range update.StopTimeUpdates {
		stopTimeUpdate := &update.StopTimeUpdates[index]

		if stopTimeUpdate.StopSequence != nil && *stopTimeUpdate.StopSequence == occurrence.StopSequence {
			return stopTimeUpdate
		}

		if stopTimeUpdate.StopID != "" && stopTimeUpdate.StopID == occurrence.StopID {
			return stopTimeUpdate
		}
	}

	// No direct update for this stop - propagate the delay of the nearest
	// preceding stop that has one. Only the delay fields carry forward,
	// the absolute times belong to the other stop.
	var preceding *transit.StopTimeUpdate
	precedingSequence := -1

	for index := range update.StopTimeUpdates {
		stopTimeUpdate := &update.StopTimeUpdates[index]

		if stopTimeUpdate.StopSequence == nil {
			continue
		}

		sequence := *stopTimeUpdate.StopSequence
		if sequence < occurrence.StopSequence && sequence > precedingSequence {
			preceding = stopTimeUpdate
			precedingSequence = sequence
		}
	}

	if preceding == nil {
		return nil
	}

	return &transit.StopTimeUpdate{
		ArrivalDelay:   preceding.ArrivalDelay,
		DepartureDelay: preceding.DepartureDelay,
	}
}
