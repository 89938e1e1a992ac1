package reconciler

import (
	"testing"
	"time"

	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/stretchr/testify/assert"
)

func resolvedAt(arrival time.Time, departure time.Time) transit.ResolvedTrip {
	return transit.ResolvedTrip{
		TripID:        "trip-1",
		ArrivalTime:   arrival,
		DepartureTime: departure,
	}
}

func TestFilterDropsPastDepartures(t *testing.T) {
	filter := NewFilter()
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	past := resolvedAt(now.Add(-2*time.Minute), now.Add(-time.Minute))
	future := resolvedAt(now.Add(time.Minute), now.Add(2*time.Minute))

	assert.False(t, filter.Keep(past, testOccurrence(), Match{}, now))
	assert.True(t, filter.Keep(future, testOccurrence(), Match{}, now))
}

func TestFilterSuppressesCancellationWithinWindow(t *testing.T) {
	filter := NewFilter()
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	resolved := resolvedAt(now.Add(time.Hour), now.Add(time.Hour+time.Minute))

	match := Match{
		TripUpdate: &transit.RealtimeTripUpdate{
			TripID:               "trip-1",
			ScheduleRelationship: transit.ScheduleRelationshipCanceled,
		},
	}

	assert.False(t, filter.Keep(resolved, testOccurrence(), match, now))
}

func TestFilterIgnoresAmbiguousCancellationOutsideWindow(t *testing.T) {
	filter := NewFilter()
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	// Tomorrow's occurrence is far outside the activity window; an update
	// that does not declare its day cannot touch it
	resolved := resolvedAt(now.Add(26*time.Hour), now.Add(26*time.Hour+time.Minute))

	occurrence := testOccurrence()
	occurrence.StartDate = "20240515"

	match := Match{
		TripUpdate: &transit.RealtimeTripUpdate{
			TripID:               "trip-1",
			ScheduleRelationship: transit.ScheduleRelationshipCanceled,
		},
	}

	assert.True(t, filter.Keep(resolved, occurrence, match, now))
}

func TestFilterHonoursExactDayCancellationOutsideWindow(t *testing.T) {
	filter := NewFilter()
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	resolved := resolvedAt(now.Add(26*time.Hour), now.Add(26*time.Hour+time.Minute))

	occurrence := testOccurrence()
	occurrence.StartDate = "20240515"

	match := Match{
		TripUpdate: &transit.RealtimeTripUpdate{
			TripID:               "trip-1",
			StartDate:            "20240515",
			ScheduleRelationship: transit.ScheduleRelationshipCanceled,
		},
	}

	assert.False(t, filter.Keep(resolved, occurrence, match, now))

	// The same trip on a different day is untouched
	otherDay := testOccurrence()
	otherDay.StartDate = "20240516"

	otherDayMatch := Match{}
	otherResolved := resolvedAt(now.Add(50*time.Hour), now.Add(50*time.Hour+time.Minute))

	assert.True(t, filter.Keep(otherResolved, otherDay, otherDayMatch, now))
}

func TestFilterSuppressesSkippedStop(t *testing.T) {
	filter := NewFilter()
	now := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)

	resolved := resolvedAt(now.Add(30*time.Minute), now.Add(31*time.Minute))

	match := Match{
		TripUpdate: &transit.RealtimeTripUpdate{TripID: "trip-1"},
		StopTimeUpdate: &transit.StopTimeUpdate{
			ScheduleRelationship: transit.ScheduleRelationshipSkipped,
		},
	}

	assert.False(t, filter.Keep(resolved, testOccurrence(), match, now))
}

func TestDeduplicate(t *testing.T) {
	arrival := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	departure := arrival.Add(time.Minute)

	trips := []transit.ResolvedTrip{
		resolvedAt(arrival, departure),
		resolvedAt(arrival, departure),
		resolvedAt(arrival.Add(time.Hour), departure.Add(time.Hour)),
	}

	deduplicated := Deduplicate(trips)

	assert.Len(t, deduplicated, 2)
}
