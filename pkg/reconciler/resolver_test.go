package reconciler

import (
	"testing"
	"time"

	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/stretchr/testify/assert"
)

func TestResolveNoUpdate(t *testing.T) {
	resolver := NewResolver()
	occurrence := testOccurrence()

	resolved := resolver.Resolve(occurrence, Match{})

	assert.Equal(t, occurrence.ScheduledArrival, resolved.ArrivalTime)
	assert.Equal(t, occurrence.ScheduledDeparture, resolved.DepartureTime)
	assert.False(t, resolved.IsRealtime)
}

func TestResolveExplicitDelays(t *testing.T) {
	resolver := NewResolver()
	occurrence := testOccurrence()

	resolved := resolver.Resolve(occurrence, Match{
		StopTimeUpdate: &transit.StopTimeUpdate{
			ArrivalDelay:   intPtr(30),
			DepartureDelay: intPtr(60),
		},
	})

	assert.Equal(t, occurrence.ScheduledArrival.Add(30*time.Second), resolved.ArrivalTime)
	assert.Equal(t, occurrence.ScheduledDeparture.Add(60*time.Second), resolved.DepartureTime)
	assert.True(t, resolved.IsRealtime)
}

func TestResolveAbsoluteTimes(t *testing.T) {
	resolver := NewResolver()
	occurrence := testOccurrence()

	arrival := occurrence.ScheduledArrival.Add(2 * time.Minute)
	departure := occurrence.ScheduledDeparture.Add(3 * time.Minute)

	resolved := resolver.Resolve(occurrence, Match{
		StopTimeUpdate: &transit.StopTimeUpdate{
			ArrivalTime:   timePtr(arrival),
			DepartureTime: timePtr(departure),
		},
	})

	assert.Equal(t, arrival, resolved.ArrivalTime)
	assert.Equal(t, departure, resolved.DepartureTime)
	assert.True(t, resolved.IsRealtime)
}

func TestResolveInfersDelayFromSingleAbsoluteTime(t *testing.T) {
	resolver := NewResolver()
	occurrence := testOccurrence()

	// Arrival runs 90s late, nothing said about departure - the delay is
	// assumed to hold for the whole stop visit
	arrival := occurrence.ScheduledArrival.Add(90 * time.Second)

	resolved := resolver.Resolve(occurrence, Match{
		StopTimeUpdate: &transit.StopTimeUpdate{
			ArrivalTime: timePtr(arrival),
		},
	})

	assert.Equal(t, arrival, resolved.ArrivalTime)
	assert.Equal(t, occurrence.ScheduledDeparture.Add(90*time.Second), resolved.DepartureTime)
}

func TestResolveClampsDepartureToArrival(t *testing.T) {
	resolver := NewResolver()
	occurrence := testOccurrence()

	// Arrival pushed past the (unmodified) departure
	arrival := occurrence.ScheduledDeparture.Add(5 * time.Minute)

	resolved := resolver.Resolve(occurrence, Match{
		StopTimeUpdate: &transit.StopTimeUpdate{
			ArrivalTime:    timePtr(arrival),
			DepartureDelay: intPtr(0),
		},
	})

	assert.Equal(t, arrival, resolved.ArrivalTime)
	assert.Equal(t, arrival, resolved.DepartureTime)
}

func TestResolveDiscardsExcessiveDeviation(t *testing.T) {
	resolver := NewResolver()
	occurrence := testOccurrence()

	// 100 minutes of delay is past the trust threshold
	resolved := resolver.Resolve(occurrence, Match{
		StopTimeUpdate: &transit.StopTimeUpdate{
			ArrivalDelay:   intPtr(6000),
			DepartureDelay: intPtr(6000),
		},
	})

	assert.Equal(t, occurrence.ScheduledArrival, resolved.ArrivalTime)
	assert.Equal(t, occurrence.ScheduledDeparture, resolved.DepartureTime)
	assert.False(t, resolved.IsRealtime)
}

func TestResolveCarriesOccurrenceFields(t *testing.T) {
	resolver := NewResolver()

	occurrence := testOccurrence()
	occurrence.RouteName = "42"
	occurrence.StopName = "Main St"
	occurrence.Headsign = "Downtown"

	resolved := resolver.Resolve(occurrence, Match{VehicleLabel: "1234"})

	assert.Equal(t, "trip-1", resolved.TripID)
	assert.Equal(t, "42", resolved.RouteName)
	assert.Equal(t, "Main St", resolved.StopName)
	assert.Equal(t, "Downtown", resolved.Headsign)
	assert.Equal(t, "1234", resolved.Vehicle)
}
