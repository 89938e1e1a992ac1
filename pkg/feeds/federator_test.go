package feeds

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	name        string
	occurrences []transit.ScheduledOccurrence
	updates     []transit.RealtimeTripUpdate
	stops       []transit.Stop
	bounds      transit.BoundingBox
	searchable  bool
}

func (s *stubBackend) Name() string {
	return s.name
}

func (s *stubBackend) Occurrences(ctx context.Context, routeID string, stopID string, dayOffset int) ([]transit.ScheduledOccurrence, error) {
	return s.occurrences, nil
}

func (s *stubBackend) TripUpdates(ctx context.Context, routeIDs []string) ([]transit.RealtimeTripUpdate, error) {
	return s.updates, nil
}

func (s *stubBackend) Stop(ctx context.Context, stopID string) (*transit.Stop, error) {
	return &transit.Stop{PrimaryIdentifier: stopID, PrimaryName: "A Stop"}, nil
}

func (s *stubBackend) RoutesForStop(ctx context.Context, stopID string) ([]transit.Route, error) {
	return []transit.Route{{PrimaryIdentifier: "route-1"}}, nil
}

// searchableBackend additionally declares the geographic capabilities
type searchableBackend struct {
	stubBackend
}

func (s *searchableBackend) StopsInArea(ctx context.Context, box transit.BoundingBox) ([]transit.Stop, error) {
	return s.stops, nil
}

func (s *searchableBackend) AgencyBounds(ctx context.Context) (transit.BoundingBox, error) {
	return s.bounds, nil
}

func TestParseGlobalID(t *testing.T) {
	feedCode, rawID, err := ParseGlobalID("feedA:stop:123")
	require.NoError(t, err)
	assert.Equal(t, "feedA", feedCode)
	assert.Equal(t, "stop:123", rawID)

	_, _, err = ParseGlobalID("no-feed-prefix")
	assert.ErrorIs(t, err, ErrInvalidGlobalID)

	_, _, err = ParseGlobalID(":raw")
	assert.ErrorIs(t, err, ErrInvalidGlobalID)
}

func TestFederatorRejectsCrossFeedPair(t *testing.T) {
	registry := NewRegistry()
	registry.Register("feedA", &stubBackend{name: "A"})
	registry.Register("feedB", &stubBackend{name: "B"})

	federator := NewFederator(registry)

	_, err := federator.Occurrences(context.Background(), "feedA:X", "feedB:Y", 0)

	assert.ErrorIs(t, err, ErrFeedMismatch)
}

func TestFederatorRejectsUnknownFeed(t *testing.T) {
	federator := NewFederator(NewRegistry())

	_, err := federator.Occurrences(context.Background(), "ghost:X", "ghost:Y", 0)

	assert.ErrorIs(t, err, ErrUnknownFeed)
	assert.True(t, IsClientError(err))
}

func TestFederatorPrefixesOccurrenceIdentifiers(t *testing.T) {
	registry := NewRegistry()
	registry.Register("feedA", &stubBackend{
		name: "A",
		occurrences: []transit.ScheduledOccurrence{
			{
				TripID:             "trip-1",
				RouteID:            "X",
				StopID:             "Y",
				ScheduledArrival:   time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC),
				ScheduledDeparture: time.Date(2024, 5, 14, 12, 1, 0, 0, time.UTC),
			},
		},
	})

	federator := NewFederator(registry)

	occurrences, err := federator.Occurrences(context.Background(), "feedA:X", "feedA:Y", 0)

	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, "feedA:trip-1", occurrences[0].TripID)
	assert.Equal(t, "feedA:X", occurrences[0].RouteID)
	assert.Equal(t, "feedA:Y", occurrences[0].StopID)
}

func TestFederatorRecombinesTripUpdates(t *testing.T) {
	registry := NewRegistry()
	registry.Register("feedA", &stubBackend{
		name:    "A",
		updates: []transit.RealtimeTripUpdate{{TripID: "trip-1"}},
	})
	registry.Register("feedB", &stubBackend{
		name:    "B",
		updates: []transit.RealtimeTripUpdate{{TripID: "trip-9"}},
	})

	federator := NewFederator(registry)

	updates, err := federator.TripUpdates(context.Background(), []string{"feedA:X", "feedB:Y"})

	require.NoError(t, err)
	require.Len(t, updates, 2)

	var tripIDs []string
	for _, update := range updates {
		tripIDs = append(tripIDs, update.TripID)
	}
	assert.ElementsMatch(t, []string{"feedA:trip-1", "feedB:trip-9"}, tripIDs)
}

func TestFederatorUnionsAgencyBounds(t *testing.T) {
	registry := NewRegistry()
	registry.Register("feedA", &searchableBackend{
		stubBackend: stubBackend{name: "A", bounds: transit.BoundingBox{MinLongitude: -1, MinLatitude: 50, MaxLongitude: 1, MaxLatitude: 52}},
	})
	registry.Register("feedB", &searchableBackend{
		stubBackend: stubBackend{name: "B", bounds: transit.BoundingBox{MinLongitude: -3, MinLatitude: 51, MaxLongitude: 0, MaxLatitude: 54}},
	})
	// No geographic capability - skipped, not an error
	registry.Register("feedC", &stubBackend{name: "C"})

	federator := NewFederator(registry)

	bounds, err := federator.AgencyBounds(context.Background())

	require.NoError(t, err)
	assert.Equal(t, transit.BoundingBox{MinLongitude: -3, MinLatitude: 50, MaxLongitude: 1, MaxLatitude: 54}, bounds)
}

func TestFederatorStopsInAreaMergesSearchableFeeds(t *testing.T) {
	registry := NewRegistry()
	registry.Register("feedA", &searchableBackend{
		stubBackend: stubBackend{name: "A", stops: []transit.Stop{{PrimaryIdentifier: "s1"}}},
	})
	registry.Register("feedB", &stubBackend{name: "B"})

	federator := NewFederator(registry)

	stops, err := federator.StopsInArea(context.Background(), transit.BoundingBox{})

	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "feedA:s1", stops[0].PrimaryIdentifier)
}

func TestRegistryUnknownFeed(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("missing")

	assert.True(t, errors.Is(err, ErrUnknownFeed))
}
