package assembler

import (
	"context"
	"time"

	"github.com/nextstop/nextstop/pkg/clock"
	"github.com/nextstop/nextstop/pkg/feeds"
	"github.com/nextstop/nextstop/pkg/reconciler"
	"github.com/nextstop/nextstop/pkg/stats"
	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/nextstop/nextstop/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/slices"
)

// Trips that started yesterday and run past midnight, trips starting
// today, and trips starting tomorrow visible early. Order is fixed so
// aggregation stays deterministic for equal sort keys.
var dayOffsets = []int{-1, 0, 1}

type Assembler struct {
	Clock clock.Clock

	Matcher  reconciler.Matcher
	Resolver reconciler.Resolver
	Filter   reconciler.Filter

	// Feeds whose realtime trip ids only partially match their schedule
	FuzzyFeeds map[string]bool
}

func NewAssembler(c clock.Clock) *Assembler {
	return &Assembler{
		Clock:    c,
		Resolver: reconciler.NewResolver(),
		Filter:   reconciler.NewFilter(),
	}
}

// Assemble produces the ranked, bounded list of upcoming trips for the
// query. The query must already be validated.
func (a *Assembler) Assemble(ctx context.Context, backend feeds.Backend, query transit.ScheduleQuery) ([]transit.ResolvedTrip, error) {
	stats.ScheduleAssemblies.WithLabelValues(stats.FeedLabel(query.FeedCode)).Inc()

	// Schedule first - a query with unresolvable pair identifiers must be
	// rejected before any realtime work happens or failure counters move
	occurrenceSets, err := a.fetchOccurrences(ctx, backend, query)
	if err != nil {
		return nil, err
	}

	var routeIDs []string
	for _, pair := range query.Routes {
		routeIDs = append(routeIDs, pair.RouteID)
	}
	routeIDs = util.RemoveDuplicateStrings(routeIDs, nil)

	// A realtime outage must not take the departure board down with it
	updates, err := backend.TripUpdates(ctx, routeIDs)
	if err != nil {
		log.Warn().Err(err).Str("backend", backend.Name()).Msg("Realtime fetch failed, falling back to schedule-only results")
		stats.RealtimeFetchFailures.WithLabelValues(stats.FeedLabel(query.FeedCode)).Inc()
		updates = nil
	}

	now := a.Clock.Now()

	matcher := a.Matcher
	if a.FuzzyFeeds[query.FeedCode] {
		matcher.FuzzyTripMatching = true
	}

	var trips []transit.ResolvedTrip

	for setIndex, occurrences := range occurrenceSets {
		pair := query.Routes[setIndex%len(query.Routes)]
		offset := time.Duration(pair.OffsetSeconds) * time.Second

		for _, occurrence := range occurrences {
			match := matcher.Match(occurrence, updates)
			resolved := a.Resolver.Resolve(occurrence, match)

			resolved.ArrivalTime = resolved.ArrivalTime.Add(offset)
			resolved.DepartureTime = resolved.DepartureTime.Add(offset)

			if a.Filter.Keep(resolved, occurrence, match, now) {
				trips = append(trips, resolved)
			}
		}
	}

	trips = reconciler.Deduplicate(trips)

	sortKey := func(trip transit.ResolvedTrip) time.Time {
		if query.SortByDeparture {
			return trip.DepartureTime
		}
		return trip.ArrivalTime
	}

	slices.SortStableFunc(trips, func(first transit.ResolvedTrip, second transit.ResolvedTrip) int {
		return sortKey(first).Compare(sortKey(second))
	})

	util.InPlaceFilter(&trips, func(trip transit.ResolvedTrip) bool {
		return sortKey(trip).After(now)
	})

	if query.ListMode == transit.ListModeNextPerRoute {
		trips = firstPerPair(trips)
	}

	if len(trips) > query.Limit {
		trips = trips[:query.Limit]
	}

	return trips, nil
}

// fetchOccurrences runs every (day offset, pair) fetch concurrently but
// returns the sets in fixed offset-major, query-order minor order.
func (a *Assembler) fetchOccurrences(ctx context.Context, backend feeds.Backend, query transit.ScheduleQuery) ([][]transit.ScheduledOccurrence, error) {
	occurrenceSets := make([][]transit.ScheduledOccurrence, len(dayOffsets)*len(query.Routes))

	p := pool.New().WithErrors().WithContext(ctx)

	for offsetIndex, dayOffset := range dayOffsets {
		for pairIndex, pair := range query.Routes {
			dayOffset, pair := dayOffset, pair
			setIndex := offsetIndex*len(query.Routes) + pairIndex

			p.Go(func(ctx context.Context) error {
				occurrences, err := backend.Occurrences(ctx, pair.RouteID, pair.StopID, dayOffset)
				if err != nil {
					return err
				}

				occurrenceSets[setIndex] = occurrences
				return nil
			})
		}
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return occurrenceSets, nil
}

// firstPerPair keeps only the earliest occurrence for each distinct
// (route, stop) pair, preserving sorted order.
func firstPerPair(trips []transit.ResolvedTrip) []transit.ResolvedTrip {
	type pairKey struct {
		routeID string
		stopID  string
	}

	seen := map[pairKey]bool{}
	var next []transit.ResolvedTrip

	for _, trip := range trips {
		key := pairKey{routeID: trip.RouteID, stopID: trip.StopID}
		if seen[key] {
			continue
		}

		seen[key] = true
		next = append(next, trip)
	}

	return next
}
