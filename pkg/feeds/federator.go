package feeds

import (
	"context"
	"fmt"

	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/sourcegraph/conc/pool"
)

// Federator aggregates every registered backend behind one namespace.
// It speaks global identifiers outwards and the per-feed raw identifiers
// inwards, re-prefixing anything that crosses back out.
type Federator struct {
	Registry *Registry
}

func NewFederator(registry *Registry) *Federator {
	return &Federator{Registry: registry}
}

func (f *Federator) Name() string {
	return "Federated Feed Aggregator"
}

// resolvePair maps a global (route, stop) pair onto a single backend.
// Ids resolving to two different feeds cannot be answered by anyone.
func (f *Federator) resolvePair(globalRouteID string, globalStopID string) (Backend, string, string, string, error) {
	routeFeed, rawRouteID, err := ParseGlobalID(globalRouteID)
	if err != nil {
		return nil, "", "", "", err
	}

	stopFeed, rawStopID, err := ParseGlobalID(globalStopID)
	if err != nil {
		return nil, "", "", "", err
	}

	if routeFeed != stopFeed {
		return nil, "", "", "", fmt.Errorf("%w: %q / %q", ErrFeedMismatch, globalRouteID, globalStopID)
	}

	backend, err := f.Registry.Get(routeFeed)
	if err != nil {
		return nil, "", "", "", err
	}

	return backend, routeFeed, rawRouteID, rawStopID, nil
}

func (f *Federator) Occurrences(ctx context.Context, globalRouteID string, globalStopID string, dayOffset int) ([]transit.ScheduledOccurrence, error) {
	backend, feedCode, rawRouteID, rawStopID, err := f.resolvePair(globalRouteID, globalStopID)
	if err != nil {
		return nil, err
	}

	occurrences, err := backend.Occurrences(ctx, rawRouteID, rawStopID, dayOffset)
	if err != nil {
		return nil, err
	}

	for index := range occurrences {
		occurrences[index].TripID = FormatGlobalID(feedCode, occurrences[index].TripID)
		occurrences[index].RouteID = FormatGlobalID(feedCode, occurrences[index].RouteID)
		occurrences[index].StopID = FormatGlobalID(feedCode, occurrences[index].StopID)
	}

	return occurrences, nil
}

// TripUpdates fans the lookup out to every feed referenced by the given
// global route ids and recombines the batches, re-prefixing trip ids with
// the feed they came from.
func (f *Federator) TripUpdates(ctx context.Context, globalRouteIDs []string) ([]transit.RealtimeTripUpdate, error) {
	routeIDsPerFeed := map[string][]string{}

	for _, globalRouteID := range globalRouteIDs {
		feedCode, rawRouteID, err := ParseGlobalID(globalRouteID)
		if err != nil {
			return nil, err
		}

		routeIDsPerFeed[feedCode] = append(routeIDsPerFeed[feedCode], rawRouteID)
	}

	p := pool.NewWithResults[[]transit.RealtimeTripUpdate]().WithErrors().WithContext(ctx)

	for feedCode, rawRouteIDs := range routeIDsPerFeed {
		feedCode, rawRouteIDs := feedCode, rawRouteIDs
		p.Go(func(ctx context.Context) ([]transit.RealtimeTripUpdate, error) {
			backend, err := f.Registry.Get(feedCode)
			if err != nil {
				return nil, err
			}

			updates, err := backend.TripUpdates(ctx, rawRouteIDs)
			if err != nil {
				return nil, err
			}

			for index := range updates {
				updates[index].TripID = FormatGlobalID(feedCode, updates[index].TripID)
			}

			return updates, nil
		})
	}

	batches, err := p.Wait()
	if err != nil {
		return nil, err
	}

	var updates []transit.RealtimeTripUpdate
	for _, batch := range batches {
		updates = append(updates, batch...)
	}

	return updates, nil
}

func (f *Federator) Stop(ctx context.Context, globalStopID string) (*transit.Stop, error) {
	feedCode, rawStopID, err := ParseGlobalID(globalStopID)
	if err != nil {
		return nil, err
	}

	backend, err := f.Registry.Get(feedCode)
	if err != nil {
		return nil, err
	}

	stop, err := backend.Stop(ctx, rawStopID)
	if err != nil {
		return nil, err
	}

	stop.PrimaryIdentifier = FormatGlobalID(feedCode, stop.PrimaryIdentifier)

	return stop, nil
}

func (f *Federator) RoutesForStop(ctx context.Context, globalStopID string) ([]transit.Route, error) {
	feedCode, rawStopID, err := ParseGlobalID(globalStopID)
	if err != nil {
		return nil, err
	}

	backend, err := f.Registry.Get(feedCode)
	if err != nil {
		return nil, err
	}

	routes, err := backend.RoutesForStop(ctx, rawStopID)
	if err != nil {
		return nil, err
	}

	for index := range routes {
		routes[index].PrimaryIdentifier = FormatGlobalID(feedCode, routes[index].PrimaryIdentifier)
	}

	return routes, nil
}

// StopsInArea asks every backend that supports geographic search and
// merges the results.
func (f *Federator) StopsInArea(ctx context.Context, box transit.BoundingBox) ([]transit.Stop, error) {
	p := pool.NewWithResults[[]transit.Stop]().WithErrors().WithContext(ctx)

	for _, feedCode := range f.Registry.Codes() {
		feedCode := feedCode
		backend, _ := f.Registry.Get(feedCode)

		searcher, supported := backend.(AreaSearcher)
		if !supported {
			continue
		}

		p.Go(func(ctx context.Context) ([]transit.Stop, error) {
			stops, err := searcher.StopsInArea(ctx, box)
			if err != nil {
				return nil, err
			}

			for index := range stops {
				stops[index].PrimaryIdentifier = FormatGlobalID(feedCode, stops[index].PrimaryIdentifier)
			}

			return stops, nil
		})
	}

	batches, err := p.Wait()
	if err != nil {
		return nil, err
	}

	var stops []transit.Stop
	for _, batch := range batches {
		stops = append(stops, batch...)
	}

	return stops, nil
}

// AgencyBounds unions the bounding boxes of every backend that declares
// one.
func (f *Federator) AgencyBounds(ctx context.Context) (transit.BoundingBox, error) {
	p := pool.NewWithResults[transit.BoundingBox]().WithErrors().WithContext(ctx)

	for _, feedCode := range f.Registry.Codes() {
		backend, _ := f.Registry.Get(feedCode)

		provider, supported := backend.(BoundsProvider)
		if !supported {
			continue
		}

		p.Go(func(ctx context.Context) (transit.BoundingBox, error) {
			return provider.AgencyBounds(ctx)
		})
	}

	boxes, err := p.Wait()
	if err != nil {
		return transit.BoundingBox{}, err
	}

	var union transit.BoundingBox
	for _, box := range boxes {
		union = union.Union(box)
	}

	return union, nil
}
