package gtfsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/proto"
)

// TripUpdates fetches and decodes the current GTFS-RT batch, keeping only
// the fields the reconciliation core reads. A schedule-only feed returns
// an empty batch.
func (b *Backend) TripUpdates(ctx context.Context, routeIDs []string) ([]transit.RealtimeTripUpdate, error) {
	if b.RealtimeURL == "" {
		return nil, nil
	}

	body, err := b.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	feed := gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed parsing GTFS-RT protobuf: %w", err)
	}

	wantedRoutes := map[string]bool{}
	for _, routeID := range routeIDs {
		wantedRoutes[routeID] = true
	}

	var updates []transit.RealtimeTripUpdate

	for _, entity := range feed.Entity {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil {
			continue
		}

		trip := tripUpdate.GetTrip()

		// Feeds that declare the route let us narrow the batch down; the
		// matcher handles the rest either way
		if len(wantedRoutes) > 0 && trip.GetRouteId() != "" && !wantedRoutes[trip.GetRouteId()] {
			continue
		}

		update := transit.RealtimeTripUpdate{
			TripID:               trip.GetTripId(),
			StartDate:            trip.GetStartDate(),
			ScheduleRelationship: transit.ScheduleRelationshipScheduled,
			VehicleLabel:         tripUpdate.GetVehicle().GetLabel(),
		}

		if trip.GetScheduleRelationship() == gtfs.TripDescriptor_CANCELED {
			update.ScheduleRelationship = transit.ScheduleRelationshipCanceled
		}

		for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
			converted := transit.StopTimeUpdate{
				StopID: stopTimeUpdate.GetStopId(),
			}

			if stopTimeUpdate.StopSequence != nil {
				sequence := int(stopTimeUpdate.GetStopSequence())
				converted.StopSequence = &sequence
			}

			if stopTimeUpdate.GetScheduleRelationship() == gtfs.TripUpdate_StopTimeUpdate_SKIPPED {
				converted.ScheduleRelationship = transit.ScheduleRelationshipSkipped
			}

			if arrival := stopTimeUpdate.GetArrival(); arrival != nil {
				if arrival.Delay != nil {
					delay := int(arrival.GetDelay())
					converted.ArrivalDelay = &delay
				}
				if arrival.Time != nil {
					arrivalTime := time.Unix(arrival.GetTime(), 0)
					converted.ArrivalTime = &arrivalTime
				}
			}

			if departure := stopTimeUpdate.GetDeparture(); departure != nil {
				if departure.Delay != nil {
					delay := int(departure.GetDelay())
					converted.DepartureDelay = &delay
				}
				if departure.Time != nil {
					departureTime := time.Unix(departure.GetTime(), 0)
					converted.DepartureTime = &departureTime
				}
			}

			update.StopTimeUpdates = append(update.StopTimeUpdates, converted)
		}

		updates = append(updates, update)
	}

	return updates, nil
}

// fetchFeed returns the raw realtime response, served from the cache when
// fresh. Concurrent misses for the same feed collapse into one upstream
// request.
func (b *Backend) fetchFeed(ctx context.Context) ([]byte, error) {
	cacheKey := "gtfsrt:" + b.FeedCode

	if b.feedCache != nil {
		if cached, err := b.feedCache.Get(ctx, cacheKey); err == nil && cached != "" {
			return []byte(cached), nil
		}
	}

	body, err, _ := b.fetchGroup.Do(cacheKey, func() (interface{}, error) {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, b.RealtimeURL, nil)
		if err != nil {
			return nil, err
		}

		response, err := b.httpClient.Do(request)
		if err != nil {
			return nil, err
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("realtime feed returned status %d", response.StatusCode)
		}

		contents, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, err
		}

		if b.feedCache != nil {
			if err := b.feedCache.Set(ctx, cacheKey, string(contents), store.WithExpiration(b.realtimeTTL)); err != nil {
				log.Warn().Err(err).Str("feed", b.FeedCode).Msg("Failed caching realtime response")
			}
		}

		return contents, nil
	})
	if err != nil {
		return nil, err
	}

	return body.([]byte), nil
}
