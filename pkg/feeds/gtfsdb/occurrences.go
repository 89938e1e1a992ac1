package gtfsdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nextstop/nextstop/pkg/feeds"
	"github.com/nextstop/nextstop/pkg/transit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const serviceDateFormat = "20060102"

// Occurrences materialises the calendar-day trip instances visiting the
// stop on the route, for a day offset relative to today. Stop time
// offsets beyond 24 hours naturally land past midnight, which is how a
// -1 offset surfaces yesterday's late-running trips.
func (b *Backend) Occurrences(ctx context.Context, routeID string, stopID string, dayOffset int) ([]transit.ScheduledOccurrence, error) {
	now := b.Clock.Now()
	day := now.AddDate(0, 0, dayOffset)

	serviceDate := day.Format(serviceDateFormat)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	weekday := int(day.Weekday())

	route, err := b.route(ctx, routeID)
	if err != nil {
		return nil, err
	}

	stop, err := b.stopDocument(ctx, stopID)
	if err != nil {
		return nil, err
	}

	cursor, err := b.collection("trips").Find(ctx, bson.M{
		"feedcode":         b.FeedCode,
		"routeid":          routeID,
		"stoptimes.stopid": stopID,
	})
	if err != nil {
		return nil, fmt.Errorf("trip lookup failed: %w", err)
	}

	var trips []Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("trip decode failed: %w", err)
	}

	services := map[string]*Service{}

	var occurrences []transit.ScheduledOccurrence

	for _, trip := range trips {
		service, exists := services[trip.ServiceID]
		if !exists {
			service, err = b.service(ctx, trip.ServiceID)
			if err != nil {
				return nil, err
			}
			services[trip.ServiceID] = service
		}

		if service == nil || !service.ActiveOn(serviceDate, weekday) {
			continue
		}

		for _, stopTime := range trip.StopTimes {
			if stopTime.StopID != stopID {
				continue
			}

			occurrences = append(occurrences, transit.ScheduledOccurrence{
				TripID:       trip.TripID,
				StartDate:    serviceDate,
				StopSequence: stopTime.StopSequence,

				RouteID:    routeID,
				RouteName:  route.ShortName,
				RouteColor: route.Color,

				StopID:   stopID,
				StopName: stop.Name,
				Headsign: trip.Headsign,

				ScheduledArrival:   midnight.Add(time.Duration(stopTime.ArrivalOffset) * time.Second),
				ScheduledDeparture: midnight.Add(time.Duration(stopTime.DepartureOffset) * time.Second),
			})
		}
	}

	return occurrences, nil
}

func (b *Backend) route(ctx context.Context, routeID string) (*Route, error) {
	var route Route

	err := b.collection("routes").FindOne(ctx, bson.M{
		"feedcode": b.FeedCode,
		"routeid":  routeID,
	}).Decode(&route)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("route %s: %w", routeID, feeds.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("route %s lookup failed: %w", routeID, err)
	}

	return &route, nil
}

func (b *Backend) service(ctx context.Context, serviceID string) (*Service, error) {
	result := b.collection("services").FindOne(ctx, bson.M{
		"feedcode":  b.FeedCode,
		"serviceid": serviceID,
	})

	return decodeService(result, serviceID)
}

func decodeService(result *mongo.SingleResult, serviceID string) (*Service, error) {
	var service Service

	err := result.Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// A trip referencing an unknown service simply never runs
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("service %s lookup failed: %w", serviceID, err)
	}

	return &service, nil
}
