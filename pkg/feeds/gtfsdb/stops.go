package gtfsdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nextstop/nextstop/pkg/feeds"
	"github.com/nextstop/nextstop/pkg/transit"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (b *Backend) Stop(ctx context.Context, stopID string) (*transit.Stop, error) {
	stop, err := b.stopDocument(ctx, stopID)
	if err != nil {
		return nil, err
	}

	return convertStop(stop), nil
}

func (b *Backend) stopDocument(ctx context.Context, stopID string) (*Stop, error) {
	var stop Stop

	err := b.collection("stops").FindOne(ctx, bson.M{
		"feedcode": b.FeedCode,
		"stopid":   stopID,
	}).Decode(&stop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: stop %s", feeds.ErrNotFound, stopID)
	}
	if err != nil {
		return nil, err
	}

	return &stop, nil
}

func (b *Backend) RoutesForStop(ctx context.Context, stopID string) ([]transit.Route, error) {
	routeIDs, err := b.collection("trips").Distinct(ctx, "routeid", bson.M{
		"feedcode":         b.FeedCode,
		"stoptimes.stopid": stopID,
	})
	if err != nil {
		return nil, err
	}

	if len(routeIDs) == 0 {
		return nil, nil
	}

	cursor, err := b.collection("routes").Find(ctx, bson.M{
		"feedcode": b.FeedCode,
		"routeid":  bson.M{"$in": routeIDs},
	})
	if err != nil {
		return nil, err
	}

	var routeDocuments []Route
	if err := cursor.All(ctx, &routeDocuments); err != nil {
		return nil, err
	}

	var routes []transit.Route
	for _, route := range routeDocuments {
		routes = append(routes, transit.Route{
			PrimaryIdentifier: route.RouteID,
			ShortName:         route.ShortName,
			LongName:          route.LongName,
			Color:             route.Color,
		})
	}

	return routes, nil
}

// StopsInArea implements the AreaSearcher capability with a geospatial
// box query.
func (b *Backend) StopsInArea(ctx context.Context, box transit.BoundingBox) ([]transit.Stop, error) {
	locationQuery := bson.M{"location": bson.M{"$geoWithin": bson.M{"$box": bson.A{
		bson.A{box.MinLongitude, box.MinLatitude},
		bson.A{box.MaxLongitude, box.MaxLatitude},
	}}}}

	cursor, err := b.collection("stops").Find(ctx, bson.M{
		"$and": bson.A{bson.M{"feedcode": b.FeedCode}, locationQuery},
	})
	if err != nil {
		return nil, err
	}

	var stopDocuments []Stop
	if err := cursor.All(ctx, &stopDocuments); err != nil {
		return nil, err
	}

	var stops []transit.Stop
	for index := range stopDocuments {
		stops = append(stops, *convertStop(&stopDocuments[index]))
	}

	return stops, nil
}

// AgencyBounds implements the BoundsProvider capability by folding every
// stop location into one box.
func (b *Backend) AgencyBounds(ctx context.Context) (transit.BoundingBox, error) {
	cursor, err := b.collection("stops").Find(ctx, bson.M{"feedcode": b.FeedCode})
	if err != nil {
		return transit.BoundingBox{}, err
	}

	var bounds transit.BoundingBox
	first := true

	for cursor.Next(ctx) {
		var stop Stop
		if err := cursor.Decode(&stop); err != nil {
			return transit.BoundingBox{}, err
		}

		if len(stop.Location.Coordinates) != 2 {
			continue
		}

		longitude := stop.Location.Coordinates[0]
		latitude := stop.Location.Coordinates[1]

		if first {
			bounds = transit.BoundingBox{
				MinLongitude: longitude,
				MinLatitude:  latitude,
				MaxLongitude: longitude,
				MaxLatitude:  latitude,
			}
			first = false
			continue
		}

		bounds = bounds.Union(transit.BoundingBox{
			MinLongitude: longitude,
			MinLatitude:  latitude,
			MaxLongitude: longitude,
			MaxLatitude:  latitude,
		})
	}

	return bounds, nil
}

func convertStop(stop *Stop) *transit.Stop {
	converted := &transit.Stop{
		PrimaryIdentifier: stop.StopID,
		PrimaryName:       stop.Name,
		Code:              stop.Code,
	}

	if len(stop.Location.Coordinates) == 2 {
		converted.Location = &transit.Location{
			Type:        "Point",
			Coordinates: stop.Location.Coordinates,
		}
	}

	return converted
}
