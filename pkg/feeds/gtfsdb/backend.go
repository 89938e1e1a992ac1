// Package gtfsdb implements a feed backend over a GTFS timetable stored
// in MongoDB, with an optional GTFS-RT trip update feed on the side.
package gtfsdb

import (
	"net/http"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/nextstop/nextstop/pkg/clock"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/singleflight"
)

type Backend struct {
	FeedCode string
	Database *mongo.Database

	RealtimeURL string
	Clock       clock.Clock

	realtimeTTL time.Duration
	httpClient  *http.Client

	feedCache  *cache.Cache[string]
	fetchGroup singleflight.Group
}

func NewBackend(feedCode string, database *mongo.Database, realtimeURL string, realtimeTTL time.Duration, c clock.Clock) *Backend {
	return &Backend{
		FeedCode: feedCode,
		Database: database,

		RealtimeURL: realtimeURL,
		Clock:       c,

		realtimeTTL: realtimeTTL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Backend) Name() string {
	return "GTFS Database - " + b.FeedCode
}

// SetupCache attaches a redis-backed cache for raw realtime responses so
// many concurrent subscriptions do not hammer the upstream feed.
func (b *Backend) SetupCache(client *redis.Client) {
	redisStore := redisstore.NewRedis(client)

	b.feedCache = cache.New[string](redisStore)
}

func (b *Backend) collection(name string) *mongo.Collection {
	return b.Database.Collection(name)
}
