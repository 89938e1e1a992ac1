// Package livestream turns repeated schedule assemblies into a
// deduplicated, multiplexed push stream. Subscriptions are identified by
// query content: the first listener starts the upstream poll loop, later
// listeners share it, and the last one out stops it.
package livestream

import (
	"context"
	"math/rand"
	"reflect"
	"sync"
	"time"

	"github.com/nextstop/nextstop/pkg/stats"
	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/rs/zerolog/log"
)

const (
	EventSchedule  = "schedule"
	EventHeartbeat = "heartbeat"
)

type Event struct {
	Event string
	Trips []transit.ResolvedTrip
}

type AssembleFunc func(ctx context.Context, query transit.ScheduleQuery) ([]transit.ResolvedTrip, error)

type Config struct {
	PollInterval      time.Duration
	MaxJitter         time.Duration
	MaxInitialDelay   time.Duration
	HeartbeatInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval:      30 * time.Second,
		MaxJitter:         time.Second,
		MaxInitialDelay:   10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
	}
}

type Engine struct {
	assemble AssembleFunc
	config   Config

	mutex         sync.Mutex
	subscriptions map[string]*subscription
}

type subscription struct {
	query  transit.ScheduleQuery
	cancel context.CancelFunc

	mutex     sync.Mutex
	listeners map[*Listener]bool

	hasResult  bool
	lastResult []transit.ResolvedTrip
}

// Listener receives the multiplexed events for one attached subscriber.
// Events must be drained promptly - a full listener drops events rather
// than stalling the poll loop.
type Listener struct {
	Events chan Event

	engine          *Engine
	key             string
	subscription    *subscription
	stopHeartbeat   context.CancelFunc
	detachOnce      sync.Once
	metricFeedLabel string
}

func NewEngine(assemble AssembleFunc, config Config) *Engine {
	return &Engine{
		assemble:      assemble,
		config:        config,
		subscriptions: map[string]*subscription{},
	}
}

// Attach registers a listener for the query, starting the shared poll
// loop if this is the first listener for this query content.
func (e *Engine) Attach(query transit.ScheduleQuery) *Listener {
	key := query.ContentKey()

	e.mutex.Lock()

	sub, exists := e.subscriptions[key]
	if !exists {
		ctx, cancel := context.WithCancel(context.Background())
		sub = &subscription{
			query:     query,
			cancel:    cancel,
			listeners: map[*Listener]bool{},
		}
		e.subscriptions[key] = sub

		go e.pollLoop(ctx, sub)

		log.Debug().Str("feed", stats.FeedLabel(query.FeedCode)).Msg("Started live subscription poll loop")
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(context.Background())

	listener := &Listener{
		Events:          make(chan Event, 16),
		engine:          e,
		key:             key,
		subscription:    sub,
		stopHeartbeat:   stopHeartbeat,
		metricFeedLabel: stats.FeedLabel(query.FeedCode),
	}

	sub.mutex.Lock()
	sub.listeners[listener] = true

	// A listener joining an already-primed subscription gets the current
	// state straight away rather than waiting out the poll interval
	if sub.hasResult {
		listener.deliver(Event{Event: EventSchedule, Trips: sub.lastResult})
	}
	sub.mutex.Unlock()

	e.mutex.Unlock()

	stats.LiveListeners.WithLabelValues(listener.metricFeedLabel).Inc()

	go listener.heartbeatLoop(heartbeatCtx, e.config.HeartbeatInterval)

	return listener
}

// Detach removes the listener. Detaching the last listener of a
// subscription cancels its poll loop; detaching one of several leaves
// the others untouched.
func (l *Listener) Detach() {
	l.detachOnce.Do(func() {
		l.stopHeartbeat()

		e := l.engine

		e.mutex.Lock()
		sub := l.subscription

		sub.mutex.Lock()
		delete(sub.listeners, l)
		remaining := len(sub.listeners)
		sub.mutex.Unlock()

		if remaining == 0 {
			sub.cancel()
			delete(e.subscriptions, l.key)

			log.Debug().Str("feed", l.metricFeedLabel).Msg("Stopped live subscription poll loop")
		}
		e.mutex.Unlock()

		stats.LiveListeners.WithLabelValues(l.metricFeedLabel).Dec()
	})
}

func (e *Engine) pollLoop(ctx context.Context, sub *subscription) {
	// The very first poll runs immediately so a fresh subscriber is not
	// stuck waiting out a whole interval
	e.poll(ctx, sub)

	// One-time random delay so many subscriptions created together do not
	// all poll upstream in lockstep
	initialDelay := randomDuration(e.config.MaxInitialDelay)

	wait := initialDelay + e.config.PollInterval + randomDuration(e.config.MaxJitter)

	for {
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		e.poll(ctx, sub)

		wait = e.config.PollInterval + randomDuration(e.config.MaxJitter)
	}
}

func (e *Engine) poll(ctx context.Context, sub *subscription) {
	stats.LivePolls.WithLabelValues(stats.FeedLabel(sub.query.FeedCode)).Inc()

	trips, err := e.assemble(ctx, sub.query)
	if err != nil {
		if ctx.Err() != nil {
			return
		}

		// The next tick retries on its own cadence
		log.Warn().Err(err).Msg("Live subscription poll failed")
		return
	}

	// An empty board is a JSON array on the wire, never null
	if trips == nil {
		trips = []transit.ResolvedTrip{}
	}

	sub.mutex.Lock()
	defer sub.mutex.Unlock()

	if sub.hasResult && reflect.DeepEqual(trips, sub.lastResult) {
		return
	}

	sub.hasResult = true
	sub.lastResult = trips

	for listener := range sub.listeners {
		listener.deliver(Event{Event: EventSchedule, Trips: trips})
	}
}

func (l *Listener) heartbeatLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.deliver(Event{Event: EventHeartbeat})
		}
	}
}

func (l *Listener) deliver(event Event) {
	select {
	case l.Events <- event:
	default:
		log.Warn().Str("event", event.Event).Msg("Dropping live event for slow listener")
	}
}

func randomDuration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(max)))
}
