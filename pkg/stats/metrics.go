package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Per-feed counters. The "feed" label is the feed code, or "federated"
// for queries spanning the whole namespace.
var (
	ScheduleAssemblies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextstop_schedule_assemblies_total",
		Help: "Schedule assemblies executed, by feed",
	}, []string{"feed"})

	RealtimeFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextstop_realtime_fetch_failures_total",
		Help: "Realtime trip update fetches that failed and degraded to schedule-only results",
	}, []string{"feed"})

	LivePolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nextstop_live_polls_total",
		Help: "Upstream polls executed by live subscriptions, by feed",
	}, []string{"feed"})

	LiveListeners = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "nextstop_live_listeners",
		Help: "Currently attached live subscription listeners, by feed",
	}, []string{"feed"})
)

// FeedLabel normalises an empty feed code for metric labels.
func FeedLabel(feedCode string) string {
	if feedCode == "" {
		return "federated"
	}

	return feedCode
}
