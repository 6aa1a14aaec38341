// Package metrics exposes kinlog's Prometheus collectors on the default registry.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	eventsAppendedCounter    *prometheus.CounterVec
	rebuildDurationMetric    *prometheus.HistogramVec
	projectionAppliedCounter *prometheus.CounterVec
	migrationRunsCounter     *prometheus.CounterVec
	cloneChainDepthHistogram *prometheus.HistogramVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		eventsAppendedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinlog_events_appended_total",
				Help: "Total number of events appended, by event type.",
			},
			[]string{"type"},
		)

		rebuildDurationMetric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kinlog_projection_rebuild_seconds",
				Help:    "Duration of projection rebuilds in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"projection"},
		)

		projectionAppliedCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinlog_projection_events_applied_total",
				Help: "Total number of events replayed into a projection.",
			},
			[]string{"projection"},
		)

		migrationRunsCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kinlog_migration_runs_total",
				Help: "Backfill migration invocations by outcome.",
			},
			[]string{"migration", "outcome"},
		)

		cloneChainDepthHistogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kinlog_clone_chain_depth",
				Help:    "Number of clone hops walked to reach the canonical entity.",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
			[]string{"kind"},
		)

		prometheus.MustRegister(
			eventsAppendedCounter,
			rebuildDurationMetric,
			projectionAppliedCounter,
			migrationRunsCounter,
			cloneChainDepthHistogram,
		)
	})
}

func IncEventsAppended(eventType string) {
	Init()
	eventsAppendedCounter.WithLabelValues(eventType).Inc()
}

func ObserveRebuildDuration(projection string, d time.Duration) {
	Init()
	rebuildDurationMetric.WithLabelValues(projection).Observe(d.Seconds())
}

func AddProjectionEventsApplied(projection string, n int) {
	Init()
	projectionAppliedCounter.WithLabelValues(projection).Add(float64(n))
}

func IncMigrationRun(migration, outcome string) {
	Init()
	migrationRunsCounter.WithLabelValues(migration, outcome).Inc()
}

func ObserveCloneChainDepth(kind string, depth int) {
	Init()
	cloneChainDepthHistogram.WithLabelValues(kind).Observe(float64(depth))
}
