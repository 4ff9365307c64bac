package matchmaking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Total sessions created",
	}, []string{"mode"})

	metricActiveSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Sessions currently active",
	}, []string{"mode"})

	metricQueueSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_size",
		Help: "Users in queue",
	}, []string{"type"})

	metricSessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "session_duration_seconds",
		Help:    "Length of completed sessions",
		Buckets: []float64{30, 60, 120, 300, 600, 1800, 3600},
	})

	metricSearchTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_timeouts_total",
		Help: "Searches that expired without a partner",
	}, []string{"mode"})

	metricCreationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "session_creation_failures_total",
		Help: "Session spaces that could not be provisioned",
	}, []string{"mode"})

	metricTeardownFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "space_teardown_failures_total",
		Help: "Space teardown requests that failed",
	})

	metricReaperActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reaper_actions_total",
		Help: "Cleanup actions taken by the stale-state sweep",
	}, []string{"reason"})
)
