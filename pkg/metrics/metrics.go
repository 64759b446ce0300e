package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	BatchesRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_batches_run_total",
		Help: "The total number of completed batch runs",
	})

	BatchesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_batches_skipped_total",
		Help: "The total number of batch triggers skipped because a run was already in progress",
	})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_batch_duration_seconds",
		Help:    "Time taken to run one batch",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // Start at 10ms with 12 buckets doubling in size
	})

	PendingIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_pending_intents",
		Help: "The number of pending intents seen by the last batch",
	})

	ExpiredIntents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_expired_intents_total",
		Help: "The total number of intents dropped for passing their deadline",
	})

	CoWMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_cow_matches_total",
		Help: "The total number of direct intent-to-intent matches",
	})

	PoolRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_pool_routes_total",
		Help: "The total number of intents settled against pools by chain",
	}, []string{"chain_id"})

	CrossChainRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_cross_chain_routes_total",
		Help: "The total number of intents routed to a pool on another chain",
	}, []string{"target_chain_id"})

	QueuedIntents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_queued_intents_total",
		Help: "The total number of intents left unmatched for the next batch",
	})

	IntentErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_intent_errors_total",
		Help: "Total number of per-intent processing errors by type",
	}, []string{"error_type"})

	VenueSnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "solver_venue_snapshot_size",
		Help: "Number of venues in the current snapshot",
	})

	VenueRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "solver_venue_refresh_failures_total",
		Help: "The total number of venue snapshot refreshes that failed entirely",
	})

	VenueFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_venue_fetch_errors_total",
		Help: "Total number of per-chain venue fetch errors",
	}, []string{"chain_id"})

	TunedGasCost = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "solver_tuned_gas_cost",
		Help: "Current per-chain venue gas cost estimate in output token units",
	}, []string{"chain_id"})
)
