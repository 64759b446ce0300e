// Package solver runs the batch loop: pull pending intents, match and route
// them against the venue snapshot, and hand the resulting plan to settlement.
package solver

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cowmatch-hq/solver/pkg/amm"
	"github.com/cowmatch-hq/solver/pkg/circuitbreaker"
	"github.com/cowmatch-hq/solver/pkg/config"
	"github.com/cowmatch-hq/solver/pkg/intents"
	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/metrics"
	"github.com/cowmatch-hq/solver/pkg/models"
	"github.com/cowmatch-hq/solver/pkg/router"
	"github.com/cowmatch-hq/solver/pkg/tuner"
	"github.com/cowmatch-hq/solver/pkg/venues"
)

// Settler receives the finished plan of one batch run. The default
// implementation only logs; a real settlement submitter plugs in here.
type Settler interface {
	Settle(ctx context.Context, plan *models.ExecutionPlan) error
}

// LogSettler reports the plan through the logger and does nothing else
type LogSettler struct {
	logger logger.Logger
}

// NewLogSettler creates a settler that only logs plans
func NewLogSettler(log logger.Logger) *LogSettler {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &LogSettler{logger: log}
}

// Settle logs every execution in the plan
func (s *LogSettler) Settle(_ context.Context, plan *models.ExecutionPlan) error {
	for i := range plan.Executions {
		exec := &plan.Executions[i]
		switch exec.MatchType {
		case models.MatchCoW:
			s.logger.Info("Settle %s: direct match with %s, output %s",
				exec.Intent.ID, exec.CounterpartyID, exec.ExpectedOutput)
		case models.MatchQueued:
			s.logger.Info("Queue %s: %s", exec.Intent.ID, exec.QueueReason)
		default:
			s.logger.InfoWithChain(exec.Intent.ChainID, "Settle %s: %s via %v, output %s, cost %s",
				exec.Intent.ID, exec.MatchType, exec.VenueIDs, exec.ExpectedOutput, exec.TotalCost)
		}
	}
	return nil
}

// Service owns the batch loop and the components it feeds
type Service struct {
	cfg       *config.Config
	logger    logger.Logger
	client    *intents.Client
	fetcher   *venues.ChainFetcher
	catalog   *venues.Catalog
	breakers  map[int]*circuitbreaker.CircuitBreaker
	tuner     *tuner.AutoTuner
	filter    *IntentFilter
	optimizer *Optimizer
	settler   Settler

	runMu   sync.Mutex
	trigger chan struct{}
}

// NewService wires up a solver service from configuration
func NewService(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}

	breakers := make(map[int]*circuitbreaker.CircuitBreaker)
	for chainID := range cfg.Chains {
		breakers[chainID] = circuitbreaker.NewCircuitBreaker(
			cfg.CircuitBreaker.Enabled,
			chainID,
			cfg.CircuitBreaker.Threshold,
			cfg.CircuitBreaker.WindowDuration,
			cfg.CircuitBreaker.ResetTimeout,
			log,
		)
	}

	fetcher, err := venues.NewChainFetcher(ctx, cfg, breakers, log)
	if err != nil {
		return nil, err
	}
	catalog := venues.NewCatalog(fetcher, cfg.VenueTTL, log)

	costTuner := tuner.New(cfg.TunerAlpha, cfg.GasCosts())
	bridgeFees := venues.NewBridgeFeeEstimator(cfg.BridgeFeeTTL, cfg.BridgeFees(), cfg.DefaultBridgeFee)

	sim := amm.NewSimulator(cfg.LiquidityFraction)
	optimizer := NewOptimizer(
		router.New(sim, cfg.MaxHops),
		bridgeFees,
		costTuner,
		cfg.MinCrossChainImprovement,
		cfg.LiquidityFraction,
		cfg.GlobalAssignment,
		log,
	)

	return &Service{
		cfg:       cfg,
		logger:    log,
		client:    intents.New(cfg.APIEndpoint, log),
		fetcher:   fetcher,
		catalog:   catalog,
		breakers:  breakers,
		tuner:     costTuner,
		filter:    NewIntentFilter(log),
		optimizer: optimizer,
		settler:   NewLogSettler(log),
		trigger:   make(chan struct{}, 1),
	}, nil
}

// SetSettler replaces the plan sink. Call before Start.
func (s *Service) SetSettler(settler Settler) {
	if settler != nil {
		s.settler = settler
	}
}

// Catalog exposes the venue catalog for health reporting
func (s *Service) Catalog() *venues.Catalog {
	return s.catalog
}

// Breakers exposes the per-chain circuit breakers for health reporting
func (s *Service) Breakers() map[int]*circuitbreaker.CircuitBreaker {
	return s.breakers
}

// Trigger nudges the loop to run a batch now instead of waiting for the next
// tick. A nudge while a run is pending is coalesced.
func (s *Service) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Start runs the batch loop until the context is cancelled
func (s *Service) Start(ctx context.Context) {
	s.logger.Notice("Solver started: %d chains, batch every %s", len(s.cfg.Chains), s.cfg.BatchInterval)

	// Warm the venue snapshot before the first tick. A failure here is fine;
	// the first batch runs CoW-only and the next refresh retries.
	if err := s.catalog.Refresh(ctx); err != nil {
		s.logger.Error("Initial venue refresh failed: %v", err)
	}

	ticker := time.NewTicker(s.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Notice("Solver stopping")
			s.fetcher.Close()
			return
		case <-ticker.C:
			s.runBatch(ctx)
		case <-s.trigger:
			s.runBatch(ctx)
		}
	}
}

// runBatch executes one batch run. Only one run may be in flight; overlapping
// triggers are dropped, not queued.
func (s *Service) runBatch(ctx context.Context) {
	if !s.runMu.TryLock() {
		metrics.BatchesSkipped.Inc()
		s.logger.Debug("Batch already in progress, skipping trigger")
		return
	}
	defer s.runMu.Unlock()

	start := time.Now()
	batchCtx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	fetched, err := s.client.FetchPendingIntents(batchCtx)
	if err != nil {
		s.logger.Error("Failed to fetch intents: %v", err)
		return
	}
	metrics.PendingIntents.Set(float64(len(fetched)))

	viable, expired := s.filter.FilterViableIntents(fetched, time.Now())
	if len(expired) > 0 {
		s.logger.Debug("Dropped %d expired intents", len(expired))
	}
	if len(viable) == 0 {
		s.logger.Debug("No viable intents this batch")
		return
	}

	if err := s.catalog.RefreshIfStale(batchCtx); err != nil {
		s.logger.Error("Venue refresh failed, continuing with held snapshot: %v", err)
	}

	plan := s.optimizer.Optimize(batchCtx, viable, s.catalog.Get())

	if err := s.settler.Settle(batchCtx, plan); err != nil {
		s.logger.Error("Settlement failed: %v", err)
	}

	s.tuner.ObserveBatch(plan)
	for chainID := range s.cfg.Chains {
		metrics.TunedGasCost.WithLabelValues(strconv.Itoa(chainID)).Set(s.tuner.GasCost(chainID).InexactFloat64())
	}

	metrics.BatchesRun.Inc()
	metrics.BatchDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("Batch done in %s: %d intents, %d executions",
		time.Since(start).Round(time.Millisecond), len(viable), len(plan.Executions))
}
