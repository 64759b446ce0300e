package solver

import (
	"time"

	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/metrics"
	"github.com/cowmatch-hq/solver/pkg/models"
)

// IntentFilter screens fetched intents before a batch run
type IntentFilter struct {
	logger logger.Logger
}

// NewIntentFilter creates a new intent filter
func NewIntentFilter(log logger.Logger) *IntentFilter {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &IntentFilter{logger: log}
}

// FilterViableIntents keeps intents that can enter a batch: pending status,
// structurally valid, not past deadline. Everything else is dropped with a
// log line; expired intents get their status flipped so callers can report
// them back to the pool.
func (f *IntentFilter) FilterViableIntents(intents []models.Intent, now time.Time) (viable []models.Intent, expired []models.Intent) {
	viable = make([]models.Intent, 0, len(intents))
	for i := range intents {
		intent := intents[i]

		if intent.Status != "" && intent.Status != models.StatusPending {
			f.logger.Debug("Skipping intent %s with status %s", intent.ID, intent.Status)
			continue
		}
		if err := intent.Validate(); err != nil {
			f.logger.Debug("Skipping invalid intent: %v", err)
			metrics.IntentErrors.WithLabelValues("invalid").Inc()
			continue
		}
		if intent.IsExpired(now) {
			intent.Status = models.StatusExpired
			expired = append(expired, intent)
			metrics.ExpiredIntents.Inc()
			continue
		}

		viable = append(viable, intent)
	}

	if len(expired) > 0 {
		f.logger.Info("Expired %d intents past deadline", len(expired))
	}
	return viable, expired
}
