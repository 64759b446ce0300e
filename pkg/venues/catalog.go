// Package venues maintains the snapshot of liquidity venues the optimizer
// routes against.
package venues

import (
	"context"
	"sync"
	"time"

	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/metrics"
	"github.com/cowmatch-hq/solver/pkg/models"
)

// DefaultTTL is how long a snapshot stays fresh before callers should refresh
const DefaultTTL = 60 * time.Second

// Fetcher supplies the current venue set from external chain state. An empty
// result is legitimate and means "no pool routing available this cycle".
type Fetcher interface {
	FetchVenues(ctx context.Context) ([]models.Venue, error)
}

// Catalog caches the latest known venue snapshot with a TTL. The snapshot is
// replaced wholesale and never patched, so concurrent readers always observe
// either the previous or the new complete set. Stale reserves are expected
// between refreshes and tolerated by the optimizer.
type Catalog struct {
	mu        sync.RWMutex
	snapshot  []models.Venue
	fetchedAt time.Time
	ttl       time.Duration
	fetcher   Fetcher
	logger    logger.Logger
}

// NewCatalog creates a catalog backed by the given fetcher
func NewCatalog(fetcher Fetcher, ttl time.Duration, log logger.Logger) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Catalog{
		ttl:     ttl,
		fetcher: fetcher,
		logger:  log,
	}
}

// Get hands back the latest known snapshot. The returned slice is shared and
// must not be modified by callers.
func (c *Catalog) Get() []models.Venue {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Stale reports whether the snapshot is empty or past its TTL
func (c *Catalog) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot) == 0 || time.Since(c.fetchedAt) > c.ttl
}

// Age returns how long ago the snapshot was fetched
func (c *Catalog) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.fetchedAt.IsZero() {
		return 0
	}
	return time.Since(c.fetchedAt)
}

// Size returns the number of venues in the snapshot
func (c *Catalog) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot)
}

// Refresh replaces the snapshot with a freshly fetched venue set. Unusable
// venues are dropped with a log line. A fetch failure keeps the previous
// snapshot in place when there is one; otherwise the catalog degrades to an
// empty set so the optimizer falls back to CoW-only matching.
func (c *Catalog) Refresh(ctx context.Context) error {
	fetched, err := c.fetcher.FetchVenues(ctx)
	if err != nil {
		metrics.VenueRefreshFailures.Inc()
		c.mu.RLock()
		held := len(c.snapshot)
		c.mu.RUnlock()
		if held > 0 {
			c.logger.Error("Venue refresh failed, keeping previous snapshot of %d venues: %v", held, err)
		} else {
			c.logger.Error("Venue refresh failed with no previous snapshot, running CoW-only: %v", err)
		}
		return err
	}

	valid := make([]models.Venue, 0, len(fetched))
	for i := range fetched {
		if vErr := fetched[i].Validate(); vErr != nil {
			c.logger.Debug("Dropping unusable venue: %v", vErr)
			continue
		}
		valid = append(valid, fetched[i])
	}

	c.mu.Lock()
	c.snapshot = valid
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	metrics.VenueSnapshotSize.Set(float64(len(valid)))
	c.logger.Debug("Venue snapshot refreshed: %d venues", len(valid))
	return nil
}

// RefreshIfStale refreshes only when the snapshot is empty or expired
func (c *Catalog) RefreshIfStale(ctx context.Context) error {
	if !c.Stale() {
		return nil
	}
	return c.Refresh(ctx)
}
