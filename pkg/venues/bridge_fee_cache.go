package venues

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BridgeFeeCache manages cached cross-chain bridging fee estimates to avoid
// recomputing them for every candidate
type BridgeFeeCache struct {
	mu       sync.RWMutex
	cache    map[string]*cachedFee
	cacheTTL time.Duration
}

// cachedFee represents a cached fee estimate with timestamp
type cachedFee struct {
	fee       decimal.Decimal
	timestamp time.Time
}

// NewBridgeFeeCache creates a new bridge fee cache
func NewBridgeFeeCache(cacheTTL time.Duration) *BridgeFeeCache {
	return &BridgeFeeCache{
		cache:    make(map[string]*cachedFee),
		cacheTTL: cacheTTL,
	}
}

// Get retrieves a cached fee if it's still valid
func (c *BridgeFeeCache) Get(sourceChain, targetChain int) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, exists := c.cache[feeKey(sourceChain, targetChain)]
	if !exists {
		return decimal.Zero, false
	}
	if time.Since(cached.timestamp) > c.cacheTTL {
		return decimal.Zero, false
	}
	return cached.fee, true
}

// Set stores a fee estimate with the current timestamp
func (c *BridgeFeeCache) Set(sourceChain, targetChain int, fee decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[feeKey(sourceChain, targetChain)] = &cachedFee{
		fee:       fee,
		timestamp: time.Now(),
	}
}

// Clear removes all cached entries
func (c *BridgeFeeCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cachedFee)
}

func feeKey(sourceChain, targetChain int) string {
	return fmt.Sprintf("%d-%d", sourceChain, targetChain)
}

// BridgeFeeEstimator estimates the cost of moving an intent's output across
// chains. Estimates are flat per-target-chain values from configuration; the
// cache keeps lookups cheap and leaves room to swap in live router quotes.
type BridgeFeeEstimator struct {
	cache    *BridgeFeeCache
	perChain map[int]decimal.Decimal
	fallback decimal.Decimal
}

// NewBridgeFeeEstimator creates an estimator with per-chain flat fees and a
// fallback used for chains with no configured value
func NewBridgeFeeEstimator(cacheTTL time.Duration, perChain map[int]decimal.Decimal, fallback decimal.Decimal) *BridgeFeeEstimator {
	return &BridgeFeeEstimator{
		cache:    NewBridgeFeeCache(cacheTTL),
		perChain: perChain,
		fallback: fallback,
	}
}

// Estimate returns the bridging fee for routing from sourceChain to
// targetChain. Same-chain routing is free.
func (e *BridgeFeeEstimator) Estimate(sourceChain, targetChain int) decimal.Decimal {
	if sourceChain == targetChain {
		return decimal.Zero
	}
	if fee, ok := e.cache.Get(sourceChain, targetChain); ok {
		return fee
	}

	fee, ok := e.perChain[targetChain]
	if !ok {
		fee = e.fallback
	}
	e.cache.Set(sourceChain, targetChain, fee)
	return fee
}
