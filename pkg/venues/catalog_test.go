package venues

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowmatch-hq/solver/pkg/models"
)

// stubFetcher returns canned snapshots or a canned error
type stubFetcher struct {
	venues []models.Venue
	err    error
	calls  int
}

func (f *stubFetcher) FetchVenues(_ context.Context) ([]models.Venue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.venues, nil
}

func snapshotVenue(id string) models.Venue {
	return models.Venue{
		ID:      id,
		ChainID: 1,
		Tokens:  [2]string{"ETH", "USDC"},
		Reserves: map[string]decimal.Decimal{
			"ETH":  decimal.NewFromInt(1000),
			"USDC": decimal.NewFromInt(1000),
		},
		Fee:   decimal.RequireFromString("0.003"),
		Curve: models.CurveConstantProduct,
	}
}

// TestCatalog tests snapshot caching and refresh behavior
func TestCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("refresh swaps the snapshot wholesale", func(t *testing.T) {
		fetcher := &stubFetcher{venues: []models.Venue{snapshotVenue("v1"), snapshotVenue("v2")}}
		catalog := NewCatalog(fetcher, time.Minute, nil)

		require.NoError(t, catalog.Refresh(ctx))
		assert.Equal(t, 2, catalog.Size())

		fetcher.venues = []models.Venue{snapshotVenue("v3")}
		require.NoError(t, catalog.Refresh(ctx))

		snapshot := catalog.Get()
		require.Len(t, snapshot, 1)
		assert.Equal(t, "v3", snapshot[0].ID)
	})

	t.Run("failed refresh keeps the previous snapshot", func(t *testing.T) {
		fetcher := &stubFetcher{venues: []models.Venue{snapshotVenue("v1")}}
		catalog := NewCatalog(fetcher, time.Minute, nil)
		require.NoError(t, catalog.Refresh(ctx))

		fetcher.err = fmt.Errorf("rpc down")
		assert.Error(t, catalog.Refresh(ctx))
		assert.Equal(t, 1, catalog.Size(), "held snapshot must survive a failed refresh")
	})

	t.Run("failed refresh with no snapshot stays empty", func(t *testing.T) {
		fetcher := &stubFetcher{err: fmt.Errorf("rpc down")}
		catalog := NewCatalog(fetcher, time.Minute, nil)

		assert.Error(t, catalog.Refresh(ctx))
		assert.Empty(t, catalog.Get())
	})

	t.Run("invalid venues are dropped", func(t *testing.T) {
		bad := snapshotVenue("bad")
		bad.Fee = decimal.NewFromInt(2) // outside [0,1)

		fetcher := &stubFetcher{venues: []models.Venue{snapshotVenue("good"), bad}}
		catalog := NewCatalog(fetcher, time.Minute, nil)

		require.NoError(t, catalog.Refresh(ctx))
		snapshot := catalog.Get()
		require.Len(t, snapshot, 1)
		assert.Equal(t, "good", snapshot[0].ID)
	})

	t.Run("staleness follows the TTL", func(t *testing.T) {
		fetcher := &stubFetcher{venues: []models.Venue{snapshotVenue("v1")}}
		catalog := NewCatalog(fetcher, 20*time.Millisecond, nil)

		assert.True(t, catalog.Stale(), "empty catalog is stale")
		require.NoError(t, catalog.Refresh(ctx))
		assert.False(t, catalog.Stale())

		time.Sleep(40 * time.Millisecond)
		assert.True(t, catalog.Stale())
	})

	t.Run("RefreshIfStale skips a fresh snapshot", func(t *testing.T) {
		fetcher := &stubFetcher{venues: []models.Venue{snapshotVenue("v1")}}
		catalog := NewCatalog(fetcher, time.Minute, nil)

		require.NoError(t, catalog.RefreshIfStale(ctx))
		require.NoError(t, catalog.RefreshIfStale(ctx))
		assert.Equal(t, 1, fetcher.calls)
	})
}

// TestBridgeFeeEstimator tests cross-chain fee lookups
func TestBridgeFeeEstimator(t *testing.T) {
	perChain := map[int]decimal.Decimal{
		2: decimal.NewFromInt(5),
	}
	estimator := NewBridgeFeeEstimator(time.Minute, perChain, decimal.NewFromInt(1))

	t.Run("same chain is free", func(t *testing.T) {
		assert.True(t, estimator.Estimate(1, 1).IsZero())
	})

	t.Run("configured target chain", func(t *testing.T) {
		assert.True(t, estimator.Estimate(1, 2).Equal(decimal.NewFromInt(5)))
	})

	t.Run("unknown target falls back", func(t *testing.T) {
		assert.True(t, estimator.Estimate(1, 99).Equal(decimal.NewFromInt(1)))
	})
}

// TestBridgeFeeCache tests TTL behavior of the fee cache
func TestBridgeFeeCache(t *testing.T) {
	cache := NewBridgeFeeCache(10 * time.Millisecond)

	cache.Set(1, 2, decimal.NewFromInt(3))
	fee, found := cache.Get(1, 2)
	assert.True(t, found)
	assert.True(t, fee.Equal(decimal.NewFromInt(3)))

	// direction matters
	_, found = cache.Get(2, 1)
	assert.False(t, found)

	time.Sleep(20 * time.Millisecond)
	_, found = cache.Get(1, 2)
	assert.False(t, found)

	cache.Set(1, 2, decimal.NewFromInt(3))
	cache.Clear()
	_, found = cache.Get(1, 2)
	assert.False(t, found)
}
