package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowmatch-hq/solver/pkg/models"
)

// TestParsePoolEntry tests the pool definition parser
func TestParsePoolEntry(t *testing.T) {
	const addr = "0x1111111111111111111111111111111111111111"

	t.Run("full entry with curve", func(t *testing.T) {
		pool, err := parsePoolEntry(addr + ":WETH:USDC:18:6:30:weighted")
		require.NoError(t, err)
		assert.Equal(t, addr, pool.Address)
		assert.Equal(t, "WETH", pool.Token0)
		assert.Equal(t, "USDC", pool.Token1)
		assert.Equal(t, int32(18), pool.Decimals0)
		assert.Equal(t, int32(6), pool.Decimals1)
		assert.True(t, pool.Fee.Equal(decimal.RequireFromString("0.003")))
		assert.Equal(t, models.CurveWeighted, pool.Curve)
	})

	t.Run("curve defaults to constant product", func(t *testing.T) {
		pool, err := parsePoolEntry(addr + ":WETH:USDC:18:6:30")
		require.NoError(t, err)
		assert.Equal(t, models.CurveConstantProduct, pool.Curve)
	})

	t.Run("rejects malformed entries", func(t *testing.T) {
		cases := []string{
			"",
			addr,
			addr + ":WETH:USDC:18:6",            // missing fee
			"nothex:WETH:USDC:18:6:30",          // bad address
			addr + "::USDC:18:6:30",             // empty token
			addr + ":WETH:USDC:x:6:30",          // bad decimals
			addr + ":WETH:USDC:18:6:10001",      // fee out of range
			addr + ":WETH:USDC:18:6:30:unknown", // bad curve
		}
		for _, entry := range cases {
			_, err := parsePoolEntry(entry)
			assert.Error(t, err, "entry %q should be rejected", entry)
		}
	})
}

// TestGetEnvChainConfigs tests chain assembly from the environment
func TestGetEnvChainConfigs(t *testing.T) {
	const addr = "0x2222222222222222222222222222222222222222"

	t.Run("defaults when unset", func(t *testing.T) {
		configs, err := GetEnvChainConfigs()
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.Equal(t, SepoliaChainID, configs[0].ChainID)
		assert.Equal(t, FujiChainID, configs[1].ChainID)
		assert.NotEmpty(t, configs[0].RPCURL)
	})

	t.Run("explicit chain with pools", func(t *testing.T) {
		t.Setenv("CHAIN_IDS", "1")
		t.Setenv("CHAIN_1_RPC_URL", "http://localhost:8545")
		t.Setenv("CHAIN_1_POOLS", addr+":WETH:USDC:18:6:30")
		t.Setenv("CHAIN_1_VENUE_GAS_COST", "2.5")

		configs, err := GetEnvChainConfigs()
		require.NoError(t, err)
		require.Len(t, configs, 1)
		assert.Equal(t, 1, configs[0].ChainID)
		assert.Equal(t, "http://localhost:8545", configs[0].RPCURL)
		require.Len(t, configs[0].Pools, 1)
		assert.True(t, configs[0].VenueGasCost.Equal(decimal.RequireFromString("2.5")))
	})

	t.Run("unknown chain without rpc url fails", func(t *testing.T) {
		t.Setenv("CHAIN_IDS", "424242")

		_, err := GetEnvChainConfigs()
		assert.Error(t, err)
	})

	t.Run("bad chain id list fails", func(t *testing.T) {
		t.Setenv("CHAIN_IDS", "1,notanumber")

		_, err := GetEnvChainConfigs()
		assert.Error(t, err)
	})
}

// TestUnitFractionParsing tests the shared fraction helper bounds
func TestUnitFractionParsing(t *testing.T) {
	t.Run("liquidity fraction default", func(t *testing.T) {
		fraction, err := GetEnvLiquidityFraction()
		require.NoError(t, err)
		assert.True(t, fraction.Equal(decimal.RequireFromString("0.3")))
	})

	t.Run("out of range rejected", func(t *testing.T) {
		t.Setenv("LIQUIDITY_FRACTION", "1.5")
		_, err := GetEnvLiquidityFraction()
		assert.Error(t, err)
	})

	t.Run("zero rejected", func(t *testing.T) {
		t.Setenv("MIN_CROSS_CHAIN_IMPROVEMENT", "0")
		_, err := GetEnvMinCrossChainImprovement()
		assert.Error(t, err)
	})
}
