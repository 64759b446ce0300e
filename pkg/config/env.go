package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/models"
)

const (
	// DefaultAPIEndpoint defines the default intent pool API endpoint
	DefaultAPIEndpoint = "http://localhost:3001"

	// DefaultBatchIntervalSeconds defines how often a batch run is triggered
	DefaultBatchIntervalSeconds = 10

	// DefaultBatchTimeoutMs bounds the wall-clock time of one batch run
	DefaultBatchTimeoutMs = 5000

	// DefaultMaxHops bounds multi-hop route depth
	DefaultMaxHops = 3

	// DefaultLiquidityFraction caps a swap at this share of the input reserve
	DefaultLiquidityFraction = "0.3"

	// DefaultMinCrossChainImprovement is the margin a cross-chain route must
	// beat the best local route by before it is preferred
	DefaultMinCrossChainImprovement = "0.02"

	// DefaultVenueTTLSeconds defines how long a venue snapshot stays fresh
	DefaultVenueTTLSeconds = 60

	// DefaultGlobalAssignment enables the cross-intent assignment step
	DefaultGlobalAssignment = false

	// DefaultMetricsPort defines the default port for the metrics server
	DefaultMetricsPort = "8080"

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker in seconds
	DefaultCircuitBreakerWindow = 60

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker in seconds
	DefaultCircuitBreakerReset = 120

	// DefaultTunerAlpha is the EMA smoothing factor for cost estimates
	DefaultTunerAlpha = "0.2"

	// DefaultBridgeFeeTTLSeconds defines how long bridge fee estimates are cached
	DefaultBridgeFeeTTLSeconds = 300

	// DefaultBridgeFee is the fallback bridging cost for chains with no
	// configured value, denominated in buy-token units
	DefaultBridgeFee = "0.01"
)

// GetEnvAPIEndpoint returns the intent pool API endpoint from environment variables
func GetEnvAPIEndpoint() (string, error) {
	endpoint := os.Getenv("API_ENDPOINT")
	if endpoint == "" {
		return DefaultAPIEndpoint, nil
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return "", fmt.Errorf("invalid API_ENDPOINT value: %s, must be a valid URL", endpoint)
	}
	return endpoint, nil
}

// GetEnvBatchInterval returns the batch interval in seconds from environment variables
func GetEnvBatchInterval() (time.Duration, error) {
	batchInterval := os.Getenv("BATCH_INTERVAL")
	if batchInterval == "" {
		return time.Duration(DefaultBatchIntervalSeconds) * time.Second, nil
	}

	interval, err := strconv.Atoi(batchInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid BATCH_INTERVAL value: %s, must be an integer", batchInterval)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("BATCH_INTERVAL must be greater than 0")
	}
	return time.Duration(interval) * time.Second, nil
}

// GetEnvBatchTimeout returns the per-batch timeout from environment variables
func GetEnvBatchTimeout() (time.Duration, error) {
	batchTimeout := os.Getenv("BATCH_TIMEOUT_MS")
	if batchTimeout == "" {
		return DefaultBatchTimeoutMs * time.Millisecond, nil
	}

	timeout, err := strconv.Atoi(batchTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid BATCH_TIMEOUT_MS value: %s, must be an integer", batchTimeout)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("BATCH_TIMEOUT_MS must be greater than 0")
	}
	return time.Duration(timeout) * time.Millisecond, nil
}

// GetEnvMaxHops returns the multi-hop route depth limit from environment variables
func GetEnvMaxHops() (int, error) {
	maxHops := os.Getenv("MAX_HOPS")
	if maxHops == "" {
		return DefaultMaxHops, nil
	}

	hops, err := strconv.Atoi(maxHops)
	if err != nil {
		return 0, fmt.Errorf("invalid MAX_HOPS value: %s, must be an integer", maxHops)
	}
	if hops <= 0 {
		return 0, fmt.Errorf("MAX_HOPS must be greater than 0")
	}
	return hops, nil
}

// GetEnvLiquidityFraction returns the per-swap depth limit from environment variables
func GetEnvLiquidityFraction() (decimal.Decimal, error) {
	return getEnvUnitFraction("LIQUIDITY_FRACTION", DefaultLiquidityFraction)
}

// GetEnvMinCrossChainImprovement returns the cross-chain preference margin
// from environment variables
func GetEnvMinCrossChainImprovement() (decimal.Decimal, error) {
	return getEnvUnitFraction("MIN_CROSS_CHAIN_IMPROVEMENT", DefaultMinCrossChainImprovement)
}

// GetEnvTunerAlpha returns the EMA smoothing factor from environment variables
func GetEnvTunerAlpha() (decimal.Decimal, error) {
	return getEnvUnitFraction("TUNER_ALPHA", DefaultTunerAlpha)
}

// getEnvUnitFraction parses an env var as a decimal in (0, 1]
func getEnvUnitFraction(name, fallback string) (decimal.Decimal, error) {
	value := os.Getenv(name)
	if value == "" {
		value = fallback
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %s, must be a decimal", name, value)
	}
	if !parsed.IsPositive() || parsed.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be in (0, 1], got %s", name, value)
	}
	return parsed, nil
}

// GetEnvVenueTTL returns the venue snapshot TTL from environment variables
func GetEnvVenueTTL() (time.Duration, error) {
	venueTTL := os.Getenv("VENUE_TTL_SECONDS")
	if venueTTL == "" {
		return DefaultVenueTTLSeconds * time.Second, nil
	}

	ttl, err := strconv.Atoi(venueTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid VENUE_TTL_SECONDS value: %s, must be an integer", venueTTL)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("VENUE_TTL_SECONDS must be greater than 0")
	}
	return time.Duration(ttl) * time.Second, nil
}

// GetEnvGlobalAssignment returns whether the global assignment step is enabled
func GetEnvGlobalAssignment() (bool, error) {
	return getEnvBool("GLOBAL_ASSIGNMENT", DefaultGlobalAssignment)
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	return getEnvBool("CIRCUIT_BREAKER_ENABLED", DefaultCircuitBreakerEnabled)
}

func getEnvBool(name string, fallback bool) (bool, error) {
	value := os.Getenv(name)
	if value == "" {
		return fallback, nil
	}

	if value == "true" {
		return true, nil
	} else if value == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid %s value: %s, must be 'true' or 'false'", name, value)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	window := os.Getenv("CIRCUIT_BREAKER_WINDOW")
	if window == "" {
		return DefaultCircuitBreakerWindow * time.Second, nil
	}

	parsed, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_WINDOW value: %s, must be a valid duration string", window)
	}
	return parsed, nil
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	reset := os.Getenv("CIRCUIT_BREAKER_RESET")
	if reset == "" {
		return DefaultCircuitBreakerReset * time.Second, nil
	}

	parsed, err := time.ParseDuration(reset)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_RESET value: %s, must be a valid duration string", reset)
	}
	return parsed, nil
}

// GetEnvBridgeFeeTTL returns the bridge fee cache TTL from environment variables
func GetEnvBridgeFeeTTL() (time.Duration, error) {
	feeTTL := os.Getenv("BRIDGE_FEE_TTL_SECONDS")
	if feeTTL == "" {
		return DefaultBridgeFeeTTLSeconds * time.Second, nil
	}

	ttl, err := strconv.Atoi(feeTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid BRIDGE_FEE_TTL_SECONDS value: %s, must be an integer", feeTTL)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("BRIDGE_FEE_TTL_SECONDS must be greater than 0")
	}
	return time.Duration(ttl) * time.Second, nil
}

// GetEnvDefaultBridgeFee returns the fallback bridging fee from environment variables
func GetEnvDefaultBridgeFee() (decimal.Decimal, error) {
	value := os.Getenv("DEFAULT_BRIDGE_FEE")
	if value == "" {
		value = DefaultBridgeFee
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid DEFAULT_BRIDGE_FEE value: %s, must be a decimal", value)
	}
	if parsed.IsNegative() {
		return decimal.Zero, fmt.Errorf("DEFAULT_BRIDGE_FEE must not be negative")
	}
	return parsed, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return logger.InfoLevel, nil
	}

	switch strings.ToLower(level) {
	case "debug":
		return logger.DebugLevel, nil
	case "info":
		return logger.InfoLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}
	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be debug, info, notice or error", level)
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	return getEnvBool("LOG_COLORING", true)
}

// GetEnvChainConfigs assembles the per-chain configuration. The chain set
// comes from CHAIN_IDS (defaulting to the built-in testnets); per chain, the
// RPC URL, pool list, venue gas cost and bridge fee can each be overridden.
func GetEnvChainConfigs() ([]ChainConfig, error) {
	chainIDs, err := getEnvChainIDs()
	if err != nil {
		return nil, err
	}

	configs := make([]ChainConfig, 0, len(chainIDs))
	for _, chainID := range chainIDs {
		rpcURL := os.Getenv(fmt.Sprintf("CHAIN_%d_RPC_URL", chainID))
		if rpcURL == "" {
			rpcURL = GetDefaultRPCURL(chainID)
		}
		if rpcURL == "" {
			return nil, fmt.Errorf("CHAIN_%d_RPC_URL is required for chain %d", chainID, chainID)
		}

		pools, err := getEnvChainPools(chainID)
		if err != nil {
			return nil, err
		}

		gasCost, err := getEnvChainDecimal(chainID, "VENUE_GAS_COST", GetDefaultVenueGasCost(chainID))
		if err != nil {
			return nil, err
		}

		bridgeFee, err := getEnvChainDecimal(chainID, "BRIDGE_FEE", GetDefaultBridgeFee(chainID))
		if err != nil {
			return nil, err
		}

		configs = append(configs, ChainConfig{
			ChainID:      chainID,
			RPCURL:       rpcURL,
			Pools:        pools,
			VenueGasCost: gasCost,
			BridgeFee:    bridgeFee,
		})
	}
	return configs, nil
}

// getEnvChainIDs parses CHAIN_IDS as a comma-separated integer list
func getEnvChainIDs() ([]int, error) {
	raw := os.Getenv("CHAIN_IDS")
	if raw == "" {
		return DefaultChainIDs(), nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid CHAIN_IDS entry: %s, must be an integer", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnvChainDecimal parses CHAIN_<ID>_<SUFFIX> as a non-negative decimal
func getEnvChainDecimal(chainID int, suffix string, fallback decimal.Decimal) (decimal.Decimal, error) {
	name := fmt.Sprintf("CHAIN_%d_%s", chainID, suffix)
	value := os.Getenv(name)
	if value == "" {
		return fallback, nil
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %s, must be a decimal", name, value)
	}
	if parsed.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", name)
	}
	return parsed, nil
}

// getEnvChainPools parses CHAIN_<ID>_POOLS, a comma-separated list of
// address:token0:token1:decimals0:decimals1:feeBps[:curve] entries. An empty
// list is valid and leaves the chain without routable venues.
func getEnvChainPools(chainID int) ([]PoolConfig, error) {
	name := fmt.Sprintf("CHAIN_%d_POOLS", chainID)
	raw := os.Getenv(name)
	if raw == "" {
		return nil, nil
	}

	entries := strings.Split(raw, ",")
	pools := make([]PoolConfig, 0, len(entries))
	for _, entry := range entries {
		pool, err := parsePoolEntry(strings.TrimSpace(entry))
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %v", name, entry, err)
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// parsePoolEntry parses a single pool definition
func parsePoolEntry(entry string) (PoolConfig, error) {
	fields := strings.Split(entry, ":")
	if len(fields) != 6 && len(fields) != 7 {
		return PoolConfig{}, fmt.Errorf("want address:token0:token1:decimals0:decimals1:feeBps[:curve]")
	}

	if !common.IsHexAddress(fields[0]) {
		return PoolConfig{}, fmt.Errorf("invalid pool address %s", fields[0])
	}
	if fields[1] == "" || fields[2] == "" {
		return PoolConfig{}, fmt.Errorf("empty token identifier")
	}

	decimals0, err := strconv.Atoi(fields[3])
	if err != nil || decimals0 < 0 {
		return PoolConfig{}, fmt.Errorf("invalid decimals %s", fields[3])
	}
	decimals1, err := strconv.Atoi(fields[4])
	if err != nil || decimals1 < 0 {
		return PoolConfig{}, fmt.Errorf("invalid decimals %s", fields[4])
	}

	feeBps, err := strconv.Atoi(fields[5])
	if err != nil || feeBps < 0 || feeBps >= 10000 {
		return PoolConfig{}, fmt.Errorf("invalid fee bps %s", fields[5])
	}

	curve := models.CurveConstantProduct
	if len(fields) == 7 {
		switch models.CurveType(fields[6]) {
		case models.CurveConstantProduct, models.CurveStable, models.CurveWeighted:
			curve = models.CurveType(fields[6])
		default:
			return PoolConfig{}, fmt.Errorf("unknown curve type %s", fields[6])
		}
	}

	return PoolConfig{
		Address:   fields[0],
		Token0:    fields[1],
		Token1:    fields[2],
		Decimals0: int32(decimals0),
		Decimals1: int32(decimals1),
		Fee:       decimal.New(int64(feeBps), -4),
		Curve:     curve,
	}, nil
}
