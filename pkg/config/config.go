package config

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/models"
)

// Config holds the configuration for the batch solver service
type Config struct {
	APIEndpoint              string
	BatchInterval            time.Duration
	BatchTimeout             time.Duration
	MaxHops                  int
	LiquidityFraction        decimal.Decimal
	MinCrossChainImprovement decimal.Decimal
	VenueTTL                 time.Duration
	GlobalAssignment         bool
	Chains                   map[int]ChainConfig
	MetricsPort              string
	CircuitBreaker           CircuitBreakerConfig
	LoggerConfig             LoggerConfig
	TunerAlpha               decimal.Decimal
	BridgeFeeTTL             time.Duration
	DefaultBridgeFee         decimal.Decimal
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// ChainConfig holds the configuration for a specific blockchain
type ChainConfig struct {
	ChainID      int
	RPCURL       string
	Pools        []PoolConfig
	VenueGasCost decimal.Decimal
	BridgeFee    decimal.Decimal
}

// PoolConfig describes one pair contract to include in the venue catalog
type PoolConfig struct {
	Address   string
	Token0    string
	Token1    string
	Decimals0 int32
	Decimals1 int32
	Fee       decimal.Decimal
	Curve     models.CurveType
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	apiEndpoint, err := GetEnvAPIEndpoint()
	if err != nil {
		return nil, err
	}

	batchInterval, err := GetEnvBatchInterval()
	if err != nil {
		return nil, err
	}

	batchTimeout, err := GetEnvBatchTimeout()
	if err != nil {
		return nil, err
	}

	maxHops, err := GetEnvMaxHops()
	if err != nil {
		return nil, err
	}

	liquidityFraction, err := GetEnvLiquidityFraction()
	if err != nil {
		return nil, err
	}

	minImprovement, err := GetEnvMinCrossChainImprovement()
	if err != nil {
		return nil, err
	}

	venueTTL, err := GetEnvVenueTTL()
	if err != nil {
		return nil, err
	}

	globalAssignment, err := GetEnvGlobalAssignment()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	tunerAlpha, err := GetEnvTunerAlpha()
	if err != nil {
		return nil, err
	}

	bridgeFeeTTL, err := GetEnvBridgeFeeTTL()
	if err != nil {
		return nil, err
	}

	defaultBridgeFee, err := GetEnvDefaultBridgeFee()
	if err != nil {
		return nil, err
	}

	// Initialize chain configurations
	chainConfigs := make(map[int]ChainConfig)
	chainConfigList, err := GetEnvChainConfigs()
	if err != nil {
		return nil, err
	}
	for _, chainConfig := range chainConfigList {
		chainConfigs[chainConfig.ChainID] = chainConfig
	}

	cfg := &Config{
		APIEndpoint:              apiEndpoint,
		BatchInterval:            batchInterval,
		BatchTimeout:             batchTimeout,
		MaxHops:                  maxHops,
		LiquidityFraction:        liquidityFraction,
		MinCrossChainImprovement: minImprovement,
		VenueTTL:                 venueTTL,
		GlobalAssignment:         globalAssignment,
		Chains:                   chainConfigs,
		MetricsPort:              metricsPort,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
		TunerAlpha:       tunerAlpha,
		BridgeFeeTTL:     bridgeFeeTTL,
		DefaultBridgeFee: defaultBridgeFee,
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SortedChains returns chain configs ordered by chain ID so snapshot assembly
// and logging are deterministic
func (c *Config) SortedChains() []ChainConfig {
	chains := make([]ChainConfig, 0, len(c.Chains))
	for _, chain := range c.Chains {
		chains = append(chains, chain)
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].ChainID < chains[j].ChainID })
	return chains
}

// GasCosts returns the configured per-chain venue gas costs
func (c *Config) GasCosts() map[int]decimal.Decimal {
	costs := make(map[int]decimal.Decimal, len(c.Chains))
	for chainID, chain := range c.Chains {
		costs[chainID] = chain.VenueGasCost
	}
	return costs
}

// BridgeFees returns the configured per-chain bridging fees
func (c *Config) BridgeFees() map[int]decimal.Decimal {
	fees := make(map[int]decimal.Decimal, len(c.Chains))
	for chainID, chain := range c.Chains {
		fees[chainID] = chain.BridgeFee
	}
	return fees
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.APIEndpoint == "" {
		return fmt.Errorf("API_ENDPOINT environment variable is required")
	}
	if len(cfg.Chains) == 0 {
		return fmt.Errorf("at least one chain configuration is required")
	}
	if cfg.BatchTimeout <= 0 {
		return fmt.Errorf("BATCH_TIMEOUT_MS must be greater than 0")
	}
	for chainID, chainConfig := range cfg.Chains {
		if chainConfig.RPCURL == "" {
			return fmt.Errorf("CHAIN_%d_RPC_URL for chain %d is required", chainID, chainID)
		}
	}
	return nil
}
