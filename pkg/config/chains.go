package config

import "github.com/shopspring/decimal"

// Chain IDs for the networks the solver knows out of the box
const (
	EthereumChainID = 1
	SepoliaChainID  = 11155111
	AvaChainID      = 43114
	FujiChainID     = 43113
	BaseChainID     = 8453
	ArbChainID      = 42161
)

// DefaultChainIDs returns the chains used when CHAIN_IDS is not set. The
// testnet pair mirrors the default deployment target.
func DefaultChainIDs() []int {
	return []int{SepoliaChainID, FujiChainID}
}

// defaultRPCURLs maps chain IDs to public RPC endpoints usable without a key
var defaultRPCURLs = map[int]string{
	EthereumChainID: "https://eth.llamarpc.com",
	SepoliaChainID:  "https://ethereum-sepolia-rpc.publicnode.com",
	AvaChainID:      "https://api.avax.network/ext/bc/C/rpc",
	FujiChainID:     "https://api.avax-test.network/ext/bc/C/rpc",
	BaseChainID:     "https://mainnet.base.org",
	ArbChainID:      "https://arb1.arbitrum.io/rpc",
}

// GetDefaultRPCURL returns the built-in RPC endpoint for a chain, empty when
// the chain has no default
func GetDefaultRPCURL(chainID int) string {
	return defaultRPCURLs[chainID]
}

// defaultVenueGasCosts are rough per-swap gas costs denominated in output
// token units, used until the tuner has observations to refine them
var defaultVenueGasCosts = map[int]string{
	EthereumChainID: "5",
	SepoliaChainID:  "1",
	AvaChainID:      "0.5",
	FujiChainID:     "0.5",
	BaseChainID:     "0.2",
	ArbChainID:      "0.2",
}

// GetDefaultVenueGasCost returns the baseline per-swap gas cost for a chain
func GetDefaultVenueGasCost(chainID int) decimal.Decimal {
	if cost, ok := defaultVenueGasCosts[chainID]; ok {
		return decimal.RequireFromString(cost)
	}
	return decimal.NewFromInt(1)
}

// defaultBridgeFees are flat per-target-chain bridging costs in output token
// units
var defaultBridgeFees = map[int]string{
	EthereumChainID: "10",
	SepoliaChainID:  "2",
	AvaChainID:      "1",
	FujiChainID:     "1",
	BaseChainID:     "0.5",
	ArbChainID:      "0.5",
}

// GetDefaultBridgeFee returns the baseline bridging fee toward a chain
func GetDefaultBridgeFee(chainID int) decimal.Decimal {
	if fee, ok := defaultBridgeFees[chainID]; ok {
		return decimal.RequireFromString(fee)
	}
	return decimal.NewFromInt(1)
}

// chainNames maps chain IDs to human readable names for logging
var chainNames = map[int]string{
	EthereumChainID: "Ethereum",
	SepoliaChainID:  "Sepolia",
	AvaChainID:      "Avalanche",
	FujiChainID:     "Fuji",
	BaseChainID:     "Base",
	ArbChainID:      "Arbitrum",
}

// GetChainName returns a human readable chain name, "Unknown" for chains the
// solver has no label for
func GetChainName(chainID int) string {
	if name, ok := chainNames[chainID]; ok {
		return name
	}
	return "Unknown"
}
