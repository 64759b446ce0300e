package venues

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/cowmatch-hq/solver/pkg/circuitbreaker"
	"github.com/cowmatch-hq/solver/pkg/config"
	"github.com/cowmatch-hq/solver/pkg/contracts"
	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/metrics"
	"github.com/cowmatch-hq/solver/pkg/models"
)

// callTimeout bounds a single pair contract read
const callTimeout = 10 * time.Second

// poolSource is one configured pair contract on a chain
type poolSource struct {
	pair      *contracts.Pair
	address   common.Address
	token0    string
	token1    string
	decimals0 int32
	decimals1 int32
	fee       decimal.Decimal
	curve     models.CurveType
}

// chainSource holds the client and pool bindings for one chain
type chainSource struct {
	chainID int
	client  *ethclient.Client
	pools   []poolSource
	gasCost decimal.Decimal
	breaker *circuitbreaker.CircuitBreaker
}

// ChainFetcher reads pair reserves from the configured chains and assembles
// venue snapshots. A chain that fails to answer is skipped for the cycle (and
// recorded against its circuit breaker) rather than failing the whole fetch.
type ChainFetcher struct {
	chains []chainSource
	logger logger.Logger
}

// NewChainFetcher dials every configured chain and binds its pair contracts
func NewChainFetcher(
	ctx context.Context,
	cfg *config.Config,
	breakers map[int]*circuitbreaker.CircuitBreaker,
	log logger.Logger,
) (*ChainFetcher, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}

	chains := make([]chainSource, 0, len(cfg.Chains))
	for _, chainCfg := range cfg.SortedChains() {
		client, err := ethclient.DialContext(ctx, chainCfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to chain %d: %v", chainCfg.ChainID, err)
		}

		pools := make([]poolSource, 0, len(chainCfg.Pools))
		for _, poolCfg := range chainCfg.Pools {
			address := common.HexToAddress(poolCfg.Address)
			pair, err := contracts.NewPair(address, client)
			if err != nil {
				return nil, fmt.Errorf("failed to bind pair %s on chain %d: %v", poolCfg.Address, chainCfg.ChainID, err)
			}
			pools = append(pools, poolSource{
				pair:      pair,
				address:   address,
				token0:    models.NormalizeToken(poolCfg.Token0),
				token1:    models.NormalizeToken(poolCfg.Token1),
				decimals0: poolCfg.Decimals0,
				decimals1: poolCfg.Decimals1,
				fee:       poolCfg.Fee,
				curve:     poolCfg.Curve,
			})
		}

		chains = append(chains, chainSource{
			chainID: chainCfg.ChainID,
			client:  client,
			pools:   pools,
			gasCost: chainCfg.VenueGasCost,
			breaker: breakers[chainCfg.ChainID],
		})
	}

	return &ChainFetcher{chains: chains, logger: log}, nil
}

// FetchVenues reads reserves from every reachable chain. It returns an error
// only when every chain with configured pools failed; partial results are
// returned as-is so one slow chain does not blank the snapshot.
func (f *ChainFetcher) FetchVenues(ctx context.Context) ([]models.Venue, error) {
	venues := make([]models.Venue, 0)
	attempted := 0
	failed := 0

	for i := range f.chains {
		chain := &f.chains[i]
		if len(chain.pools) == 0 {
			continue
		}
		attempted++

		if chain.breaker != nil && chain.breaker.IsOpen() {
			f.logger.DebugWithChain(chain.chainID, "Skipping venue fetch: circuit breaker is open")
			failed++
			continue
		}

		fetched, err := f.fetchChain(ctx, chain)
		if err != nil {
			failed++
			metrics.VenueFetchErrors.WithLabelValues(strconv.Itoa(chain.chainID)).Inc()
			if chain.breaker != nil {
				chain.breaker.RecordFailure()
			}
			f.logger.ErrorWithChain(chain.chainID, "Venue fetch failed: %v", err)
			continue
		}
		venues = append(venues, fetched...)
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("venue fetch failed on all %d chains", attempted)
	}
	return venues, nil
}

// fetchChain reads every configured pool on one chain
func (f *ChainFetcher) fetchChain(ctx context.Context, chain *chainSource) ([]models.Venue, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	opts := &bind.CallOpts{Context: callCtx}

	venues := make([]models.Venue, 0, len(chain.pools))
	for i := range chain.pools {
		pool := &chain.pools[i]

		reserves, err := pool.pair.GetReserves(opts)
		if err != nil {
			return nil, fmt.Errorf("getReserves on %s: %v", pool.address.Hex(), err)
		}

		reserve0 := decimal.NewFromBigInt(reserves.Reserve0, -pool.decimals0)
		reserve1 := decimal.NewFromBigInt(reserves.Reserve1, -pool.decimals1)

		venues = append(venues, models.Venue{
			ID:      fmt.Sprintf("%d:%s", chain.chainID, pool.address.Hex()),
			Address: pool.address.Hex(),
			ChainID: chain.chainID,
			Tokens:  [2]string{pool.token0, pool.token1},
			Reserves: map[string]decimal.Decimal{
				pool.token0: reserve0,
				pool.token1: reserve1,
			},
			Fee:     pool.fee,
			Curve:   pool.curve,
			GasCost: chain.gasCost,
		})
	}

	f.logger.DebugWithChain(chain.chainID, "Fetched %d venues", len(venues))
	return venues, nil
}

// Close releases the underlying RPC connections
func (f *ChainFetcher) Close() {
	for i := range f.chains {
		f.chains[i].client.Close()
	}
}
