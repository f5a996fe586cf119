// Package oracle provides the external reference price source backed by a
// Chainlink-style aggregator contract.
package oracle

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Aggregator ABI (AggregatorV3Interface subset)
const aggregatorABI = `[
	{"name":"latestRoundData","type":"function","stateMutability":"view","inputs":[],"outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}
	]}
]`

// ContractCaller is the read-only subset of an Ethereum client the feed
// needs. *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Feed reads reference prices from an on-chain aggregator. Every quote is
// fetched fresh; the feed never caches across calls. RPC traffic is rate
// limited so a busy executor cannot exhaust the provider quota.
type Feed struct {
	caller  ContractCaller
	addr    common.Address
	abi     abi.ABI
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewFeed creates a price feed for the aggregator at addr. A nil limiter
// disables rate limiting.
func NewFeed(caller ContractCaller, addr common.Address, limiter *rate.Limiter, logger *zap.Logger) (*Feed, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := abi.JSON(strings.NewReader(aggregatorABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aggregator ABI: %w", err)
	}
	return &Feed{
		caller:  caller,
		addr:    addr,
		abi:     parsed,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// LatestPrice returns the aggregator's latest answer and its update time.
// Validity of the answer (strict positivity) is the executor's concern; the
// feed reports whatever the aggregator published.
func (f *Feed) LatestPrice(ctx context.Context) (*big.Int, time.Time, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, time.Time{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	input, err := f.abi.Pack("latestRoundData")
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to pack latestRoundData: %w", err)
	}
	out, err := f.caller.CallContract(ctx, ethereum.CallMsg{To: &f.addr, Data: input}, nil)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("aggregator call failed: %w", err)
	}

	values, err := f.abi.Unpack("latestRoundData", out)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode latestRoundData: %w", err)
	}
	if len(values) != 5 {
		return nil, time.Time{}, fmt.Errorf("unexpected latestRoundData arity %d", len(values))
	}
	answer, ok := values[1].(*big.Int)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("unexpected answer type %T", values[1])
	}
	updatedAt, ok := values[3].(*big.Int)
	if !ok {
		return nil, time.Time{}, fmt.Errorf("unexpected updatedAt type %T", values[3])
	}

	quotedAt := time.Unix(updatedAt.Int64(), 0).UTC()
	f.logger.Debug("reference price fetched",
		zap.String("answer", answer.String()),
		zap.Time("updated_at", quotedAt),
	)
	return answer, quotedAt, nil
}
