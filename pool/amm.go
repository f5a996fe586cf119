// Package pool adapts a concentrated-liquidity AMM pool contract to the
// executor Pool interface. Settlement is submitted as a signed transaction
// and the leg deltas are recovered from the pool's Swap event.
package pool

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/swapguard/utils"
)

const poolABI = `[
	{"name":"swap","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"recipient","type":"address"},
		{"name":"zeroForOne","type":"bool"},
		{"name":"amountSpecified","type":"int256"},
		{"name":"sqrtPriceLimitX96","type":"uint160"},
		{"name":"data","type":"bytes"}],
	 "outputs":[{"name":"amount0","type":"int256"},{"name":"amount1","type":"int256"}]},
	{"name":"Swap","type":"event","inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"recipient","type":"address","indexed":true},
		{"name":"amount0","type":"int256","indexed":false},
		{"name":"amount1","type":"int256","indexed":false},
		{"name":"sqrtPriceX96","type":"uint160","indexed":false},
		{"name":"liquidity","type":"uint128","indexed":false},
		{"name":"tick","type":"int24","indexed":false}]}
]`

const swapGasLimit = 500000

// Price bounds used when the caller passes no limit. One past the pool's
// hard min/max so the swap is unbounded in the chosen direction.
var (
	minSqrtRatio = big.NewInt(4295128740)
	maxSqrtRatio = mustBig("1461446703485210103287273052203988822378723970341")
)

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("pool: invalid big integer literal")
	}
	return v
}

// AMM drives swaps against a single pool contract. It implements the
// executor Pool interface.
type AMM struct {
	sender *utils.TxSender
	addr   common.Address
	abi    abi.ABI
	logger *zap.Logger
}

// NewAMM creates a pool adapter for the contract at addr.
func NewAMM(sender *utils.TxSender, addr common.Address, logger *zap.Logger) (*AMM, error) {
	if sender == nil {
		return nil, fmt.Errorf("tx sender cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}
	return &AMM{sender: sender, addr: addr, abi: parsed, logger: logger}, nil
}

// ExecuteExchange swaps amount in the given direction, bounded by
// priceLimit. A nil priceLimit means no bound. The signed deltas of both
// legs are decoded from the pool's Swap event.
func (p *AMM) ExecuteExchange(ctx context.Context, recipient common.Address, zeroForOne bool, amount *big.Int, priceLimit *big.Int, payload []byte) (*big.Int, *big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("swap amount must be positive")
	}
	limit := priceLimit
	if limit == nil {
		if zeroForOne {
			limit = minSqrtRatio
		} else {
			limit = maxSqrtRatio
		}
	}
	if payload == nil {
		payload = []byte{}
	}

	input, err := p.abi.Pack("swap", recipient, zeroForOne, amount, limit, payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pack swap: %w", err)
	}

	receipt, err := p.sender.Send(ctx, p.addr, nil, input, swapGasLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("swap failed: %w", err)
	}

	delta0, delta1, err := p.decodeSwapDeltas(receipt)
	if err != nil {
		return nil, nil, err
	}
	p.logger.Debug("pool exchange settled",
		zap.Bool("zero_for_one", zeroForOne),
		zap.String("amount", amount.String()),
		zap.String("delta0", delta0.String()),
		zap.String("delta1", delta1.String()),
	)
	return delta0, delta1, nil
}

// decodeSwapDeltas recovers (amount0, amount1) from the Swap event emitted
// by this pool.
func (p *AMM) decodeSwapDeltas(receipt *types.Receipt) (*big.Int, *big.Int, error) {
	eventID := p.abi.Events["Swap"].ID
	for _, log := range receipt.Logs {
		if log.Address != p.addr || len(log.Topics) == 0 || log.Topics[0] != eventID {
			continue
		}
		values, err := p.abi.Unpack("Swap", log.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode Swap event: %w", err)
		}
		delta0, ok0 := values[0].(*big.Int)
		delta1, ok1 := values[1].(*big.Int)
		if !ok0 || !ok1 {
			return nil, nil, fmt.Errorf("unexpected Swap event field types")
		}
		return delta0, delta1, nil
	}
	return nil, nil, fmt.Errorf("no Swap event in transaction %s", receipt.TxHash.Hex())
}
