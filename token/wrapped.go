// Package token adapts on-chain asset contracts to the executor interfaces:
// a WETH-style wrapper for the native asset and an asset-keyed ERC-20
// gateway for transfers and balance queries.
package token

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/swapguard/utils"
)

// Wrapped-native asset ABI (WETH9 subset)
const wrappedABI = `[
	{"name":"deposit","type":"function","stateMutability":"payable","inputs":[],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"wad","type":"uint256"}],"outputs":[]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"guy","type":"address"},{"name":"wad","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const wrappedGasLimit = 100000

// Wrapped converts native value to and from a WETH-like token contract.
// It implements the executor WrappedAsset interface.
type Wrapped struct {
	sender *utils.TxSender
	addr   common.Address
	abi    abi.ABI
	logger *zap.Logger
}

// NewWrapped creates an adapter for the wrapped-native contract at addr.
func NewWrapped(sender *utils.TxSender, addr common.Address, logger *zap.Logger) (*Wrapped, error) {
	if sender == nil {
		return nil, fmt.Errorf("tx sender cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := abi.JSON(strings.NewReader(wrappedABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse wrapped asset ABI: %w", err)
	}
	return &Wrapped{sender: sender, addr: addr, abi: parsed, logger: logger}, nil
}

// Wrap deposits amount of native value into the wrapper contract.
func (w *Wrapped) Wrap(ctx context.Context, amount *big.Int) error {
	input, err := w.abi.Pack("deposit")
	if err != nil {
		return fmt.Errorf("failed to pack deposit: %w", err)
	}
	if _, err := w.sender.Send(ctx, w.addr, amount, input, wrappedGasLimit); err != nil {
		return fmt.Errorf("deposit failed: %w", err)
	}
	w.logger.Debug("native value wrapped", zap.String("amount", amount.String()))
	return nil
}

// Unwrap withdraws amount back into native value.
func (w *Wrapped) Unwrap(ctx context.Context, amount *big.Int) error {
	input, err := w.abi.Pack("withdraw", amount)
	if err != nil {
		return fmt.Errorf("failed to pack withdraw: %w", err)
	}
	if _, err := w.sender.Send(ctx, w.addr, nil, input, wrappedGasLimit); err != nil {
		return fmt.Errorf("withdraw failed: %w", err)
	}
	w.logger.Debug("native value unwrapped", zap.String("amount", amount.String()))
	return nil
}

// Authorize permits spender to draw up to amount of the wrapped asset. The
// approval is judged by the transaction outcome; a reverted approval is
// reported as a refusal.
func (w *Wrapped) Authorize(ctx context.Context, spender common.Address, amount *big.Int) (bool, error) {
	input, err := w.abi.Pack("approve", spender, amount)
	if err != nil {
		return false, fmt.Errorf("failed to pack approve: %w", err)
	}
	if _, err := w.sender.Send(ctx, w.addr, nil, input, wrappedGasLimit); err != nil {
		return false, fmt.Errorf("approve failed: %w", err)
	}
	return true, nil
}
