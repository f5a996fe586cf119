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

// ERC-20 subset used by the gateway
const erc20ABI = `[
	{"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"transferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const erc20GasLimit = 120000

// Gateway moves and inspects ERC-20 balances for arbitrary assets. It
// implements the executor TokenGateway interface.
type Gateway struct {
	sender *utils.TxSender
	abi    abi.ABI
	logger *zap.Logger
}

// NewGateway creates an asset-keyed ERC-20 gateway.
func NewGateway(sender *utils.TxSender, logger *zap.Logger) (*Gateway, error) {
	if sender == nil {
		return nil, fmt.Errorf("tx sender cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	return &Gateway{sender: sender, abi: parsed, logger: logger}, nil
}

// Transfer moves amount of asset from the sender account to to.
func (g *Gateway) Transfer(ctx context.Context, asset, to common.Address, amount *big.Int) (bool, error) {
	input, err := g.abi.Pack("transfer", to, amount)
	if err != nil {
		return false, fmt.Errorf("failed to pack transfer: %w", err)
	}
	if _, err := g.sender.Send(ctx, asset, nil, input, erc20GasLimit); err != nil {
		return false, fmt.Errorf("transfer failed: %w", err)
	}
	g.logger.Debug("token transferred",
		zap.Stringer("asset", asset),
		zap.Stringer("to", to),
		zap.String("amount", amount.String()),
	)
	return true, nil
}

// TransferFrom moves amount of asset from from to to using an existing
// allowance.
func (g *Gateway) TransferFrom(ctx context.Context, asset, from, to common.Address, amount *big.Int) (bool, error) {
	input, err := g.abi.Pack("transferFrom", from, to, amount)
	if err != nil {
		return false, fmt.Errorf("failed to pack transferFrom: %w", err)
	}
	if _, err := g.sender.Send(ctx, asset, nil, input, erc20GasLimit); err != nil {
		return false, fmt.Errorf("transferFrom failed: %w", err)
	}
	return true, nil
}

// BalanceOf returns the asset balance held by account.
func (g *Gateway) BalanceOf(ctx context.Context, asset, account common.Address) (*big.Int, error) {
	input, err := g.abi.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	out, err := g.sender.Call(ctx, asset, input)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}
	values, err := g.abi.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balanceOf result: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}
	return balance, nil
}
