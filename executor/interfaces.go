package executor

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// PriceSource supplies the external reference price used to bound slippage.
// A quote is fetched fresh on every call and never cached across calls.
type PriceSource interface {
	// LatestPrice returns the most recent reference quote and its timestamp.
	LatestPrice(ctx context.Context) (*big.Int, time.Time, error)
}

// Pool is the exchange pool the executor settles against. Settlement
// semantics are opaque; the returned deltas are trusted to be accurate.
type Pool interface {
	// ExecuteExchange swaps amount in the given direction on behalf of
	// recipient, aborting if the pool price would move past priceLimit.
	// It returns the signed balance deltas of the two pool legs.
	ExecuteExchange(ctx context.Context, recipient common.Address, zeroForOne bool, amount *big.Int, priceLimit *big.Int, payload []byte) (delta0, delta1 *big.Int, err error)
}

// WrappedAsset converts native value to and from its tradeable token
// representation and grants pool drawing rights over it.
type WrappedAsset interface {
	Wrap(ctx context.Context, amount *big.Int) error
	Unwrap(ctx context.Context, amount *big.Int) error

	// Authorize permits spender to draw up to amount of the wrapped asset.
	// A false return without error means the adapter refused the approval.
	Authorize(ctx context.Context, spender common.Address, amount *big.Int) (bool, error)
}

// TokenGateway moves and inspects balances of arbitrary assets. A false
// return without error means the underlying token refused the transfer.
type TokenGateway interface {
	Transfer(ctx context.Context, asset, to common.Address, amount *big.Int) (bool, error)
	TransferFrom(ctx context.Context, asset, from, to common.Address, amount *big.Int) (bool, error)
	BalanceOf(ctx context.Context, asset, account common.Address) (*big.Int, error)
}

// SwapEvent is the completion record emitted on every successful exchange.
type SwapEvent struct {
	Caller       common.Address
	InputAmount  *big.Int
	OutputAmount *big.Int
}

// EventSink receives completion records. Implementations must not call back
// into the executor; delivery happens while the exclusivity flag is held.
type EventSink interface {
	SwapExecuted(ev SwapEvent)
}

// Route describes a multi-hop exchange path. The three sequences must have
// equal length and name at least two assets.
type Route struct {
	Assets      []common.Address
	Amounts     []*big.Int
	PriceLimits []*big.Int
}
