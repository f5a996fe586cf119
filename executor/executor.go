// Package executor implements a single-owner, single-vault exchange executor.
// It takes transient custody of attached native value for the duration of one
// pool exchange, validates the outcome against an external reference price,
// and forwards the output to the caller. All external collaborators (price
// source, pool, asset adapters) are interfaces so adversarial behavior can be
// simulated in tests.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/swapguard/metrics"
)

const defaultHistorySize = 256

// rollbackTimeout bounds compensation work when the caller's context is
// already dead.
const rollbackTimeout = 30 * time.Second

// Config holds the executor's immutable identities. All addresses must be
// set at construction and are never reassigned afterwards.
type Config struct {
	// WrappedAsset is the tradeable representation of the native asset.
	WrappedAsset common.Address
	// OutputAsset is the asset forwarded to the caller after a single hop.
	OutputAsset common.Address
	// Pool is the exchange pool the executor settles against.
	Pool common.Address
	// PriceFeed is the external reference price source.
	PriceFeed common.Address
	// Owner may invoke administrative operations.
	Owner common.Address
	// Vault is the custody account the executor operates.
	Vault common.Address

	// ZeroForOne is the configured pool direction for the wrapped leg.
	ZeroForOne bool

	// FinalAmountFromPool controls the multi-hop final transfer. When false
	// the caller-supplied final hop amount is transferred (legacy behavior);
	// when true the last measured pool output is used instead.
	FinalAmountFromPool bool

	// HistorySize bounds the retained receipt window. Zero means default.
	HistorySize int
}

// Validate checks that every identity is set.
func (c *Config) Validate() error {
	var problems []string

	zero := common.Address{}
	for _, f := range []struct {
		name string
		addr common.Address
	}{
		{"wrapped_asset", c.WrappedAsset},
		{"output_asset", c.OutputAsset},
		{"pool", c.Pool},
		{"price_feed", c.PriceFeed},
		{"owner", c.Owner},
		{"vault", c.Vault},
	} {
		if f.addr == zero {
			problems = append(problems, fmt.Sprintf("%s must be specified", f.name))
		}
	}
	if c.HistorySize < 0 {
		problems = append(problems, "history_size must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("executor config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Dependencies are the external collaborators the executor drives.
type Dependencies struct {
	Price   PriceSource
	Pool    Pool
	Wrapped WrappedAsset
	Tokens  TokenGateway

	// Events is optional; when nil, completion records are only logged and
	// retained in the history window.
	Events EventSink
}

func (d *Dependencies) validate() error {
	var missing []string
	if d.Price == nil {
		missing = append(missing, "price source")
	}
	if d.Pool == nil {
		missing = append(missing, "pool")
	}
	if d.Wrapped == nil {
		missing = append(missing, "wrapped asset adapter")
	}
	if d.Tokens == nil {
		missing = append(missing, "token gateway")
	}
	if len(missing) > 0 {
		return fmt.Errorf("executor dependencies missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Executor runs guarded exchange operations against a single pool. Exactly
// one guarded operation may be in flight at a time; a second caller fails
// immediately with ErrReentrant rather than blocking.
type Executor struct {
	cfg     Config
	price   PriceSource
	pool    Pool
	wrapped WrappedAsset
	tokens  TokenGateway
	events  EventSink

	history *swapHistory
	metrics *metrics.SwapMetrics
	logger  *zap.Logger

	busy atomicFlag
}

// New creates an exchange executor from its configuration and collaborators.
func New(cfg Config, deps Dependencies, logger *zap.Logger) (*Executor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	size := cfg.HistorySize
	if size == 0 {
		size = defaultHistorySize
	}
	history, err := newSwapHistory(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create swap history: %w", err)
	}

	return &Executor{
		cfg:     cfg,
		price:   deps.Price,
		pool:    deps.Pool,
		wrapped: deps.Wrapped,
		tokens:  deps.Tokens,
		events:  deps.Events,
		history: history,
		metrics: metrics.NewSwapMetrics("swapguard"),
		logger:  logger,
	}, nil
}

// Metrics exposes the executor's metric set for registration.
func (e *Executor) Metrics() *metrics.SwapMetrics {
	return e.metrics
}

// MinimumOutput computes value * price * (100 - maxSlippagePct) / 100 with
// truncating integer division. Truncation biases the bound downward, which
// is slightly more permissive to the pool; the rounding must be reproduced
// exactly for compatibility with existing deployments.
func MinimumOutput(value, price *big.Int, maxSlippagePct uint8) *big.Int {
	out := new(big.Int).Mul(value, price)
	out.Mul(out, big.NewInt(int64(100-uint64(maxSlippagePct))))
	return out.Div(out, big.NewInt(100))
}

// SingleHopExchange swaps the attached native value for the configured
// output asset and forwards the result to caller. The measured pool output
// must meet the reference-price slippage bound or the whole operation is
// rolled back.
func (e *Executor) SingleHopExchange(ctx context.Context, caller common.Address, value *big.Int, maxSlippagePct uint8, priceLimit *big.Int) (*Receipt, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, e.fail("single_hop", ErrNoValueSent)
	}
	if maxSlippagePct >= 100 {
		return nil, e.fail("single_hop", ErrInvalidSlippage)
	}
	if !e.busy.acquire() {
		return nil, e.fail("single_hop", ErrReentrant)
	}
	defer e.busy.release()

	e.metrics.Attempts.Inc()
	e.metrics.ActiveExchanges.Inc()
	defer e.metrics.ActiveExchanges.Dec()
	start := time.Now()
	defer func() {
		e.metrics.ExecutionTime.Observe(time.Since(start).Seconds())
	}()

	j := newJournal(e.logger)
	received, err := e.runSingleHop(ctx, j, caller, value, maxSlippagePct, priceLimit)
	if err != nil {
		e.rollback(ctx, j)
		return nil, e.fail("single_hop", err)
	}
	j.discard()

	return e.complete(caller, value, received, 1), nil
}

func (e *Executor) runSingleHop(ctx context.Context, j *journal, caller common.Address, value *big.Int, maxSlippagePct uint8, priceLimit *big.Int) (*big.Int, error) {
	price, quotedAt, err := e.price.LatestPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPriceData, err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPriceData
	}
	minOut := MinimumOutput(value, price, maxSlippagePct)
	e.logger.Debug("reference price acquired",
		zap.String("price", price.String()),
		zap.Time("quoted_at", quotedAt),
		zap.String("minimum_output", minOut.String()),
	)

	if err := e.wrapAndAuthorize(ctx, j, value); err != nil {
		return nil, err
	}

	received, err := e.swapLeg(ctx, j, value, priceLimit)
	if err != nil {
		return nil, err
	}
	if received.Cmp(minOut) < 0 {
		return nil, ErrSlippageExceeded
	}

	ok, err := e.tokens.Transfer(ctx, e.cfg.OutputAsset, caller, received)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return nil, ErrTransferFailed
	}
	return received, nil
}

// MultiHopExchange routes the attached native value through the given hop
// sequence, pulling each intermediate asset from the caller between legs.
// The final transfer amount is taken from the route unless
// FinalAmountFromPool is set.
func (e *Executor) MultiHopExchange(ctx context.Context, caller common.Address, value *big.Int, route Route) (*Receipt, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, e.fail("multi_hop", ErrNoValueSent)
	}
	if err := route.validate(); err != nil {
		return nil, e.fail("multi_hop", err)
	}
	if !e.busy.acquire() {
		return nil, e.fail("multi_hop", ErrReentrant)
	}
	defer e.busy.release()

	e.metrics.Attempts.Inc()
	e.metrics.ActiveExchanges.Inc()
	defer e.metrics.ActiveExchanges.Dec()
	start := time.Now()
	defer func() {
		e.metrics.ExecutionTime.Observe(time.Since(start).Seconds())
	}()

	j := newJournal(e.logger)
	out, err := e.runMultiHop(ctx, j, caller, value, route)
	if err != nil {
		e.rollback(ctx, j)
		return nil, e.fail("multi_hop", err)
	}
	j.discard()

	return e.complete(caller, value, out, len(route.Assets)-1), nil
}

func (e *Executor) runMultiHop(ctx context.Context, j *journal, caller common.Address, value *big.Int, route Route) (*big.Int, error) {
	if err := e.wrapAndAuthorize(ctx, j, value); err != nil {
		return nil, err
	}

	last := len(route.Assets) - 1
	received := new(big.Int)
	for i := 0; i < last; i++ {
		out, err := e.swapLeg(ctx, j, route.Amounts[i], route.PriceLimits[i])
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w", i, err)
		}
		if out.Sign() <= 0 {
			return nil, fmt.Errorf("hop %d: %w", i, ErrInvalidAmountReceived)
		}
		received = out

		// Stage the next hop's input: pull the measured output of this leg,
		// denominated in the next hop's asset, from the caller.
		next := route.Assets[i+1]
		ok, err := e.tokens.TransferFrom(ctx, next, caller, e.cfg.Vault, out)
		if err != nil {
			return nil, fmt.Errorf("hop %d: %w: %v", i, ErrTokenTransferFailed, err)
		}
		if !ok {
			return nil, fmt.Errorf("hop %d: %w", i, ErrTokenTransferFailed)
		}
		pulled := new(big.Int).Set(out)
		j.record(fmt.Sprintf("pull hop %d", i), func(ctx context.Context) error {
			_, err := e.tokens.Transfer(ctx, next, caller, pulled)
			return err
		})
	}

	final := route.Amounts[last]
	if e.cfg.FinalAmountFromPool {
		final = received
	}
	ok, err := e.tokens.Transfer(ctx, route.Assets[last], caller, final)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if !ok {
		return nil, ErrTransferFailed
	}
	return final, nil
}

// RescueFunds moves the vault's full balance of asset to the owner. It is
// blocked while an exchange is in flight so custody cannot be drained
// mid-sequence.
func (e *Executor) RescueFunds(ctx context.Context, caller, asset common.Address) (*big.Int, error) {
	if caller != e.cfg.Owner {
		return nil, e.fail("rescue", ErrNotOwner)
	}
	if !e.busy.acquire() {
		return nil, e.fail("rescue", ErrReentrant)
	}
	defer e.busy.release()

	balance, err := e.tokens.BalanceOf(ctx, asset, e.cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("balance query: %w", err)
	}
	if balance.Sign() == 0 {
		e.logger.Info("rescue requested for empty balance", zap.Stringer("asset", asset))
		return new(big.Int), nil
	}

	ok, err := e.tokens.Transfer(ctx, asset, e.cfg.Owner, balance)
	if err != nil {
		return nil, e.fail("rescue", fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}
	if !ok {
		return nil, e.fail("rescue", ErrTransferFailed)
	}

	e.logger.Info("stranded funds rescued",
		zap.Stringer("asset", asset),
		zap.String("amount", balance.String()),
		zap.Stringer("recipient", e.cfg.Owner),
	)
	return balance, nil
}

// CurrentPrice exposes the reference price for external inspection. The
// quote is fetched fresh and validated the same way the exchange paths do.
func (e *Executor) CurrentPrice(ctx context.Context) (*big.Int, error) {
	price, _, err := e.price.LatestPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPriceData, err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPriceData
	}
	return price, nil
}

// Receive accepts unsolicited native value with no side effects. Stray
// deposits stay in the vault until rescued; they are counted for visibility.
func (e *Executor) Receive(from common.Address, value *big.Int) {
	e.metrics.StrayDeposits.Inc()
	e.logger.Debug("unsolicited native value received",
		zap.Stringer("from", from),
		zap.String("value", bigString(value)),
	)
}

// RecentSwaps returns the retained completion records, oldest first.
func (e *Executor) RecentSwaps() []Receipt {
	return e.history.recent()
}

// Owner returns the configured owner identity.
func (e *Executor) Owner() common.Address {
	return e.cfg.Owner
}

// wrapAndAuthorize converts the attached native value into the wrapped asset
// and grants the pool drawing rights over it, journaling both effects.
func (e *Executor) wrapAndAuthorize(ctx context.Context, j *journal, value *big.Int) error {
	if err := e.wrapped.Wrap(ctx, value); err != nil {
		return fmt.Errorf("wrap native value: %w", err)
	}
	amount := new(big.Int).Set(value)
	j.record("wrap", func(ctx context.Context) error {
		return e.wrapped.Unwrap(ctx, amount)
	})

	ok, err := e.wrapped.Authorize(ctx, e.cfg.Pool, value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}
	if !ok {
		return ErrApprovalFailed
	}
	j.record("authorize pool", func(ctx context.Context) error {
		_, err := e.wrapped.Authorize(ctx, e.cfg.Pool, new(big.Int))
		return err
	})
	return nil
}

// swapLeg executes one pool exchange in the configured direction and
// journals a best-effort compensating swap. The output leg delta is
// interpreted as a positive received amount.
func (e *Executor) swapLeg(ctx context.Context, j *journal, amount, priceLimit *big.Int) (*big.Int, error) {
	_, delta1, err := e.pool.ExecuteExchange(ctx, e.cfg.Vault, e.cfg.ZeroForOne, amount, priceLimit, nil)
	if err != nil {
		return nil, fmt.Errorf("pool exchange: %w", err)
	}
	received := receivedAmount(delta1)

	if received.Sign() > 0 {
		undo := new(big.Int).Set(received)
		j.record("pool exchange", func(ctx context.Context) error {
			_, _, err := e.pool.ExecuteExchange(ctx, e.cfg.Vault, !e.cfg.ZeroForOne, undo, nil, nil)
			return err
		})
	}
	return received, nil
}

// complete emits the SwapExecuted record and returns the receipt.
func (e *Executor) complete(caller common.Address, input, output *big.Int, hops int) *Receipt {
	receipt := Receipt{
		ID:           e.history.nextID(caller),
		Caller:       caller,
		InputAmount:  new(big.Int).Set(input),
		OutputAmount: new(big.Int).Set(output),
		Hops:         hops,
		ExecutedAt:   time.Now().UTC(),
	}
	e.history.add(receipt)

	e.metrics.Successes.Inc()
	e.metrics.VolumeWei.Add(bigFloat(input))
	e.metrics.OutputWei.Add(bigFloat(output))

	if e.events != nil {
		e.events.SwapExecuted(SwapEvent{
			Caller:       caller,
			InputAmount:  new(big.Int).Set(input),
			OutputAmount: new(big.Int).Set(output),
		})
	}

	e.logger.Info("swap executed",
		zap.Stringer("caller", caller),
		zap.String("input_amount", input.String()),
		zap.String("output_amount", output.String()),
		zap.Int("hops", hops),
	)
	return &receipt
}

// rollback unwinds the journal, using a fresh deadline when the caller's
// context is already dead so compensations still run.
func (e *Executor) rollback(ctx context.Context, j *journal) {
	if j.depth() == 0 {
		return
	}
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), rollbackTimeout)
		defer cancel()
	}
	depth := j.depth()
	j.unwind(ctx)
	e.metrics.RollbackSteps.Add(float64(depth))
}

func (e *Executor) fail(op string, err error) error {
	e.metrics.Failures.WithLabelValues(failureKind(err)).Inc()
	e.logger.Warn("exchange operation failed",
		zap.String("op", op),
		zap.Error(err),
	)
	return err
}

func (r Route) validate() error {
	if len(r.Assets) < 2 {
		return ErrInsufficientHops
	}
	if len(r.Amounts) != len(r.Assets) || len(r.PriceLimits) != len(r.Assets) {
		return ErrArrayLengthMismatch
	}
	for _, amount := range r.Amounts {
		if amount == nil || amount.Sign() <= 0 {
			return ErrInvalidAmount
		}
	}
	return nil
}

// receivedAmount interprets the output leg delta as a positive received
// amount. Pools report the leg they pay out as a negative delta.
func receivedAmount(delta *big.Int) *big.Int {
	if delta == nil {
		return new(big.Int)
	}
	return new(big.Int).Neg(delta)
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrNoValueSent):
		return "no_value_sent"
	case errors.Is(err, ErrReentrant):
		return "reentrant"
	case errors.Is(err, ErrInvalidPriceData):
		return "invalid_price_data"
	case errors.Is(err, ErrApprovalFailed):
		return "approval_failed"
	case errors.Is(err, ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, ErrTokenTransferFailed):
		return "token_transfer_failed"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrInvalidAmountReceived):
		return "invalid_amount_received"
	case errors.Is(err, ErrArrayLengthMismatch):
		return "array_length_mismatch"
	case errors.Is(err, ErrInsufficientHops):
		return "insufficient_hops"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrInvalidSlippage):
		return "invalid_slippage"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "other"
	}
}

func bigString(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}

func bigFloat(x *big.Int) float64 {
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
