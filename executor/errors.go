package executor

import "errors"

// Failure kinds for guarded exchange operations. Every failure aborts the
// whole operation; the undo journal rolls back any effects already applied.
var (
	// ErrNoValueSent is returned when an operation requiring payment is
	// invoked with zero or nil attached value.
	ErrNoValueSent = errors.New("executor: no value sent")

	// ErrReentrant is returned when the exclusivity flag is already set at
	// entry, including re-entry from within a pool callback.
	ErrReentrant = errors.New("executor: currently executing")

	// ErrInvalidPriceData is returned when the reference price source yields
	// a non-positive value.
	ErrInvalidPriceData = errors.New("executor: invalid price data")

	// ErrApprovalFailed is returned when the pool authorization is refused
	// by the wrapped-asset adapter.
	ErrApprovalFailed = errors.New("executor: approval failed")

	// ErrSlippageExceeded is returned when the measured pool output falls
	// below the computed minimum bound.
	ErrSlippageExceeded = errors.New("executor: slippage exceeded")

	// ErrTransferFailed is returned when the output transfer to the caller
	// is refused by the token gateway.
	ErrTransferFailed = errors.New("executor: transfer failed")

	// ErrTokenTransferFailed is returned when an intermediate hop transfer
	// is refused by the token gateway.
	ErrTokenTransferFailed = errors.New("executor: token transfer failed")

	// ErrInvalidAmountReceived is returned when a multi-hop leg yields a
	// non-positive output.
	ErrInvalidAmountReceived = errors.New("executor: invalid amount received")

	// ErrArrayLengthMismatch is returned when the multi-hop route sequences
	// differ in length.
	ErrArrayLengthMismatch = errors.New("executor: array length mismatch")

	// ErrInsufficientHops is returned when a multi-hop route names fewer
	// than two assets.
	ErrInsufficientHops = errors.New("executor: insufficient hops")

	// ErrNotOwner is returned when an administrative operation is invoked
	// by anyone other than the configured owner.
	ErrNotOwner = errors.New("executor: caller is not owner")

	// ErrInvalidSlippage is returned when the slippage tolerance is outside
	// the [0,100) percent range.
	ErrInvalidSlippage = errors.New("executor: invalid slippage tolerance")

	// ErrInvalidAmount is returned when a route amount is nil or not
	// strictly positive.
	ErrInvalidAmount = errors.New("executor: invalid amount")
)
