package model

import "errors"

// Error kinds. Every error produced by the engine wraps exactly one of these.
var (
	ErrValidation  = errors.New("validation error")
	ErrBounds      = errors.New("bounds error")
	ErrComputation = errors.New("computation error")
	ErrLookup      = errors.New("lookup error")
)

// Errors shared across packages.
var (
	ErrPriceLimitOutOfRange  = NewError(ErrBounds, "price limit beyond global bound")
	ErrPriceLimitPastCurrent = NewError(ErrBounds, "price limit on wrong side of current price")

	ErrInsufficientLiquidity   = NewError(ErrComputation, "insufficient liquidity")
	ErrInsufficientInputAmount = NewError(ErrComputation, "insufficient input amount")
	ErrOverflow                = NewError(ErrComputation, "arithmetic overflow")

	ErrTickNotFound = NewError(ErrLookup, "tick not found")
	ErrNoTickData   = NewError(ErrLookup, "no tick data provider")
)

// KindError is a named error that belongs to one of the error kinds.
type KindError struct {
	kind error
	msg  string
}

// NewError returns an error of the given kind with a fixed message.
func NewError(kind error, msg string) *KindError {
	return &KindError{kind: kind, msg: msg}
}

func (e *KindError) Error() string {
	return e.msg
}

// Unwrap exposes the kind so errors.Is(err, ErrBounds) matches.
func (e *KindError) Unwrap() error {
	return e.kind
}

// Kind returns the error kind.
func (e *KindError) Kind() error {
	return e.kind
}

// Validationf builds an ad hoc validation error.
func Validationf(msg string) error {
	return NewError(ErrValidation, msg)
}

// IsRecoverable reports whether err only disqualifies the current candidate
// (a swap that ran out of liquidity or produced nothing) rather than the whole query.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrComputation)
}
