// Package v3math holds the fixed-point primitives of a V3 pool: full-precision
// mul-div, tick and sqrt-price conversion, amount deltas and the single swap step.
// All Q64.96 values are 256-bit unsigned integers.
package v3math

import (
	"github.com/holiman/uint256"

	"poolsim/internal/model"
)

var (
	// Q96 is 2^96, the scale of a Q64.96 number.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	// Q192 is 2^192, the scale of a squared Q64.96 number.
	Q192 = new(uint256.Int).Lsh(uint256.NewInt(1), 192)

	MaxUint128 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)
	MaxUint160 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 160), 1)
	MaxUint256 = new(uint256.Int).SetAllOne()
)

var errDivisionByZero = model.NewError(model.ErrComputation, "division by zero")

// MulDiv returns floor(a*b/denominator) computed with a 512-bit intermediate.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, errDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, model.ErrOverflow
	}
	return z, nil
}

// MulDivRoundingUp returns ceil(a*b/denominator) computed with a 512-bit intermediate.
func MulDivRoundingUp(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	z, err := MulDiv(a, b, denominator)
	if err != nil {
		return nil, err
	}
	if new(uint256.Int).MulMod(a, b, denominator).IsZero() {
		return z, nil
	}
	if z.Eq(MaxUint256) {
		return nil, model.ErrOverflow
	}
	return z.AddUint64(z, 1), nil
}

// DivRoundingUp returns ceil(a/denominator).
func DivRoundingUp(a, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, errDivisionByZero
	}
	q := new(uint256.Int).Div(a, denominator)
	if !new(uint256.Int).Mod(a, denominator).IsZero() {
		q.AddUint64(q, 1)
	}
	return q, nil
}
