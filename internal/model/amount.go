package model

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// CurrencyAmount is a raw (undecimaled) token amount.
type CurrencyAmount struct {
	Currency Token
	Raw      *uint256.Int
}

func NewAmount(currency Token, raw *uint256.Int) CurrencyAmount {
	if raw == nil {
		raw = new(uint256.Int)
	}
	return CurrencyAmount{Currency: currency, Raw: raw.Clone()}
}

// AmountFromBig converts a big integer that must fit in 256 unsigned bits.
func AmountFromBig(currency Token, raw *big.Int) (CurrencyAmount, error) {
	if raw == nil || raw.Sign() < 0 {
		return CurrencyAmount{}, Validationf("amount must be non-negative")
	}
	value, overflow := uint256.FromBig(raw)
	if overflow {
		return CurrencyAmount{}, Validationf("amount exceeds 256 bits")
	}
	return CurrencyAmount{Currency: currency, Raw: value}, nil
}

// ParseAmount parses a base-10 raw amount.
func ParseAmount(currency Token, raw string) (CurrencyAmount, error) {
	value, err := uint256.FromDecimal(raw)
	if err != nil {
		return CurrencyAmount{}, Validationf("invalid amount " + raw)
	}
	return CurrencyAmount{Currency: currency, Raw: value}, nil
}

// Wrapped returns the same amount denominated in the wrapped token.
func (a CurrencyAmount) Wrapped() CurrencyAmount {
	return NewAmount(a.Currency.Wrapped(), a.Raw)
}

// Add sums two amounts of the same currency.
func (a CurrencyAmount) Add(b CurrencyAmount) (CurrencyAmount, error) {
	if !a.Currency.Equals(b.Currency) {
		return CurrencyAmount{}, Validationf("currency mismatch")
	}
	sum, overflow := new(uint256.Int).AddOverflow(a.raw(), b.raw())
	if overflow {
		return CurrencyAmount{}, ErrOverflow
	}
	return CurrencyAmount{Currency: a.Currency, Raw: sum}, nil
}

// Cmp compares raw amounts and ignores the currency.
func (a CurrencyAmount) Cmp(b CurrencyAmount) int {
	return a.raw().Cmp(b.raw())
}

func (a CurrencyAmount) IsZero() bool {
	return a.raw().IsZero()
}

// Fraction returns the raw amount as a fraction.
func (a CurrencyAmount) Fraction() Fraction {
	return Fraction{r: new(big.Rat).SetInt(a.raw().ToBig())}
}

// ToExact renders the amount in whole-token units.
func (a CurrencyAmount) ToExact() string {
	return decimal.NewFromBigInt(a.raw().ToBig(), -int32(a.Currency.Decimals)).String()
}

func (a CurrencyAmount) String() string {
	return a.raw().Dec()
}

func (a CurrencyAmount) raw() *uint256.Int {
	if a.Raw == nil {
		return new(uint256.Int)
	}
	return a.Raw
}
