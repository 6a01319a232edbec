package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Fraction is an exact rational number. The zero value is 0.
type Fraction struct {
	r *big.Rat
}

// NewFraction returns numerator/denominator.
func NewFraction(numerator, denominator *big.Int) (Fraction, error) {
	if denominator == nil || denominator.Sign() == 0 {
		return Fraction{}, Validationf("fraction denominator is zero")
	}
	if numerator == nil {
		numerator = new(big.Int)
	}
	return Fraction{r: new(big.Rat).SetFrac(numerator, denominator)}, nil
}

// FractionFromRat copies r into a Fraction.
func FractionFromRat(r *big.Rat) Fraction {
	if r == nil {
		return Fraction{}
	}
	return Fraction{r: new(big.Rat).Set(r)}
}

// FractionFromInt64 returns n/1.
func FractionFromInt64(n int64) Fraction {
	return Fraction{r: new(big.Rat).SetInt64(n)}
}

func (f Fraction) rat() *big.Rat {
	if f.r == nil {
		return new(big.Rat)
	}
	return f.r
}

// Rat returns a copy of the underlying rational.
func (f Fraction) Rat() *big.Rat {
	return new(big.Rat).Set(f.rat())
}

func (f Fraction) Numerator() *big.Int {
	return new(big.Int).Set(f.rat().Num())
}

func (f Fraction) Denominator() *big.Int {
	return new(big.Int).Set(f.rat().Denom())
}

// Quotient is the floor of the fraction.
func (f Fraction) Quotient() *big.Int {
	r := f.rat()
	q := new(big.Int)
	m := new(big.Int)
	q.DivMod(r.Num(), r.Denom(), m)
	return q
}

func (f Fraction) Add(o Fraction) Fraction {
	return Fraction{r: new(big.Rat).Add(f.rat(), o.rat())}
}

func (f Fraction) Sub(o Fraction) Fraction {
	return Fraction{r: new(big.Rat).Sub(f.rat(), o.rat())}
}

func (f Fraction) Mul(o Fraction) Fraction {
	return Fraction{r: new(big.Rat).Mul(f.rat(), o.rat())}
}

// MulInt multiplies by an integer.
func (f Fraction) MulInt(n *big.Int) Fraction {
	return Fraction{r: new(big.Rat).Mul(f.rat(), new(big.Rat).SetInt(n))}
}

// Invert returns 1/f.
func (f Fraction) Invert() (Fraction, error) {
	if f.rat().Sign() == 0 {
		return Fraction{}, Validationf("cannot invert zero fraction")
	}
	return Fraction{r: new(big.Rat).Inv(f.rat())}, nil
}

func (f Fraction) Cmp(o Fraction) int {
	return f.rat().Cmp(o.rat())
}

func (f Fraction) Sign() int {
	return f.rat().Sign()
}

// Decimal converts the fraction to a decimal rounded to places digits.
func (f Fraction) Decimal(places int32) decimal.Decimal {
	r := f.rat()
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, places)
}

// ToSignificant formats the value rounded to the given number of significant digits.
func (f Fraction) ToSignificant(digits int32) string {
	if digits <= 0 {
		digits = 1
	}
	d := f.Decimal(digits + 40)
	if d.IsZero() {
		return "0"
	}
	intDigits := int32(d.NumDigits()) + d.Exponent()
	return d.Round(digits - intDigits).String()
}

// ToFixed formats the value with exactly places decimals.
func (f Fraction) ToFixed(places int32) string {
	return f.Decimal(places).StringFixed(places)
}

func (f Fraction) String() string {
	return f.rat().RatString()
}

// Percent is a fraction of one.
type Percent struct {
	Fraction
}

// NewPercent returns numerator/denominator as a percent, e.g. NewPercent(50, 10_000) is 0.5%.
func NewPercent(numerator, denominator int64) (Percent, error) {
	f, err := NewFraction(big.NewInt(numerator), big.NewInt(denominator))
	if err != nil {
		return Percent{}, err
	}
	return Percent{Fraction: f}, nil
}

// PercentFromBips converts basis points into a percent.
func PercentFromBips(bips int64) Percent {
	return Percent{Fraction: Fraction{r: big.NewRat(bips, 10_000)}}
}

// ToSignificant formats the percent value (0.005 renders as "0.5").
func (p Percent) ToSignificant(digits int32) string {
	return p.Mul(FractionFromInt64(100)).ToSignificant(digits)
}

func (p Percent) ToFixed(places int32) string {
	return p.Mul(FractionFromInt64(100)).ToFixed(places)
}
