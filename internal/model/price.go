package model

import (
	"math/big"
)

// Price is the exchange rate of Base in Quote, kept in raw units.
type Price struct {
	Base  Token
	Quote Token
	raw   Fraction
}

// NewPrice returns a price where denominator raw units of base buy numerator raw units of quote.
func NewPrice(base, quote Token, denominator, numerator *big.Int) (Price, error) {
	raw, err := NewFraction(numerator, denominator)
	if err != nil {
		return Price{}, err
	}
	return Price{Base: base, Quote: quote, raw: raw}, nil
}

// PriceFromFraction wraps a raw-unit ratio.
func PriceFromFraction(base, quote Token, raw Fraction) Price {
	return Price{Base: base, Quote: quote, raw: raw}
}

// Raw is the price in raw quote units per raw base unit.
func (p Price) Raw() Fraction {
	return p.raw
}

func (p Price) Invert() (Price, error) {
	inv, err := p.raw.Invert()
	if err != nil {
		return Price{}, err
	}
	return Price{Base: p.Quote, Quote: p.Base, raw: inv}, nil
}

// Multiply chains two prices; p.Quote must equal o.Base.
func (p Price) Multiply(o Price) (Price, error) {
	if !p.Quote.Equals(o.Base) {
		return Price{}, Validationf("price multiply: token mismatch")
	}
	return Price{Base: p.Base, Quote: o.Quote, raw: p.raw.Mul(o.raw)}, nil
}

// QuoteAmount converts an amount of Base into Quote, rounding down.
func (p Price) QuoteAmount(amount CurrencyAmount) (CurrencyAmount, error) {
	if !amount.Currency.Equals(p.Base) {
		return CurrencyAmount{}, Validationf("price quote: token mismatch")
	}
	return AmountFromBig(p.Quote, p.raw.Mul(amount.Fraction()).Quotient())
}

// Adjusted is the price in whole-token units.
func (p Price) Adjusted() Fraction {
	scale := new(big.Rat).SetFrac(pow10(p.Base.Decimals), pow10(p.Quote.Decimals))
	return p.raw.Mul(Fraction{r: scale})
}

func (p Price) ToSignificant(digits int32) string {
	return p.Adjusted().ToSignificant(digits)
}

func (p Price) ToFixed(places int32) string {
	return p.Adjusted().ToFixed(places)
}

func (p Price) String() string {
	return p.ToSignificant(6) + " " + p.Quote.String() + "/" + p.Base.String()
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
