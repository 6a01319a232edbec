package model

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Token identifies an ERC20 token or a chain's native currency.
// A native currency carries the address of its wrapped token.
type Token struct {
	ChainID  uint64         `json:"chain_id"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`
	Native   bool           `json:"native,omitempty"`
}

func NewToken(chainID uint64, address common.Address, decimals uint8, symbol, name string) Token {
	return Token{ChainID: chainID, Address: address, Decimals: decimals, Symbol: symbol, Name: name}
}

// NewNative returns the native currency of a chain, wrapped by the given token.
func NewNative(wrapped Token, symbol, name string) Token {
	native := wrapped
	native.Native = true
	native.Symbol = symbol
	native.Name = name
	return native
}

// Wrapped returns the ERC20 form of the currency.
func (t Token) Wrapped() Token {
	if !t.Native {
		return t
	}
	w := t
	w.Native = false
	return w
}

// Equals compares identity only; symbol and name are ignored.
func (t Token) Equals(other Token) bool {
	return t.ChainID == other.ChainID && t.Native == other.Native && t.Address == other.Address
}

// SortsBefore reports whether t is token0 of a pool formed with other.
func (t Token) SortsBefore(other Token) (bool, error) {
	if t.Native || other.Native {
		return false, Validationf("native currency has no pool ordering")
	}
	if t.ChainID != other.ChainID {
		return false, Validationf("tokens on different chains")
	}
	if t.Address == other.Address {
		return false, Validationf("tokens have the same address")
	}
	return bytes.Compare(t.Address.Bytes(), other.Address.Bytes()) < 0, nil
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}

// SortTokens orders two tokens into (token0, token1).
func SortTokens(a, b Token) (Token, Token, error) {
	before, err := a.SortsBefore(b)
	if err != nil {
		return Token{}, Token{}, fmt.Errorf("sort tokens: %w", err)
	}
	if before {
		return a, b, nil
	}
	return b, a, nil
}
