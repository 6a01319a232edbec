package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// Token converts the metadata record into a token on the given chain.
func (m TokenMeta) Token(chainID uint64) (Token, error) {
	if !common.IsHexAddress(m.Address) {
		return Token{}, fmt.Errorf("invalid token address: %q", m.Address)
	}
	return NewToken(chainID, common.HexToAddress(m.Address), m.Decimals, m.Symbol, m.Name), nil
}
