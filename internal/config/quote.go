package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Quote configures `quoter quote`.
type Quote struct {
	In         string        `validate:"required"`
	TokenIn    string        `validate:"required,eth_addr"`
	TokenOut   string        `validate:"required,eth_addr,nefield=TokenIn"`
	Amount     string        `validate:"required,number"`
	TradeType  string        `validate:"oneof=exact-in exact-out"`
	MaxHops    int           `validate:"min=1,max=6"`
	MaxResults int           `validate:"min=1"`
	Slippage   uint32        `validate:"lte=10000"`
	RPCURL     string        `validate:"omitempty,url"`
	Timeout    time.Duration `validate:"gte=0"`
	LogLevel   string        `validate:"oneof=debug info warn error"`
}

// LoadQuote loads and validates the quote command configuration.
// Amount is a raw integer in the smallest unit of the fixed token.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (Quote, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"in":          "./data/pools.jsonl",
		"type":        "exact-in",
		"max-hops":    3,
		"max-results": 3,
		"slippage":    50,
	})
	if err != nil {
		return Quote{}, err
	}

	cfg := Quote{
		In:         v.GetString("in"),
		TokenIn:    v.GetString("token-in"),
		TokenOut:   v.GetString("token-out"),
		Amount:     v.GetString("amount"),
		TradeType:  v.GetString("type"),
		MaxHops:    v.GetInt("max-hops"),
		MaxResults: v.GetInt("max-results"),
		Slippage:   v.GetUint32("slippage"),
		RPCURL:     v.GetString("rpc"),
		Timeout:    v.GetDuration("timeout"),
		LogLevel:   v.GetString("log-level"),
	}
	if err := check(cfg); err != nil {
		return Quote{}, err
	}
	return cfg, nil
}
