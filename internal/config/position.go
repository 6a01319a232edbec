package config

import "github.com/spf13/pflag"

// Position configures `quoter position`. Either Liquidity or at least one
// of Amount0/Amount1 must be set.
type Position struct {
	In        string `validate:"required"`
	Pool      string `validate:"required,eth_addr"`
	TickLower int32  `validate:"ltfield=TickUpper"`
	TickUpper int32
	Liquidity string `validate:"required_without_all=Amount0 Amount1"`
	Amount0   string `validate:"omitempty,number"`
	Amount1   string `validate:"omitempty,number"`
	Slippage  uint32 `validate:"lte=10000"`
	LogLevel  string `validate:"oneof=debug info warn error"`
}

// LoadPosition loads and validates the position command configuration.
func LoadPosition(cfgFile string, flags *pflag.FlagSet) (Position, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"in":       "./data/pools.jsonl",
		"slippage": 50,
	})
	if err != nil {
		return Position{}, err
	}

	cfg := Position{
		In:        v.GetString("in"),
		Pool:      v.GetString("pool"),
		TickLower: v.GetInt32("tick-lower"),
		TickUpper: v.GetInt32("tick-upper"),
		Liquidity: v.GetString("liquidity"),
		Amount0:   v.GetString("amount0"),
		Amount1:   v.GetString("amount1"),
		Slippage:  v.GetUint32("slippage"),
		LogLevel:  v.GetString("log-level"),
	}
	if err := check(cfg); err != nil {
		return Position{}, err
	}
	return cfg, nil
}
