// Package ticks holds initialized ticks and the providers a pool queries while swapping.
package ticks

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/v3math"
)

var (
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Tick is an initialized tick of a pool.
type Tick struct {
	Index          int32
	LiquidityGross *uint256.Int
	LiquidityNet   *big.Int
}

// NewTick validates and copies tick data.
func NewTick(index int32, liquidityGross *uint256.Int, liquidityNet *big.Int) (Tick, error) {
	if index < v3math.MinTick || index > v3math.MaxTick {
		return Tick{}, fmt.Errorf("tick %d: %w", index, v3math.ErrTickOutOfRange)
	}
	if liquidityGross == nil || liquidityNet == nil {
		return Tick{}, model.Validationf("tick liquidity is required")
	}
	if liquidityGross.Gt(v3math.MaxUint128) {
		return Tick{}, model.Validationf("tick liquidity gross exceeds 128 bits")
	}
	if liquidityNet.Cmp(maxInt128) > 0 || liquidityNet.Cmp(minInt128) < 0 {
		return Tick{}, model.Validationf("tick liquidity net exceeds int128")
	}
	return Tick{
		Index:          index,
		LiquidityGross: liquidityGross.Clone(),
		LiquidityNet:   new(big.Int).Set(liquidityNet),
	}, nil
}

// ParseTick builds a tick from its snapshot record.
func ParseTick(record model.TickRecord) (Tick, error) {
	gross, err := uint256.FromDecimal(record.LiquidityGross)
	if err != nil {
		return Tick{}, fmt.Errorf("tick %d liquidity gross: %w", record.Index, model.Validationf(err.Error()))
	}
	net, ok := new(big.Int).SetString(record.LiquidityNet, 10)
	if !ok {
		return Tick{}, fmt.Errorf("tick %d liquidity net: %w", record.Index, model.Validationf("invalid integer "+record.LiquidityNet))
	}
	return NewTick(record.Index, gross, net)
}

// Record converts the tick into its snapshot form.
func (t Tick) Record() model.TickRecord {
	return model.TickRecord{
		Index:          t.Index,
		LiquidityGross: t.LiquidityGross.Dec(),
		LiquidityNet:   t.LiquidityNet.String(),
	}
}
