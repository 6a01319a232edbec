package position

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolsim/internal/model"
	"poolsim/internal/pool"
	"poolsim/internal/v3math"
)

var (
	token0 = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000001"), 18, "T0", "token0")
	token1 = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000002"), 18, "T1", "token1")

	oneE18 = uint256.NewInt(1_000_000_000_000_000_000)
)

func poolAtTick(t *testing.T, tick int32) *pool.Pool {
	t.Helper()
	sqrt, err := v3math.GetSqrtRatioAtTick(tick)
	require.NoError(t, err)
	p, err := pool.New(pool.Params{
		TokenA:       token0,
		TokenB:       token1,
		Fee:          model.FeeMedium,
		SqrtPriceX96: sqrt,
		Liquidity:    oneE18,
		TickCurrent:  tick,
	})
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	p := poolAtTick(t, 0)
	tests := []struct {
		name         string
		lower, upper int32
		liquidity    *uint256.Int
	}{
		{"inverted", 60, -60, oneE18},
		{"empty", 60, 60, oneE18},
		{"lower unaligned", -50, 60, oneE18},
		{"upper unaligned", -60, 50, oneE18},
		{"lower below min", -887280, 60, oneE18},
		{"upper above max", -60, 887280, oneE18},
		{"liquidity > 2^128", -60, 60, new(uint256.Int).Lsh(uint256.NewInt(1), 128)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(p, tt.lower, tt.upper, tt.liquidity)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestAmountsAcrossRange(t *testing.T) {
	tests := []struct {
		name             string
		tick             int32
		amount0, amount1 string
	}{
		{"in range", 0, "2995354955910780", "2995354955910780"},
		{"below range", -120, "5999709018652706", "0"},
		{"above range", 120, "0", "5999709018652706"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := New(poolAtTick(t, tt.tick), -60, 60, oneE18)
			require.NoError(t, err)

			amount0, err := pos.Amount0()
			require.NoError(t, err)
			amount1, err := pos.Amount1()
			require.NoError(t, err)
			assert.Equal(t, token0, amount0.Currency)
			assert.Equal(t, token1, amount1.Currency)
			assert.Equal(t, tt.amount0, amount0.Raw.Dec())
			assert.Equal(t, tt.amount1, amount1.Raw.Dec())
		})
	}
}

func TestAmountsAreCached(t *testing.T) {
	pos, err := New(poolAtTick(t, 0), -60, 60, oneE18)
	require.NoError(t, err)

	first, err := pos.Amount0()
	require.NoError(t, err)
	first.Raw.SetUint64(1)
	again, err := pos.Amount0()
	require.NoError(t, err)
	assert.Equal(t, "2995354955910780", again.Raw.Dec())

	mint0, mint1, err := pos.MintAmounts()
	require.NoError(t, err)
	mint0.Clear()
	mint1.Clear()
	mint0, mint1, err = pos.MintAmounts()
	require.NoError(t, err)
	assert.False(t, mint0.IsZero())
	assert.False(t, mint1.IsZero())
}

func TestMintAmountsRoundUp(t *testing.T) {
	pos, err := New(poolAtTick(t, 0), -60, 60, oneE18)
	require.NoError(t, err)
	amount0, amount1, err := pos.MintAmounts()
	require.NoError(t, err)
	assert.Equal(t, "2995354955910781", amount0.Dec())
	assert.Equal(t, "2995354955910781", amount1.Dec())
}

func TestAmountsWithSlippage(t *testing.T) {
	pos, err := New(poolAtTick(t, 0), -60, 60, oneE18)
	require.NoError(t, err)

	tolerance := model.PercentFromBips(50)
	mint0, mint1, err := pos.MintAmountsWithSlippage(tolerance)
	require.NoError(t, err)
	assert.Equal(t, "504691063543684", mint0.Dec())
	assert.Equal(t, "492222118910948", mint1.Dec())

	burn0, burn1, err := pos.BurnAmountsWithSlippage(tolerance)
	require.NoError(t, err)
	assert.Equal(t, "504691063543683", burn0.Dec())
	assert.Equal(t, "492222118910947", burn1.Dec())

	// zero tolerance reproduces the unslipped amounts
	burn0, burn1, err = pos.BurnAmountsWithSlippage(model.PercentFromBips(0))
	require.NoError(t, err)
	assert.Equal(t, "2995354955910780", burn0.Dec())
	assert.Equal(t, "2995354955910780", burn1.Dec())

	_, _, err = pos.MintAmountsWithSlippage(model.PercentFromBips(-1))
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestSlippageClampsToPriceBounds(t *testing.T) {
	pos, err := New(poolAtTick(t, 0), -60, 60, oneE18)
	require.NoError(t, err)
	// 100% and more pushes the lower price to zero
	amount0, amount1, err := pos.BurnAmountsWithSlippage(model.PercentFromBips(20_000))
	require.NoError(t, err)
	assert.True(t, amount0.IsZero())
	assert.True(t, amount1.IsZero())
}

func TestFromAmounts(t *testing.T) {
	p := poolAtTick(t, 0)

	pos, err := FromAmounts(p, -60, 60, oneE18, oneE18, false)
	require.NoError(t, err)
	assert.Equal(t, "333850249709699449134", pos.Liquidity().Dec())

	pos, err = FromAmount0(p, -60, 60, oneE18, true)
	require.NoError(t, err)
	assert.Equal(t, "333850249709699449134", pos.Liquidity().Dec())

	pos, err = FromAmount1(p, -60, 60, oneE18)
	require.NoError(t, err)
	assert.Equal(t, "333850249709699449134", pos.Liquidity().Dec())

	pos, err = FromAmount0(p, 60, 120, oneE18, true)
	require.NoError(t, err)
	assert.Equal(t, "334853254063762191060", pos.Liquidity().Dec())
	amount1, err := pos.Amount1()
	require.NoError(t, err)
	assert.True(t, amount1.IsZero())

	// only token0 can back a range above the price
	_, err = FromAmount1(p, 60, 120, oneE18)
	require.Error(t, err)
}

func TestTokenPricesAtBounds(t *testing.T) {
	pos, err := New(poolAtTick(t, 0), -60, 60, oneE18)
	require.NoError(t, err)

	lower, err := pos.Token0PriceLower()
	require.NoError(t, err)
	upper, err := pos.Token0PriceUpper()
	require.NoError(t, err)
	assert.Equal(t, "0.994", lower.ToSignificant(3))
	assert.Equal(t, "1.01", upper.ToSignificant(3))
	assert.Equal(t, token0, lower.Base)
	assert.Equal(t, token1, lower.Quote)
}
