package v3math

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolsim/internal/model"
)

func encodePrice(t *testing.T, amount1, amount0 int64) *uint256.Int {
	t.Helper()
	v, err := EncodeSqrtRatioX96(big.NewInt(amount1), big.NewInt(amount0))
	require.NoError(t, err)
	return v
}

func expand18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1_000_000_000_000_000_000))
}

func TestEncodeSqrtRatioX96(t *testing.T) {
	assert.Equal(t, "79228162514264337593543950336", encodePrice(t, 1, 1).Dec())
	assert.Equal(t, "87150978765690771352898345369", encodePrice(t, 121, 100).Dec())
}

func TestGetAmountDeltas(t *testing.T) {
	one := encodePrice(t, 1, 1)
	p121 := encodePrice(t, 121, 100)

	amount0, err := GetAmount0Delta(one, p121, expand18(1), true)
	require.NoError(t, err)
	assert.Equal(t, "90909090909090910", amount0.Dec())

	amount0Down, err := GetAmount0Delta(p121, one, expand18(1), false)
	require.NoError(t, err)
	assert.Equal(t, "90909090909090909", amount0Down.Dec())

	amount1, err := GetAmount1Delta(one, p121, expand18(1), true)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000", amount1.Dec())

	amount1Down, err := GetAmount1Delta(one, p121, expand18(1), false)
	require.NoError(t, err)
	assert.Equal(t, "99999999999999999", amount1Down.Dec())

	zero, err := GetAmount0Delta(one, p121, new(uint256.Int), true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	zero, err = GetAmount1Delta(one, one, expand18(1), true)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestGetNextSqrtPriceFromInput(t *testing.T) {
	one := encodePrice(t, 1, 1)
	tenth := new(uint256.Int).Div(expand18(1), uint256.NewInt(10))

	got, err := GetNextSqrtPriceFromInput(one, tenth, new(uint256.Int), true)
	require.NoError(t, err)
	assert.True(t, got.Eq(one), "zero input keeps the price")

	got, err = GetNextSqrtPriceFromInput(one, expand18(1), tenth, false)
	require.NoError(t, err)
	assert.Equal(t, "87150978765690771352898345369", got.Dec())

	got, err = GetNextSqrtPriceFromInput(one, expand18(1), tenth, true)
	require.NoError(t, err)
	assert.Equal(t, "72025602285694852357767227579", got.Dec())

	// amountIn above 2^96 takes the overflow-safe path
	got, err = GetNextSqrtPriceFromInput(one, expand18(10), new(uint256.Int).Lsh(uint256.NewInt(1), 100), true)
	require.NoError(t, err)
	assert.Equal(t, "624999999995069620", got.Dec())

	got, err = GetNextSqrtPriceFromInput(one, uint256.NewInt(1), new(uint256.Int).Rsh(MaxUint256, 1), true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Uint64())

	_, err = GetNextSqrtPriceFromInput(new(uint256.Int), uint256.NewInt(1), tenth, false)
	require.ErrorIs(t, err, model.ErrValidation)
	_, err = GetNextSqrtPriceFromInput(one, new(uint256.Int), tenth, true)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestGetNextSqrtPriceFromOutput(t *testing.T) {
	one := encodePrice(t, 1, 1)
	tenth := new(uint256.Int).Div(expand18(1), uint256.NewInt(10))

	got, err := GetNextSqrtPriceFromOutput(one, expand18(1), tenth, true)
	require.NoError(t, err)
	assert.Equal(t, "71305346262837903834189555302", got.Dec())

	got, err = GetNextSqrtPriceFromOutput(one, expand18(1), tenth, false)
	require.NoError(t, err)
	assert.Equal(t, "88031291682515930659493278152", got.Dec())

	// asking for every unit of token0 the liquidity holds
	price := uint256.MustFromDecimal("20282409603651670423947251286016")
	_, err = GetNextSqrtPriceFromOutput(price, uint256.NewInt(1024), uint256.NewInt(4), false)
	require.ErrorIs(t, err, model.ErrInsufficientLiquidity)

	_, err = GetNextSqrtPriceFromOutput(price, uint256.NewInt(1024), uint256.NewInt(262145), true)
	require.ErrorIs(t, err, model.ErrComputation)
}
