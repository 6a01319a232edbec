package v3math

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolsim/internal/model"
)

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(uint256.NewInt(3), uint256.NewInt(5), uint256.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Uint64())

	got, err = MulDivRoundingUp(uint256.NewInt(3), uint256.NewInt(5), uint256.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), got.Uint64())

	got, err = MulDivRoundingUp(uint256.NewInt(4), uint256.NewInt(5), uint256.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Uint64())

	// the product needs more than 256 bits
	twoTo255 := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	got, err = MulDiv(twoTo255, uint256.NewInt(4), uint256.NewInt(8))
	require.NoError(t, err)
	assert.True(t, got.Eq(new(uint256.Int).Lsh(uint256.NewInt(1), 254)))

	got, err = MulDiv(MaxUint256, MaxUint256, MaxUint256)
	require.NoError(t, err)
	assert.True(t, got.Eq(MaxUint256))

	_, err = MulDiv(MaxUint256, MaxUint256, uint256.NewInt(1))
	require.ErrorIs(t, err, model.ErrOverflow)

	_, err = MulDivRoundingUp(uint256.NewInt(1), uint256.NewInt(1), new(uint256.Int))
	require.ErrorIs(t, err, model.ErrComputation)

	// result does not fit in 256 bits
	_, err = MulDivRoundingUp(MaxUint256, MaxUint256, new(uint256.Int).SubUint64(MaxUint256, 1))
	require.ErrorIs(t, err, model.ErrOverflow)
}

func TestAddDelta(t *testing.T) {
	got, err := AddDelta(uint256.NewInt(1), big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Uint64())

	got, err = AddDelta(uint256.NewInt(1), big.NewInt(-1))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = AddDelta(uint256.NewInt(0), big.NewInt(-1))
	require.ErrorIs(t, err, ErrLiquidityUnderflow)

	_, err = AddDelta(MaxUint128, big.NewInt(1))
	require.ErrorIs(t, err, ErrLiquidityOverflow)

	// the most negative int128
	minInt128 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	x := new(uint256.Int).Lsh(uint256.NewInt(1), 127)
	got, err = AddDelta(x, minInt128)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestAddDeltaInvertible(t *testing.T) {
	xs := []*uint256.Int{
		uint256.NewInt(0),
		uint256.NewInt(1),
		uint256.MustFromDecimal("1000000000000000000"),
		new(uint256.Int).Lsh(uint256.NewInt(1), 127),
	}
	ys := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(-1),
		big.NewInt(123456789),
		new(big.Int).Lsh(big.NewInt(1), 100),
		new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 100)),
	}
	for _, x := range xs {
		for _, y := range ys {
			mid, err := AddDelta(x, y)
			if err != nil {
				continue
			}
			back, err := AddDelta(mid, new(big.Int).Neg(y))
			require.NoError(t, err)
			require.True(t, back.Eq(x), "x=%s y=%s", x.Dec(), y)
		}
	}
}
