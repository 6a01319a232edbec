package trade

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"poolsim/internal/model"
	"poolsim/internal/pool"
	"poolsim/internal/ticks"
	"poolsim/internal/v3math"
)

var (
	tokenA = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000001"), 18, "A", "token A")
	tokenB = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000002"), 18, "B", "token B")
	tokenC = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000003"), 18, "C", "token C")
	tokenD = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000004"), 18, "D", "token D")
	tokenE = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000005"), 18, "E", "token E")
)

// rangePool prices a and b at 1 with liquidity in [-bound, bound].
func rangePool(t *testing.T, a, b model.Token, liquidity int64, bound int32) *pool.Pool {
	t.Helper()
	l := new(big.Int).Mul(big.NewInt(liquidity), big.NewInt(1_000_000_000))
	gross := uint256.MustFromBig(l)
	lower, err := ticks.NewTick(-bound, gross, l)
	require.NoError(t, err)
	upper, err := ticks.NewTick(bound, gross, new(big.Int).Neg(l))
	require.NoError(t, err)
	set, err := ticks.NewTickSet([]ticks.Tick{lower, upper}, 60)
	require.NoError(t, err)

	p, err := pool.New(pool.Params{
		TokenA:       a,
		TokenB:       b,
		Fee:          model.FeeMedium,
		SqrtPriceX96: v3math.Q96,
		Liquidity:    gross,
		Ticks:        set,
	})
	require.NoError(t, err)
	return p
}

type testPools struct {
	ab, bc, ac, cd *pool.Pool
}

// newTestPools builds deep A/B and B/C pools and a shallow, narrow A/C pool.
func newTestPools(t *testing.T) testPools {
	return testPools{
		ab: rangePool(t, tokenA, tokenB, 1_000_000_000, 887220),
		bc: rangePool(t, tokenB, tokenC, 1_000_000_000, 887220),
		ac: rangePool(t, tokenA, tokenC, 1_000_000, 600),
		cd: rangePool(t, tokenC, tokenD, 1_000_000_000, 887220),
	}
}

func amountOf(token model.Token, raw uint64) model.CurrencyAmount {
	return model.NewAmount(token, uint256.NewInt(raw))
}
