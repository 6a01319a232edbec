package pool

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolsim/internal/model"
	"poolsim/internal/ticks"
	"poolsim/internal/v3math"
)

var (
	token0 = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000001"), 18, "T0", "token0")
	token1 = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000002"), 18, "T1", "token1")
	token2 = model.NewToken(1, common.HexToAddress("0x0000000000000000000000000000000000000003"), 18, "T2", "token2")
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func mustTick(t *testing.T, index int32, gross, net *big.Int) ticks.Tick {
	t.Helper()
	g, overflow := uint256.FromBig(gross)
	require.False(t, overflow)
	tick, err := ticks.NewTick(index, g, net)
	require.NoError(t, err)
	return tick
}

// fullRangePool has liquidity 1e18 across the whole usable range at price 1.
func fullRangePool(t *testing.T) *Pool {
	t.Helper()
	set, err := ticks.NewTickSet([]ticks.Tick{
		mustTick(t, -887220, e18(1), e18(1)),
		mustTick(t, 887220, e18(1), new(big.Int).Neg(e18(1))),
	}, 60)
	require.NoError(t, err)
	p, err := New(Params{
		TokenA:       token0,
		TokenB:       token1,
		Fee:          model.FeeMedium,
		SqrtPriceX96: v3math.Q96,
		Liquidity:    uint256.MustFromBig(e18(1)),
		TickCurrent:  0,
		Ticks:        set,
	})
	require.NoError(t, err)
	return p
}

// steppedPool has 2e18 liquidity in [-60, 60) and 1e18 in [-120, -60) and [60, 120).
func steppedPool(t *testing.T) *Pool {
	t.Helper()
	set, err := ticks.NewTickSet([]ticks.Tick{
		mustTick(t, -120, e18(2), e18(1)),
		mustTick(t, -60, e18(1), e18(1)),
		mustTick(t, 60, e18(1), new(big.Int).Neg(e18(1))),
		mustTick(t, 120, e18(2), new(big.Int).Neg(e18(1))),
	}, 60)
	require.NoError(t, err)
	p, err := New(Params{
		TokenA:       token1,
		TokenB:       token0,
		Fee:          model.FeeMedium,
		SqrtPriceX96: v3math.Q96,
		Liquidity:    uint256.MustFromBig(e18(2)),
		Ticks:        set,
	})
	require.NoError(t, err)
	return p
}

func amount(token model.Token, raw string) model.CurrencyAmount {
	return model.NewAmount(token, uint256.MustFromDecimal(raw))
}

func TestNewValidation(t *testing.T) {
	base := Params{
		TokenA:       token0,
		TokenB:       token1,
		Fee:          model.FeeMedium,
		SqrtPriceX96: v3math.Q96,
	}

	p, err := New(base)
	require.NoError(t, err)
	assert.Equal(t, token0, p.Token0())
	assert.Equal(t, token1, p.Token1())
	assert.Equal(t, int32(60), p.TickSpacing())
	assert.Equal(t, uint64(1), p.ChainID())

	cases := map[string]func(p *Params){
		"fee too large":     func(p *Params) { p.Fee = model.FeeDenominator },
		"unknown fee tier":  func(p *Params) { p.Fee = 1234 },
		"same token":        func(p *Params) { p.TokenB = token0 },
		"missing price":     func(p *Params) { p.SqrtPriceX96 = nil },
		"price below min":   func(p *Params) { p.SqrtPriceX96 = uint256.NewInt(1) },
		"price at max":      func(p *Params) { p.SqrtPriceX96 = v3math.MaxSqrtRatio.Clone() },
		"tick mismatch":     func(p *Params) { p.TickCurrent = 1 },
		"liquidity > 2^128": func(p *Params) { p.Liquidity = new(uint256.Int).Lsh(uint256.NewInt(1), 128) },
		"spacing mismatch": func(p *Params) {
			set, err := ticks.NewTickSet(nil, 10)
			require.NoError(t, err)
			p.Ticks = set
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			params := base
			mutate(&params)
			_, err := New(params)
			require.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestNewAcceptsPriceOnUpperTickBoundary(t *testing.T) {
	sqrt, err := v3math.GetSqrtRatioAtTick(-60)
	require.NoError(t, err)
	_, err = New(Params{TokenA: token0, TokenB: token1, Fee: model.FeeMedium, SqrtPriceX96: sqrt, TickCurrent: -61})
	require.NoError(t, err)
}

func TestPrices(t *testing.T) {
	p := fullRangePool(t)
	assert.Equal(t, "1", p.Token0Price().ToSignificant(5))
	assert.Equal(t, "1", p.Token1Price().ToSignificant(5))

	price, err := p.PriceOf(token1)
	require.NoError(t, err)
	assert.Equal(t, token1, price.Base)
	assert.Equal(t, token0, price.Quote)

	_, err = p.PriceOf(token2)
	require.ErrorIs(t, err, model.ErrValidation)
	assert.False(t, p.InvolvesToken(token2))
}

func TestGetOutputAmountFullRange(t *testing.T) {
	ctx := context.Background()
	p := fullRangePool(t)
	in := amount(token0, "1000000")

	out, next, err := p.GetOutputAmount(ctx, in, nil)
	require.NoError(t, err)
	assert.Equal(t, token1, out.Currency)
	assert.Equal(t, "996999", out.Raw.Dec())
	// the fee-free quote at price 1 is the input itself
	assert.Equal(t, -1, out.Raw.Cmp(in.Raw))
	assert.Equal(t, int32(-1), next.TickCurrent())
	assert.Equal(t, "79228162514185347115517307545", next.SqrtPriceX96().Dec())
	assert.Equal(t, "1000000000000000000", next.Liquidity().Dec())

	// the source pool is untouched
	assert.Equal(t, int32(0), p.TickCurrent())
	assert.True(t, p.SqrtPriceX96().Eq(v3math.Q96))

	back, _, err := next.GetOutputAmount(ctx, out, nil)
	require.NoError(t, err)
	assert.Equal(t, "994008", back.Raw.Dec())
	assert.LessOrEqual(t, back.Raw.Cmp(in.Raw), 0)
}

func TestSwapBackNeverExceedsInput(t *testing.T) {
	ctx := context.Background()
	tiers := []struct {
		fee     uint32
		spacing int32
	}{
		{fee: 0, spacing: 60},
		{fee: model.FeeLowest, spacing: 1},
		{fee: model.FeeLow, spacing: 10},
		{fee: model.FeeMedium, spacing: 60},
		{fee: model.FeeHigh, spacing: 200},
	}
	amounts := []string{"1", "997", "1000000", "123456789012345", "50000000000000000"}

	for _, tier := range tiers {
		upper := v3math.MaxTick / tier.spacing * tier.spacing
		set, err := ticks.NewTickSet([]ticks.Tick{
			mustTick(t, -upper, e18(1), e18(1)),
			mustTick(t, upper, e18(1), new(big.Int).Neg(e18(1))),
		}, tier.spacing)
		require.NoError(t, err)
		p, err := New(Params{
			TokenA:       token0,
			TokenB:       token1,
			Fee:          tier.fee,
			TickSpacing:  tier.spacing,
			SqrtPriceX96: v3math.Q96,
			Liquidity:    uint256.MustFromBig(e18(1)),
			Ticks:        set,
		})
		require.NoError(t, err)

		for _, raw := range amounts {
			for _, token := range []model.Token{token0, token1} {
				in := amount(token, raw)
				out, next, err := p.GetOutputAmount(ctx, in, nil)
				if errors.Is(err, model.ErrInsufficientInputAmount) {
					continue
				}
				require.NoError(t, err, "fee %d amount %s", tier.fee, raw)

				back, _, err := next.GetOutputAmount(ctx, out, nil)
				if errors.Is(err, model.ErrInsufficientInputAmount) {
					continue
				}
				require.NoError(t, err, "fee %d amount %s back", tier.fee, raw)
				assert.LessOrEqual(t, back.Raw.Cmp(in.Raw), 0, "fee %d amount %s: %s back from %s", tier.fee, raw, back.Raw.Dec(), in.Raw.Dec())
				if tier.fee > 0 && in.Raw.Uint64() >= 1_000_000 {
					assert.Equal(t, -1, back.Raw.Cmp(in.Raw), "fee %d amount %s must lose to fees", tier.fee, raw)
				}
			}
		}
	}
}

func TestGetOutputAmountOneForZero(t *testing.T) {
	out, next, err := fullRangePool(t).GetOutputAmount(context.Background(), amount(token1, "1000000"), nil)
	require.NoError(t, err)
	assert.Equal(t, token0, out.Currency)
	assert.Equal(t, "996999", out.Raw.Dec())
	assert.Equal(t, int32(0), next.TickCurrent())
	assert.Equal(t, "79228162514343328071570671880", next.SqrtPriceX96().Dec())
}

func TestGetInputAmountFullRange(t *testing.T) {
	in, next, err := fullRangePool(t).GetInputAmount(context.Background(), amount(token1, "1000000"), nil)
	require.NoError(t, err)
	assert.Equal(t, token0, in.Currency)
	assert.Equal(t, "1003011", in.Raw.Dec())
	assert.Equal(t, int32(-1), next.TickCurrent())
	assert.Equal(t, "79228162514185109431029685998", next.SqrtPriceX96().Dec())
}

func TestSwapCrossesTicks(t *testing.T) {
	ctx := context.Background()
	p := steppedPool(t)

	tests := []struct {
		name      string
		run       func() (model.CurrencyAmount, *Pool, error)
		amount    string
		sqrtPrice string
		liquidity string
		tick      int32
	}{
		{
			name: "exact in within range",
			run: func() (model.CurrencyAmount, *Pool, error) {
				return p.GetOutputAmount(ctx, amount(token0, "5000000000000000"), nil)
			},
			amount:    "4972605780093117",
			sqrtPrice: "79031177304832043724560483332",
			liquidity: "2000000000000000000",
			tick:      -50,
		},
		{
			name: "exact in crossing down",
			run: func() (model.CurrencyAmount, *Pool, error) {
				return p.GetOutputAmount(ctx, amount(token0, "8000000000000000"), nil)
			},
			amount:    "7942405907404450",
			sqrtPrice: "78836216757513051047391466347",
			liquidity: "1000000000000000000",
			tick:      -100,
		},
		{
			name: "exact in crossing up",
			run: func() (model.CurrencyAmount, *Pool, error) {
				return p.GetOutputAmount(ctx, amount(token1, "8000000000000000"), nil)
			},
			amount:    "7942405907404450",
			sqrtPrice: "79622056886544802214254796556",
			liquidity: "1000000000000000000",
			tick:      99,
		},
		{
			name: "exact out crossing down",
			run: func() (model.CurrencyAmount, *Pool, error) {
				return p.GetInputAmount(ctx, amount(token1, "7000000000000000"), nil)
			},
			amount:    "7046239488672754",
			sqrtPrice: "78910881845899293602972443189",
			liquidity: "1000000000000000000",
			tick:      -81,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next, err := tt.run()
			require.NoError(t, err)
			assert.Equal(t, tt.amount, got.Raw.Dec())
			assert.Equal(t, tt.sqrtPrice, next.SqrtPriceX96().Dec())
			assert.Equal(t, tt.liquidity, next.Liquidity().Dec())
			assert.Equal(t, tt.tick, next.TickCurrent())
		})
	}
}

func TestSwapStopsAtPriceLimit(t *testing.T) {
	ctx := context.Background()
	p := steppedPool(t)

	limit, err := v3math.GetSqrtRatioAtTick(-90)
	require.NoError(t, err)
	res, err := p.Swap(ctx, true, uint256.MustFromDecimal("1000000000000000000"), true, limit)
	require.NoError(t, err)
	assert.Equal(t, "7485021151471833", res.AmountCalculated.Dec())
	assert.Equal(t, "992463121095633245", res.AmountRemaining.Dec())
	assert.True(t, res.SqrtPriceX96.Eq(limit))
	assert.Equal(t, int32(-90), res.TickCurrent)

	// a limit on an initialized tick crosses it
	limit, err = v3math.GetSqrtRatioAtTick(-60)
	require.NoError(t, err)
	out, next, err := p.GetOutputAmount(ctx, amount(token0, "1000000000000000000"), limit)
	require.NoError(t, err)
	assert.Equal(t, "5990709911821561", out.Raw.Dec())
	assert.Equal(t, int32(-61), next.TickCurrent())
	assert.Equal(t, "1000000000000000000", next.Liquidity().Dec())
}

func TestSwapInsufficientLiquidity(t *testing.T) {
	_, _, err := steppedPool(t).GetOutputAmount(context.Background(), amount(token0, "100000000000000000"), nil)
	require.ErrorIs(t, err, model.ErrInsufficientLiquidity)
	assert.True(t, model.IsRecoverable(err))
}

func TestSwapPriceLimitErrors(t *testing.T) {
	ctx := context.Background()
	p := fullRangePool(t)
	one := uint256.NewInt(1000)

	above := new(uint256.Int).AddUint64(v3math.Q96, 1)
	below := new(uint256.Int).SubUint64(v3math.Q96, 1)

	tests := []struct {
		name       string
		zeroForOne bool
		limit      *uint256.Int
		want       error
	}{
		{"down at min", true, v3math.MinSqrtRatio, model.ErrPriceLimitOutOfRange},
		{"down above current", true, above, model.ErrPriceLimitPastCurrent},
		{"down at current", true, v3math.Q96, model.ErrPriceLimitPastCurrent},
		{"up at max", false, v3math.MaxSqrtRatio, model.ErrPriceLimitOutOfRange},
		{"up below current", false, below, model.ErrPriceLimitPastCurrent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Swap(ctx, tt.zeroForOne, one, true, tt.limit)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, model.ErrBounds)
		})
	}
}

func TestSwapWithoutTickData(t *testing.T) {
	p, err := New(Params{TokenA: token0, TokenB: token1, Fee: model.FeeLow, SqrtPriceX96: v3math.Q96, Liquidity: uint256.NewInt(1 << 40)})
	require.NoError(t, err)
	assert.Equal(t, "1", p.Token0Price().ToSignificant(3))

	_, _, err = p.GetOutputAmount(context.Background(), amount(token0, "1000"), nil)
	require.ErrorIs(t, err, model.ErrNoTickData)
	assert.False(t, model.IsRecoverable(err))
}

func TestSwapRejectsForeignToken(t *testing.T) {
	_, _, err := fullRangePool(t).GetOutputAmount(context.Background(), amount(token2, "1000"), nil)
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestSwapHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := fullRangePool(t).GetOutputAmount(ctx, amount(token0, "1000"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err mismatch: %v", err)
	}
}
