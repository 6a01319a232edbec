// Package pool simulates swaps against an immutable V3 pool snapshot.
package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/ticks"
	"poolsim/internal/v3math"
)

// Params describes a pool snapshot. Tokens may be given in either order.
type Params struct {
	TokenA       model.Token
	TokenB       model.Token
	Fee          uint32
	TickSpacing  int32 // zero selects the spacing of the fee tier
	SqrtPriceX96 *uint256.Int
	Liquidity    *uint256.Int
	TickCurrent  int32
	Ticks        ticks.Provider // nil means the pool is only used for prices
	Address      common.Address // zero computes the address from Factory
	Factory      common.Address // zero selects DefaultFactory
}

// Pool is an immutable pool state. Swaps return a new Pool.
type Pool struct {
	token0       model.Token
	token1       model.Token
	fee          uint32
	tickSpacing  int32
	sqrtRatioX96 *uint256.Int
	liquidity    *uint256.Int
	tickCurrent  int32
	ticks        ticks.Provider
	address      common.Address
}

// New validates params and builds a pool.
func New(p Params) (*Pool, error) {
	if p.Fee >= model.FeeDenominator {
		return nil, model.Validationf(fmt.Sprintf("fee %d must be below %d", p.Fee, model.FeeDenominator))
	}
	token0, token1, err := model.SortTokens(p.TokenA, p.TokenB)
	if err != nil {
		return nil, err
	}

	spacing := p.TickSpacing
	if spacing == 0 {
		tierSpacing, ok := model.TickSpacingForFee(p.Fee)
		if !ok {
			return nil, model.Validationf(fmt.Sprintf("fee %d has no default tick spacing", p.Fee))
		}
		spacing = tierSpacing
	}
	if spacing < 0 {
		return nil, model.Validationf("tick spacing must be positive")
	}

	if p.SqrtPriceX96 == nil {
		return nil, model.Validationf("sqrt price is required")
	}
	if p.SqrtPriceX96.Lt(v3math.MinSqrtRatio) || !p.SqrtPriceX96.Lt(v3math.MaxSqrtRatio) {
		return nil, v3math.ErrSqrtRatioOutOfRange
	}
	lower, err := v3math.GetSqrtRatioAtTick(p.TickCurrent)
	if err != nil {
		return nil, fmt.Errorf("current tick: %w", err)
	}
	upper, err := v3math.GetSqrtRatioAtTick(p.TickCurrent + 1)
	if err != nil {
		return nil, fmt.Errorf("current tick: %w", err)
	}
	// the upper bound is inclusive: a swap that stops on a tick while moving down
	// leaves the price at the lower tick's upper edge
	if p.SqrtPriceX96.Lt(lower) || p.SqrtPriceX96.Gt(upper) {
		return nil, model.Validationf("sqrt price does not match current tick")
	}

	liquidity := p.Liquidity
	if liquidity == nil {
		liquidity = new(uint256.Int)
	}
	if liquidity.Gt(v3math.MaxUint128) {
		return nil, model.Validationf("liquidity exceeds 128 bits")
	}

	provider := p.Ticks
	if provider == nil {
		provider = ticks.NoTickData{}
	}
	if set, ok := provider.(*ticks.TickSet); ok && set.TickSpacing() != spacing {
		return nil, model.Validationf("tick set spacing does not match pool")
	}

	address := p.Address
	if address == (common.Address{}) {
		factory := p.Factory
		if factory == (common.Address{}) {
			factory = DefaultFactory
		}
		address, err = ComputeAddress(factory, token0, token1, p.Fee, PoolInitCodeHash)
		if err != nil {
			return nil, err
		}
	}

	return &Pool{
		token0:       token0,
		token1:       token1,
		fee:          p.Fee,
		tickSpacing:  spacing,
		sqrtRatioX96: p.SqrtPriceX96.Clone(),
		liquidity:    liquidity.Clone(),
		tickCurrent:  p.TickCurrent,
		ticks:        provider,
		address:      address,
	}, nil
}

func (p *Pool) Token0() model.Token { return p.token0 }
func (p *Pool) Token1() model.Token { return p.token1 }
func (p *Pool) Fee() uint32         { return p.fee }
func (p *Pool) TickSpacing() int32  { return p.tickSpacing }
func (p *Pool) TickCurrent() int32  { return p.tickCurrent }
func (p *Pool) ChainID() uint64     { return p.token0.ChainID }

// Address is the pool identity used to detect a pool appearing twice in a trade.
func (p *Pool) Address() common.Address { return p.address }

func (p *Pool) SqrtPriceX96() *uint256.Int { return p.sqrtRatioX96.Clone() }
func (p *Pool) Liquidity() *uint256.Int    { return p.liquidity.Clone() }

// TickProvider returns the source of tick data.
func (p *Pool) TickProvider() ticks.Provider { return p.ticks }

// InvolvesToken reports whether token is one of the pool's tokens.
func (p *Pool) InvolvesToken(token model.Token) bool {
	return token.Equals(p.token0) || token.Equals(p.token1)
}

// Token0Price is the price of token0 in token1.
func (p *Pool) Token0Price() model.Price {
	sqrt := p.sqrtRatioX96.ToBig()
	ratioX192 := new(big.Int).Mul(sqrt, sqrt)
	price, _ := model.NewPrice(p.token0, p.token1, v3math.Q192.ToBig(), ratioX192)
	return price
}

// Token1Price is the price of token1 in token0.
func (p *Pool) Token1Price() model.Price {
	sqrt := p.sqrtRatioX96.ToBig()
	ratioX192 := new(big.Int).Mul(sqrt, sqrt)
	price, _ := model.NewPrice(p.token1, p.token0, ratioX192, v3math.Q192.ToBig())
	return price
}

// PriceOf returns the price of token in the other pool token.
func (p *Pool) PriceOf(token model.Token) (model.Price, error) {
	switch {
	case token.Equals(p.token0):
		return p.Token0Price(), nil
	case token.Equals(p.token1):
		return p.Token1Price(), nil
	default:
		return model.Price{}, model.Validationf("token is not in pool")
	}
}

func (p *Pool) String() string {
	return fmt.Sprintf("%s/%s %d (%s)", p.token0, p.token1, p.fee, p.address.Hex())
}

// withState copies the pool with a new price, liquidity and tick.
func (p *Pool) withState(sqrtRatioX96, liquidity *uint256.Int, tick int32) *Pool {
	next := *p
	next.sqrtRatioX96 = sqrtRatioX96
	next.liquidity = liquidity
	next.tickCurrent = tick
	return &next
}
