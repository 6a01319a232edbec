package trade

import (
	"context"
	"slices"
	"sort"

	"go.uber.org/zap"

	"poolsim/internal/model"
	"poolsim/internal/pool"
)

// BestTradeOptions bounds the route search.
type BestTradeOptions struct {
	// MaxNumResults caps the returned trades. Defaults to 3.
	MaxNumResults int
	// MaxHops caps the pools per route. Defaults to 3.
	MaxHops int
	Logger  *zap.Logger
}

func (o BestTradeOptions) withDefaults() (BestTradeOptions, error) {
	if o.MaxNumResults == 0 {
		o.MaxNumResults = 3
	}
	if o.MaxHops == 0 {
		o.MaxHops = 3
	}
	if o.MaxNumResults < 0 || o.MaxHops < 0 {
		return o, model.Validationf("best trade: limits must be positive")
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o, nil
}

// search holds the fixed inputs of one best-trade query.
type search struct {
	opts      BestTradeOptions
	tradeType TradeType
	// fixed is the amount the caller gave, other is the token on the far side.
	fixed model.CurrencyAmount
	other model.Token
}

// BestTradeExactIn finds up to MaxNumResults trades of amountIn into currencyOut,
// each through at most MaxHops pools, best output first.
func BestTradeExactIn(ctx context.Context, pools []*pool.Pool, amountIn model.CurrencyAmount, currencyOut model.Token, opts BestTradeOptions) ([]*Trade, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, model.Validationf("best trade: pool list is empty")
	}
	s := search{opts: opts, tradeType: ExactInput, fixed: amountIn, other: currencyOut}
	return s.exactIn(ctx, pools, nil, amountIn.Wrapped(), opts.MaxHops, nil)
}

// BestTradeExactOut finds up to MaxNumResults trades from currencyIn yielding amountOut,
// each through at most MaxHops pools, cheapest input first.
func BestTradeExactOut(ctx context.Context, pools []*pool.Pool, currencyIn model.Token, amountOut model.CurrencyAmount, opts BestTradeOptions) ([]*Trade, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, model.Validationf("best trade: pool list is empty")
	}
	s := search{opts: opts, tradeType: ExactOutput, fixed: amountOut, other: currencyIn}
	return s.exactOut(ctx, pools, nil, amountOut.Wrapped(), opts.MaxHops, nil)
}

// exactIn extends the route through current with every pool holding amountIn's token.
func (s search) exactIn(ctx context.Context, pools, current []*pool.Pool, amountIn model.CurrencyAmount, maxHops int, best []*Trade) ([]*Trade, error) {
	tokenOut := s.other.Wrapped()
	for i, p := range pools {
		if !p.InvolvesToken(amountIn.Currency) {
			continue
		}
		amountOut, _, err := p.GetOutputAmount(ctx, amountIn, nil)
		if err != nil {
			if model.IsRecoverable(err) {
				s.opts.Logger.Debug("skip pool", zap.String("pool", p.Address().Hex()), zap.Int("depth", len(current)), zap.Error(err))
				continue
			}
			return nil, err
		}

		path := append(slices.Clone(current), p)
		if amountOut.Currency.Equals(tokenOut) {
			if best, err = s.insert(ctx, best, path); err != nil {
				return nil, err
			}
		} else if maxHops > 1 && len(pools) > 1 {
			rest := slices.Delete(slices.Clone(pools), i, i+1)
			if best, err = s.exactIn(ctx, rest, path, amountOut, maxHops-1, best); err != nil {
				return nil, err
			}
		}
	}
	return best, nil
}

// exactOut prepends to the route in current every pool holding amountOut's token.
func (s search) exactOut(ctx context.Context, pools, current []*pool.Pool, amountOut model.CurrencyAmount, maxHops int, best []*Trade) ([]*Trade, error) {
	tokenIn := s.other.Wrapped()
	for i, p := range pools {
		if !p.InvolvesToken(amountOut.Currency) {
			continue
		}
		amountIn, _, err := p.GetInputAmount(ctx, amountOut, nil)
		if err != nil {
			if model.IsRecoverable(err) {
				s.opts.Logger.Debug("skip pool", zap.String("pool", p.Address().Hex()), zap.Int("depth", len(current)), zap.Error(err))
				continue
			}
			return nil, err
		}

		path := append([]*pool.Pool{p}, current...)
		if amountIn.Currency.Equals(tokenIn) {
			if best, err = s.insert(ctx, best, path); err != nil {
				return nil, err
			}
		} else if maxHops > 1 && len(pools) > 1 {
			rest := slices.Delete(slices.Clone(pools), i, i+1)
			if best, err = s.exactOut(ctx, rest, path, amountIn, maxHops-1, best); err != nil {
				return nil, err
			}
		}
	}
	return best, nil
}

// insert quotes the complete route and adds it to best.
func (s search) insert(ctx context.Context, best []*Trade, path []*pool.Pool) ([]*Trade, error) {
	input, output := s.fixed.Currency, s.other
	if s.tradeType == ExactOutput {
		input, output = s.other, s.fixed.Currency
	}
	route, err := NewRoute(path, input, output)
	if err != nil {
		return nil, err
	}
	trade, err := FromRoute(ctx, route, s.fixed, s.tradeType)
	if err != nil {
		if model.IsRecoverable(err) {
			s.opts.Logger.Debug("skip route", zap.Int("hops", len(path)), zap.Error(err))
			return best, nil
		}
		return nil, err
	}
	return sortedInsert(best, trade, s.opts.MaxNumResults, compareTrades), nil
}

// compareTrades orders by output descending, then input ascending, then shorter paths.
func compareTrades(a, b *Trade) int {
	if c := a.outputAmount.Cmp(b.outputAmount); c != 0 {
		return -c
	}
	if c := a.inputAmount.Cmp(b.inputAmount); c != 0 {
		return c
	}
	return a.PathLength() - b.PathLength()
}

// sortedInsert returns items with add placed after every element that does not
// order after it, truncated to maxSize.
func sortedInsert[T any](items []T, add T, maxSize int, cmp func(a, b T) int) []T {
	if maxSize <= 0 {
		return items
	}
	if len(items) >= maxSize && cmp(items[len(items)-1], add) <= 0 {
		return items
	}
	i := sort.Search(len(items), func(i int) bool { return cmp(items[i], add) > 0 })
	out := slices.Insert(slices.Clone(items), i, add)
	if len(out) > maxSize {
		out = out[:maxSize]
	}
	return out
}
