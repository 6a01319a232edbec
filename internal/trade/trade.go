package trade

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"poolsim/internal/model"
)

// TradeType says which side of a trade is fixed.
type TradeType int

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	switch t {
	case ExactInput:
		return "exact_input"
	case ExactOutput:
		return "exact_output"
	default:
		return fmt.Sprintf("trade_type(%d)", int(t))
	}
}

// Swap is the part of a trade executed along one route.
type Swap struct {
	Route        *Route
	InputAmount  model.CurrencyAmount
	OutputAmount model.CurrencyAmount
}

// RouteAmount pairs a route with the amount routed through it.
type RouteAmount struct {
	Route  *Route
	Amount model.CurrencyAmount
}

// Trade is an immutable quote split across one or more routes.
type Trade struct {
	swaps        []Swap
	tradeType    TradeType
	inputAmount  model.CurrencyAmount
	outputAmount model.CurrencyAmount
}

// FromRoute quotes amount along route. For ExactInput amount is the input,
// for ExactOutput it is the output.
func FromRoute(ctx context.Context, route *Route, amount model.CurrencyAmount, tradeType TradeType) (*Trade, error) {
	return FromRoutes(ctx, []RouteAmount{{Route: route, Amount: amount}}, tradeType)
}

// FromRoutes quotes each route independently against the same pool states and sums the results.
func FromRoutes(ctx context.Context, routes []RouteAmount, tradeType TradeType) (*Trade, error) {
	swaps := make([]Swap, 0, len(routes))
	for i, ra := range routes {
		swap, err := quoteRoute(ctx, ra.Route, ra.Amount, tradeType)
		if err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		swaps = append(swaps, swap)
	}
	return New(swaps, tradeType)
}

func quoteRoute(ctx context.Context, route *Route, amount model.CurrencyAmount, tradeType TradeType) (Swap, error) {
	if route == nil {
		return Swap{}, model.Validationf("trade: route is required")
	}
	switch tradeType {
	case ExactInput:
		if !amount.Currency.Equals(route.input) {
			return Swap{}, model.Validationf("trade: amount is not in the route input token")
		}
		next := amount.Wrapped()
		for _, p := range route.pools {
			out, _, err := p.GetOutputAmount(ctx, next, nil)
			if err != nil {
				return Swap{}, err
			}
			next = out
		}
		return Swap{
			Route:        route,
			InputAmount:  amount,
			OutputAmount: model.NewAmount(route.output, next.Raw),
		}, nil
	case ExactOutput:
		if !amount.Currency.Equals(route.output) {
			return Swap{}, model.Validationf("trade: amount is not in the route output token")
		}
		next := amount.Wrapped()
		for i := len(route.pools) - 1; i >= 0; i-- {
			in, _, err := route.pools[i].GetInputAmount(ctx, next, nil)
			if err != nil {
				return Swap{}, err
			}
			next = in
		}
		return Swap{
			Route:        route,
			InputAmount:  model.NewAmount(route.input, next.Raw),
			OutputAmount: amount,
		}, nil
	default:
		return Swap{}, model.Validationf(fmt.Sprintf("trade: unknown trade type %d", int(tradeType)))
	}
}

// New assembles a trade from already quoted swaps. All swaps must share input
// and output tokens and no pool may appear twice.
func New(swaps []Swap, tradeType TradeType) (*Trade, error) {
	if len(swaps) == 0 {
		return nil, model.Validationf("trade: no swaps")
	}
	input := swaps[0].Route.input
	output := swaps[0].Route.output

	seen := make(map[common.Address]struct{})
	inputAmount := model.NewAmount(input, nil)
	outputAmount := model.NewAmount(output, nil)
	for _, s := range swaps {
		if !s.Route.input.Equals(input) || !s.Route.output.Equals(output) {
			return nil, model.Validationf("trade: routes disagree on input or output token")
		}
		for _, p := range s.Route.pools {
			if _, ok := seen[p.Address()]; ok {
				return nil, model.Validationf(fmt.Sprintf("trade: pool %s used twice", p.Address().Hex()))
			}
			seen[p.Address()] = struct{}{}
		}
		var err error
		if inputAmount, err = inputAmount.Add(s.InputAmount); err != nil {
			return nil, err
		}
		if outputAmount, err = outputAmount.Add(s.OutputAmount); err != nil {
			return nil, err
		}
	}

	return &Trade{
		swaps:        append([]Swap(nil), swaps...),
		tradeType:    tradeType,
		inputAmount:  inputAmount,
		outputAmount: outputAmount,
	}, nil
}

func (t *Trade) Swaps() []Swap                      { return append([]Swap(nil), t.swaps...) }
func (t *Trade) Type() TradeType                    { return t.tradeType }
func (t *Trade) InputAmount() model.CurrencyAmount  { return t.inputAmount }
func (t *Trade) OutputAmount() model.CurrencyAmount { return t.outputAmount }

// Route returns the only route of a single-route trade.
func (t *Trade) Route() (*Route, error) {
	if len(t.swaps) != 1 {
		return nil, model.Validationf("trade: more than one route")
	}
	return t.swaps[0].Route, nil
}

// PathLength sums the token path lengths of every route.
func (t *Trade) PathLength() int {
	n := 0
	for _, s := range t.swaps {
		n += len(s.Route.path)
	}
	return n
}

// Hops is the largest number of pools in any route.
func (t *Trade) Hops() int {
	n := 0
	for _, s := range t.swaps {
		n = max(n, len(s.Route.pools))
	}
	return n
}

// ExecutionPrice is output over input.
func (t *Trade) ExecutionPrice() (model.Price, error) {
	return model.NewPrice(t.inputAmount.Currency, t.outputAmount.Currency, t.inputAmount.Raw.ToBig(), t.outputAmount.Raw.ToBig())
}

// PriceImpact is the relative shortfall of the output against the routes' mid prices.
func (t *Trade) PriceImpact() (model.Percent, error) {
	var spot model.Fraction
	for _, s := range t.swaps {
		mid, err := s.Route.MidPrice()
		if err != nil {
			return model.Percent{}, err
		}
		spot = spot.Add(mid.Raw().Mul(s.InputAmount.Fraction()))
	}
	if spot.Sign() == 0 {
		return model.Percent{}, model.Validationf("trade: zero spot output")
	}
	inv, err := spot.Invert()
	if err != nil {
		return model.Percent{}, err
	}
	return model.Percent{Fraction: spot.Sub(t.outputAmount.Fraction()).Mul(inv)}, nil
}

// MinimumAmountOut is the least output accepted under tolerance. Exact output
// trades return their output unchanged.
func (t *Trade) MinimumAmountOut(tolerance model.Percent) (model.CurrencyAmount, error) {
	if tolerance.Sign() < 0 {
		return model.CurrencyAmount{}, model.Validationf("slippage tolerance must not be negative")
	}
	if t.tradeType == ExactOutput {
		return t.outputAmount, nil
	}
	factor, err := model.FractionFromInt64(1).Add(tolerance.Fraction).Invert()
	if err != nil {
		return model.CurrencyAmount{}, err
	}
	return model.AmountFromBig(t.outputAmount.Currency, factor.Mul(t.outputAmount.Fraction()).Quotient())
}

// MaximumAmountIn is the most input spent under tolerance. Exact input trades
// return their input unchanged.
func (t *Trade) MaximumAmountIn(tolerance model.Percent) (model.CurrencyAmount, error) {
	if tolerance.Sign() < 0 {
		return model.CurrencyAmount{}, model.Validationf("slippage tolerance must not be negative")
	}
	if t.tradeType == ExactInput {
		return t.inputAmount, nil
	}
	factor := model.FractionFromInt64(1).Add(tolerance.Fraction)
	return model.AmountFromBig(t.inputAmount.Currency, factor.Mul(t.inputAmount.Fraction()).Quotient())
}

// WorstExecutionPrice is the price at the slippage-adjusted amounts.
func (t *Trade) WorstExecutionPrice(tolerance model.Percent) (model.Price, error) {
	in, err := t.MaximumAmountIn(tolerance)
	if err != nil {
		return model.Price{}, err
	}
	out, err := t.MinimumAmountOut(tolerance)
	if err != nil {
		return model.Price{}, err
	}
	return model.NewPrice(in.Currency, out.Currency, in.Raw.ToBig(), out.Raw.ToBig())
}
