// Package trade composes pools into routes and prices trades along them.
package trade

import (
	"fmt"

	"poolsim/internal/model"
	"poolsim/internal/pool"
)

// Route is a path of adjacent pools from Input to Output.
type Route struct {
	pools  []*pool.Pool
	path   []model.Token
	input  model.Token
	output model.Token
}

// NewRoute validates that the pools connect input to output on one chain.
func NewRoute(pools []*pool.Pool, input, output model.Token) (*Route, error) {
	if len(pools) == 0 {
		return nil, model.Validationf("route: pool list is empty")
	}
	chainID := pools[0].ChainID()
	for i, p := range pools {
		if p.ChainID() != chainID {
			return nil, model.Validationf(fmt.Sprintf("route: pool %d is on chain %d, want %d", i, p.ChainID(), chainID))
		}
	}

	wrappedInput := input.Wrapped()
	if !pools[0].InvolvesToken(wrappedInput) {
		return nil, model.Validationf("route: first pool does not hold the input token")
	}
	if !pools[len(pools)-1].InvolvesToken(output.Wrapped()) {
		return nil, model.Validationf("route: last pool does not hold the output token")
	}

	path := make([]model.Token, 0, len(pools)+1)
	path = append(path, wrappedInput)
	for i, p := range pools {
		current := path[i]
		switch {
		case current.Equals(p.Token0()):
			path = append(path, p.Token1())
		case current.Equals(p.Token1()):
			path = append(path, p.Token0())
		default:
			return nil, model.Validationf(fmt.Sprintf("route: pool %d does not continue the path at %s", i, current))
		}
	}
	if !path[len(path)-1].Equals(output.Wrapped()) {
		return nil, model.Validationf("route: path does not end at the output token")
	}

	return &Route{
		pools:  append([]*pool.Pool(nil), pools...),
		path:   path,
		input:  input,
		output: output,
	}, nil
}

func (r *Route) Pools() []*pool.Pool {
	return append([]*pool.Pool(nil), r.pools...)
}

// Path lists the wrapped tokens visited, input first.
func (r *Route) Path() []model.Token {
	return append([]model.Token(nil), r.path...)
}

func (r *Route) Input() model.Token  { return r.input }
func (r *Route) Output() model.Token { return r.output }
func (r *Route) ChainID() uint64     { return r.pools[0].ChainID() }

// MidPrice is the product of each hop's spot price, quoted as output per input.
func (r *Route) MidPrice() (model.Price, error) {
	var price model.Price
	for i, p := range r.pools {
		hop := p.Token1Price()
		if r.path[i].Equals(p.Token0()) {
			hop = p.Token0Price()
		}
		if i == 0 {
			price = hop
			continue
		}
		var err error
		if price, err = price.Multiply(hop); err != nil {
			return model.Price{}, fmt.Errorf("route mid price: %w", err)
		}
	}
	return model.PriceFromFraction(r.input, r.output, price.Raw()), nil
}
