package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/ticks"
)

// FromSnapshot builds a pool from a stored snapshot. When provider is nil the
// snapshot's tick records back the pool, provided they are complete; otherwise
// the pool can only answer price queries.
func FromSnapshot(snap model.PoolSnapshot, provider ticks.Provider) (*Pool, error) {
	token0, err := snap.Token0.Token(snap.ChainID)
	if err != nil {
		return nil, model.Validationf(fmt.Sprintf("token0: %v", err))
	}
	token1, err := snap.Token1.Token(snap.ChainID)
	if err != nil {
		return nil, model.Validationf(fmt.Sprintf("token1: %v", err))
	}
	sqrtPrice, err := uint256.FromDecimal(snap.Slot0.SqrtPriceX96)
	if err != nil {
		return nil, model.Validationf(fmt.Sprintf("sqrt price %q: %v", snap.Slot0.SqrtPriceX96, err))
	}
	liquidity, err := uint256.FromDecimal(snap.Liquidity)
	if err != nil {
		return nil, model.Validationf(fmt.Sprintf("liquidity %q: %v", snap.Liquidity, err))
	}

	spacing := snap.TickSpacing
	if spacing == 0 {
		var ok bool
		if spacing, ok = model.TickSpacingForFee(snap.Fee); !ok {
			return nil, model.Validationf(fmt.Sprintf("fee %d has no default tick spacing", snap.Fee))
		}
	}
	if provider == nil && snap.TicksComplete {
		set, err := ticks.TickSetFromRecords(snap.Ticks, spacing)
		if err != nil {
			return nil, fmt.Errorf("snapshot ticks: %w", err)
		}
		provider = set
	}

	var address common.Address
	if snap.Address != "" {
		if !common.IsHexAddress(snap.Address) {
			return nil, model.Validationf(fmt.Sprintf("invalid pool address: %q", snap.Address))
		}
		address = common.HexToAddress(snap.Address)
	}

	return New(Params{
		TokenA:       token0,
		TokenB:       token1,
		Fee:          snap.Fee,
		TickSpacing:  spacing,
		SqrtPriceX96: sqrtPrice,
		Liquidity:    liquidity,
		TickCurrent:  snap.Slot0.Tick,
		Ticks:        provider,
		Address:      address,
	})
}
