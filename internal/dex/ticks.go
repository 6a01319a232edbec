package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"poolsim/internal/ticks"
)

// FetchBitmapWord reads one tickBitmap word of a pool.
func FetchBitmapWord(ctx context.Context, caller ContractCaller, pool common.Address, wordPos int16, blockNumber uint64) (*uint256.Int, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := callMethod(ctx, caller, pool, poolABI, blockArg(blockNumber), "tickBitmap", wordPos)
	if err != nil {
		return nil, err
	}
	raw, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("tick bitmap word %d: %w", wordPos, err)
	}
	word, overflow := uint256.FromBig(raw)
	if overflow {
		return nil, fmt.Errorf("tick bitmap word %d overflows", wordPos)
	}
	return word, nil
}

// FetchTick reads the liquidity of one tick. The bool reports whether the tick is initialized.
func FetchTick(ctx context.Context, caller ContractCaller, pool common.Address, index int32, blockNumber uint64) (ticks.Tick, bool, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return ticks.Tick{}, false, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := callMethod(ctx, caller, pool, poolABI, blockArg(blockNumber), "ticks", big.NewInt(int64(index)))
	if err != nil {
		return ticks.Tick{}, false, err
	}
	if len(values) < 8 {
		return ticks.Tick{}, false, fmt.Errorf("ticks(%d): short result", index)
	}
	initialized, ok := values[7].(bool)
	if !ok {
		return ticks.Tick{}, false, fmt.Errorf("ticks(%d): unsupported initialized type %T", index, values[7])
	}
	if !initialized {
		return ticks.Tick{}, false, nil
	}

	gross, err := asBigInt(values[0])
	if err != nil {
		return ticks.Tick{}, false, fmt.Errorf("ticks(%d) liquidity gross: %w", index, err)
	}
	net, err := asBigInt(values[1])
	if err != nil {
		return ticks.Tick{}, false, fmt.Errorf("ticks(%d) liquidity net: %w", index, err)
	}
	grossValue, overflow := uint256.FromBig(gross)
	if overflow {
		return ticks.Tick{}, false, fmt.Errorf("ticks(%d) liquidity gross overflows", index)
	}
	tick, err := ticks.NewTick(index, grossValue, net)
	if err != nil {
		return ticks.Tick{}, false, fmt.Errorf("ticks(%d): %w", index, err)
	}
	return tick, true, nil
}

// TicksInWord reads a bitmap word and every initialized tick it flags.
func TicksInWord(ctx context.Context, caller ContractCaller, pool common.Address, wordPos int16, tickSpacing int32, blockNumber uint64) ([]ticks.Tick, error) {
	word, err := FetchBitmapWord(ctx, caller, pool, wordPos, blockNumber)
	if err != nil {
		return nil, err
	}
	indexes := ticksInWord(word, wordPos, tickSpacing)
	out := make([]ticks.Tick, 0, len(indexes))
	for _, index := range indexes {
		tick, initialized, err := FetchTick(ctx, caller, pool, index, blockNumber)
		if err != nil {
			return nil, err
		}
		if !initialized {
			return nil, fmt.Errorf("tick %d flagged in bitmap but not initialized", index)
		}
		out = append(out, tick)
	}
	return out, nil
}
