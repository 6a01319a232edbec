package ticks

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"poolsim/internal/model"
	"poolsim/internal/v3math"
)

// TickSet is an immutable, sorted list of initialized ticks for one pool.
type TickSet struct {
	ticks   []Tick
	spacing int32
}

// NewTickSet validates ticks: each index is a multiple of tickSpacing, indices strictly
// increase, and the net liquidity sums to zero.
func NewTickSet(ticks []Tick, tickSpacing int32) (*TickSet, error) {
	if tickSpacing <= 0 {
		return nil, model.Validationf("tick spacing must be positive")
	}

	sum := new(big.Int)
	for i, tick := range ticks {
		if tick.LiquidityNet == nil || tick.LiquidityGross == nil {
			return nil, fmt.Errorf("tick %d: %w", tick.Index, model.Validationf("tick liquidity is required"))
		}
		if tick.Index%tickSpacing != 0 {
			return nil, fmt.Errorf("tick %d: %w", tick.Index, model.Validationf("tick not aligned to spacing"))
		}
		if i > 0 && ticks[i-1].Index >= tick.Index {
			return nil, fmt.Errorf("tick %d: %w", tick.Index, model.Validationf("ticks not strictly increasing"))
		}
		sum.Add(sum, tick.LiquidityNet)
	}
	if sum.Sign() != 0 {
		return nil, model.Validationf("tick net liquidity does not sum to zero")
	}

	copied := make([]Tick, len(ticks))
	copy(copied, ticks)
	return &TickSet{ticks: copied, spacing: tickSpacing}, nil
}

// TickSetFromRecords parses snapshot records into a tick set.
func TickSetFromRecords(records []model.TickRecord, tickSpacing int32) (*TickSet, error) {
	ticks := make([]Tick, 0, len(records))
	for _, record := range records {
		tick, err := ParseTick(record)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}
	return NewTickSet(ticks, tickSpacing)
}

func (s *TickSet) Len() int {
	return len(s.ticks)
}

func (s *TickSet) TickSpacing() int32 {
	return s.spacing
}

// Ticks returns a copy of the ticks in order.
func (s *TickSet) Ticks() []Tick {
	out := make([]Tick, len(s.ticks))
	copy(out, s.ticks)
	return out
}

func (s *TickSet) GetTick(_ context.Context, index int32) (Tick, error) {
	i := sort.Search(len(s.ticks), func(i int) bool { return s.ticks[i].Index >= index })
	if i == len(s.ticks) || s.ticks[i].Index != index {
		return Tick{}, fmt.Errorf("tick %d: %w", index, model.ErrTickNotFound)
	}
	return s.ticks[i], nil
}

func (s *TickSet) NextInitializedTickWithinOneWord(_ context.Context, tick int32, lte bool, tickSpacing int32) (int32, bool, error) {
	if tickSpacing != s.spacing {
		return 0, false, model.Validationf(fmt.Sprintf("tick spacing %d does not match tick set spacing %d", tickSpacing, s.spacing))
	}

	compressed := v3math.FloorDiv(tick, tickSpacing)
	// first tick strictly above tick
	above := sort.Search(len(s.ticks), func(i int) bool { return s.ticks[i].Index > tick })

	if lte {
		wordPos := compressed >> 8
		minimum := (wordPos << 8) * tickSpacing
		if above == 0 {
			return minimum, false, nil
		}
		index := s.ticks[above-1].Index
		if index < minimum {
			return minimum, false, nil
		}
		return index, true, nil
	}

	wordPos := (compressed + 1) >> 8
	maximum := (((wordPos + 1) << 8) - 1) * tickSpacing
	if above == len(s.ticks) {
		return maximum, false, nil
	}
	index := s.ticks[above].Index
	if index > maximum {
		return maximum, false, nil
	}
	return index, true, nil
}
