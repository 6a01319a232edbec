package ticks

import (
	"context"

	"poolsim/internal/model"
)

// Provider answers the two tick queries a swap needs. Implementations may block on I/O;
// errors are returned to the caller unchanged and never retried by the pool.
type Provider interface {
	// GetTick returns an initialized tick or an error wrapping model.ErrLookup.
	GetTick(ctx context.Context, index int32) (Tick, error)
	// NextInitializedTickWithinOneWord returns the next initialized tick at or below tick (lte)
	// or above tick, clamped to the 256-tick word that holds the compressed start tick. The
	// boolean reports whether the returned index is initialized.
	NextInitializedTickWithinOneWord(ctx context.Context, tick int32, lte bool, tickSpacing int32) (int32, bool, error)
}

// NoTickData fails every query. It backs pools that are only used for prices.
type NoTickData struct{}

func (NoTickData) GetTick(context.Context, int32) (Tick, error) {
	return Tick{}, model.ErrNoTickData
}

func (NoTickData) NextInitializedTickWithinOneWord(context.Context, int32, bool, int32) (int32, bool, error) {
	return 0, false, model.ErrNoTickData
}
