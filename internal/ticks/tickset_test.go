package ticks

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/v3math"
)

func mustTick(t *testing.T, index int32, gross uint64, net int64) Tick {
	t.Helper()
	tick, err := NewTick(index, uint256.NewInt(gross), big.NewInt(net))
	if err != nil {
		t.Fatalf("new tick %d: %v", index, err)
	}
	return tick
}

func boundaryTicks(t *testing.T) []Tick {
	return []Tick{
		mustTick(t, v3math.MinTick+1, 10, 10),
		mustTick(t, v3math.MinTick+2, 5, -5),
		mustTick(t, v3math.MaxTick-1, 5, -5),
	}
}

func TestNewTickSetValidation(t *testing.T) {
	if _, err := NewTickSet(boundaryTicks(t), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name    string
		ticks   []Tick
		spacing int32
	}{
		{"net does not sum to zero", []Tick{mustTick(t, -60, 10, 10), mustTick(t, 60, 5, -5)}, 60},
		{"spacing violated", []Tick{mustTick(t, -60, 10, 10), mustTick(t, 61, 10, -10)}, 60},
		{"unsorted", []Tick{mustTick(t, 60, 10, -10), mustTick(t, -60, 10, 10)}, 60},
		{"duplicate", []Tick{mustTick(t, 60, 10, 10), mustTick(t, 60, 10, -10)}, 60},
		{"zero spacing", nil, 0},
	}
	for _, tc := range cases {
		_, err := NewTickSet(tc.ticks, tc.spacing)
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestNewTickBounds(t *testing.T) {
	if _, err := NewTick(v3math.MaxTick+1, uint256.NewInt(1), big.NewInt(1)); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	tooLarge := new(big.Int).Lsh(big.NewInt(1), 127)
	if _, err := NewTick(0, uint256.NewInt(1), tooLarge); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected int128 validation error, got %v", err)
	}
}

func TestTickSetGetTick(t *testing.T) {
	set, err := NewTickSet(boundaryTicks(t), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tick, err := set.GetTick(context.Background(), v3math.MinTick+2)
	if err != nil {
		t.Fatalf("get tick: %v", err)
	}
	if tick.LiquidityNet.Int64() != -5 || tick.LiquidityGross.Uint64() != 5 {
		t.Fatalf("tick mismatch: %+v", tick)
	}

	if _, err := set.GetTick(context.Background(), 0); !errors.Is(err, model.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestNextInitializedTickWithinOneWordAroundZero(t *testing.T) {
	set, err := NewTickSet(boundaryTicks(t), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		tick    int32
		lte     bool
		want    int32
		wantIni bool
	}{
		{-257, true, -512, false},
		{-256, true, -256, false},
		{-1, true, -256, false},
		{0, true, 0, false},
		{1, true, 0, false},
		{255, true, 0, false},
		{256, true, 256, false},
		{257, true, 256, false},
		{-258, false, -257, false},
		{-257, false, -1, false},
		{-256, false, -1, false},
		{-2, false, -1, false},
		{-1, false, 255, false},
		{0, false, 255, false},
		{1, false, 255, false},
		{254, false, 255, false},
		{255, false, 511, false},
		{256, false, 511, false},
		{v3math.MinTick + 1, true, v3math.MinTick + 1, true},
		{v3math.MinTick + 2, true, v3math.MinTick + 2, true},
		{v3math.MinTick + 1, false, v3math.MinTick + 2, true},
		{v3math.MaxTick - 2, false, v3math.MaxTick - 1, true},
	}
	for _, tc := range cases {
		got, initialized, err := set.NextInitializedTickWithinOneWord(ctx, tc.tick, tc.lte, 1)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		if got != tc.want || initialized != tc.wantIni {
			t.Fatalf("tick %d lte=%v mismatch: got (%d, %v) want (%d, %v)", tc.tick, tc.lte, got, initialized, tc.want, tc.wantIni)
		}
	}
}

func TestNextInitializedTickWithinOneWordSpacing(t *testing.T) {
	set, err := NewTickSet([]Tick{mustTick(t, -120, 5, 5), mustTick(t, 120, 5, -5)}, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		tick    int32
		lte     bool
		want    int32
		wantIni bool
	}{
		{0, true, 0, false},
		{-1, true, -120, true},
		{-120, true, -120, true},
		{-121, true, -15360, false},
		{0, false, 120, true},
		{120, false, 15300, false},
	}
	for _, tc := range cases {
		got, initialized, err := set.NextInitializedTickWithinOneWord(ctx, tc.tick, tc.lte, 60)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tc.tick, err)
		}
		if got != tc.want || initialized != tc.wantIni {
			t.Fatalf("tick %d lte=%v mismatch: got (%d, %v) want (%d, %v)", tc.tick, tc.lte, got, initialized, tc.want, tc.wantIni)
		}
	}

	if _, _, err := set.NextInitializedTickWithinOneWord(ctx, 0, true, 10); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected spacing mismatch error, got %v", err)
	}
}

func TestEmptyTickSet(t *testing.T) {
	set, err := NewTickSet(nil, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, initialized, err := set.NextInitializedTickWithinOneWord(context.Background(), 5, true, 10)
	if err != nil || got != 0 || initialized {
		t.Fatalf("unexpected result: %d %v %v", got, initialized, err)
	}
}

func TestNoTickData(t *testing.T) {
	var provider Provider = NoTickData{}
	if _, err := provider.GetTick(context.Background(), 0); !errors.Is(err, model.ErrLookup) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if _, _, err := provider.NextInitializedTickWithinOneWord(context.Background(), 0, true, 1); !errors.Is(err, model.ErrNoTickData) {
		t.Fatalf("expected no tick data error, got %v", err)
	}
}

func TestTickSetFromRecords(t *testing.T) {
	records := []model.TickRecord{
		{Index: -60, LiquidityGross: "100", LiquidityNet: "100"},
		{Index: 60, LiquidityGross: "100", LiquidityNet: "-100"},
	}
	set, err := TickSetFromRecords(records, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 2 || set.Ticks()[1].Record() != records[1] {
		t.Fatalf("records mismatch: %+v", set.Ticks())
	}

	records[0].LiquidityNet = "abc"
	if _, err := TickSetFromRecords(records, 60); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
