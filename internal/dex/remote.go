package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"

	"poolsim/internal/model"
	"poolsim/internal/ticks"
	"poolsim/internal/v3math"
)

// RemoteOptions configures a RemoteTickProvider.
type RemoteOptions struct {
	// BlockNumber pins reads to a block. Zero reads latest state.
	BlockNumber   uint64
	WordCacheSize int
	TickCacheSize int
}

// RemoteTickProvider serves tick data for one pool straight from its tickBitmap
// and ticks getters. Results are cached, errors are not retried.
type RemoteTickProvider struct {
	caller      ContractCaller
	pool        common.Address
	tickSpacing int32
	blockNumber uint64
	words       *lru.Cache[int16, *uint256.Int]
	tickCache   *lru.Cache[int32, ticks.Tick]
}

var _ ticks.Provider = (*RemoteTickProvider)(nil)

func NewRemoteTickProvider(caller ContractCaller, pool common.Address, tickSpacing int32, opts RemoteOptions) (*RemoteTickProvider, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller is nil")
	}
	if tickSpacing <= 0 {
		return nil, model.Validationf("tick spacing must be positive")
	}
	if opts.WordCacheSize <= 0 {
		opts.WordCacheSize = 128
	}
	if opts.TickCacheSize <= 0 {
		opts.TickCacheSize = 1024
	}
	words, err := lru.New[int16, *uint256.Int](opts.WordCacheSize)
	if err != nil {
		return nil, fmt.Errorf("word cache: %w", err)
	}
	tickCache, err := lru.New[int32, ticks.Tick](opts.TickCacheSize)
	if err != nil {
		return nil, fmt.Errorf("tick cache: %w", err)
	}
	return &RemoteTickProvider{
		caller:      caller,
		pool:        pool,
		tickSpacing: tickSpacing,
		blockNumber: opts.BlockNumber,
		words:       words,
		tickCache:   tickCache,
	}, nil
}

func (p *RemoteTickProvider) GetTick(ctx context.Context, index int32) (ticks.Tick, error) {
	if tick, ok := p.tickCache.Get(index); ok {
		return tick, nil
	}
	tick, initialized, err := FetchTick(ctx, p.caller, p.pool, index, p.blockNumber)
	if err != nil {
		return ticks.Tick{}, err
	}
	if !initialized {
		return ticks.Tick{}, fmt.Errorf("tick %d: %w", index, model.ErrTickNotFound)
	}
	p.tickCache.Add(index, tick)
	return tick, nil
}

func (p *RemoteTickProvider) NextInitializedTickWithinOneWord(ctx context.Context, tick int32, lte bool, tickSpacing int32) (int32, bool, error) {
	if tickSpacing != p.tickSpacing {
		return 0, false, model.Validationf(fmt.Sprintf("tick spacing %d does not match pool spacing %d", tickSpacing, p.tickSpacing))
	}
	compressed := v3math.FloorDiv(tick, tickSpacing)
	lookup := compressed
	if !lte {
		lookup++
	}
	wordPos, _ := wordPosition(lookup)
	word, err := p.word(ctx, wordPos)
	if err != nil {
		return 0, false, err
	}
	next, initialized := nextInitializedInWord(word, compressed, lte, tickSpacing)
	return next, initialized, nil
}

func (p *RemoteTickProvider) word(ctx context.Context, wordPos int16) (*uint256.Int, error) {
	if word, ok := p.words.Get(wordPos); ok {
		return word, nil
	}
	word, err := FetchBitmapWord(ctx, p.caller, p.pool, wordPos, p.blockNumber)
	if err != nil {
		return nil, err
	}
	p.words.Add(wordPos, word)
	return word, nil
}
