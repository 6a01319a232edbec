package snapshot

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolsim/internal/dex"
	"poolsim/internal/model"
	"poolsim/internal/storage"
	"poolsim/internal/ticks"
)

// Chain is the RPC surface the runner needs.
type Chain interface {
	dex.ContractCaller
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// RunConfig holds runtime settings for a snapshot run.
type RunConfig struct {
	Pools []common.Address
	// BlockNumber pins every read. Zero resolves the latest block once at start.
	BlockNumber       uint64
	WithTicks         bool
	WordBatchSize     int64
	Concurrency       int
	MaxRetries        int
	RetryBackoff      time.Duration
	CheckpointPath    string
	CheckpointEnabled bool
}

// Runner reads pool state from the chain and writes snapshots to storage.
type Runner struct {
	cfg        RunConfig
	chain      Chain
	storage    storage.Storage
	logger     *zap.Logger
	tokens     *dex.TokenCache
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chain Chain, sink storage.Storage, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.WordBatchSize <= 0 {
		cfg.WordBatchSize = 64
	}
	tokens, err := dex.NewTokenCache(256)
	if err != nil {
		return nil, err
	}
	return &Runner{
		cfg:        cfg,
		chain:      chain,
		storage:    sink,
		logger:     logger,
		tokens:     tokens,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}, nil
}

// Run snapshots every configured pool. Pools are processed in batches of
// Concurrency; each batch is stored before the checkpoint advances.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if len(r.cfg.Pools) == 0 {
		return fmt.Errorf("at least one pool address is required")
	}

	policy := r.retryPolicy()
	chainID, err := withRetry(ctx, policy, "chain_id", r.chain.GetChainID)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	block := r.cfg.BlockNumber
	if block == 0 {
		block, err = withRetry(ctx, policy, "block_number", r.chain.LatestBlockNumber)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
	}

	done, err := r.resume(block)
	if err != nil {
		return err
	}
	pending := make([]common.Address, 0, len(r.cfg.Pools))
	for _, pool := range r.cfg.Pools {
		if _, ok := done[strings.ToLower(pool.Hex())]; !ok {
			pending = append(pending, pool)
		}
	}
	if len(pending) == 0 {
		r.logger.Info("nothing to snapshot", zap.Uint64("block", block))
		return nil
	}

	ranges, err := SplitRange(0, int64(len(pending)-1), int64(r.cfg.Concurrency))
	if err != nil {
		return err
	}
	for _, batch := range ranges {
		pools := pending[batch.From : batch.To+1]
		snapshots := make([]model.PoolSnapshot, len(pools))

		group, groupCtx := errgroup.WithContext(ctx)
		for i, pool := range pools {
			i, pool := i, pool
			group.Go(func() error {
				snap, err := r.snapshotPool(groupCtx, chainID.Uint64(), pool, block)
				if err != nil {
					return fmt.Errorf("snapshot pool %s: %w", pool.Hex(), err)
				}
				snapshots[i] = snap
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}

		if err := r.storage.PutSnapshots(snapshots); err != nil {
			return fmt.Errorf("store snapshots: %w", err)
		}
		for _, pool := range pools {
			done[strings.ToLower(pool.Hex())] = struct{}{}
		}
		if err := r.checkpoint.Save(block, sortedKeys(done)); err != nil {
			return err
		}
		r.logger.Info("batch complete", zap.Int("pools", len(pools)), zap.Uint64("block", block))
	}
	return nil
}

func (r *Runner) resume(block uint64) (map[string]struct{}, error) {
	done := make(map[string]struct{})
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return done, nil
	}
	if cp.BlockNumber != block {
		r.logger.Info("checkpoint is for another block, starting over", zap.Uint64("checkpoint_block", cp.BlockNumber), zap.Uint64("block", block))
		return done, nil
	}
	for _, address := range cp.Done {
		done[strings.ToLower(address)] = struct{}{}
	}
	r.logger.Info("resume from checkpoint", zap.Int("done", len(done)), zap.Uint64("block", block))
	return done, nil
}

func (r *Runner) snapshotPool(ctx context.Context, chainID uint64, pool common.Address, block uint64) (model.PoolSnapshot, error) {
	snap, err := withRetry(ctx, r.retryPolicy(), "pool_state", func(ctx context.Context) (model.PoolSnapshot, error) {
		return dex.FetchPoolSnapshot(ctx, r.chain, chainID, pool, block, r.tokens, r.logger)
	})
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	if !r.cfg.WithTicks {
		return snap, nil
	}

	list, err := r.scanTicks(ctx, pool, snap.TickSpacing, block)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	snap.Ticks = make([]model.TickRecord, len(list))
	for i, tick := range list {
		snap.Ticks[i] = tick.Record()
	}
	snap.TicksComplete = true
	r.logger.Debug("ticks scanned", zap.String("pool", pool.Hex()), zap.Int("ticks", len(list)))
	return snap, nil
}

// scanTicks walks every bitmap word that can hold a usable tick and returns the
// initialized ticks in ascending order, validated as a tick set.
func (r *Runner) scanTicks(ctx context.Context, pool common.Address, tickSpacing int32, block uint64) ([]ticks.Tick, error) {
	first, last := dex.WordRange(tickSpacing)
	ranges, err := SplitRange(int64(first), int64(last), r.cfg.WordBatchSize)
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		out []ticks.Tick
	)
	for _, words := range ranges {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(r.cfg.Concurrency)
		for word := words.From; word <= words.To; word++ {
			wordPos := int16(word)
			group.Go(func() error {
				found, err := withRetry(groupCtx, r.retryPolicy(), "tick_bitmap", func(ctx context.Context) ([]ticks.Tick, error) {
					return dex.TicksInWord(ctx, r.chain, pool, wordPos, tickSpacing, block)
				})
				if err != nil {
					return fmt.Errorf("word %d: %w", wordPos, err)
				}
				mu.Lock()
				out = append(out, found...)
				mu.Unlock()
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	slices.SortFunc(out, func(a, b ticks.Tick) int { return cmp.Compare(a.Index, b.Index) })
	set, err := ticks.NewTickSet(out, tickSpacing)
	if err != nil {
		return nil, fmt.Errorf("validate ticks: %w", err)
	}
	return set.Ticks(), nil
}

func (r *Runner) retryPolicy() retryPolicy {
	return retryPolicy{maxRetries: r.cfg.MaxRetries, baseDelay: r.cfg.RetryBackoff, logger: r.logger}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
