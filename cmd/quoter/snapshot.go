package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolsim/internal/chain"
	"poolsim/internal/config"
	"poolsim/internal/snapshot"
	"poolsim/internal/storage"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read pool state over RPC and write JSONL snapshots",
		RunE:  runSnapshot,
	}

	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().StringSlice("pool", nil, "pool addresses (comma-separated)")
	cmd.Flags().Uint64("block", 0, "block to read at, 0 means latest")
	cmd.Flags().Bool("with-ticks", false, "scan tickBitmap and store every initialized tick")
	cmd.Flags().Int64("word-batch-size", 64, "bitmap words per scan batch")
	cmd.Flags().Int("concurrency", 4, "pools fetched in parallel")
	cmd.Flags().String("out", "./data/pools.jsonl", "output JSONL path")
	cmd.Flags().String("checkpoint", "./data/snapshot_checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Duration("timeout", 0, "overall timeout, 0 disables")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pools, err := snapshot.ParseAddresses(cfg.Pools)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	runner, err := snapshot.NewRunner(snapshot.RunConfig{
		Pools:             pools,
		BlockNumber:       cfg.Block,
		WithTicks:         cfg.WithTicks,
		WordBatchSize:     cfg.WordBatchSize,
		Concurrency:       cfg.Concurrency,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
	}, chainClient, storage.NewJsonlStorage(cfg.Out), logger)
	if err != nil {
		return err
	}

	logger.Info("snapshot start",
		zap.Int("pools", len(pools)),
		zap.Uint64("block", cfg.Block),
		zap.Bool("with_ticks", cfg.WithTicks),
		zap.Int("concurrency", cfg.Concurrency),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}
