package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Snapshot configures `quoter snapshot`.
type Snapshot struct {
	RPCURL            string   `validate:"required,url"`
	Pools             []string `validate:"min=1,dive,eth_addr"`
	Block             uint64
	WithTicks         bool
	WordBatchSize     int64  `validate:"gt=0"`
	Concurrency       int    `validate:"min=1,max=64"`
	Out               string `validate:"required"`
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int           `validate:"gte=0"`
	RetryBackoff      time.Duration `validate:"gte=0"`
	Timeout           time.Duration `validate:"gte=0"`
	LogLevel          string        `validate:"oneof=debug info warn error"`
}

// LoadSnapshot loads and validates the snapshot command configuration.
func LoadSnapshot(cfgFile string, flags *pflag.FlagSet) (Snapshot, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"word-batch-size":    64,
		"concurrency":        4,
		"out":                "./data/pools.jsonl",
		"checkpoint":         "./data/snapshot_checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return Snapshot{}, err
	}

	cfg := Snapshot{
		RPCURL:            v.GetString("rpc"),
		Pools:             getStringSlice(v, "pool"),
		Block:             v.GetUint64("block"),
		WithTicks:         v.GetBool("with-ticks"),
		WordBatchSize:     v.GetInt64("word-batch-size"),
		Concurrency:       v.GetInt("concurrency"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		Timeout:           v.GetDuration("timeout"),
		LogLevel:          v.GetString("log-level"),
	}
	if err := check(cfg); err != nil {
		return Snapshot{}, err
	}
	return cfg, nil
}
