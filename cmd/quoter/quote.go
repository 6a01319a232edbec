package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolsim/internal/chain"
	"poolsim/internal/config"
	"poolsim/internal/dex"
	"poolsim/internal/model"
	"poolsim/internal/pool"
	"poolsim/internal/storage"
	"poolsim/internal/ticks"
	"poolsim/internal/trade"
)

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Rank the best trades between two tokens over stored pool snapshots",
		RunE:  runQuote,
	}

	cmd.Flags().String("in", "./data/pools.jsonl", "input pool snapshots JSONL")
	cmd.Flags().String("token-in", "", "input token address")
	cmd.Flags().String("token-out", "", "output token address")
	cmd.Flags().String("amount", "", "raw amount of the fixed side (input for exact-in, output for exact-out)")
	cmd.Flags().String("type", "exact-in", "trade type (exact-in, exact-out)")
	cmd.Flags().Int("max-hops", 3, "maximum pools per route")
	cmd.Flags().Int("max-results", 3, "maximum trades returned")
	cmd.Flags().Uint32("slippage", 50, "slippage tolerance in bips")
	cmd.Flags().String("rpc", "", "RPC URL for tick data of snapshots stored without ticks")
	cmd.Flags().Duration("timeout", 0, "overall timeout, 0 disables")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

type routeReport struct {
	Path   []string `json:"path"`
	Pools  []string `json:"pools"`
	Input  string   `json:"input_amount"`
	Output string   `json:"output_amount"`
}

type tradeReport struct {
	Rank              int           `json:"rank"`
	Type              string        `json:"type"`
	Routes            []routeReport `json:"routes"`
	InputAmount       string        `json:"input_amount"`
	OutputAmount      string        `json:"output_amount"`
	ExecutionPrice    string        `json:"execution_price"`
	PriceImpactPct    string        `json:"price_impact_pct"`
	MinimumAmountOut  string        `json:"minimum_amount_out"`
	MaximumAmountIn   string        `json:"maximum_amount_in"`
	WorstExecutionPx  string        `json:"worst_execution_price"`
	SlippageTolerance string        `json:"slippage_pct"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	snapshots, err := storage.ReadSnapshots(cfg.In)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cfg.Timeout)
	defer cancel()

	var caller dex.ContractCaller
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		caller = chainClient
	}

	pools := buildPools(snapshots, caller, logger)
	if len(pools) == 0 {
		return fmt.Errorf("no usable pools in %s (pools without ticks need --rpc or a --with-ticks snapshot)", cfg.In)
	}

	tokenIn, ok := findToken(pools, common.HexToAddress(cfg.TokenIn))
	if !ok {
		return fmt.Errorf("token %s is not in any pool", cfg.TokenIn)
	}
	tokenOut, ok := findToken(pools, common.HexToAddress(cfg.TokenOut))
	if !ok {
		return fmt.Errorf("token %s is not in any pool", cfg.TokenOut)
	}

	opts := trade.BestTradeOptions{MaxNumResults: cfg.MaxResults, MaxHops: cfg.MaxHops, Logger: logger}
	var trades []*trade.Trade
	if cfg.TradeType == "exact-out" {
		amountOut, err := model.ParseAmount(tokenOut, cfg.Amount)
		if err != nil {
			return err
		}
		trades, err = trade.BestTradeExactOut(ctx, pools, tokenIn, amountOut, opts)
		if err != nil {
			return fmt.Errorf("best trade exact out: %w", err)
		}
	} else {
		amountIn, err := model.ParseAmount(tokenIn, cfg.Amount)
		if err != nil {
			return err
		}
		trades, err = trade.BestTradeExactIn(ctx, pools, amountIn, tokenOut, opts)
		if err != nil {
			return fmt.Errorf("best trade exact in: %w", err)
		}
	}

	logger.Info("quote complete",
		zap.Int("pools", len(pools)),
		zap.String("type", cfg.TradeType),
		zap.Int("trades", len(trades)),
	)

	tolerance := model.PercentFromBips(int64(cfg.Slippage))
	enc := json.NewEncoder(cmd.OutOrStdout())
	for i, t := range trades {
		report, err := newTradeReport(i+1, t, tolerance)
		if err != nil {
			return err
		}
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("write trade: %w", err)
		}
	}
	return nil
}

// buildPools turns snapshots into pools. Snapshots without complete tick data
// read ticks over RPC when caller is set and are skipped otherwise, as are
// unusable snapshots.
func buildPools(snapshots []model.PoolSnapshot, caller dex.ContractCaller, logger *zap.Logger) []*pool.Pool {
	pools := make([]*pool.Pool, 0, len(snapshots))
	for _, snap := range snapshots {
		var provider ticks.Provider
		if !snap.TicksComplete && caller == nil {
			logger.Warn("skip pool without tick data, snapshot with --with-ticks or quote with --rpc", zap.String("pool", snap.Address))
			continue
		}
		if !snap.TicksComplete {
			spacing := snap.TickSpacing
			if spacing == 0 {
				spacing, _ = model.TickSpacingForFee(snap.Fee)
			}
			remote, err := dex.NewRemoteTickProvider(caller, common.HexToAddress(snap.Address), spacing, dex.RemoteOptions{BlockNumber: snap.BlockNumber})
			if err != nil {
				logger.Warn("skip pool", zap.String("pool", snap.Address), zap.Error(err))
				continue
			}
			provider = remote
		}

		p, err := pool.FromSnapshot(snap, provider)
		if err != nil {
			logger.Warn("skip pool", zap.String("pool", snap.Address), zap.Error(err))
			continue
		}
		pools = append(pools, p)
	}
	return pools
}

func findToken(pools []*pool.Pool, address common.Address) (model.Token, bool) {
	for _, p := range pools {
		for _, token := range []model.Token{p.Token0(), p.Token1()} {
			if token.Address == address {
				return token, true
			}
		}
	}
	return model.Token{}, false
}

func newTradeReport(rank int, t *trade.Trade, tolerance model.Percent) (tradeReport, error) {
	report := tradeReport{
		Rank:              rank,
		Type:              t.Type().String(),
		InputAmount:       t.InputAmount().Raw.Dec(),
		OutputAmount:      t.OutputAmount().Raw.Dec(),
		SlippageTolerance: tolerance.ToSignificant(4),
	}
	for _, swap := range t.Swaps() {
		route := routeReport{Input: swap.InputAmount.Raw.Dec(), Output: swap.OutputAmount.Raw.Dec()}
		for _, token := range swap.Route.Path() {
			route.Path = append(route.Path, tokenLabel(token))
		}
		for _, p := range swap.Route.Pools() {
			route.Pools = append(route.Pools, p.Address().Hex())
		}
		report.Routes = append(report.Routes, route)
	}

	price, err := t.ExecutionPrice()
	if err != nil {
		return tradeReport{}, fmt.Errorf("execution price: %w", err)
	}
	report.ExecutionPrice = price.ToSignificant(6)

	impact, err := t.PriceImpact()
	if err != nil {
		return tradeReport{}, fmt.Errorf("price impact: %w", err)
	}
	report.PriceImpactPct = impact.ToSignificant(4)

	minOut, err := t.MinimumAmountOut(tolerance)
	if err != nil {
		return tradeReport{}, err
	}
	report.MinimumAmountOut = minOut.Raw.Dec()

	maxIn, err := t.MaximumAmountIn(tolerance)
	if err != nil {
		return tradeReport{}, err
	}
	report.MaximumAmountIn = maxIn.Raw.Dec()

	worst, err := t.WorstExecutionPrice(tolerance)
	if err != nil {
		return tradeReport{}, err
	}
	report.WorstExecutionPx = worst.ToSignificant(6)
	return report, nil
}

func tokenLabel(token model.Token) string {
	if token.Symbol != "" {
		return token.Symbol
	}
	return strings.ToLower(token.Address.Hex())
}
