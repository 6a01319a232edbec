package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolsim/internal/config"
	"poolsim/internal/model"
	"poolsim/internal/pool"
	"poolsim/internal/position"
	"poolsim/internal/storage"
)

func newPositionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Compute token amounts of a liquidity position in a stored pool",
		RunE:  runPosition,
	}

	cmd.Flags().String("in", "./data/pools.jsonl", "input pool snapshots JSONL")
	cmd.Flags().String("pool", "", "pool address")
	cmd.Flags().Int32("tick-lower", 0, "lower tick of the range")
	cmd.Flags().Int32("tick-upper", 0, "upper tick of the range")
	cmd.Flags().String("liquidity", "", "position liquidity")
	cmd.Flags().String("amount0", "", "raw token0 amount to size the position from")
	cmd.Flags().String("amount1", "", "raw token1 amount to size the position from")
	cmd.Flags().Uint32("slippage", 50, "slippage tolerance in bips")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

type positionReport struct {
	Pool                string `json:"pool"`
	TickLower           int32  `json:"tick_lower"`
	TickUpper           int32  `json:"tick_upper"`
	Liquidity           string `json:"liquidity"`
	PriceLower          string `json:"token0_price_lower"`
	PriceUpper          string `json:"token0_price_upper"`
	Amount0             string `json:"amount0"`
	Amount1             string `json:"amount1"`
	MintAmount0         string `json:"mint_amount0"`
	MintAmount1         string `json:"mint_amount1"`
	MintSlippageAmount0 string `json:"mint_slippage_amount0"`
	MintSlippageAmount1 string `json:"mint_slippage_amount1"`
	BurnSlippageAmount0 string `json:"burn_slippage_amount0"`
	BurnSlippageAmount1 string `json:"burn_slippage_amount1"`
}

func runPosition(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPosition(cfgFile, cmd.Flags())
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
	var found *model.PoolSnapshot
	for i := range snapshots {
		if strings.EqualFold(snapshots[i].Address, cfg.Pool) {
			found = &snapshots[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("pool %s not found in %s", cfg.Pool, cfg.In)
	}

	p, err := pool.FromSnapshot(*found, nil)
	if err != nil {
		return fmt.Errorf("build pool: %w", err)
	}

	pos, err := buildPosition(p, cfg)
	if err != nil {
		return err
	}
	report, err := newPositionReport(pos, model.PercentFromBips(int64(cfg.Slippage)))
	if err != nil {
		return err
	}

	logger.Info("position computed",
		zap.String("pool", p.Address().Hex()),
		zap.Int32("tick_lower", cfg.TickLower),
		zap.Int32("tick_upper", cfg.TickUpper),
		zap.String("liquidity", report.Liquidity),
	)

	if err := json.NewEncoder(cmd.OutOrStdout()).Encode(report); err != nil {
		return fmt.Errorf("write position: %w", err)
	}
	return nil
}

// buildPosition sizes the position from explicit liquidity, or else from whichever amounts are given.
func buildPosition(p *pool.Pool, cfg config.Position) (*position.Position, error) {
	parse := func(name, raw string) (*uint256.Int, error) {
		value, err := uint256.FromDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, model.Validationf("invalid amount "+raw))
		}
		return value, nil
	}

	switch {
	case cfg.Liquidity != "":
		liquidity, err := parse("liquidity", cfg.Liquidity)
		if err != nil {
			return nil, err
		}
		return position.New(p, cfg.TickLower, cfg.TickUpper, liquidity)
	case cfg.Amount0 != "" && cfg.Amount1 != "":
		amount0, err := parse("amount0", cfg.Amount0)
		if err != nil {
			return nil, err
		}
		amount1, err := parse("amount1", cfg.Amount1)
		if err != nil {
			return nil, err
		}
		return position.FromAmounts(p, cfg.TickLower, cfg.TickUpper, amount0, amount1, true)
	case cfg.Amount0 != "":
		amount0, err := parse("amount0", cfg.Amount0)
		if err != nil {
			return nil, err
		}
		return position.FromAmount0(p, cfg.TickLower, cfg.TickUpper, amount0, true)
	default:
		amount1, err := parse("amount1", cfg.Amount1)
		if err != nil {
			return nil, err
		}
		return position.FromAmount1(p, cfg.TickLower, cfg.TickUpper, amount1)
	}
}

func newPositionReport(pos *position.Position, tolerance model.Percent) (positionReport, error) {
	report := positionReport{
		Pool:      pos.Pool().Address().Hex(),
		TickLower: pos.TickLower(),
		TickUpper: pos.TickUpper(),
		Liquidity: pos.Liquidity().Dec(),
	}

	lower, err := pos.Token0PriceLower()
	if err != nil {
		return positionReport{}, err
	}
	upper, err := pos.Token0PriceUpper()
	if err != nil {
		return positionReport{}, err
	}
	report.PriceLower = lower.ToSignificant(6)
	report.PriceUpper = upper.ToSignificant(6)

	amount0, err := pos.Amount0()
	if err != nil {
		return positionReport{}, err
	}
	amount1, err := pos.Amount1()
	if err != nil {
		return positionReport{}, err
	}
	report.Amount0 = amount0.Raw.Dec()
	report.Amount1 = amount1.Raw.Dec()

	mint0, mint1, err := pos.MintAmounts()
	if err != nil {
		return positionReport{}, err
	}
	report.MintAmount0, report.MintAmount1 = mint0.Dec(), mint1.Dec()

	mint0, mint1, err = pos.MintAmountsWithSlippage(tolerance)
	if err != nil {
		return positionReport{}, fmt.Errorf("mint with slippage: %w", err)
	}
	report.MintSlippageAmount0, report.MintSlippageAmount1 = mint0.Dec(), mint1.Dec()

	burn0, burn1, err := pos.BurnAmountsWithSlippage(tolerance)
	if err != nil {
		return positionReport{}, fmt.Errorf("burn with slippage: %w", err)
	}
	report.BurnSlippageAmount0, report.BurnSlippageAmount1 = burn0.Dec(), burn1.Dec()
	return report, nil
}
