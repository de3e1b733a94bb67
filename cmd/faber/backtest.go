package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trendlab/faber/internal/backtest"
	"github.com/trendlab/faber/internal/collector"
	"github.com/trendlab/faber/internal/collector/yahoo"
	"github.com/trendlab/faber/internal/storage/archive"
)

var (
	backtestStartYear int
	backtestWindow    int
	backtestJSON      bool
	backtestArchive   bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [symbol]",
	Short: "Run a trend-following backtest for a symbol",
	Long: `Fetch monthly closing prices for a symbol, apply the moving-average
timing rule from the given start year and print comparative statistics
against buy-and-hold.`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

func init() {
	backtestCmd.Flags().IntVar(&backtestStartYear, "start-year", 0, "First year of the evaluation window (required)")
	backtestCmd.Flags().IntVar(&backtestWindow, "window", 0, "SMA window in months (default from config)")
	backtestCmd.Flags().BoolVar(&backtestJSON, "json", false, "Print the full result as JSON")
	backtestCmd.Flags().BoolVar(&backtestArchive, "archive", false, "Archive the result per the config")

	backtestCmd.MarkFlagRequired("start-year")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	window := backtestWindow
	if window == 0 {
		window = cfg.Backtest.DefaultSMAWindow
	}
	if window < cfg.Backtest.MinSMAWindow || window > cfg.Backtest.MaxSMAWindow {
		return fmt.Errorf("window %d outside allowed range [%d, %d]",
			window, cfg.Backtest.MinSMAWindow, cfg.Backtest.MaxSMAWindow)
	}

	provider := yahoo.New(collector.Config{
		BaseURL: cfg.Collector.BaseURL,
		Timeout: cfg.Collector.TimeoutSeconds,
	})
	backtester := backtest.New(provider)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := backtester.Run(ctx, symbol, backtestStartYear, window)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	if backtestArchive {
		store, err := newArchiveStore(cfg)
		if err != nil {
			return fmt.Errorf("creating archive store: %w", err)
		}
		if store == nil {
			return fmt.Errorf("archiving requested but disabled in config")
		}
		key := archive.ResultKey(symbol, "cli", result.GeneratedAt)
		if err := archive.SaveJSON(ctx, store, key, result); err != nil {
			return fmt.Errorf("archiving result: %w", err)
		}
		fmt.Fprintf(os.Stderr, "archived result to %s\n", key)
	}

	if backtestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(r *backtest.Result) {
	rows := r.Table.Rows
	fmt.Println("=== Faber Backtest ===")
	fmt.Printf("Symbol:     %s\n", r.Symbol)
	fmt.Printf("Start year: %d\n", r.StartYear)
	fmt.Printf("SMA window: %d months\n", r.SMAWindow)
	if len(rows) > 0 {
		fmt.Printf("Period:     %s to %s (%d months)\n",
			rows[0].Time.Format("2006-01"),
			rows[len(rows)-1].Time.Format("2006-01"),
			len(rows))
	}
	fmt.Println()

	fmt.Printf("%-12s %12s %12s %14s %10s\n",
		"", "Ann.Return", "Ann.Vol", "Max.Drawdown", "Ret/Vol")
	printStatsRow(r.Summary.BuyHold)
	printStatsRow(r.Summary.Strategy)
}

func printStatsRow(s backtest.StatsRow) {
	fmt.Printf("%-12s %12s %12s %14s %10s\n",
		s.Label,
		fmtPct(s.AnnReturn),
		fmtPct(s.AnnVol),
		fmtPct(s.MaxDrawdown),
		fmtRatio(s.RetVol))
}

func fmtPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func fmtRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
