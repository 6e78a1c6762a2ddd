package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aegisos/riskengine/internal/config"
	"github.com/aegisos/riskengine/internal/di"
	"github.com/aegisos/riskengine/internal/modules/optimization"
	"github.com/aegisos/riskengine/internal/modules/risk"
	"github.com/aegisos/riskengine/pkg/logger"
	"github.com/google/subcommands"
)

var commands = []subcommands.Command{
	&varCmd{},
	&optimizeCmd{},
	&cleanupCmd{},
}

// wire loads configuration from the environment and builds the services.
// Logs go to stderr so stdout stays pure JSON.
func wire() (*di.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Out: os.Stderr})
	container, _, err := di.Wire(cfg, log)
	return container, err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type varCmd struct {
	symbols    string
	confidence float64
	horizon    int
}

func (*varCmd) Name() string     { return "var" }
func (*varCmd) Synopsis() string { return "compute per-asset and portfolio VaR and volatility" }
func (*varCmd) Usage() string {
	return `riskctl var [-symbols BTCUSDT,ETHUSDT] [-confidence 0.95] [-horizon 1]

  Fetches daily closes and prints VaR (percent) and annualized volatility.
`
}

func (c *varCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", strings.Join(risk.DefaultSymbols, ","), "Comma-separated symbols or USDT pairs")
	f.Float64Var(&c.confidence, "confidence", risk.DefaultConfidence, "Confidence level in (0, 1)")
	f.IntVar(&c.horizon, "horizon", risk.DefaultHorizonDays, "Horizon in days")
}

func (c *varCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	confidence := c.confidence
	req := risk.Request{
		Symbols:     splitSymbols(c.symbols),
		Confidence:  &confidence,
		HorizonDays: c.horizon,
	}
	if _, err := req.Normalize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	container, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	resp, err := container.RiskService.Calculate(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := printJSON(os.Stdout, resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type optimizeCmd struct {
	holdings string
	risk     float64
	horizon  int
}

func (*optimizeCmd) Name() string     { return "optimize" }
func (*optimizeCmd) Synopsis() string { return "compute target weights and a drift action for holdings" }
func (*optimizeCmd) Usage() string {
	return `riskctl optimize -holdings BTC=6000,ETH=4000 [-risk 0.5] [-horizon 90]

  Holdings are SYMBOL=VALUE_USD pairs. Prints target weights, drift and action.
`
}

func (c *optimizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.holdings, "holdings", "", "Comma-separated SYMBOL=VALUE_USD pairs")
	f.Float64Var(&c.risk, "risk", optimization.DefaultRiskTolerance, "Risk tolerance in [0, 1]")
	f.IntVar(&c.horizon, "horizon", optimization.DefaultHorizonDays, "Lookback in days")
}

func (c *optimizeCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	holdings, err := parseHoldings(c.holdings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	rt := c.risk
	req := optimization.Request{
		Holdings:      holdings,
		RiskTolerance: &rt,
		HorizonDays:   c.horizon,
	}
	if _, err := req.Normalize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	container, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	resp, err := container.OptimizationService.Optimize(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := printJSON(os.Stdout, resp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type cleanupCmd struct{}

func (*cleanupCmd) Name() string     { return "cleanup" }
func (*cleanupCmd) Synopsis() string { return "run the maintenance jobs once, outside their schedules" }
func (*cleanupCmd) Usage() string {
	return `riskctl cleanup

  Runs every registered maintenance job (expired kline cache entries) now.
`
}

func (*cleanupCmd) SetFlags(f *flag.FlagSet) {}

func (*cleanupCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	container, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer container.Close()

	ran := []string{}
	for _, name := range container.Scheduler.Names() {
		if err := container.Scheduler.RunNow(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		ran = append(ran, name)
	}

	if err := printJSON(os.Stdout, map[string][]string{"ran": ran}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

// parseHoldings parses "BTC=6000,ETH=4000" into holdings valued in USD.
func parseHoldings(s string) ([]optimization.Holding, error) {
	var holdings []optimization.Holding
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		symbol, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("holding %q: expected SYMBOL=VALUE_USD", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("holding %q: %w", part, err)
		}
		holdings = append(holdings, optimization.Holding{
			Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
			ValueUSD: v,
		})
	}
	return holdings, nil
}
