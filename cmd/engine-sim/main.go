// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/luxfi/burnengine/internal/sim"
	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/client"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/units"
)

var (
	mode     = flag.String("mode", "replay", "Mode: replay (in-process, simulated clock) or load (against a running daemon)")
	logLevel = flag.String("log-level", "warn", "Log level")

	// Replay flags
	rounds   = flag.Int("rounds", 10, "Rounds to simulate")
	bidders  = flag.Int("bidders", 8, "Number of bidders")
	deposit  = flag.String("deposit", "10", "Currency deposited per round, in whole units")
	momentum = flag.String("momentum", auction.MomentumStep, "Momentum policy: step or clearing")
	rollover = flag.Bool("rollover", true, "Carry unsold supply into the next round")
	seed     = flag.Uint64("seed", 1, "Random seed")
	asJSON   = flag.Bool("json", false, "Print the replay report as JSON")

	// Load flags
	targetURL = flag.String("target", "http://localhost:8000", "Daemon endpoint")
	duration  = flag.Duration("duration", 30*time.Second, "Load duration")
	workers   = flag.Int("workers", 16, "Number of concurrent traders")
	rps       = flag.Int("rps", 200, "Settle requests per second across all workers")
	tradeSize = flag.String("trade-size", "100", "Tokens offered per settle, in whole units")
)

func main() {
	flag.Parse()
	logger := log.NewWithLevel(*logLevel)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch *mode {
	case "replay":
		err = runReplay(ctx, logger)
	case "load":
		err = runLoad(ctx)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runReplay(ctx context.Context, logger log.Logger) error {
	cfg := sim.DefaultConfig()
	cfg.Rounds = *rounds
	cfg.Bidders = *bidders
	cfg.Seed = *seed
	cfg.Engine.Rollover = *rollover

	amount, err := units.Parse(*deposit)
	if err != nil {
		return fmt.Errorf("deposit: %w", err)
	}
	cfg.Deposit = amount

	if cfg.Engine.Momentum, err = auction.ParseMomentum(*momentum); err != nil {
		return err
	}

	report, err := sim.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("=== Burn Auction Replay (seed %d, %s momentum) ===\n", cfg.Seed, cfg.Engine.Momentum.Name())
	fmt.Printf("%-6s %14s %14s %10s %10s %14s %7s %8s\n",
		"Round", "Opening", "Clearing", "Available", "Sold", "Burned", "Trades", "SoldOut")
	for _, r := range report.Rounds {
		fmt.Printf("%-6d %14s %14s %10s %10s %14s %7d %8t\n",
			r.Number, r.OpeningPrice.Format(), r.ClearingPrice.Format(), r.Available.Format(),
			r.Sold.Format(), r.TokensBurned.Format(), r.Trades, r.SoldOut)
	}

	totals := report.Final.Totals
	fmt.Println("\n=== Totals ===")
	fmt.Printf("Deposited:  %s\n", totals.Deposited.Format())
	fmt.Printf("Paid out:   %s\n", totals.PaidOut.Format())
	fmt.Printf("Burned:     %s\n", totals.Burned.Format())
	fmt.Printf("Stranded:   %s\n", totals.Stranded.Format())
	fmt.Printf("Unsold:     %s\n", report.Final.Current.RemainingAvailable.Format())
	if len(report.Rejections) > 0 {
		fmt.Println("\n=== Rejections ===")
		printCounts(report.Rejections)
	}
	return nil
}

// stats are shared by load workers
type stats struct {
	total     atomic.Int64
	settled   atomic.Int64
	rolled    atomic.Int64
	failed    atomic.Int64
	latencyUs atomic.Int64
	maxUs     atomic.Int64

	mu    sync.Mutex
	codes map[string]uint64
}

func (s *stats) observe(latency time.Duration) {
	us := latency.Microseconds()
	s.total.Add(1)
	s.latencyUs.Add(us)
	for {
		cur := s.maxUs.Load()
		if us <= cur || s.maxUs.CompareAndSwap(cur, us) {
			return
		}
	}
}

func (s *stats) reject(err error) {
	s.failed.Add(1)
	code := "transport"
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	s.mu.Lock()
	s.codes[code]++
	s.mu.Unlock()
}

func runLoad(ctx context.Context) error {
	size, err := units.Parse(*tradeSize)
	if err != nil {
		return fmt.Errorf("trade-size: %w", err)
	}
	if *rps < 1 || *workers < 1 {
		return errors.New("workers and rps must be positive")
	}

	c := client.New(*targetURL)
	if _, err := c.Health(ctx); err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}

	fmt.Printf("=== Burn Engine Load Test ===\n")
	fmt.Printf("Target:     %s\n", *targetURL)
	fmt.Printf("Duration:   %v\n", *duration)
	fmt.Printf("Workers:    %d\n", *workers)
	fmt.Printf("Target RPS: %d\n\n", *rps)

	traders := make([]ids.Address, *workers)
	for i := range traders {
		traders[i] = ids.GenerateAddress()
		if err := c.Faucet(ctx, traders[i], units.Whole(1_000_000_000)); err != nil {
			return fmt.Errorf("fund trader (is the faucet enabled?): %w", err)
		}
		if err := c.Approve(ctx, traders[i], units.Max()); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	st := &stats{codes: make(map[string]uint64)}
	limiter := time.NewTicker(time.Second / time.Duration(*rps))
	defer limiter.Stop()

	var wg sync.WaitGroup
	for _, trader := range traders {
		wg.Add(1)
		go func(trader ids.Address) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-limiter.C:
				}

				start := time.Now()
				res, err := c.Settle(ctx, trader, size)
				st.observe(time.Since(start))
				switch {
				case err != nil:
					if ctx.Err() != nil {
						return
					}
					st.reject(err)
				case res.Receipt != nil:
					st.settled.Add(1)
				default:
					st.rolled.Add(1)
				}
			}
		}(trader)
	}
	wg.Wait()

	printLoadStats(st)
	if state, err := c.State(context.Background()); err == nil {
		fmt.Printf("\nEngine round %d, sequence %d, burned %s\n",
			state.Current.Number, state.Sequence, state.Totals.Burned.Format())
	}
	return nil
}

func printLoadStats(st *stats) {
	total := st.total.Load()
	fmt.Println("\n=== Load Statistics ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Settled:         %d\n", st.settled.Load())
	fmt.Printf("Rolled Over:     %d\n", st.rolled.Load())
	fmt.Printf("Rejected:        %d\n", st.failed.Load())
	if total > 0 {
		fmt.Printf("Avg Latency:     %.2f ms\n", float64(st.latencyUs.Load())/float64(total)/1000)
		fmt.Printf("Max Latency:     %.2f ms\n", float64(st.maxUs.Load())/1000)
	}
	if len(st.codes) > 0 {
		fmt.Println("\n=== Rejection Codes ===")
		printCounts(st.codes)
	}
}

func printCounts(counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-28s %d\n", k, counts[k])
	}
}
