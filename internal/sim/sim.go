// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sim replays auction rounds against an in-process engine on a
// simulated clock. Bidders wait for the decaying price to fall to their
// valuation and then buy.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/decay"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/metric"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/token"
	"github.com/luxfi/burnengine/pkg/units"
)

var ErrInvalidConfig = errors.New("invalid simulation config")

// Config describes one simulation
type Config struct {
	Engine settlement.Config

	Rounds  int
	Bidders int

	// Deposit is paid into the engine once per round.
	Deposit units.Amount

	// Valuations are drawn uniformly from [MinValuation, MaxValuation]
	// whole tokens per unit of currency.
	MinValuation uint64
	MaxValuation uint64

	// TradeSize bounds the whole tokens a bidder offers per trade.
	TradeSize uint64

	Seed  uint64
	Start time.Time
}

// DefaultConfig simulates ten rounds with eight bidders
func DefaultConfig() Config {
	return Config{
		Engine:       settlement.DefaultConfig(),
		Rounds:       10,
		Bidders:      8,
		Deposit:      units.Whole(10),
		MinValuation: 100,
		MaxValuation: 1000,
		TradeSize:    500,
		Seed:         1,
		Start:        time.Unix(1_700_000_000, 0).UTC(),
	}
}

func (c Config) validate() error {
	switch {
	case c.Rounds < 1:
		return fmt.Errorf("%w: rounds must be positive", ErrInvalidConfig)
	case c.Bidders < 1:
		return fmt.Errorf("%w: bidders must be positive", ErrInvalidConfig)
	case c.Deposit.IsZero():
		return fmt.Errorf("%w: deposit must be positive", ErrInvalidConfig)
	case c.MinValuation == 0 || c.MaxValuation < c.MinValuation:
		return fmt.Errorf("%w: valuation range [%d, %d]", ErrInvalidConfig, c.MinValuation, c.MaxValuation)
	case c.TradeSize == 0:
		return fmt.Errorf("%w: trade size must be positive", ErrInvalidConfig)
	}
	return c.Engine.Validate()
}

// Bidder buys whenever the price is at or below its valuation
type Bidder struct {
	Address   ids.Address
	Valuation units.Amount
	TradeSize units.Amount
}

// RoundReport summarizes one auction round
type RoundReport struct {
	Number        uint64       `json:"number"`
	OpeningPrice  units.Amount `json:"opening_price"`
	ClearingPrice units.Amount `json:"clearing_price"`
	Available     units.Amount `json:"available"`
	Sold          units.Amount `json:"sold"`
	TokensBurned  units.Amount `json:"tokens_burned"`
	Trades        uint64       `json:"trades"`
	SoldOut       bool         `json:"sold_out"`
}

// Report is the outcome of a simulation
type Report struct {
	Rounds     []RoundReport     `json:"rounds"`
	Final      settlement.State  `json:"final"`
	Rejections map[string]uint64 `json:"rejections"`
	Bidders    []Bidder          `json:"-"`
}

// Run executes the simulation. It returns an error only when the engine
// cannot be driven; rejected trades are counted in the report.
func Run(ctx context.Context, cfg Config, logger log.Logger) (*Report, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NoOp()
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	tokens := token.NewLedger("TOKEN")
	currency := token.NewLedger("BASE")

	engine, err := settlement.New(cfg.Engine, tokens, currency.PayerFor(cfg.Engine.Address), cfg.Start, logger)
	if err != nil {
		return nil, err
	}

	bidders := make([]Bidder, cfg.Bidders)
	for i := range bidders {
		b := Bidder{
			Address:   ids.DeriveAddress(fmt.Sprintf("bidder-%d-%d", cfg.Seed, i)),
			Valuation: units.Whole(cfg.MinValuation + rng.Uint64N(cfg.MaxValuation-cfg.MinValuation+1)),
			TradeSize: units.Whole(1 + rng.Uint64N(cfg.TradeSize)),
		}
		if err := tokens.Mint(ctx, b.Address, units.Whole(1_000_000_000)); err != nil {
			return nil, err
		}
		if err := tokens.Approve(ctx, b.Address, cfg.Engine.Address, units.Max()); err != nil {
			return nil, err
		}
		bidders[i] = b
	}

	report := &Report{Rejections: make(map[string]uint64), Bidders: bidders}
	period := cfg.Engine.Period
	now := cfg.Start

	for r := 0; r < cfg.Rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := currency.Mint(ctx, cfg.Engine.Address, cfg.Deposit); err != nil {
			return nil, err
		}
		if _, err := engine.Deposit(now, ids.DeriveAddress("fees"), cfg.Deposit); err != nil {
			return nil, err
		}

		now = engine.State().LastThaw.Add(period)
		opened, err := engine.Thaw(now)
		if err != nil {
			return nil, fmt.Errorf("thaw round %d: %w", r+1, err)
		}

		for step := uint64(0); step < decay.WindowCount; step++ {
			t := opened.StartTime.Add(decay.Boundary(step, period))
			for _, i := range rng.Perm(len(bidders)) {
				if err := bid(ctx, engine, bidders[i], t); err != nil {
					report.Rejections[metric.Reason(err)]++
				}
			}
			if engine.CurrentRound().RemainingAvailable.IsZero() {
				break
			}
		}
		now = opened.StartTime.Add(period)
	}

	history := append(engine.History(), engine.CurrentRound())
	for _, round := range history {
		if round.Number == 0 {
			continue
		}
		report.Rounds = append(report.Rounds, summarize(round))
	}
	report.Final = engine.State()

	logger.Info("simulation finished",
		log.Int("rounds", len(report.Rounds)),
		log.Uint64("settlements", report.Final.Totals.Settlements),
		log.String("burned", report.Final.Totals.Burned.Format()),
		log.String("paid_out", report.Final.Totals.PaidOut.Format()),
	)
	return report, report.Final.CheckConservation()
}

// bid buys at most one trade for b. A bidder that would overshoot the
// remaining supply shrinks its order to what is left.
func bid(ctx context.Context, engine *settlement.Engine, b Bidder, now time.Time) error {
	snap := engine.CurrentAuction(now)
	if snap.Expired || snap.RemainingAvailable.IsZero() || snap.CurrentPrice.Gt(b.Valuation) {
		return nil
	}

	_, err := engine.Settle(ctx, now, b.Address, b.TradeSize)
	if !errors.Is(err, settlement.ErrExceedsRemainingSupply) {
		return err
	}

	tokensForRest, overflow := snap.RemainingAvailable.MulDiv(snap.CurrentPrice, units.One)
	if overflow || tokensForRest.IsZero() {
		return err
	}
	// Round up so the payout covers the remainder exactly.
	if payout, _ := tokensForRest.MulDiv(units.One, snap.CurrentPrice); payout.Lt(snap.RemainingAvailable) {
		tokensForRest, _ = tokensForRest.Add(units.New(1))
	}
	_, err = engine.Settle(ctx, now, b.Address, tokensForRest)
	return err
}

func summarize(r auction.Round) RoundReport {
	return RoundReport{
		Number:        r.Number,
		OpeningPrice:  r.OpeningPrice,
		ClearingPrice: r.LastClearingPrice,
		Available:     r.InitialAvailable,
		Sold:          r.Sold(),
		TokensBurned:  r.TokensBurned,
		Trades:        r.Trades,
		SoldOut:       r.SoldOut(),
	}
}
