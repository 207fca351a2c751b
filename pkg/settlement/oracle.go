// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/units"
)

// AuctionSnapshot describes the active round at an instant
type AuctionSnapshot struct {
	Round              uint64       `json:"round"`
	StartTime          time.Time    `json:"start_time"`
	OpeningPrice       units.Amount `json:"opening_price"`
	Multiplier         uint64       `json:"multiplier"`
	CurrentPrice       units.Amount `json:"current_price"`
	NextMultiplier     uint64       `json:"next_multiplier"`
	NextPrice          units.Amount `json:"next_price"`
	NextPriceTime      time.Time    `json:"next_price_time"`
	InitialAvailable   units.Amount `json:"initial_available"`
	RemainingAvailable units.Amount `json:"remaining_available"`
	Expired            bool         `json:"expired"`
}

// PriceChange is the next step of the decay schedule
type PriceChange struct {
	Multiplier uint64       `json:"multiplier"`
	Price      units.Amount `json:"price"`
	Time       time.Time    `json:"time"`
}

// AuctionForecast projects the round the next thaw would open
type AuctionForecast struct {
	Round        uint64       `json:"round"`
	StartTime    time.Time    `json:"start_time"`
	Available    units.Amount `json:"available"`
	OpeningPrice units.Amount `json:"opening_price"`
}

// CurrentAuction returns the live view of the active round
func (e *Engine) CurrentAuction(now time.Time) AuctionSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r := e.ledger.Current()
	period := e.cfg.Period
	multiplier := auction.Multiplier(r, now, period)
	nextMultiplier, nextAt := auction.NextPriceStep(r, now, period)

	return AuctionSnapshot{
		Round:              r.Number,
		StartTime:          r.StartTime,
		OpeningPrice:       r.OpeningPrice,
		Multiplier:         multiplier,
		CurrentPrice:       auction.PriceAt(r.OpeningPrice, multiplier),
		NextMultiplier:     nextMultiplier,
		NextPrice:          auction.PriceAt(r.OpeningPrice, nextMultiplier),
		NextPriceTime:      nextAt,
		InitialAvailable:   r.InitialAvailable,
		RemainingAvailable: r.RemainingAvailable,
		Expired:            r.Expired(now, period),
	}
}

// NextPriceChange returns the multiplier and time of the next price step
func (e *Engine) NextPriceChange(now time.Time) PriceChange {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r := e.ledger.Current()
	multiplier, at := auction.NextPriceStep(r, now, e.cfg.Period)
	return PriceChange{
		Multiplier: multiplier,
		Price:      auction.PriceAt(r.OpeningPrice, multiplier),
		Time:       at,
	}
}

// NextAuction projects the next round from the present state, assuming no
// further deposits or trades
func (e *Engine) NextAuction() AuctionForecast {
	e.mu.RLock()
	defer e.mu.RUnlock()

	current := e.ledger.Current()
	available := e.vault.Frozen()
	if e.cfg.Rollover {
		if sum, overflow := available.Add(current.RemainingAvailable); !overflow {
			available = sum
		}
	}

	return AuctionForecast{
		Round:        current.Number + 1,
		StartTime:    e.lastThaw.Add(e.cfg.Period),
		Available:    available,
		OpeningPrice: auction.NextOpening(e.cfg.Momentum, current, e.cfg.BootstrapPrice),
	}
}
