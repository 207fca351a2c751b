// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auction holds the per-round state of the descending-price burn
// auction and the pure price functions evaluated against it.
package auction

import (
	"errors"
	"time"

	"github.com/luxfi/burnengine/pkg/units"
)

var (
	ErrOversell      = errors.New("fill exceeds remaining availability")
	ErrRoundSequence = errors.New("round number out of sequence")
	ErrInvalidOpen   = errors.New("new round must start with remaining equal to initial")
)

// Round is one auction cycle, from thaw to the next thaw or auto-roll
type Round struct {
	Number             uint64       `json:"number"`
	StartTime          time.Time    `json:"start_time"`
	OpeningPrice       units.Amount `json:"opening_price"`
	InitialAvailable   units.Amount `json:"initial_available"`
	RemainingAvailable units.Amount `json:"remaining_available"`

	// Outcome of the round so far.
	LastClearingPrice units.Amount `json:"last_clearing_price"`
	Trades            uint64       `json:"trades"`
	TokensBurned      units.Amount `json:"tokens_burned"`
	SoldOutAt         *time.Time   `json:"sold_out_at,omitempty"`
	ClosedAt          *time.Time   `json:"closed_at,omitempty"`
}

// NewGenesis returns round 0. It has nothing for sale and only anchors the
// decay clock and the bootstrap price until the first thaw.
func NewGenesis(start time.Time, bootstrapPrice units.Amount) Round {
	return Round{
		Number:       0,
		StartTime:    start,
		OpeningPrice: bootstrapPrice,
	}
}

// IsGenesis reports whether r is the placeholder round created at startup.
func (r Round) IsGenesis() bool {
	return r.Number == 0
}

// Elapsed returns the time since the round started, never negative.
func (r Round) Elapsed(now time.Time) time.Duration {
	d := now.Sub(r.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether the whole decay window has passed.
func (r Round) Expired(now time.Time, period time.Duration) bool {
	return r.Elapsed(now) >= period
}

// Sold returns the amount of base currency disbursed in this round.
func (r Round) Sold() units.Amount {
	sold, _ := r.InitialAvailable.Sub(r.RemainingAvailable)
	return sold
}

// SoldOut reports whether a non-empty round has been fully purchased.
func (r Round) SoldOut() bool {
	return !r.InitialAvailable.IsZero() && r.RemainingAvailable.IsZero()
}

// Idle reports whether nothing was purchased in the round.
func (r Round) Idle() bool {
	return r.RemainingAvailable.Eq(r.InitialAvailable)
}

// Fill records a purchase of payout base currency for tokens at price.
func (r *Round) Fill(tokens, payout, price units.Amount, now time.Time) error {
	remaining, underflow := r.RemainingAvailable.Sub(payout)
	if underflow {
		return ErrOversell
	}
	burned, overflow := r.TokensBurned.Add(tokens)
	if overflow {
		burned = units.Max()
	}

	r.RemainingAvailable = remaining
	r.TokensBurned = burned
	r.LastClearingPrice = price
	r.Trades++
	if remaining.IsZero() {
		at := now
		r.SoldOutAt = &at
	}
	return nil
}
