// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"fmt"
	"time"

	"github.com/luxfi/burnengine/pkg/units"
)

// DefaultHistoryLimit is the number of closed rounds a Ledger keeps.
const DefaultHistoryLimit = 256

// Ledger tracks the active round and a bounded history of closed rounds.
// It is not safe for concurrent use; the settlement engine serializes access.
type Ledger struct {
	current Round
	history []Round
	limit   int
}

// NewLedger creates a ledger whose active round is current
func NewLedger(current Round, limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Ledger{
		current: current,
		history: make([]Round, 0),
		limit:   limit,
	}
}

// RestoreLedger rebuilds a ledger from persisted rounds
func RestoreLedger(current Round, history []Round, limit int) *Ledger {
	l := NewLedger(current, limit)
	for _, r := range history {
		l.archive(r)
	}
	return l
}

// Current returns a copy of the active round
func (l *Ledger) Current() Round {
	return l.current
}

// Fill applies a purchase to the active round
func (l *Ledger) Fill(tokens, payout, price units.Amount, now time.Time) error {
	return l.current.Fill(tokens, payout, price, now)
}

// Open closes the active round at now and makes next the active round.
// It returns the closed round.
func (l *Ledger) Open(next Round, now time.Time) (Round, error) {
	if next.Number != l.current.Number+1 {
		return Round{}, fmt.Errorf("%w: have %d, next %d", ErrRoundSequence, l.current.Number, next.Number)
	}
	if !next.RemainingAvailable.Eq(next.InitialAvailable) {
		return Round{}, ErrInvalidOpen
	}

	closed := l.current
	at := now
	closed.ClosedAt = &at
	l.archive(closed)
	l.current = next
	return closed, nil
}

func (l *Ledger) archive(r Round) {
	if len(l.history) >= l.limit {
		copy(l.history, l.history[1:])
		l.history = l.history[:len(l.history)-1]
	}
	l.history = append(l.history, r)
}

// History returns closed rounds, oldest first
func (l *Ledger) History() []Round {
	out := make([]Round, len(l.history))
	copy(out, l.history)
	return out
}

// Round looks up a round by number among the active and retained rounds
func (l *Ledger) Round(number uint64) (Round, bool) {
	if l.current.Number == number {
		return l.current, true
	}
	for _, r := range l.history {
		if r.Number == number {
			return r, true
		}
	}
	return Round{}, false
}
