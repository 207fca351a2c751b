// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/units"
)

// Operation names used in RejectEvent.
const (
	OpDeposit = "deposit"
	OpThaw    = "thaw"
	OpSettle  = "settle"
)

// DepositEvent follows a committed deposit
type DepositEvent struct {
	Time   time.Time
	From   ids.Address
	Amount units.Amount
	State  State
}

// ThawEvent follows a committed thaw. Auto is set when the thaw was
// triggered by a settlement attempt against an expired round.
type ThawEvent struct {
	Time   time.Time
	Closed auction.Round
	Opened auction.Round
	Auto   bool
	State  State
}

// SettleEvent follows a committed trade
type SettleEvent struct {
	Receipt Receipt
	State   State
}

// RejectEvent follows a failed operation. State is unchanged by it.
type RejectEvent struct {
	Time time.Time
	Op   string
	Err  error
}

// Observer is notified after every commit or rejection. Calls happen while
// the engine lock is held, so observers see operations in commit order and
// must not call back into the engine.
type Observer interface {
	OnDeposit(DepositEvent)
	OnThaw(ThawEvent)
	OnSettle(SettleEvent)
	OnReject(RejectEvent)
}

// NopObserver implements Observer with no-ops. Embed it to implement a
// subset of the callbacks.
type NopObserver struct{}

func (NopObserver) OnDeposit(DepositEvent) {}
func (NopObserver) OnThaw(ThawEvent)       {}
func (NopObserver) OnSettle(SettleEvent)   {}
func (NopObserver) OnReject(RejectEvent)   {}
