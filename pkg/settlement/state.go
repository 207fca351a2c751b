// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"fmt"
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/units"
)

// Totals are lifetime counters of value moving through the engine
type Totals struct {
	Deposited   units.Amount `json:"deposited"`
	PaidOut     units.Amount `json:"paid_out"`
	Burned      units.Amount `json:"burned"`
	Stranded    units.Amount `json:"stranded"`
	Settlements uint64       `json:"settlements"`
}

// State is a consistent snapshot of the engine, suitable for persistence
type State struct {
	Frozen   units.Amount    `json:"frozen"`
	Current  auction.Round   `json:"current"`
	History  []auction.Round `json:"history"`
	LastThaw time.Time       `json:"last_thaw"`
	Period   time.Duration   `json:"period"`
	Totals   Totals          `json:"totals"`
	Sequence uint64          `json:"sequence"`
}

// CheckConservation verifies that every deposited unit is either frozen,
// available in the current round, paid out or stranded.
func (s State) CheckConservation() error {
	sum, o1 := s.Frozen.Add(s.Current.RemainingAvailable)
	sum, o2 := sum.Add(s.Totals.PaidOut)
	sum, o3 := sum.Add(s.Totals.Stranded)
	if o1 || o2 || o3 {
		return ErrOverflow
	}
	if !sum.Eq(s.Totals.Deposited) {
		return fmt.Errorf("conservation violated: deposited %s, accounted %s", s.Totals.Deposited, sum)
	}
	return nil
}
