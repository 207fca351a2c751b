// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/crypto/hashing"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/units"
)

// Outcome tags the result of a Settle call
type Outcome int

const (
	// OutcomeSettled means tokens were burned and currency paid out.
	OutcomeSettled Outcome = iota + 1
	// OutcomeRolledOver means the round had expired and a new round was
	// opened instead. No trade happened; the caller should retry.
	OutcomeRolledOver
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeRolledOver:
		return "rolled_over"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "settled":
		*o = OutcomeSettled
	case "rolled_over":
		*o = OutcomeRolledOver
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// Receipt records one executed trade
type Receipt struct {
	ID         ids.ID       `json:"id"`
	Sequence   uint64       `json:"sequence"`
	Round      uint64       `json:"round"`
	Caller     ids.Address  `json:"caller"`
	TokensIn   units.Amount `json:"tokens_in"`
	Payout     units.Amount `json:"payout"`
	Price      units.Amount `json:"price"`
	Multiplier uint64       `json:"multiplier"`
	Remaining  units.Amount `json:"remaining"`
	Time       time.Time    `json:"time"`
}

// SettleResult is returned by a successful Settle call
type SettleResult struct {
	Outcome Outcome `json:"outcome"`

	// Receipt is set when Outcome is OutcomeSettled.
	Receipt *Receipt `json:"receipt,omitempty"`

	// Opened is the new round when Outcome is OutcomeRolledOver.
	Opened *auction.Round `json:"opened,omitempty"`
}

// receiptID commits to the trade fields and the engine sequence number
func receiptID(seq, round uint64, caller ids.Address, tokens, payout units.Amount, at time.Time) ids.ID {
	var head [24]byte
	binary.BigEndian.PutUint64(head[0:8], seq)
	binary.BigEndian.PutUint64(head[8:16], round)
	binary.BigEndian.PutUint64(head[16:24], uint64(at.UnixNano()))
	t := tokens.Bytes32()
	p := payout.Bytes32()
	return ids.ID(hashing.Keccak256(head[:], caller.Bytes(), t[:], p[:]))
}
