// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package recorder

import (
	"fmt"
	"time"

	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/units"
)

// receiptRow is the column layout shared by both SQL backends. Amounts are
// stored as base-unit decimal text so no precision is lost.
type receiptRow struct {
	id         string
	sequence   int64
	round      int64
	caller     string
	tokensIn   string
	payout     string
	price      string
	multiplier int64
	remaining  string
	at         time.Time
}

func (r receiptRow) receipt() (settlement.Receipt, error) {
	id, err := ids.FromString(r.id)
	if err != nil {
		return settlement.Receipt{}, err
	}
	caller, err := ids.AddressFromString(r.caller)
	if err != nil {
		return settlement.Receipt{}, err
	}

	var amounts [4]units.Amount
	for i, s := range []string{r.tokensIn, r.payout, r.price, r.remaining} {
		if amounts[i], err = units.FromDecimal(s); err != nil {
			return settlement.Receipt{}, fmt.Errorf("receipt %d: %w", r.sequence, err)
		}
	}

	return settlement.Receipt{
		ID:         id,
		Sequence:   uint64(r.sequence),
		Round:      uint64(r.round),
		Caller:     caller,
		TokensIn:   amounts[0],
		Payout:     amounts[1],
		Price:      amounts[2],
		Multiplier: uint64(r.multiplier),
		Remaining:  amounts[3],
		Time:       r.at.UTC(),
	}, nil
}
