// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"time"

	"github.com/luxfi/burnengine/pkg/decay"
	"github.com/luxfi/burnengine/pkg/units"
)

// PriceAt scales an opening price by a decay percentage.
func PriceAt(opening units.Amount, percent uint64) units.Amount {
	p, _ := opening.MulRatio(percent, decay.Denominator)
	return p
}

// EffectivePrice is the live price of r at now, in token base units per
// units.One of base currency.
func EffectivePrice(r Round, now time.Time, period time.Duration) units.Amount {
	return PriceAt(r.OpeningPrice, decay.Multiplier(r.Elapsed(now), period))
}

// FloorPrice is the price r settles at once its window has fully decayed.
func FloorPrice(r Round) units.Amount {
	return PriceAt(r.OpeningPrice, decay.FloorPercent)
}

// Multiplier returns the decay percentage of r at now.
func Multiplier(r Round, now time.Time, period time.Duration) uint64 {
	return decay.Multiplier(r.Elapsed(now), period)
}

// NextPriceStep returns the multiplier that takes effect at the next step
// boundary and the absolute time of that boundary.
func NextPriceStep(r Round, now time.Time, period time.Duration) (uint64, time.Time) {
	percent, offset := decay.NextStep(r.Elapsed(now), period)
	return percent, r.StartTime.Add(offset)
}

// Payout converts a token amount into base currency at price:
// tokens * 1e18 / price, rounded down. ok is false when price is zero or the
// result overflows.
func Payout(tokens, price units.Amount) (units.Amount, bool) {
	if price.IsZero() {
		return units.Zero, false
	}
	out, overflow := tokens.MulDiv(units.One, price)
	return out, !overflow
}
