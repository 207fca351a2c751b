// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package decay implements the stepped price multiplier of a round.
//
// A round's period is split into WindowCount equal windows. The multiplier
// starts at StartPercent, drops by StepPercent at every window boundary and
// rests at FloorPercent from the end of the period until the clock is reset.
// All functions are pure: they take the elapsed time since the round start
// and never read a clock.
package decay

import (
	"math/bits"
	"time"
)

const (
	WindowCount  = 35
	StartPercent = 200
	StepPercent  = 5
	FloorPercent = 25

	// Denominator turns a percentage into a price fraction. At StartPercent
	// the effective price equals the opening price.
	Denominator = StartPercent
)

// WindowIndex returns floor(elapsed * WindowCount / period) clamped to
// [0, WindowCount]. A non-positive period is treated as already expired.
func WindowIndex(elapsed, period time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	if period <= 0 || elapsed >= period {
		return WindowCount
	}
	hi, lo := bits.Mul64(uint64(elapsed), WindowCount)
	q, _ := bits.Div64(hi, lo, uint64(period))
	return q
}

// PercentAt returns the multiplier held during window index.
func PercentAt(index uint64) uint64 {
	if index >= WindowCount {
		return FloorPercent
	}
	p := StartPercent - StepPercent*index
	if p < FloorPercent {
		return FloorPercent
	}
	return p
}

// Multiplier returns the percentage in {200, 195, ..., 25} in effect after
// elapsed time.
func Multiplier(elapsed, period time.Duration) uint64 {
	return PercentAt(WindowIndex(elapsed, period))
}

// Boundary returns the offset from round start at which window index begins,
// i.e. the smallest instant whose WindowIndex is at least index.
func Boundary(index uint64, period time.Duration) time.Duration {
	if index == 0 || period <= 0 {
		return 0
	}
	if index >= WindowCount {
		return period
	}
	hi, lo := bits.Mul64(index, uint64(period))
	q, r := bits.Div64(hi, lo, WindowCount)
	if r > 0 {
		q++
	}
	return time.Duration(q)
}

// NextStep returns the multiplier that takes effect at the next window
// boundary and the offset of that boundary from round start. Once the floor
// is reached there is no further step; the floor and the period end are
// returned.
func NextStep(elapsed, period time.Duration) (uint64, time.Duration) {
	index := WindowIndex(elapsed, period)
	if index >= WindowCount {
		return FloorPercent, period
	}
	return PercentAt(index + 1), Boundary(index+1, period)
}
