// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"testing"
	"time"

	"github.com/luxfi/burnengine/pkg/units"
)

func BenchmarkEffectivePrice(b *testing.B) {
	r := openRound(1, units.Whole(500), units.Whole(10))

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		EffectivePrice(r, t0.Add(time.Duration(i)*time.Millisecond), period)
	}
}

func BenchmarkRoundFill(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		r := openRound(1, units.Whole(500), units.Whole(1000))
		b.StartTimer()

		for j := 0; j < 100; j++ {
			r.Fill(units.Whole(500), units.One, units.Whole(500), t0)
		}
	}
}
