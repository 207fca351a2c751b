// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"fmt"

	"github.com/luxfi/burnengine/pkg/units"
)

// Policy names accepted by ParseMomentum.
const (
	MomentumStep     = "step"
	MomentumClearing = "clearing"
)

// MomentumPolicy derives the opening price of the next round from the
// outcome of the closing round.
type MomentumPolicy interface {
	Name() string
	NextOpeningPrice(closing Round) units.Amount
}

// Ratio is a non-negative rational factor Num/Den.
type Ratio struct {
	Num uint64 `mapstructure:"num" json:"num"`
	Den uint64 `mapstructure:"den" json:"den"`
}

// Apply returns floor(a*Num/Den), saturating on overflow.
func (r Ratio) Apply(a units.Amount) units.Amount {
	out, overflow := a.MulRatio(r.Num, r.Den)
	if overflow {
		return units.Max()
	}
	return out
}

func (r Ratio) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// Valid reports whether the ratio has a non-zero numerator and denominator.
func (r Ratio) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// StepMomentum raises the opening price after a sell-out, lowers it after a
// round with no purchases and carries it forward otherwise.
type StepMomentum struct {
	Raise Ratio
	Lower Ratio
}

// DefaultStepMomentum doubles on sell-out and halves on an idle round.
func DefaultStepMomentum() StepMomentum {
	return StepMomentum{
		Raise: Ratio{Num: 2, Den: 1},
		Lower: Ratio{Num: 1, Den: 2},
	}
}

func (StepMomentum) Name() string { return MomentumStep }

func (m StepMomentum) NextOpeningPrice(closing Round) units.Amount {
	switch {
	case closing.SoldOut():
		return m.Raise.Apply(closing.OpeningPrice)
	case closing.Idle():
		return m.Lower.Apply(closing.OpeningPrice)
	default:
		return closing.OpeningPrice
	}
}

// ClearingMomentum opens the next round at a multiple of the last price paid
// in the closing round, or at the closing round's floor price when nothing
// was bought.
type ClearingMomentum struct {
	Factor Ratio
}

// DefaultClearingMomentum opens at twice the last clearing price.
func DefaultClearingMomentum() ClearingMomentum {
	return ClearingMomentum{Factor: Ratio{Num: 2, Den: 1}}
}

func (ClearingMomentum) Name() string { return MomentumClearing }

func (m ClearingMomentum) NextOpeningPrice(closing Round) units.Amount {
	if closing.Trades == 0 {
		return FloorPrice(closing)
	}
	return m.Factor.Apply(closing.LastClearingPrice)
}

// ParseMomentum returns the default policy registered under name.
func ParseMomentum(name string) (MomentumPolicy, error) {
	switch name {
	case "", MomentumStep:
		return DefaultStepMomentum(), nil
	case MomentumClearing:
		return DefaultClearingMomentum(), nil
	default:
		return nil, fmt.Errorf("unknown momentum policy %q", name)
	}
}

// NextOpening applies policy to the closing round. Closing the genesis round
// opens at bootstrap. The result is never below one base unit so the price
// stays invertible.
func NextOpening(policy MomentumPolicy, closing Round, bootstrap units.Amount) units.Amount {
	var next units.Amount
	if closing.IsGenesis() {
		next = bootstrap
	} else {
		next = policy.NextOpeningPrice(closing)
	}
	if next.IsZero() {
		return units.New(1)
	}
	return next
}
