// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"fmt"
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/units"
)

const DefaultPeriod = time.Hour

// DefaultBootstrapPrice opens the first round at 500 tokens per unit of base
// currency: a base price of 250 doubled by the opening premium.
var DefaultBootstrapPrice = units.Whole(500)

// DefaultAddress is the account the engine burns from allowances as.
var DefaultAddress = ids.DeriveAddress("burnengine")

// Config is fixed at construction
type Config struct {
	// Period is both the minimum delay between thaws and the span over
	// which the price multiplier decays to its floor.
	Period time.Duration

	// BootstrapPrice is the opening price of round 1.
	BootstrapPrice units.Amount

	// Momentum derives each round's opening price from the previous round.
	Momentum auction.MomentumPolicy

	// Rollover carries a closing round's unsold remainder into the next
	// round. When false the remainder is retired as stranded.
	Rollover bool

	// HistoryLimit bounds the number of closed rounds kept for queries.
	HistoryLimit int

	// Address is the spender identity presented to the token ledger.
	Address ids.Address
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Period:         DefaultPeriod,
		BootstrapPrice: DefaultBootstrapPrice,
		Momentum:       auction.DefaultStepMomentum(),
		Rollover:       true,
		HistoryLimit:   auction.DefaultHistoryLimit,
		Address:        DefaultAddress,
	}
}

// Validate checks that the config can drive an engine
func (c Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w: period must be positive, got %s", ErrInvalidConfig, c.Period)
	}
	if c.BootstrapPrice.IsZero() {
		return fmt.Errorf("%w: bootstrap price must be positive", ErrInvalidConfig)
	}
	if c.Momentum == nil {
		return fmt.Errorf("%w: momentum policy is required", ErrInvalidConfig)
	}
	if c.Address.IsEmpty() {
		return fmt.Errorf("%w: engine address is required", ErrInvalidConfig)
	}
	return nil
}
