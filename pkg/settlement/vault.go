// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import "github.com/luxfi/burnengine/pkg/units"

// Vault is the frozen pool: fee income waiting for the next thaw.
type Vault struct {
	frozen units.Amount
}

// Deposit adds amount to the frozen pool and returns the new total.
func (v *Vault) Deposit(amount units.Amount) (units.Amount, error) {
	if amount.IsZero() {
		return units.Zero, ErrInvalidAmount
	}
	frozen, overflow := v.frozen.Add(amount)
	if overflow {
		return units.Zero, ErrOverflow
	}
	v.frozen = frozen
	return frozen, nil
}

// Frozen returns the amount pending release
func (v *Vault) Frozen() units.Amount {
	return v.frozen
}

// Drain empties the pool and returns what it held
func (v *Vault) Drain() units.Amount {
	out := v.frozen
	v.frozen = units.Zero
	return out
}
