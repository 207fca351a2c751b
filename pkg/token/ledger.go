// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package token is an in-memory fungible ledger. The daemon uses one instance
// for the burnable token and one for the base currency.
package token

import (
	"context"
	"errors"
	"sync"

	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/units"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrSupplyOverflow        = errors.New("total supply overflow")
)

// Ledger tracks balances and allowances of a single asset
type Ledger struct {
	mu         sync.RWMutex
	symbol     string
	balances   map[ids.Address]units.Amount
	allowances map[ids.Address]map[ids.Address]units.Amount // owner -> spender -> amount
	supply     units.Amount
}

// NewLedger creates an empty ledger
func NewLedger(symbol string) *Ledger {
	return &Ledger{
		symbol:     symbol,
		balances:   make(map[ids.Address]units.Amount),
		allowances: make(map[ids.Address]map[ids.Address]units.Amount),
	}
}

// Symbol returns the asset symbol
func (l *Ledger) Symbol() string {
	return l.symbol
}

// Mint creates amount new units owned by to
func (l *Ledger) Mint(_ context.Context, to ids.Address, amount units.Amount) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	supply, overflow := l.supply.Add(amount)
	if overflow {
		return ErrSupplyOverflow
	}
	l.supply = supply
	// Cannot overflow: every balance is bounded by supply.
	l.balances[to], _ = l.balances[to].Add(amount)
	return nil
}

// Approve sets the amount spender may burn or move on behalf of owner
func (l *Ledger) Approve(_ context.Context, owner, spender ids.Address, amount units.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[ids.Address]units.Amount)
	}
	l.allowances[owner][spender] = amount
	return nil
}

// Transfer moves an asset between accounts
func (l *Ledger) Transfer(_ context.Context, from, to ids.Address, amount units.Amount) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance, underflow := l.balances[from].Sub(amount)
	if underflow {
		return ErrInsufficientBalance
	}
	l.balances[from] = fromBalance
	l.balances[to], _ = l.balances[to].Add(amount)
	return nil
}

// BurnFrom destroys amount of owner's balance, consuming spender's allowance
func (l *Ledger) BurnFrom(_ context.Context, spender, owner ids.Address, amount units.Amount) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, underflow := l.balances[owner].Sub(amount)
	if underflow {
		return ErrInsufficientBalance
	}
	allowance, underflow := l.allowances[owner][spender].Sub(amount)
	if underflow {
		return ErrInsufficientAllowance
	}

	l.balances[owner] = balance
	l.allowances[owner][spender] = allowance
	l.supply, _ = l.supply.Sub(amount)
	return nil
}

// Burn destroys amount of from's balance without an allowance. It undoes a
// Mint whose follow-up step failed.
func (l *Ledger) Burn(_ context.Context, from ids.Address, amount units.Amount) error {
	if amount.IsZero() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, underflow := l.balances[from].Sub(amount)
	if underflow {
		return ErrInsufficientBalance
	}
	l.balances[from] = balance
	l.supply, _ = l.supply.Sub(amount)
	return nil
}

// BalanceOf returns the balance of account
func (l *Ledger) BalanceOf(_ context.Context, account ids.Address) (units.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances[account], nil
}

// Allowance returns how much spender may burn on behalf of owner
func (l *Ledger) Allowance(_ context.Context, owner, spender ids.Address) (units.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.allowances[owner][spender], nil
}

// TotalSupply returns the outstanding supply
func (l *Ledger) TotalSupply() units.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.supply
}

// Payer disburses from a fixed source account of a ledger
type Payer struct {
	ledger *Ledger
	from   ids.Address
}

// PayerFor returns a Payer that sends from the given account
func (l *Ledger) PayerFor(from ids.Address) *Payer {
	return &Payer{ledger: l, from: from}
}

// Disburse transfers amount from the payer's account to to
func (p *Payer) Disburse(ctx context.Context, to ids.Address, amount units.Amount) error {
	return p.ledger.Transfer(ctx, p.from, to, amount)
}
