// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package settlement runs the burn auction: fee income is frozen, thawed into
// rounds, and sold against token burns at a decaying price.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/units"
)

// Token is the burnable token ledger the engine settles against
type Token interface {
	BalanceOf(ctx context.Context, account ids.Address) (units.Amount, error)
	Allowance(ctx context.Context, owner, spender ids.Address) (units.Amount, error)
	BurnFrom(ctx context.Context, spender, owner ids.Address, amount units.Amount) error
	Mint(ctx context.Context, to ids.Address, amount units.Amount) error
}

// Disburser pays base currency out of the engine
type Disburser interface {
	Disburse(ctx context.Context, to ids.Address, amount units.Amount) error
}

// Engine owns the single auction state. All mutations are serialized by mu;
// reads observe fully applied state.
type Engine struct {
	mu sync.RWMutex

	cfg    Config
	token  Token
	payer  Disburser
	vault  Vault
	ledger *auction.Ledger

	lastThaw time.Time
	totals   Totals
	seq      uint64

	observers []Observer
	log       log.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithObserver registers an observer for commits and rejections
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// New creates an engine whose decay clock starts at now with an empty
// genesis round
func New(cfg Config, token Token, payer Disburser, now time.Time, logger log.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NoOp()
	}

	e := &Engine{
		cfg:      cfg,
		token:    token,
		payer:    payer,
		ledger:   auction.NewLedger(auction.NewGenesis(now, cfg.BootstrapPrice), cfg.HistoryLimit),
		lastThaw: now,
		log:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log.Info("engine created",
		log.Duration("period", cfg.Period),
		log.String("momentum", cfg.Momentum.Name()),
		log.String("bootstrap_price", cfg.BootstrapPrice.Format()),
	)
	return e, nil
}

// Restore rebuilds an engine from a persisted snapshot
func Restore(cfg Config, token Token, payer Disburser, state State, logger log.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if state.Period != cfg.Period {
		return nil, fmt.Errorf("%w: period %s, configured %s", ErrStateMismatch, state.Period, cfg.Period)
	}
	if err := state.CheckConservation(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateMismatch, err)
	}
	if logger == nil {
		logger = log.NoOp()
	}

	e := &Engine{
		cfg:      cfg,
		token:    token,
		payer:    payer,
		vault:    Vault{frozen: state.Frozen},
		ledger:   auction.RestoreLedger(state.Current, state.History, cfg.HistoryLimit),
		lastThaw: state.LastThaw,
		totals:   state.Totals,
		seq:      state.Sequence,
		log:      logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log.Info("engine restored",
		log.Uint64("round", state.Current.Number),
		log.String("frozen", state.Frozen.Format()),
	)
	return e, nil
}

// Config returns the construction config
func (e *Engine) Config() Config {
	return e.cfg
}

// Address returns the spender identity of the engine
func (e *Engine) Address() ids.Address {
	return e.cfg.Address
}

// Deposit accepts fee income into the frozen pool
func (e *Engine) Deposit(now time.Time, from ids.Address, amount units.Amount) (units.Amount, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deposited, overflow := e.totals.Deposited.Add(amount)
	if overflow {
		return units.Zero, e.reject(now, OpDeposit, ErrOverflow)
	}
	frozen, err := e.vault.Deposit(amount)
	if err != nil {
		return units.Zero, e.reject(now, OpDeposit, err)
	}
	e.totals.Deposited = deposited

	e.log.Debug("fees deposited",
		log.Stringer("from", from),
		log.String("amount", amount.Format()),
		log.String("frozen", frozen.Format()),
	)

	ev := DepositEvent{Time: now, From: from, Amount: amount, State: e.stateLocked()}
	for _, o := range e.observers {
		o.OnDeposit(ev)
	}
	return frozen, nil
}

// Thaw releases the frozen pool into a new round
func (e *Engine) Thaw(now time.Time) (auction.Round, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	opened, err := e.thawLocked(now, false)
	if err != nil {
		return auction.Round{}, e.reject(now, OpThaw, err)
	}
	return opened, nil
}

func (e *Engine) thawLocked(now time.Time, auto bool) (auction.Round, error) {
	if now.Sub(e.lastThaw) < e.cfg.Period {
		return auction.Round{}, ErrThawTooEarly
	}
	if e.vault.Frozen().IsZero() {
		return auction.Round{}, ErrNothingToThaw
	}

	closing := e.ledger.Current()
	available := e.vault.Frozen()
	stranded := e.totals.Stranded
	if e.cfg.Rollover {
		var overflow bool
		available, overflow = available.Add(closing.RemainingAvailable)
		if overflow {
			return auction.Round{}, ErrOverflow
		}
	} else if !closing.RemainingAvailable.IsZero() {
		var overflow bool
		stranded, overflow = stranded.Add(closing.RemainingAvailable)
		if overflow {
			return auction.Round{}, ErrOverflow
		}
	}

	next := auction.Round{
		Number:             closing.Number + 1,
		StartTime:          now,
		OpeningPrice:       auction.NextOpening(e.cfg.Momentum, closing, e.cfg.BootstrapPrice),
		InitialAvailable:   available,
		RemainingAvailable: available,
	}
	closed, err := e.ledger.Open(next, now)
	if err != nil {
		return auction.Round{}, err
	}

	e.vault.Drain()
	e.totals.Stranded = stranded
	e.lastThaw = now

	e.log.Info("round opened",
		log.Uint64("round", next.Number),
		log.String("available", next.InitialAvailable.Format()),
		log.String("opening_price", next.OpeningPrice.Format()),
		log.Uint64("closed_round", closed.Number),
		log.String("closed_remaining", closed.RemainingAvailable.Format()),
		log.Uint64("closed_trades", closed.Trades),
	)

	ev := ThawEvent{Time: now, Closed: closed, Opened: next, Auto: auto, State: e.stateLocked()}
	for _, o := range e.observers {
		o.OnThaw(ev)
	}
	return next, nil
}

// Settle burns tokenAmount of caller's tokens for base currency at the
// current price. If the current round has expired, a new round is opened
// from the frozen funds instead and no trade happens; with nothing frozen
// the call fails with ErrRoundExpired.
func (e *Engine) Settle(ctx context.Context, now time.Time, caller ids.Address, tokenAmount units.Amount) (*SettleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.settleLocked(ctx, now, caller, tokenAmount)
	if err != nil {
		return nil, e.reject(now, OpSettle, err)
	}
	return res, nil
}

func (e *Engine) settleLocked(ctx context.Context, now time.Time, caller ids.Address, tokenAmount units.Amount) (*SettleResult, error) {
	if tokenAmount.IsZero() {
		return nil, ErrInvalidAmount
	}

	if e.ledger.Current().Expired(now, e.cfg.Period) {
		opened, err := e.thawLocked(now, true)
		switch {
		case err == nil:
			return &SettleResult{Outcome: OutcomeRolledOver, Opened: &opened}, nil
		case errors.Is(err, ErrNothingToThaw):
			return nil, ErrRoundExpired
		default:
			return nil, err
		}
	}

	round := e.ledger.Current()
	if round.RemainingAvailable.IsZero() {
		return nil, ErrNoSupplyRemaining
	}

	multiplier := auction.Multiplier(round, now, e.cfg.Period)
	price := auction.PriceAt(round.OpeningPrice, multiplier)
	if price.IsZero() {
		return nil, ErrZeroPrice
	}
	payout, ok := auction.Payout(tokenAmount, price)
	if !ok {
		return nil, ErrOverflow
	}
	if payout.IsZero() {
		return nil, ErrPayoutTooSmall
	}

	balance, err := e.token.BalanceOf(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("token balance: %w", err)
	}
	if balance.Lt(tokenAmount) {
		return nil, ErrInsufficientBalance
	}
	allowance, err := e.token.Allowance(ctx, caller, e.cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("token allowance: %w", err)
	}
	if allowance.Lt(tokenAmount) {
		return nil, ErrInsufficientAllowance
	}

	if payout.Gt(round.RemainingAvailable) {
		return nil, ErrExceedsRemainingSupply
	}

	paidOut, o1 := e.totals.PaidOut.Add(payout)
	burned, o2 := e.totals.Burned.Add(tokenAmount)
	if o1 || o2 {
		return nil, ErrOverflow
	}

	if err := e.token.BurnFrom(ctx, e.cfg.Address, caller, tokenAmount); err != nil {
		return nil, fmt.Errorf("burn: %w", err)
	}
	if err := e.payer.Disburse(ctx, caller, payout); err != nil {
		if mintErr := e.token.Mint(ctx, caller, tokenAmount); mintErr != nil {
			e.log.Error("failed to restore burned tokens",
				log.Stringer("caller", caller),
				log.String("tokens", tokenAmount.Format()),
				log.Error(mintErr),
			)
			return nil, fmt.Errorf("disburse: %w; restore burned tokens: %w", err, mintErr)
		}
		return nil, fmt.Errorf("disburse: %w", err)
	}

	// Cannot fail: payout <= remaining was checked above.
	if err := e.ledger.Fill(tokenAmount, payout, price, now); err != nil {
		return nil, err
	}
	e.totals.PaidOut = paidOut
	e.totals.Burned = burned
	e.totals.Settlements++
	e.seq++

	current := e.ledger.Current()
	receipt := Receipt{
		ID:         receiptID(e.seq, current.Number, caller, tokenAmount, payout, now),
		Sequence:   e.seq,
		Round:      current.Number,
		Caller:     caller,
		TokensIn:   tokenAmount,
		Payout:     payout,
		Price:      price,
		Multiplier: multiplier,
		Remaining:  current.RemainingAvailable,
		Time:       now,
	}

	e.log.Debug("settled",
		log.Uint64("round", receipt.Round),
		log.Stringer("caller", caller),
		log.String("tokens", tokenAmount.Format()),
		log.String("payout", payout.Format()),
		log.String("price", price.Format()),
		log.String("remaining", receipt.Remaining.Format()),
	)
	if current.SoldOut() {
		e.log.Info("round sold out", log.Uint64("round", current.Number), log.Duration("elapsed", current.Elapsed(now)))
	}

	ev := SettleEvent{Receipt: receipt, State: e.stateLocked()}
	for _, o := range e.observers {
		o.OnSettle(ev)
	}
	return &SettleResult{Outcome: OutcomeSettled, Receipt: &receipt}, nil
}

func (e *Engine) reject(now time.Time, op string, err error) error {
	e.log.Debug("operation rejected", log.String("op", op), log.Error(err))
	ev := RejectEvent{Time: now, Op: op, Err: err}
	for _, o := range e.observers {
		o.OnReject(ev)
	}
	return err
}

// State returns a consistent snapshot
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	return State{
		Frozen:   e.vault.Frozen(),
		Current:  e.ledger.Current(),
		History:  e.ledger.History(),
		LastThaw: e.lastThaw,
		Period:   e.cfg.Period,
		Totals:   e.totals,
		Sequence: e.seq,
	}
}

// CurrentRound returns a copy of the active round
func (e *Engine) CurrentRound() auction.Round {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.Current()
}

// Round looks up an active or retained round by number
func (e *Engine) Round(number uint64) (auction.Round, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.Round(number)
}

// History returns retained closed rounds, oldest first
func (e *Engine) History() []auction.Round {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.ledger.History()
}
