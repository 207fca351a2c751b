// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/token"
	"github.com/luxfi/burnengine/pkg/units"
	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

type fixture struct {
	t        *testing.T
	ctx      context.Context
	cfg      Config
	engine   *Engine
	nec      *token.Ledger
	eth      *token.Ledger
	accounts []ids.Address
}

func newFixture(t *testing.T, mutate func(*Config), opts ...Option) *fixture {
	t.Helper()
	require := require.New(t)

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	f := &fixture{
		t:   t,
		ctx: context.Background(),
		cfg: cfg,
		nec: token.NewLedger("NEC"),
		eth: token.NewLedger("ETH"),
	}
	for i := 0; i < 6; i++ {
		f.accounts = append(f.accounts, ids.GenerateAddress())
	}
	require.NoError(f.nec.Mint(f.ctx, f.accounts[0], units.Whole(10000)))
	require.NoError(f.nec.Mint(f.ctx, f.accounts[1], units.Whole(10000)))
	require.NoError(f.nec.Mint(f.ctx, f.accounts[2], units.Whole(100000)))

	engine, err := New(cfg, f.nec, f.eth.PayerFor(cfg.Address), t0, log.NoOp(), opts...)
	require.NoError(err)
	f.engine = engine
	return f
}

func (f *fixture) deposit(at time.Time, amount units.Amount) {
	f.t.Helper()
	require.NoError(f.t, f.eth.Mint(f.ctx, f.cfg.Address, amount))
	_, err := f.engine.Deposit(at, f.accounts[5], amount)
	require.NoError(f.t, err)
}

func (f *fixture) approve(account int, amount units.Amount) {
	f.t.Helper()
	require.NoError(f.t, f.nec.Approve(f.ctx, f.accounts[account], f.cfg.Address, amount))
}

func (f *fixture) settle(at time.Time, account int, amount units.Amount) (*SettleResult, error) {
	return f.engine.Settle(f.ctx, at, f.accounts[account], amount)
}

func (f *fixture) balances(account int) (units.Amount, units.Amount) {
	nec, _ := f.nec.BalanceOf(f.ctx, f.accounts[account])
	eth, _ := f.eth.BalanceOf(f.ctx, f.accounts[account])
	return nec, eth
}

func clearing(cfg *Config) {
	cfg.Momentum = auction.DefaultClearingMomentum()
	cfg.Rollover = false
}

func TestMultiplierDecreasesWithTime(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	require.Equal(uint64(200), f.engine.CurrentAuction(t0).Multiplier)
	require.Equal(uint64(100), f.engine.CurrentAuction(t0.Add(35*time.Minute+time.Second)).Multiplier)
	require.Equal(uint64(25), f.engine.CurrentAuction(t0.Add(60*time.Minute+time.Second)).Multiplier)
}

func TestThawResetsMultiplierAndSetsBootstrapPrice(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.One)
	at := t0.Add(60*time.Minute + time.Second)
	require.Equal(uint64(25), f.engine.CurrentAuction(at).Multiplier)

	opened, err := f.engine.Thaw(at)
	require.NoError(err)
	require.Equal(uint64(1), opened.Number)

	snap := f.engine.CurrentAuction(at)
	require.Equal(uint64(200), snap.Multiplier)
	require.True(snap.RemainingAvailable.Eq(units.One))
	require.True(snap.CurrentPrice.Eq(units.Whole(500)))
	require.True(f.engine.State().Frozen.IsZero())
}

func TestThawTooEarlyLeavesStateUnchanged(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	before := f.engine.State()

	_, err := f.engine.Thaw(t0.Add(11 * time.Minute))
	require.ErrorIs(err, ErrThawTooEarly)
	require.Equal(before, f.engine.State())

	_, err = f.engine.Thaw(t0.Add(61 * time.Minute))
	require.NoError(err)

	round := f.engine.CurrentRound()
	require.True(round.InitialAvailable.Eq(units.Whole(10)))
	require.True(round.RemainingAvailable.Eq(units.Whole(10)))
	require.Equal(uint64(200), f.engine.CurrentAuction(t0.Add(61*time.Minute)).Multiplier)

	// A second thaw inside the new period is too early even with funds.
	f.deposit(t0.Add(70*time.Minute), units.One)
	before = f.engine.State()
	_, err = f.engine.Thaw(t0.Add(120 * time.Minute))
	require.ErrorIs(err, ErrThawTooEarly)
	require.Equal(before, f.engine.State())
}

func TestThawNothingToThaw(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	_, err := f.engine.Thaw(t0.Add(60*time.Minute + time.Second))
	require.ErrorIs(err, ErrNothingToThaw)
	require.Equal(uint64(0), f.engine.CurrentRound().Number)
}

func TestDepositRejectsZero(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Deposit(t0, f.accounts[0], units.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSettleAtOpeningPrice(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)

	f.approve(0, units.Whole(500))
	res, err := f.settle(t1, 0, units.Whole(500))
	require.NoError(err)
	require.Equal(OutcomeSettled, res.Outcome)
	require.NotNil(res.Receipt)
	require.True(res.Receipt.Payout.Eq(units.One))
	require.True(res.Receipt.Price.Eq(units.Whole(500)))
	require.Equal(uint64(200), res.Receipt.Multiplier)
	require.True(res.Receipt.Remaining.Eq(units.Whole(9)))

	require.True(f.engine.CurrentRound().RemainingAvailable.Eq(units.Whole(9)))

	nec, eth := f.balances(0)
	require.True(nec.Eq(units.Whole(9500)))
	require.True(eth.Eq(units.One))
	require.True(f.nec.TotalSupply().Eq(units.Whole(119500)))
}

func TestSettleExceedsRemainingSupply(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)

	f.approve(0, units.Whole(500))
	_, err = f.settle(t1, 0, units.Whole(500))
	require.NoError(err)

	// 5000 tokens at 500 would buy 10 units but only 9 remain.
	f.approve(2, units.Whole(5000))
	before := f.engine.State()
	_, err = f.settle(t1, 2, units.Whole(5000))
	require.ErrorIs(err, ErrExceedsRemainingSupply)
	require.Equal(before, f.engine.State())

	nec, eth := f.balances(2)
	require.True(nec.Eq(units.Whole(100000)))
	require.True(eth.IsZero())
}

func TestSettleAutoRollsExpiredRound(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	f.approve(0, units.Whole(500))
	necBefore, ethBefore := f.balances(0)

	res, err := f.settle(t0.Add(61*time.Minute), 0, units.Whole(500))
	require.NoError(err)
	require.Equal(OutcomeRolledOver, res.Outcome)
	require.Nil(res.Receipt)
	require.NotNil(res.Opened)
	require.Equal(uint64(1), res.Opened.Number)
	require.Equal(uint64(1), f.engine.CurrentRound().Number)
	require.True(f.engine.CurrentRound().RemainingAvailable.Eq(units.Whole(10)))

	necAfter, ethAfter := f.balances(0)
	require.True(necBefore.Eq(necAfter))
	require.True(ethBefore.Eq(ethAfter))

	// The retry trades against the fresh round at the opening price.
	res, err = f.settle(t0.Add(61*time.Minute), 0, units.Whole(500))
	require.NoError(err)
	require.Equal(OutcomeSettled, res.Outcome)
	require.True(res.Receipt.Payout.Eq(units.One))
}

func TestSettleExpiredWithoutFrozenIsRejected(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(60*time.Minute + time.Second)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)

	f.approve(0, units.Whole(500))
	necBefore, ethBefore := f.balances(0)
	before := f.engine.State()

	res, err := f.settle(t1.Add(2*time.Hour), 0, units.Whole(500))
	require.ErrorIs(err, ErrRoundExpired)
	require.Nil(res)
	require.Equal(before, f.engine.State())
	require.Equal(uint64(1), f.engine.CurrentRound().Number)

	necAfter, ethAfter := f.balances(0)
	require.True(necBefore.Eq(necAfter))
	require.True(ethBefore.Eq(ethAfter))

	// A fresh deposit lets the next settle roll the round instead.
	f.deposit(t1.Add(2*time.Hour), units.Whole(4))
	res, err = f.settle(t1.Add(2*time.Hour), 0, units.Whole(500))
	require.NoError(err)
	require.Equal(OutcomeRolledOver, res.Outcome)
	require.Equal(uint64(2), res.Opened.Number)
}

func TestSettleNoSupplyRemaining(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)
	f.approve(0, units.Whole(500))

	// Genesis round has nothing for sale.
	_, err := f.settle(t0, 0, units.Whole(500))
	require.ErrorIs(err, ErrNoSupplyRemaining)

	f.deposit(t0, units.One)
	t1 := t0.Add(61 * time.Minute)
	_, err = f.engine.Thaw(t1)
	require.NoError(err)
	_, err = f.settle(t1, 0, units.Whole(500))
	require.NoError(err)

	f.approve(0, units.Whole(500))
	_, err = f.settle(t1, 0, units.Whole(500))
	require.ErrorIs(err, ErrNoSupplyRemaining)
}

func TestSettleTokenChecks(t *testing.T) {
	tests := []struct {
		name    string
		account int
		approve units.Amount
		amount  units.Amount
		want    error
	}{
		{"no balance", 4, units.Zero, units.Whole(1), ErrInsufficientBalance},
		{"insufficient balance", 0, units.Whole(10001), units.Whole(10001), ErrInsufficientBalance},
		{"not approved", 0, units.Zero, units.Whole(10000), ErrInsufficientAllowance},
		{"zero amount", 0, units.Whole(1), units.Zero, ErrInvalidAmount},
		{"dust", 0, units.Whole(1), units.New(1), ErrPayoutTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			f := newFixture(t, nil)

			f.deposit(t0, units.Whole(20))
			t1 := t0.Add(61 * time.Minute)
			_, err := f.engine.Thaw(t1)
			require.NoError(err)
			if !tt.approve.IsZero() {
				f.approve(tt.account, tt.approve)
			}

			before := f.engine.State()
			_, err = f.settle(t1, tt.account, tt.amount)
			require.ErrorIs(err, tt.want)
			require.Equal(before, f.engine.State())
		})
	}
}

func TestTwoRoundsClearingMomentum(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, clearing)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(60*time.Minute + time.Second)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)

	f.approve(0, units.Whole(500))
	_, err = f.settle(t1, 0, units.Whole(500))
	require.NoError(err)
	require.True(f.engine.CurrentRound().RemainingAvailable.Eq(units.Whole(9)))

	mid := t1.Add(35*time.Minute + time.Second)
	f.approve(1, units.Whole(2250))
	res, err := f.settle(mid, 1, units.Whole(2250))
	require.NoError(err)
	require.True(res.Receipt.Price.Eq(units.Whole(250)))
	require.True(f.engine.CurrentRound().RemainingAvailable.IsZero())
	require.True(f.engine.CurrentRound().SoldOut())

	f.deposit(mid, units.Whole(11))
	t2 := mid.Add(25 * time.Minute)
	opened, err := f.engine.Thaw(t2)
	require.NoError(err)
	require.True(opened.InitialAvailable.Eq(units.Whole(11)))
	require.True(opened.OpeningPrice.Eq(units.Whole(500)), "opens at twice the last clearing price")

	f.approve(2, units.Whole(5500))
	_, err = f.settle(t2, 2, units.Whole(5500))
	require.NoError(err)
	require.True(f.engine.CurrentRound().RemainingAvailable.IsZero())

	f.deposit(t2, units.One)
	t3 := t2.Add(60*time.Minute + time.Second)
	opened, err = f.engine.Thaw(t3)
	require.NoError(err)
	require.True(opened.OpeningPrice.Eq(units.Whole(1000)))
	require.Equal(uint64(3), opened.Number)

	require.NoError(f.engine.State().CheckConservation())
}

func TestTwoRoundsStepMomentum(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)

	f.approve(2, units.Whole(5000))
	_, err = f.settle(t1, 2, units.Whole(5000))
	require.NoError(err)
	require.True(f.engine.CurrentRound().SoldOut())

	f.deposit(t1, units.Whole(4))
	t2 := t1.Add(61 * time.Minute)
	opened, err := f.engine.Thaw(t2)
	require.NoError(err)
	require.True(opened.OpeningPrice.Eq(units.Whole(1000)), "sell-out doubles")

	// Partial sale: carried forward.
	f.approve(2, units.Whole(1000))
	_, err = f.settle(t2, 2, units.Whole(1000))
	require.NoError(err)
	f.deposit(t2, units.Whole(4))
	t3 := t2.Add(61 * time.Minute)
	opened, err = f.engine.Thaw(t3)
	require.NoError(err)
	require.True(opened.OpeningPrice.Eq(units.Whole(1000)), "partial sale carries forward")
	require.True(opened.InitialAvailable.Eq(units.Whole(7)), "unsold remainder rolls over")

	// Idle round: halved.
	f.deposit(t3, units.One)
	t4 := t3.Add(61 * time.Minute)
	opened, err = f.engine.Thaw(t4)
	require.NoError(err)
	require.True(opened.OpeningPrice.Eq(units.Whole(500)), "idle round halves")
	require.True(opened.InitialAvailable.Eq(units.Whole(8)))

	require.NoError(f.engine.State().CheckConservation())
	require.Len(f.engine.History(), 4)
}

func TestRolloverDisabledStrandsRemainder(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, clearing)

	f.deposit(t0, units.Whole(3))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)

	f.deposit(t1, units.Whole(5))
	opened, err := f.engine.Thaw(t1.Add(61 * time.Minute))
	require.NoError(err)
	require.True(opened.InitialAvailable.Eq(units.Whole(5)))

	state := f.engine.State()
	require.True(state.Totals.Stranded.Eq(units.Whole(3)))
	require.NoError(state.CheckConservation())

	closed, ok := f.engine.Round(1)
	require.True(ok)
	require.True(closed.RemainingAvailable.Eq(units.Whole(3)))
	require.NotNil(closed.ClosedAt)
}

func TestRemainingTracksPayouts(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(100))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)
	f.approve(2, units.Whole(100000))

	paid := units.Zero
	prev := f.engine.CurrentRound().RemainingAvailable
	for i := 0; i < 30; i++ {
		at := t1.Add(time.Duration(i) * 2 * time.Minute)
		res, err := f.settle(at, 2, units.Whole(uint64(100+i*37)))
		if errors.Is(err, ErrExceedsRemainingSupply) || errors.Is(err, ErrNoSupplyRemaining) {
			break
		}
		require.NoError(err)
		paid, _ = paid.Add(res.Receipt.Payout)

		remaining := f.engine.CurrentRound().RemainingAvailable
		require.False(remaining.Gt(prev))
		prev = remaining

		state := f.engine.State()
		require.NoError(state.CheckConservation())
		sold := state.Current.Sold()
		require.True(sold.Eq(paid))
	}
	require.False(paid.IsZero())
}

func TestDisburseFailureRestoresTokens(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	nec := token.NewLedger("NEC")
	caller := ids.GenerateAddress()
	require.NoError(nec.Mint(ctx, caller, units.Whole(1000)))

	cfg := DefaultConfig()
	engine, err := New(cfg, nec, failingPayer{}, t0, log.NoOp())
	require.NoError(err)
	_, err = engine.Deposit(t0, caller, units.Whole(10))
	require.NoError(err)
	_, err = engine.Thaw(t0.Add(61 * time.Minute))
	require.NoError(err)
	require.NoError(nec.Approve(ctx, caller, cfg.Address, units.Whole(500)))

	before := engine.State()
	_, err = engine.Settle(ctx, t0.Add(61*time.Minute), caller, units.Whole(500))
	require.ErrorIs(err, errPayoutFailed)
	require.Equal(before, engine.State())

	balance, _ := nec.BalanceOf(ctx, caller)
	require.True(balance.Eq(units.Whole(1000)))
}

func TestDisburseFailureReportsLostTokens(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	nec := unmintableToken{token.NewLedger("NEC")}
	caller := ids.GenerateAddress()
	require.NoError(nec.Ledger.Mint(ctx, caller, units.Whole(1000)))

	cfg := DefaultConfig()
	engine, err := New(cfg, nec, failingPayer{}, t0, log.NoOp())
	require.NoError(err)
	_, err = engine.Deposit(t0, caller, units.Whole(10))
	require.NoError(err)
	_, err = engine.Thaw(t0.Add(61 * time.Minute))
	require.NoError(err)
	require.NoError(nec.Approve(ctx, caller, cfg.Address, units.Whole(500)))

	before := engine.State()
	_, err = engine.Settle(ctx, t0.Add(61*time.Minute), caller, units.Whole(500))
	require.ErrorIs(err, errPayoutFailed)
	require.ErrorIs(err, errMintFailed)
	require.Equal(before, engine.State())
}

// unmintableToken cannot give burned tokens back.
type unmintableToken struct {
	*token.Ledger
}

var errMintFailed = errors.New("mint failed")

func (unmintableToken) Mint(context.Context, ids.Address, units.Amount) error {
	return errMintFailed
}

type failingPayer struct{}

var errPayoutFailed = errors.New("payout failed")

func (failingPayer) Disburse(context.Context, ids.Address, units.Amount) error {
	return errPayoutFailed
}

type recorder struct {
	NopObserver
	events  []string
	rejects []error
}

func (r *recorder) OnDeposit(DepositEvent) { r.events = append(r.events, OpDeposit) }
func (r *recorder) OnThaw(ev ThawEvent) {
	if ev.Auto {
		r.events = append(r.events, "auto-thaw")
		return
	}
	r.events = append(r.events, OpThaw)
}
func (r *recorder) OnSettle(SettleEvent) { r.events = append(r.events, OpSettle) }
func (r *recorder) OnReject(ev RejectEvent) {
	r.rejects = append(r.rejects, ev.Err)
}

func TestObserverSeesCommitOrder(t *testing.T) {
	require := require.New(t)
	rec := &recorder{}
	f := newFixture(t, nil, WithObserver(rec))

	f.deposit(t0, units.Whole(2))
	_, err := f.engine.Thaw(t0.Add(time.Minute))
	require.ErrorIs(err, ErrThawTooEarly)

	t1 := t0.Add(61 * time.Minute)
	_, err = f.engine.Thaw(t1)
	require.NoError(err)
	f.approve(0, units.Whole(500))
	_, err = f.settle(t1, 0, units.Whole(500))
	require.NoError(err)

	f.deposit(t1, units.One)
	_, err = f.settle(t1.Add(61*time.Minute), 0, units.Whole(500))
	require.NoError(err)

	require.Equal([]string{OpDeposit, OpThaw, OpSettle, OpDeposit, "auto-thaw"}, rec.events)
	require.Len(rec.rejects, 1)
	require.ErrorIs(rec.rejects[0], ErrThawTooEarly)
}

func TestRestore(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)
	f.approve(0, units.Whole(1000))
	_, err = f.settle(t1, 0, units.Whole(500))
	require.NoError(err)
	f.deposit(t1, units.Whole(3))

	state := f.engine.State()
	restored, err := Restore(f.cfg, f.nec, f.eth.PayerFor(f.cfg.Address), state, log.NoOp())
	require.NoError(err)
	require.Equal(state, restored.State())

	res, err := restored.Settle(f.ctx, t1, f.accounts[0], units.Whole(500))
	require.NoError(err)
	require.Equal(uint64(2), res.Receipt.Sequence)

	other := f.cfg
	other.Period = 2 * time.Hour
	_, err = Restore(other, f.nec, f.eth.PayerFor(f.cfg.Address), state, log.NoOp())
	require.ErrorIs(err, ErrStateMismatch)

	broken := state
	broken.Frozen = units.Whole(1)
	_, err = Restore(f.cfg, f.nec, f.eth.PayerFor(f.cfg.Address), broken, log.NoOp())
	require.ErrorIs(err, ErrStateMismatch)
}

func TestConfigValidate(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	require.NoError(cfg.Validate())

	bad := cfg
	bad.Period = 0
	require.ErrorIs(bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.BootstrapPrice = units.Zero
	require.ErrorIs(bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.Momentum = nil
	require.ErrorIs(bad.Validate(), ErrInvalidConfig)

	bad = cfg
	bad.Address = ids.EmptyAddress
	require.ErrorIs(bad.Validate(), ErrInvalidConfig)

	_, err := New(bad, nil, nil, t0, nil)
	require.ErrorIs(err, ErrInvalidConfig)
}

func TestReceiptIDsAreUnique(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)
	f.approve(2, units.Whole(5000))

	seen := make(map[ids.ID]bool)
	for i := 0; i < 5; i++ {
		res, err := f.settle(t1, 2, units.Whole(500))
		require.NoError(err)
		require.False(seen[res.Receipt.ID])
		seen[res.Receipt.ID] = true
	}
}

func TestConcurrentSettlementsNeverOversell(t *testing.T) {
	require := require.New(t)
	f := newFixture(t, nil)

	f.deposit(t0, units.Whole(10))
	t1 := t0.Add(61 * time.Minute)
	_, err := f.engine.Thaw(t1)
	require.NoError(err)
	f.approve(2, units.Whole(100000))

	numOperations := 100
	done := make(chan bool, numOperations)
	for i := 0; i < numOperations; i++ {
		go func() {
			_, err := f.settle(t1, 2, units.Whole(500))
			done <- err == nil
		}()
	}

	successCount := 0
	for i := 0; i < numOperations; i++ {
		if <-done {
			successCount++
		}
	}

	require.Equal(10, successCount)
	state := f.engine.State()
	require.True(state.Current.RemainingAvailable.IsZero())
	require.Equal(uint64(10), state.Totals.Settlements)
	require.NoError(state.CheckConservation())
}

func BenchmarkSettle(b *testing.B) {
	ctx := context.Background()
	nec := token.NewLedger("NEC")
	eth := token.NewLedger("ETH")
	caller := ids.GenerateAddress()
	cfg := DefaultConfig()

	nec.Mint(ctx, caller, units.Max())
	nec.Approve(ctx, caller, cfg.Address, units.Max())
	eth.Mint(ctx, cfg.Address, units.Whole(uint64(b.N)+1))

	engine, _ := New(cfg, nec, eth.PayerFor(cfg.Address), t0, log.NoOp())
	engine.Deposit(t0, caller, units.Whole(uint64(b.N)+1))
	t1 := t0.Add(61 * time.Minute)
	engine.Thaw(t1)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		engine.Settle(ctx, t1, caller, units.Whole(500))
	}
}
