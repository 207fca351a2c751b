// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package recorder keeps an append-only history of engine activity in a SQL
// database for analysis outside the engine.
package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
)

// Driver names accepted by Open
const (
	DriverNoop     = "noop"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Recorder persists engine history
type Recorder interface {
	RecordDeposit(ctx context.Context, ev settlement.DepositEvent) error
	RecordThaw(ctx context.Context, ev settlement.ThawEvent) error
	RecordTrade(ctx context.Context, r settlement.Receipt) error

	// Trades returns receipts for round in sequence order. A limit of zero
	// means no limit.
	Trades(ctx context.Context, round uint64, limit int) ([]settlement.Receipt, error)

	Close() error
}

// Open returns the recorder for driver. dsn is a file path for sqlite and a
// connection string for postgres.
func Open(ctx context.Context, driver, dsn string, logger log.Logger) (Recorder, error) {
	switch driver {
	case "", DriverNoop:
		return NewNoopRecorder(), nil
	case DriverSQLite:
		return NewSQLiteRecorder(dsn, logger)
	case DriverPostgres:
		return NewPostgresRecorder(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unknown recorder driver %q", driver)
	}
}

// Observer feeds engine events into a Recorder. Write failures are logged;
// the engine has already committed.
type Observer struct {
	settlement.NopObserver

	rec     Recorder
	timeout time.Duration
	log     log.Logger
}

// NewObserver adapts rec to settlement.Observer
func NewObserver(rec Recorder, logger log.Logger) *Observer {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Observer{rec: rec, timeout: 5 * time.Second, log: logger}
}

func (o *Observer) OnDeposit(ev settlement.DepositEvent) {
	o.do("deposit", func(ctx context.Context) error { return o.rec.RecordDeposit(ctx, ev) })
}

func (o *Observer) OnThaw(ev settlement.ThawEvent) {
	o.do("thaw", func(ctx context.Context) error { return o.rec.RecordThaw(ctx, ev) })
}

func (o *Observer) OnSettle(ev settlement.SettleEvent) {
	o.do("trade", func(ctx context.Context) error { return o.rec.RecordTrade(ctx, ev.Receipt) })
}

func (o *Observer) do(kind string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		o.log.Warn("failed to record history", log.String("kind", kind), log.Error(err))
	}
}
