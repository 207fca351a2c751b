// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
)

// SQLiteRecorder persists history to a SQLite database
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations
func NewSQLiteRecorder(path string, logger log.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = log.NoOp()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query while the engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", log.String("path", path))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deposits (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			source    TEXT NOT NULL,
			amount    TEXT NOT NULL,
			frozen    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_ts ON deposits(timestamp)`,

		`CREATE TABLE IF NOT EXISTS rounds (
			number            INTEGER PRIMARY KEY,
			start_time        INTEGER NOT NULL,
			opening_price     TEXT NOT NULL,
			initial_available TEXT NOT NULL,
			remaining         TEXT,
			trades            INTEGER,
			tokens_burned     TEXT,
			last_price        TEXT,
			closed_at         INTEGER,
			auto_opened       INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS trades (
			sequence   INTEGER PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			round      INTEGER NOT NULL,
			caller     TEXT NOT NULL,
			tokens_in  TEXT NOT NULL,
			payout     TEXT NOT NULL,
			price      TEXT NOT NULL,
			multiplier INTEGER NOT NULL,
			remaining  TEXT NOT NULL,
			timestamp  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_round ON trades(round)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordDeposit(ctx context.Context, ev settlement.DepositEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deposits (timestamp, source, amount, frozen) VALUES (?, ?, ?, ?)`,
		ev.Time.UnixNano(), ev.From.String(), ev.Amount.String(), ev.State.Frozen.String(),
	)
	return err
}

func (r *SQLiteRecorder) RecordThaw(ctx context.Context, ev settlement.ThawEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertClosed(ctx, tx, ev.Closed); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rounds (number, start_time, opening_price, initial_available, auto_opened)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.Opened.Number, ev.Opened.StartTime.UnixNano(), ev.Opened.OpeningPrice.String(),
		ev.Opened.InitialAvailable.String(), ev.Auto,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// upsertClosed fills in the outcome of the closing round. The genesis round
// never had an opening row, so it is inserted here.
func upsertClosed(ctx context.Context, tx *sql.Tx, c auction.Round) error {
	var closedAt int64
	if c.ClosedAt != nil {
		closedAt = c.ClosedAt.UnixNano()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO rounds (number, start_time, opening_price, initial_available,
		                     remaining, trades, tokens_burned, last_price, closed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(number) DO UPDATE SET
		   remaining = excluded.remaining,
		   trades = excluded.trades,
		   tokens_burned = excluded.tokens_burned,
		   last_price = excluded.last_price,
		   closed_at = excluded.closed_at`,
		c.Number, c.StartTime.UnixNano(), c.OpeningPrice.String(), c.InitialAvailable.String(),
		c.RemainingAvailable.String(), c.Trades, c.TokensBurned.String(), c.LastClearingPrice.String(), closedAt,
	)
	return err
}

func (r *SQLiteRecorder) RecordTrade(ctx context.Context, rc settlement.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trades (sequence, id, round, caller, tokens_in, payout, price, multiplier, remaining, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sequence) DO NOTHING`,
		rc.Sequence, rc.ID.String(), rc.Round, rc.Caller.String(), rc.TokensIn.String(), rc.Payout.String(),
		rc.Price.String(), rc.Multiplier, rc.Remaining.String(), rc.Time.UnixNano(),
	)
	return err
}

func (r *SQLiteRecorder) Trades(ctx context.Context, round uint64, limit int) ([]settlement.Receipt, error) {
	query := `SELECT id, sequence, round, caller, tokens_in, payout, price, multiplier, remaining, timestamp
	          FROM trades WHERE round = ? ORDER BY sequence`
	args := []any{round}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Receipt
	for rows.Next() {
		var (
			row receiptRow
			ts  int64
		)
		if err := rows.Scan(&row.id, &row.sequence, &row.round, &row.caller, &row.tokensIn,
			&row.payout, &row.price, &row.multiplier, &row.remaining, &ts); err != nil {
			return nil, err
		}
		row.at = time.Unix(0, ts)
		rc, err := row.receipt()
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Close closes the database
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
