// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package recorder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
)

// PostgresRecorder persists history to Postgres through a pgx pool
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects, pings and migrates
func NewPostgresRecorder(ctx context.Context, connStr string, logger log.Logger) (*PostgresRecorder, error) {
	if logger == nil {
		logger = log.NoOp()
	}
	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("postgres recorder opened",
		log.String("host", poolCfg.ConnConfig.Host),
		log.String("database", poolCfg.ConnConfig.Database),
	)
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS deposits (
			id        BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			source    TEXT NOT NULL,
			amount    NUMERIC(78, 0) NOT NULL,
			frozen    NUMERIC(78, 0) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposits_ts ON deposits(timestamp)`,

		`CREATE TABLE IF NOT EXISTS rounds (
			number            BIGINT PRIMARY KEY,
			start_time        TIMESTAMPTZ NOT NULL,
			opening_price     NUMERIC(78, 0) NOT NULL,
			initial_available NUMERIC(78, 0) NOT NULL,
			remaining         NUMERIC(78, 0),
			trades            BIGINT,
			tokens_burned     NUMERIC(78, 0),
			last_price        NUMERIC(78, 0),
			closed_at         TIMESTAMPTZ,
			auto_opened       BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		`CREATE TABLE IF NOT EXISTS trades (
			sequence   BIGINT PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			round      BIGINT NOT NULL,
			caller     TEXT NOT NULL,
			tokens_in  NUMERIC(78, 0) NOT NULL,
			payout     NUMERIC(78, 0) NOT NULL,
			price      NUMERIC(78, 0) NOT NULL,
			multiplier INTEGER NOT NULL,
			remaining  NUMERIC(78, 0) NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_round ON trades(round)`,
	}

	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordDeposit(ctx context.Context, ev settlement.DepositEvent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deposits (timestamp, source, amount, frozen) VALUES ($1, $2, $3::numeric, $4::numeric)`,
		ev.Time, ev.From.String(), ev.Amount.String(), ev.State.Frozen.String(),
	)
	return err
}

// RecordThaw closes the old round and opens the new one in a single batch.
func (r *PostgresRecorder) RecordThaw(ctx context.Context, ev settlement.ThawEvent) error {
	c, o := ev.Closed, ev.Opened

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO rounds (number, start_time, opening_price, initial_available,
		                     remaining, trades, tokens_burned, last_price, closed_at)
		 VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7::numeric, $8::numeric, $9)
		 ON CONFLICT (number) DO UPDATE SET
		   remaining = EXCLUDED.remaining,
		   trades = EXCLUDED.trades,
		   tokens_burned = EXCLUDED.tokens_burned,
		   last_price = EXCLUDED.last_price,
		   closed_at = EXCLUDED.closed_at`,
		int64(c.Number), c.StartTime, c.OpeningPrice.String(), c.InitialAvailable.String(),
		c.RemainingAvailable.String(), int64(c.Trades), c.TokensBurned.String(), c.LastClearingPrice.String(), c.ClosedAt,
	)
	batch.Queue(
		`INSERT INTO rounds (number, start_time, opening_price, initial_available, auto_opened)
		 VALUES ($1, $2, $3::numeric, $4::numeric, $5)`,
		int64(o.Number), o.StartTime, o.OpeningPrice.String(), o.InitialAvailable.String(), ev.Auto,
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresRecorder) RecordTrade(ctx context.Context, rc settlement.Receipt) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO trades (sequence, id, round, caller, tokens_in, payout, price, multiplier, remaining, timestamp)
		 VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric, $8, $9::numeric, $10)
		 ON CONFLICT (sequence) DO NOTHING`,
		int64(rc.Sequence), rc.ID.String(), int64(rc.Round), rc.Caller.String(), rc.TokensIn.String(),
		rc.Payout.String(), rc.Price.String(), int64(rc.Multiplier), rc.Remaining.String(), rc.Time,
	)
	return err
}

func (r *PostgresRecorder) Trades(ctx context.Context, round uint64, limit int) ([]settlement.Receipt, error) {
	query := `SELECT id, sequence, round, caller, tokens_in::text, payout::text, price::text,
	                 multiplier, remaining::text, timestamp
	          FROM trades WHERE round = $1 ORDER BY sequence`
	args := []any{int64(round)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []settlement.Receipt
	for rows.Next() {
		var row receiptRow
		if err := rows.Scan(&row.id, &row.sequence, &row.round, &row.caller, &row.tokensIn,
			&row.payout, &row.price, &row.multiplier, &row.remaining, &row.at); err != nil {
			return nil, err
		}
		rc, err := row.receipt()
		if err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Close releases the pool
func (r *PostgresRecorder) Close() error {
	r.pool.Close()
	return nil
}
