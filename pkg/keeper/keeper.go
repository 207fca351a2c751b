// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package keeper thaws the engine on a cron schedule so rounds open even when
// nobody trades.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
)

// Thawer is the part of the engine the keeper drives
type Thawer interface {
	Thaw(now time.Time) (auction.Round, error)
}

// Keeper runs Thaw on a schedule
type Keeper struct {
	cron   *cron.Cron
	engine Thawer
	now    func() time.Time
	log    log.Logger
}

// New registers the thaw job under schedule (standard five-field cron or a
// descriptor such as "@every 1m")
func New(engine Thawer, schedule string, now func() time.Time, logger log.Logger) (*Keeper, error) {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.NoOp()
	}
	k := &Keeper{
		cron:   cron.New(),
		engine: engine,
		now:    now,
		log:    logger.With(log.String("component", "keeper")),
	}
	if _, err := k.cron.AddFunc(schedule, func() { k.Tick() }); err != nil {
		return nil, fmt.Errorf("register thaw job: %w", err)
	}
	return k, nil
}

// Start starts the cron scheduler
func (k *Keeper) Start() {
	k.cron.Start()
	k.log.Info("keeper started")
}

// Stop stops the scheduler and waits for a running tick, or ctx
func (k *Keeper) Stop(ctx context.Context) error {
	done := k.cron.Stop()
	select {
	case <-done.Done():
		k.log.Info("keeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick attempts one thaw. Early and empty thaws are expected and not
// reported as errors.
func (k *Keeper) Tick() (opened bool, err error) {
	round, err := k.engine.Thaw(k.now())
	switch {
	case err == nil:
		k.log.Info("keeper opened round",
			log.Uint64("round", round.Number),
			log.String("available", round.InitialAvailable.Format()),
		)
		return true, nil
	case errors.Is(err, settlement.ErrThawTooEarly), errors.Is(err, settlement.ErrNothingToThaw):
		k.log.Debug("keeper skipped thaw", log.Error(err))
		return false, nil
	default:
		k.log.Error("keeper thaw failed", log.Error(err))
		return false, err
	}
}
