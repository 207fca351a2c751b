// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnengine/pkg/config"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/storage"
	"github.com/luxfi/burnengine/pkg/units"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Storage.Backend = storage.BackendBadger
	cfg.Storage.Path = t.TempDir()
	cfg.Keeper.Enabled = false
	cfg.Server.Listen = "127.0.0.1:0"
	return cfg
}

func TestDaemonRestoresEngine(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	cfg := testConfig(t)

	d, err := NewDaemon(ctx, cfg, log.NoOp())
	require.NoError(err)

	require.NoError(d.Currency.Mint(ctx, d.Engine.Address(), units.Whole(4)))
	_, err = d.Engine.Deposit(time.Now(), ids.GenerateAddress(), units.Whole(4))
	require.NoError(err)
	before := d.Engine.State()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(d.Shutdown(shutdownCtx))

	d, err = NewDaemon(ctx, cfg, log.NoOp())
	require.NoError(err)
	defer d.Shutdown(shutdownCtx)

	after := d.Engine.State()
	require.Equal(before.Sequence, after.Sequence)
	require.True(after.Frozen.Eq(units.Whole(4)))
	require.True(after.LastThaw.Equal(before.LastThaw))

	held, err := d.Currency.BalanceOf(ctx, d.Engine.Address())
	require.NoError(err)
	require.True(held.Eq(units.Whole(4)))
}

func TestDaemonKeeperSchedule(t *testing.T) {
	require := require.New(t)
	cfg := testConfig(t)
	cfg.Storage.Backend = storage.BackendMemory
	cfg.Keeper.Enabled = true

	d, err := NewDaemon(context.Background(), cfg, log.NoOp())
	require.NoError(err)
	require.NotNil(d.keeper)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(d.Shutdown(ctx))
}
