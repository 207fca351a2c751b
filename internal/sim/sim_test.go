// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/units"
)

func TestRunConservesValue(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	cfg.Rounds = 4
	report, err := Run(context.Background(), cfg, log.NoOp())
	require.NoError(err)
	require.Len(report.Rounds, 4)

	burned := units.Zero
	var trades uint64
	for i, r := range report.Rounds {
		require.Equal(uint64(i+1), r.Number)
		burned, _ = burned.Add(r.TokensBurned)
		trades += r.Trades
	}
	require.True(burned.Eq(report.Final.Totals.Burned))
	require.Equal(report.Final.Totals.Settlements, trades)
	require.NoError(report.Final.CheckConservation())
}

func TestRunIsDeterministic(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	cfg.Rounds = 3
	a, err := Run(context.Background(), cfg, nil)
	require.NoError(err)
	b, err := Run(context.Background(), cfg, nil)
	require.NoError(err)
	require.Equal(a.Rounds, b.Rounds)

	cfg.Seed = 2
	c, err := Run(context.Background(), cfg, nil)
	require.NoError(err)
	require.NotEqual(a.Bidders[0].Address, c.Bidders[0].Address)
}

func TestRunEagerBiddersSellOut(t *testing.T) {
	require := require.New(t)

	cfg := DefaultConfig()
	cfg.Rounds = 2
	cfg.MinValuation = 10_000
	cfg.MaxValuation = 10_000
	cfg.TradeSize = 100_000
	report, err := Run(context.Background(), cfg, nil)
	require.NoError(err)

	first := report.Rounds[0]
	require.True(first.SoldOut)
	require.True(first.OpeningPrice.Eq(cfg.Engine.BootstrapPrice))

	// A sold-out round raises the next opening price under step momentum.
	step := auction.DefaultStepMomentum()
	require.True(report.Rounds[1].OpeningPrice.Eq(step.Raise.Apply(first.OpeningPrice)))
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bidders = 0
	_, err := Run(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
