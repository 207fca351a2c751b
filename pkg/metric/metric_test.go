// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/units"
)

func TestObserverUpdatesCollectors(t *testing.T) {
	require := require.New(t)

	m, err := NewMetrics()
	require.NoError(err)

	state := settlement.State{
		Frozen: units.Whole(3),
		Current: auction.Round{
			Number:             4,
			OpeningPrice:       units.Whole(500),
			RemainingAvailable: units.MustParse("2.5"),
		},
		Totals: settlement.Totals{Deposited: units.Whole(7), PaidOut: units.MustParse("1.5")},
	}

	m.OnDeposit(settlement.DepositEvent{State: state})
	m.OnThaw(settlement.ThawEvent{Auto: true, State: state})
	m.OnThaw(settlement.ThawEvent{State: state})
	m.OnSettle(settlement.SettleEvent{Receipt: settlement.Receipt{Multiplier: 175}, State: state})
	m.OnReject(settlement.RejectEvent{Op: settlement.OpThaw, Err: settlement.ErrThawTooEarly})
	m.OnReject(settlement.RejectEvent{Op: settlement.OpSettle, Err: fmt.Errorf("burn: %w", settlement.ErrInsufficientBalance)})

	require.Equal(1.0, testutil.ToFloat64(m.Deposits))
	require.Equal(1.0, testutil.ToFloat64(m.Thaws.WithLabelValues("settle")))
	require.Equal(1.0, testutil.ToFloat64(m.Thaws.WithLabelValues("manual")))
	require.Equal(1.0, testutil.ToFloat64(m.Settlements))
	require.Equal(1.0, testutil.ToFloat64(m.Rejections.WithLabelValues(settlement.OpThaw, "thaw_too_early")))
	require.Equal(1.0, testutil.ToFloat64(m.Rejections.WithLabelValues(settlement.OpSettle, "insufficient_balance")))

	require.Equal(3.0, testutil.ToFloat64(m.Frozen))
	require.Equal(4.0, testutil.ToFloat64(m.Round))
	require.Equal(2.5, testutil.ToFloat64(m.RoundRemaining))
	require.Equal(500.0, testutil.ToFloat64(m.RoundOpeningPx))
	require.Equal(1.5, testutil.ToFloat64(m.PaidOutTotal))
}

func TestObserveRequest(t *testing.T) {
	require := require.New(t)

	m, err := NewMetrics()
	require.NoError(err)

	m.ObserveRequest("/v1/settle", "POST", "200", 5*time.Millisecond)
	m.ObserveRequest("/v1/settle", "POST", "409", time.Millisecond)
	require.Equal(1.0, testutil.ToFloat64(m.RequestsProcessed.WithLabelValues("/v1/settle", "POST", "409")))

	families, err := m.GetGatherer().Gather()
	require.NoError(err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(names["burnengine_api_request_latency_seconds"])
	require.True(names["burnengine_settlements_total"])
}

func TestReason(t *testing.T) {
	require := require.New(t)

	require.Equal("nothing_to_thaw", Reason(settlement.ErrNothingToThaw))
	require.Equal("round_expired", Reason(settlement.ErrRoundExpired))
	require.Equal("other", Reason(fmt.Errorf("boom")))
}
