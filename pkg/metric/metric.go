// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/units"
)

const namespace = "burnengine"

var _ settlement.Observer = (*Metrics)(nil)

// Metrics holds the engine's prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// Engine metrics
	Deposits    prometheus.Counter
	Thaws       *prometheus.CounterVec
	Settlements prometheus.Counter
	Rejections  *prometheus.CounterVec

	// Value metrics
	DepositedTotal prometheus.Gauge
	PaidOutTotal   prometheus.Gauge
	BurnedTotal    prometheus.Gauge
	StrandedTotal  prometheus.Gauge

	// Round metrics
	Frozen           prometheus.Gauge
	Round            prometheus.Gauge
	RoundRemaining   prometheus.Gauge
	RoundOpeningPx   prometheus.Gauge
	LastClearingPx   prometheus.Gauge
	SettleMultiplier prometheus.Histogram

	// API metrics
	RequestsProcessed *prometheus.CounterVec
	RequestLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers the engine collectors
func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.Deposits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "deposits_total",
		Help: "Total number of fee deposits accepted",
	})
	m.Thaws = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "thaws_total",
		Help: "Total number of rounds opened by trigger",
	}, []string{"trigger"})
	m.Settlements = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "settlements_total",
		Help: "Total number of completed settlements",
	})
	m.Rejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "rejections_total",
		Help: "Total number of rejected operations by operation and reason",
	}, []string{"op", "reason"})

	m.DepositedTotal = newGauge("deposited", "Lifetime base currency deposited")
	m.PaidOutTotal = newGauge("paid_out", "Lifetime base currency paid out")
	m.BurnedTotal = newGauge("burned", "Lifetime tokens burned")
	m.StrandedTotal = newGauge("stranded", "Lifetime base currency retired unsold")
	m.Frozen = newGauge("frozen", "Base currency waiting for the next thaw")
	m.Round = newGauge("round", "Number of the active round")
	m.RoundRemaining = newGauge("round_remaining", "Base currency left in the active round")
	m.RoundOpeningPx = newGauge("round_opening_price", "Opening price of the active round")
	m.LastClearingPx = newGauge("last_clearing_price", "Price of the most recent settlement")

	m.SettleMultiplier = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "settle_multiplier_percent",
		Help:    "Decay multiplier at which settlements execute",
		Buckets: prometheus.LinearBuckets(25, 25, 8),
	})

	m.RequestsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "api_requests_processed_total",
		Help: "Total number of API requests processed",
	}, []string{"route", "method", "status"})
	m.RequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "api_request_latency_seconds",
		Help:    "Time to serve an API request",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	for _, c := range []prometheus.Collector{
		m.Deposits, m.Thaws, m.Settlements, m.Rejections,
		m.DepositedTotal, m.PaidOutTotal, m.BurnedTotal, m.StrandedTotal,
		m.Frozen, m.Round, m.RoundRemaining, m.RoundOpeningPx, m.LastClearingPx,
		m.SettleMultiplier, m.RequestsProcessed, m.RequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

// GetGatherer returns the prometheus gatherer for metrics export
func (m *Metrics) GetGatherer() prometheus.Gatherer {
	return m.registry
}

// GetRegisterer returns the prometheus registerer
func (m *Metrics) GetRegisterer() prometheus.Registerer {
	return m.registry
}

// ObserveRequest records one served API request
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	m.RequestsProcessed.WithLabelValues(route, method, status).Inc()
	m.RequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Observe sets the state gauges from a snapshot
func (m *Metrics) Observe(s settlement.State) {
	m.DepositedTotal.Set(toFloat(s.Totals.Deposited))
	m.PaidOutTotal.Set(toFloat(s.Totals.PaidOut))
	m.BurnedTotal.Set(toFloat(s.Totals.Burned))
	m.StrandedTotal.Set(toFloat(s.Totals.Stranded))
	m.Frozen.Set(toFloat(s.Frozen))
	m.Round.Set(float64(s.Current.Number))
	m.RoundRemaining.Set(toFloat(s.Current.RemainingAvailable))
	m.RoundOpeningPx.Set(toFloat(s.Current.OpeningPrice))
	m.LastClearingPx.Set(toFloat(s.Current.LastClearingPrice))
}

// OnDeposit implements settlement.Observer
func (m *Metrics) OnDeposit(ev settlement.DepositEvent) {
	m.Deposits.Inc()
	m.Observe(ev.State)
}

// OnThaw implements settlement.Observer
func (m *Metrics) OnThaw(ev settlement.ThawEvent) {
	trigger := "manual"
	if ev.Auto {
		trigger = "settle"
	}
	m.Thaws.WithLabelValues(trigger).Inc()
	m.Observe(ev.State)
}

// OnSettle implements settlement.Observer
func (m *Metrics) OnSettle(ev settlement.SettleEvent) {
	m.Settlements.Inc()
	m.SettleMultiplier.Observe(float64(ev.Receipt.Multiplier))
	m.Observe(ev.State)
}

// OnReject implements settlement.Observer
func (m *Metrics) OnReject(ev settlement.RejectEvent) {
	m.Rejections.WithLabelValues(ev.Op, Reason(ev.Err)).Inc()
}

var reasons = []struct {
	err  error
	name string
}{
	{settlement.ErrThawTooEarly, "thaw_too_early"},
	{settlement.ErrNothingToThaw, "nothing_to_thaw"},
	{settlement.ErrRoundExpired, "round_expired"},
	{settlement.ErrNoSupplyRemaining, "no_supply_remaining"},
	{settlement.ErrExceedsRemainingSupply, "exceeds_remaining_supply"},
	{settlement.ErrInsufficientBalance, "insufficient_balance"},
	{settlement.ErrInsufficientAllowance, "insufficient_allowance"},
	{settlement.ErrInvalidAmount, "invalid_amount"},
	{settlement.ErrPayoutTooSmall, "payout_too_small"},
	{settlement.ErrZeroPrice, "zero_price"},
	{settlement.ErrOverflow, "overflow"},
}

// Reason maps an engine error to a low-cardinality label
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "other"
}

// toFloat converts an amount to human units for gauges.
func toFloat(a units.Amount) float64 {
	f, _ := a.Decimal().Float64()
	return f
}
