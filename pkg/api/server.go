// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the engine over HTTP and a websocket event stream.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/metric"
	"github.com/luxfi/burnengine/pkg/recorder"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/token"
)

// Config controls the HTTP listener
type Config struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Faucet enables POST /v1/faucet, which mints tokens on request.
	Faucet bool
}

// Server serves the engine API
type Server struct {
	cfg      Config
	engine   *settlement.Engine
	tokens   *token.Ledger
	currency *token.Ledger

	metrics  *metric.Metrics
	hub      *Hub
	recorder recorder.Recorder
	now      func() time.Time
	log      log.Logger

	router     *mux.Router
	httpServer *http.Server
}

// Option customizes a Server
type Option func(*Server)

// WithMetrics records request metrics and serves /metrics
func WithMetrics(m *metric.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHub serves the websocket event stream from h
func WithHub(h *Hub) Option {
	return func(s *Server) {
		s.hub = h
	}
}

// WithRecorder serves trade history from r
func WithRecorder(r recorder.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithClock overrides the time source handed to the engine
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithLogger(l log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l.With(log.String("component", "api"))
		}
	}
}

// NewServer wires the routes. tokens is the burnable token ledger and
// currency the base currency ledger the engine pays out of.
func NewServer(cfg Config, engine *settlement.Engine, tokens, currency *token.Ledger, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		tokens:   tokens,
		currency: currency,
		now:      time.Now,
		log:      log.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(withRequestID, s.instrument)

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetGatherer(), promhttp.HandlerOpts{})).Methods("GET")
	}

	v1 := r.PathPrefix("/v1").Subrouter()

	// Engine operations
	v1.HandleFunc("/deposit", s.handleDeposit).Methods("POST")
	v1.HandleFunc("/thaw", s.handleThaw).Methods("POST")
	v1.HandleFunc("/settle", s.handleSettle).Methods("POST")

	// Oracle
	v1.HandleFunc("/auction/current", s.handleCurrentAuction).Methods("GET")
	v1.HandleFunc("/auction/next", s.handleNextAuction).Methods("GET")
	v1.HandleFunc("/auction/next-price", s.handleNextPrice).Methods("GET")

	// History
	v1.HandleFunc("/rounds", s.handleRounds).Methods("GET")
	v1.HandleFunc("/rounds/{number:[0-9]+}", s.handleRound).Methods("GET")
	v1.HandleFunc("/rounds/{number:[0-9]+}/trades", s.handleTrades).Methods("GET")
	v1.HandleFunc("/state", s.handleState).Methods("GET")

	// Token ledger
	v1.HandleFunc("/accounts/{address}", s.handleAccount).Methods("GET")
	v1.HandleFunc("/approve", s.handleApprove).Methods("POST")
	if s.cfg.Faucet {
		v1.HandleFunc("/faucet", s.handleFaucet).Methods("POST")
	}

	if s.hub != nil {
		v1.Handle("/stream", s.hub).Methods("GET")
	}
	return r
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background
func (s *Server) Start() {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		s.log.Info("HTTP server listening", log.String("addr", s.cfg.Listen))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", log.Error(err))
		}
	}()
}

// Shutdown stops accepting requests and disconnects stream subscribers
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
