// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/burnengine/pkg/api"
	"github.com/luxfi/burnengine/pkg/config"
	"github.com/luxfi/burnengine/pkg/keeper"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/metric"
	"github.com/luxfi/burnengine/pkg/recorder"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/storage"
	"github.com/luxfi/burnengine/pkg/token"
)

var (
	configFile = flag.String("config", "", "Path to YAML config file")
	logLevel   = flag.String("log-level", "", "Log level override (debug, info, warn, error)")

	// Version info
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Daemon owns the engine and every service attached to it
type Daemon struct {
	cfg *config.Config

	Engine   *settlement.Engine
	Tokens   *token.Ledger
	Currency *token.Ledger

	store    *storage.Storage
	recorder recorder.Recorder
	keeper   *keeper.Keeper
	server   *api.Server

	log log.Logger
}

func main() {
	flag.Parse()

	fmt.Printf("Burn engine daemon (engined) %s (commit: %s, built: %s)\n", Version, GitCommit, BuildTime)

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := log.NewWithLevel(cfg.Log.Level)
	defer logger.Sync()

	ctx := context.Background()
	d, err := NewDaemon(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create daemon", log.Error(err))
	}
	d.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := d.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", log.Error(err))
	}
	fmt.Println("Daemon stopped")
}

// NewDaemon opens storage, restores or creates the engine and attaches
// observers in commit order: snapshot first, then history, metrics and the
// websocket stream.
func NewDaemon(ctx context.Context, cfg *config.Config, logger log.Logger) (*Daemon, error) {
	engineCfg, err := cfg.Engine.Settlement()
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStorage(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	rec, err := recorder.Open(ctx, cfg.Recorder.Driver, cfg.Recorder.DSN, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open recorder: %w", err)
	}

	metrics, err := metric.NewMetrics()
	if err != nil {
		rec.Close()
		store.Close()
		return nil, err
	}
	hub := api.NewHub(cfg.Server.StreamBuffer, logger)

	d := &Daemon{
		cfg:      cfg,
		Tokens:   token.NewLedger("TOKEN"),
		Currency: token.NewLedger("BASE"),
		store:    store,
		recorder: rec,
		log:      logger,
	}

	opts := []settlement.Option{
		settlement.WithObserver(storage.NewSnapshotter(store, logger)),
		settlement.WithObserver(recorder.NewObserver(rec, logger)),
		settlement.WithObserver(metrics),
		settlement.WithObserver(hub),
	}
	payer := d.Currency.PayerFor(engineCfg.Address)

	state, ok, err := storage.LoadState(store)
	switch {
	case err != nil:
		d.close()
		return nil, fmt.Errorf("load state: %w", err)
	case ok:
		// The ledgers live in process memory; give the engine back the
		// currency its restored state says it holds.
		held, _ := state.Frozen.Add(state.Current.RemainingAvailable)
		if !held.IsZero() {
			if err := d.Currency.Mint(ctx, engineCfg.Address, held); err != nil {
				d.close()
				return nil, err
			}
		}
		d.Engine, err = settlement.Restore(engineCfg, d.Tokens, payer, state, logger, opts...)
	default:
		d.Engine, err = settlement.New(engineCfg, d.Tokens, payer, time.Now(), logger, opts...)
	}
	if err != nil {
		d.close()
		return nil, err
	}
	metrics.Observe(d.Engine.State())

	if cfg.Keeper.Enabled {
		if d.keeper, err = keeper.New(d.Engine, cfg.Keeper.Schedule, time.Now, logger); err != nil {
			d.close()
			return nil, err
		}
	}

	serverOpts := []api.Option{
		api.WithMetrics(metrics),
		api.WithHub(hub),
		api.WithLogger(logger),
	}
	if cfg.Recorder.Driver != recorder.DriverNoop {
		serverOpts = append(serverOpts, api.WithRecorder(rec))
	}
	d.server = api.NewServer(api.Config{
		Listen:       cfg.Server.Listen,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Faucet:       cfg.Server.Faucet,
	}, d.Engine, d.Tokens, d.Currency, serverOpts...)

	if cfg.Server.Faucet {
		logger.Warn("faucet enabled; tokens can be minted over HTTP")
	}
	return d, nil
}

// Start launches the HTTP server and the keeper
func (d *Daemon) Start() {
	d.server.Start()
	if d.keeper != nil {
		d.keeper.Start()
	}
}

// Shutdown stops intake, then persists a final snapshot and closes storage
func (d *Daemon) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := d.server.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if d.keeper != nil {
		if err := d.keeper.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := storage.NewSnapshotter(d.store, d.log).SaveState(d.Engine.State()); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (d *Daemon) close() error {
	var firstErr error
	if err := d.recorder.Close(); err != nil {
		firstErr = err
	}
	if err := d.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
