// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/recorder"
	"github.com/luxfi/burnengine/pkg/storage"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if err := c.Engine.validate(); err != nil {
		return err
	}

	if c.Server.Listen == "" {
		return errors.New("server.listen is required")
	}
	if c.Server.StreamBuffer < 1 {
		return errors.New("server.stream_buffer must be >= 1")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}

	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendBadger:
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the badger backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", storage.BackendMemory, storage.BackendBadger, c.Storage.Backend)
	}

	switch c.Recorder.Driver {
	case recorder.DriverNoop:
	case recorder.DriverSQLite, recorder.DriverPostgres:
		if c.Recorder.DSN == "" {
			return fmt.Errorf("recorder.dsn is required for the %s driver", c.Recorder.Driver)
		}
	default:
		return fmt.Errorf("recorder.driver: unknown driver %q", c.Recorder.Driver)
	}

	if c.Keeper.Enabled {
		if _, err := cron.ParseStandard(c.Keeper.Schedule); err != nil {
			return fmt.Errorf("keeper.schedule: %w", err)
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

func (e EngineConfig) validate() error {
	if e.Period <= 0 {
		return fmt.Errorf("engine.period must be positive, got %s", e.Period)
	}
	if e.HistoryLimit < 0 {
		return errors.New("engine.history_limit must be >= 0")
	}

	switch e.Momentum {
	case auction.MomentumStep:
		if !e.Raise.Valid() || !e.Lower.Valid() {
			return fmt.Errorf("engine.raise and engine.lower must be positive ratios, got %s and %s", e.Raise, e.Lower)
		}
	case auction.MomentumClearing:
		if !e.ClearingFactor.Valid() {
			return fmt.Errorf("engine.clearing_factor must be a positive ratio, got %s", e.ClearingFactor)
		}
	default:
		return fmt.Errorf("engine.momentum must be %q or %q, got %q", auction.MomentumStep, auction.MomentumClearing, e.Momentum)
	}

	if _, err := e.Settlement(); err != nil {
		return err
	}
	return nil
}
