// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/recorder"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/storage"
)

// Default values for optional configuration fields.
const (
	DefaultBootstrapPrice  = "500"
	DefaultListen          = ":8000"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultStreamBuffer    = 64
	DefaultStoragePath     = "/tmp/burnengine"
	DefaultKeeperSchedule  = "@every 1m"
	DefaultLogLevel        = "info"
)

func setDefaults(v *viper.Viper) {
	step := auction.DefaultStepMomentum()
	clearing := auction.DefaultClearingMomentum()

	v.SetDefault("engine.period", settlement.DefaultPeriod)
	v.SetDefault("engine.bootstrap_price", DefaultBootstrapPrice)
	v.SetDefault("engine.momentum", auction.MomentumStep)
	v.SetDefault("engine.raise.num", step.Raise.Num)
	v.SetDefault("engine.raise.den", step.Raise.Den)
	v.SetDefault("engine.lower.num", step.Lower.Num)
	v.SetDefault("engine.lower.den", step.Lower.Den)
	v.SetDefault("engine.clearing_factor.num", clearing.Factor.Num)
	v.SetDefault("engine.clearing_factor.den", clearing.Factor.Den)
	v.SetDefault("engine.rollover", true)
	v.SetDefault("engine.history_limit", auction.DefaultHistoryLimit)
	v.SetDefault("engine.address", "")

	v.SetDefault("server.listen", DefaultListen)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.stream_buffer", DefaultStreamBuffer)
	v.SetDefault("server.faucet", false)

	v.SetDefault("storage.backend", storage.BackendBadger)
	v.SetDefault("storage.path", DefaultStoragePath)

	v.SetDefault("recorder.driver", recorder.DriverNoop)
	v.SetDefault("recorder.dsn", "")

	v.SetDefault("keeper.enabled", true)
	v.SetDefault("keeper.schedule", DefaultKeeperSchedule)

	v.SetDefault("log.level", DefaultLogLevel)
}

// Default returns the configuration used when no file or environment
// overrides are present
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}
