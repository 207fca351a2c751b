// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads daemon configuration from YAML and ENGINE_*
// environment variables.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/units"
)

// EnvPrefix namespaces environment overrides, e.g. ENGINE_ENGINE_PERIOD.
const EnvPrefix = "ENGINE"

type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Recorder RecorderConfig `mapstructure:"recorder"`
	Keeper   KeeperConfig   `mapstructure:"keeper"`
	Log      LogConfig      `mapstructure:"log"`
}

// EngineConfig maps onto settlement.Config
type EngineConfig struct {
	Period time.Duration `mapstructure:"period"`

	// BootstrapPrice is in human units, e.g. "500".
	BootstrapPrice string `mapstructure:"bootstrap_price"`

	// Momentum is "step" or "clearing".
	Momentum       string        `mapstructure:"momentum"`
	Raise          auction.Ratio `mapstructure:"raise"`
	Lower          auction.Ratio `mapstructure:"lower"`
	ClearingFactor auction.Ratio `mapstructure:"clearing_factor"`

	Rollover     bool   `mapstructure:"rollover"`
	HistoryLimit int    `mapstructure:"history_limit"`
	Address      string `mapstructure:"address"`
}

type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// StreamBuffer is the per-subscriber websocket queue length.
	StreamBuffer int `mapstructure:"stream_buffer"`

	// Faucet enables POST /v1/faucet for local test networks.
	Faucet bool `mapstructure:"faucet"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type RecorderConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type KeeperConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads path (if non-empty) and applies environment overrides
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return decode(v)
}

// Read parses YAML from r and applies environment overrides
func Read(r io.Reader) (*Config, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MomentumPolicy builds the configured policy
func (e EngineConfig) MomentumPolicy() (auction.MomentumPolicy, error) {
	switch e.Momentum {
	case auction.MomentumStep:
		return auction.StepMomentum{Raise: e.Raise, Lower: e.Lower}, nil
	case auction.MomentumClearing:
		return auction.ClearingMomentum{Factor: e.ClearingFactor}, nil
	default:
		return nil, fmt.Errorf("engine.momentum: unknown policy %q", e.Momentum)
	}
}

// Settlement converts the engine section into a settlement.Config
func (e EngineConfig) Settlement() (settlement.Config, error) {
	price, err := units.Parse(e.BootstrapPrice)
	if err != nil {
		return settlement.Config{}, fmt.Errorf("engine.bootstrap_price: %w", err)
	}
	momentum, err := e.MomentumPolicy()
	if err != nil {
		return settlement.Config{}, err
	}
	addr := settlement.DefaultAddress
	if e.Address != "" {
		if addr, err = ids.AddressFromString(e.Address); err != nil {
			return settlement.Config{}, fmt.Errorf("engine.address: %w", err)
		}
	}

	cfg := settlement.Config{
		Period:         e.Period,
		BootstrapPrice: price,
		Momentum:       momentum,
		Rollover:       e.Rollover,
		HistoryLimit:   e.HistoryLimit,
		Address:        addr,
	}
	return cfg, cfg.Validate()
}
