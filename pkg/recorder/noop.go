// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package recorder

import (
	"context"

	"github.com/luxfi/burnengine/pkg/settlement"
)

// NoopRecorder is used when no history database is configured
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (*NoopRecorder) RecordDeposit(context.Context, settlement.DepositEvent) error { return nil }
func (*NoopRecorder) RecordThaw(context.Context, settlement.ThawEvent) error       { return nil }
func (*NoopRecorder) RecordTrade(context.Context, settlement.Receipt) error        { return nil }
func (*NoopRecorder) Close() error                                                 { return nil }

func (*NoopRecorder) Trades(context.Context, uint64, int) ([]settlement.Receipt, error) {
	return nil, nil
}
