// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"time"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/units"
)

// Amounts travel as base-unit decimal strings.

type DepositRequest struct {
	From   ids.Address  `json:"from"`
	Amount units.Amount `json:"amount"`
}

type DepositResponse struct {
	Frozen units.Amount `json:"frozen"`
}

type SettleRequest struct {
	Caller      ids.Address  `json:"caller"`
	TokenAmount units.Amount `json:"token_amount"`
}

type ApproveRequest struct {
	Owner  ids.Address  `json:"owner"`
	Amount units.Amount `json:"amount"`
}

type FaucetRequest struct {
	To     ids.Address  `json:"to"`
	Amount units.Amount `json:"amount"`
}

type AccountResponse struct {
	Address   ids.Address  `json:"address"`
	Tokens    units.Amount `json:"tokens"`
	Allowance units.Amount `json:"allowance"`
	Currency  units.Amount `json:"currency"`
}

type RoundsResponse struct {
	Current auction.Round   `json:"current"`
	History []auction.Round `json:"history"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Round  uint64    `json:"round"`
	Time   time.Time `json:"time"`
}
