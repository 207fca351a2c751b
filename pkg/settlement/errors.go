// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import "errors"

var (
	ErrThawTooEarly           = errors.New("thaw delay has not passed")
	ErrNothingToThaw          = errors.New("no frozen funds to thaw")
	ErrRoundExpired           = errors.New("round expired with no frozen funds to open the next")
	ErrNoSupplyRemaining      = errors.New("no supply remaining in current round")
	ErrExceedsRemainingSupply = errors.New("purchase exceeds remaining supply")
	ErrInsufficientBalance    = errors.New("insufficient token balance")
	ErrInsufficientAllowance  = errors.New("insufficient token allowance")

	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrPayoutTooSmall = errors.New("token amount too small to buy any currency")
	ErrZeroPrice      = errors.New("effective price is zero")
	ErrOverflow       = errors.New("amount overflow")
	ErrInvalidConfig  = errors.New("invalid engine config")
	ErrStateMismatch  = errors.New("persisted state does not match config")
)
