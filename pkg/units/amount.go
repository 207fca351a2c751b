// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package units implements the 18-decimal fixed-point amounts used for base
// currency, token quantities and prices.
package units

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by every Amount.
const Decimals = 18

var (
	ErrNegative  = errors.New("amount is negative")
	ErrPrecision = errors.New("amount has more than 18 fractional digits")
	ErrOverflow  = errors.New("amount overflows 256 bits")
)

// Zero is the zero amount.
var Zero = Amount{}

// One is 1.0 expressed in base units (1e18).
var One = Amount{v: *uint256.NewInt(1_000_000_000_000_000_000)}

// Amount is an unsigned 256-bit integer counted in base units (1e-18).
// The zero value is ready to use.
type Amount struct {
	v uint256.Int
}

// New returns an amount of n base units.
func New(n uint64) Amount {
	return Amount{v: *uint256.NewInt(n)}
}

// Whole returns n whole units, i.e. n * 1e18 base units.
func Whole(n uint64) Amount {
	a, _ := New(n).MulDiv(One, New(1))
	return a
}

// FromDecimal parses a base-unit integer string such as "1000000000000000000".
func FromDecimal(s string) (Amount, error) {
	var a Amount
	if err := a.v.SetFromDecimal(s); err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return a, nil
}

// Parse parses a human amount such as "62.5" into base units.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimalValue(d)
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimalValue converts a human-unit decimal into base units.
func FromDecimalValue(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Zero, ErrNegative
	}
	shifted := d.Shift(Decimals)
	if !shifted.IsInteger() {
		return Zero, ErrPrecision
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return Zero, ErrOverflow
	}
	return Amount{v: *v}, nil
}

// Decimal returns the amount in human units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(a.v.ToBig(), -Decimals)
}

// Format renders the amount in human units, e.g. "62.5".
func (a Amount) Format() string {
	return a.Decimal().String()
}

// String renders the amount in base units.
func (a Amount) String() string {
	return a.v.Dec()
}

func (a Amount) IsZero() bool { return a.v.IsZero() }

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Lt(b Amount) bool { return a.v.Lt(&b.v) }

func (a Amount) Gt(b Amount) bool { return a.v.Gt(&b.v) }

func (a Amount) Eq(b Amount) bool { return a.v.Eq(&b.v) }

// Add returns a+b and whether the sum overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	var z Amount
	_, overflow := z.v.AddOverflow(&a.v, &b.v)
	return z, overflow
}

// Sub returns a-b and whether the difference underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var z Amount
	_, underflow := z.v.SubOverflow(&a.v, &b.v)
	return z, underflow
}

// MulDiv returns floor(a*m/d) computed with a 512-bit intermediate, and
// whether the result overflowed. Division by zero yields zero and overflow.
func (a Amount) MulDiv(m, d Amount) (Amount, bool) {
	if d.IsZero() {
		return Zero, true
	}
	var z Amount
	_, overflow := z.v.MulDivOverflow(&a.v, &m.v, &d.v)
	return z, overflow
}

// MulRatio returns floor(a*num/den).
func (a Amount) MulRatio(num, den uint64) (Amount, bool) {
	return a.MulDiv(New(num), New(den))
}

// Uint64 returns the low 64 bits and whether the value fit.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

// Bytes32 returns the big-endian 32-byte encoding.
func (a Amount) Bytes32() [32]byte {
	return a.v.Bytes32()
}

// MarshalText encodes the amount as a base-unit decimal string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText decodes a base-unit decimal string.
func (a *Amount) UnmarshalText(b []byte) error {
	v, err := FromDecimal(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Max returns the largest representable amount, 2^256-1.
func Max() Amount {
	var a Amount
	a.v.SetAllOne()
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Lt(b) {
		return a
	}
	return b
}
