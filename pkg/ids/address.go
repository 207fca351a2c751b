// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/luxfi/burnengine/pkg/crypto/hashing"
)

// AddressLen is the length of an Address in bytes
const AddressLen = 20

// Address identifies an account holding tokens or base currency
type Address [AddressLen]byte

// EmptyAddress is the zero Address
var EmptyAddress = Address{}

// String returns the 0x-prefixed hex form of an Address
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsEmpty returns true if the Address is empty
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// Bytes returns the byte representation of an Address
func (a Address) Bytes() []byte {
	return a[:]
}

// MarshalText encodes the Address as 0x-prefixed hex
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a hex Address with or without the 0x prefix
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := AddressFromString(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AddressFromString parses an Address from a hex string
func AddressFromString(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return a, err
	}
	if len(b) != AddressLen {
		return a, fmt.Errorf("invalid Address length: expected %d, got %d", AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromBytes creates an Address from bytes
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, fmt.Errorf("invalid Address length: expected %d, got %d", AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// DeriveAddress returns the last 20 bytes of keccak256(seed). Used to give
// named system accounts such as the engine itself a stable address.
func DeriveAddress(seed string) Address {
	sum := hashing.Keccak256([]byte(seed))
	var a Address
	copy(a[:], sum[32-AddressLen:])
	return a
}

// GenerateAddress generates a new random Address
func GenerateAddress() Address {
	var a Address
	testID := GenerateTestID()
	copy(a[:], testID[:AddressLen])
	return a
}
