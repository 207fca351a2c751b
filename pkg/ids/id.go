// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID represents a unique identifier, e.g. a settlement receipt
type ID [32]byte

// Empty is the zero ID
var Empty = ID{}

// GenerateTestID creates a random ID for testing
func GenerateTestID() ID {
	var id ID
	rand.Read(id[:])
	return id
}

// String returns the hex representation of the ID
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the byte representation of the ID
func (id ID) Bytes() []byte {
	return id[:]
}

// MarshalText encodes the ID as hex
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a hex ID
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := FromString(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// FromString creates an ID from a hex string
func FromString(s string) (ID, error) {
	var id ID
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(bytes) != 32 {
		return id, fmt.Errorf("invalid ID length: expected 32, got %d", len(bytes))
	}
	copy(id[:], bytes)
	return id, nil
}
