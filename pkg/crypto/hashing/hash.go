// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package hashing derives identifiers for addresses and settlement receipts.
package hashing

import "golang.org/x/crypto/sha3"

// Keccak256 hashes the concatenation of the given byte slices
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
