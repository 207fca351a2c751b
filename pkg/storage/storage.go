// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "fmt"

// Backend names accepted by NewStorage
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Storage wraps a key-value backend
type Storage struct {
	db Database
}

// NewStorage opens the named backend. An empty dbType selects badger.
func NewStorage(dbType string, path string) (*Storage, error) {
	var db Database

	switch dbType {
	case BackendMemory:
		db = newMemDB()
	case BackendBadger, "":
		bdb, err := newBadgerDB(path)
		if err != nil {
			return nil, fmt.Errorf("open badger at %q: %w", path, err)
		}
		db = bdb
	default:
		return nil, fmt.Errorf("unknown storage backend %q", dbType)
	}

	return &Storage{db: db}, nil
}

// Put stores a key-value pair
func (s *Storage) Put(key, value []byte) error {
	return s.db.Put(key, value)
}

// Get retrieves a value by key
func (s *Storage) Get(key []byte) ([]byte, error) {
	return s.db.Get(key)
}

// Has checks if a key exists
func (s *Storage) Has(key []byte) (bool, error) {
	return s.db.Has(key)
}

// Delete removes a key-value pair
func (s *Storage) Delete(key []byte) error {
	return s.db.Delete(key)
}

// NewBatch creates a new batch for atomic operations
func (s *Storage) NewBatch() Batch {
	return s.db.NewBatch()
}

// Iterate walks keys with prefix in order
func (s *Storage) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return s.db.Iterate(prefix, fn)
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// GetDatabase returns the underlying database
func (s *Storage) GetDatabase() Database {
	return s.db
}
