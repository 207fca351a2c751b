// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luxfi/burnengine/pkg/auction"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
)

var (
	stateKey      = []byte("engine/state")
	roundPrefix   = []byte("round/")
	receiptPrefix = []byte("receipt/")
)

func roundKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", roundPrefix, n))
}

func receiptKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", receiptPrefix, seq))
}

// Snapshotter persists the engine after every commit. The latest state lives
// under one key; closed rounds and receipts are archived under ordered keys
// so they outlive the engine's bounded history.
type Snapshotter struct {
	settlement.NopObserver

	store *Storage
	log   log.Logger
}

// NewSnapshotter returns an observer that writes to store
func NewSnapshotter(store *Storage, logger log.Logger) *Snapshotter {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Snapshotter{store: store, log: logger}
}

// OnDeposit implements settlement.Observer
func (s *Snapshotter) OnDeposit(ev settlement.DepositEvent) {
	s.commit(ev.State, nil)
}

// OnThaw implements settlement.Observer
func (s *Snapshotter) OnThaw(ev settlement.ThawEvent) {
	s.commit(ev.State, func(b Batch) error {
		data, err := json.Marshal(ev.Closed)
		if err != nil {
			return err
		}
		return b.Put(roundKey(ev.Closed.Number), data)
	})
}

// OnSettle implements settlement.Observer
func (s *Snapshotter) OnSettle(ev settlement.SettleEvent) {
	s.commit(ev.State, func(b Batch) error {
		data, err := json.Marshal(ev.Receipt)
		if err != nil {
			return err
		}
		return b.Put(receiptKey(ev.Receipt.Sequence), data)
	})
}

func (s *Snapshotter) commit(state settlement.State, extra func(Batch) error) {
	if err := s.write(state, extra); err != nil {
		s.log.Error("failed to persist engine state",
			log.Uint64("round", state.Current.Number),
			log.Uint64("sequence", state.Sequence),
			log.Error(err),
		)
	}
}

func (s *Snapshotter) write(state settlement.State, extra func(Batch) error) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	batch := s.store.NewBatch()
	if err := batch.Put(stateKey, data); err != nil {
		return err
	}
	if extra != nil {
		if err := extra(batch); err != nil {
			return err
		}
	}
	return batch.Write()
}

// SaveState writes state directly, outside of any engine event
func (s *Snapshotter) SaveState(state settlement.State) error {
	return s.write(state, nil)
}

// LoadState reads the last persisted state. ok is false on a fresh store.
func LoadState(store *Storage) (state settlement.State, ok bool, err error) {
	data, err := store.Get(stateKey)
	if errors.Is(err, ErrNotFound) {
		return settlement.State{}, false, nil
	}
	if err != nil {
		return settlement.State{}, false, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return settlement.State{}, false, fmt.Errorf("decode engine state: %w", err)
	}
	return state, true, nil
}

// Rounds returns every archived closed round, oldest first
func Rounds(store *Storage) ([]auction.Round, error) {
	var out []auction.Round
	err := store.Iterate(roundPrefix, func(_, value []byte) error {
		var r auction.Round
		if err := json.Unmarshal(value, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

// Receipts returns archived receipts with sequence >= from, in order
func Receipts(store *Storage, from uint64, limit int) ([]settlement.Receipt, error) {
	var out []settlement.Receipt
	errStop := errors.New("stop")
	err := store.Iterate(receiptPrefix, func(_, value []byte) error {
		var r settlement.Receipt
		if err := json.Unmarshal(value, &r); err != nil {
			return err
		}
		if r.Sequence < from {
			return nil
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			return errStop
		}
		return nil
	})
	if errors.Is(err, errStop) {
		err = nil
	}
	return out, err
}
