// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/burnengine/pkg/ids"
	"github.com/luxfi/burnengine/pkg/log"
	"github.com/luxfi/burnengine/pkg/settlement"
	"github.com/luxfi/burnengine/pkg/token"
	"github.com/luxfi/burnengine/pkg/units"
)

func backends(t *testing.T) map[string]*Storage {
	t.Helper()

	mem, err := NewStorage(BackendMemory, "")
	require.NoError(t, err)
	disk, err := NewStorage(BackendBadger, t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		mem.Close()
		disk.Close()
	})
	return map[string]*Storage{BackendMemory: mem, BackendBadger: disk}
}

func TestStorageBasicOperations(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			key := []byte("test-key")
			require.NoError(s.Put(key, []byte("value")))

			got, err := s.Get(key)
			require.NoError(err)
			require.Equal([]byte("value"), got)

			has, err := s.Has(key)
			require.NoError(err)
			require.True(has)

			require.NoError(s.Delete(key))
			_, err = s.Get(key)
			require.ErrorIs(err, ErrNotFound)

			has, err = s.Has(key)
			require.NoError(err)
			require.False(has)
		})
	}
}

func TestStorageBatchAndIterate(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			batch := s.NewBatch()
			for i := 5; i > 0; i-- {
				require.NoError(batch.Put([]byte(fmt.Sprintf("k/%02d", i)), []byte{byte(i)}))
			}
			require.NoError(batch.Put([]byte("other"), []byte("x")))
			require.NoError(batch.Delete([]byte("k/03")))

			has, err := s.Has([]byte("k/01"))
			require.NoError(err)
			require.False(has, "batch is not visible before Write")

			require.NoError(batch.Write())

			var keys []string
			require.NoError(s.Iterate([]byte("k/"), func(k, v []byte) error {
				keys = append(keys, string(k))
				return nil
			}))
			require.Equal([]string{"k/01", "k/02", "k/04", "k/05"}, keys)
		})
	}
}

func TestStorageUnknownBackend(t *testing.T) {
	_, err := NewStorage("fdb", "")
	require.Error(t, err)
}

func TestMemoryClosed(t *testing.T) {
	require := require.New(t)

	s, err := NewStorage(BackendMemory, "")
	require.NoError(err)
	require.NoError(s.Close())

	require.ErrorIs(s.Put([]byte("k"), nil), ErrClosed)
	_, err = s.Get([]byte("k"))
	require.ErrorIs(err, ErrClosed)
}

func TestSnapshotterPersistsEngine(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			start := time.Unix(1_700_000_000, 0).UTC()

			_, ok, err := LoadState(s)
			require.NoError(err)
			require.False(ok)

			nec := token.NewLedger("NEC")
			eth := token.NewLedger("ETH")
			cfg := settlement.DefaultConfig()
			caller := ids.GenerateAddress()
			require.NoError(nec.Mint(ctx, caller, units.Whole(1000)))
			require.NoError(nec.Approve(ctx, caller, cfg.Address, units.Whole(1000)))
			require.NoError(eth.Mint(ctx, cfg.Address, units.Whole(10)))

			snap := NewSnapshotter(s, log.NoOp())
			engine, err := settlement.New(cfg, nec, eth.PayerFor(cfg.Address), start, log.NoOp(), settlement.WithObserver(snap))
			require.NoError(err)

			_, err = engine.Deposit(start, caller, units.Whole(10))
			require.NoError(err)
			t1 := start.Add(61 * time.Minute)
			_, err = engine.Thaw(t1)
			require.NoError(err)
			_, err = engine.Settle(ctx, t1, caller, units.Whole(500))
			require.NoError(err)
			_, err = engine.Settle(ctx, t1, caller, units.Whole(500))
			require.NoError(err)

			state, ok, err := LoadState(s)
			require.NoError(err)
			require.True(ok)
			require.Equal(engine.State(), state)

			restored, err := settlement.Restore(cfg, nec, eth.PayerFor(cfg.Address), state, log.NoOp())
			require.NoError(err)
			require.True(restored.CurrentRound().RemainingAvailable.Eq(units.Whole(8)))

			rounds, err := Rounds(s)
			require.NoError(err)
			require.Len(rounds, 1)
			require.Equal(uint64(0), rounds[0].Number)

			receipts, err := Receipts(s, 0, 0)
			require.NoError(err)
			require.Len(receipts, 2)
			require.Equal(uint64(1), receipts[0].Sequence)

			receipts, err = Receipts(s, 2, 10)
			require.NoError(err)
			require.Len(receipts, 1)
			require.True(receipts[0].Payout.Eq(units.One))
		})
	}
}

func BenchmarkSnapshotWrite(b *testing.B) {
	s, _ := NewStorage(BackendBadger, b.TempDir())
	defer s.Close()

	snap := NewSnapshotter(s, log.NoOp())
	state := settlement.State{Frozen: units.Whole(1), Period: time.Hour}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		state.Sequence = uint64(i)
		snap.SaveState(state)
	}
}
