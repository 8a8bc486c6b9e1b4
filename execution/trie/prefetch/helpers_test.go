// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package prefetch

import (
	"context"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/db/kv/memdb"
	"github.com/erigontech/trieprefetch/execution/state"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

func h(b byte) common.Hash { return common.BytesToHash([]byte{b}) }

func account(balance uint64) *accounts.Account {
	acc := accounts.NewAccount()
	acc.Balance.SetUint64(balance)
	return &acc
}

func storage(wiped bool, slots map[common.Hash]uint64) *state.HashedStorage {
	s := state.NewHashedStorage(wiped)
	for k, v := range slots {
		s.Storage[k] = *uint256.NewInt(v)
	}
	return s
}

func randomHash(rnd *rand.Rand) common.Hash {
	var k common.Hash
	rnd.Read(k[:])
	return k
}

type seededState struct {
	db *memdb.MemDB
	// accounts in insertion order; withStorage is the subset with slots
	accounts    []common.Hash
	withStorage []common.Hash
	slots       map[common.Hash][]common.Hash
}

// seedState writes n accounts, every storageEvery-th with 10 to 40 slots,
// and builds the trie tables over them.
func seedState(t *testing.T, seed int64, n, storageEvery int) *seededState {
	t.Helper()
	rnd := rand.New(rand.NewSource(seed))
	s := &seededState{db: memdb.NewTestDB(t), slots: map[common.Hash][]common.Hash{}}
	err := s.db.Update(context.Background(), func(tx kv.RwTx) error {
		for i := 0; i < n; i++ {
			key := randomHash(rnd)
			s.accounts = append(s.accounts, key)
			if err := tx.Put(kv.HashedAccounts, key[:], accounts.SerialiseV3(account(rnd.Uint64()%1_000_000+1))); err != nil {
				return err
			}
			if storageEvery == 0 || i%storageEvery != 0 {
				continue
			}
			s.withStorage = append(s.withStorage, key)
			for j := 0; j < 10+rnd.Intn(31); j++ {
				slot := randomHash(rnd)
				s.slots[key] = append(s.slots[key], slot)
				v := uint256.NewInt(rnd.Uint64()%1_000_000 + 1)
				if err := tx.Put(kv.HashedStorage, append(common.CopyBytes(key[:]), slot[:]...), v.Bytes()); err != nil {
					return err
				}
			}
		}
		_, err := trie.RegenerateIntermediateHashes(context.Background(), "test", tx, log.New())
		return err
	})
	require.NoError(t, err)
	return s
}

func (s *seededState) sharedTx(t *testing.T) *kv.SharedTx {
	t.Helper()
	tx, err := s.db.BeginRo(context.Background())
	require.NoError(t, err)
	shared := kv.NewSharedTx(tx)
	t.Cleanup(shared.Close)
	return shared
}

// balanceDelta changes the balance of every key.
func balanceDelta(keys ...common.Hash) *state.HashedPostState {
	d := state.NewHashedPostState()
	for i, k := range keys {
		d.Accounts[k] = account(uint64(i) + 7)
	}
	return d
}
