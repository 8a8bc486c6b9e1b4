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

package state

import (
	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

// HashedStorage is the storage delta of one account, keyed by hashed slot.
// A zero value clears the slot. Wiped means every slot stored before this
// delta is gone.
type HashedStorage struct {
	Wiped   bool
	Storage map[common.Hash]uint256.Int
}

func NewHashedStorage(wiped bool) *HashedStorage {
	return &HashedStorage{Wiped: wiped, Storage: map[common.Hash]uint256.Int{}}
}

// Extend applies other on top of s.
func (s *HashedStorage) Extend(other *HashedStorage) {
	if s.Storage == nil {
		s.Storage = make(map[common.Hash]uint256.Int, len(other.Storage))
	}
	if other.Wiped {
		s.Wiped = true
		clear(s.Storage)
	}
	for k, v := range other.Storage {
		s.Storage[k] = v
	}
}

// HashedPostState is an incremental state change keyed by hashed address.
// A nil account was destroyed. An account may appear in Storages without
// appearing in Accounts.
type HashedPostState struct {
	Accounts map[common.Hash]*accounts.Account
	Storages map[common.Hash]*HashedStorage
}

func NewHashedPostState() *HashedPostState {
	return &HashedPostState{
		Accounts: map[common.Hash]*accounts.Account{},
		Storages: map[common.Hash]*HashedStorage{},
	}
}

func (s *HashedPostState) IsEmpty() bool {
	return s == nil || (len(s.Accounts) == 0 && len(s.Storages) == 0)
}

// Extend applies other on top of s. Account records are shared, not copied.
func (s *HashedPostState) Extend(other *HashedPostState) {
	for k, acc := range other.Accounts {
		s.Accounts[k] = acc
	}
	for k, storage := range other.Storages {
		if existing, ok := s.Storages[k]; ok {
			existing.Extend(storage)
			continue
		}
		cp := NewHashedStorage(storage.Wiped)
		cp.Extend(storage)
		s.Storages[k] = cp
	}
}

// ConstructPrefixSets returns the paths a trie walk must revisit for this
// change. An account with storage changes is in the account set as well,
// its storage root changed.
func (s *HashedPostState) ConstructPrefixSets() trie.TriePrefixSets {
	accountSet := trie.NewPrefixSetBuilder()
	for k := range s.Accounts {
		accountSet.AddKey(trie.KeyToNibbles(k[:]))
	}
	storageSets := make(map[common.Hash]*trie.PrefixSet, len(s.Storages))
	for address, storage := range s.Storages {
		accountSet.AddKey(trie.KeyToNibbles(address[:]))
		b := trie.NewPrefixSetBuilder()
		if storage.Wiped {
			b.SetAll()
		}
		for slot := range storage.Storage {
			b.AddKey(trie.KeyToNibbles(slot[:]))
		}
		storageSets[address] = b.Freeze()
	}
	return trie.TriePrefixSets{
		AccountPrefixSet:  accountSet.Freeze(),
		StoragePrefixSets: storageSets,
	}
}

// IntoSorted returns the sorted form used by the overlay cursors.
func (s *HashedPostState) IntoSorted() *HashedPostStateSorted {
	sorted := &HashedPostStateSorted{
		Accounts: make([]HashedAccountEntry, 0, len(s.Accounts)),
		Storages: make(map[common.Hash]*HashedStorageSorted, len(s.Storages)),
	}
	for k, acc := range s.Accounts {
		sorted.Accounts = append(sorted.Accounts, HashedAccountEntry{Key: k, Account: acc})
	}
	sortByKey(sorted.Accounts, func(e HashedAccountEntry) common.Hash { return e.Key })
	for address, storage := range s.Storages {
		sorted.Storages[address] = storage.sorted()
	}
	return sorted
}

func (s *HashedStorage) sorted() *HashedStorageSorted {
	slots := make([]HashedStorageEntry, 0, len(s.Storage))
	for k, v := range s.Storage {
		slots = append(slots, HashedStorageEntry{Key: k, Value: v})
	}
	sortByKey(slots, func(e HashedStorageEntry) common.Hash { return e.Key })
	return &HashedStorageSorted{Wiped: s.Wiped, Slots: slots}
}
