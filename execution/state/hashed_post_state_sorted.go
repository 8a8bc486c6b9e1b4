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
	"slices"

	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

type HashedAccountEntry struct {
	Key     common.Hash
	Account *accounts.Account // nil if destroyed
}

type HashedStorageEntry struct {
	Key   common.Hash
	Value uint256.Int // zero if cleared
}

type HashedStorageSorted struct {
	Wiped bool
	Slots []HashedStorageEntry
}

// HashedPostStateSorted is a HashedPostState with entries sorted by key.
type HashedPostStateSorted struct {
	Accounts []HashedAccountEntry
	Storages map[common.Hash]*HashedStorageSorted
}

func sortByKey[E any](entries []E, key func(E) common.Hash) {
	slices.SortFunc(entries, func(a, b E) int {
		ka, kb := key(a), key(b)
		return ka.Cmp(kb)
	})
}
