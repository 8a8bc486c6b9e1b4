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

package trie

import (
	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

//go:generate mockgen -typed=true -source=./cursor.go -destination=./cursor_mock.go -package=trie TrieCursorFactory,HashedCursorFactory

// TrieCursor walks stored branch nodes of one trie. Keys are nibble paths
// relative to the trie root.
type TrieCursor interface {
	// Seek returns the first stored node with a key greater than or equal to
	// key. node is nil when there is none.
	Seek(key []byte) (k []byte, node *BranchNode, err error)
	Close()
}

type TrieCursorFactory interface {
	AccountTrieCursor() (TrieCursor, error)
	StorageTrieCursor(address common.Hash) (TrieCursor, error)
}

// HashedCursor walks hashed state entries in key order. ok is false once the
// cursor is exhausted.
type HashedCursor[V any] interface {
	Seek(key common.Hash) (k common.Hash, v V, ok bool, err error)
	Next() (k common.Hash, v V, ok bool, err error)
	Close()
}

type HashedStorageCursor interface {
	HashedCursor[uint256.Int]
	IsStorageEmpty() (bool, error)
}

type HashedCursorFactory interface {
	HashedAccountCursor() (HashedCursor[*accounts.Account], error)
	HashedStorageCursor(address common.Hash) (HashedStorageCursor, error)
}
