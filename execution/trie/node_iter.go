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
	"bytes"

	"github.com/erigontech/trieprefetch/common"
)

// TrieElement is either a folded subtree (Branch) or a leaf of hashed state.
type TrieElement[V any] struct {
	Branch bool
	Key    []byte // nibble path of the subtree
	Hash   common.Hash

	LeafKey common.Hash
	Value   V
}

// NodeIter merges the walker's folded subtrees with the leaves of the hashed
// cursor into one stream in nibble order. Leaves under a folded subtree are
// skipped.
type NodeIter[V any] struct {
	walker *Walker
	cursor HashedCursor[V]

	nextKey  []byte
	nextHash common.Hash
	hasNext  bool
	walkDone bool

	leafKey    common.Hash
	leafNibs   []byte
	leafValue  V
	hasLeaf    bool
	leafInited bool
}

func NewNodeIter[V any](walker *Walker, cursor HashedCursor[V]) *NodeIter[V] {
	return &NodeIter[V]{walker: walker, cursor: cursor}
}

func (it *NodeIter[V]) setLeaf(k common.Hash, v V, ok bool, err error) error {
	if err != nil {
		return err
	}
	it.hasLeaf = ok
	if !ok {
		return nil
	}
	it.leafKey, it.leafValue = k, v
	it.leafNibs = KeyToNibbles(k[:])
	return nil
}

// Next returns the next element. ok is false when both sources are exhausted.
func (it *NodeIter[V]) Next() (elem TrieElement[V], ok bool, err error) {
	if !it.hasNext && !it.walkDone {
		if it.nextKey, it.nextHash, it.hasNext, err = it.walker.Next(); err != nil {
			return elem, false, err
		}
		it.walkDone = !it.hasNext
	}
	if !it.leafInited {
		it.leafInited = true
		if err := it.setLeaf(it.cursor.Seek(common.Hash{})); err != nil {
			return elem, false, err
		}
	}

	if it.hasLeaf && (!it.hasNext || bytes.Compare(it.leafNibs, it.nextKey) < 0) {
		elem = TrieElement[V]{LeafKey: it.leafKey, Value: it.leafValue}
		if err := it.setLeaf(it.cursor.Next()); err != nil {
			return elem, false, err
		}
		return elem, true, nil
	}
	if !it.hasNext {
		return elem, false, nil
	}

	elem = TrieElement[V]{Branch: true, Key: it.nextKey, Hash: it.nextHash}
	it.hasNext = false
	if it.hasLeaf && bytes.HasPrefix(it.leafNibs, elem.Key) {
		next, ok := nextNibblePath(elem.Key)
		if !ok {
			it.hasLeaf = false
		} else if err := it.setLeaf(it.cursor.Seek(next)); err != nil {
			return elem, false, err
		}
	}
	return elem, true, nil
}
