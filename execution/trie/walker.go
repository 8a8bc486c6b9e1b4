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

type walkerFrame struct {
	key    []byte
	node   *BranchNode
	nibble int
}

// Walker visits the stored branch nodes of a trie in pre-order and yields
// the subtrees that can be taken by their stored hash: a child with a stored
// hash none of whose keys is in the prefix set. Everything else is left to
// the hashed state cursor.
type Walker struct {
	cursor    TrieCursor
	prefixSet *PrefixSet

	stack   []walkerFrame
	started bool
}

func NewWalker(cursor TrieCursor, prefixSet *PrefixSet) *Walker {
	return &Walker{cursor: cursor, prefixSet: prefixSet}
}

// Next returns the key and hash of the next skippable subtree, in key order.
// ok is false when the walk is over.
func (w *Walker) Next() (key []byte, hash common.Hash, ok bool, err error) {
	if !w.started {
		w.started = true
		k, node, err := w.cursor.Seek(nil)
		if err != nil {
			return nil, common.Hash{}, false, err
		}
		if node == nil {
			return nil, common.Hash{}, false, nil
		}
		if w.prefixSet.IsEmpty() && node.RootHash != nil {
			return []byte{}, *node.RootHash, true, nil
		}
		w.stack = append(w.stack, walkerFrame{key: k, node: node})
	}
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.nibble > 15 {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		nibble := top.nibble
		top.nibble++
		if !hasBit(top.node.StateMask, nibble) {
			continue
		}
		child := make([]byte, len(top.key)+1)
		copy(child, top.key)
		child[len(top.key)] = byte(nibble)

		if hasBit(top.node.HashMask, nibble) && !w.prefixSet.ContainsPrefix(child) {
			return child, top.node.Hash(nibble), true, nil
		}
		if !hasBit(top.node.TreeMask, nibble) {
			continue
		}
		k, node, err := w.cursor.Seek(child)
		if err != nil {
			return nil, common.Hash{}, false, err
		}
		if node != nil && bytes.HasPrefix(k, child) {
			// top is invalidated by append
			w.stack = append(w.stack, walkerFrame{key: k, node: node})
		}
	}
	return nil, common.Hash{}, false, nil
}
