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
	"sort"

	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

// HashedPostStateCursorFactory layers a sorted post state over another
// cursor factory: post state entries shadow the underlying ones, destroyed
// accounts and cleared slots are hidden and wiped storage hides everything
// underneath it.
type HashedPostStateCursorFactory struct {
	base trie.HashedCursorFactory
	post *HashedPostStateSorted
}

func NewHashedPostStateCursorFactory(base trie.HashedCursorFactory, post *HashedPostStateSorted) *HashedPostStateCursorFactory {
	if post == nil {
		post = &HashedPostStateSorted{}
	}
	return &HashedPostStateCursorFactory{base: base, post: post}
}

func (f *HashedPostStateCursorFactory) HashedAccountCursor() (trie.HashedCursor[*accounts.Account], error) {
	base, err := f.base.HashedAccountCursor()
	if err != nil {
		return nil, err
	}
	post := make([]overlayEntry[*accounts.Account], len(f.post.Accounts))
	for i, e := range f.post.Accounts {
		post[i] = overlayEntry[*accounts.Account]{key: e.Key, value: e.Account, deleted: e.Account == nil}
	}
	return &overlayCursor[*accounts.Account]{base: base, post: post}, nil
}

func (f *HashedPostStateCursorFactory) HashedStorageCursor(address common.Hash) (trie.HashedStorageCursor, error) {
	storage := f.post.Storages[address]
	c := &overlayStorageCursor{}
	if storage == nil || !storage.Wiped {
		base, err := f.base.HashedStorageCursor(address)
		if err != nil {
			return nil, err
		}
		c.base = base
	}
	if storage != nil {
		c.post = make([]overlayEntry[uint256.Int], len(storage.Slots))
		for i, e := range storage.Slots {
			c.post[i] = overlayEntry[uint256.Int]{key: e.Key, value: e.Value, deleted: e.Value.IsZero()}
		}
	}
	return c, nil
}

type overlayEntry[V any] struct {
	key     common.Hash
	value   V
	deleted bool
}

// overlayCursor merges a sorted slice of entries into a base cursor. base is
// nil when everything underneath is hidden.
type overlayCursor[V any] struct {
	base    trie.HashedCursor[V]
	post    []overlayEntry[V]
	postIdx int

	baseKey   common.Hash
	baseValue V
	baseOk    bool

	cur    common.Hash
	hasCur bool
}

func (c *overlayCursor[V]) Seek(key common.Hash) (common.Hash, V, bool, error) {
	if c.base != nil {
		var err error
		if c.baseKey, c.baseValue, c.baseOk, err = c.base.Seek(key); err != nil {
			var zero V
			return common.Hash{}, zero, false, err
		}
	}
	c.postIdx = sort.Search(len(c.post), func(i int) bool { return c.post[i].key.Cmp(key) >= 0 })
	return c.current()
}

func (c *overlayCursor[V]) Next() (common.Hash, V, bool, error) {
	var zero V
	if !c.hasCur {
		return common.Hash{}, zero, false, nil
	}
	if c.postIdx < len(c.post) && c.post[c.postIdx].key == c.cur {
		c.postIdx++
	}
	if c.baseOk && c.baseKey == c.cur {
		if err := c.nextBase(); err != nil {
			return common.Hash{}, zero, false, err
		}
	}
	return c.current()
}

func (c *overlayCursor[V]) nextBase() error {
	var err error
	c.baseKey, c.baseValue, c.baseOk, err = c.base.Next()
	return err
}

func (c *overlayCursor[V]) current() (common.Hash, V, bool, error) {
	var zero V
	for {
		postOk := c.postIdx < len(c.post)
		if !postOk && !c.baseOk {
			c.hasCur = false
			return common.Hash{}, zero, false, nil
		}
		if postOk && (!c.baseOk || c.post[c.postIdx].key.Cmp(c.baseKey) <= 0) {
			e := c.post[c.postIdx]
			if !e.deleted {
				c.cur, c.hasCur = e.key, true
				return e.key, e.value, true, nil
			}
			c.postIdx++
			if c.baseOk && c.baseKey == e.key {
				if err := c.nextBase(); err != nil {
					return common.Hash{}, zero, false, err
				}
			}
			continue
		}
		c.cur, c.hasCur = c.baseKey, true
		return c.baseKey, c.baseValue, true, nil
	}
}

func (c *overlayCursor[V]) Close() {
	if c.base != nil {
		c.base.Close()
	}
}

type overlayStorageCursor struct {
	overlayCursor[uint256.Int]
}

// IsStorageEmpty repositions the cursor.
func (c *overlayStorageCursor) IsStorageEmpty() (bool, error) {
	_, _, ok, err := c.Seek(common.Hash{})
	if err != nil {
		return false, err
	}
	return !ok, nil
}
