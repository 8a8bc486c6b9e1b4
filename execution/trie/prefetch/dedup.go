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
	"github.com/c2h5oh/datasize"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/maphash"
	"github.com/erigontech/trieprefetch/execution/state"
)

type keySet interface {
	Has(key []byte) bool
	Add(key []byte)
	Len() int
	Prune()
}

func newKeySet(cfg Config) (keySet, error) {
	switch {
	case cfg.DedupCacheTTL > 0:
		return maphash.NewTTLSet(cfg.DedupCacheTTL, cfg.DedupCacheSize), nil
	case cfg.DedupCacheSize > 0:
		return maphash.NewLRUSet(cfg.DedupCacheSize)
	default:
		return maphash.NewMapSet(), nil
	}
}

// dedupCache remembers which keys were already sent to a trie walk. Account
// keys, storage slots and storage wipes are separate namespaces: marking an
// account does not mark any of its slots, and the other way round.
type dedupCache struct {
	accounts keySet // account key
	storage  keySet // account key ++ slot key
	wiped    keySet // account key
}

func newDedupCache(cfg Config) (*dedupCache, error) {
	var c dedupCache
	var err error
	if c.accounts, err = newKeySet(cfg); err != nil {
		return nil, err
	}
	if c.storage, err = newKeySet(cfg); err != nil {
		return nil, err
	}
	if c.wiped, err = newKeySet(cfg); err != nil {
		return nil, err
	}
	return &c, nil
}

// filterAndMark returns the part of d not seen before and marks it seen.
// The result shares account records and never holds a key missing from d.
func (c *dedupCache) filterAndMark(d *state.HashedPostState) *state.HashedPostState {
	residual := state.NewHashedPostState()
	if d.IsEmpty() {
		return residual
	}

	for address, acc := range d.Accounts {
		if _, ok := d.Storages[address]; ok {
			continue
		}
		if c.accounts.Has(address[:]) {
			continue
		}
		c.accounts.Add(address[:])
		residual.Accounts[address] = acc
	}

	var slotKey [2 * common.HashLength]byte
	for address, storage := range d.Storages {
		copy(slotKey[:], address[:])
		fresh := state.NewHashedStorage(false)
		for slot, value := range storage.Storage {
			copy(slotKey[common.HashLength:], slot[:])
			if c.storage.Has(slotKey[:]) {
				continue
			}
			c.storage.Add(slotKey[:])
			fresh.Storage[slot] = value
		}
		if storage.Wiped && !c.wiped.Has(address[:]) {
			c.wiped.Add(address[:])
			fresh.Wiped = true
		}
		if !fresh.Wiped && len(fresh.Storage) == 0 {
			continue
		}
		residual.Storages[address] = fresh
		if acc, ok := d.Accounts[address]; ok {
			residual.Accounts[address] = acc
		}
	}
	return residual
}

func (c *dedupCache) prune() {
	c.accounts.Prune()
	c.storage.Prune()
	c.wiped.Prune()
}

// footprint is the approximate size of the marked keys.
func (c *dedupCache) footprint() datasize.ByteSize {
	keys := c.accounts.Len() + c.storage.Len() + c.wiped.Len()
	return datasize.ByteSize(keys * 8)
}
