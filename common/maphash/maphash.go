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

package maphash

import (
	"hash/maphash"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"
)

var seed = maphash.MakeSeed()

// Hash computes a uint64 hash for a byte slice using the process seed.
func Hash(key []byte) uint64 {
	return maphash.Bytes(seed, key)
}

// Keys colliding in 64 bits are the same member of a set. Callers that only
// use membership to skip repeated work accept that.

// MapSet is an unbounded set of byte keys. Not thread-safe.
type MapSet struct {
	m map[uint64]struct{}
}

func NewMapSet() *MapSet {
	return &MapSet{m: make(map[uint64]struct{})}
}

func (s *MapSet) Has(key []byte) bool {
	_, ok := s.m[Hash(key)]
	return ok
}

func (s *MapSet) Add(key []byte) { s.m[Hash(key)] = struct{}{} }

func (s *MapSet) Len() int { return len(s.m) }

func (s *MapSet) Prune() {}

// LRUSet keeps the most recently added keys up to its size.
type LRUSet struct {
	cache *lru.Cache[uint64, struct{}]
}

func NewLRUSet(size int) (*LRUSet, error) {
	cache, err := lru.New[uint64, struct{}](size)
	if err != nil {
		return nil, err
	}
	return &LRUSet{cache: cache}, nil
}

// Has does not update recency.
func (s *LRUSet) Has(key []byte) bool { return s.cache.Contains(Hash(key)) }

func (s *LRUSet) Add(key []byte) { s.cache.Add(Hash(key), struct{}{}) }

func (s *LRUSet) Len() int { return s.cache.Len() }

func (s *LRUSet) Prune() {}

// TTLSet forgets keys ttl after they were added. A capacity of 0 means
// no bound on the number of keys.
type TTLSet struct {
	cache *ttlcache.Cache[uint64, struct{}]
}

func NewTTLSet(ttl time.Duration, capacity int) *TTLSet {
	opts := []ttlcache.Option[uint64, struct{}]{
		ttlcache.WithTTL[uint64, struct{}](ttl),
		ttlcache.WithDisableTouchOnHit[uint64, struct{}](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[uint64, struct{}](uint64(capacity)))
	}
	return &TTLSet{cache: ttlcache.New[uint64, struct{}](opts...)}
}

func (s *TTLSet) Has(key []byte) bool { return s.cache.Has(Hash(key)) }

func (s *TTLSet) Add(key []byte) {
	s.cache.Set(Hash(key), struct{}{}, ttlcache.DefaultTTL)
}

func (s *TTLSet) Len() int { return s.cache.Len() }

// Prune drops expired keys. Expired keys are never reported by Has, Prune
// only releases their memory.
func (s *TTLSet) Prune() { s.cache.DeleteExpired() }
