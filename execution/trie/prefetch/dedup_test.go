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
	"math/rand"
	"testing"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/state"
	"github.com/erigontech/trieprefetch/execution/trie"
)

func newTestCache(t *testing.T, cfg Config) *dedupCache {
	t.Helper()
	c, err := newDedupCache(cfg)
	require.NoError(t, err)
	return c
}

func dedupConfigs() map[string]Config {
	lru := DefaultConfig()
	lru.DedupCacheSize = 1024
	ttl := DefaultConfig()
	ttl.DedupCacheTTL = time.Hour
	return map[string]Config{"map": DefaultConfig(), "lru": lru, "ttl": ttl}
}

func TestDedupIdempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		delta func() *state.HashedPostState
	}{
		{"accounts only", func() *state.HashedPostState {
			d := state.NewHashedPostState()
			d.Accounts[h(1)] = account(1)
			d.Accounts[h(2)] = nil
			return d
		}},
		{"storage only", func() *state.HashedPostState {
			d := state.NewHashedPostState()
			d.Storages[h(1)] = storage(false, map[common.Hash]uint64{h(10): 1, h(11): 0})
			return d
		}},
		{"account and storage", func() *state.HashedPostState {
			d := state.NewHashedPostState()
			d.Accounts[h(1)] = account(1)
			d.Accounts[h(3)] = account(3)
			d.Storages[h(1)] = storage(false, map[common.Hash]uint64{h(10): 1})
			return d
		}},
		{"wipe without slots", func() *state.HashedPostState {
			d := state.NewHashedPostState()
			d.Storages[h(4)] = storage(true, nil)
			return d
		}},
	}
	for name, cfg := range dedupConfigs() {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				t.Parallel()
				c := newTestCache(t, cfg)
				first := c.filterAndMark(tt.delta())
				assert.False(t, first.IsEmpty())
				second := c.filterAndMark(tt.delta())
				assert.True(t, second.IsEmpty())
			})
		}
	}
}

func TestDedupSubset(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(7))
	pick := func() common.Hash { return h(byte(rnd.Intn(12))) }
	for name, cfg := range dedupConfigs() {
		c := newTestCache(t, cfg)
		for i := 0; i < 200; i++ {
			d := state.NewHashedPostState()
			for j := 0; j < rnd.Intn(4); j++ {
				d.Accounts[pick()] = account(rnd.Uint64())
			}
			for j := 0; j < rnd.Intn(3); j++ {
				slots := map[common.Hash]uint64{}
				for k := 0; k < rnd.Intn(4); k++ {
					slots[pick()] = rnd.Uint64()
				}
				d.Storages[pick()] = storage(rnd.Intn(10) == 0, slots)
			}

			residual := c.filterAndMark(d)
			for k, acc := range residual.Accounts {
				require.Contains(t, d.Accounts, k, name)
				require.Same(t, d.Accounts[k], acc, name)
			}
			for address, s := range residual.Storages {
				require.Contains(t, d.Storages, address, name)
				in := d.Storages[address]
				if s.Wiped {
					require.True(t, in.Wiped, name)
				}
				for slot, v := range s.Storage {
					require.Contains(t, in.Storage, slot, name)
					require.Equal(t, in.Storage[slot], v, name)
				}
			}
		}
	}
}

func TestDedupCrossDelta(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, DefaultConfig())
	a, s1 := h(0xa), h(0x51)

	d1 := state.NewHashedPostState()
	d1.Accounts[a] = account(10)
	r1 := c.filterAndMark(d1)
	require.Contains(t, r1.Accounts, a)

	// A is seen as an account, its slots are not
	d2 := state.NewHashedPostState()
	d2.Accounts[a] = account(11)
	d2.Storages[a] = storage(false, map[common.Hash]uint64{s1: 5})
	r2 := c.filterAndMark(d2)
	require.Contains(t, r2.Storages, a)
	slotValue := r2.Storages[a].Storage[s1]
	assert.Equal(t, uint64(5), slotValue.Uint64())
	require.Contains(t, r2.Accounts, a)
	assert.Equal(t, uint64(11), r2.Accounts[a].Balance.Uint64())

	// an account listed with storage is never marked as an account on its own
	d3 := state.NewHashedPostState()
	d3.Accounts[a] = account(12)
	assert.True(t, c.filterAndMark(d3).IsEmpty(), "marked by d1")
	b := h(0xb)
	d4 := state.NewHashedPostState()
	d4.Accounts[b] = account(1)
	d4.Storages[b] = storage(false, map[common.Hash]uint64{s1: 1})
	c.filterAndMark(d4)
	d5 := state.NewHashedPostState()
	d5.Accounts[b] = account(2)
	assert.Contains(t, c.filterAndMark(d5).Accounts, b)
}

func TestDedupWipe(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, DefaultConfig())
	a, s1 := h(0xa), h(0x51)

	d1 := state.NewHashedPostState()
	d1.Storages[a] = storage(false, map[common.Hash]uint64{s1: 5})
	c.filterAndMark(d1)

	// every slot is cached, the wipe still goes through
	d2 := state.NewHashedPostState()
	d2.Accounts[a] = account(1)
	d2.Storages[a] = storage(true, map[common.Hash]uint64{s1: 5})
	r2 := c.filterAndMark(d2)
	require.Contains(t, r2.Storages, a)
	assert.True(t, r2.Storages[a].Wiped)
	assert.Empty(t, r2.Storages[a].Storage)
	assert.Contains(t, r2.Accounts, a)
	sets := r2.ConstructPrefixSets()
	assert.True(t, sets.StoragePrefixSet(a).All())
	assert.True(t, sets.AccountPrefixSet.ContainsPrefix(trie.KeyToNibbles(a[:])))

	assert.True(t, c.filterAndMark(d2).IsEmpty(), "a repeated wipe is dropped")

	// slot markers survive the wipe
	d3 := state.NewHashedPostState()
	d3.Storages[a] = storage(false, map[common.Hash]uint64{s1: 6, h(0x52): 1})
	r3 := c.filterAndMark(d3)
	require.Contains(t, r3.Storages, a)
	assert.NotContains(t, r3.Storages[a].Storage, s1)
	assert.Contains(t, r3.Storages[a].Storage, h(0x52))
}

func TestDedupLRUEviction(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DedupCacheSize = 2
	c := newTestCache(t, cfg)
	for _, b := range []byte{1, 2, 3} {
		c.filterAndMark(balanceDelta(h(b)))
	}
	// h(1) was evicted, seeing it again is redundant work, not an error
	assert.False(t, c.filterAndMark(balanceDelta(h(1))).IsEmpty())
	assert.True(t, c.filterAndMark(balanceDelta(h(3))).IsEmpty())
}

func TestDedupTTLExpiry(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DedupCacheTTL = 20 * time.Millisecond
	c := newTestCache(t, cfg)
	c.filterAndMark(balanceDelta(h(1)))
	assert.True(t, c.filterAndMark(balanceDelta(h(1))).IsEmpty())
	require.Eventually(t, func() bool {
		c.prune()
		return !c.filterAndMark(balanceDelta(h(1))).IsEmpty()
	}, time.Second, 10*time.Millisecond)
}

func TestDedupFootprint(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, DefaultConfig())
	d := balanceDelta(h(1), h(2))
	d.Storages[h(3)] = storage(true, map[common.Hash]uint64{h(4): 1})
	c.filterAndMark(d)
	assert.Equal(t, datasize.ByteSize(4*8), c.footprint())
}
