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
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/empty"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/db/kv/memdb"
)

func stateRoot(t *testing.T, tx kv.Tx, sets TriePrefixSets) (common.Hash, TrieStats) {
	t.Helper()
	root, stats, err := NewStateRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), sets).Calculate(context.Background())
	require.NoError(t, err)
	return root, stats
}

func TestStateRootWithoutIntermediateHashes(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	populate(t, tx, rand.New(rand.NewSource(1)), 200)

	root, stats := stateRoot(t, tx, TriePrefixSets{})
	assert.Equal(t, expectedStateRoot(t, tx), root)
	assert.Equal(t, uint64(200), stats.LeavesAdded)
	assert.Zero(t, stats.BranchesAdded)
}

func TestStateRootEmpty(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	root, _ := stateRoot(t, tx, TriePrefixSets{})
	assert.Equal(t, empty.RootHash, root)

	regenerated, err := RegenerateIntermediateHashes(context.Background(), "IH", tx, log.New())
	require.NoError(t, err)
	assert.Equal(t, empty.RootHash, regenerated)
}

func TestRegenerateIntermediateHashes(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	keys := populate(t, tx, rand.New(rand.NewSource(2)), 300)
	want := expectedStateRoot(t, tx)

	root, err := RegenerateIntermediateHashes(context.Background(), "IH", tx, log.New())
	require.NoError(t, err)
	assert.Equal(t, want, root)

	// the topmost node carries the root, so an untouched trie is a single skip
	got, stats := stateRoot(t, tx, TriePrefixSets{})
	assert.Equal(t, want, got)
	assert.Equal(t, uint64(1), stats.BranchesAdded)
	assert.Zero(t, stats.LeavesAdded)

	storageNodes := 0
	require.NoError(t, tx.ForEach(kv.TrieOfStorage, nil, func(k, v []byte) error {
		storageNodes++
		_, err := DecodeBranchNode(v)
		return err
	}))
	assert.Positive(t, storageNodes)

	// storage roots with and without stored nodes agree
	for _, k := range keys[:30] {
		sr, _, err := NewStorageRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), k, nil).Calculate()
		require.NoError(t, err)
		assert.Equal(t, expectedStorageRoot(t, tx, k), sr)
	}

	// running it again over its own output is stable
	again, err := RegenerateIntermediateHashes(context.Background(), "IH", tx, log.New())
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestStateRootWithPrefixSets(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(3))
	_, tx := memdb.NewTestTx(t)
	keys := populate(t, tx, rnd, 500)
	_, err := RegenerateIntermediateHashes(context.Background(), "IH", tx, log.New())
	require.NoError(t, err)

	// change balances, add accounts and change storage, leaving stored nodes stale
	accountSet := NewPrefixSetBuilder()
	storageSets := map[common.Hash]*PrefixSet{}
	for _, k := range keys[:10] {
		putAccount(t, tx, k, 7, 7)
		accountSet.AddKey(KeyToNibbles(k[:]))
	}
	for i := 0; i < 5; i++ {
		k := randomHash(rnd)
		putAccount(t, tx, k, 1, 0)
		accountSet.AddKey(KeyToNibbles(k[:]))
	}
	for _, k := range []common.Hash{keys[0], keys[3], keys[7]} {
		slot := randomHash(rnd)
		putStorage(t, tx, k, slot, 99)
		storageSets[k] = prefixSetOf(slot)
		accountSet.AddKey(KeyToNibbles(k[:]))
	}

	root, stats := stateRoot(t, tx, TriePrefixSets{AccountPrefixSet: accountSet.Freeze(), StoragePrefixSets: storageSets})
	assert.Equal(t, expectedStateRoot(t, tx), root)
	assert.Less(t, stats.LeavesAdded, uint64(len(keys)/2))
	assert.Positive(t, stats.BranchesAdded)

	// with nothing in the prefix sets the stale stored root is returned
	stale, _ := stateRoot(t, tx, TriePrefixSets{})
	assert.NotEqual(t, root, stale)
}

func TestStorageRootWipedPrefixSet(t *testing.T) {
	t.Parallel()

	rnd := rand.New(rand.NewSource(4))
	_, tx := memdb.NewTestTx(t)
	address := randomHash(rnd)
	putAccount(t, tx, address, 1, 1)
	for i := 0; i < 50; i++ {
		putStorage(t, tx, address, randomHash(rnd), uint64(i+1))
	}
	_, err := RegenerateIntermediateHashes(context.Background(), "IH", tx, log.New())
	require.NoError(t, err)

	// a replaced value is only seen when the prefix set says so
	var first common.Hash
	err = tx.ForEach(kv.HashedStorage, address[:], func(k, v []byte) error {
		first = common.BytesToHash(k[common.HashLength:])
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	putStorage(t, tx, address, first, 12345)
	want := expectedStorageRoot(t, tx, address)

	for name, ps := range map[string]*PrefixSet{"key": prefixSetOf(first), "all": AllPrefixSet()} {
		got, stats, err := NewStorageRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), address, ps).Calculate()
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
		if ps.All() {
			assert.Equal(t, uint64(50), stats.LeavesAdded)
			assert.Zero(t, stats.BranchesAdded)
		}
	}

	got, stats, err := NewStorageRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), address, nil).Calculate()
	require.NoError(t, err)
	assert.NotEqual(t, want, got)
	assert.Equal(t, uint64(1), stats.BranchesAdded)
}

func TestWalkerAndNodeIter(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	keys := []common.Hash{
		common.HexToHash("0xb000000000000000000000000000000000000000000000000000000000000000"),
		common.HexToHash("0xb010000000000000000000000000000000000000000000000000000000000000"),
		common.HexToHash("0xb100000000000000000000000000000000000000000000000000000000000000"),
		common.HexToHash("0xb310000000000000000000000000000000000000000000000000000000000000"),
		common.HexToHash("0xb340000000000000000000000000000000000000000000000000000000000000"),
	}
	for i, k := range keys {
		putAccount(t, tx, k, uint64(i+1)*1_000_000_000_000, 0)
	}
	root, err := RegenerateIntermediateHashes(context.Background(), "IH", tx, log.New())
	require.NoError(t, err)

	stored := map[string]bool{}
	require.NoError(t, tx.ForEach(kv.TrieOfAccounts, nil, func(k, v []byte) error {
		stored[string(k)] = true
		return nil
	}))
	assert.Equal(t, map[string]bool{"\x0b": true, "\x0b\x00": true, "\x0b\x03": true}, stored)

	newWalker := func(ps *PrefixSet) *Walker {
		c, err := NewDBTrieCursorFactory(tx).AccountTrieCursor()
		require.NoError(t, err)
		t.Cleanup(c.Close)
		return NewWalker(c, ps)
	}

	w := newWalker(nil)
	k, h, ok, err := w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, k)
	assert.Equal(t, root, h)
	_, _, ok, err = w.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	// only the subtree under b3 can be taken by hash
	w = newWalker(prefixSetOf(keys[1]))
	k, _, ok, err = w.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0xb, 0x3}, k)
	_, _, ok, err = w.Next()
	require.NoError(t, err)
	assert.False(t, ok)

	hc, err := NewDBHashedCursorFactory(tx).HashedAccountCursor()
	require.NoError(t, err)
	defer hc.Close()
	it := NewNodeIter(newWalker(prefixSetOf(keys[1])), hc)
	var leaves []common.Hash
	var branches [][]byte
	for {
		elem, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		if elem.Branch {
			branches = append(branches, elem.Key)
		} else {
			leaves = append(leaves, elem.LeafKey)
		}
	}
	assert.Equal(t, keys[:3], leaves)
	assert.Equal(t, [][]byte{{0xb, 0x3}}, branches)
}

func TestStorageRootErrors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	_, tx := memdb.NewTestTx(t)
	address := common.HexToHash("0x01")
	putStorage(t, tx, address, common.HexToHash("0x02"), 3)

	boom := errors.New("boom")
	hashed := NewMockHashedCursorFactory(ctrl)
	hashed.EXPECT().
		HashedStorageCursor(address).
		Return(nil, &DatabaseError{Err: boom}).
		Times(1)

	_, _, err := NewStorageRoot(NewDBTrieCursorFactory(tx), hashed, address, nil).Calculate()
	var srErr *StorageRootError
	require.ErrorAs(t, err, &srErr)
	assert.Equal(t, address, srErr.Address)
	var dbError *DatabaseError
	require.ErrorAs(t, err, &dbError)
	require.ErrorIs(t, err, boom)

	// a malformed stored node has no database cause
	require.NoError(t, tx.Put(kv.TrieOfStorage, address[:], []byte{1, 2, 3}))
	_, _, err = NewStorageRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), address, nil).Calculate()
	require.ErrorIs(t, err, ErrMalformedNode)
	require.False(t, errors.As(err, &dbError))

	// empty storage never touches the trie cursor
	tries := NewMockTrieCursorFactory(ctrl)
	root, _, err := NewStorageRoot(tries, NewDBHashedCursorFactory(tx), common.HexToHash("0x09"), nil).Calculate()
	require.NoError(t, err)
	assert.Equal(t, empty.RootHash, root)
}

func TestStateRootCancelled(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	populate(t, tx, rand.New(rand.NewSource(5)), 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewStateRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), TriePrefixSets{}).Calculate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrieRootMetrics(t *testing.T) {
	t.Parallel()

	var m *TrieRootMetrics
	m.Record(TrieStats{BranchesAdded: 1})
	assert.Zero(t, m.Samples())

	m = NewTrieRootMetrics("test_record")
	before := m.Samples()
	m.Record(TrieStats{BranchesAdded: 3, LeavesAdded: 4})
	assert.Equal(t, before+1, m.Samples())
}
