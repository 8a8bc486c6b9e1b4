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
	"context"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/db/kv/memdb"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

func putAccount(t *testing.T, tx kv.RwTx, key common.Hash, acc *accounts.Account) {
	t.Helper()
	require.NoError(t, tx.Put(kv.HashedAccounts, key[:], accounts.SerialiseV3(acc)))
}

func putStorage(t *testing.T, tx kv.RwTx, address, slot common.Hash, value *uint256.Int) {
	t.Helper()
	k := append(common.CopyBytes(address[:]), slot[:]...)
	if value.IsZero() {
		require.NoError(t, tx.Delete(kv.HashedStorage, k))
		return
	}
	require.NoError(t, tx.Put(kv.HashedStorage, k, value.Bytes()))
}

func h(b byte) common.Hash { return common.BytesToHash([]byte{b}) }

func collectAccounts(t *testing.T, c trie.HashedCursor[*accounts.Account], from common.Hash) map[common.Hash]uint64 {
	t.Helper()
	got := map[common.Hash]uint64{}
	var order []common.Hash
	k, v, ok, err := c.Seek(from)
	for ; ok; k, v, ok, err = c.Next() {
		got[k] = v.Balance.Uint64()
		order = append(order, k)
	}
	require.NoError(t, err)
	for i := 1; i < len(order); i++ {
		require.Equal(t, -1, order[i-1].Cmp(order[i]))
	}
	return got
}

func TestOverlayAccountCursor(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	for _, b := range []byte{1, 3, 5, 9} {
		putAccount(t, tx, h(b), account(uint64(b)))
	}
	post := NewHashedPostState()
	post.Accounts[h(2)] = account(20)
	post.Accounts[h(3)] = account(30)
	post.Accounts[h(5)] = nil
	post.Accounts[h(7)] = nil
	post.Accounts[h(10)] = account(100)

	f := NewHashedPostStateCursorFactory(trie.NewDBHashedCursorFactory(tx), post.IntoSorted())
	c, err := f.HashedAccountCursor()
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, map[common.Hash]uint64{h(1): 1, h(2): 20, h(3): 30, h(9): 9, h(10): 100}, collectAccounts(t, c, common.Hash{}))
	assert.Equal(t, map[common.Hash]uint64{h(9): 9, h(10): 100}, collectAccounts(t, c, h(4)))
	assert.Empty(t, collectAccounts(t, c, h(11)))
}

func TestOverlayStorageCursor(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	a, b, c := h(0xa), h(0xb), h(0xc)
	for _, s := range []byte{1, 2, 3} {
		putStorage(t, tx, a, h(s), uint256.NewInt(uint64(s)))
		putStorage(t, tx, b, h(s), uint256.NewInt(uint64(s)))
	}

	post := NewHashedPostState()
	post.Storages[a] = NewHashedStorage(false)
	post.Storages[a].Storage[h(2)] = uint256.Int{}
	post.Storages[a].Storage[h(4)] = *uint256.NewInt(40)
	post.Storages[b] = NewHashedStorage(true)
	post.Storages[c] = NewHashedStorage(false)
	post.Storages[c].Storage[h(1)] = uint256.Int{}
	f := NewHashedPostStateCursorFactory(trie.NewDBHashedCursorFactory(tx), post.IntoSorted())

	collect := func(address common.Hash) (map[common.Hash]uint64, bool) {
		sc, err := f.HashedStorageCursor(address)
		require.NoError(t, err)
		defer sc.Close()
		isEmpty, err := sc.IsStorageEmpty()
		require.NoError(t, err)
		got := map[common.Hash]uint64{}
		k, v, ok, err := sc.Seek(common.Hash{})
		for ; ok; k, v, ok, err = sc.Next() {
			got[k] = v.Uint64()
		}
		require.NoError(t, err)
		return got, isEmpty
	}

	got, isEmpty := collect(a)
	assert.False(t, isEmpty)
	assert.Equal(t, map[common.Hash]uint64{h(1): 1, h(3): 3, h(4): 40}, got)

	got, isEmpty = collect(b)
	assert.True(t, isEmpty)
	assert.Empty(t, got)

	_, isEmpty = collect(c)
	assert.True(t, isEmpty)

	got, _ = collect(h(0xd))
	assert.Empty(t, got)
}

func TestOverlayStateRoot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := memdb.NewTestDB(t)
	rnd := rand.New(rand.NewSource(7))
	randomHash := func() common.Hash {
		var k common.Hash
		rnd.Read(k[:])
		return k
	}

	var keys []common.Hash
	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		for i := 0; i < 300; i++ {
			k := randomHash()
			keys = append(keys, k)
			putAccount(t, tx, k, account(rnd.Uint64()%1000+1))
			if i%4 == 0 {
				for j := 0; j < 20; j++ {
					putStorage(t, tx, k, randomHash(), uint256.NewInt(rnd.Uint64()%1000+1))
				}
			}
		}
		_, err := trie.RegenerateIntermediateHashes(ctx, "test", tx, log.New())
		return err
	}))

	post := NewHashedPostState()
	for _, k := range keys[:20] {
		post.Accounts[k] = account(424242)
	}
	for i := 0; i < 5; i++ {
		post.Accounts[randomHash()] = account(1)
	}
	// storage-only change
	post.Storages[keys[4]] = NewHashedStorage(false)
	post.Storages[keys[4]].Storage[randomHash()] = *uint256.NewInt(77)
	// wiped and refilled
	post.Storages[keys[8]] = NewHashedStorage(true)
	post.Storages[keys[8]].Storage[randomHash()] = *uint256.NewInt(88)
	post.Accounts[keys[8]] = account(8)

	tx, err := db.BeginRo(ctx)
	require.NoError(t, err)
	defer tx.Rollback()
	overlay := NewHashedPostStateCursorFactory(trie.NewDBHashedCursorFactory(tx), post.IntoSorted())
	got, stats, err := trie.NewStateRoot(trie.NewDBTrieCursorFactory(tx), overlay, post.ConstructPrefixSets()).Calculate(ctx)
	require.NoError(t, err)
	assert.Less(t, stats.LeavesAdded, uint64(len(keys)))

	var want common.Hash
	require.NoError(t, db.Update(ctx, func(rwTx kv.RwTx) error {
		if err := WriteHashedPostState(rwTx, post); err != nil {
			return err
		}
		var err error
		want, err = trie.RegenerateIntermediateHashes(ctx, "test", rwTx, log.New())
		return err
	}))
	assert.Equal(t, want, got)
}
