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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/db/kv/memdb"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

func TestWriteHashedPostState(t *testing.T) {
	t.Parallel()

	_, tx := memdb.NewTestTx(t)
	kept, destroyed, wiped, next := h(1), h(2), h(3), h(4)
	putAccount(t, tx, kept, account(1))
	putAccount(t, tx, destroyed, account(2))
	putAccount(t, tx, wiped, account(3))
	putAccount(t, tx, next, account(4))
	putStorage(t, tx, kept, h(10), uint256.NewInt(10))
	putStorage(t, tx, kept, h(11), uint256.NewInt(11))
	putStorage(t, tx, wiped, h(10), uint256.NewInt(30))
	putStorage(t, tx, wiped, h(11), uint256.NewInt(31))
	putStorage(t, tx, next, h(10), uint256.NewInt(40))

	post := NewHashedPostState()
	post.Accounts[kept] = account(100)
	post.Accounts[destroyed] = nil
	post.Accounts[h(5)] = account(5)
	post.Storages[kept] = NewHashedStorage(false)
	post.Storages[kept].Storage[h(10)] = uint256.Int{}
	post.Storages[kept].Storage[h(12)] = *uint256.NewInt(12)
	post.Storages[wiped] = NewHashedStorage(true)
	post.Storages[wiped].Storage[h(12)] = *uint256.NewInt(32)
	require.NoError(t, WriteHashedPostState(tx, post))

	balances := map[common.Hash]uint64{}
	require.NoError(t, tx.ForEach(kv.HashedAccounts, nil, func(k, v []byte) error {
		var acc accounts.Account
		if err := accounts.DeserialiseV3(&acc, v); err != nil {
			return err
		}
		balances[common.BytesToHash(k)] = acc.Balance.Uint64()
		return nil
	}))
	assert.Equal(t, map[common.Hash]uint64{kept: 100, wiped: 3, next: 4, h(5): 5}, balances)

	slots := map[[2]byte]uint64{}
	require.NoError(t, tx.ForEach(kv.HashedStorage, nil, func(k, v []byte) error {
		slots[[2]byte{k[31], k[63]}] = new(uint256.Int).SetBytes(v).Uint64()
		return nil
	}))
	// wiping 0x03 leaves the storage of 0x04 alone
	assert.Equal(t, map[[2]byte]uint64{
		{1, 11}: 11,
		{1, 12}: 12,
		{3, 12}: 32,
		{4, 10}: 40,
	}, slots)
}
