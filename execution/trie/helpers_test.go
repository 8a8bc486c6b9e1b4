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
	"errors"
	"math/rand"
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

func putAccount(t *testing.T, tx kv.RwTx, key common.Hash, balance uint64, nonce uint64) {
	t.Helper()
	acc := accounts.NewAccount()
	acc.Balance.SetUint64(balance)
	acc.Nonce = nonce
	require.NoError(t, tx.Put(kv.HashedAccounts, key[:], accounts.SerialiseV3(&acc)))
}

func putStorage(t *testing.T, tx kv.RwTx, address, slot common.Hash, value uint64) {
	t.Helper()
	v := uint256.NewInt(value)
	require.NoError(t, tx.Put(kv.HashedStorage, append(common.CopyBytes(address[:]), slot[:]...), v.Bytes()))
}

func randomHash(rnd *rand.Rand) common.Hash {
	var h common.Hash
	rnd.Read(h[:])
	return h
}

// populate writes n accounts; every third one gets a few storage slots.
func populate(t *testing.T, tx kv.RwTx, rnd *rand.Rand, n int) []common.Hash {
	t.Helper()
	keys := make([]common.Hash, n)
	for i := range keys {
		keys[i] = randomHash(rnd)
		putAccount(t, tx, keys[i], rnd.Uint64()%1_000_000+1, uint64(i))
		if i%3 == 0 {
			for j := 0; j < 1+rnd.Intn(40); j++ {
				putStorage(t, tx, keys[i], randomHash(rnd), rnd.Uint64()%1_000_000+1)
			}
		}
	}
	return keys
}

// expectedStorageRoot computes the storage root with go-ethereum's stack trie.
func expectedStorageRoot(t *testing.T, tx kv.Tx, address common.Hash) common.Hash {
	t.Helper()
	st := gethtrie.NewStackTrie(nil)
	err := tx.ForEach(kv.HashedStorage, address[:], func(k, v []byte) error {
		if !bytes.HasPrefix(k, address[:]) {
			return errStop
		}
		enc, err := rlp.EncodeToBytes(v)
		if err != nil {
			return err
		}
		return st.Update(k[common.HashLength:], enc)
	})
	if !errors.Is(err, errStop) {
		require.NoError(t, err)
	}
	return common.Hash(st.Hash())
}

// expectedStateRoot computes the state root with go-ethereum's stack trie.
func expectedStateRoot(t *testing.T, tx kv.Tx) common.Hash {
	t.Helper()
	type leaf struct{ k, v []byte }
	var leaves []leaf
	require.NoError(t, tx.ForEach(kv.HashedAccounts, nil, func(k, v []byte) error {
		leaves = append(leaves, leaf{common.CopyBytes(k), common.CopyBytes(v)})
		return nil
	}))
	st := gethtrie.NewStackTrie(nil)
	for _, l := range leaves {
		var acc accounts.Account
		require.NoError(t, accounts.DeserialiseV3(&acc, l.v))
		enc, err := rlp.EncodeToBytes(&types.StateAccount{
			Nonce:    acc.Nonce,
			Balance:  &acc.Balance,
			Root:     gethcommon.Hash(expectedStorageRoot(t, tx, common.BytesToHash(l.k))),
			CodeHash: acc.CodeHash[:],
		})
		require.NoError(t, err)
		require.NoError(t, st.Update(l.k, enc))
	}
	return common.Hash(st.Hash())
}

var errStop = errors.New("stop")

func prefixSetOf(keys ...common.Hash) *PrefixSet {
	b := NewPrefixSetBuilder()
	for _, k := range keys {
		b.AddKey(KeyToNibbles(k[:]))
	}
	return b.Freeze()
}
