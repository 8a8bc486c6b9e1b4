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
	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

// WriteHashedPostState applies s to the hashed state tables. It writes the
// same view the overlay cursors present: a nil account removes the account
// row, a zero slot removes the slot and a wiped storage is cleared before its
// slots are written. The trie tables are left alone.
func WriteHashedPostState(tx kv.RwTx, s *HashedPostState) error {
	for k, acc := range s.Accounts {
		if acc == nil {
			if err := tx.Delete(kv.HashedAccounts, k[:]); err != nil {
				return err
			}
			continue
		}
		if err := tx.Put(kv.HashedAccounts, k[:], accounts.SerialiseV3(acc)); err != nil {
			return err
		}
	}
	for address, storage := range s.Storages {
		if storage.Wiped {
			if err := clearStorage(tx, address); err != nil {
				return err
			}
		}
		for slot, v := range storage.Storage {
			k := append(common.CopyBytes(address[:]), slot[:]...)
			if v.IsZero() {
				if err := tx.Delete(kv.HashedStorage, k); err != nil {
					return err
				}
				continue
			}
			if err := tx.Put(kv.HashedStorage, k, v.Bytes()); err != nil {
				return err
			}
		}
	}
	return nil
}

func clearStorage(tx kv.RwTx, address common.Hash) error {
	var keys [][]byte
	if err := kv.ForPrefix(tx, kv.HashedStorage, address[:], func(k, _ []byte) error {
		keys = append(keys, common.CopyBytes(k))
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := tx.Delete(kv.HashedStorage, k); err != nil {
			return err
		}
	}
	return nil
}
