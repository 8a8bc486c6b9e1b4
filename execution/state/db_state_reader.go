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
	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/crypto"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

type StateReader interface {
	ReadAccountData(address common.Address) (*accounts.Account, error)
	ReadAccountStorage(address common.Address, key common.Hash) (uint256.Int, error)
}

// DbStateReader reads the hashed state tables. Addresses and slots are
// hashed on every read.
type DbStateReader struct {
	db kv.Getter
}

func NewDbStateReader(db kv.Getter) *DbStateReader {
	return &DbStateReader{
		db: db,
	}
}

func (dbr *DbStateReader) ReadAccountData(address common.Address) (*accounts.Account, error) {
	addrHash := crypto.Keccak256Hash(address[:])
	enc, err := dbr.db.GetOne(kv.HashedAccounts, addrHash[:])
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, nil
	}
	acc := &accounts.Account{}
	if err := accounts.DeserialiseV3(acc, enc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (dbr *DbStateReader) ReadAccountStorage(address common.Address, key common.Hash) (uint256.Int, error) {
	var value uint256.Int
	addrHash := crypto.Keccak256Hash(address[:])
	seckey := crypto.Keccak256Hash(key[:])
	compositeKey := append(addrHash[:], seckey[:]...)
	enc, err := dbr.db.GetOne(kv.HashedStorage, compositeKey)
	if err != nil {
		return value, err
	}
	value.SetBytes(enc)
	return value, nil
}
