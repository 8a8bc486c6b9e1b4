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
	"fmt"

	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/crypto"
	"github.com/erigontech/trieprefetch/common/empty"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

type AccountStatus uint8

const (
	// NotExisting accounts were looked up but are absent from the state.
	NotExisting AccountStatus = iota
	// Touched accounts are written in this state; they exist from now on.
	Touched
	// Loaded accounts were read from the state.
	Loaded
)

func (s AccountStatus) String() string {
	switch s {
	case NotExisting:
		return "NotExisting"
	case Touched:
		return "Touched"
	case Loaded:
		return "Loaded"
	default:
		return fmt.Sprintf("AccountStatus(%d)", uint8(s))
	}
}

// DbAccount is an account cached by CacheDB together with its pending
// changes.
type DbAccount struct {
	Info    accounts.Account
	Code    []byte
	Status  AccountStatus
	Storage map[common.Hash]uint256.Int // plain slot -> value, only written slots

	dirty      bool
	dirtySlots map[common.Hash]struct{}
}

func (a *DbAccount) markDirty() { a.dirty = true }

// Touch makes a NotExisting account exist.
func (a *DbAccount) Touch() {
	if a.Status == NotExisting {
		a.Status = Touched
	}
	a.markDirty()
}

func (a *DbAccount) SetBalance(v *uint256.Int) {
	a.Info.Balance.Set(v)
	a.markDirty()
}

func (a *DbAccount) AddBalance(v *uint256.Int) {
	a.Info.Balance.Add(&a.Info.Balance, v)
	a.markDirty()
}

// SubBalance fails when the balance is lower than v.
func (a *DbAccount) SubBalance(v *uint256.Int) error {
	if a.Info.Balance.Lt(v) {
		return fmt.Errorf("insufficient balance: have %s, want %s", a.Info.Balance.Dec(), v.Dec())
	}
	a.Info.Balance.Sub(&a.Info.Balance, v)
	a.markDirty()
	return nil
}

// SetCode installs code and its hash.
func (a *DbAccount) SetCode(code []byte) {
	a.Code = common.CopyBytes(code)
	if len(code) == 0 {
		a.Info.CodeHash = empty.CodeHash
	} else {
		a.Info.CodeHash = crypto.Keccak256Hash(code)
	}
	a.markDirty()
}

func (a *DbAccount) SetStorage(slot common.Hash, value *uint256.Int) {
	if a.Storage == nil {
		a.Storage = map[common.Hash]uint256.Int{}
	}
	a.Storage[slot] = *value
	if a.dirtySlots == nil {
		a.dirtySlots = map[common.Hash]struct{}{}
	}
	a.dirtySlots[slot] = struct{}{}
	a.markDirty()
}

// CacheDB caches accounts read from a StateReader and collects the changes
// made to them. It is not safe for concurrent use.
type CacheDB struct {
	reader   StateReader
	accounts map[common.Address]*DbAccount
}

func NewCacheDB(reader StateReader) *CacheDB {
	return &CacheDB{reader: reader, accounts: map[common.Address]*DbAccount{}}
}

// LoadAccount returns the cached account, reading it on first use. A missing
// account is returned as a fresh NotExisting one.
func (db *CacheDB) LoadAccount(address common.Address) (*DbAccount, error) {
	if acc, ok := db.accounts[address]; ok {
		return acc, nil
	}
	info, err := db.reader.ReadAccountData(address)
	if err != nil {
		return nil, fmt.Errorf("load account %x: %w", address, err)
	}
	acc := &DbAccount{Status: Loaded}
	if info == nil {
		acc.Status = NotExisting
		acc.Info = accounts.NewAccount()
	} else {
		acc.Info = *info
	}
	db.accounts[address] = acc
	return acc, nil
}

// Storage returns the current value of a slot.
func (db *CacheDB) Storage(address common.Address, slot common.Hash) (uint256.Int, error) {
	acc, err := db.LoadAccount(address)
	if err != nil {
		return uint256.Int{}, err
	}
	if v, ok := acc.Storage[slot]; ok {
		return v, nil
	}
	if acc.Status == NotExisting {
		return uint256.Int{}, nil
	}
	return db.reader.ReadAccountStorage(address, slot)
}

// TakeHashedPostState returns the changes made since the previous call as a
// hashed post state and forgets them. Accounts that were only read are
// left out, so are NotExisting accounts that were never touched.
func (db *CacheDB) TakeHashedPostState() *HashedPostState {
	post := NewHashedPostState()
	for address, acc := range db.accounts {
		if !acc.dirty {
			continue
		}
		acc.dirty = false
		if acc.Status == NotExisting {
			continue
		}
		hashedAddress := crypto.Keccak256Hash(address[:])
		info := new(accounts.Account)
		info.Copy(&acc.Info)
		post.Accounts[hashedAddress] = info
		if len(acc.dirtySlots) == 0 {
			continue
		}
		storage := NewHashedStorage(false)
		for slot := range acc.dirtySlots {
			storage.Storage[crypto.Keccak256Hash(slot[:])] = acc.Storage[slot]
		}
		post.Storages[hashedAddress] = storage
		clear(acc.dirtySlots)
	}
	return post
}
