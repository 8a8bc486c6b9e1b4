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
	"fmt"

	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

// DBTrieCursorFactory opens trie cursors over TrieAccount and TrieStorage.
type DBTrieCursorFactory struct {
	tx kv.Tx
}

func NewDBTrieCursorFactory(tx kv.Tx) *DBTrieCursorFactory {
	return &DBTrieCursorFactory{tx: tx}
}

func (f *DBTrieCursorFactory) AccountTrieCursor() (TrieCursor, error) {
	c, err := f.tx.Cursor(kv.TrieOfAccounts)
	if err != nil {
		return nil, dbErr(err)
	}
	return &dbTrieCursor{c: c}, nil
}

func (f *DBTrieCursorFactory) StorageTrieCursor(address common.Hash) (TrieCursor, error) {
	c, err := f.tx.Cursor(kv.TrieOfStorage)
	if err != nil {
		return nil, dbErr(err)
	}
	return &dbTrieCursor{c: c, prefix: common.CopyBytes(address[:])}, nil
}

type dbTrieCursor struct {
	c      kv.Cursor
	prefix []byte
	seek   []byte
}

func (c *dbTrieCursor) Seek(key []byte) ([]byte, *BranchNode, error) {
	c.seek = append(append(c.seek[:0], c.prefix...), key...)
	k, v, err := c.c.Seek(c.seek)
	if err != nil {
		return nil, nil, dbErr(err)
	}
	if k == nil || !bytes.HasPrefix(k, c.prefix) {
		return nil, nil, nil
	}
	node, err := DecodeBranchNode(v)
	if err != nil {
		return nil, nil, fmt.Errorf("trie node %x: %w", k, err)
	}
	return common.CopyBytes(k[len(c.prefix):]), node, nil
}

func (c *dbTrieCursor) Close() { c.c.Close() }

// DBHashedCursorFactory reads HashedAccount and HashedStorage.
type DBHashedCursorFactory struct {
	tx kv.Tx
}

func NewDBHashedCursorFactory(tx kv.Tx) *DBHashedCursorFactory {
	return &DBHashedCursorFactory{tx: tx}
}

func (f *DBHashedCursorFactory) HashedAccountCursor() (HashedCursor[*accounts.Account], error) {
	c, err := f.tx.Cursor(kv.HashedAccounts)
	if err != nil {
		return nil, dbErr(err)
	}
	return &dbHashedAccountCursor{c: c}, nil
}

func (f *DBHashedCursorFactory) HashedStorageCursor(address common.Hash) (HashedStorageCursor, error) {
	c, err := f.tx.Cursor(kv.HashedStorage)
	if err != nil {
		return nil, dbErr(err)
	}
	return &dbHashedStorageCursor{c: c, address: address}, nil
}

type dbHashedAccountCursor struct {
	c kv.Cursor
}

func (c *dbHashedAccountCursor) Seek(key common.Hash) (common.Hash, *accounts.Account, bool, error) {
	return c.decode(c.c.Seek(key[:]))
}

func (c *dbHashedAccountCursor) Next() (common.Hash, *accounts.Account, bool, error) {
	return c.decode(c.c.Next())
}

func (c *dbHashedAccountCursor) decode(k, v []byte, err error) (common.Hash, *accounts.Account, bool, error) {
	if err != nil {
		return common.Hash{}, nil, false, dbErr(err)
	}
	if k == nil {
		return common.Hash{}, nil, false, nil
	}
	acc := new(accounts.Account)
	if err := accounts.DeserialiseV3(acc, v); err != nil {
		return common.Hash{}, nil, false, fmt.Errorf("%w: account %x: %v", ErrMalformedNode, k, err)
	}
	return common.BytesToHash(k), acc, true, nil
}

func (c *dbHashedAccountCursor) Close() { c.c.Close() }

type dbHashedStorageCursor struct {
	c       kv.Cursor
	address common.Hash
	seek    [2 * common.HashLength]byte
}

func (c *dbHashedStorageCursor) Seek(key common.Hash) (common.Hash, uint256.Int, bool, error) {
	copy(c.seek[:], c.address[:])
	copy(c.seek[common.HashLength:], key[:])
	return c.decode(c.c.Seek(c.seek[:]))
}

func (c *dbHashedStorageCursor) Next() (common.Hash, uint256.Int, bool, error) {
	return c.decode(c.c.Next())
}

func (c *dbHashedStorageCursor) decode(k, v []byte, err error) (common.Hash, uint256.Int, bool, error) {
	var value uint256.Int
	if err != nil {
		return common.Hash{}, value, false, dbErr(err)
	}
	if k == nil || !bytes.HasPrefix(k, c.address[:]) {
		return common.Hash{}, value, false, nil
	}
	if len(k) != 2*common.HashLength || len(v) > 32 {
		return common.Hash{}, value, false, fmt.Errorf("%w: storage entry %x", ErrMalformedNode, k)
	}
	value.SetBytes(v)
	return common.BytesToHash(k[common.HashLength:]), value, true, nil
}

func (c *dbHashedStorageCursor) IsStorageEmpty() (bool, error) {
	_, _, ok, err := c.Seek(common.Hash{})
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (c *dbHashedStorageCursor) Close() { c.c.Close() }
