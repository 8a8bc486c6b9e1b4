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

package kv

import (
	"context"
)

// A database is a set of named tables of sorted unique keys. Read-only
// transactions are point-in-time snapshots: they never see writes committed
// after they were opened and can be read from several goroutines. Cursors
// belong to the goroutine that opened them.

type Closer interface {
	Close()
}

// RoDB is implemented by the in-memory and the on-disk backends.
//
//	tx, err := db.BeginRo(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback()
type RoDB interface {
	Closer
	BeginRo(ctx context.Context) (Tx, error)
	// View runs f in a short-lived read-only transaction.
	View(ctx context.Context, f func(tx Tx) error) error
	ReadOnly() bool
}

type RwDB interface {
	RoDB
	// Update runs f in a read-write transaction and commits it when f
	// returns nil.
	Update(ctx context.Context, f func(tx RwTx) error) error
	// BeginRw blocks while another read-write transaction is open.
	BeginRw(ctx context.Context) (RwTx, error)
}

type Getter interface {
	Has(table string, key []byte) (bool, error)
	// GetOne returns nil for a missing key. The value must not be used after
	// the transaction ends.
	GetOne(table string, key []byte) (val []byte, err error)
	// ForEach calls walker for every key >= fromPrefix until walker fails.
	ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error
	Rollback()
}

type Putter interface {
	Put(table string, k, v []byte) error
	Delete(table string, k []byte) error
}

type Tx interface {
	Getter
	Cursor(table string) (Cursor, error)
	// ViewID identifies the snapshot the transaction reads. Readers opened
	// between the same two commits share it.
	ViewID() uint64
}

type RwTx interface {
	Tx
	Putter
	RwCursor(table string) (RwCursor, error)
	ClearTable(table string) error
	Commit() error
}

// Cursor walks one table in key order. Every method returns a nil key once
// the cursor runs past either end.
//
//	for k, v, err := c.First(); k != nil; k, v, err = c.Next() {
//		if err != nil {
//			return err
//		}
//	}
type Cursor interface {
	First() ([]byte, []byte, error)
	Last() ([]byte, []byte, error)
	// Seek positions at the first key >= seek.
	Seek(seek []byte) ([]byte, []byte, error)
	// SeekExact returns a nil key unless key exists.
	SeekExact(key []byte) ([]byte, []byte, error)
	Next() ([]byte, []byte, error)
	Prev() ([]byte, []byte, error)
	Current() ([]byte, []byte, error)
	Close()
}

type RwCursor interface {
	Cursor
	Put(k, v []byte) error
	Delete(k []byte) error
}
