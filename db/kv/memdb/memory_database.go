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

package memdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/btree"

	"github.com/erigontech/trieprefetch/db/kv"
)

const degree = 32

var ErrClosed = errors.New("memdb: database closed")

type item struct {
	key   []byte
	value []byte
}

func less(a, b *item) bool { return bytes.Compare(a.key, b.key) < 0 }

type table = btree.BTreeG[*item]

// MemDB keeps every table in a copy-on-write btree. Read-only transactions
// are lazy clones of the committed trees, so they are point-in-time
// snapshots that can be read from several goroutines at once.
type MemDB struct {
	mu     sync.Mutex // guards tables, viewID, closed
	wmu    sync.Mutex // held by the single open RwTx
	tables map[string]*table
	viewID uint64
	closed bool
}

func New(tables ...string) *MemDB {
	if len(tables) == 0 {
		tables = kv.ChaindataTables
	}
	db := &MemDB{tables: make(map[string]*table, len(tables))}
	for _, name := range tables {
		db.tables[name] = btree.NewG[*item](degree, less)
	}
	return db
}

func NewTestDB(tb testing.TB) *MemDB {
	tb.Helper()
	db := New()
	tb.Cleanup(db.Close)
	return db
}

func NewTestTx(tb testing.TB) (*MemDB, kv.RwTx) {
	tb.Helper()
	db := NewTestDB(tb)
	tx, err := db.BeginRw(context.Background())
	if err != nil {
		tb.Fatal(err)
	}
	tb.Cleanup(tx.Rollback)
	return db, tx
}

func (db *MemDB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
}

func (db *MemDB) ReadOnly() bool { return false }

// snapshot clones every committed table. Cloning mutates the source tree's
// copy-on-write context, so it happens under mu.
func (db *MemDB) snapshot() (map[string]*table, uint64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil, 0, ErrClosed
	}
	tables := make(map[string]*table, len(db.tables))
	for name, t := range db.tables {
		tables[name] = t.Clone()
	}
	return tables, db.viewID, nil
}

func (db *MemDB) BeginRo(ctx context.Context) (kv.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tables, viewID, err := db.snapshot()
	if err != nil {
		return nil, err
	}
	return &roTx{tables: tables, viewID: viewID}, nil
}

func (db *MemDB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *MemDB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.wmu.Lock()
	tables, viewID, err := db.snapshot()
	if err != nil {
		db.wmu.Unlock()
		return nil, err
	}
	return &rwTx{roTx: roTx{tables: tables, viewID: viewID}, db: db}, nil
}

func (db *MemDB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

type roTx struct {
	tables map[string]*table
	viewID uint64
	done   bool
}

func (tx *roTx) table(name string) (*table, error) {
	if tx.done {
		return nil, fmt.Errorf("memdb: tx already finished")
	}
	t, ok := tx.tables[name]
	if !ok {
		return nil, fmt.Errorf("memdb: unknown table %q", name)
	}
	return t, nil
}

func (tx *roTx) ViewID() uint64 { return tx.viewID }

func (tx *roTx) Rollback() { tx.done = true }

func (tx *roTx) Has(table string, key []byte) (bool, error) {
	t, err := tx.table(table)
	if err != nil {
		return false, err
	}
	return t.Has(&item{key: key}), nil
}

func (tx *roTx) GetOne(table string, key []byte) ([]byte, error) {
	t, err := tx.table(table)
	if err != nil {
		return nil, err
	}
	it, ok := t.Get(&item{key: key})
	if !ok {
		return nil, nil
	}
	return it.value, nil
}

func (tx *roTx) ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error {
	t, err := tx.table(table)
	if err != nil {
		return err
	}
	t.AscendGreaterOrEqual(&item{key: fromPrefix}, func(it *item) bool {
		err = walker(it.key, it.value)
		return err == nil
	})
	return err
}

func (tx *roTx) Cursor(table string) (kv.Cursor, error) {
	t, err := tx.table(table)
	if err != nil {
		return nil, err
	}
	return &cursor{t: t}, nil
}

type rwTx struct {
	roTx
	db *MemDB
}

func (tx *rwTx) Put(table string, k, v []byte) error {
	t, err := tx.table(table)
	if err != nil {
		return err
	}
	t.ReplaceOrInsert(&item{key: bytes.Clone(k), value: bytes.Clone(v)})
	return nil
}

func (tx *rwTx) Delete(table string, k []byte) error {
	t, err := tx.table(table)
	if err != nil {
		return err
	}
	t.Delete(&item{key: k})
	return nil
}

func (tx *rwTx) ClearTable(table string) error {
	if _, err := tx.table(table); err != nil {
		return err
	}
	tx.tables[table] = btree.NewG[*item](degree, less)
	return nil
}

func (tx *rwTx) RwCursor(table string) (kv.RwCursor, error) {
	t, err := tx.table(table)
	if err != nil {
		return nil, err
	}
	return &cursor{t: t}, nil
}

func (tx *rwTx) Commit() error {
	if tx.done {
		return fmt.Errorf("memdb: tx already finished")
	}
	tx.done = true
	defer tx.db.wmu.Unlock()

	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()
	if tx.db.closed {
		return ErrClosed
	}
	tx.db.tables = tx.tables
	tx.db.viewID++
	return nil
}

func (tx *rwTx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.db.wmu.Unlock()
}

// cursor re-seeks the tree on every move, so writes through an RwCursor
// never invalidate it.
type cursor struct {
	t   *table
	cur *item
}

func (c *cursor) set(it *item, ok bool) ([]byte, []byte, error) {
	if !ok {
		c.cur = nil
		return nil, nil, nil
	}
	c.cur = it
	return it.key, it.value, nil
}

func (c *cursor) First() ([]byte, []byte, error) {
	return c.set(c.t.Min())
}

func (c *cursor) Last() ([]byte, []byte, error) {
	return c.set(c.t.Max())
}

func (c *cursor) Seek(seek []byte) ([]byte, []byte, error) {
	var found *item
	c.t.AscendGreaterOrEqual(&item{key: seek}, func(it *item) bool {
		found = it
		return false
	})
	return c.set(found, found != nil)
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	it, ok := c.t.Get(&item{key: key})
	if !ok {
		return nil, nil, nil
	}
	return c.set(it, true)
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if c.cur == nil {
		return nil, nil, nil
	}
	var found *item
	c.t.AscendGreaterOrEqual(c.cur, func(it *item) bool {
		if bytes.Equal(it.key, c.cur.key) {
			return true
		}
		found = it
		return false
	})
	return c.set(found, found != nil)
}

func (c *cursor) Prev() ([]byte, []byte, error) {
	if c.cur == nil {
		return nil, nil, nil
	}
	var found *item
	c.t.DescendLessOrEqual(c.cur, func(it *item) bool {
		if bytes.Equal(it.key, c.cur.key) {
			return true
		}
		found = it
		return false
	})
	return c.set(found, found != nil)
}

func (c *cursor) Current() ([]byte, []byte, error) {
	if c.cur == nil {
		return nil, nil, nil
	}
	return c.cur.key, c.cur.value, nil
}

func (c *cursor) Put(k, v []byte) error {
	c.t.ReplaceOrInsert(&item{key: bytes.Clone(k), value: bytes.Clone(v)})
	return nil
}

func (c *cursor) Delete(k []byte) error {
	c.t.Delete(&item{key: k})
	return nil
}

func (c *cursor) Close() {}
