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

package ldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/c2h5oh/datasize"
	"github.com/ledgerwatch/log/v3"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/erigontech/trieprefetch/db/kv"
)

// tableSpace divides the single leveldb keyspace into tables by prefixing
// every key with one byte.
type tableSpace byte

func (t tableSpace) key(k []byte) []byte {
	out := make([]byte, 1+len(k))
	out[0] = byte(t)
	copy(out[1:], k)
	return out
}

func (t tableSpace) rng() *util.Range {
	return util.BytesPrefix([]byte{byte(t)})
}

// reader is what leveldb snapshots and transactions have in common.
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type Config struct {
	Path      string // empty means in-memory storage
	CacheSize datasize.ByteSize
	ReadOnly  bool
}

type DB struct {
	db       *leveldb.DB
	tables   map[string]tableSpace
	viewID   atomic.Uint64
	readOnly bool
	logger   log.Logger
}

func Open(cfg Config, logger log.Logger) (*DB, error) {
	o := &opt.Options{ReadOnly: cfg.ReadOnly}
	if cfg.CacheSize > 0 {
		o.BlockCacheCapacity = int(cfg.CacheSize.Bytes())
	}
	var (
		db  *leveldb.DB
		err error
	)
	if cfg.Path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), o)
	} else {
		db, err = leveldb.OpenFile(cfg.Path, o)
	}
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", cfg.Path, err)
	}
	tables := make(map[string]tableSpace, len(kv.ChaindataTables))
	for i, name := range kv.ChaindataTables {
		tables[name] = tableSpace(i + 1)
	}
	logger.Debug("[ldb] opened", "path", cfg.Path, "cache", cfg.CacheSize.HumanReadable(), "readonly", cfg.ReadOnly)
	return &DB{db: db, tables: tables, readOnly: cfg.ReadOnly, logger: logger}, nil
}

func (db *DB) Close() {
	if err := db.db.Close(); err != nil {
		db.logger.Warn("[ldb] close", "err", err)
	}
}

func (db *DB) ReadOnly() bool { return db.readOnly }

func (db *DB) table(name string) (tableSpace, error) {
	t, ok := db.tables[name]
	if !ok {
		return 0, fmt.Errorf("ldb: unknown table %q", name)
	}
	return t, nil
}

func (db *DB) BeginRo(ctx context.Context) (kv.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := db.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("ldb: snapshot: %w", err)
	}
	return &roTx{db: db, r: snap, release: snap.Release, viewID: db.viewID.Load()}, nil
}

func (db *DB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *DB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if db.readOnly {
		return nil, errors.New("ldb: database opened read-only")
	}
	tr, err := db.db.OpenTransaction()
	if err != nil {
		return nil, fmt.Errorf("ldb: open transaction: %w", err)
	}
	return &rwTx{roTx: roTx{db: db, r: tr, release: tr.Discard, viewID: db.viewID.Load()}, tr: tr}, nil
}

func (db *DB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
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
	db      *DB
	r       reader
	release func()
	viewID  uint64
	done    atomic.Bool
}

func (tx *roTx) ViewID() uint64 { return tx.viewID }

func (tx *roTx) Rollback() {
	if tx.done.CompareAndSwap(false, true) {
		tx.release()
	}
}

func (tx *roTx) Has(table string, key []byte) (bool, error) {
	t, err := tx.db.table(table)
	if err != nil {
		return false, err
	}
	return tx.r.Has(t.key(key), nil)
}

func (tx *roTx) GetOne(table string, key []byte) ([]byte, error) {
	t, err := tx.db.table(table)
	if err != nil {
		return nil, err
	}
	v, err := tx.r.Get(t.key(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func (tx *roTx) ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error {
	c, err := tx.Cursor(table)
	if err != nil {
		return err
	}
	defer c.Close()
	for k, v, err := c.Seek(fromPrefix); k != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
		if err := walker(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (tx *roTx) Cursor(table string) (kv.Cursor, error) {
	return tx.cursor(table, nil)
}

func (tx *roTx) cursor(table string, tr *leveldb.Transaction) (*cursor, error) {
	t, err := tx.db.table(table)
	if err != nil {
		return nil, err
	}
	return &cursor{t: t, it: tx.r.NewIterator(t.rng(), nil), tr: tr}, nil
}

type rwTx struct {
	roTx
	tr *leveldb.Transaction
}

func (tx *rwTx) Put(table string, k, v []byte) error {
	t, err := tx.db.table(table)
	if err != nil {
		return err
	}
	return tx.tr.Put(t.key(k), v, nil)
}

func (tx *rwTx) Delete(table string, k []byte) error {
	t, err := tx.db.table(table)
	if err != nil {
		return err
	}
	return tx.tr.Delete(t.key(k), nil)
}

func (tx *rwTx) ClearTable(table string) error {
	t, err := tx.db.table(table)
	if err != nil {
		return err
	}
	it := tx.tr.NewIterator(t.rng(), nil)
	defer it.Release()
	for it.Next() {
		if err := tx.tr.Delete(bytes.Clone(it.Key()), nil); err != nil {
			return err
		}
	}
	return it.Error()
}

// RwCursor writes go straight to the transaction; an open cursor keeps
// iterating the view it was created on.
func (tx *rwTx) RwCursor(table string) (kv.RwCursor, error) {
	return tx.cursor(table, tx.tr)
}

func (tx *rwTx) Commit() error {
	if !tx.done.CompareAndSwap(false, true) {
		return errors.New("ldb: tx already finished")
	}
	if err := tx.tr.Commit(); err != nil {
		return fmt.Errorf("ldb: commit: %w", err)
	}
	tx.db.viewID.Add(1)
	return nil
}

type cursor struct {
	t     tableSpace
	it    iterator.Iterator
	tr    *leveldb.Transaction
	valid bool
}

func (c *cursor) result(ok bool) ([]byte, []byte, error) {
	c.valid = ok
	if !ok {
		return nil, nil, c.it.Error()
	}
	return bytes.Clone(c.it.Key()[1:]), bytes.Clone(c.it.Value()), nil
}

func (c *cursor) First() ([]byte, []byte, error) { return c.result(c.it.First()) }

func (c *cursor) Last() ([]byte, []byte, error) { return c.result(c.it.Last()) }

func (c *cursor) Seek(seek []byte) ([]byte, []byte, error) {
	return c.result(c.it.Seek(c.t.key(seek)))
}

func (c *cursor) SeekExact(key []byte) ([]byte, []byte, error) {
	k, v, err := c.Seek(key)
	if err != nil || k == nil || !bytes.Equal(k, key) {
		return nil, nil, err
	}
	return k, v, nil
}

func (c *cursor) Next() ([]byte, []byte, error) {
	if !c.valid {
		return nil, nil, nil
	}
	return c.result(c.it.Next())
}

func (c *cursor) Prev() ([]byte, []byte, error) {
	if !c.valid {
		return nil, nil, nil
	}
	return c.result(c.it.Prev())
}

func (c *cursor) Current() ([]byte, []byte, error) {
	if !c.valid {
		return nil, nil, nil
	}
	return c.result(true)
}

func (c *cursor) Put(k, v []byte) error {
	if c.tr == nil {
		return errors.New("ldb: read-only cursor")
	}
	return c.tr.Put(c.t.key(k), v, nil)
}

func (c *cursor) Delete(k []byte) error {
	if c.tr == nil {
		return errors.New("ldb: read-only cursor")
	}
	return c.tr.Delete(c.t.key(k), nil)
}

func (c *cursor) Close() { c.it.Release() }
