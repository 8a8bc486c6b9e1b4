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

import "sync/atomic"

// SharedTx is a reference-counted handle to one read-only transaction.
// Every holder calls Close exactly once; the last Close rolls the
// underlying transaction back. Rollback on a handle is the same as Close.
type SharedTx struct {
	Tx
	refs   *atomic.Int32
	closed atomic.Bool
}

func NewSharedTx(tx Tx) *SharedTx {
	refs := &atomic.Int32{}
	refs.Store(1)
	return &SharedTx{Tx: tx, refs: refs}
}

// Clone returns a new handle to the same snapshot.
func (s *SharedTx) Clone() *SharedTx {
	s.refs.Add(1)
	return &SharedTx{Tx: s.Tx, refs: s.refs}
}

func (s *SharedTx) Refs() int32 { return s.refs.Load() }

func (s *SharedTx) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	if s.refs.Add(-1) == 0 {
		s.Tx.Rollback()
	}
}

func (s *SharedTx) Rollback() { s.Close() }
