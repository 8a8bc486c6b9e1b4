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
	"bytes"
	"errors"
)

// NextSubtree does []byte++. Returns false if overflow.
func NextSubtree(in []byte) ([]byte, bool) {
	r := make([]byte, len(in))
	copy(r, in)
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] != 255 {
			r[i]++
			return r, true
		}

		r[i] = 0
	}
	return nil, false
}

var errPrefixEnd = errors.New("prefix end")

// ForPrefix calls walker for every key of table starting with prefix, in
// key order.
func ForPrefix(tx Getter, table string, prefix []byte, walker func(k, v []byte) error) error {
	err := tx.ForEach(table, prefix, func(k, v []byte) error {
		if !bytes.HasPrefix(k, prefix) {
			return errPrefixEnd
		}
		return walker(k, v)
	})
	if errors.Is(err, errPrefixEnd) {
		return nil
	}
	return err
}
