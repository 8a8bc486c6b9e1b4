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
	"errors"
	"fmt"

	"github.com/erigontech/trieprefetch/common"
)

var ErrMalformedNode = errors.New("malformed trie node")

// DatabaseError wraps a failure of the storage backend under a cursor.
type DatabaseError struct {
	Err error
}

func (e *DatabaseError) Error() string { return "trie database: " + e.Err.Error() }

func (e *DatabaseError) Unwrap() error { return e.Err }

func dbErr(err error) error {
	if err == nil {
		return nil
	}
	var de *DatabaseError
	if errors.As(err, &de) {
		return err
	}
	return &DatabaseError{Err: err}
}

// StorageRootError is a failure to compute the storage root of one account.
type StorageRootError struct {
	Address common.Hash
	Err     error
}

func (e *StorageRootError) Error() string {
	return fmt.Sprintf("storage root of %x: %v", e.Address, e.Err)
}

func (e *StorageRootError) Unwrap() error { return e.Err }
