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

package prefetch

import (
	"errors"

	"github.com/erigontech/trieprefetch/execution/trie"
)

// ProviderError is a failure of the storage backend during a pass.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string { return "trie prefetch provider: " + e.Err.Error() }

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError returns the ProviderError behind err. A failure whose root
// cause is not the storage backend, a malformed node for one, has none.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	var dbErr *trie.DatabaseError
	if errors.As(err, &dbErr) {
		return &ProviderError{Err: err}, true
	}
	return nil, false
}
