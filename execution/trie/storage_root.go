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
	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/empty"
)

// StorageRoot computes the storage root of a single account, taking the
// stored hashes of subtrees untouched by its prefix set.
type StorageRoot struct {
	trieFactory   TrieCursorFactory
	hashedFactory HashedCursorFactory
	address       common.Hash
	prefixSet     *PrefixSet
	metrics       *TrieRootMetrics
}

func NewStorageRoot(trieFactory TrieCursorFactory, hashedFactory HashedCursorFactory, address common.Hash, prefixSet *PrefixSet) *StorageRoot {
	return &StorageRoot{
		trieFactory:   trieFactory,
		hashedFactory: hashedFactory,
		address:       address,
		prefixSet:     prefixSet,
	}
}

func (r *StorageRoot) WithMetrics(m *TrieRootMetrics) *StorageRoot {
	r.metrics = m
	return r
}

// Calculate walks the storage trie and returns its root. Errors are
// *StorageRootError.
func (r *StorageRoot) Calculate() (common.Hash, TrieStats, error) {
	root, stats, _, err := r.calculate(false)
	return root, stats, err
}

// CalculateWithUpdates also returns the branch nodes of the storage trie.
func (r *StorageRoot) CalculateWithUpdates() (common.Hash, TrieStats, []StoredBranch, error) {
	return r.calculate(true)
}

func (r *StorageRoot) calculate(record bool) (common.Hash, TrieStats, []StoredBranch, error) {
	tracker := NewTrieTracker()
	root, nodes, err := r.walk(tracker, record)
	stats := tracker.Finish()
	if err != nil {
		return common.Hash{}, stats, nil, &StorageRootError{Address: r.address, Err: err}
	}
	r.metrics.Record(stats)
	return root, stats, nodes, nil
}

func (r *StorageRoot) walk(tracker *TrieTracker, record bool) (common.Hash, []StoredBranch, error) {
	hashedCursor, err := r.hashedFactory.HashedStorageCursor(r.address)
	if err != nil {
		return common.Hash{}, nil, err
	}
	defer hashedCursor.Close()

	isEmpty, err := hashedCursor.IsStorageEmpty()
	if err != nil {
		return common.Hash{}, nil, err
	}
	if isEmpty {
		return empty.RootHash, nil, nil
	}

	trieCursor, err := r.trieFactory.StorageTrieCursor(r.address)
	if err != nil {
		return common.Hash{}, nil, err
	}
	defer trieCursor.Close()

	hb := NewHashBuilder()
	if record {
		hb.WithRecording()
	}
	iter := NewNodeIter[uint256.Int](NewWalker(trieCursor, r.prefixSet), hashedCursor)
	for {
		elem, ok, err := iter.Next()
		if err != nil {
			return common.Hash{}, nil, err
		}
		if !ok {
			break
		}
		if elem.Branch {
			tracker.IncBranch()
			if err := hb.AddBranch(elem.Key, elem.Hash); err != nil {
				return common.Hash{}, nil, err
			}
			continue
		}
		tracker.IncLeaf()
		if err := hb.AddLeaf(KeyToNibbles(elem.LeafKey[:]), StorageLeafValue(&elem.Value)); err != nil {
			return common.Hash{}, nil, err
		}
	}
	root, err := hb.Root()
	if err != nil {
		return common.Hash{}, nil, err
	}
	return root, hb.Nodes(), nil
}

// StorageLeafValue is the RLP string of the value without leading zeroes.
func StorageLeafValue(v *uint256.Int) []byte {
	return appendRlpString(nil, v.Bytes())
}
