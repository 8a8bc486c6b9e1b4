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
	"context"
	"fmt"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

// TriePrefixSets directs a state root computation: which account paths and,
// per account, which storage paths changed.
type TriePrefixSets struct {
	AccountPrefixSet  *PrefixSet
	StoragePrefixSets map[common.Hash]*PrefixSet
}

// StoragePrefixSet returns the set of address, or an empty set.
func (s TriePrefixSets) StoragePrefixSet(address common.Hash) *PrefixSet {
	if ps, ok := s.StoragePrefixSets[address]; ok {
		return ps
	}
	return NewPrefixSetBuilder().Freeze()
}

// TrieUpdates are the branch nodes produced by a state root computation.
type TrieUpdates struct {
	AccountNodes []StoredBranch
	StorageNodes map[common.Hash][]StoredBranch
}

// StateRoot computes the root of the account trie, with the storage root of
// every account it hashes.
type StateRoot struct {
	trieFactory   TrieCursorFactory
	hashedFactory HashedCursorFactory
	prefixSets    TriePrefixSets

	accountMetrics *TrieRootMetrics
	storageMetrics *TrieRootMetrics
}

func NewStateRoot(trieFactory TrieCursorFactory, hashedFactory HashedCursorFactory, prefixSets TriePrefixSets) *StateRoot {
	return &StateRoot{
		trieFactory:   trieFactory,
		hashedFactory: hashedFactory,
		prefixSets:    prefixSets,
	}
}

func (r *StateRoot) WithMetrics(account, storage *TrieRootMetrics) *StateRoot {
	r.accountMetrics, r.storageMetrics = account, storage
	return r
}

func (r *StateRoot) Calculate(ctx context.Context) (common.Hash, TrieStats, error) {
	root, stats, _, err := r.calculate(ctx, false)
	return root, stats, err
}

func (r *StateRoot) CalculateWithUpdates(ctx context.Context) (common.Hash, TrieStats, *TrieUpdates, error) {
	return r.calculate(ctx, true)
}

func (r *StateRoot) calculate(ctx context.Context, record bool) (common.Hash, TrieStats, *TrieUpdates, error) {
	tracker := NewTrieTracker()
	var updates *TrieUpdates
	if record {
		updates = &TrieUpdates{StorageNodes: map[common.Hash][]StoredBranch{}}
	}

	trieCursor, err := r.trieFactory.AccountTrieCursor()
	if err != nil {
		return common.Hash{}, TrieStats{}, nil, err
	}
	defer trieCursor.Close()
	hashedCursor, err := r.hashedFactory.HashedAccountCursor()
	if err != nil {
		return common.Hash{}, TrieStats{}, nil, err
	}
	defer hashedCursor.Close()

	hb := NewHashBuilder()
	if record {
		hb.WithRecording()
	}
	iter := NewNodeIter[*accounts.Account](NewWalker(trieCursor, r.prefixSets.AccountPrefixSet), hashedCursor)
	for {
		select {
		case <-ctx.Done():
			return common.Hash{}, tracker.Finish(), nil, ctx.Err()
		default:
		}
		elem, ok, err := iter.Next()
		if err != nil {
			return common.Hash{}, tracker.Finish(), nil, err
		}
		if !ok {
			break
		}
		if elem.Branch {
			tracker.IncBranch()
			if err := hb.AddBranch(elem.Key, elem.Hash); err != nil {
				return common.Hash{}, tracker.Finish(), nil, err
			}
			continue
		}
		tracker.IncLeaf()
		sr := NewStorageRoot(r.trieFactory, r.hashedFactory, elem.LeafKey, r.prefixSets.StoragePrefixSet(elem.LeafKey)).
			WithMetrics(r.storageMetrics)
		storageRoot, _, nodes, err := sr.calculate(record)
		if err != nil {
			return common.Hash{}, tracker.Finish(), nil, err
		}
		if record && len(nodes) > 0 {
			updates.StorageNodes[elem.LeafKey] = nodes
		}
		enc, err := elem.Value.EncodeForHashing(storageRoot)
		if err != nil {
			return common.Hash{}, tracker.Finish(), nil, fmt.Errorf("encode account %x: %w", elem.LeafKey, err)
		}
		if err := hb.AddLeaf(KeyToNibbles(elem.LeafKey[:]), enc); err != nil {
			return common.Hash{}, tracker.Finish(), nil, err
		}
	}
	root, err := hb.Root()
	stats := tracker.Finish()
	if err != nil {
		return common.Hash{}, stats, nil, err
	}
	r.accountMetrics.Record(stats)
	if record {
		updates.AccountNodes = hb.Nodes()
	}
	return root, stats, updates, nil
}
