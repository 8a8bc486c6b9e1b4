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

import "time"

// TrieStats is the outcome of one trie walk.
type TrieStats struct {
	Duration      time.Duration
	BranchesAdded uint64
	LeavesAdded   uint64
}

// TrieTracker counts visited nodes of a trie walk.
type TrieTracker struct {
	started  time.Time
	branches uint64
	leaves   uint64
}

func NewTrieTracker() *TrieTracker {
	return &TrieTracker{started: time.Now()}
}

func (t *TrieTracker) IncBranch() { t.branches++ }
func (t *TrieTracker) IncLeaf()   { t.leaves++ }

func (t *TrieTracker) Finish() TrieStats {
	return TrieStats{
		Duration:      time.Since(t.started),
		BranchesAdded: t.branches,
		LeavesAdded:   t.leaves,
	}
}
