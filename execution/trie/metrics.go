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
	"fmt"

	"github.com/erigontech/trieprefetch/metrics"
)

type TrieType string

const (
	TrieTypeAccount TrieType = "account"
	TrieTypeStorage TrieType = "storage"
)

var nodeCountBuckets = []float64{1, 4, 16, 64, 256, 1024, 4096, 16384, 65536}

// TrieRootMetrics records the stats of trie walks of one trie type.
type TrieRootMetrics struct {
	duration metrics.Histogram
	branches metrics.Histogram
	leaves   metrics.Histogram
}

func NewTrieRootMetrics(trieType TrieType) *TrieRootMetrics {
	return &TrieRootMetrics{
		duration: metrics.GetOrCreateHistogram(fmt.Sprintf(`trie_root_duration_seconds{type="%s"}`, trieType)),
		branches: metrics.GetOrCreateHistogram(fmt.Sprintf(`trie_root_branches_added{type="%s"}`, trieType), nodeCountBuckets...),
		leaves:   metrics.GetOrCreateHistogram(fmt.Sprintf(`trie_root_leaves_added{type="%s"}`, trieType), nodeCountBuckets...),
	}
}

// Record is a no-op on a nil receiver.
func (m *TrieRootMetrics) Record(stats TrieStats) {
	if m == nil {
		return
	}
	m.duration.Observe(stats.Duration.Seconds())
	m.branches.Observe(float64(stats.BranchesAdded))
	m.leaves.Observe(float64(stats.LeavesAdded))
}

// Samples is the number of walks recorded so far.
func (m *TrieRootMetrics) Samples() uint64 {
	if m == nil {
		return 0
	}
	return m.duration.SampleCount()
}
