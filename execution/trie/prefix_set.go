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
	"sort"
	"strings"

	"github.com/tidwall/btree"
)

// PrefixSetBuilder collects the nibble paths of changed keys. Keys may be
// inserted in any order and more than once.
type PrefixSetBuilder struct {
	keys btree.Set[string]
	all  bool
}

func NewPrefixSetBuilder() *PrefixSetBuilder {
	return &PrefixSetBuilder{}
}

// AddKey records a nibble path.
func (b *PrefixSetBuilder) AddKey(nibbles []byte) {
	b.keys.Insert(string(nibbles))
}

// SetAll makes the frozen set match every prefix. Used for wiped storage.
func (b *PrefixSetBuilder) SetAll() { b.all = true }

func (b *PrefixSetBuilder) Len() int { return b.keys.Len() }

// Freeze returns the immutable, sorted form of the collected keys.
func (b *PrefixSetBuilder) Freeze() *PrefixSet {
	keys := make([]string, 0, b.keys.Len())
	b.keys.Scan(func(k string) bool {
		keys = append(keys, k)
		return true
	})
	return &PrefixSet{keys: keys, all: b.all}
}

// PrefixSet is a frozen, sorted set of nibble paths. It is safe for
// concurrent use.
type PrefixSet struct {
	keys []string
	all  bool
}

// AllPrefixSet matches every prefix.
func AllPrefixSet() *PrefixSet { return &PrefixSet{all: true} }

// ContainsPrefix reports whether any key of the set starts with prefix.
func (s *PrefixSet) ContainsPrefix(prefix []byte) bool {
	if s == nil {
		return false
	}
	if s.all {
		return true
	}
	p := string(prefix)
	i := sort.SearchStrings(s.keys, p)
	return i < len(s.keys) && strings.HasPrefix(s.keys[i], p)
}

// IsEmpty is true when the set neither holds keys nor matches everything.
func (s *PrefixSet) IsEmpty() bool {
	return s == nil || (!s.all && len(s.keys) == 0)
}

func (s *PrefixSet) All() bool { return s != nil && s.all }

func (s *PrefixSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}
