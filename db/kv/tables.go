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

import "slices"

// Dictionary:
// "Plain State" - state where keys arent' hashed. "CurrentState" - same, but keys are hashed. "PlainState" used for blocks execution. "CurrentState" used mostly for Merkle root calculation.
// "incarnation" - uint64 number - how much times given account was SelfDestruct'ed.

const (
	// HashedAccounts
	// key - address hash
	// value - account encoded for storage
	HashedAccounts = "HashedAccount"

	// HashedStorage
	// key - address hash + storage key hash
	// value - storage value, big-endian, leading zeroes trimmed
	HashedStorage = "HashedStorage"

	// TrieOfAccounts and TrieOfStorage
	// hasState,groups - mark prefixes existing in hashed_account table
	// hasTree - mark prefixes existing in trie_account table (not related with branchNodes)
	// hasHash - mark prefixes which hashes are saved in current trie_account record (actually only hashes of branchNodes can be saved)
	// @see UnmarshalTrieNode
	//
	// TrieOfAccounts
	// key - nibbles of the node path, one nibble per byte
	// value - stored branch node
	//
	// TrieOfStorage
	// key - address hash + nibbles of the node path
	// value - stored branch node
	TrieOfAccounts = "TrieAccount"
	TrieOfStorage  = "TrieStorage"
)

// ChaindataTables lists every table a database of this module knows, in a
// fixed order that on-disk backends rely on for table ids.
var ChaindataTables = []string{
	HashedAccounts,
	HashedStorage,
	TrieOfAccounts,
	TrieOfStorage,
}

func IsKnownTable(table string) bool {
	return slices.Contains(ChaindataTables, table)
}
