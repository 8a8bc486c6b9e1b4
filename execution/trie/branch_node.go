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
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/erigontech/trieprefetch/common"
)

// BranchNode is the stored form of a branch of the trie, keyed by its nibble
// path in TrieAccount/TrieStorage.
//
//	StateMask - children that exist
//	TreeMask  - children whose subtree holds stored branch nodes
//	HashMask  - children whose reference is a 32-byte hash; Hashes follow in nibble order
//
// RootHash is set only on the topmost node of a trie and holds the hash of the
// whole trie.
type BranchNode struct {
	StateMask uint16
	TreeMask  uint16
	HashMask  uint16
	Hashes    []common.Hash
	RootHash  *common.Hash
}

func hasBit(mask uint16, nibble int) bool { return mask&(1<<uint(nibble)) != 0 }

// Hash returns the stored hash of child nibble. Callers check HashMask first.
func (n *BranchNode) Hash(nibble int) common.Hash {
	return n.Hashes[bits.OnesCount16(n.HashMask&(uint16(1)<<uint(nibble)-1))]
}

func (n *BranchNode) Encode() []byte {
	l := 6 + len(n.Hashes)*common.HashLength
	if n.RootHash != nil {
		l += common.HashLength
	}
	buf := make([]byte, 6, l)
	binary.BigEndian.PutUint16(buf[0:], n.StateMask)
	binary.BigEndian.PutUint16(buf[2:], n.TreeMask)
	binary.BigEndian.PutUint16(buf[4:], n.HashMask)
	if n.RootHash != nil {
		buf = append(buf, n.RootHash[:]...)
	}
	for i := range n.Hashes {
		buf = append(buf, n.Hashes[i][:]...)
	}
	return buf
}

// DecodeBranchNode parses a stored branch node. The returned node does not
// reference v.
func DecodeBranchNode(v []byte) (*BranchNode, error) {
	if len(v) < 6 || (len(v)-6)%common.HashLength != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedNode, len(v))
	}
	n := &BranchNode{
		StateMask: binary.BigEndian.Uint16(v[0:]),
		TreeMask:  binary.BigEndian.Uint16(v[2:]),
		HashMask:  binary.BigEndian.Uint16(v[4:]),
	}
	v = v[6:]
	hashes := bits.OnesCount16(n.HashMask)
	switch len(v) / common.HashLength {
	case hashes:
	case hashes + 1:
		root := common.BytesToHash(v[:common.HashLength])
		n.RootHash = &root
		v = v[common.HashLength:]
	default:
		return nil, fmt.Errorf("%w: %d hashes for mask %016b", ErrMalformedNode, len(v)/common.HashLength, n.HashMask)
	}
	if n.TreeMask&^n.StateMask != 0 || n.HashMask&^n.StateMask != 0 {
		return nil, fmt.Errorf("%w: masks state=%016b tree=%016b hash=%016b", ErrMalformedNode, n.StateMask, n.TreeMask, n.HashMask)
	}
	n.Hashes = make([]common.Hash, hashes)
	for i := range n.Hashes {
		copy(n.Hashes[i][:], v[i*common.HashLength:])
	}
	return n, nil
}

func (n *BranchNode) String() string {
	return fmt.Sprintf("state=%016b tree=%016b hash=%016b hashes=%d root=%t", n.StateMask, n.TreeMask, n.HashMask, len(n.Hashes), n.RootHash != nil)
}
