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
	"math/bits"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/crypto"
	"github.com/erigontech/trieprefetch/common/empty"
)

const hashStackStride = common.HashLength + 1 // + 1 byte for RLP encoding

var errKeyOrder = errors.New("hash builder: keys must be strictly increasing")

// StoredBranch is a branch node recorded by the HashBuilder together with its
// nibble path.
type StoredBranch struct {
	Path []byte
	Node *BranchNode
}

// HashBuilder implements the interface `structInfoReceiver` and computes the
// root of a trie from its leaves and folded subtrees, supplied in key order.
type HashBuilder struct {
	hashStack []byte // Stack of sub-slices, each 33 bytes each, containing RLP encodings of node hashes (or of nodes themselves, if shorter than 32 bytes)
	leafStack []bool // Parallel to hashStack: true when the entry is a leaf
	groups    []uint16

	curr     []byte
	currData GenStructStepData
	hasCurr  bool
	rootHash *common.Hash

	buf []byte

	record bool
	nodes  []StoredBranch
}

func NewHashBuilder() *HashBuilder {
	return &HashBuilder{}
}

// WithRecording makes the builder keep every branch node it hashes.
func (hb *HashBuilder) WithRecording() *HashBuilder {
	hb.record = true
	return hb
}

// Reset makes the HashBuilder suitable for reuse
func (hb *HashBuilder) Reset() {
	hb.hashStack = hb.hashStack[:0]
	hb.leafStack = hb.leafStack[:0]
	hb.groups = hb.groups[:0]
	hb.curr = hb.curr[:0]
	hb.currData = nil
	hb.hasCurr = false
	hb.rootHash = nil
	hb.nodes = nil
}

// AddLeaf adds a leaf with the given nibble key (without terminator) and value.
func (hb *HashBuilder) AddLeaf(key []byte, value []byte) error {
	k := make([]byte, len(key)+1)
	copy(k, key)
	k[len(key)] = terminator
	return hb.add(k, &GenStructStepLeafData{Value: common.CopyBytes(value)})
}

// AddBranch adds a folded subtree at the nibble key. A subtree at the empty
// key is the whole trie and must be the only element.
func (hb *HashBuilder) AddBranch(key []byte, hash common.Hash) error {
	if len(key) == 0 {
		if hb.hasCurr || hb.rootHash != nil {
			return errKeyOrder
		}
		hb.rootHash = &hash
		return nil
	}
	return hb.add(common.CopyBytes(key), &GenStructStepHashData{Hash: hash})
}

func (hb *HashBuilder) add(key []byte, data GenStructStepData) error {
	if hb.rootHash != nil {
		return errKeyOrder
	}
	if hb.hasCurr {
		if string(key) <= string(hb.curr) {
			return fmt.Errorf("%w: %x after %x", errKeyOrder, key, hb.curr)
		}
		var err error
		if hb.groups, err = GenStructStep(hb.curr, key, hb, hb.currData, hb.groups); err != nil {
			return err
		}
	}
	hb.curr = key
	hb.currData = data
	hb.hasCurr = true
	return nil
}

// Root finishes the trie and returns its hash. With recording enabled the
// topmost recorded branch receives the root hash.
func (hb *HashBuilder) Root() (common.Hash, error) {
	if hb.rootHash != nil {
		return *hb.rootHash, nil
	}
	if hb.hasCurr {
		var err error
		if hb.groups, err = GenStructStep(hb.curr, nil, hb, hb.currData, hb.groups); err != nil {
			return common.Hash{}, err
		}
		hb.hasCurr = false
	}
	if len(hb.hashStack) == 0 {
		return empty.RootHash, nil
	}
	top := hb.hashStack[len(hb.hashStack)-hashStackStride:]
	var root common.Hash
	if top[0] == 0x80+common.HashLength {
		copy(root[:], top[1:])
	} else {
		root = crypto.Keccak256Hash(top[:refLen(top)])
	}
	if hb.record && len(hb.nodes) > 0 {
		r := root
		hb.nodes[len(hb.nodes)-1].Node.RootHash = &r
	}
	return root, nil
}

// Nodes returns the recorded branch nodes in the order they were hashed.
func (hb *HashBuilder) Nodes() []StoredBranch { return hb.nodes }

// refLen is the length of the reference stored in a hash stack entry.
func refLen(entry []byte) int {
	if entry[0] == 0x80+common.HashLength {
		return hashStackStride
	}
	return int(entry[0]-0xc0) + 1
}

// pushNode pushes the reference to an encoded node: the node itself when it
// is shorter than a hash, otherwise its hash.
func (hb *HashBuilder) pushNode(enc []byte, leaf bool) {
	var entry [hashStackStride]byte
	if len(enc) < common.HashLength {
		copy(entry[:], enc)
	} else {
		entry[0] = 0x80 + common.HashLength
		h := crypto.Keccak256Hash(enc)
		copy(entry[1:], h[:])
	}
	hb.hashStack = append(hb.hashStack, entry[:]...)
	hb.leafStack = append(hb.leafStack, leaf)
}

func (hb *HashBuilder) leafHash(length int, keyHex []byte, val []byte) error {
	if length < 0 {
		return fmt.Errorf("length %d", length)
	}
	key := keyHex[len(keyHex)-length:]
	hb.buf = appendRlpString(hb.buf[:0], hexToCompact(key))
	hb.buf = appendRlpString(hb.buf, val)
	hb.pushNode(rlpList(hb.buf), true)
	return nil
}

func (hb *HashBuilder) extensionHash(key []byte) error {
	if len(hb.hashStack) < hashStackStride {
		return fmt.Errorf("extension %x: empty stack", key)
	}
	child := hb.hashStack[len(hb.hashStack)-hashStackStride:]
	hb.buf = appendRlpString(hb.buf[:0], hexToCompact(key))
	hb.buf = append(hb.buf, child[:refLen(child)]...)
	hb.hashStack = hb.hashStack[:len(hb.hashStack)-hashStackStride]
	hb.leafStack = hb.leafStack[:len(hb.leafStack)-1]
	hb.pushNode(rlpList(hb.buf), false)
	return nil
}

func (hb *HashBuilder) branchHash(path []byte, set uint16) error {
	digits := bits.OnesCount16(set)
	if len(hb.leafStack) < digits {
		return fmt.Errorf("branch %x: stack has %d items, need %d", path, len(hb.leafStack), digits)
	}
	base := len(hb.leafStack) - digits
	var stored *BranchNode
	if hb.record {
		stored = &BranchNode{StateMask: set}
	}
	hb.buf = hb.buf[:0]
	i := base
	for digit := 0; digit < 16; digit++ {
		if !hasBit(set, digit) {
			hb.buf = append(hb.buf, 0x80)
			continue
		}
		child := hb.hashStack[i*hashStackStride : (i+1)*hashStackStride]
		hb.buf = append(hb.buf, child[:refLen(child)]...)
		if stored != nil && !hb.leafStack[i] {
			stored.TreeMask |= 1 << uint(digit)
			if child[0] == 0x80+common.HashLength {
				stored.HashMask |= 1 << uint(digit)
				stored.Hashes = append(stored.Hashes, common.BytesToHash(child[1:]))
			}
		}
		i++
	}
	hb.buf = append(hb.buf, 0x80) // no value in branch nodes of hashed tries
	hb.hashStack = hb.hashStack[:base*hashStackStride]
	hb.leafStack = hb.leafStack[:base]
	hb.pushNode(rlpList(hb.buf), false)
	if stored != nil {
		hb.nodes = append(hb.nodes, StoredBranch{Path: common.CopyBytes(path), Node: stored})
	}
	return nil
}

func (hb *HashBuilder) hash(h common.Hash) error {
	var entry [hashStackStride]byte
	entry[0] = 0x80 + common.HashLength
	copy(entry[1:], h[:])
	hb.hashStack = append(hb.hashStack, entry[:]...)
	hb.leafStack = append(hb.leafStack, false)
	return nil
}
