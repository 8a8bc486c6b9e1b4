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

import "github.com/erigontech/trieprefetch/common"

// structInfoReceiver consumes the opcodes produced by GenStructStep. Each
// function corresponds to an opcode.
type structInfoReceiver interface {
	leafHash(length int, keyHex []byte, val []byte) error
	extensionHash(key []byte) error
	branchHash(path []byte, set uint16) error
	hash(h common.Hash) error
}

// GenStructStepData is the payload attached to the current key.
type GenStructStepData interface {
	genStructStepData()
}

type GenStructStepLeafData struct {
	Value []byte
}

func (GenStructStepLeafData) genStructStepData() {}

// GenStructStepHashData is a folded subtree: its hash is used as is.
type GenStructStepHashData struct {
	Hash common.Hash
}

func (GenStructStepHashData) genStructStepData() {}

// GenStructStep is one step of the algorithm that generates the structural
// information based on the sequence of keys.
// `curr`, `succ` are two full keys or prefixes that are currently visible to the
// algorithm. By comparing these, the algorithm makes decisions about the local
// structure, i.e. the presence of the prefix groups.
// `e` is the trie builder, which uses the structure information to assemble
// the trie on the stack and compute its hash.
// `groups` is the map of the stack: each element is a bitmask, one bit per
// element currently on the stack. Whenever a branch opcode is emitted, the set
// of digits is taken from the corresponding `groups` item, which is then
// removed from the slice.
// Leaf keys end with the terminator nibble; hash keys are plain prefixes. No
// key of a sequence may be a prefix of another one.
func GenStructStep(
	curr, succ []byte,
	e structInfoReceiver,
	data GenStructStepData,
	groups []uint16,
) ([]uint16, error) {
	return genStructStep(false, curr, succ, e, data, groups)
}

func genStructStep(
	recursive bool,
	curr, succ []byte,
	e structInfoReceiver,
	data GenStructStepData,
	groups []uint16,
) ([]uint16, error) {
	var precExists = len(groups) > 0
	// Calculate the prefix of the smallest prefix group containing curr
	var precLen int
	if len(groups) > 0 {
		precLen = len(groups) - 1
	}
	succLen := prefixLen(succ, curr)
	var maxLen int
	if precLen > succLen {
		maxLen = precLen
	} else {
		maxLen = succLen
	}
	// Add the digit immediately following the max common prefix and compute length of remainder length
	extraDigit := curr[maxLen]
	for maxLen >= len(groups) {
		groups = append(groups, 0)
	}
	groups[maxLen] |= uint16(1) << extraDigit
	remainderStart := maxLen
	if len(succ) > 0 || precExists {
		remainderStart++
	}
	remainderLen := len(curr) - remainderStart

	buildExtension := recursive
	if !recursive {
		switch v := data.(type) {
		case *GenStructStepHashData:
			if err := e.hash(v.Hash); err != nil {
				return nil, err
			}
			buildExtension = true
		case *GenStructStepLeafData:
			if err := e.leafHash(remainderLen, curr, v.Value); err != nil {
				return nil, err
			}
		}
	}
	if buildExtension && remainderLen > 0 {
		if err := e.extensionHash(curr[remainderStart : remainderStart+remainderLen]); err != nil {
			return nil, err
		}
	}
	// Check for the optional part
	if precLen <= succLen && len(succ) > 0 {
		return groups, nil
	}
	// Close the immediately encompassing prefix group, if needed
	if len(succ) > 0 || precExists {
		if err := e.branchHash(curr[:maxLen], groups[maxLen]); err != nil {
			return nil, err
		}
	}
	groups = groups[:maxLen]
	// Check the end of recursion
	if precLen == 0 {
		return groups, nil
	}
	// Identify preceding key for the recursive invocation
	newCurr := curr[:precLen]
	for len(groups) > 0 && groups[len(groups)-1] == 0 {
		groups = groups[:len(groups)-1]
	}

	// Recursion
	return genStructStep(true, newCurr, succ, e, nil, groups)
}
