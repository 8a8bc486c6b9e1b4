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
	"bytes"

	"github.com/erigontech/trieprefetch/common"
)

// terminator marks the end of a leaf key in hex (nibble) encoding.
const terminator = 16

// KeyToNibbles expands every byte of key into two nibbles, high nibble first.
func KeyToNibbles(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	return nibbles
}

// CompressNibbles packs nibbles two per byte. An odd trailing nibble becomes
// the high half of the last byte.
func CompressNibbles(nibbles []byte, out *[]byte) {
	tmp := (*out)[:0]
	for i := 0; i < len(nibbles); i += 2 {
		b := nibbles[i] << 4
		if i+1 < len(nibbles) {
			b |= nibbles[i+1]
		}
		tmp = append(tmp, b)
	}
	*out = tmp
}

func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == terminator
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	var i, length = 0, len(a)
	if len(b) < length {
		length = len(b)
	}
	for ; i < length; i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// hexToCompact encodes a nibble key (optionally terminated) into the compact
// form used inside leaf and extension nodes.
func hexToCompact(hex []byte) []byte {
	var flag byte
	if hasTerm(hex) {
		flag = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = flag << 5
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4
		buf[0] |= hex[0]
		hex = hex[1:]
	}
	for bi, ni := 0, 0; ni < len(hex); bi, ni = bi+1, ni+2 {
		buf[bi+1] = hex[ni]<<4 | hex[ni+1]
	}
	return buf
}

// nextNibblePath returns the smallest 32-byte key that sorts after every key
// under the nibble prefix. ok is false when no such key exists.
func nextNibblePath(prefix []byte) (common.Hash, bool) {
	p := bytes.TrimRight(prefix, "\x0f")
	if len(p) == 0 {
		return common.Hash{}, false
	}
	next := common.CopyBytes(p)
	next[len(next)-1]++
	var packed []byte
	CompressNibbles(next, &packed)
	return common.BytesToHash(append(packed, make([]byte, common.HashLength-len(packed))...)), true
}
