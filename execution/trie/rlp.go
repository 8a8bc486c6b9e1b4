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

// Minimal RLP writers for trie nodes. Only strings and lists are needed.

func appendRlpHeader(dst []byte, offset byte, l int) []byte {
	if l < 56 {
		return append(dst, offset+byte(l))
	}
	var lenBytes [8]byte
	n := 0
	for v := l; v > 0; v >>= 8 {
		n++
	}
	for i, v := n-1, l; i >= 0; i, v = i-1, v>>8 {
		lenBytes[i] = byte(v)
	}
	dst = append(dst, offset+55+byte(n))
	return append(dst, lenBytes[:n]...)
}

// appendRlpString appends the RLP encoding of the byte string b.
func appendRlpString(dst, b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return append(dst, b[0])
	}
	dst = appendRlpHeader(dst, 0x80, len(b))
	return append(dst, b...)
}

// rlpList wraps an already encoded payload into a list.
func rlpList(payload []byte) []byte {
	out := appendRlpHeader(make([]byte, 0, len(payload)+9), 0xc0, len(payload))
	return append(out, payload...)
}
