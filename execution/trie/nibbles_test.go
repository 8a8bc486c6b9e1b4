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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erigontech/trieprefetch/common"
)

func TestKeyToNibbles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0xa, 0xb, 0x0, 0x1}, KeyToNibbles([]byte{0xab, 0x01}))

	var packed []byte
	CompressNibbles([]byte{0xa, 0xb, 0x0, 0x1}, &packed)
	assert.Equal(t, []byte{0xab, 0x01}, packed)
	CompressNibbles([]byte{0xa, 0xb, 0x3}, &packed)
	assert.Equal(t, []byte{0xab, 0x30}, packed)
}

func TestHexToCompact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hex, compact []byte
	}{
		// empty keys, with and without terminator.
		{hex: []byte{}, compact: []byte{0x00}},
		{hex: []byte{16}, compact: []byte{0x20}},
		// odd length, no terminator
		{hex: []byte{1, 2, 3, 4, 5}, compact: []byte{0x11, 0x23, 0x45}},
		// even length, no terminator
		{hex: []byte{0, 1, 2, 3, 4, 5}, compact: []byte{0x00, 0x01, 0x23, 0x45}},
		// odd length, terminator
		{hex: []byte{15, 1, 12, 11, 8, 16}, compact: []byte{0x3f, 0x1c, 0xb8}},
		// even length, terminator
		{hex: []byte{0, 15, 1, 12, 11, 8, 16}, compact: []byte{0x20, 0x0f, 0x1c, 0xb8}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.compact, hexToCompact(tt.hex), "%x", tt.hex)
	}
}

func TestNextNibblePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix []byte
		want   string
		ok     bool
	}{
		{[]byte{}, "", false},
		{[]byte{0xf, 0xf}, "", false},
		{[]byte{0x1}, "0x2000000000000000000000000000000000000000000000000000000000000000", true},
		{[]byte{0x1, 0x2}, "0x1300000000000000000000000000000000000000000000000000000000000000", true},
		{[]byte{0x1, 0xf}, "0x2000000000000000000000000000000000000000000000000000000000000000", true},
		{[]byte{0xa, 0xb, 0xc}, "0xabd0000000000000000000000000000000000000000000000000000000000000", true},
	}
	for _, tt := range tests {
		got, ok := nextNibblePath(tt.prefix)
		assert.Equal(t, tt.ok, ok, "%x", tt.prefix)
		if tt.ok {
			assert.Equal(t, common.HexToHash(tt.want), got, "%x", tt.prefix)
		}
	}
}
