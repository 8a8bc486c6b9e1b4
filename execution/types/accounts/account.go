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

package accounts

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/empty"
)

// Account is the Ethereum consensus representation of accounts.
// These objects are stored in the main account trie.
// DESCRIBED: docs/programmers_guide/guide.md#ethereum-state
type Account struct {
	Initialised bool
	Nonce       uint64
	Balance     uint256.Int
	Root        common.Hash // merkle root of the storage trie
	CodeHash    common.Hash // hash of the bytecode
	Incarnation uint64
}

// NewAccount creates a new account w/o code nor storage.
func NewAccount() Account {
	return Account{
		Initialised: true,
		Root:        empty.RootHash,
		CodeHash:    empty.CodeHash,
	}
}

func (a *Account) Copy(image *Account) {
	a.Initialised = image.Initialised
	a.Nonce = image.Nonce
	a.Balance.Set(&image.Balance)
	copy(a.Root[:], image.Root[:])
	copy(a.CodeHash[:], image.CodeHash[:])
	a.Incarnation = image.Incarnation
}

func (a *Account) IsEmptyCodeHash() bool {
	return a.CodeHash == empty.CodeHash || a.CodeHash == (common.Hash{})
}

// IsEmpty reports whether the account has no nonce, no balance and no code.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && a.IsEmptyCodeHash()
}

func (a *Account) Equals(acc *Account) bool {
	return a.Nonce == acc.Nonce &&
		a.CodeHash == acc.CodeHash &&
		a.Balance.Cmp(&acc.Balance) == 0 &&
		a.Incarnation == acc.Incarnation
}

type trieAccount struct {
	Nonce    uint64
	Balance  *uint256.Int
	Root     common.Hash
	CodeHash common.Hash
}

// EncodeForHashing returns the RLP list [nonce, balance, storageRoot, codeHash]
// that is hashed into the account trie leaf.
func (a *Account) EncodeForHashing(storageRoot common.Hash) ([]byte, error) {
	codeHash := a.CodeHash
	if codeHash == (common.Hash{}) {
		codeHash = empty.CodeHash
	}
	return rlp.EncodeToBytes(&trieAccount{
		Nonce:    a.Nonce,
		Balance:  &a.Balance,
		Root:     storageRoot,
		CodeHash: codeHash,
	})
}

// SerialiseV3 encodes the account for the hashed state table: every field is
// prefixed with its length in bytes. The storage root is not stored, it is a
// property of the storage trie.
func SerialiseV3(a *Account) []byte {
	var l int
	l++
	if a.Nonce > 0 {
		l += (bits.Len64(a.Nonce) + 7) / 8
	}
	l++
	if !a.Balance.IsZero() {
		l += a.Balance.ByteLen()
	}
	l++
	if !a.IsEmptyCodeHash() {
		l += common.HashLength
	}
	l++
	if a.Incarnation > 0 {
		l += (bits.Len64(a.Incarnation) + 7) / 8
	}
	value := make([]byte, l)
	pos := 0

	pos = putUint64(value, pos, a.Nonce)
	if a.Balance.IsZero() {
		value[pos] = 0
		pos++
	} else {
		balanceBytes := a.Balance.ByteLen()
		value[pos] = byte(balanceBytes)
		pos++
		a.Balance.WriteToSlice(value[pos : pos+balanceBytes])
		pos += balanceBytes
	}
	if a.IsEmptyCodeHash() {
		value[pos] = 0
		pos++
	} else {
		value[pos] = common.HashLength
		pos++
		copy(value[pos:pos+common.HashLength], a.CodeHash[:])
		pos += common.HashLength
	}
	putUint64(value, pos, a.Incarnation)
	return value
}

func putUint64(dst []byte, pos int, v uint64) int {
	if v == 0 {
		dst[pos] = 0
		return pos + 1
	}
	n := (bits.Len64(v) + 7) / 8
	dst[pos] = byte(n)
	pos++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	copy(dst[pos:pos+n], buf[8-n:])
	return pos + n
}

func DeserialiseV3(a *Account, enc []byte) error {
	a.Reset()
	if len(enc) == 0 {
		return nil
	}
	pos := 0
	var err error
	if a.Nonce, pos, err = readUint64(enc, pos, "nonce"); err != nil {
		return err
	}
	if pos >= len(enc) {
		return fmt.Errorf("deserialse2: %d >= %d ", pos, len(enc))
	}
	balanceBytes := int(enc[pos])
	pos++
	if balanceBytes > 0 {
		if pos+balanceBytes > len(enc) || balanceBytes > 32 {
			return fmt.Errorf("deserialise account balance: %d bytes at %d of %d", balanceBytes, pos, len(enc))
		}
		a.Balance.SetBytes(enc[pos : pos+balanceBytes])
		pos += balanceBytes
	}
	if pos >= len(enc) {
		return fmt.Errorf("deserialse2: %d >= %d ", pos, len(enc))
	}
	codeHashBytes := int(enc[pos])
	pos++
	if codeHashBytes > 0 {
		if codeHashBytes != common.HashLength || pos+codeHashBytes > len(enc) {
			return fmt.Errorf("deserialise account code hash: %d bytes at %d of %d", codeHashBytes, pos, len(enc))
		}
		copy(a.CodeHash[:], enc[pos:pos+codeHashBytes])
		pos += codeHashBytes
	}
	if pos >= len(enc) {
		return fmt.Errorf("deserialse2: %d >= %d ", pos, len(enc))
	}
	if a.Incarnation, _, err = readUint64(enc, pos, "incarnation"); err != nil {
		return err
	}
	return nil
}

func readUint64(enc []byte, pos int, field string) (uint64, int, error) {
	n := int(enc[pos])
	pos++
	if n > 8 || pos+n > len(enc) {
		return 0, pos, fmt.Errorf("deserialise account %s: %d bytes at %d of %d", field, n, pos, len(enc))
	}
	var buf [8]byte
	copy(buf[8-n:], enc[pos:pos+n])
	return binary.BigEndian.Uint64(buf[:]), pos + n, nil
}

// Reset sets the account to the state of a freshly created one.
func (a *Account) Reset() {
	*a = NewAccount()
}
