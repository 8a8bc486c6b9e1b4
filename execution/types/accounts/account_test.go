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
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/crypto"
	"github.com/erigontech/trieprefetch/common/empty"
)

func TestEmptyAccount(t *testing.T) {
	t.Parallel()
	a := Account{
		Initialised: true,
		Nonce:       100,
		Balance:     *new(uint256.Int),
		Root:        empty.RootHash,
		CodeHash:    empty.CodeHash,
		Incarnation: 5,
	}

	encodedAccount := SerialiseV3(&a)

	decodedAcc := Account{}
	if err := DeserialiseV3(&decodedAcc, encodedAccount); err != nil {
		t.Fatal("Can't decode the incarnation", err, encodedAccount)
	}

	isAccountsEqual(t, a, decodedAcc)
}

func TestEmptyAccount2(t *testing.T) {
	t.Parallel()
	emptyAcc := Account{}

	encodedAccount := SerialiseV3(&emptyAcc)
	require.Equal(t, []byte{0, 0, 0, 0}, encodedAccount)

	decodedAcc := Account{}
	if err := DeserialiseV3(&decodedAcc, encodedAccount); err != nil {
		t.Fatal("Can't decode the incarnation", err, encodedAccount)
	}

	require.Equal(t, empty.CodeHash, decodedAcc.CodeHash)
	require.True(t, decodedAcc.IsEmpty())
}

func TestAccountEncodeWithCode(t *testing.T) {
	t.Parallel()
	a := Account{
		Initialised: true,
		Nonce:       2,
		Balance:     *new(uint256.Int).SetUint64(1000),
		Root:        empty.RootHash,
		CodeHash:    common.BytesToHash(crypto.Keccak256([]byte{1, 2, 3})),
		Incarnation: 4,
	}

	encodedAccount := SerialiseV3(&a)

	decodedAcc := Account{}
	if err := DeserialiseV3(&decodedAcc, encodedAccount); err != nil {
		t.Fatal("Can't decode the incarnation", err, encodedAccount)
	}

	isAccountsEqual(t, a, decodedAcc)
}

func TestEncodeAccountWithEmptyBalanceAndNotZeroIncarnation(t *testing.T) {
	t.Parallel()
	a := Account{
		Initialised: true,
		Nonce:       0,
		Balance:     *uint256.NewInt(0),
		Incarnation: 1,
	}
	encodedAccount := SerialiseV3(&a)

	decodedAccount := Account{}
	if err := DeserialiseV3(&decodedAccount, encodedAccount); err != nil {
		t.Fatal("Can't decode the incarnation", err, encodedAccount)
	}

	if a.Incarnation != decodedAccount.Incarnation {
		t.FailNow()
	}
	if a.Balance.Cmp(&decodedAccount.Balance) != 0 {
		t.FailNow()
	}
	if a.Nonce != decodedAccount.Nonce {
		t.FailNow()
	}
}

func TestDeserialiseV3Malformed(t *testing.T) {
	t.Parallel()

	var a Account
	require.Error(t, DeserialiseV3(&a, []byte{9, 1}))
	require.Error(t, DeserialiseV3(&a, []byte{1, 1}))
	require.Error(t, DeserialiseV3(&a, []byte{0, 0, 5, 1, 2}))
}

func TestEncodeForHashingMatchesStateAccount(t *testing.T) {
	t.Parallel()

	a := Account{
		Initialised: true,
		Nonce:       7,
		Balance:     *uint256.NewInt(1_000_000_000),
		CodeHash:    common.BytesToHash(crypto.Keccak256([]byte{0x60, 0x00})),
	}
	root := common.HexToHash("0x21")

	got, err := a.EncodeForHashing(root)
	require.NoError(t, err)

	want, err := rlp.EncodeToBytes(&types.StateAccount{
		Nonce:    7,
		Balance:  uint256.NewInt(1_000_000_000),
		Root:     gethcommon.Hash(root),
		CodeHash: a.CodeHash[:],
	})
	require.NoError(t, err)
	require.Equal(t, want, got)

	// zero code hash is hashed as the empty code hash
	var b Account
	got, err = b.EncodeForHashing(empty.RootHash)
	require.NoError(t, err)
	want, err = rlp.EncodeToBytes(&types.StateAccount{
		Balance:  new(uint256.Int),
		Root:     gethcommon.Hash(empty.RootHash),
		CodeHash: empty.CodeHash[:],
	})
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAccountCopy(t *testing.T) {
	t.Parallel()

	src := NewAccount()
	src.Nonce = 3
	src.Balance.SetUint64(9)
	var dst Account
	dst.Copy(&src)
	src.Balance.SetUint64(10)

	require.Equal(t, uint64(9), dst.Balance.Uint64())
	require.True(t, dst.Equals(&Account{Nonce: 3, Balance: *uint256.NewInt(9), CodeHash: empty.CodeHash}))
}

func isAccountsEqual(t *testing.T, src, dst Account) {
	t.Helper()
	if dst.CodeHash != src.CodeHash {
		t.Fatal("cant decode the account CodeHash", src.CodeHash, dst.CodeHash)
	}

	if dst.Balance.Cmp(&src.Balance) != 0 {
		t.Fatal("cant decode the account Balance", src.Balance, dst.Balance)
	}

	if dst.Nonce != src.Nonce {
		t.Fatal("cant decode the account Nonce", src.Nonce, dst.Nonce)
	}
	if dst.Incarnation != src.Incarnation {
		t.Fatal("cant decode the account Incarnation", src.Incarnation, dst.Incarnation)
	}
}
