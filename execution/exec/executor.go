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

package exec

import (
	"context"
	"errors"

	"github.com/holiman/uint256"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/queue"
	"github.com/erigontech/trieprefetch/execution/state"
)

var ErrUnavailableForNoop = errors.New("execution unavailable for noop")

// Transfer moves Value from From to To. Fee is taken from the sender on top
// of the value and collected at the system address until the block reward.
type Transfer struct {
	From  common.Address
	To    common.Address
	Value uint256.Int
	Fee   uint256.Int
}

type StorageWrite struct {
	Address common.Address
	Slot    common.Hash
	Value   uint256.Int
}

type Block struct {
	Number        uint64
	Coinbase      common.Address
	Transfers     []Transfer
	StorageWrites []StorageWrite

	// SystemContracts are installed either before the system transactions or
	// after them, depending on LateUpgrade.
	SystemContracts map[common.Address][]byte
	LateUpgrade     bool
}

type BlockOutput struct {
	Number uint64
	// State is every change made by the block, hashed.
	State *state.HashedPostState
}

type Outcome struct {
	FirstBlock uint64
	Blocks     int
	State      *state.HashedPostState
}

type Executor interface {
	Execute(ctx context.Context, block *Block) (*BlockOutput, error)
}

type BatchExecutor interface {
	ExecuteAndVerifyOne(ctx context.Context, block *Block) error
	Finalize() (*Outcome, error)
	SetTip(number uint64)
}

// ExecutorProvider creates executors over a state reader. When deltas is not
// nil the executor pushes the changes of every transaction to it.
type ExecutorProvider interface {
	Executor(reader state.StateReader, deltas *queue.Unbounded[*state.HashedPostState]) Executor
	BatchExecutor(reader state.StateReader) BatchExecutor
}
