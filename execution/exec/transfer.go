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
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/trieprefetch/common/queue"
	"github.com/erigontech/trieprefetch/execution/state"
)

// TransferExecutorProvider executes blocks made of plain value transfers and
// storage writes. It is enough to drive the prefetcher with realistic
// deltas without an EVM.
type TransferExecutorProvider struct {
	logger log.Logger
}

var _ ExecutorProvider = (*TransferExecutorProvider)(nil)

func NewTransferExecutorProvider(logger log.Logger) *TransferExecutorProvider {
	return &TransferExecutorProvider{logger: logger}
}

func (p *TransferExecutorProvider) Executor(reader state.StateReader, deltas *queue.Unbounded[*state.HashedPostState]) Executor {
	return &transferExecutor{db: state.NewCacheDB(reader), deltas: deltas, logger: p.logger}
}

func (p *TransferExecutorProvider) BatchExecutor(reader state.StateReader) BatchExecutor {
	return &transferBatchExecutor{
		transferExecutor: transferExecutor{db: state.NewCacheDB(reader), logger: p.logger},
		state:            state.NewHashedPostState(),
	}
}

type transferExecutor struct {
	db     *state.CacheDB
	deltas *queue.Unbounded[*state.HashedPostState]
	logger log.Logger
}

func (e *transferExecutor) Execute(ctx context.Context, block *Block) (*BlockOutput, error) {
	out := &BlockOutput{Number: block.Number, State: state.NewHashedPostState()}
	if err := UpgradeSystemContracts(e.db, block.SystemContracts, true, block.LateUpgrade); err != nil {
		return nil, fmt.Errorf("block %d: %w", block.Number, err)
	}
	e.commit(out)

	for i := range block.Transfers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.applyTransfer(&block.Transfers[i]); err != nil {
			return nil, fmt.Errorf("block %d tx %d: %w", block.Number, i, err)
		}
		e.commit(out)
	}

	for _, w := range block.StorageWrites {
		acc, err := e.db.LoadAccount(w.Address)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", block.Number, err)
		}
		acc.Touch()
		acc.SetStorage(w.Slot, &w.Value)
	}
	e.commit(out)

	if err := UpgradeSystemContracts(e.db, block.SystemContracts, false, block.LateUpgrade); err != nil {
		return nil, fmt.Errorf("block %d: %w", block.Number, err)
	}
	if err := AddBlockReward(e.db, block.Coinbase); err != nil {
		return nil, fmt.Errorf("block %d: %w", block.Number, err)
	}
	e.commit(out)

	e.logger.Debug("Executed block", "number", block.Number, "transfers", len(block.Transfers),
		"storageWrites", len(block.StorageWrites), "accounts", len(out.State.Accounts))
	return out, nil
}

func (e *transferExecutor) applyTransfer(tx *Transfer) error {
	from, err := e.db.LoadAccount(tx.From)
	if err != nil {
		return err
	}
	var total uint256.Int
	if _, overflow := total.AddOverflow(&tx.Value, &tx.Fee); overflow {
		return fmt.Errorf("transfer from %x: value overflow", tx.From)
	}
	if err := from.SubBalance(&total); err != nil {
		return fmt.Errorf("transfer from %x: %w", tx.From, err)
	}
	from.Info.Nonce++

	to, err := e.db.LoadAccount(tx.To)
	if err != nil {
		return err
	}
	to.Touch()
	to.AddBalance(&tx.Value)

	if !tx.Fee.IsZero() {
		sys, err := e.db.LoadAccount(SystemAddress)
		if err != nil {
			return err
		}
		sys.Touch()
		sys.AddBalance(&tx.Fee)
	}
	return nil
}

// commit moves pending changes into the block output and publishes them.
func (e *transferExecutor) commit(out *BlockOutput) {
	delta := e.db.TakeHashedPostState()
	if delta.IsEmpty() {
		return
	}
	out.State.Extend(delta)
	if e.deltas != nil {
		e.deltas.Push(delta)
	}
}

type transferBatchExecutor struct {
	transferExecutor
	state  *state.HashedPostState
	first  uint64
	blocks int
	tip    uint64
}

func (b *transferBatchExecutor) ExecuteAndVerifyOne(ctx context.Context, block *Block) error {
	if b.blocks > 0 && block.Number != b.first+uint64(b.blocks) {
		return fmt.Errorf("block %d out of order, expected %d", block.Number, b.first+uint64(b.blocks))
	}
	out, err := b.Execute(ctx, block)
	if err != nil {
		return err
	}
	if b.blocks == 0 {
		b.first = block.Number
	}
	b.blocks++
	b.state.Extend(out.State)
	if b.tip != 0 && block.Number >= b.tip {
		b.logger.Info("Reached tip", "number", block.Number)
	}
	return nil
}

func (b *transferBatchExecutor) Finalize() (*Outcome, error) {
	return &Outcome{FirstBlock: b.first, Blocks: b.blocks, State: b.state}, nil
}

func (b *transferBatchExecutor) SetTip(number uint64) { b.tip = number }
