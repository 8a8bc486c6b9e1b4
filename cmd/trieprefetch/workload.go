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

package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/holiman/uint256"
	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/common/crypto"
	"github.com/erigontech/trieprefetch/common/queue"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/exec"
	"github.com/erigontech/trieprefetch/execution/state"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/execution/trie/prefetch"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
)

const logPrefix = "workload"

type workloadOptions struct {
	Accounts      int
	StorageEvery  int
	Blocks        int
	Transfers     int
	StorageWrites int
	Seed          int64
	Verify        bool
}

type workloadResult struct {
	GenesisRoot common.Hash
	Blocks      int
	Summary     prefetch.RunSummary
	// PostRoot is only set when the blocks were verified.
	PostRoot common.Hash
}

// genesis keeps the plain addresses of the generated state so that blocks
// can refer to them.
type genesis struct {
	accounts  []common.Address
	contracts []common.Address
	slots     map[common.Address][]common.Hash
}

func randomAddress(rnd *rand.Rand) common.Address {
	var a common.Address
	rnd.Read(a[:])
	return a
}

func randomHash(rnd *rand.Rand) common.Hash {
	var h common.Hash
	rnd.Read(h[:])
	return h
}

// populate writes the generated accounts and storage into db and rebuilds
// the trie tables over them.
func populate(ctx context.Context, db kv.RwDB, rnd *rand.Rand, opts workloadOptions, logger log.Logger) (*genesis, common.Hash, error) {
	g := &genesis{slots: map[common.Address][]common.Hash{}}
	var root common.Hash
	err := db.Update(ctx, func(tx kv.RwTx) error {
		for i := 0; i < opts.Accounts; i++ {
			addr := randomAddress(rnd)
			g.accounts = append(g.accounts, addr)

			acc := accounts.NewAccount()
			acc.Balance.SetUint64(1_000_000_000 + rnd.Uint64()%1_000_000_000)
			acc.Nonce = rnd.Uint64() % 100
			addrHash := crypto.Keccak256Hash(addr[:])
			if err := tx.Put(kv.HashedAccounts, addrHash[:], accounts.SerialiseV3(&acc)); err != nil {
				return err
			}

			if opts.StorageEvery == 0 || i%opts.StorageEvery != 0 {
				continue
			}
			g.contracts = append(g.contracts, addr)
			for j := 0; j < 10+rnd.Intn(41); j++ {
				slot := randomHash(rnd)
				g.slots[addr] = append(g.slots[addr], slot)
				slotHash := crypto.Keccak256Hash(slot[:])
				v := uint256.NewInt(rnd.Uint64()%1_000_000 + 1)
				if err := tx.Put(kv.HashedStorage, append(common.CopyBytes(addrHash[:]), slotHash[:]...), v.Bytes()); err != nil {
					return err
				}
			}
		}
		var err error
		root, err = trie.RegenerateIntermediateHashes(ctx, logPrefix, tx, logger)
		return err
	})
	if err != nil {
		return nil, common.Hash{}, fmt.Errorf("populate state: %w", err)
	}
	logger.Info(fmt.Sprintf("[%s] State populated", logPrefix), "accounts", len(g.accounts), "contracts", len(g.contracts), "root", root)
	return g, root, nil
}

var upgradedContract = common.HexToAddress("0x000000000000000000000000000000000000face")

// generateBlocks builds blocks of transfers between known accounts, with one
// in ten transfers going to a fresh address, and writes to the storage of
// known contracts.
func generateBlocks(rnd *rand.Rand, g *genesis, opts workloadOptions) []*exec.Block {
	blocks := make([]*exec.Block, 0, opts.Blocks)
	for n := 1; n <= opts.Blocks; n++ {
		b := &exec.Block{
			Number:   uint64(n),
			Coinbase: g.accounts[rnd.Intn(len(g.accounts))],
		}
		for i := 0; i < opts.Transfers; i++ {
			to := g.accounts[rnd.Intn(len(g.accounts))]
			if rnd.Intn(10) == 0 {
				to = randomAddress(rnd)
			}
			var t exec.Transfer
			t.From = g.accounts[rnd.Intn(len(g.accounts))]
			t.To = to
			t.Value.SetUint64(1 + rnd.Uint64()%10_000)
			t.Fee.SetUint64(21_000)
			b.Transfers = append(b.Transfers, t)
		}
		for i := 0; len(g.contracts) > 0 && i < opts.StorageWrites; i++ {
			addr := g.contracts[rnd.Intn(len(g.contracts))]
			slot := randomHash(rnd)
			if slots := g.slots[addr]; rnd.Intn(4) != 0 && len(slots) > 0 {
				slot = slots[rnd.Intn(len(slots))]
			}
			w := exec.StorageWrite{Address: addr, Slot: slot}
			w.Value.SetUint64(1 + rnd.Uint64()%1_000_000)
			b.StorageWrites = append(b.StorageWrites, w)
		}
		if n%8 == 0 {
			b.SystemContracts = map[common.Address][]byte{upgradedContract: {0x60, 0x00, 0x60, 0x00, byte(n)}}
			b.LateUpgrade = n%16 == 0
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// runWorkload populates db, executes the generated blocks and feeds every
// state delta to the prefetcher. It returns once the prefetcher has seen the
// last delta or ctx is cancelled.
func runWorkload(ctx context.Context, db kv.RwDB, cfg prefetch.Config, opts workloadOptions, logger log.Logger) (*workloadResult, error) {
	if opts.Accounts <= 0 {
		return nil, fmt.Errorf("accounts must be positive, got %d", opts.Accounts)
	}
	rnd := rand.New(rand.NewSource(opts.Seed))
	g, root, err := populate(ctx, db, rnd, opts, logger)
	if err != nil {
		return nil, err
	}
	blocks := generateBlocks(rnd, g, opts)

	p, err := prefetch.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	deltas := queue.NewUnbounded[*state.HashedPostState]()

	// stopped once the queue is drained or ctx is done
	runCtx, stopPrefetch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopPrefetch()
	done := make(chan prefetch.RunSummary, 1)
	go func() { done <- p.Run(runCtx, db, deltas) }()

	res := &workloadResult{GenesisRoot: root}
	execErr := executeBlocks(ctx, db, blocks, deltas, logger, &res.Blocks)
	deltas.Close()
	waitDrained(ctx, deltas)
	stopPrefetch()
	res.Summary = <-done
	if execErr != nil {
		return res, execErr
	}

	if opts.Verify {
		if res.PostRoot, err = verifyBlocks(ctx, db, blocks, logger); err != nil {
			return res, err
		}
	}
	return res, nil
}

func executeBlocks(ctx context.Context, db kv.RoDB, blocks []*exec.Block, deltas *queue.Unbounded[*state.HashedPostState], logger log.Logger, executed *int) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	executor := exec.NewTransferExecutorProvider(logger).Executor(state.NewDbStateReader(tx), deltas)
	logEvery := time.NewTicker(20 * time.Second)
	defer logEvery.Stop()
	for _, b := range blocks {
		if _, err := executor.Execute(ctx, b); err != nil {
			return err
		}
		*executed++
		select {
		case <-logEvery.C:
			logger.Info(fmt.Sprintf("[%s] Executing", logPrefix), "block", b.Number, "pendingDeltas", deltas.Len())
		default:
		}
	}
	logger.Info(fmt.Sprintf("[%s] Blocks executed", logPrefix), "blocks", *executed, "pendingDeltas", deltas.Len())
	return nil
}

func waitDrained(ctx context.Context, deltas *queue.Unbounded[*state.HashedPostState]) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for !deltas.Drained() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// verifyBlocks executes blocks as one batch over the genesis state and
// returns the state root after the last block. The batch outcome is written
// into a read-write transaction that is never committed.
func verifyBlocks(ctx context.Context, db kv.RwDB, blocks []*exec.Block, logger log.Logger) (common.Hash, error) {
	var outcome *exec.Outcome
	if err := db.View(ctx, func(tx kv.Tx) error {
		batch := exec.NewTransferExecutorProvider(logger).BatchExecutor(state.NewDbStateReader(tx))
		batch.SetTip(uint64(len(blocks)))
		for _, b := range blocks {
			if err := batch.ExecuteAndVerifyOne(ctx, b); err != nil {
				return err
			}
		}
		var err error
		outcome, err = batch.Finalize()
		return err
	}); err != nil {
		return common.Hash{}, err
	}

	root, err := postStateRoot(ctx, db, outcome.State, logger)
	if err != nil {
		return common.Hash{}, err
	}
	logger.Info(fmt.Sprintf("[%s] Blocks verified", logPrefix), "first", outcome.FirstBlock, "blocks", outcome.Blocks,
		"root", root, "accounts", len(outcome.State.Accounts), "storages", len(outcome.State.Storages))
	return root, nil
}

// postStateRoot applies post over the state in db and rebuilds every
// intermediate hash, leaving db untouched. Unlike a root over the overlay
// cursors it stays correct when deletions collapse a branch.
func postStateRoot(ctx context.Context, db kv.RwDB, post *state.HashedPostState, logger log.Logger) (common.Hash, error) {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	defer tx.Rollback()

	if err := state.WriteHashedPostState(tx, post); err != nil {
		return common.Hash{}, fmt.Errorf("apply post state: %w", err)
	}
	root, err := trie.RegenerateIntermediateHashes(ctx, logPrefix, tx, logger)
	if err != nil {
		return common.Hash{}, fmt.Errorf("post state root: %w", err)
	}
	return root, nil
}
