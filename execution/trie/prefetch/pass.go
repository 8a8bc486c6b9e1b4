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

package prefetch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ledgerwatch/log/v3"
	"github.com/puzpuzpuz/xsync/v4"
	"golang.org/x/sync/errgroup"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/state"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/execution/types/accounts"
	"github.com/erigontech/trieprefetch/metrics"
)

// factoriesFunc opens the cursor factories of one reader of tx.
type factoriesFunc func(tx kv.Tx) (trie.TrieCursorFactory, trie.HashedCursorFactory)

func dbFactories(tx kv.Tx) (trie.TrieCursorFactory, trie.HashedCursorFactory) {
	return trie.NewDBTrieCursorFactory(tx), trie.NewDBHashedCursorFactory(tx)
}

// PrefetchOnce walks the account trie and the storage tries touched by delta
// over tx with delta layered on top. The caller keeps its reference to tx;
// storage root workers hold their own clones.
func PrefetchOnce(ctx context.Context, cfg Config, tx *kv.SharedTx, delta *state.HashedPostState, trieMetrics *TrieMetrics, logger log.Logger) (Stats, error) {
	return prefetchOnce(ctx, cfg, tx, delta, dbFactories, trieMetrics, nil, logger)
}

func prefetchOnce(ctx context.Context, cfg Config, tx *kv.SharedTx, delta *state.HashedPostState,
	newFactories factoriesFunc, trieMetrics *TrieMetrics, timer *metrics.HistTimer, logger log.Logger) (Stats, error) {
	start := time.Now()
	var stats Stats

	prefixSets := delta.ConstructPrefixSets()
	sorted := delta.IntoSorted()
	targets := storageRootTargets(delta)

	logger.Trace(fmt.Sprintf("[%s] Prefetching storage tries", cfg.LogPrefix), "targets", len(targets))
	var storageTimer *metrics.HistTimer
	if timer != nil {
		storageTimer = timer.Child("storage_roots")
	}
	roots := xsync.NewMap[common.Hash, common.Hash]()
	job := storageRootJob{
		prefixSets:   prefixSets,
		sorted:       sorted,
		newFactories: newFactories,
		metrics:      trieMetrics.storage(),
		logger:       logger,
		logPrefix:    cfg.LogPrefix,
	}
	if err := job.run(ctx, cfg.StorageRootWorkers, tx, targets, roots); err != nil {
		return stats, err
	}
	stats.StorageRoots = roots.Size()
	stats.FailedStorageRoots = len(targets) - stats.StorageRoots
	if storageTimer != nil {
		storageTimer.PutSince()
	}

	logger.Trace(fmt.Sprintf("[%s] Prefetching account trie", cfg.LogPrefix))
	accountStats, fallbackFailures, err := walkAccounts(tx, prefixSets.AccountPrefixSet, job, roots)
	stats.Account = accountStats
	stats.FailedStorageRoots += fallbackFailures
	stats.Duration = time.Since(start)
	if err != nil {
		if pe, ok := AsProviderError(err); ok {
			return stats, pe
		}
		return stats, err
	}
	trieMetrics.account().Record(accountStats)

	if left := roots.Size(); left > 0 {
		// targets the walk did not reach, destroyed accounts for one
		logger.Trace(fmt.Sprintf("[%s] Unused storage roots", cfg.LogPrefix), "count", left)
		roots.Clear()
	}
	logger.Trace(fmt.Sprintf("[%s] Prefetched account trie", cfg.LogPrefix),
		"branches", accountStats.BranchesAdded, "leaves", accountStats.LeavesAdded, "took", accountStats.Duration)
	return stats, nil
}

// storageRootTargets are the accounts whose storage root the account walk
// will need: every changed account and every account with changed storage,
// in key order.
func storageRootTargets(delta *state.HashedPostState) []common.Hash {
	targets := make([]common.Hash, 0, len(delta.Accounts)+len(delta.Storages))
	for address := range delta.Accounts {
		targets = append(targets, address)
	}
	for address := range delta.Storages {
		if _, ok := delta.Accounts[address]; !ok {
			targets = append(targets, address)
		}
	}
	slices.SortFunc(targets, func(a, b common.Hash) int { return a.Cmp(b) })
	return targets
}

type storageRootJob struct {
	prefixSets   trie.TriePrefixSets
	sorted       *state.HashedPostStateSorted
	newFactories factoriesFunc
	metrics      *trie.TrieRootMetrics
	logger       log.Logger
	logPrefix    string
}

// calculate computes one storage root over tx. prefixSet nil means no
// path changed.
func (j storageRootJob) calculate(tx kv.Tx, address common.Hash, prefixSet *trie.PrefixSet) (common.Hash, error) {
	trieFactory, hashedFactory := j.newFactories(tx)
	overlay := state.NewHashedPostStateCursorFactory(hashedFactory, j.sorted)
	root, _, err := trie.NewStorageRoot(trieFactory, overlay, address, prefixSet).WithMetrics(j.metrics).Calculate()
	if err != nil {
		j.logger.Trace(fmt.Sprintf("[%s] Storage root prefetch failed", j.logPrefix), "account", address, "err", err)
		return common.Hash{}, err
	}
	return root, nil
}

// run fills roots with the storage root of every target. A failed target is
// left out of roots. Only a cancelled ctx fails the whole run.
func (j storageRootJob) run(ctx context.Context, workers int, tx *kv.SharedTx, targets []common.Hash, roots *xsync.Map[common.Hash, common.Hash]) error {
	if workers <= 1 {
		for _, address := range targets {
			if root, err := j.calculate(tx, address, j.prefixSets.StoragePrefixSet(address)); err == nil {
				roots.Store(address, root)
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, address := range targets {
		if gctx.Err() != nil {
			break
		}
		reader := tx.Clone()
		g.Go(func() error {
			defer reader.Close()
			if err := gctx.Err(); err != nil {
				return err
			}
			if root, err := j.calculate(reader, address, j.prefixSets.StoragePrefixSet(address)); err == nil {
				roots.Store(address, root)
			}
			return nil
		})
	}
	return g.Wait()
}

// walkAccounts visits the account trie nodes the prefix set keeps, taking
// the storage root of every leaf out of roots. A leaf without one gets its
// root computed on the spot with nothing pruned by changes; a failure there
// counts in the returned failures and the walk goes on.
func walkAccounts(tx kv.Tx, prefixSet *trie.PrefixSet, job storageRootJob, roots *xsync.Map[common.Hash, common.Hash]) (trie.TrieStats, int, error) {
	tracker := trie.NewTrieTracker()
	trieFactory, hashedFactory := job.newFactories(tx)
	overlay := state.NewHashedPostStateCursorFactory(hashedFactory, job.sorted)

	trieCursor, err := trieFactory.AccountTrieCursor()
	if err != nil {
		return tracker.Finish(), 0, err
	}
	defer trieCursor.Close()
	hashedCursor, err := overlay.HashedAccountCursor()
	if err != nil {
		return tracker.Finish(), 0, err
	}
	defer hashedCursor.Close()

	failures := 0
	iter := trie.NewNodeIter[*accounts.Account](trie.NewWalker(trieCursor, prefixSet), hashedCursor)
	for {
		elem, ok, err := iter.Next()
		if err != nil {
			return tracker.Finish(), failures, fmt.Errorf("account trie walk: %w", err)
		}
		if !ok {
			break
		}
		if elem.Branch {
			tracker.IncBranch()
			continue
		}
		if _, ok := roots.LoadAndDelete(elem.LeafKey); !ok {
			if _, err := job.calculate(tx, elem.LeafKey, nil); err != nil {
				failures++
			}
		}
		tracker.IncLeaf()
	}
	return tracker.Finish(), failures, nil
}
