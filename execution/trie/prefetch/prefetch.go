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
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/trieprefetch/common/queue"
	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/execution/state"
	"github.com/erigontech/trieprefetch/execution/trie"
	"github.com/erigontech/trieprefetch/metrics"
)

// TrieMetrics receives the stats of every account and storage walk.
type TrieMetrics struct {
	Account *trie.TrieRootMetrics
	Storage *trie.TrieRootMetrics
}

func NewTrieMetrics() *TrieMetrics {
	return &TrieMetrics{
		Account: trie.NewTrieRootMetrics(trie.TrieTypeAccount),
		Storage: trie.NewTrieRootMetrics(trie.TrieTypeStorage),
	}
}

func (m *TrieMetrics) account() *trie.TrieRootMetrics {
	if m == nil {
		return nil
	}
	return m.Account
}

func (m *TrieMetrics) storage() *trie.TrieRootMetrics {
	if m == nil {
		return nil
	}
	return m.Storage
}

var (
	passesCounter       = metrics.GetOrCreateCounter("trie_prefetch_passes")
	failedPassesCounter = metrics.GetOrCreateCounter("trie_prefetch_failed_passes")
	pendingDeltasGauge  = metrics.GetOrCreateGauge("trie_prefetch_deltas_pending")
)

const passTimerName = "trie_prefetch_pass_seconds"

// TriePrefetch warms the trie tables with the nodes a state root
// computation over the incoming deltas will read. It owns its dedup cache;
// one instance serves one Run at a time.
type TriePrefetch struct {
	cfg         Config
	logger      log.Logger
	cache       *dedupCache
	trieMetrics *TrieMetrics

	newFactories factoriesFunc
}

type RunSummary struct {
	Processed int
	Remaining int
	Errors    int
}

func New(cfg Config, logger log.Logger) (*TriePrefetch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := newDedupCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("create dedup cache: %w", err)
	}
	p := &TriePrefetch{
		cfg:          cfg,
		logger:       logger,
		cache:        cache,
		newFactories: dbFactories,
	}
	if cfg.MetricsEnabled {
		p.trieMetrics = NewTrieMetrics()
	}
	return p, nil
}

// DeduplicateAndUpdateCached returns the part of d that no earlier delta
// already covered, and remembers it.
func (p *TriePrefetch) DeduplicateAndUpdateCached(d *state.HashedPostState) *state.HashedPostState {
	return p.cache.filterAndMark(d)
}

// Run processes deltas in arrival order until ctx is cancelled. A pass that
// has started always completes. Once deltas is closed and drained Run only
// waits for cancellation.
func (p *TriePrefetch) Run(ctx context.Context, db kv.RoDB, deltas *queue.Unbounded[*state.HashedPostState]) RunSummary {
	logPrefix := p.cfg.LogPrefix
	p.logger.Info(fmt.Sprintf("[%s] Trie prefetch started", logPrefix),
		"workers", p.cfg.StorageRootWorkers, "dedupSize", p.cfg.DedupCacheSize, "dedupTTL", p.cfg.DedupCacheTTL)

	var summary RunSummary
	ready := deltas.Wait()
	passCtx := context.WithoutCancel(ctx)
	for {
		// cancellation wins over a ready delta
		if ctx.Err() != nil {
			return p.stop(summary, deltas)
		}
		if ready != nil && deltas.Drained() {
			p.logger.Debug(fmt.Sprintf("[%s] Delta queue closed", logPrefix), "processed", summary.Processed)
			ready = nil
		}
		select {
		case <-ctx.Done():
			return p.stop(summary, deltas)
		case <-ready:
		}

		d, ok := deltas.TryPop()
		if !ok {
			continue
		}
		summary.Processed++
		if p.cfg.MetricsEnabled {
			passesCounter.Inc()
			pendingDeltasGauge.SetInt(deltas.Len())
		}

		stats, err := p.pass(passCtx, db, d)
		if err != nil {
			summary.Errors++
			if p.cfg.MetricsEnabled {
				failedPassesCounter.Inc()
			}
			kind := "pass"
			if _, ok := AsProviderError(err); ok {
				kind = "provider"
			}
			p.logger.Warn(fmt.Sprintf("[%s] Trie prefetch pass failed", logPrefix),
				"pass", summary.Processed, "kind", kind, "err", err)
			continue
		}
		p.logger.Debug(fmt.Sprintf("[%s] Trie prefetch pass done", logPrefix),
			"pass", summary.Processed,
			"branches", stats.Account.BranchesAdded, "leaves", stats.Account.LeavesAdded,
			"storageRoots", stats.StorageRoots, "failedStorageRoots", stats.FailedStorageRoots,
			"took", stats.Duration)
	}
}

func (p *TriePrefetch) stop(summary RunSummary, deltas *queue.Unbounded[*state.HashedPostState]) RunSummary {
	summary.Remaining = deltas.Len()
	if p.cfg.MetricsEnabled {
		pendingDeltasGauge.SetInt(summary.Remaining)
	}
	p.logger.Info(fmt.Sprintf("[%s] Trie prefetch stopped", p.cfg.LogPrefix),
		"processed", summary.Processed, "remaining", summary.Remaining, "errors", summary.Errors,
		"dedup", p.cache.footprint().HumanReadable())
	return summary
}

// pass runs one delta through the dedup cache and prefetches what is left
// on a fresh snapshot of db.
func (p *TriePrefetch) pass(ctx context.Context, db kv.RoDB, d *state.HashedPostState) (Stats, error) {
	var timer *metrics.HistTimer
	if p.cfg.MetricsEnabled {
		timer = metrics.NewHistTimer(passTimerName)
		defer timer.PutSince()
	}
	p.cache.prune()
	residual := p.DeduplicateAndUpdateCached(d)
	if residual.IsEmpty() {
		return Stats{}, nil
	}

	tx, err := db.BeginRo(ctx)
	if err != nil {
		return Stats{}, &ProviderError{Err: err}
	}
	shared := kv.NewSharedTx(tx)
	defer shared.Close()
	return prefetchOnce(ctx, p.cfg, shared, residual, p.newFactories, p.trieMetrics, timer, p.logger)
}

// Stats describes one prefetch pass.
type Stats struct {
	Account            trie.TrieStats
	StorageRoots       int
	FailedStorageRoots int
	Duration           time.Duration
}
