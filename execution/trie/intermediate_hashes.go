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
	"context"
	"fmt"
	"time"

	"github.com/ledgerwatch/log/v3"

	"github.com/erigontech/trieprefetch/common"
	"github.com/erigontech/trieprefetch/db/kv"
)

// RegenerateIntermediateHashes rebuilds TrieAccount and TrieStorage from the
// hashed state tables and returns the state root.
func RegenerateIntermediateHashes(ctx context.Context, logPrefix string, tx kv.RwTx, logger log.Logger) (common.Hash, error) {
	logger.Info(fmt.Sprintf("[%s] Regeneration intermediate hashes started", logPrefix))
	for _, table := range []string{kv.TrieOfAccounts, kv.TrieOfStorage} {
		if err := tx.ClearTable(table); err != nil {
			return common.Hash{}, fmt.Errorf("%s: clear %s: %w", logPrefix, table, err)
		}
	}

	t := time.Now()
	root, stats, updates, err := NewStateRoot(NewDBTrieCursorFactory(tx), NewDBHashedCursorFactory(tx), TriePrefixSets{}).
		CalculateWithUpdates(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	logger.Debug("Collection finished",
		"root hash", root.Hex(),
		"gen IH", time.Since(t),
		"accounts", stats.LeavesAdded,
	)

	if err := WriteTrieUpdates(tx, updates); err != nil {
		return common.Hash{}, fmt.Errorf("%s: fail load data to bucket: %w", logPrefix, err)
	}
	logger.Info(fmt.Sprintf("[%s] Regeneration ended", logPrefix), "root", root, "accountNodes", len(updates.AccountNodes), "storageTries", len(updates.StorageNodes))
	return root, nil
}

// WriteTrieUpdates puts the recorded branch nodes into the trie tables.
func WriteTrieUpdates(tx kv.RwTx, updates *TrieUpdates) error {
	for _, n := range updates.AccountNodes {
		if err := tx.Put(kv.TrieOfAccounts, n.Path, n.Node.Encode()); err != nil {
			return err
		}
	}
	for address, nodes := range updates.StorageNodes {
		for _, n := range nodes {
			k := make([]byte, 0, common.HashLength+len(n.Path))
			k = append(append(k, address[:]...), n.Path...)
			if err := tx.Put(kv.TrieOfStorage, k, n.Node.Encode()); err != nil {
				return err
			}
		}
	}
	return nil
}
