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
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/go-chi/chi/v5"
	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"

	"github.com/erigontech/trieprefetch/db/kv"
	"github.com/erigontech/trieprefetch/db/kv/ldb"
	"github.com/erigontech/trieprefetch/db/kv/memdb"
	"github.com/erigontech/trieprefetch/execution/trie/prefetch"
	"github.com/erigontech/trieprefetch/metrics"
)

func runPrefetch(cliCtx *cli.Context) error {
	logger, err := setupLogger(cliCtx)
	if err != nil {
		return err
	}
	cfg, err := prefetchConfig(cliCtx)
	if err != nil {
		return err
	}

	db, err := openDB(cliCtx, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(cliCtx.Context)
	defer cancel()
	workCtx, stop := context.WithCancel(ctx)
	defer stop()
	go handleTerminationSignals(ctx, stop, logger)

	if addr := cliCtx.String(MetricsAddrFlag.Name); addr != "" {
		cfg.MetricsEnabled = true
		srv := startMetricsServer(addr, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	res, err := runWorkload(workCtx, db, cfg, workloadOptions{
		Accounts:      cliCtx.Int(AccountsFlag.Name),
		StorageEvery:  cliCtx.Int(StorageEveryFlag.Name),
		Blocks:        cliCtx.Int(BlocksFlag.Name),
		Transfers:     cliCtx.Int(TransfersFlag.Name),
		StorageWrites: cliCtx.Int(StorageWritesFlag.Name),
		Seed:          cliCtx.Int64(SeedFlag.Name),
		Verify:        cliCtx.Bool(VerifyFlag.Name),
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("Done", "blocks", res.Blocks, "genesisRoot", res.GenesisRoot, "postRoot", res.PostRoot,
		"passes", res.Summary.Processed, "skipped", res.Summary.Remaining, "failed", res.Summary.Errors)
	return nil
}

// prefetchConfig layers the flags that were set on top of the config file,
// or on top of the defaults when there is none.
func prefetchConfig(cliCtx *cli.Context) (prefetch.Config, error) {
	cfg := prefetch.DefaultConfig()
	if path := cliCtx.String(ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = prefetch.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if cliCtx.IsSet(WorkersFlag.Name) {
		cfg.StorageRootWorkers = cliCtx.Int(WorkersFlag.Name)
	}
	if cliCtx.IsSet(DedupSizeFlag.Name) {
		cfg.DedupCacheSize = cliCtx.Int(DedupSizeFlag.Name)
	}
	if cliCtx.IsSet(DedupTTLFlag.Name) {
		cfg.DedupCacheTTL = cliCtx.Duration(DedupTTLFlag.Name)
	}
	return cfg, cfg.Validate()
}

func openDB(cliCtx *cli.Context, logger log.Logger) (kv.RwDB, error) {
	dir := cliCtx.String(DataDirFlag.Name)
	if dir == "" {
		return memdb.New(), nil
	}
	var cacheSize datasize.ByteSize
	if err := cacheSize.UnmarshalText([]byte(cliCtx.String(DBCacheFlag.Name))); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", DBCacheFlag.Name, err)
	}
	db, err := ldb.Open(ldb.Config{Path: dir, CacheSize: cacheSize}, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func startMetricsServer(addr string, logger log.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "err", err)
		}
	}()
	logger.Info("Starting metrics server", "addr", fmt.Sprintf("http://%s/metrics", addr))
	return srv
}
