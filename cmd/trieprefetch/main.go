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
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"
)

var (
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Directory of the leveldb state database. Empty keeps the state in memory",
	}
	DBCacheFlag = cli.StringFlag{
		Name:  "ldb.cache",
		Usage: "Block cache size of the leveldb state database",
		Value: "64MB",
	}
	ConfigFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML file with the trie prefetch settings. Command line flags take precedence",
	}
	WorkersFlag = cli.IntFlag{
		Name:  "prefetch.workers",
		Usage: "Number of storage roots calculated in parallel by one pass",
		Value: 1,
	}
	DedupSizeFlag = cli.IntFlag{
		Name:  "prefetch.dedup.size",
		Usage: "Bound the dedup cache to this many keys per namespace. 0 means unbounded",
	}
	DedupTTLFlag = cli.DurationFlag{
		Name:  "prefetch.dedup.ttl",
		Usage: "Forget dedup cache entries after this long. 0 keeps them",
	}
	MetricsAddrFlag = cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Serve prometheus metrics on this address, e.g. 127.0.0.1:6060",
	}
	VerbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Log level: crit, error, warn, info, debug, trace",
		Value: "info",
	}
	AccountsFlag = cli.IntFlag{
		Name:  "accounts",
		Usage: "Number of accounts in the generated state",
		Value: 10_000,
	}
	StorageEveryFlag = cli.IntFlag{
		Name:  "storage.every",
		Usage: "Every n-th generated account gets storage slots. 0 disables storage",
		Value: 20,
	}
	BlocksFlag = cli.IntFlag{
		Name:  "blocks",
		Usage: "Number of blocks to execute",
		Value: 100,
	}
	TransfersFlag = cli.IntFlag{
		Name:  "block.transfers",
		Usage: "Value transfers per block",
		Value: 50,
	}
	StorageWritesFlag = cli.IntFlag{
		Name:  "block.storage",
		Usage: "Storage writes per block",
		Value: 20,
	}
	SeedFlag = cli.Int64Flag{
		Name:  "seed",
		Usage: "Seed of the generated state and blocks",
		Value: 1,
	}
	VerifyFlag = cli.BoolFlag{
		Name:  "verify",
		Usage: "Execute the blocks again as one batch and log the resulting state root",
	}
)

var runCommand = cli.Command{
	Action: runPrefetch,
	Name:   "run",
	Usage:  "Execute generated blocks and prefetch the trie nodes their state changes touch",
	Flags: []cli.Flag{
		&DataDirFlag,
		&DBCacheFlag,
		&ConfigFlag,
		&WorkersFlag,
		&DedupSizeFlag,
		&DedupTTLFlag,
		&MetricsAddrFlag,
		&VerbosityFlag,
		&AccountsFlag,
		&StorageEveryFlag,
		&BlocksFlag,
		&TransfersFlag,
		&StorageWritesFlag,
		&SeedFlag,
		&VerifyFlag,
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "trieprefetch"
	app.Usage = "Background trie prefetching driven by block execution"

	app.Commands = []*cli.Command{
		&runCommand,
	}

	app.UsageText = app.Name + ` [command] [flags]`

	app.Action = func(context *cli.Context) error {
		if context.Args().Present() {
			var goodNames []string
			for _, c := range app.VisibleCommands() {
				goodNames = append(goodNames, c.Name)
			}
			_, _ = fmt.Fprintf(os.Stderr, "Command '%s' not found. Available commands: %s\n", context.Args().First(), goodNames)
			cli.ShowAppHelpAndExit(context, 1)
		}
		return cli.ShowAppHelp(context)
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(ctx *cli.Context) (log.Logger, error) {
	lvl, err := log.LvlFromString(ctx.String(VerbosityFlag.Name))
	if err != nil {
		return nil, err
	}
	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(lvl, log.StderrHandler))
	return logger, nil
}

// handleTerminationSignals calls stopFunc on the first SIGTERM or SIGINT. A
// second signal exits right away.
func handleTerminationSignals(ctx context.Context, stopFunc func(), logger log.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		return
	case <-signalCh:
		logger.Info("Stopping")
		stopFunc()
	}

	select {
	case <-ctx.Done():
	case <-signalCh:
		logger.Info("Terminating")
		os.Exit(-int(syscall.SIGINT))
	}
}
