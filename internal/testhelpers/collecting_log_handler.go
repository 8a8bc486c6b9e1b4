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

package testhelpers

import (
	"strings"
	"sync"

	"github.com/ledgerwatch/log/v3"
)

// CollectingLogHandler keeps every record it sees before passing it on. It
// can be shared by goroutines.
type CollectingLogHandler struct {
	mu      sync.Mutex
	records []*log.Record
	handler log.Handler
}

func NewCollectingLogHandler(handler log.Handler) *CollectingLogHandler {
	return &CollectingLogHandler{
		handler: handler,
	}
}

func (clh *CollectingLogHandler) Log(r *log.Record) error {
	clh.mu.Lock()
	clh.records = append(clh.records, r)
	clh.mu.Unlock()
	return clh.handler.Log(r)
}

func (clh *CollectingLogHandler) Contains(subStr string) bool {
	return clh.Count(subStr) > 0
}

// Count is the number of records whose formatted line holds subStr.
func (clh *CollectingLogHandler) Count(subStr string) int {
	n := 0
	for _, msg := range clh.FormattedRecords() {
		if strings.Contains(msg, subStr) {
			n++
		}
	}
	return n
}

func (clh *CollectingLogHandler) FormattedRecords() []string {
	clh.mu.Lock()
	defer clh.mu.Unlock()
	formattedRecords := make([]string, len(clh.records))
	for i, record := range clh.records {
		formattedRecords[i] = strings.TrimSuffix(string(log.TerminalFormatNoColor().Format(record)), "\n")
	}
	return formattedRecords
}

// NewTestLogger returns a logger at lvl that also collects into the
// returned handler.
func NewTestLogger(lvl log.Lvl) (log.Logger, *CollectingLogHandler) {
	clh := NewCollectingLogHandler(log.DiscardHandler())
	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(lvl, clh))
	return logger, clh
}
