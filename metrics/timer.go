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

package metrics

import (
	"strings"
	"time"
)

// HistTimer measures from its creation to PutSince into a histogram of
// seconds.
type HistTimer struct {
	Histogram
	start time.Time
	name  string
}

func NewHistTimer(name string) *HistTimer {
	return &HistTimer{
		Histogram: GetOrCreateHistogram(name),
		start:     time.Now(),
		name:      name,
	}
}

func (h *HistTimer) PutSince() { h.UpdateDuration(h.start) }

// Child starts a timer for a phase of h. The suffix goes before the labels:
// pass{db="x"} with suffix "walk" becomes pass_walk{db="x"}.
func (h *HistTimer) Child(suffix string) *HistTimer {
	suffix = "_" + strings.TrimPrefix(suffix, "_")
	if i := strings.IndexByte(h.name, '{'); i >= 0 {
		return NewHistTimer(h.name[:i] + suffix + h.name[i:])
	}
	return NewHistTimer(h.name + suffix)
}
