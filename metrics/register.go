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
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The package level constructors use one process wide Set. Names follow
// the Set syntax, e.g. trie_root_leaves_added{type="storage"}. They panic on
// a malformed name since names are constants of the caller.

func GetOrCreateCounter(name string) Counter {
	c, err := defaultSet.GetOrCreateCounter(name)
	if err != nil {
		panic(fmt.Errorf("counter %s: %w", name, err))
	}
	return counter{c}
}

func GetOrCreateGauge(name string) Gauge {
	g, err := defaultSet.GetOrCreateGauge(name)
	if err != nil {
		panic(fmt.Errorf("gauge %s: %w", name, err))
	}
	return gauge{g}
}

// GetOrCreateHistogram keeps the buckets of the first call for name.
func GetOrCreateHistogram(name string, buckets ...float64) Histogram {
	h, err := defaultSet.GetOrCreateHistogram(name, buckets...)
	if err != nil {
		panic(fmt.Errorf("histogram %s: %w", name, err))
	}
	return histogram{h}
}

// Handler serves the default set in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(defaultSet.Registry(), promhttp.HandlerOpts{})
}
