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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type Counter interface {
	prometheus.Counter
	AddInt(v int)
	GetValueUint64() uint64
}

type Gauge interface {
	prometheus.Gauge
	SetInt(v int)
	GetValue() float64
}

type Histogram interface {
	prometheus.Histogram
	// UpdateDuration observes the seconds elapsed since start.
	UpdateDuration(start time.Time)
	SampleCount() uint64
}

// read snapshots a collector. Counters, gauges and histograms made by a Set
// never fail to write, so an error here is a programming error.
func read(m prometheus.Metric) *dto.Metric {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		panic(fmt.Errorf("read %s: %w", m.Desc(), err))
	}
	return &out
}

type counter struct{ prometheus.Counter }

func (c counter) AddInt(v int)            { c.Add(float64(v)) }
func (c counter) GetValueUint64() uint64 { return uint64(read(c).GetCounter().GetValue()) }

type gauge struct{ prometheus.Gauge }

func (g gauge) SetInt(v int)       { g.Set(float64(v)) }
func (g gauge) GetValue() float64 { return read(g).GetGauge().GetValue() }

type histogram struct{ prometheus.Histogram }

func (h histogram) UpdateDuration(start time.Time) { h.Observe(time.Since(start).Seconds()) }
func (h histogram) SampleCount() uint64            { return read(h).GetHistogram().GetSampleCount() }
