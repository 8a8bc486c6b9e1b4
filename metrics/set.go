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
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Set is a group of metrics registered in one prometheus registry.
// Metric names may carry constant labels: foo{bar="baz",aaa="b"}.
type Set struct {
	mu         sync.Mutex
	registry   *prometheus.Registry
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

var defaultSet = NewSet()

func NewSet() *Set {
	return &Set{
		registry:   prometheus.NewRegistry(),
		counters:   map[string]prometheus.Counter{},
		gauges:     map[string]prometheus.Gauge{},
		histograms: map[string]prometheus.Histogram{},
	}
}

func (s *Set) Registry() *prometheus.Registry { return s.registry }

func (s *Set) NewCounter(name string) (prometheus.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counters[name]; ok {
		return nil, fmt.Errorf("metric %q is already registered", name)
	}
	return s.createCounter(name)
}

func (s *Set) GetOrCreateCounter(name string) (prometheus.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[name]; ok {
		return c, nil
	}
	return s.createCounter(name)
}

func (s *Set) createCounter(name string) (prometheus.Counter, error) {
	metricName, labels, err := parseMetric(name)
	if err != nil {
		return nil, err
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: metricName, Help: metricName, ConstLabels: labels})
	if err := s.registry.Register(c); err != nil {
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	s.counters[name] = c
	return c, nil
}

func (s *Set) NewGauge(name string) (prometheus.Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gauges[name]; ok {
		return nil, fmt.Errorf("metric %q is already registered", name)
	}
	return s.createGauge(name)
}

func (s *Set) GetOrCreateGauge(name string) (prometheus.Gauge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gauges[name]; ok {
		return g, nil
	}
	return s.createGauge(name)
}

func (s *Set) createGauge(name string) (prometheus.Gauge, error) {
	metricName, labels, err := parseMetric(name)
	if err != nil {
		return nil, err
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: metricName, Help: metricName, ConstLabels: labels})
	if err := s.registry.Register(g); err != nil {
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	s.gauges[name] = g
	return g, nil
}

// GetOrCreateHistogram uses prometheus.DefBuckets when no buckets are given.
// Buckets are fixed by the first call for a given name.
func (s *Set) GetOrCreateHistogram(name string, buckets ...float64) (prometheus.Histogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.histograms[name]; ok {
		return h, nil
	}
	metricName, labels, err := parseMetric(name)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: metricName, Help: metricName, ConstLabels: labels, Buckets: buckets})
	if err := s.registry.Register(h); err != nil {
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	s.histograms[name] = h
	return h, nil
}

// parseMetric splits `foo{bar="baz",aaa="b"}` into the metric name and its labels.
func parseMetric(s string) (string, prometheus.Labels, error) {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		if s == "" {
			return "", nil, fmt.Errorf("empty metric name")
		}
		return s, nil, nil
	}
	if !strings.HasSuffix(s, "}") {
		return "", nil, fmt.Errorf("missing closing curly brace at the end of %q", s)
	}
	name := s[:open]
	if name == "" {
		return "", nil, fmt.Errorf("empty metric name in %q", s)
	}
	body := s[open+1 : len(s)-1]
	labels := prometheus.Labels{}
	for body != "" {
		eq := strings.IndexByte(body, '=')
		if eq < 0 {
			return "", nil, fmt.Errorf("missing `=` after label name in %q", s)
		}
		key := strings.TrimSpace(body[:eq])
		body = body[eq+1:]
		if len(body) == 0 || body[0] != '"' {
			return "", nil, fmt.Errorf("missing starting `\"` for %q value in %q", key, s)
		}
		end := strings.IndexByte(body[1:], '"')
		if end < 0 {
			return "", nil, fmt.Errorf("missing trailing `\"` for %q value in %q", key, s)
		}
		labels[key] = body[1 : end+1]
		body = strings.TrimPrefix(strings.TrimSpace(body[end+2:]), ",")
	}
	return name, labels, nil
}
