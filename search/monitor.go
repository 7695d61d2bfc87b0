// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"log/slog"
	"sync"
	"time"
)

// Monitor receives callbacks around each backend query.
type Monitor interface {
	Start(query string)
	Finish(query string, hits int, elapsed time.Duration)
	Fail(query string, err error, elapsed time.Duration)
}

// NoopMonitor returns a Monitor that ignores every callback.
func NoopMonitor() Monitor {
	return noopMonitor{}
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = noopMonitor{}

func (noopMonitor) Start(_ string)                          {}
func (noopMonitor) Finish(_ string, _ int, _ time.Duration) {}
func (noopMonitor) Fail(_ string, _ error, _ time.Duration) {}

// QueryStats is a snapshot of a StatsMonitor.
type QueryStats struct {
	Queries  int
	Failures int
	Hits     int
	Elapsed  time.Duration
}

// LogValue implements slog.LogValuer.
func (s QueryStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("queries", s.Queries),
		slog.Int("failures", s.Failures),
		slog.Int("hits", s.Hits),
		slog.Duration("elapsed", s.Elapsed),
	)
}

// StatsMonitor aggregates query counts and timing. Safe for concurrent use.
type StatsMonitor struct {
	mu    sync.Mutex
	stats QueryStats
}

var _ Monitor = (*StatsMonitor)(nil)

// NewStatsMonitor returns an empty StatsMonitor.
func NewStatsMonitor() *StatsMonitor {
	return &StatsMonitor{}
}

func (m *StatsMonitor) Start(_ string) {}

func (m *StatsMonitor) Finish(_ string, hits int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Queries++
	m.stats.Hits += hits
	m.stats.Elapsed += elapsed
}

func (m *StatsMonitor) Fail(_ string, _ error, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Queries++
	m.stats.Failures++
	m.stats.Elapsed += elapsed
}

// Snapshot returns the current totals.
func (m *StatsMonitor) Snapshot() QueryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}
