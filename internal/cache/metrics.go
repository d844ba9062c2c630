package cache

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	l1Hits    atomic.Int64
	l2Hits    atomic.Int64
	misses    atomic.Int64
	errors    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	startedAt time.Time
}

type MetricsSnapshot struct {
	L1Hits        int64   `json:"l1_hits"`
	L2Hits        int64   `json:"l2_hits"`
	Misses        int64   `json:"misses"`
	Errors        int64   `json:"errors"`
	Sets          int64   `json:"sets"`
	Deletes       int64   `json:"deletes"`
	HitRate       float64 `json:"hit_rate"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) RecordL1Hit() { m.l1Hits.Add(1) }
func (m *Metrics) RecordL2Hit() { m.l2Hits.Add(1) }
func (m *Metrics) RecordMiss()  { m.misses.Add(1) }
func (m *Metrics) RecordError() { m.errors.Add(1) }
func (m *Metrics) RecordSet()   { m.sets.Add(1) }

func (m *Metrics) RecordDelete(n int) { m.deletes.Add(int64(n)) }

// HitRate is the percentage of lookups served by either level.
func (m *Metrics) HitRate() float64 {
	hits := m.l1Hits.Load() + m.l2Hits.Load()
	total := hits + m.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		L1Hits:        m.l1Hits.Load(),
		L2Hits:        m.l2Hits.Load(),
		Misses:        m.misses.Load(),
		Errors:        m.errors.Load(),
		Sets:          m.sets.Load(),
		Deletes:       m.deletes.Load(),
		HitRate:       m.HitRate(),
		UptimeSeconds: int64(time.Since(m.startedAt).Seconds()),
	}
}
