package observability

import (
	"strconv"
	"sync"
	"time"
)

// RouteStats aggregates traffic for one route/method/status combination.
type RouteStats struct {
	Count        int64 `json:"count"`
	TotalLatency int64 `json:"total_latency_ms"`
}

// Metrics counts portal traffic in memory. Counters are keyed by
// "path|method|status" for requests and "path|method|code" for errors,
// which is enough granularity to spot a misbehaving endpoint from the
// admin metrics view without pulling in a full metrics backend.
// All methods are nil-safe so handlers never have to check.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]*RouteStats
	errors   map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]*RouteStats),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts one completed request and its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.requests[key]
	if !ok {
		stats = &RouteStats{}
		m.requests[key] = stats
	}
	stats.Count++
	stats.TotalLatency += duration.Milliseconds()
}

// RecordError counts one error response by domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[path+"|"+method+"|"+code]++
}

// Snapshot copies the current counters for the admin metrics endpoint.
// The copy is detached, callers can serialize it without holding the lock.
func (m *Metrics) Snapshot() (map[string]RouteStats, map[string]int64) {
	if m == nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := make(map[string]RouteStats, len(m.requests))
	for key, stats := range m.requests {
		requests[key] = *stats
	}
	errors := make(map[string]int64, len(m.errors))
	for key, count := range m.errors {
		errors[key] = count
	}
	return requests, errors
}

func requestKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
