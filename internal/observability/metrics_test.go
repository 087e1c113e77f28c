package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SnapshotAggregates(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/submit", "POST", 201, 30*time.Millisecond)
	m.RecordRequest("/submit", "POST", 201, 50*time.Millisecond)
	m.RecordRequest("/submit", "POST", 400, 5*time.Millisecond)
	m.RecordError("/submit", "POST", "VALIDATION_FAILED")

	requests, errors := m.Snapshot()
	require.Contains(t, requests, "/submit|POST|201")
	assert.Equal(t, int64(2), requests["/submit|POST|201"].Count)
	assert.Equal(t, int64(80), requests["/submit|POST|201"].TotalLatency)
	assert.Equal(t, int64(1), requests["/submit|POST|400"].Count)
	assert.Equal(t, int64(1), errors["/submit|POST|VALIDATION_FAILED"])
}

func TestMetrics_SnapshotIsDetached(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/track", "GET", 200, time.Millisecond)

	requests, _ := m.Snapshot()
	m.RecordRequest("/track", "GET", 200, time.Millisecond)

	assert.Equal(t, int64(1), requests["/track|GET|200"].Count)
}

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "INTERNAL_ERROR")
	requests, errors := m.Snapshot()
	assert.Nil(t, requests)
	assert.Nil(t, errors)
}
