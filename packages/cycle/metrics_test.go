package cycle

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordsOutcomesByRole(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.Record(&Outcome{Role: RoleA, Cycle: 1, StatusCode: 200, Elapsed: 10 * time.Millisecond})
	m.Record(&Outcome{Role: RoleA, Cycle: 2, StatusCode: 500, Elapsed: 20 * time.Millisecond, Kind: FailureHTTP})
	m.Record(&Outcome{Role: RoleB, Cycle: 1, Elapsed: 5 * time.Millisecond, Kind: FailureTimeout, Err: errors.New("deadline")})
	m.Record(&Outcome{Role: RoleB, Cycle: 2, StatusCode: 201, Elapsed: 15 * time.Millisecond})

	m.Stop()
	summary := m.GetSummary()

	assert.Equal(t, int64(2), summary.A.Total)
	assert.Equal(t, int64(1), summary.A.Success)
	assert.Equal(t, int64(1), summary.A.Failures)
	assert.Equal(t, int64(2), summary.B.Total)
	assert.Equal(t, int64(1), summary.B.Failures)

	assert.Equal(t, int64(1), summary.HTTPFailures)
	assert.Equal(t, int64(1), summary.TimeoutFailures)
	assert.Equal(t, int64(0), summary.NetworkFailures)
	assert.Equal(t, int64(4), summary.TotalRequests())
	assert.Equal(t, int64(2), summary.TotalFailures())
}

func TestMetricsLatencyBounds(t *testing.T) {
	m := NewMetrics()
	m.Start()

	for _, d := range []time.Duration{10, 20, 30, 40} {
		m.Record(&Outcome{Role: RoleA, StatusCode: 200, Elapsed: d * time.Millisecond})
	}

	summary := m.GetSummary()

	require.Equal(t, int64(4), summary.A.Total)
	assert.InDelta(t, 10, summary.A.Min.Milliseconds(), 1)
	assert.InDelta(t, 40, summary.A.Max.Milliseconds(), 1)
	assert.InDelta(t, 25, summary.A.Mean.Milliseconds(), 2)
}

func TestMetricsDispatchDeltas(t *testing.T) {
	m := NewMetrics()
	m.Start()

	m.RecordAtoADelta(100 * time.Millisecond)
	m.RecordAtoADelta(110 * time.Millisecond)
	m.RecordAtoBDelta(50 * time.Millisecond)

	summary := m.GetSummary()

	assert.Equal(t, int64(2), summary.AtoA.Count)
	assert.InDelta(t, 100, summary.AtoA.Min.Milliseconds(), 1)
	assert.InDelta(t, 110, summary.AtoA.Max.Milliseconds(), 1)
	assert.Equal(t, int64(1), summary.AtoB.Count)
	assert.InDelta(t, 50, summary.AtoB.Min.Milliseconds(), 1)
}

func TestMetricsEmptyDeltas(t *testing.T) {
	m := NewMetrics()
	m.Start()

	summary := m.GetSummary()

	assert.Equal(t, int64(0), summary.AtoA.Count)
	assert.Equal(t, int64(0), summary.AtoB.Count)
	assert.Zero(t, summary.AtoA.Min)
}

func TestMetricsConcurrentRecording(t *testing.T) {
	m := NewMetrics()
	m.Start()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Record(&Outcome{Role: RoleA, StatusCode: 200, Elapsed: time.Millisecond})
		}()
		go func() {
			defer wg.Done()
			m.Record(&Outcome{Role: RoleB, StatusCode: 200, Elapsed: time.Millisecond})
		}()
	}
	wg.Wait()

	summary := m.GetSummary()
	assert.Equal(t, int64(50), summary.A.Total)
	assert.Equal(t, int64(50), summary.B.Total)
	assert.Equal(t, int64(100), summary.TotalRequests())
}
