package cycle

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// histogram bounds: 1us to 1h, 3 significant digits
const (
	histogramMin = 1
	histogramMax = 3_600_000_000
)

// Metrics aggregates outcomes arriving from independent A/B goroutines
// in any order. The run owns exactly one instance.
type Metrics struct {
	mu sync.Mutex

	roles map[Role]*roleMetrics

	// Failure counts by kind, across both roles
	networkFailures atomic.Int64
	timeoutFailures atomic.Int64
	httpFailures    atomic.Int64
	authFailures    atomic.Int64

	// Observed dispatch spacing (in microseconds)
	aToA *hdrhistogram.Histogram
	aToB *hdrhistogram.Histogram

	startTime time.Time
	endTime   time.Time
}

type roleMetrics struct {
	total     atomic.Int64
	success   atomic.Int64
	failures  atomic.Int64
	histogram *hdrhistogram.Histogram
}

// NewMetrics creates a new Metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		roles: map[Role]*roleMetrics{
			RoleA: {histogram: hdrhistogram.New(histogramMin, histogramMax, 3)},
			RoleB: {histogram: hdrhistogram.New(histogramMin, histogramMax, 3)},
		},
		aToA: hdrhistogram.New(histogramMin, histogramMax, 3),
		aToB: hdrhistogram.New(histogramMin, histogramMax, 3),
	}
}

// Start marks the beginning of the run
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records one outcome.
func (m *Metrics) Record(o *Outcome) {
	rm := m.roles[o.Role]
	rm.total.Add(1)

	if o.Success() {
		rm.success.Add(1)
	} else {
		rm.failures.Add(1)
		switch o.Kind {
		case FailureNetwork:
			m.networkFailures.Add(1)
		case FailureTimeout:
			m.timeoutFailures.Add(1)
		case FailureHTTP:
			m.httpFailures.Add(1)
		case FailureAuth:
			m.authFailures.Add(1)
		}
	}

	m.mu.Lock()
	_ = rm.histogram.RecordValue(clampMicros(o.Elapsed))
	m.mu.Unlock()
}

// RecordAtoADelta records the observed spacing between two consecutive
// A dispatches.
func (m *Metrics) RecordAtoADelta(d time.Duration) {
	m.mu.Lock()
	_ = m.aToA.RecordValue(clampMicros(d))
	m.mu.Unlock()
}

// RecordAtoBDelta records the observed offset between a cycle's A and B
// dispatches.
func (m *Metrics) RecordAtoBDelta(d time.Duration) {
	m.mu.Lock()
	_ = m.aToB.RecordValue(clampMicros(d))
	m.mu.Unlock()
}

func clampMicros(d time.Duration) int64 {
	us := d.Microseconds()
	if us < histogramMin {
		us = histogramMin
	}
	if us > histogramMax {
		us = histogramMax
	}
	return us
}

// RoleSummary holds final counts and latency figures for one role.
type RoleSummary struct {
	Role     Role
	Total    int64
	Success  int64
	Failures int64
	Min      time.Duration
	Max      time.Duration
	Mean     time.Duration
	P95      time.Duration
}

// DeltaSummary describes an observed timing distribution.
type DeltaSummary struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Mean  time.Duration
}

// Summary is the final aggregate of a run.
type Summary struct {
	Duration time.Duration

	A *RoleSummary
	B *RoleSummary

	NetworkFailures int64
	TimeoutFailures int64
	HTTPFailures    int64
	AuthFailures    int64

	AtoA DeltaSummary
	AtoB DeltaSummary
}

// TotalRequests returns the combined request count of both roles.
func (s *Summary) TotalRequests() int64 {
	return s.A.Total + s.B.Total
}

// TotalFailures returns the combined failure count of both roles.
func (s *Summary) TotalFailures() int64 {
	return s.A.Failures + s.B.Failures
}

// GetSummary returns the aggregated run statistics.
func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	return &Summary{
		Duration:        duration,
		A:               m.roleSummaryLocked(RoleA),
		B:               m.roleSummaryLocked(RoleB),
		NetworkFailures: m.networkFailures.Load(),
		TimeoutFailures: m.timeoutFailures.Load(),
		HTTPFailures:    m.httpFailures.Load(),
		AuthFailures:    m.authFailures.Load(),
		AtoA:            deltaSummaryLocked(m.aToA),
		AtoB:            deltaSummaryLocked(m.aToB),
	}
}

func (m *Metrics) roleSummaryLocked(role Role) *RoleSummary {
	rm := m.roles[role]
	summary := &RoleSummary{
		Role:     role,
		Total:    rm.total.Load(),
		Success:  rm.success.Load(),
		Failures: rm.failures.Load(),
	}
	if rm.histogram.TotalCount() > 0 {
		summary.Min = time.Duration(rm.histogram.Min()) * time.Microsecond
		summary.Max = time.Duration(rm.histogram.Max()) * time.Microsecond
		summary.Mean = time.Duration(rm.histogram.Mean()) * time.Microsecond
		summary.P95 = time.Duration(rm.histogram.ValueAtQuantile(95)) * time.Microsecond
	}
	return summary
}

func deltaSummaryLocked(h *hdrhistogram.Histogram) DeltaSummary {
	if h.TotalCount() == 0 {
		return DeltaSummary{}
	}
	return DeltaSummary{
		Count: h.TotalCount(),
		Min:   time.Duration(h.Min()) * time.Microsecond,
		Max:   time.Duration(h.Max()) * time.Microsecond,
		Mean:  time.Duration(h.Mean()) * time.Microsecond,
	}
}
