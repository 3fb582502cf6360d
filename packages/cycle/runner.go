package cycle

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/reqpace/packages/capture"
	"github.com/abdul-hamid-achik/reqpace/packages/fields"
	"github.com/abdul-hamid-achik/reqpace/packages/http"
)

// State describes where a runner is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RunResult is returned when a run finishes.
type RunResult struct {
	Summary *Summary
	State   State
	// Cycles is the number of cycles started
	Cycles int
}

// Runner executes the configured cycle loop. Request A paces the run:
// consecutive A dispatches are spaced by DelayAtoA regardless of how
// long responses take, and each cycle's B fires DelayAtoB after its A
// without waiting for A to complete.
type Runner struct {
	config    *Config
	client    *http.Client
	executor  *Executor
	generator *fields.Generator
	metrics   *Metrics
	reporter  *Reporter

	mu    sync.Mutex
	state State
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) RunnerOption {
	return func(r *Runner) {
		r.client = client
	}
}

// WithReporter sets a custom reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

// NewRunner creates a runner for the given config
func NewRunner(config *Config, opts ...RunnerOption) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		config:    config,
		generator: fields.NewGenerator(),
		metrics:   NewMetrics(),
		state:     StateIdle,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = http.NewClient(http.WithTimeout(config.Timeout))
	}
	if r.reporter == nil {
		r.reporter = NewReporter()
	}

	r.executor = NewExecutor(r.client, config.Timeout)

	return r, nil
}

// State returns the current runner state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Metrics exposes the runner's collector.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run executes cycles until MaxCycles is reached or ctx is cancelled.
// Cancellation is honoured at the pacing checkpoint only: cycles
// already started run both requests to completion, so a stopped run
// never leaves a cycle half-dispatched.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	r.setState(StateRunning)
	r.metrics.Start()

	// Token bucket with burst 1: the first Wait returns immediately,
	// every later Wait enforces the A-to-A spacing from the previous
	// dispatch without accumulating drift.
	var limiter *rate.Limiter
	if r.config.DelayAtoA > 0 {
		limiter = rate.NewLimiter(rate.Every(r.config.DelayAtoA), 1)
	}

	// In-flight requests outlive cancellation; only the pacing wait
	// observes ctx.
	httpCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	var lastDispatchA time.Time
	finalState := StateCompleted
	cycles := 0

	for cycleNum := 1; r.config.MaxCycles == 0 || cycleNum <= r.config.MaxCycles; cycleNum++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				finalState = StateStopped
				break
			}
		} else if ctx.Err() != nil {
			finalState = StateStopped
			break
		}

		dispatchA := time.Now()
		if !lastDispatchA.IsZero() {
			r.metrics.RecordAtoADelta(dispatchA.Sub(lastDispatchA))
		}
		lastDispatchA = dispatchA
		cycles++

		headerFields, bodyFields, err := r.generator.GenerateAll(r.config.Fields)
		if err != nil {
			r.reporter.Error("field generation failed: %v", err)
			finalState = StateStopped
			break
		}

		// A's response crosses to B's goroutine best-effort: A never
		// blocks handing it over, B never waits for it.
		responseCh := make(chan *http.Response, 1)

		wg.Add(2)
		go r.dispatchA(httpCtx, &wg, cycleNum, headerFields, bodyFields, responseCh)
		go r.dispatchB(httpCtx, &wg, cycleNum, dispatchA, headerFields, bodyFields, responseCh)
	}

	wg.Wait()
	r.metrics.Stop()
	r.setState(finalState)

	return &RunResult{
		Summary: r.metrics.GetSummary(),
		State:   finalState,
		Cycles:  cycles,
	}, nil
}

func (r *Runner) dispatchA(ctx context.Context, wg *sync.WaitGroup, cycleNum int, headerFields, bodyFields map[string]string, responseCh chan<- *http.Response) {
	defer wg.Done()

	outcome := r.executor.Execute(ctx, RoleA, cycleNum, r.config.RequestA, headerFields, bodyFields, r.config.Auth)
	r.metrics.Record(outcome)
	r.reporter.Outcome(outcome)

	if outcome.Response != nil {
		select {
		case responseCh <- outcome.Response:
		default:
		}
	}
}

func (r *Runner) dispatchB(ctx context.Context, wg *sync.WaitGroup, cycleNum int, dispatchA time.Time, headerFields, bodyFields map[string]string, responseCh <-chan *http.Response) {
	defer wg.Done()

	if r.config.DelayAtoB > 0 {
		timer := time.NewTimer(r.config.DelayAtoB)
		defer timer.Stop()
		<-timer.C
	}
	r.metrics.RecordAtoBDelta(time.Since(dispatchA))

	headers := make(map[string]string, len(headerFields))
	for k, v := range headerFields {
		headers[k] = v
	}

	// If A's response has not arrived yet, B goes out without the
	// extracted values rather than waiting for them.
	select {
	case resp := <-responseCh:
		for target, value := range capture.ExtractAll(resp, r.config.Mappings) {
			headers[target] = value
		}
	default:
	}

	outcome := r.executor.Execute(ctx, RoleB, cycleNum, r.config.RequestB, headers, bodyFields, r.config.Auth)
	r.metrics.Record(outcome)
	r.reporter.Outcome(outcome)
}
