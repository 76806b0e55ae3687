// Package task executes simulated agent tasks and records their measured
// outcome in the metrics aggregator.
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/agentpulse/agentpulse/internal/metrics"
	"github.com/agentpulse/agentpulse/internal/tracing"
)

const (
	// MaxSimulatedDuration caps how long a simulated task may sleep.
	// Requested durations above the cap are clamped, not rejected.
	MaxSimulatedDuration = 5 * time.Second

	// DefaultTaskName is used when the caller supplies no name at all.
	DefaultTaskName = "default_task"

	// DefaultDuration is the simulated work time when none is requested.
	DefaultDuration = 100 * time.Millisecond

	endpointPrefix = "simulate_agent_task:"
)

// Validation errors surfaced to the protocol boundary.
var (
	ErrEmptyTaskName    = errors.New("task name must be a non-empty string")
	ErrNegativeDuration = errors.New("duration must be a non-negative number")
)

// Outcome describes one finished task execution. Err is non-nil both for
// simulated failures and for rejected arguments; either way the execution
// has been recorded.
type Outcome struct {
	TaskName string
	Elapsed  time.Duration
	Err      error
}

// Simulator runs simulated agent tasks against an aggregator. Every call to
// Run records exactly one request, whatever the outcome: a failed simulated
// task is the measured result, not an execution error.
type Simulator struct {
	agg    *metrics.Aggregator
	tracer trace.Tracer
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewSimulator creates a Simulator recording into agg. tracer may be nil.
func NewSimulator(agg *metrics.Aggregator, tracer trace.Tracer) *Simulator {
	return &Simulator{
		agg:    agg,
		tracer: tracer,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Run executes one simulated task: validates the arguments, sleeps for the
// requested (clamped) duration, fails on demand, and records the real
// measured elapsed time. The returned Outcome carries the failure; Run itself
// does not fail.
func (s *Simulator) Run(ctx context.Context, name string, duration time.Duration, shouldFail bool) Outcome {
	start := s.now()

	var span trace.Span
	if s.tracer != nil {
		ctx, span = tracing.StartTaskSpan(ctx, s.tracer, name)
	}

	err := s.execute(ctx, name, duration, shouldFail)
	elapsed := s.now().Sub(start)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.agg.RecordRequest(endpointPrefix+name, elapsed, err == nil, errMsg)

	if span != nil {
		tracing.EndTaskSpan(span, elapsed, err)
	}

	return Outcome{TaskName: name, Elapsed: elapsed, Err: err}
}

func (s *Simulator) execute(ctx context.Context, name string, duration time.Duration, shouldFail bool) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyTaskName
	}
	if duration < 0 {
		return ErrNegativeDuration
	}

	if duration > MaxSimulatedDuration {
		duration = MaxSimulatedDuration
	}
	if err := s.sleep(ctx, duration); err != nil {
		return err
	}

	if shouldFail {
		return fmt.Errorf("Simulated failure for task: %s", name)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
