package runner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Executor abstracts executing a single simulated task. Implementations
// should return an error only when the execution machinery itself breaks;
// a failed simulated task is a recorded outcome, not an executor error.
type Executor interface {
	Do(ctx context.Context) error
}

// ArrivalModel selects how task starts are spaced in time.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Concurrency    int           // number of worker goroutines
	TotalTasks     int           // total tasks to execute (0 means unlimited until duration/end)
	Duration       time.Duration // overall time limit (0 means no duration cap)
	RatePerSecond  int           // task starts per second pacing (0 means unlimited)
	Executor       Executor      // task executor (required)
	ArrivalModel   ArrivalModel  // uniform (default) or poisson
	RandomSeed     int64         // seed for the poisson sampler

	LimiterFactory func(rps int) *rate.Limiter // optional injection for tests
	PoissonSampler func() float64              // optional injection for tests
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalTasks < 0 {
		o.TotalTasks = 0
	}
	if o.RatePerSecond < 0 {
		o.RatePerSecond = 0
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps int) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst equal to rps to smooth pacing under concurrency.
			return rate.NewLimiter(rate.Limit(rps), rps)
		}
	}
}
