// Package runner drives concurrent simulated task execution with optional
// pacing. It feeds the metrics aggregator with a realistic stream of task
// completions: N workers, an optional task budget, an optional wall-clock
// limit, and uniform or Poisson arrival spacing.
package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Result captures execution summary.
type Result struct {
	Total    int64
	Errors   int64
	Duration time.Duration
}

// Runner coordinates concurrent task execution with rate limiting.
type Runner struct {
	opt     Options
	arrival arrivalController
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, arrival: newArrivalController(opt)}
}

// Run executes tasks until the budget, the duration cap, or ctx ends.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()
	var total int64
	var errs int64

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if r.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, r.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	permits := make(chan struct{}, r.opt.Concurrency)

	// Scheduler: serializes pacing to avoid burst overshoot across workers.
	go func() {
		defer close(permits)
		scheduled := 0
		for {
			if ctx.Err() != nil {
				return
			}
			if r.opt.TotalTasks > 0 && scheduled >= r.opt.TotalTasks {
				return
			}
			if r.arrival != nil {
				if err := r.arrival.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case permits <- struct{}{}:
				scheduled++
			case <-ctx.Done():
				return
			}
		}
	}()

	// Workers drain the channel even after close so Total reflects exactly
	// the tasks that ran.
	var wg sync.WaitGroup
	wg.Add(r.opt.Concurrency)
	for i := 0; i < r.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				atomic.AddInt64(&total, 1)
				if r.opt.Executor != nil {
					if err := r.opt.Executor.Do(ctx); err != nil {
						atomic.AddInt64(&errs, 1)
					}
				}
			}
		}()
	}
	wg.Wait()

	return Result{
		Total:    atomic.LoadInt64(&total),
		Errors:   atomic.LoadInt64(&errs),
		Duration: time.Since(start),
	}
}
