package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agentpulse/agentpulse/internal/api"
	"github.com/agentpulse/agentpulse/internal/config"
	"github.com/agentpulse/agentpulse/internal/dashboard"
	"github.com/agentpulse/agentpulse/internal/logging"
	"github.com/agentpulse/agentpulse/internal/metrics"
	"github.com/agentpulse/agentpulse/internal/output"
	"github.com/agentpulse/agentpulse/internal/runner"
	"github.com/agentpulse/agentpulse/internal/task"
	"github.com/agentpulse/agentpulse/internal/threshold"
	"github.com/agentpulse/agentpulse/internal/tracing"
)

const progressInterval = time.Second

// taskExecutor drives the simulator with randomized task parameters.
type taskExecutor struct {
	sim         *task.Simulator
	names       []string
	minDuration time.Duration
	maxDuration time.Duration
	failureRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) || errors.Is(err, config.ErrConfigInitialized) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Protocol:    cfg.Tracing.Protocol,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	agg := metrics.NewAggregator()
	sim := task.NewSimulator(agg, provider.Tracer())

	server := api.New(cfg.Listen, agg, sim, cfg.PollInterval, logger)
	// A server that dies takes the whole run with it: cancel unblocks the
	// simulation and the ctx wait below.
	serverErr := make(chan error, 1)
	go func() {
		err := server.Run(ctx)
		if err != nil {
			cancel()
		}
		serverErr <- err
	}()

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(agg, cfg.PollInterval, dashboard.RunConfig{
			Listen:      cfg.Listen,
			Concurrency: cfg.Simulation.Concurrency,
			Duration:    cfg.Simulation.Duration,
			Total:       cfg.Simulation.Total,
			Rate:        cfg.Simulation.Rate,
			FailureRate: cfg.Simulation.FailureRate,
			ConfigFile:  cfg.ConfigFile,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
		defer dash.Stop()
	}

	var progress *output.ProgressReporter
	if cfg.Simulation.Enabled && !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(agg, progressInterval, os.Stdout)
		progress.Start()
		defer func() {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
		}()
	}

	if cfg.Simulation.Enabled {
		result := runSimulation(ctx, cfg, sim, logger)
		logger.Info("simulation finished",
			zap.Int64("total", result.Total),
			zap.Int64("errors", result.Errors),
			zap.Duration("duration", result.Duration),
		)
		// A bounded run shuts the process down once the load completes.
		if cfg.Simulation.Total > 0 || cfg.Simulation.Duration > 0 {
			cancel()
		}
	}

	<-ctx.Done()
	if err := <-serverErr; err != nil {
		return err
	}

	return finish(cfg, agg, thresholds, logger)
}

// runSimulation drives the task simulator through the runner until the
// configured budget is exhausted or ctx ends.
func runSimulation(ctx context.Context, cfg *config.Config, sim *task.Simulator, logger *zap.Logger) runner.Result {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	exec := &taskExecutor{
		sim:         sim,
		names:       cfg.Simulation.TaskNames,
		minDuration: cfg.Simulation.TaskMinDuration,
		maxDuration: cfg.Simulation.TaskMaxDuration,
		failureRate: cfg.Simulation.FailureRate,
		rnd:         rand.New(rand.NewSource(seed)),
	}

	var wrapped runner.Executor = exec
	if cfg.LogErrors {
		wrapped = withFailureLogging(wrapped, logger)
	}

	r := runner.New(runner.Options{
		Concurrency:   cfg.Simulation.Concurrency,
		TotalTasks:    cfg.Simulation.Total,
		Duration:      cfg.Simulation.Duration,
		RatePerSecond: cfg.Simulation.Rate,
		Executor:      wrapped,
		ArrivalModel:  toRunnerArrivalModel(cfg.Simulation.ArrivalModel),
		RandomSeed:    seed,
	})
	return r.Run(ctx)
}

// finish renders the end-of-run reports and evaluates thresholds.
func finish(cfg *config.Config, agg *metrics.Aggregator, thresholds []threshold.Threshold, logger *zap.Logger) error {
	stats := agg.Stats()
	recentErrors, _ := agg.ErrorLog(metrics.DefaultErrorLogLimit)
	recentRequests, _ := agg.History(metrics.DefaultHistoryLimit)

	results := threshold.NewEvaluator(thresholds).Evaluate(stats)
	report := output.NewJSONReport(stats, recentErrors, results)
	logger.Info("run complete",
		zap.String("run_id", report.RunID),
		zap.Uint64("total_requests", stats.TotalRequests),
		zap.Uint64("failed_requests", stats.FailedRequests),
	)

	if cfg.JSONOutput {
		if err := output.WriteJSON(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, stats, recentErrors)
		output.PrintThresholdResults(os.Stdout, results)
	}

	if cfg.HTMLOutput != "" {
		if err := output.WriteHTMLReport(cfg.HTMLOutput, report, recentRequests, results); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Pass {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

func (e *taskExecutor) Do(ctx context.Context) error {
	name, duration, shouldFail := e.nextTask()
	outcome := e.sim.Run(ctx, name, duration, shouldFail)
	return outcome.Err
}

func (e *taskExecutor) nextTask() (string, time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := task.DefaultTaskName
	if len(e.names) > 0 {
		name = e.names[e.rnd.Intn(len(e.names))]
	}

	duration := e.minDuration
	if span := e.maxDuration - e.minDuration; span > 0 {
		duration += time.Duration(e.rnd.Int63n(int64(span)))
	}

	return name, duration, e.rnd.Float64() < e.failureRate
}

type loggingExecutor struct {
	next   runner.Executor
	logger *zap.Logger
}

func withFailureLogging(next runner.Executor, logger *zap.Logger) runner.Executor {
	return &loggingExecutor{next: next, logger: logger}
}

func (l *loggingExecutor) Do(ctx context.Context) error {
	err := l.next.Do(ctx)
	if err != nil {
		l.logger.Warn("task failed", zap.Error(err))
	}
	return err
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch model {
	case config.ArrivalModelPoisson:
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
