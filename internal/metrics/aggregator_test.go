package metrics_test

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/agentpulse/agentpulse/internal/metrics"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEmptyAggregatorStats(t *testing.T) {
	a := metrics.NewAggregator()
	stats := a.Stats()

	if stats.TotalRequests != 0 {
		t.Errorf("expected total 0, got %d", stats.TotalRequests)
	}
	if stats.SuccessRate != 0 || stats.ErrorRate != 0 {
		t.Errorf("expected zero rates, got success=%f error=%f", stats.SuccessRate, stats.ErrorRate)
	}
	if stats.AverageResponseTime != 0 || stats.MinResponseTime != 0 || stats.MaxResponseTime != 0 {
		t.Errorf("expected zero response times, got avg=%f min=%f max=%f",
			stats.AverageResponseTime, stats.MinResponseTime, stats.MaxResponseTime)
	}

	history, err := a.History(metrics.DefaultHistoryLimit)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d records", len(history))
	}
}

func TestSingleSuccessfulRequest(t *testing.T) {
	a := metrics.NewAggregator()
	a.RecordRequest("simulate_agent_task:demo", 200*time.Millisecond, true, "")

	stats := a.Stats()
	if stats.TotalRequests != 1 || stats.SuccessfulRequests != 1 || stats.FailedRequests != 0 {
		t.Errorf("expected 1/1/0, got %d/%d/%d",
			stats.TotalRequests, stats.SuccessfulRequests, stats.FailedRequests)
	}
	if !almostEqual(stats.MinResponseTime, 0.2) || !almostEqual(stats.MaxResponseTime, 0.2) {
		t.Errorf("expected min=max=0.2, got min=%f max=%f", stats.MinResponseTime, stats.MaxResponseTime)
	}
	if !almostEqual(stats.AverageResponseTime, 0.2) {
		t.Errorf("expected avg 0.2, got %f", stats.AverageResponseTime)
	}
	if !almostEqual(stats.SuccessRate, 1.0) {
		t.Errorf("expected success rate 1.0, got %f", stats.SuccessRate)
	}
}

func TestSuccessThenFailure(t *testing.T) {
	a := metrics.NewAggregator()
	a.RecordRequest("simulate_agent_task:ok", 100*time.Millisecond, true, "")
	a.RecordRequest("simulate_agent_task:bad", 300*time.Millisecond, false, "boom")

	stats := a.Stats()
	if stats.TotalRequests != 2 {
		t.Fatalf("expected total 2, got %d", stats.TotalRequests)
	}
	if !almostEqual(stats.SuccessRate, 0.5) || !almostEqual(stats.ErrorRate, 0.5) {
		t.Errorf("expected 0.5/0.5 rates, got %f/%f", stats.SuccessRate, stats.ErrorRate)
	}
	if !almostEqual(stats.MinResponseTime, 0.1) || !almostEqual(stats.MaxResponseTime, 0.3) {
		t.Errorf("expected min 0.1 max 0.3, got %f/%f", stats.MinResponseTime, stats.MaxResponseTime)
	}

	errLog, err := a.ErrorLog(metrics.DefaultErrorLogLimit)
	if err != nil {
		t.Fatalf("ErrorLog: %v", err)
	}
	if len(errLog) != 1 {
		t.Fatalf("expected 1 error entry, got %d", len(errLog))
	}
	if errLog[0].Error != "boom" {
		t.Errorf("expected error message %q, got %q", "boom", errLog[0].Error)
	}
	if errLog[0].Endpoint != "simulate_agent_task:bad" {
		t.Errorf("unexpected endpoint %q", errLog[0].Endpoint)
	}
}

func TestHistoryEviction(t *testing.T) {
	a := metrics.NewAggregator()
	for i := 1; i <= 105; i++ {
		a.RecordRequest(fmt.Sprintf("task_%d", i), 10*time.Millisecond, true, "")
	}

	stats := a.Stats()
	if stats.TotalRequests != 105 {
		t.Fatalf("expected total 105, got %d", stats.TotalRequests)
	}

	history, err := a.History(metrics.HistoryCapacity)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != metrics.HistoryCapacity {
		t.Fatalf("expected %d records, got %d", metrics.HistoryCapacity, len(history))
	}
	// Newest first: records 105 down to 6, oldest five evicted.
	if history[0].Endpoint != "task_105" {
		t.Errorf("expected newest record task_105, got %s", history[0].Endpoint)
	}
	if history[len(history)-1].Endpoint != "task_6" {
		t.Errorf("expected oldest surviving record task_6, got %s", history[len(history)-1].Endpoint)
	}
	for i := range history {
		want := fmt.Sprintf("task_%d", 105-i)
		if history[i].Endpoint != want {
			t.Fatalf("history[%d]: expected %s, got %s", i, want, history[i].Endpoint)
		}
	}
}

func TestErrorLogEviction(t *testing.T) {
	a := metrics.NewAggregator()
	for i := 1; i <= 60; i++ {
		a.RecordRequest(fmt.Sprintf("task_%d", i), time.Millisecond, false, fmt.Sprintf("error %d", i))
	}

	errLog, err := a.ErrorLog(metrics.ErrorLogCapacity)
	if err != nil {
		t.Fatalf("ErrorLog: %v", err)
	}
	if len(errLog) != metrics.ErrorLogCapacity {
		t.Fatalf("expected %d entries, got %d", metrics.ErrorLogCapacity, len(errLog))
	}
	if errLog[0].Error != "error 60" {
		t.Errorf("expected newest entry first, got %q", errLog[0].Error)
	}
	if errLog[len(errLog)-1].Error != "error 11" {
		t.Errorf("expected oldest surviving entry error 11, got %q", errLog[len(errLog)-1].Error)
	}
}

func TestUnknownErrorPlaceholder(t *testing.T) {
	a := metrics.NewAggregator()
	a.RecordRequest("task", time.Millisecond, false, "")

	errLog, err := a.ErrorLog(1)
	if err != nil {
		t.Fatalf("ErrorLog: %v", err)
	}
	if len(errLog) != 1 {
		t.Fatalf("expected failed request without message to still be logged, got %d entries", len(errLog))
	}
	if errLog[0].Error != metrics.UnknownError {
		t.Errorf("expected placeholder %q, got %q", metrics.UnknownError, errLog[0].Error)
	}

	// The placeholder is an error-log affordance; the history keeps only
	// what the caller supplied.
	history, err := a.History(1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if history[0].Error != "" {
		t.Errorf("expected history record without supplied message to stay empty, got %q", history[0].Error)
	}
}

func TestZeroDurationKeptAsMinimum(t *testing.T) {
	a := metrics.NewAggregator()
	a.RecordRequest("task", 200*time.Millisecond, true, "")
	a.RecordRequest("task", 0, true, "")
	a.RecordRequest("task", 100*time.Millisecond, true, "")

	stats := a.Stats()
	if stats.MinResponseTime != 0 {
		t.Errorf("expected min 0 after a zero-duration request, got %f", stats.MinResponseTime)
	}
	if !almostEqual(stats.MaxResponseTime, 0.2) {
		t.Errorf("expected max 0.2, got %f", stats.MaxResponseTime)
	}
}

func TestLimitValidation(t *testing.T) {
	a := metrics.NewAggregator()
	for i := 0; i < 150; i++ {
		a.RecordRequest("task", time.Millisecond, i%2 == 0, "fail")
	}

	for _, limit := range []int{0, -1, -100} {
		if _, err := a.History(limit); !errors.Is(err, metrics.ErrInvalidLimit) {
			t.Errorf("History(%d): expected ErrInvalidLimit, got %v", limit, err)
		}
		if _, err := a.ErrorLog(limit); !errors.Is(err, metrics.ErrInvalidLimit) {
			t.Errorf("ErrorLog(%d): expected ErrInvalidLimit, got %v", limit, err)
		}
	}

	history, err := a.History(1000)
	if err != nil {
		t.Fatalf("History(1000): %v", err)
	}
	if len(history) > metrics.HistoryCapacity {
		t.Errorf("expected at most %d records, got %d", metrics.HistoryCapacity, len(history))
	}

	errLog, err := a.ErrorLog(1000)
	if err != nil {
		t.Fatalf("ErrorLog(1000): %v", err)
	}
	if len(errLog) > metrics.ErrorLogCapacity {
		t.Errorf("expected at most %d entries, got %d", metrics.ErrorLogCapacity, len(errLog))
	}
}

func TestStatsIdempotentBetweenWrites(t *testing.T) {
	a := metrics.NewAggregator()
	a.RecordRequest("task", 50*time.Millisecond, true, "")
	a.RecordRequest("task", 150*time.Millisecond, false, "x")

	first := a.Stats()
	second := a.Stats()

	// Uptime and the derived rate advance with the wall clock; everything else
	// must be identical across reads with no intervening writes.
	first.UptimeSeconds, second.UptimeSeconds = 0, 0
	first.RequestsPerSec, second.RequestsPerSec = 0, 0
	if first != second {
		t.Errorf("stats changed between reads:\n%+v\n%+v", first, second)
	}
}

func TestReset(t *testing.T) {
	a := metrics.NewAggregator()
	for i := 0; i < 10; i++ {
		a.RecordRequest("task", 20*time.Millisecond, i%3 != 0, "nope")
	}

	a.Reset()

	stats := a.Stats()
	if stats.TotalRequests != 0 || stats.SuccessfulRequests != 0 || stats.FailedRequests != 0 {
		t.Errorf("expected zero counts after reset, got %+v", stats)
	}
	if stats.MinResponseTime != 0 || stats.MaxResponseTime != 0 || stats.AverageResponseTime != 0 {
		t.Errorf("expected zero response times after reset, got %+v", stats)
	}
	if stats.SuccessRate != 0 || stats.ErrorRate != 0 {
		t.Errorf("expected zero rates after reset, got %+v", stats)
	}
	if stats.P50ResponseTime != 0 || stats.P99ResponseTime != 0 {
		t.Errorf("expected zero percentiles after reset, got %+v", stats)
	}

	history, _ := a.History(metrics.HistoryCapacity)
	if len(history) != 0 {
		t.Errorf("expected empty history after reset, got %d", len(history))
	}
	errLog, _ := a.ErrorLog(metrics.ErrorLogCapacity)
	if len(errLog) != 0 {
		t.Errorf("expected empty error log after reset, got %d", len(errLog))
	}
}

func TestDashboardSnapshot(t *testing.T) {
	a := metrics.NewAggregator()
	for i := 1; i <= 25; i++ {
		a.RecordRequest(fmt.Sprintf("task_%d", i), time.Millisecond, i%5 != 0, "fail")
	}

	data := a.Dashboard()
	if len(data.RecentRequests) != 10 {
		t.Errorf("expected 10 recent requests, got %d", len(data.RecentRequests))
	}
	if len(data.RecentErrors) != 5 {
		t.Errorf("expected 5 recent errors, got %d", len(data.RecentErrors))
	}
	if data.Metrics.TotalRequests < uint64(len(data.RecentRequests)) {
		t.Errorf("snapshot inconsistent: total %d < history %d",
			data.Metrics.TotalRequests, len(data.RecentRequests))
	}
	if data.RecentRequests[0].Endpoint != "task_25" {
		t.Errorf("expected newest request first, got %s", data.RecentRequests[0].Endpoint)
	}
}

func TestPercentiles(t *testing.T) {
	a := metrics.NewAggregator()

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		a.RecordRequest("task", time.Duration(i)*time.Millisecond, true, "")
	}

	stats := a.Stats()
	if stats.P50ResponseTime < 0.049 || stats.P50ResponseTime > 0.051 {
		t.Errorf("expected P50 ~0.05s, got %f", stats.P50ResponseTime)
	}
	if stats.P90ResponseTime < 0.089 || stats.P90ResponseTime > 0.091 {
		t.Errorf("expected P90 ~0.09s, got %f", stats.P90ResponseTime)
	}
	if stats.P99ResponseTime < 0.098 || stats.P99ResponseTime > 0.101 {
		t.Errorf("expected P99 ~0.099s, got %f", stats.P99ResponseTime)
	}
}

func TestConcurrentRecords(t *testing.T) {
	a := metrics.NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			a.RecordRequest("task", time.Duration(n+1)*time.Millisecond, n%2 == 0, "concurrent failure")
		}(i)
	}
	wg.Wait()

	stats := a.Stats()
	if stats.TotalRequests != 50 {
		t.Errorf("expected total 50, got %d", stats.TotalRequests)
	}
	if stats.SuccessfulRequests != 25 || stats.FailedRequests != 25 {
		t.Errorf("expected 25/25 split, got %d/%d", stats.SuccessfulRequests, stats.FailedRequests)
	}
	if stats.TotalRequests != stats.SuccessfulRequests+stats.FailedRequests {
		t.Errorf("count invariant violated: %d != %d + %d",
			stats.TotalRequests, stats.SuccessfulRequests, stats.FailedRequests)
	}

	history, err := a.History(metrics.HistoryCapacity)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 50 {
		t.Errorf("expected 50 history records, got %d", len(history))
	}
	errLog, err := a.ErrorLog(metrics.ErrorLogCapacity)
	if err != nil {
		t.Fatalf("ErrorLog: %v", err)
	}
	if len(errLog) != 25 {
		t.Errorf("expected 25 error entries, got %d", len(errLog))
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	a := metrics.NewAggregator()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				stats := a.Stats()
				if stats.TotalRequests != stats.SuccessfulRequests+stats.FailedRequests {
					t.Errorf("torn read: %+v", stats)
					return
				}
				_, _ = a.History(20)
				_ = a.Dashboard()
			}
		}()
	}

	for i := 0; i < 200; i++ {
		a.RecordRequest("task", time.Millisecond, i%4 != 0, "fail")
	}
	close(stop)
	wg.Wait()

	stats := a.Stats()
	if stats.TotalRequests != 200 {
		t.Errorf("expected 200 total, got %d", stats.TotalRequests)
	}
}
