package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Capacity and limit constants shared with the API boundary. Changing these
// changes the wire-visible behavior of history and error log reads.
const (
	HistoryCapacity      = 100
	ErrorLogCapacity     = 50
	DefaultHistoryLimit  = 20
	DefaultErrorLogLimit = 10
)

// UnknownError is logged for failed requests that carry no error message.
const UnknownError = "Unknown error"

// ErrInvalidLimit is returned when a read limit is below 1. Limits above the
// capacity cap are clamped, not rejected.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// RequestRecord captures the outcome of a single completed request.
type RequestRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Endpoint     string    `json:"endpoint"`
	ResponseTime float64   `json:"response_time"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
}

// ErrorRecord captures a single failed request for the error log.
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Endpoint  string    `json:"endpoint"`
	Error     string    `json:"error"`
}

// Stats is a point-in-time snapshot of the lifetime aggregate metrics.
// Response times are seconds. Rates are fractions in [0, 1]. When no requests
// have been recorded, all derived values are zero rather than unset so the
// snapshot stays JSON-friendly.
type Stats struct {
	TotalRequests       uint64    `json:"total_requests"`
	SuccessfulRequests  uint64    `json:"successful_requests"`
	FailedRequests      uint64    `json:"failed_requests"`
	AverageResponseTime float64   `json:"average_response_time"`
	MinResponseTime     float64   `json:"min_response_time"`
	MaxResponseTime     float64   `json:"max_response_time"`
	P50ResponseTime     float64   `json:"p50_response_time"`
	P90ResponseTime     float64   `json:"p90_response_time"`
	P99ResponseTime     float64   `json:"p99_response_time"`
	SuccessRate         float64   `json:"success_rate"`
	ErrorRate           float64   `json:"error_rate"`
	RequestsPerSec      float64   `json:"requests_per_sec"`
	UptimeSeconds       float64   `json:"uptime_seconds"`
	StartTime           time.Time `json:"start_time"`
	LastUpdated         time.Time `json:"last_updated"`
}

// DashboardData bundles everything the dashboard needs in one read.
type DashboardData struct {
	Metrics        Stats           `json:"metrics"`
	RecentRequests []RequestRecord `json:"recent_requests"`
	RecentErrors   []ErrorRecord   `json:"recent_errors"`
}

// Aggregator records per-request metrics in a thread-safe manner. A single
// mutex guards all state; every critical section is O(1) or O(limit), so a
// coarse lock keeps the counters, the history, and the error log mutually
// consistent without measurable contention.
type Aggregator struct {
	mu        sync.Mutex
	total     uint64
	successes uint64
	failures  uint64
	sum       time.Duration
	min       time.Duration
	max       time.Duration
	hist      *hdrhistogram.Histogram
	history   *ring[RequestRecord]
	errorLog  *ring[ErrorRecord]
	start     time.Time
	updated   time.Time
	now       func() time.Time
}

// NewAggregator creates an empty aggregator with the stock capacities.
func NewAggregator() *Aggregator {
	return newAggregator(time.Now)
}

func newAggregator(now func() time.Time) *Aggregator {
	a := &Aggregator{
		// Track response times from 1µs up to 60s with 3 significant figures.
		hist:     hdrhistogram.New(1, 60_000_000, 3),
		history:  newRing[RequestRecord](HistoryCapacity),
		errorLog: newRing[ErrorRecord](ErrorLogCapacity),
		now:      now,
	}
	a.start = now()
	a.updated = a.start
	return a
}

// RecordRequest records a single completed request: counters, running sum,
// min/max, histogram, the history entry, and, for failures, the error log
// entry. The whole update is atomic with respect to every other method.
// Recording never fails; it is bookkeeping, not request processing.
func (a *Aggregator) RecordRequest(endpoint string, elapsed time.Duration, success bool, errMsg string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ts := a.now()
	a.total++
	if success {
		a.successes++
	} else {
		a.failures++
	}

	a.sum += elapsed
	// total was just incremented, so total == 1 means first observation.
	// Zero is a legitimate duration, not an "unset" marker.
	if a.total == 1 || elapsed < a.min {
		a.min = elapsed
	}
	if elapsed > a.max {
		a.max = elapsed
	}

	if elapsed > 0 {
		us := elapsed.Microseconds()
		if us < a.hist.LowestTrackableValue() {
			us = a.hist.LowestTrackableValue()
		}
		if us > a.hist.HighestTrackableValue() {
			us = a.hist.HighestTrackableValue()
		}
		_ = a.hist.RecordValue(us)
	}

	record := RequestRecord{
		Timestamp:    ts,
		Endpoint:     endpoint,
		ResponseTime: elapsed.Seconds(),
		Success:      success,
	}
	if !success {
		// The history keeps only messages the caller actually supplied;
		// the error log always carries something readable.
		record.Error = errMsg
		logMsg := errMsg
		if logMsg == "" {
			logMsg = UnknownError
		}
		a.errorLog.push(ErrorRecord{Timestamp: ts, Endpoint: endpoint, Error: logMsg})
	}
	a.history.push(record)
	a.updated = ts
}

// Stats computes and returns the current aggregate statistics under one
// consistent read.
func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statsLocked()
}

func (a *Aggregator) statsLocked() Stats {
	now := a.now()
	stats := Stats{
		TotalRequests:      a.total,
		SuccessfulRequests: a.successes,
		FailedRequests:     a.failures,
		MinResponseTime:    a.min.Seconds(),
		MaxResponseTime:    a.max.Seconds(),
		UptimeSeconds:      now.Sub(a.start).Seconds(),
		StartTime:          a.start,
		LastUpdated:        a.updated,
	}

	if a.total > 0 {
		stats.AverageResponseTime = a.sum.Seconds() / float64(a.total)
		stats.SuccessRate = float64(a.successes) / float64(a.total)
		stats.ErrorRate = float64(a.failures) / float64(a.total)
	}
	if uptime := now.Sub(a.start); uptime > 0 && a.total > 0 {
		stats.RequestsPerSec = float64(a.total) / uptime.Seconds()
	}

	if a.hist.TotalCount() > 0 {
		stats.P50ResponseTime = (time.Duration(a.hist.ValueAtQuantile(50)) * time.Microsecond).Seconds()
		stats.P90ResponseTime = (time.Duration(a.hist.ValueAtQuantile(90)) * time.Microsecond).Seconds()
		stats.P99ResponseTime = (time.Duration(a.hist.ValueAtQuantile(99)) * time.Microsecond).Seconds()
	}

	return stats
}

// History returns up to limit of the most recent request records, newest
// first. Limits above HistoryCapacity are clamped; limits below 1 are an
// error. An empty result is not an error.
func (a *Aggregator) History(limit int) ([]RequestRecord, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if limit > HistoryCapacity {
		limit = HistoryCapacity
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.latest(limit), nil
}

// ErrorLog returns up to limit of the most recent error records, newest
// first. Same contract as History with cap ErrorLogCapacity.
func (a *Aggregator) ErrorLog(limit int) ([]ErrorRecord, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	if limit > ErrorLogCapacity {
		limit = ErrorLogCapacity
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errorLog.latest(limit), nil
}

// Dashboard returns the aggregate stats plus the ten most recent requests and
// five most recent errors, all read under a single lock acquisition.
func (a *Aggregator) Dashboard() DashboardData {
	a.mu.Lock()
	defer a.mu.Unlock()
	return DashboardData{
		Metrics:        a.statsLocked(),
		RecentRequests: a.history.latest(10),
		RecentErrors:   a.errorLog.latest(5),
	}
}

// Reset atomically clears all counters, the histogram, the history, and the
// error log, and restarts the uptime clock.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total = 0
	a.successes = 0
	a.failures = 0
	a.sum = 0
	a.min = 0
	a.max = 0
	a.hist.Reset()
	a.history = newRing[RequestRecord](HistoryCapacity)
	a.errorLog = newRing[ErrorRecord](ErrorLogCapacity)
	a.start = a.now()
	a.updated = a.start
}
