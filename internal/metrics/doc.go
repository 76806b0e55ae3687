// Package metrics provides the in-process performance metrics aggregator at
// the heart of agentpulse.
//
// The central [Aggregator] type ingests "request completed" events and
// maintains three things at once:
//
//   - lifetime aggregate statistics (counts, rates, min/avg/max and
//     percentile response times, uptime), answered in constant time
//     regardless of how many requests have ever been recorded;
//   - a bounded, most-recent-first history of individual requests
//     ([HistoryCapacity] entries, oldest evicted);
//   - a bounded, most-recent-first log of failed requests
//     ([ErrorLogCapacity] entries, oldest evicted).
//
// # Usage
//
//	agg := metrics.NewAggregator()
//
//	// Record a completed request.
//	agg.RecordRequest("simulate_agent_task:ingest", 120*time.Millisecond, true, "")
//
//	// Read aggregate statistics.
//	stats := agg.Stats()
//
//	// Read recent activity, newest first.
//	history, err := agg.History(20)
//	errors, err := agg.ErrorLog(10)
//
// # Thread safety
//
// All methods are safe for concurrent use. A single mutex guards every piece
// of mutable state, so the counters, the history, and the error log can never
// disagree: a reader either sees a request's full effect or none of it. A
// stats read that starts after a record call returns always observes that
// request.
//
// Aggregate min/max/average are maintained incrementally rather than derived
// from the history, because the history is bounded and lossy while the
// aggregates must reflect the full lifetime of the process.
package metrics
