// Package output renders end-of-run reports: a human-readable console
// summary, a machine-readable JSON document, and a standalone HTML page.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agentpulse/agentpulse/internal/metrics"
	"github.com/agentpulse/agentpulse/internal/threshold"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats, recentErrors []metrics.ErrorRecord) {
	fmt.Fprintln(w, "\n--- Simulation Results ---")
	fmt.Fprintf(w, "Total Tasks:       %d\n", stats.TotalRequests)
	fmt.Fprintf(w, "Successful:        %d\n", stats.SuccessfulRequests)
	fmt.Fprintf(w, "Failed:            %d\n", stats.FailedRequests)
	fmt.Fprintf(w, "Uptime:            %.1fs\n", stats.UptimeSeconds)
	fmt.Fprintf(w, "Tasks/sec:         %.2f\n", stats.RequestsPerSec)
	fmt.Fprintf(w, "Success Rate:      %.1f%%\n", stats.SuccessRate*100)
	fmt.Fprintln(w, "\nTask Duration:")
	fmt.Fprintf(w, "  Min:             %s\n", formatSeconds(stats.MinResponseTime))
	fmt.Fprintf(w, "  Max:             %s\n", formatSeconds(stats.MaxResponseTime))
	fmt.Fprintf(w, "  Mean:            %s\n", formatSeconds(stats.AverageResponseTime))
	fmt.Fprintf(w, "  P50:             %s\n", formatSeconds(stats.P50ResponseTime))
	fmt.Fprintf(w, "  P90:             %s\n", formatSeconds(stats.P90ResponseTime))
	fmt.Fprintf(w, "  P99:             %s\n", formatSeconds(stats.P99ResponseTime))

	if len(recentErrors) > 0 {
		fmt.Fprintln(w, "\nRecent Errors:")
		for _, e := range recentErrors {
			fmt.Fprintf(w, "  - [%s] %s: %s\n", e.Timestamp.Format(time.RFC3339), e.Endpoint, e.Error)
		}
	}
}

// PrintThresholdResults writes threshold pass/fail lines after the summary.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "\nThresholds (%d/%d passed):\n", passed, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}

// JSONReport is the machine-readable end-of-run document. RunID is a ULID so
// reports from repeated runs sort lexicographically by time.
type JSONReport struct {
	RunID        string                `json:"run_id"`
	GeneratedAt  time.Time             `json:"generated_at"`
	Metrics      metrics.Stats         `json:"metrics"`
	RecentErrors []metrics.ErrorRecord `json:"recent_errors,omitempty"`
	Thresholds   []ThresholdResultJSON `json:"thresholds,omitempty"`
}

// ThresholdResultJSON is the serialized form of a threshold evaluation.
type ThresholdResultJSON struct {
	Threshold string  `json:"threshold"`
	Metric    string  `json:"metric"`
	Aggregate string  `json:"aggregate"`
	Operator  string  `json:"operator"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
}

// ThresholdSummary aggregates threshold outcomes for report templates.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []ThresholdResultJSON
}

// NewJSONReport assembles a report with a fresh ULID run id.
func NewJSONReport(stats metrics.Stats, recentErrors []metrics.ErrorRecord, results []threshold.Result) JSONReport {
	now := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(now.UnixNano())), 0)
	return JSONReport{
		RunID:        ulid.MustNew(ulid.Timestamp(now), entropy).String(),
		GeneratedAt:  now,
		Metrics:      stats,
		RecentErrors: recentErrors,
		Thresholds:   serializeResults(results),
	}
}

// WriteJSON encodes the report with indentation.
func WriteJSON(w io.Writer, report JSONReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func serializeResults(results []threshold.Result) []ThresholdResultJSON {
	if len(results) == 0 {
		return nil
	}
	out := make([]ThresholdResultJSON, len(results))
	for i, r := range results {
		out[i] = ThresholdResultJSON{
			Threshold: r.Threshold.Raw,
			Metric:    r.Threshold.Metric,
			Aggregate: r.Threshold.Aggregate,
			Operator:  r.Threshold.Operator,
			Expected:  r.Threshold.Value,
			Actual:    r.Actual,
			Pass:      r.Pass,
		}
	}
	return out
}

func summarizeResults(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{
		Total:   len(results),
		Results: serializeResults(results),
	}
	for _, r := range results {
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

func formatSeconds(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(time.Microsecond).String()
}
