package threshold_test

import (
	"strings"
	"testing"

	"github.com/agentpulse/agentpulse/internal/metrics"
	"github.com/agentpulse/agentpulse/internal/threshold"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    threshold.Threshold
		wantErr bool
	}{
		{
			name:  "duration p99",
			input: "task_duration:p99 < 0.5",
			want: threshold.Threshold{
				Metric:    "task_duration",
				Aggregate: "p99",
				Operator:  "<",
				Value:     0.5,
				Raw:       "task_duration:p99 < 0.5",
			},
		},
		{
			name:  "duration avg no spaces",
			input: "task_duration:avg<0.2",
			want: threshold.Threshold{
				Metric:    "task_duration",
				Aggregate: "avg",
				Operator:  "<",
				Value:     0.2,
				Raw:       "task_duration:avg<0.2",
			},
		},
		{
			name:  "failure rate",
			input: "task_failed:rate <= 0.01",
			want: threshold.Threshold{
				Metric:    "task_failed",
				Aggregate: "rate",
				Operator:  "<=",
				Value:     0.01,
				Raw:       "task_failed:rate <= 0.01",
			},
		},
		{
			name:  "task count greater",
			input: "tasks:count >= 100",
			want: threshold.Threshold{
				Metric:    "tasks",
				Aggregate: "count",
				Operator:  ">=",
				Value:     100,
				Raw:       "tasks:count >= 100",
			},
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "missing aggregate",
			input:   "task_duration < 0.5",
			wantErr: true,
		},
		{
			name:    "unknown metric",
			input:   "latency:p99 < 0.5",
			wantErr: true,
		},
		{
			name:    "unknown aggregate",
			input:   "task_duration:p75 < 0.5",
			wantErr: true,
		},
		{
			name:    "bad operator",
			input:   "task_duration:p99 ! 0.5",
			wantErr: true,
		},
		{
			name:    "bad value",
			input:   "task_duration:p99 < abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := threshold.Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	thresholds, err := threshold.ParseMultiple([]string{
		"task_duration:p99 < 0.5",
		"task_failed:rate < 0.05",
	})
	if err != nil {
		t.Fatalf("ParseMultiple unexpected error: %v", err)
	}
	if len(thresholds) != 2 {
		t.Fatalf("expected 2 thresholds, got %d", len(thresholds))
	}

	if _, err := threshold.ParseMultiple([]string{
		"task_duration:p99 < 0.5",
		"garbage",
	}); err == nil {
		t.Fatal("expected error for invalid threshold in list")
	}

	thresholds, err = threshold.ParseMultiple(nil)
	if err != nil {
		t.Fatalf("ParseMultiple(nil) unexpected error: %v", err)
	}
	if thresholds != nil {
		t.Errorf("ParseMultiple(nil) = %v, want nil", thresholds)
	}
}

func TestEvaluate(t *testing.T) {
	stats := metrics.Stats{
		TotalRequests:       200,
		SuccessfulRequests:  190,
		FailedRequests:      10,
		AverageResponseTime: 0.120,
		MinResponseTime:     0.010,
		MaxResponseTime:     0.950,
		P50ResponseTime:     0.100,
		P90ResponseTime:     0.300,
		P99ResponseTime:     0.800,
		SuccessRate:         0.95,
		ErrorRate:           0.05,
		RequestsPerSec:      40,
	}

	tests := []struct {
		name     string
		input    string
		wantPass bool
	}{
		{"p99 under limit", "task_duration:p99 < 1.0", true},
		{"p99 over limit", "task_duration:p99 < 0.5", false},
		{"p50 exact with lte", "task_duration:p50 <= 0.1", true},
		{"avg under limit", "task_duration:avg < 0.2", true},
		{"min over floor", "task_duration:min >= 0.01", true},
		{"max under ceiling", "task_duration:max < 1", true},
		{"failure rate equal", "task_failed:rate == 0.05", true},
		{"failure rate too high", "task_failed:rate < 0.01", false},
		{"failure count", "task_failed:count <= 10", true},
		{"throughput floor", "tasks:rate >= 40", true},
		{"throughput too low", "tasks:rate > 100", false},
		{"total count", "tasks:count == 200", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := threshold.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			results := threshold.NewEvaluator([]threshold.Threshold{parsed}).Evaluate(stats)
			if len(results) != 1 {
				t.Fatalf("expected 1 result, got %d", len(results))
			}
			r := results[0]
			if r.Pass != tt.wantPass {
				t.Errorf("Evaluate(%q) pass = %v, want %v (actual=%v, message=%q)",
					tt.input, r.Pass, tt.wantPass, r.Actual, r.Message)
			}
			if r.Message == "" {
				t.Error("expected non-empty result message")
			}
		})
	}
}

func TestEvaluateEmpty(t *testing.T) {
	results := threshold.NewEvaluator(nil).Evaluate(metrics.Stats{})
	if results != nil {
		t.Errorf("expected nil results for empty evaluator, got %v", results)
	}
}

func TestResultMessageContainsRaw(t *testing.T) {
	parsed, err := threshold.Parse("task_duration:p99 < 0.5")
	if err != nil {
		t.Fatal(err)
	}
	results := threshold.NewEvaluator([]threshold.Threshold{parsed}).Evaluate(metrics.Stats{P99ResponseTime: 0.8})
	if !strings.Contains(results[0].Message, "task_duration:p99 < 0.5") {
		t.Errorf("result message %q does not contain raw threshold", results[0].Message)
	}
}
