// Package config provides configuration loading and validation for agentpulse.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ArrivalModel selects how simulated task starts are spaced.
type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Config is the full agentpulse configuration, loadable from a JSON or YAML
// file with flat CLI flag overrides.
type Config struct {
	Listen       string        `mapstructure:"listen"`
	LogLevel     string        `mapstructure:"log_level"`
	LogErrors    bool          `mapstructure:"log_errors"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Dashboard    bool          `mapstructure:"dashboard"`
	JSONOutput   bool          `mapstructure:"json_output"`
	HTMLOutput   string        `mapstructure:"html_output"`
	Thresholds   []string      `mapstructure:"thresholds"`
	ConfigFile   string        `mapstructure:"-"`

	Simulation SimulationConfig `mapstructure:"simulation"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// SimulationConfig configures the built-in task simulation load generator.
type SimulationConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Concurrency     int           `mapstructure:"concurrency"`
	Rate            int           `mapstructure:"rate"`
	Total           int           `mapstructure:"total"`
	Duration        time.Duration `mapstructure:"duration"`
	FailureRate     float64       `mapstructure:"failure_rate"`
	TaskMinDuration time.Duration `mapstructure:"task_min_duration"`
	TaskMaxDuration time.Duration `mapstructure:"task_max_duration"`
	ArrivalModel    ArrivalModel  `mapstructure:"arrival_model"`
	Seed            int64         `mapstructure:"seed"`
	TaskNames       []string      `mapstructure:"task_names"`
}

// TracingConfig configures OTLP export of task spans.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Protocol    string `mapstructure:"protocol"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"service_name"`
}

// ValidationError aggregates every configuration issue found in one pass.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns the individual validation problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the configuration for consistency. It returns a
// ValidationError listing every problem, or nil.
func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Listen) == "" {
		issues = append(issues, "listen address is required")
	}
	if c.PollInterval <= 0 {
		issues = append(issues, "poll_interval must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}

	s := c.Simulation
	if s.Concurrency < 1 {
		issues = append(issues, "simulation.concurrency must be >= 1")
	}
	if s.Rate < 0 {
		issues = append(issues, "simulation.rate must be >= 0")
	}
	if s.Total < 0 {
		issues = append(issues, "simulation.total must be >= 0")
	}
	if s.Duration < 0 {
		issues = append(issues, "simulation.duration must be >= 0")
	}
	if s.FailureRate < 0 || s.FailureRate > 1 {
		issues = append(issues, "simulation.failure_rate must be between 0.0 and 1.0")
	}
	if s.TaskMinDuration < 0 {
		issues = append(issues, "simulation.task_min_duration must be >= 0")
	}
	if s.TaskMaxDuration < s.TaskMinDuration {
		issues = append(issues, "simulation.task_max_duration must be >= task_min_duration")
	}
	switch strings.ToLower(string(s.ArrivalModel)) {
	case "", string(ArrivalModelUniform), string(ArrivalModelPoisson):
	default:
		issues = append(issues, fmt.Sprintf("unknown simulation.arrival_model %q (use uniform or poisson)", s.ArrivalModel))
	}

	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("unknown tracing.protocol %q (use grpc or http)", c.Tracing.Protocol))
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
