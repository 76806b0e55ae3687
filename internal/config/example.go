package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// exampleFile mirrors Config with yaml tags so the starter file round-trips
// through the viper loader (which reads the same key names).
type exampleFile struct {
	Listen       string   `yaml:"listen"`
	LogLevel     string   `yaml:"log_level"`
	PollInterval string   `yaml:"poll_interval"`
	Dashboard    bool     `yaml:"dashboard"`
	Thresholds   []string `yaml:"thresholds"`
	Simulation   struct {
		Enabled         bool     `yaml:"enabled"`
		Concurrency     int      `yaml:"concurrency"`
		Rate            int      `yaml:"rate"`
		Total           int      `yaml:"total"`
		Duration        string   `yaml:"duration"`
		FailureRate     float64  `yaml:"failure_rate"`
		TaskMinDuration string   `yaml:"task_min_duration"`
		TaskMaxDuration string   `yaml:"task_max_duration"`
		ArrivalModel    string   `yaml:"arrival_model"`
		TaskNames       []string `yaml:"task_names"`
	} `yaml:"simulation"`
	Tracing struct {
		Endpoint string `yaml:"endpoint"`
		Protocol string `yaml:"protocol"`
		Insecure bool   `yaml:"insecure"`
	} `yaml:"tracing"`
}

// WriteExample writes a starter YAML configuration to path. It refuses to
// overwrite an existing file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", path)
	}

	defaults := Default()
	var ex exampleFile
	ex.Listen = defaults.Listen
	ex.LogLevel = defaults.LogLevel
	ex.PollInterval = defaults.PollInterval.String()
	ex.Thresholds = []string{"task_duration:p99<1.0", "task_failed:rate<0.25"}
	ex.Simulation.Enabled = true
	ex.Simulation.Concurrency = 4
	ex.Simulation.Rate = 10
	ex.Simulation.Duration = time.Minute.String()
	ex.Simulation.FailureRate = defaults.Simulation.FailureRate
	ex.Simulation.TaskMinDuration = defaults.Simulation.TaskMinDuration.String()
	ex.Simulation.TaskMaxDuration = defaults.Simulation.TaskMaxDuration.String()
	ex.Simulation.ArrivalModel = string(defaults.Simulation.ArrivalModel)
	ex.Simulation.TaskNames = defaults.Simulation.TaskNames

	data, err := yaml.Marshal(&ex)
	if err != nil {
		return fmt.Errorf("marshal starter config: %w", err)
	}

	header := []byte("# agentpulse configuration\n# Durations accept Go syntax: 500ms, 5s, 1m.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
