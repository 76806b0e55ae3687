package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// ErrConfigInitialized is returned after --init-config has written a starter
// configuration file; the process should exit cleanly.
var ErrConfigInitialized = errors.New("configuration file written")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

var defaultTaskNames = []string{
	"data_processing",
	"model_inference",
	"web_search",
	"code_review",
	"report_generation",
}

// Default returns the built-in configuration before any file or flag is
// applied.
func Default() *Config {
	return &Config{
		Listen:       ":8080",
		LogLevel:     "info",
		PollInterval: 5 * time.Second,
		Simulation: SimulationConfig{
			Concurrency:     1,
			FailureRate:     0.2,
			TaskMinDuration: 50 * time.Millisecond,
			TaskMaxDuration: 500 * time.Millisecond,
			ArrivalModel:    ArrivalModelUniform,
			TaskNames:       append([]string(nil), defaultTaskNames...),
		},
	}
}

// Load parses command-line arguments, the optional .env file, and the
// optional configuration file to produce a Config. Precedence, lowest first:
// defaults, environment, config file, flags.
func (Loader) Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	if initPath := flagSet.Lookup("init-config").Value.String(); initPath != "" {
		if err := WriteExample(initPath); err != nil {
			return nil, err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter configuration to %s\n", initPath)
		return nil, ErrConfigInitialized
	}

	cfg := Default()

	if listen := os.Getenv("AGENTPULSE_LISTEN"); listen != "" {
		cfg.Listen = listen
	}
	if level := os.Getenv("AGENTPULSE_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	configPath := flagSet.Lookup("config").Value.String()
	if configPath != "" {
		cfgViper := viper.New()
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := cfgViper.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}
	cfg.ConfigFile = configPath

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Listen = strings.TrimSpace(cfg.Listen)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Simulation.ArrivalModel = ArrivalModel(strings.ToLower(string(cfg.Simulation.ArrivalModel)))

	return cfg, nil
}

// applyFlagOverrides applies explicitly set flags on top of the loaded config.
func applyFlagOverrides(cfg *Config, flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !flags.Changed(name) {
			return
		}
		err = apply()
	}

	set("listen", func() error { cfg.Listen, err = flags.GetString("listen"); return err })
	set("log-level", func() error { cfg.LogLevel, err = flags.GetString("log-level"); return err })
	set("log-errors", func() error { cfg.LogErrors, err = flags.GetBool("log-errors"); return err })
	set("poll-interval", func() error { cfg.PollInterval, err = flags.GetDuration("poll-interval"); return err })
	set("dashboard", func() error { cfg.Dashboard, err = flags.GetBool("dashboard"); return err })
	set("json-output", func() error { cfg.JSONOutput, err = flags.GetBool("json-output"); return err })
	set("html-output", func() error { cfg.HTMLOutput, err = flags.GetString("html-output"); return err })
	set("threshold", func() error { cfg.Thresholds, err = flags.GetStringSlice("threshold"); return err })

	set("simulate", func() error { cfg.Simulation.Enabled, err = flags.GetBool("simulate"); return err })
	set("concurrency", func() error { cfg.Simulation.Concurrency, err = flags.GetInt("concurrency"); return err })
	set("rate", func() error { cfg.Simulation.Rate, err = flags.GetInt("rate"); return err })
	set("total", func() error { cfg.Simulation.Total, err = flags.GetInt("total"); return err })
	set("duration", func() error { cfg.Simulation.Duration, err = flags.GetDuration("duration"); return err })
	set("failure-rate", func() error { cfg.Simulation.FailureRate, err = flags.GetFloat64("failure-rate"); return err })
	set("task-min", func() error { cfg.Simulation.TaskMinDuration, err = flags.GetDuration("task-min"); return err })
	set("task-max", func() error { cfg.Simulation.TaskMaxDuration, err = flags.GetDuration("task-max"); return err })
	set("arrival-model", func() error {
		model, getErr := flags.GetString("arrival-model")
		cfg.Simulation.ArrivalModel = ArrivalModel(model)
		return getErr
	})
	set("seed", func() error { cfg.Simulation.Seed, err = flags.GetInt64("seed"); return err })
	set("task-name", func() error { cfg.Simulation.TaskNames, err = flags.GetStringSlice("task-name"); return err })

	set("tracing-endpoint", func() error { cfg.Tracing.Endpoint, err = flags.GetString("tracing-endpoint"); return err })
	set("tracing-protocol", func() error { cfg.Tracing.Protocol, err = flags.GetString("tracing-protocol"); return err })
	set("tracing-insecure", func() error { cfg.Tracing.Insecure, err = flags.GetBool("tracing-insecure"); return err })
	set("service-name", func() error { cfg.Tracing.ServiceName, err = flags.GetString("service-name"); return err })

	return err
}
