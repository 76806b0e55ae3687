package config

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "agentpulse",
		Short:         "Real-time agent performance dashboard server",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Server flags
	flags.StringP("listen", "l", ":8080", "Address for the HTTP API and web dashboard")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-errors", false, "Log each failed task to stderr")
	flags.Duration("poll-interval", 5*time.Second, "Dashboard refresh / push interval")

	// Simulation flags
	flags.Bool("simulate", false, "Run the built-in task simulation load generator")
	flags.IntP("concurrency", "c", 1, "Number of concurrent simulation workers")
	flags.IntP("rate", "r", 0, "Simulated task starts per second (0 means unlimited)")
	flags.IntP("total", "t", 0, "Total number of tasks to simulate (0 means unlimited)")
	flags.DurationP("duration", "d", 0, "How long to run the simulation (e.g. 30s, 1m)")
	flags.Float64("failure-rate", 0.2, "Probability that a simulated task fails")
	flags.Duration("task-min", 50*time.Millisecond, "Minimum simulated task duration")
	flags.Duration("task-max", 500*time.Millisecond, "Maximum simulated task duration")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model when pacing tasks (uniform or poisson)")
	flags.Int64("seed", 0, "Random seed for the simulation (0 means time-based)")
	flags.StringSlice("task-name", nil, "Task name pool for the simulation (repeatable)")

	// Output flags
	flags.Bool("dashboard", false, "Show live terminal dashboard with metrics")
	flags.Bool("json-output", false, "Emit JSON formatted output after a simulation run")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.StringSlice("threshold", nil, "Performance threshold, e.g. 'task_duration:p99<0.5' (repeatable)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for task spans")
	flags.String("tracing-protocol", "", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Skip TLS on the OTLP exporter connection")
	flags.String("service-name", "", "Reported service.name for traces")

	// Config file flags
	flags.String("config", "", "Path to configuration file (JSON or YAML)")
	flags.String("init-config", "", "Write a starter YAML configuration to the given path and exit")
}

func displayHelp(cmd *cobra.Command) {
	_ = cmd.Help()
}
