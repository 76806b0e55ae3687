package main

import (
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/agentpulse/agentpulse/internal/config"
	"github.com/agentpulse/agentpulse/internal/runner"
)

func TestRunHelp(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Errorf("run(--help) = %v, want nil", err)
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if err := run([]string{"--no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestRunReturnsWhenListenFails(t *testing.T) {
	// Occupy a port so the server cannot bind to it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	done := make(chan error, 1)
	go func() { done <- run([]string{"--listen", ln.Addr().String()}) }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected bind failure to surface as an error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after the server failed to listen")
	}
}

func TestToRunnerArrivalModel(t *testing.T) {
	tests := []struct {
		input    config.ArrivalModel
		expected runner.ArrivalModel
	}{
		{config.ArrivalModelUniform, runner.ArrivalModelUniform},
		{config.ArrivalModelPoisson, runner.ArrivalModelPoisson},
		{config.ArrivalModel(""), runner.ArrivalModelUniform},
		{config.ArrivalModel("bogus"), runner.ArrivalModelUniform},
	}
	for _, tt := range tests {
		if got := toRunnerArrivalModel(tt.input); got != tt.expected {
			t.Errorf("toRunnerArrivalModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNextTaskBounds(t *testing.T) {
	exec := &taskExecutor{
		names:       []string{"ingest", "etl", "sync"},
		minDuration: 50 * time.Millisecond,
		maxDuration: 500 * time.Millisecond,
		failureRate: 0.5,
		rnd:         rand.New(rand.NewSource(1)),
	}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		name, duration, _ := exec.nextTask()
		seen[name] = true
		if duration < exec.minDuration || duration >= exec.maxDuration {
			t.Fatalf("duration %s outside [%s, %s)", duration, exec.minDuration, exec.maxDuration)
		}
	}
	for _, name := range exec.names {
		if !seen[name] {
			t.Errorf("task %q never selected", name)
		}
	}
}

func TestNextTaskDefaults(t *testing.T) {
	exec := &taskExecutor{
		minDuration: 100 * time.Millisecond,
		maxDuration: 100 * time.Millisecond,
		rnd:         rand.New(rand.NewSource(1)),
	}
	name, duration, shouldFail := exec.nextTask()
	if name != "default_task" {
		t.Errorf("name = %q, want default_task", name)
	}
	if duration != 100*time.Millisecond {
		t.Errorf("duration = %s, want 100ms", duration)
	}
	if shouldFail {
		t.Error("zero failure rate must never fail")
	}
}
