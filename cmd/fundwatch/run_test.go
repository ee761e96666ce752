package main

import (
	"testing"
	"time"

	"github.com/newthinker/fundwatch/internal/app"
	"github.com/newthinker/fundwatch/internal/config"
	"github.com/newthinker/fundwatch/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newRunFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().StringVar(&runPolicy, "policy", "", "")
	cmd.Flags().IntVar(&runWorkers, "workers", 0, "")
	cmd.Flags().DurationVar(&runPace, "pace", 0, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return cmd
}

func TestResolvePolicy(t *testing.T) {
	a := app.New(config.Defaults(), app.Deps{}, nil)

	tests := []struct {
		name string
		kind string
		args []string
		want orchestrator.Policy
	}{
		{"configured global", config.RunGlobal, nil, orchestrator.Parallel(10)},
		{"configured funds", config.RunFunds, nil, orchestrator.Sequential(300 * time.Millisecond)},
		{"workers override", config.RunGlobal, []string{"--workers", "3"}, orchestrator.Parallel(3)},
		{"pace override", config.RunFunds, []string{"--pace", "1s"}, orchestrator.Sequential(time.Second)},
		{"workers ignored when sequential", config.RunFunds, []string{"--workers", "3"}, orchestrator.Sequential(300 * time.Millisecond)},
		{"policy override", config.RunFunds, []string{"--policy", "parallel", "--workers", "4"}, orchestrator.Parallel(4)},
		{"sequential global without pause", config.RunGlobal, []string{"--policy", "sequential", "--pace", "0s"}, orchestrator.Sequential(0)},
		{"sequential global keeps configured pace", config.RunGlobal, []string{"--policy", "sequential"}, orchestrator.Sequential(300 * time.Millisecond)},
		{"parallel funds keeps configured workers", config.RunFunds, []string{"--policy", "parallel"}, orchestrator.Parallel(10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRunFlags(t, tt.args...)
			got, err := resolvePolicy(cmd, a, tt.kind)
			if err != nil {
				t.Fatalf("resolvePolicy() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePolicy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolvePolicy_ConfiguredPaceSurvivesModeSwitch(t *testing.T) {
	cfg := config.Defaults()
	cfg.Runs.Global.Pace = 750 * time.Millisecond
	cfg.Runs.Funds.Workers = 3
	a := app.New(cfg, app.Deps{}, nil)

	got, err := resolvePolicy(newRunFlags(t, "--policy", "sequential"), a, config.RunGlobal)
	if err != nil {
		t.Fatalf("resolvePolicy() error = %v", err)
	}
	if got.Pace != 750*time.Millisecond {
		t.Errorf("pace = %s, want 750ms", got.Pace)
	}

	got, err = resolvePolicy(newRunFlags(t, "--policy", "parallel"), a, config.RunFunds)
	if err != nil {
		t.Fatalf("resolvePolicy() error = %v", err)
	}
	if got.Width != 3 {
		t.Errorf("width = %d, want 3", got.Width)
	}
}

func TestResolvePolicy_Invalid(t *testing.T) {
	a := app.New(config.Defaults(), app.Deps{}, nil)
	cmd := newRunFlags(t, "--policy", "bursty")

	if _, err := resolvePolicy(cmd, a, config.RunGlobal); err == nil {
		t.Error("expected error for unknown policy")
	}
}
