package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/fundwatch/internal/core"
)

// Mode selects how assets are dispatched.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"

	DefaultWidth = 10
	DefaultPace  = 300 * time.Millisecond
)

// Policy describes how a run dispatches its assets.
type Policy struct {
	Mode  Mode
	Width int           // parallel only: maximum concurrent resolutions
	Pace  time.Duration // sequential only: pause between tasks
}

// Parallel resolves up to width assets at a time. Non-positive widths use
// DefaultWidth.
func Parallel(width int) Policy {
	if width <= 0 {
		width = DefaultWidth
	}
	return Policy{Mode: ModeParallel, Width: width}
}

// Sequential resolves one asset at a time with a pause between tasks.
// A negative pace uses DefaultPace; zero disables the pause.
func Sequential(pace time.Duration) Policy {
	if pace < 0 {
		pace = DefaultPace
	}
	return Policy{Mode: ModeSequential, Pace: pace}
}

// ParsePolicy builds a policy from its configured name.
func ParsePolicy(name string, width int, pace time.Duration) (Policy, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeParallel, "":
		return Parallel(width), nil
	case ModeSequential:
		return Sequential(pace), nil
	default:
		return Policy{}, core.Errorf(core.ErrConfigInvalid, "unknown policy %q", name)
	}
}

func (p Policy) String() string {
	if p.Mode == ModeSequential {
		return fmt.Sprintf("sequential(pace=%s)", p.Pace)
	}
	return fmt.Sprintf("parallel(width=%d)", p.Width)
}
