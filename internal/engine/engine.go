// Package engine runs derivation protocols against a structure set.
//
// The engine is the orchestration layer between the CLI and the geometry
// collaborators. One call to Run takes a structure set through the whole
// pipeline: precondition gate, ordered step execution and cleanup of
// intermediate structures.
//
// Key components:
//   - Engine: Main orchestrator holding the injected collaborators
//   - Run: The single invocation surface and its phase machine
//   - Execute: Ordered derivation of every enabled step
//   - Cleanup: Idempotent removal of intermediate structures
package engine

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/danieljhkim/rapidstruct/internal/clock"
	"github.com/danieljhkim/rapidstruct/internal/config"
	"github.com/danieljhkim/rapidstruct/internal/fsops"
	"github.com/danieljhkim/rapidstruct/internal/logging"
	"github.com/danieljhkim/rapidstruct/internal/notify"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

// Engine orchestrates derivation runs.
// It is the main API surface called by the CLI.
type Engine struct {
	algebra     region.Algebra
	notifier    notify.Notifier
	fs          fsops.FS
	clock       clock.Clock
	configPaths config.Paths
	logger      *slog.Logger
	newID       func() string
}

// New creates a new Engine with the given dependencies.
func New(
	algebra region.Algebra,
	notifier notify.Notifier,
	fs fsops.FS,
	clk clock.Clock,
	paths config.Paths,
) *Engine {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Engine{
		algebra:     algebra,
		notifier:    notifier,
		fs:          fs,
		clock:       clk,
		configPaths: paths,
		logger:      logging.New("engine"),
		newID:       uuid.NewString,
	}
}

// withNotifier returns a copy of e that sends operator messages to n.
func (e *Engine) withNotifier(n notify.Notifier) *Engine {
	c := *e
	c.notifier = n
	return &c
}
