package engine

import (
	"fmt"
	"slices"
)

// Phase is a state of the pipeline.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseAborted    Phase = "aborted"
	PhaseReady      Phase = "ready"
	PhaseExecuting  Phase = "executing"
	PhaseCleaning   Phase = "cleaning"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// transitions lists the phases reachable from each phase.
// Aborted, Failed and Done have no successors.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseValidating},
	PhaseValidating: {PhaseAborted, PhaseReady},
	PhaseReady:      {PhaseExecuting},
	PhaseExecuting:  {PhaseCleaning, PhaseFailed},
	PhaseCleaning:   {PhaseDone, PhaseFailed},
}

// Terminal reports whether no transition leaves p.
func (p Phase) Terminal() bool {
	return len(transitions[p]) == 0
}

// Succeeded reports whether p is the success terminal state.
func (p Phase) Succeeded() bool {
	return p == PhaseDone
}

// machine tracks the current phase and every phase visited.
type machine struct {
	current Phase
	visited []Phase
}

func newMachine() *machine {
	return &machine{current: PhaseIdle, visited: []Phase{PhaseIdle}}
}

func (m *machine) to(next Phase) error {
	if !slices.Contains(transitions[m.current], next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.current, next)
	}
	m.current = next
	m.visited = append(m.visited, next)
	return nil
}
