package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/rapidstruct/internal/planner"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

// Execute runs steps against store in the given order. Steps of a branch
// whose decision is not enabled are omitted; mandatory steps always run.
//
// Execution stops at the first failing step with a *StepError. Outputs
// created before that step stay in the store.
func (e *Engine) Execute(store region.Store, steps []protocol.Step, decisions map[string]planner.Decision) (*Execution, error) {
	x := &Execution{Steps: []Provenance{}, Skipped: []SkippedStep{}}

	for _, s := range steps {
		if s.Optional() {
			if d := decisions[s.Branch]; !d.Enabled {
				x.Skipped = append(x.Skipped, SkippedStep{Output: s.Output, Branch: s.Branch, Decision: d})
				e.logger.Debug("step skipped", "step", s.Output, "branch", s.Branch, "decision", d.String())
				continue
			}
		}

		prov, err := e.applyStep(store, s)
		if err != nil {
			stepErr := &StepError{Output: s.Output, Operation: s.Operation, Err: err}
			e.notifier.Inform(fmt.Sprintf("'%s' could not be created: %v", s.Output, err))
			e.logger.Error("step failed", "step", s.Output, "operation", s.Operation, "error", err)
			return x, stepErr
		}

		x.Steps = append(x.Steps, prov)
		e.notifier.Inform(describeStep(prov))
		e.logger.Debug("step done", "step", s.Output, "operation", s.Operation, "volume", prov.OutputVolume)
	}

	return x, nil
}

// applyStep resolves operands, applies the operation and stores the output.
// Panics raised by the algebra are converted to geometry errors.
func (e *Engine) applyStep(store region.Store, s protocol.Step) (prov Provenance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrGeometry, r)
		}
	}()

	prov = Provenance{
		Output:       s.Output,
		Category:     s.Category,
		Operation:    s.Operation,
		Margin:       s.Margin,
		Branch:       s.Branch,
		Intermediate: s.Intermediate,
	}

	operands := make([]region.Region, len(s.Operands))
	for i, name := range s.Operands {
		r, ok := store.Find(name)
		if !ok {
			return prov, fmt.Errorf("%w: %q", ErrTopology, name)
		}
		operands[i] = r
		prov.Inputs = append(prov.Inputs, Operand{
			Name:           name,
			Volume:         e.algebra.Volume(r),
			HighResolution: e.algebra.IsHighResolution(r),
		})
	}

	var out region.Region
	switch s.Operation {
	case protocol.OpMargin:
		out, err = e.algebra.Margin(operands[0], s.MarginMM())
	case protocol.OpUnion:
		out, err = e.algebra.Union(operands[0], operands[1])
	case protocol.OpIntersect:
		out, err = e.algebra.Intersect(operands[0], operands[1])
	case protocol.OpSubtract:
		minuend, subtrahend := operands[0], operands[1]
		if e.algebra.IsHighResolution(minuend) && !e.algebra.IsHighResolution(subtrahend) {
			// The promoted copy is only an operand; it is never stored.
			subtrahend, err = e.algebra.PromoteHighResolution(subtrahend)
			if err != nil {
				return prov, fmt.Errorf("%w: promoting %q: %w", ErrGeometry, s.Operands[1], err)
			}
			prov.Promoted = s.Operands[1]
			e.notifier.Inform(fmt.Sprintf("%s was a high resolution structure.", s.Operands[0]))
		}
		out, err = e.algebra.Subtract(minuend, subtrahend)
	default:
		return prov, fmt.Errorf("unknown operation: %s", s.Operation)
	}
	if err != nil {
		return prov, fmt.Errorf("%w: %w", ErrGeometry, err)
	}

	if _, err := store.Insert(s.Category, s.Output, out); err != nil {
		if errors.Is(err, region.ErrExists) {
			return prov, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return prov, fmt.Errorf("failed to store output: %w", err)
	}
	prov.OutputVolume = e.algebra.Volume(out)

	return prov, nil
}

// describeStep renders the per-step operator message.
func describeStep(p Provenance) string {
	var b strings.Builder
	for _, in := range p.Inputs {
		fmt.Fprintf(&b, "%s volume = %.2f\n", in.Name, in.Volume)
	}
	fmt.Fprintf(&b, "%s created with volume = %.2f", p.Output, p.OutputVolume)
	return b.String()
}
