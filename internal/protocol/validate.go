package protocol

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid indicates a protocol failed validation.
var ErrInvalid = errors.New("invalid protocol")

// protocolValidate checks struct-level constraints declared in tags.
var protocolValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the protocol and returns every problem found, joined into
// a single error wrapping ErrInvalid.
func (p *Protocol) Validate() error {
	if err := protocolValidate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			problems := make([]error, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Errorf("%s: failed %q check", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w %q: %w", ErrInvalid, p.Name, errors.Join(problems...))
		}
		return fmt.Errorf("%w %q: %w", ErrInvalid, p.Name, err)
	}

	if problems := p.graphProblems(); len(problems) > 0 {
		return fmt.Errorf("%w %q: %w", ErrInvalid, p.Name, errors.Join(problems...))
	}
	return nil
}

// graphProblems checks the step table against the ordering invariant: every
// operand must already be available when its step runs.
func (p *Protocol) graphProblems() []error {
	var problems []error

	seen := make(map[string]string)
	for _, name := range p.Inputs {
		if _, dup := seen[name]; dup {
			problems = append(problems, fmt.Errorf("input %q listed twice", name))
		}
		seen[name] = "input"
	}
	for _, name := range p.OptionalInputs {
		if _, dup := seen[name]; dup {
			problems = append(problems, fmt.Errorf("optional input %q already declared as an input", name))
		}
		seen[name] = "optional input"
	}

	// producedBy maps each available name to the branch that produces it.
	// Inputs are produced by the core; optional inputs by no branch at all.
	producedBy := make(map[string]string)
	for _, name := range p.Inputs {
		producedBy[name] = CoreBranch
	}

	consumed := make(map[string]bool)
	for i, s := range p.Steps {
		where := fmt.Sprintf("step %d (%s)", i+1, s.Output)

		if kind, dup := seen[s.Output]; dup {
			problems = append(problems, fmt.Errorf("%s: output shadows %s %q", where, kind, s.Output))
		}

		if len(s.Operands) != s.Operation.Arity() {
			problems = append(problems, fmt.Errorf("%s: %s takes %d operand(s), got %d",
				where, s.Operation, s.Operation.Arity(), len(s.Operands)))
		}
		switch {
		case s.Operation == OpMargin && s.Margin == nil:
			problems = append(problems, fmt.Errorf("%s: margin step requires a margin distance", where))
		case s.Operation == OpMargin && (math.IsNaN(*s.Margin) || math.IsInf(*s.Margin, 0)):
			problems = append(problems, fmt.Errorf("%s: margin distance must be finite", where))
		case s.Operation != OpMargin && s.Margin != nil:
			problems = append(problems, fmt.Errorf("%s: %s step does not take a margin distance", where, s.Operation))
		}

		for _, op := range s.Operands {
			if p.IsOptionalInput(op) {
				consumed[op] = true
				if !s.Optional() {
					problems = append(problems, fmt.Errorf("%s: mandatory step consumes optional input %q", where, op))
				}
				continue
			}
			branch, ok := producedBy[op]
			if !ok {
				problems = append(problems, fmt.Errorf("%s: operand %q is neither an input nor the output of an earlier step", where, op))
				continue
			}
			if !s.Optional() && branch != CoreBranch {
				problems = append(problems, fmt.Errorf("%s: mandatory step consumes %q from optional branch %q", where, op, branch))
			}
		}

		seen[s.Output] = "output"
		producedBy[s.Output] = s.Branch
	}

	for _, name := range p.OptionalInputs {
		if !consumed[name] {
			problems = append(problems, fmt.Errorf("optional input %q is not consumed by any step", name))
		}
	}

	return problems
}
