// Package protocol describes derivation protocols: the named inputs a
// protocol expects and the ordered table of steps that derive new
// structures from them.
//
// A protocol replaces hard-coded structure names with data, so one pipeline
// engine serves every anatomical site. Steps are listed in a fixed
// topological order; an operand may only name an input or the output of an
// earlier step.
package protocol

import (
	"slices"

	"github.com/danieljhkim/rapidstruct/internal/region"
)

// Operation is the set operation a step applies.
type Operation string

const (
	OpUnion     Operation = "union"
	OpIntersect Operation = "intersect"
	OpSubtract  Operation = "subtract"
	OpMargin    Operation = "margin"
)

// Arity returns the number of operands the operation takes.
func (o Operation) Arity() int {
	if o == OpMargin {
		return 1
	}
	return 2
}

// CoreBranch is the branch name of mandatory steps.
const CoreBranch = ""

// Protocol is a complete derivation table.
type Protocol struct {
	// Name identifies the protocol on the command line
	Name string `yaml:"name" json:"name" validate:"required"`

	// Title is the human-readable name shown in notifications
	Title string `yaml:"title,omitempty" json:"title,omitempty"`

	// Description explains what the protocol produces
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Inputs are the structures that must exist before the run
	Inputs []string `yaml:"inputs" json:"inputs" validate:"required,min=1,dive,required"`

	// OptionalInputs are structures (typically OARs) whose absence only
	// skips the branches that consume them
	OptionalInputs []string `yaml:"optional_inputs,omitempty" json:"optionalInputs,omitempty" validate:"dive,required"`

	// Steps is the derivation table in execution order
	Steps []Step `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
}

// Step derives one structure.
type Step struct {
	// Output is the name of the structure this step creates
	Output string `yaml:"output" json:"output" validate:"required"`

	// Category is the category the output is stored with
	Category region.Category `yaml:"category" json:"category" validate:"required,oneof=target control avoidance"`

	// Operation is the set operation to apply
	Operation Operation `yaml:"operation" json:"operation" validate:"required,oneof=union intersect subtract margin"`

	// Operands name the input structures, minuend first for subtract
	Operands []string `yaml:"operands" json:"operands" validate:"min=1,max=2,dive,required"`

	// Margin is the expansion distance in mm (negative contracts)
	Margin *float64 `yaml:"margin,omitempty" json:"margin,omitempty"`

	// Intermediate marks outputs that are removed at the end of the run
	Intermediate bool `yaml:"intermediate,omitempty" json:"intermediate,omitempty"`

	// Branch groups optional steps. Empty means the step is mandatory.
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
}

// Optional reports whether the step belongs to an optional branch.
func (s Step) Optional() bool {
	return s.Branch != CoreBranch
}

// MarginMM returns the margin distance, or 0 for non-margin steps.
func (s Step) MarginMM() float64 {
	if s.Margin == nil {
		return 0
	}
	return *s.Margin
}

// DisplayName returns the title, falling back to the name.
func (p *Protocol) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// IsInput reports whether name is a mandatory input.
func (p *Protocol) IsInput(name string) bool {
	return slices.Contains(p.Inputs, name)
}

// IsOptionalInput reports whether name is an optional input.
func (p *Protocol) IsOptionalInput(name string) bool {
	return slices.Contains(p.OptionalInputs, name)
}

// StepFor returns the step producing output.
func (p *Protocol) StepFor(output string) (Step, bool) {
	for _, s := range p.Steps {
		if s.Output == output {
			return s, true
		}
	}
	return Step{}, false
}

// Branches returns the optional branch names in first-appearance order.
func (p *Protocol) Branches() []string {
	var branches []string
	for _, s := range p.Steps {
		if s.Optional() && !slices.Contains(branches, s.Branch) {
			branches = append(branches, s.Branch)
		}
	}
	return branches
}

// Outputs returns the outputs of the given branch in step order.
// Use CoreBranch for the mandatory outputs.
func (p *Protocol) Outputs(branch string) []string {
	var outputs []string
	for _, s := range p.Steps {
		if s.Branch == branch {
			outputs = append(outputs, s.Output)
		}
	}
	return outputs
}

// BranchInputs returns the optional inputs consumed directly by a branch.
func (p *Protocol) BranchInputs(branch string) []string {
	var inputs []string
	for _, s := range p.Steps {
		if s.Branch != branch {
			continue
		}
		for _, op := range s.Operands {
			if p.IsOptionalInput(op) && !slices.Contains(inputs, op) {
				inputs = append(inputs, op)
			}
		}
	}
	return inputs
}

// BranchDependencies returns the other branches whose outputs feed branch.
func (p *Protocol) BranchDependencies(branch string) []string {
	producer := make(map[string]string, len(p.Steps))
	for _, s := range p.Steps {
		producer[s.Output] = s.Branch
	}

	var deps []string
	for _, s := range p.Steps {
		if s.Branch != branch {
			continue
		}
		for _, op := range s.Operands {
			b, ok := producer[op]
			if !ok || b == CoreBranch || b == branch || slices.Contains(deps, b) {
				continue
			}
			deps = append(deps, b)
		}
	}
	return deps
}

// Intermediates returns the intermediate outputs in step order.
func (p *Protocol) Intermediates() []string {
	var names []string
	for _, s := range p.Steps {
		if s.Intermediate {
			names = append(names, s.Output)
		}
	}
	return names
}

// Terminals returns the outputs kept after cleanup, in step order.
func (p *Protocol) Terminals() []string {
	var names []string
	for _, s := range p.Steps {
		if !s.Intermediate {
			names = append(names, s.Output)
		}
	}
	return names
}
