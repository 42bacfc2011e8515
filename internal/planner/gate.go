package planner

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

// FindingKind classifies a precondition finding.
type FindingKind string

const (
	FindingMissingInput      FindingKind = "missing-input"
	FindingOutputCollision   FindingKind = "output-collision"
	FindingMissingOptional   FindingKind = "missing-optional-input"
	FindingOptionalCollision FindingKind = "optional-output-collision"
	FindingDependencySkipped FindingKind = "dependency-skipped"
)

// Finding is one problem discovered by the gate.
type Finding struct {
	// Kind classifies the finding
	Kind FindingKind `json:"kind"`

	// Name is the structure the finding is about
	Name string `json:"name"`

	// Branch is the affected optional branch (empty for mandatory findings)
	Branch string `json:"branch,omitempty"`

	// Fatal findings abort the run
	Fatal bool `json:"fatal"`

	// Message is the operator-facing text
	Message string `json:"message"`
}

// Gate is the outcome of precondition validation.
type Gate struct {
	// Protocol is the name of the validated protocol
	Protocol string `json:"protocol"`

	// MissingMandatory lists every absent mandatory input
	MissingMandatory []string `json:"missingMandatory,omitempty"`

	// Collisions lists mandatory outputs that already exist
	Collisions []string `json:"collisions,omitempty"`

	// OptionalDecisions is keyed by optional input name
	OptionalDecisions map[string]Decision `json:"optionalDecisions"`

	// CollisionDecisions is keyed by optional output name
	CollisionDecisions map[string]Decision `json:"collisionDecisions"`

	// Decisions is keyed by branch name and drives the executor
	Decisions map[string]Decision `json:"decisions"`

	// Branches is the branch order of the protocol
	Branches []string `json:"branches"`

	// Findings holds every finding in discovery order
	Findings []Finding `json:"findings"`
}

// NewGate creates an empty Gate for the named protocol.
func NewGate(protocolName string) *Gate {
	return &Gate{
		Protocol:           protocolName,
		OptionalDecisions:  map[string]Decision{},
		CollisionDecisions: map[string]Decision{},
		Decisions:          map[string]Decision{},
		Findings:           []Finding{},
	}
}

// MandatoryOK returns false when the run must abort.
func (g *Gate) MandatoryOK() bool {
	return len(g.MissingMandatory) == 0 && len(g.Collisions) == 0
}

// Enabled reports whether steps of the branch may run.
// The core branch is enabled exactly when the mandatory checks passed.
func (g *Gate) Enabled(branch string) bool {
	if branch == protocol.CoreBranch {
		return g.MandatoryOK()
	}
	d, ok := g.Decisions[branch]
	return ok && d.Enabled
}

// Skipped returns the skipped branches in protocol order.
func (g *Gate) Skipped() []string {
	var skipped []string
	for _, b := range g.Branches {
		if !g.Decisions[b].Enabled {
			skipped = append(skipped, b)
		}
	}
	return skipped
}

// FatalFindings returns the findings that abort the run.
func (g *Gate) FatalFindings() []Finding {
	var fatal []Finding
	for _, f := range g.Findings {
		if f.Fatal {
			fatal = append(fatal, f)
		}
	}
	return fatal
}

// AddFinding appends a finding.
func (g *Gate) AddFinding(f Finding) {
	g.Findings = append(g.Findings, f)
}

// Validate runs every precondition check for p against store without
// mutating it. All problems are collected before returning.
func Validate(store region.Store, p *protocol.Protocol) *Gate {
	g := NewGate(p.Name)
	g.Branches = p.Branches()

	for _, name := range p.Inputs {
		if _, ok := store.Find(name); ok {
			continue
		}
		g.MissingMandatory = append(g.MissingMandatory, name)
		g.AddFinding(Finding{
			Kind:    FindingMissingInput,
			Name:    name,
			Fatal:   true,
			Message: fmt.Sprintf("'%s' not found! Exiting script", name),
		})
	}

	// Later mandatory steps depend on these outputs, so an existing one
	// cannot simply be skipped.
	for _, name := range p.Outputs(protocol.CoreBranch) {
		if _, ok := store.Find(name); !ok {
			continue
		}
		g.Collisions = append(g.Collisions, name)
		g.AddFinding(Finding{
			Kind:    FindingOutputCollision,
			Name:    name,
			Fatal:   true,
			Message: fmt.Sprintf("'%s' already exists! Please delete or rename '%s' and re-run script.", name, name),
		})
	}

	for _, name := range p.OptionalInputs {
		if _, ok := store.Find(name); ok {
			g.OptionalDecisions[name] = Enable()
		} else {
			g.OptionalDecisions[name] = Skip(ReasonMissingInput, name)
		}
	}

	for _, branch := range g.Branches {
		g.Decisions[branch] = decideBranch(g, store, p, branch)
	}
	propagateSkips(g, p)

	return g
}

// decideBranch checks one optional branch against its own inputs and
// outputs. Dependencies on other branches are settled by propagateSkips.
func decideBranch(g *Gate, store region.Store, p *protocol.Protocol, branch string) Decision {
	label := describeOutputs(p, branch)

	for _, input := range p.BranchInputs(branch) {
		if d := g.OptionalDecisions[input]; !d.Enabled {
			markOutputs(g, store, p, branch)
			g.AddFinding(Finding{
				Kind:    FindingMissingOptional,
				Name:    input,
				Branch:  branch,
				Message: fmt.Sprintf("'%s' not found! %s will not be created.", input, label),
			})
			return Skip(ReasonMissingInput, input)
		}
	}

	if collided := markOutputs(g, store, p, branch); len(collided) > 0 {
		for _, name := range collided {
			g.AddFinding(Finding{
				Kind:    FindingOptionalCollision,
				Name:    name,
				Branch:  branch,
				Message: fmt.Sprintf("'%s' already exists! '%s' will not be re-created.", name, name),
			})
		}
		return Skip(ReasonOutputExists, collided[0])
	}

	return Enable()
}

// propagateSkips skips every enabled branch that consumes an output of a
// skipped branch, repeating until nothing changes. Steps of different
// branches may interleave, so protocol order is not dependency order.
// Branches that feed each other stay enabled when both can run.
func propagateSkips(g *Gate, p *protocol.Protocol) {
	for changed := true; changed; {
		changed = false
		for _, branch := range g.Branches {
			if !g.Decisions[branch].Enabled {
				continue
			}
			for _, dep := range p.BranchDependencies(branch) {
				if g.Decisions[dep].Enabled {
					continue
				}
				g.AddFinding(Finding{
					Kind:    FindingDependencySkipped,
					Name:    dep,
					Branch:  branch,
					Message: fmt.Sprintf("'%s' is skipped! %s will not be created.", dep, describeOutputs(p, branch)),
				})
				g.Decisions[branch] = Skip(ReasonMissingInput, dep)
				changed = true
				break
			}
		}
	}
}

// markOutputs records a collision decision for every output of branch and
// returns the outputs that already exist.
func markOutputs(g *Gate, store region.Store, p *protocol.Protocol, branch string) []string {
	var collided []string
	for _, name := range p.Outputs(branch) {
		if _, exists := store.Find(name); exists {
			g.CollisionDecisions[name] = Skip(ReasonOutputExists, name)
			collided = append(collided, name)
		} else {
			g.CollisionDecisions[name] = Enable()
		}
	}
	return collided
}

// describeOutputs quotes the structures a branch keeps, for messages.
func describeOutputs(p *protocol.Protocol, branch string) string {
	var kept []string
	for _, name := range p.Outputs(branch) {
		if s, _ := p.StepFor(name); !s.Intermediate {
			kept = append(kept, "'"+name+"'")
		}
	}
	if len(kept) == 0 {
		return "'" + branch + "'"
	}
	return strings.Join(kept, ", ")
}
