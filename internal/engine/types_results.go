package engine

import (
	"time"

	"github.com/danieljhkim/rapidstruct/internal/planner"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

// RunResult represents the result of a run.
type RunResult struct {
	// RunID identifies the run
	RunID string `json:"runId"`

	// Outcome is the last phase reached: done, aborted or failed, or
	// ready for a dry run
	Outcome Phase `json:"outcome"`

	// Phases lists every phase visited, in order
	Phases []Phase `json:"phases"`

	// Gate is the precondition verdict (nil when no structure set was loaded)
	Gate *planner.Gate `json:"gate,omitempty"`

	// Report is the execution report
	Report *Report `json:"report"`

	// ReportPath is where the report was written (empty if not written)
	ReportPath string `json:"reportPath,omitempty"`
}

// Operand is one resolved step input.
type Operand struct {
	Name           string  `json:"name"`
	Volume         float64 `json:"volume"`
	HighResolution bool    `json:"highResolution,omitempty"`
}

// Provenance records one executed step. It is used for reporting only.
type Provenance struct {
	// Output is the created structure
	Output string `json:"output"`

	// Category is the category the output was stored with
	Category region.Category `json:"category"`

	// Operation is the applied operation
	Operation protocol.Operation `json:"operation"`

	// Margin is the margin distance for margin steps
	Margin *float64 `json:"margin,omitempty"`

	// Branch is the optional branch of the step (empty for mandatory steps)
	Branch string `json:"branch,omitempty"`

	// Inputs are the operands as resolved from the store
	Inputs []Operand `json:"inputs"`

	// OutputVolume is the volume of the created structure in cm³
	OutputVolume float64 `json:"outputVolume"`

	// Promoted names a subtrahend replaced by a high-resolution copy
	Promoted string `json:"promoted,omitempty"`

	// Intermediate marks outputs removed by cleanup
	Intermediate bool `json:"intermediate,omitempty"`
}

// SkippedStep records a step omitted because its branch was skipped.
type SkippedStep struct {
	Output   string           `json:"output"`
	Branch   string           `json:"branch"`
	Decision planner.Decision `json:"decision"`
}

// Execution is what the executor did.
type Execution struct {
	// Steps holds one record per executed step, in execution order
	Steps []Provenance `json:"steps"`

	// Skipped holds the steps omitted by branch decisions
	Skipped []SkippedStep `json:"skipped"`
}

// CreatedIntermediates returns the intermediate outputs actually created,
// in creation order.
func (x *Execution) CreatedIntermediates() []string {
	var names []string
	for _, p := range x.Steps {
		if p.Intermediate {
			names = append(names, p.Output)
		}
	}
	return names
}

// Report is the execution report of a run.
type Report struct {
	RunID     string `json:"runId"`
	Protocol  string `json:"protocol"`
	PatientID string `json:"patientId,omitempty"`
	ImageID   string `json:"imageId,omitempty"`

	// InputDigest fingerprints the structure set the run started from
	InputDigest string `json:"inputDigest,omitempty"`

	Outcome Phase `json:"outcome"`

	// Findings are the gate findings reported to the operator
	Findings []planner.Finding `json:"findings"`

	Execution

	// Removed lists the intermediates removed by cleanup
	Removed []string `json:"removed"`

	// Error is the text of the error that ended the run, if any
	Error string `json:"error,omitempty"`

	// Messages are the operator messages of the run, prompts included, in
	// the order they were shown
	Messages []string `json:"messages"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func newReport(runID string, p *protocol.Protocol, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		Protocol:  p.Name,
		Findings:  []planner.Finding{},
		Execution: Execution{Steps: []Provenance{}, Skipped: []SkippedStep{}},
		Removed:   []string{},
		Messages:  []string{},
		StartedAt: startedAt,
	}
}
