package planner

import "fmt"

// SkipReason explains why an optional branch will not run.
type SkipReason string

const (
	// ReasonMissingInput means a structure the branch consumes is absent,
	// either an optional input or the output of another skipped branch.
	ReasonMissingInput SkipReason = "missing-input"

	// ReasonOutputExists means a structure the branch would create already
	// exists and must not be overwritten.
	ReasonOutputExists SkipReason = "output-already-exists"
)

// Decision is the verdict for one optional branch, input or output:
// either enabled, or skipped with a reason.
type Decision struct {
	// Enabled is true when the branch may run
	Enabled bool `json:"enabled"`

	// Reason is set when Enabled is false
	Reason SkipReason `json:"reason,omitempty"`

	// Cause names the structure that triggered the skip
	Cause string `json:"cause,omitempty"`
}

// Enable returns an enabled decision.
func Enable() Decision {
	return Decision{Enabled: true}
}

// Skip returns a skip decision caused by the named structure.
func Skip(reason SkipReason, cause string) Decision {
	return Decision{Reason: reason, Cause: cause}
}

// String renders the decision for logs and listings.
func (d Decision) String() string {
	if d.Enabled {
		return "enabled"
	}
	return fmt.Sprintf("skip(%s: %s)", d.Reason, d.Cause)
}
