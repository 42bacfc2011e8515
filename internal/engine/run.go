package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/rapidstruct/internal/notify"
	"github.com/danieljhkim/rapidstruct/internal/planner"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
)

// Algorithm steps:
// 1. Check a structure set is loaded
// 2. Run the precondition gate and report every finding
// 3. Abort on mandatory problems; ask once before skipping branches
// 4. Stop here for a dry run
// 5. Execute enabled steps in protocol order
// 6. Remove the intermediates that were created
// 7. Report the outcome once and persist the run report
//
// The returned error is nil only for done and dry-run outcomes. The result
// is returned for every outcome.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if req == nil || req.Protocol == nil {
		return nil, fmt.Errorf("%w: no protocol given", ErrValidation)
	}

	p := req.Protocol
	runID := e.newID()
	m := newMachine()
	report := newReport(runID, p, e.clock.Now())
	result := &RunResult{RunID: runID, Report: report}
	log := e.logger.With("run_id", runID, "protocol", p.Name)

	// operator messages are kept in the report as well
	messages := notify.NewRecorder()
	re := e.withNotifier(notify.Tee{e.notifier, messages})

	runErr := re.run(ctx, req, m, result)

	report.Outcome = m.current
	report.FinishedAt = e.clock.Now()
	if runErr != nil {
		report.Error = runErr.Error()
	}
	result.Outcome = m.current
	result.Phases = m.visited

	if m.current.Terminal() {
		re.notifier.Inform(outcomeMessage(p, m.current, report, runErr))
	}
	report.Messages = append(report.Messages, messages.Messages...)
	log.InfoContext(ctx, "run finished",
		"outcome", m.current,
		"created", len(report.Steps),
		"skipped", len(report.Skipped),
		"removed", len(report.Removed))

	if req.WriteReport && !req.DryRun {
		path, err := e.writeReport(report)
		if err != nil {
			log.WarnContext(ctx, "failed to write run report", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
		result.ReportPath = path
	}

	return result, runErr
}

// run drives the phase machine. Every return leaves m in the phase the run
// ended in.
func (e *Engine) run(ctx context.Context, req *RunRequest, m *machine, result *RunResult) error {
	p := req.Protocol
	report := result.Report
	log := e.logger.With("run_id", result.RunID, "protocol", p.Name)

	if err := m.to(PhaseValidating); err != nil {
		return err
	}

	host := req.Context
	if host == nil || host.Structures == nil {
		e.notifier.Inform(fmt.Sprintf("Please load a patient, 3D image, and structure set before running %s.", p.DisplayName()))
		if err := m.to(PhaseAborted); err != nil {
			return err
		}
		return ErrNoContext
	}
	report.PatientID = host.PatientID
	report.ImageID = host.ImageID
	report.InputDigest = host.Digest
	store := host.Structures

	gate := planner.Validate(store, p)
	result.Gate = gate
	report.Findings = append(report.Findings, gate.Findings...)
	for _, f := range gate.Findings {
		e.notifier.Inform(f.Message)
		log.InfoContext(ctx, "precondition finding", "kind", f.Kind, "name", f.Name, "branch", f.Branch, "fatal", f.Fatal)
	}

	if !gate.MandatoryOK() {
		if err := m.to(PhaseAborted); err != nil {
			return err
		}
		return gateError(gate)
	}

	if skipped := gate.Skipped(); len(skipped) > 0 && !req.DryRun {
		if !e.notifier.Confirm(confirmMessage(p, gate, skipped)) {
			if err := m.to(PhaseAborted); err != nil {
				return err
			}
			return fmt.Errorf("%w: %d optional branches would be skipped", ErrDeclined, len(skipped))
		}
	}

	if err := m.to(PhaseReady); err != nil {
		return err
	}
	if req.DryRun {
		e.notifier.Inform(previewMessage(p, gate))
		return nil
	}

	if err := m.to(PhaseExecuting); err != nil {
		return err
	}
	x, execErr := e.Execute(store, p.Steps, gate.Decisions)
	report.Execution = *x
	if execErr != nil {
		if err := m.to(PhaseFailed); err != nil {
			return err
		}
		return execErr
	}

	if err := m.to(PhaseCleaning); err != nil {
		return err
	}
	removed, cleanErr := Cleanup(store, x.CreatedIntermediates())
	report.Removed = removed
	if cleanErr != nil {
		if err := m.to(PhaseFailed); err != nil {
			return err
		}
		return cleanErr
	}

	return m.to(PhaseDone)
}

// gateError builds the validation error for a failed mandatory check.
func gateError(g *planner.Gate) error {
	var errs []error
	if len(g.MissingMandatory) > 0 {
		errs = append(errs, fmt.Errorf("%w: missing %s", ErrValidation, quoteAll(g.MissingMandatory)))
	}
	if len(g.Collisions) > 0 {
		errs = append(errs, fmt.Errorf("%w: %w: %s", ErrValidation, ErrConflict, quoteAll(g.Collisions)))
	}
	return errors.Join(errs...)
}

func confirmMessage(p *protocol.Protocol, g *planner.Gate, skipped []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s will skip %d optional group(s):\n", p.DisplayName(), len(skipped))
	for _, branch := range skipped {
		fmt.Fprintf(&b, "  %s: %s\n", branch, g.Decisions[branch])
	}
	b.WriteString("Continue?")
	return b.String()
}

func previewMessage(p *protocol.Protocol, g *planner.Gate) string {
	var create []string
	for _, s := range p.Steps {
		if !s.Intermediate && g.Enabled(s.Branch) {
			create = append(create, s.Output)
		}
	}
	if len(create) == 0 {
		return fmt.Sprintf("Dry run: %s would create no structures.", p.DisplayName())
	}
	return fmt.Sprintf("Dry run: %s would create %s.", p.DisplayName(), quoteAll(create))
}

func outcomeMessage(p *protocol.Protocol, outcome Phase, r *Report, err error) string {
	switch outcome {
	case PhaseDone:
		kept := len(r.Steps) - len(r.Removed)
		return fmt.Sprintf("%s finished: %d structure(s) created, %d intermediate(s) removed.", p.DisplayName(), kept, len(r.Removed))
	case PhaseFailed:
		var stepErr *StepError
		if errors.As(err, &stepErr) {
			return fmt.Sprintf("%s failed at '%s'. Structures created before the failure remain in the structure set.", p.DisplayName(), stepErr.Output)
		}
		return fmt.Sprintf("%s failed: %v", p.DisplayName(), err)
	default:
		return fmt.Sprintf("%s aborted. No structures were changed.", p.DisplayName())
	}
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
