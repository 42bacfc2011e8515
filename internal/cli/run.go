package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/rapidstruct/internal/engine"
	"github.com/danieljhkim/rapidstruct/internal/logging"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
)

var (
	runProtocol     string
	runProtocolFile string
	runOut          string
	runYes          bool
	runDryRun       bool
	runNoReport     bool
)

// runOutput is the --json form of a run.
type runOutput struct {
	*engine.RunResult

	// SavedTo is the structure set written after the run
	SavedTo string `json:"savedTo,omitempty"`

	// OutputDigest is the SHA-256 of the saved structure set
	OutputDigest string `json:"outputDigest,omitempty"`

	// Snapshot is the copy of the overwritten document, if there was one
	Snapshot string `json:"snapshot,omitempty"`

	// SnapshotDigest is the SHA-256 recorded for Snapshot
	SnapshotDigest string `json:"snapshotDigest,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run <structure-set>",
	Short: "Derive the protocol's structures in a structure set",
	Long: `Run a derivation protocol against a structure set document.

Every mandatory input must exist and no mandatory output may exist yet, or
the run aborts without changing anything. Optional groups whose inputs are
missing, or whose outputs already exist, are skipped after confirmation.

The structure set is saved in place unless --out is given. It is saved after
a failed run too, since structures created before the failure remain. The
document being overwritten is kept as a snapshot; see 'rapidstruct restore'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New("cli")
		paths, err := loadPaths()
		if err != nil {
			return err
		}

		p, err := loadProtocol(paths, runProtocol, runProtocolFile)
		if err != nil {
			return err
		}

		files := newStructureFiles()
		set, err := files.Load(args[0])
		if err != nil {
			return err
		}

		out := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
		// keep stdout clean for the JSON document
		messages := out
		if jsonOutput {
			messages = newPrinter(cmd.ErrOrStderr(), cmd.ErrOrStderr())
		}
		if !jsonOutput {
			out.Section(fmt.Sprintf("%s: %s / %s", p.DisplayName(), set.Patient, set.Image))
		}

		eng := newEngine(paths, newConsoleNotifier(messages, cmd.InOrStdin(), runYes))
		result, runErr := eng.Run(cmd.Context(), &engine.RunRequest{
			Context:     set.Context(),
			Protocol:    p,
			DryRun:      runDryRun,
			WriteReport: !runNoReport,
		})
		if result == nil {
			return runErr
		}

		output := runOutput{RunResult: result}
		if result.Outcome.Succeeded() || result.Outcome == engine.PhaseFailed {
			target := runOut
			if target == "" {
				target = args[0]
			}
			snapshots := newSnapshots(paths)
			snapDigest, err := snapshots.Take(result.RunID, target)
			if err != nil {
				return fmt.Errorf("run %s: %w", result.Outcome, err)
			}
			if snapDigest != "" {
				output.Snapshot = snapshots.Path(result.RunID)
				output.SnapshotDigest = snapDigest
			}
			digest, err := files.Save(target, set)
			if err != nil {
				return fmt.Errorf("run %s: %w", result.Outcome, err)
			}
			output.SavedTo = target
			output.OutputDigest = digest
			log.Info("structure set saved", "run_id", result.RunID, "path", target)
		}

		if jsonOutput {
			if err := outputJSON(cmd.OutOrStdout(), output); err != nil {
				return err
			}
			return runErr
		}

		printRunSummary(out, p, output)
		return runErr
	},
}

func printRunSummary(out *printer, p *protocol.Protocol, o runOutput) {
	r := o.Report

	out.Section("Run Summary")
	out.LabelValue("Run ID", o.RunID)
	out.LabelValue("Protocol", p.Name)
	out.Outcome(o.Outcome)

	var kept []string
	for _, s := range r.Steps {
		if !s.Intermediate {
			kept = append(kept, fmt.Sprintf("%s (%.2f cm³)", s.Output, s.OutputVolume))
		}
	}
	if len(kept) > 0 {
		out.Subsection(fmt.Sprintf("Created %s:", formatCount(len(kept), "structure", "structures")))
		out.List(kept, 2)
	}

	if len(r.Skipped) > 0 {
		var skipped []string
		for _, s := range r.Skipped {
			skipped = append(skipped, fmt.Sprintf("%s (%s)", s.Output, s.Decision))
		}
		out.Subsection(fmt.Sprintf("Skipped %s:", formatCount(len(skipped), "structure", "structures")))
		out.List(skipped, 2)
	}

	if len(r.Removed) > 0 {
		out.LabelValue("Intermediates removed", strings.Join(r.Removed, ", "))
	}
	if o.SavedTo != "" {
		out.LabelValue("Saved to", o.SavedTo)
	}
	if o.Snapshot != "" {
		out.LabelValue("Previous version", o.Snapshot)
	}
	if o.ReportPath != "" {
		out.LabelValue("Report", o.ReportPath)
	}
}

func init() {
	runCmd.Flags().StringVarP(&runProtocol, "protocol", "p", protocol.DefaultName, "Protocol to run")
	runCmd.Flags().StringVar(&runProtocolFile, "protocol-file", "", "Run a protocol from a YAML file")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Write the structure set here instead of in place")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "Continue without asking when optional groups are skipped")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Check preconditions and show what would be created")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "Do not write a run report")
	runCmd.MarkFlagsMutuallyExclusive("protocol", "protocol-file")
}
