package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/rapidstruct/internal/engine"
	"github.com/danieljhkim/rapidstruct/internal/planner"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
)

var (
	validateProtocol     string
	validateProtocolFile string
)

var validateCmd = &cobra.Command{
	Use:   "validate <structure-set>",
	Short: "Check a structure set against a protocol without changing it",
	Long: `Run the precondition checks of a protocol and list every finding.

Exits with an error when a mandatory input is missing or a mandatory output
already exists. Skipped optional groups are reported but are not errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := loadPaths()
		if err != nil {
			return err
		}

		p, err := loadProtocol(paths, validateProtocol, validateProtocolFile)
		if err != nil {
			return err
		}

		set, err := newStructureFiles().Load(args[0])
		if err != nil {
			return err
		}

		gate := planner.Validate(set.Structures, p)

		var gateErr error
		if !gate.MandatoryOK() {
			gateErr = fmt.Errorf("%w: %s", engine.ErrValidation,
				formatCount(len(gate.FatalFindings()), "mandatory problem", "mandatory problems"))
		}

		if jsonOutput {
			if err := outputJSON(cmd.OutOrStdout(), gate); err != nil {
				return err
			}
			return gateErr
		}

		printGate(newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()), p, gate)
		return gateErr
	},
}

func printGate(out *printer, p *protocol.Protocol, gate *planner.Gate) {
	out.Section(fmt.Sprintf("Preconditions: %s", p.DisplayName()))

	if len(gate.Findings) == 0 {
		out.Success("All inputs present, no outputs exist yet")
	}
	for _, f := range gate.Findings {
		if f.Fatal {
			out.Error(f.Message)
		} else {
			out.Warning(f.Message)
		}
	}

	if len(gate.Branches) > 0 {
		out.Subsection("Optional groups:")
		rows := make([][]string, 0, len(gate.Branches))
		for _, b := range gate.Branches {
			rows = append(rows, []string{b, gate.Decisions[b].String()})
		}
		out.Table([]string{"GROUP", "DECISION"}, rows)
	}

	if gate.MandatoryOK() {
		out.Success("Ready to run")
	}
}

func init() {
	validateCmd.Flags().StringVarP(&validateProtocol, "protocol", "p", protocol.DefaultName, "Protocol to check against")
	validateCmd.Flags().StringVar(&validateProtocolFile, "protocol-file", "", "Check against a protocol from a YAML file")
	validateCmd.MarkFlagsMutuallyExclusive("protocol", "protocol-file")
}
