package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/rapidstruct/internal/protocol"
)

var protocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Inspect derivation protocols",
	Long: `List and describe the derivation protocols available to run.

Built-in protocols can be shadowed by placing a YAML file with the same name
in the protocols directory under the rapidstruct root.`,
}

var protocolLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available protocols",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := loadPaths()
		if err != nil {
			return err
		}

		summaries, listErr := newRegistry(paths).List()
		if jsonOutput {
			if err := outputJSON(cmd.OutOrStdout(), summaries); err != nil {
				return err
			}
			return listErr
		}

		out := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
		if len(summaries) == 0 {
			out.EmptyState("No protocols found")
			return listErr
		}

		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			source := "user"
			if s.Builtin {
				source = "builtin"
			}
			rows = append(rows, []string{s.Name, strconv.Itoa(s.Steps), source, s.Title})
		}
		out.Table([]string{"NAME", "STEPS", "SOURCE", "TITLE"}, rows)
		return listErr
	},
}

var protocolDescribeCmd = &cobra.Command{
	Use:   "describe <name>",
	Short: "Show a protocol's inputs and steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := loadPaths()
		if err != nil {
			return err
		}

		p, err := newRegistry(paths).Get(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), p)
		}

		out := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
		out.Section(p.DisplayName())
		if p.Description != "" {
			out.Info(p.Description)
			out.Info("")
		}
		out.LabelValue("Name", p.Name)
		out.LabelValue("Inputs", strings.Join(p.Inputs, ", "))
		if len(p.OptionalInputs) > 0 {
			out.LabelValue("Optional inputs", strings.Join(p.OptionalInputs, ", "))
		}
		out.LabelValue("Kept", strings.Join(p.Terminals(), ", "))
		out.Info("")

		rows := make([][]string, 0, len(p.Steps))
		for i, s := range p.Steps {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				s.Output,
				describeOperation(s),
				string(s.Category),
				s.Branch,
				keptLabel(s),
			})
		}
		out.Table([]string{"#", "OUTPUT", "OPERATION", "CATEGORY", "GROUP", "KEPT"}, rows)
		return nil
	},
}

func describeOperation(s protocol.Step) string {
	if s.Operation == protocol.OpMargin {
		return fmt.Sprintf("margin(%s, %gmm)", s.Operands[0], s.MarginMM())
	}
	return fmt.Sprintf("%s(%s)", s.Operation, strings.Join(s.Operands, ", "))
}

func keptLabel(s protocol.Step) string {
	if s.Intermediate {
		return "no"
	}
	return "yes"
}

func init() {
	protocolCmd.AddCommand(protocolLsCmd)
	protocolCmd.AddCommand(protocolDescribeCmd)
}
