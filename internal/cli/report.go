package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/rapidstruct/internal/notify"
)

var reportMessages bool

var reportCmd = &cobra.Command{
	Use:   "report <run-id>",
	Short: "Show the report of a previous run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := loadPaths()
		if err != nil {
			return err
		}

		r, err := newEngine(paths, notify.Discard).LoadReport(args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), r)
		}

		out := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr())
		out.Section(fmt.Sprintf("Run %s", r.RunID))
		out.LabelValue("Protocol", r.Protocol)
		out.LabelValue("Patient", r.PatientID)
		out.LabelValue("Image", r.ImageID)
		out.Outcome(r.Outcome)
		out.LabelValue("Started", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
		out.LabelValue("Duration", r.FinishedAt.Sub(r.StartedAt).String())
		if r.Error != "" {
			out.LabelValueWithColor("Error", r.Error, errorColor)
		}

		if len(r.Steps) > 0 {
			out.Info("")
			rows := make([][]string, 0, len(r.Steps))
			for _, s := range r.Steps {
				inputs := make([]string, 0, len(s.Inputs))
				for _, in := range s.Inputs {
					inputs = append(inputs, fmt.Sprintf("%s=%.2f", in.Name, in.Volume))
				}
				rows = append(rows, []string{s.Output, string(s.Operation), strings.Join(inputs, " "), fmt.Sprintf("%.2f", s.OutputVolume), s.Promoted})
			}
			out.Table([]string{"OUTPUT", "OPERATION", "INPUTS (cm³)", "VOLUME (cm³)", "PROMOTED"}, rows)
		}

		if len(r.Skipped) > 0 {
			out.Subsection("Skipped:")
			items := make([]string, 0, len(r.Skipped))
			for _, s := range r.Skipped {
				items = append(items, fmt.Sprintf("%s (%s)", s.Output, s.Decision))
			}
			out.List(items, 2)
		}
		if len(r.Removed) > 0 {
			out.LabelValue("Intermediates removed", strings.Join(r.Removed, ", "))
		}

		if reportMessages && len(r.Messages) > 0 {
			out.Subsection("Messages:")
			items := make([]string, 0, len(r.Messages))
			for _, m := range r.Messages {
				items = append(items, strings.ReplaceAll(m, "\n", "\n    "))
			}
			out.List(items, 2)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportMessages, "messages", false, "Also show the messages shown to the operator during the run")
}
