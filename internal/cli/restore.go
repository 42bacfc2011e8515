package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreForce bool

var restoreCmd = &cobra.Command{
	Use:   "restore <run-id> <structure-set>",
	Short: "Put back the structure set a run overwrote",
	Long: `Write the snapshot taken before a run saved its results over
<structure-set>. Structures the run created, and anything changed since,
are lost.

The snapshot is checked against the digest recorded when it was taken, and
a modified snapshot is refused unless --force is given.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := loadPaths()
		if err != nil {
			return err
		}

		runID, target := args[0], args[1]
		snapshots := newSnapshots(paths)
		if !restoreForce {
			if err := snapshots.Verify(runID); err != nil {
				return fmt.Errorf("%w (use --force to restore anyway)", err)
			}
		}
		if err := snapshots.Restore(runID, target); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cmd.OutOrStdout(), map[string]string{"runId": runID, "restored": target})
		}
		newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(fmt.Sprintf("Restored %s from run %s", target, runID))
		return nil
	},
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false, "Restore even if the snapshot fails its digest check")
}
