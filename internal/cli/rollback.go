package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/organize"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback <journal-file>",
	Short: "Undo an executed organize run from its rollback journal",
	Long: `Rollback replays a run's rename journal in reverse, moving every file
back to its pre-run name. A file that cannot be moved back is reported
and the replay continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runRollback,
}

func runRollback(cmd *cobra.Command, args []string) error {
	result, err := organize.ReplayJournal(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Reversed %d renames\n", result.Reversed)
	if len(result.Errors) > 0 {
		fmt.Printf("\nFailures (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}
