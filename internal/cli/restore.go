package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/quarantine"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <session-id>",
	Short: "Restore a quarantine session's files to their original paths",
	Long: `Restore moves every file of a quarantine session back to where it came
from. A file that now occupies an original path is backed up first, never
overwritten. The session directory is removed only when every file was
restored; otherwise it stays for a retry.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	manager := quarantine.NewManager(cfg.QuarantineRoot, st, logger).WithMetrics(collector)
	report, err := manager.RestoreSession(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Restored %d files from session %s\n", report.Restored, report.SessionID)
	if len(report.BackedUp) > 0 {
		fmt.Printf("\nOccupants backed up (%d):\n", len(report.BackedUp))
		for _, path := range report.BackedUp {
			fmt.Printf("  - %s\n", path)
		}
	}
	if len(report.Failures) > 0 {
		fmt.Printf("\nFailures (%d), session kept for retry:\n", len(report.Failures))
		for _, failure := range report.Failures {
			fmt.Printf("  - %s: %s\n", failure.OriginalPath, failure.Error)
		}
		return nil
	}
	if report.DirRemoved {
		fmt.Println("Session directory removed.")
	}
	return nil
}
