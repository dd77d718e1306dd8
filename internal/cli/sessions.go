package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/quarantine"
)

var sessionsPurgeOlderThan int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List organize and quarantine sessions",
	Long: `Sessions lists all organize runs recorded in the store and every
quarantine session found under the quarantine root.

With --purge-older-than N, quarantine sessions whose manifest is older
than N days are deleted.`,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsPurgeOlderThan, "purge-older-than", 0, "purge quarantine sessions older than N days")
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	manager := quarantine.NewManager(cfg.QuarantineRoot, st, logger)

	if sessionsPurgeOlderThan > 0 {
		purged, err := manager.AutoPurge(sessionsPurgeOlderThan)
		if err != nil {
			return err
		}
		if len(purged) == 0 {
			fmt.Printf("No quarantine sessions older than %d days\n", sessionsPurgeOlderThan)
		} else {
			fmt.Printf("Purged %d quarantine sessions:\n", len(purged))
			for _, id := range purged {
				fmt.Printf("  - %s\n", id)
			}
		}
		return nil
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No organize sessions.")
	} else {
		fmt.Printf("Organize sessions (%d):\n\n", len(sessions))
		fmt.Printf("  %-10s %-12s %-10s %-8s %s\n", "ID", "STATUS", "PROCESSED", "FAILED", "STARTED")
		for _, session := range sessions {
			fmt.Printf("  %-10s %-12s %d/%-8d %-8d %s\n",
				session.ID, session.Status,
				session.Processed, session.TotalFiles,
				session.Failed,
				session.StartedAt.Format("2006-01-02 15:04"))
		}
	}

	listing, err := manager.ListSessions()
	if err != nil {
		return err
	}
	if len(listing.Sessions) > 0 {
		fmt.Printf("\nQuarantine sessions (%d):\n\n", len(listing.Sessions))
		fmt.Printf("  %-10s %-8s %-12s %s\n", "ID", "FILES", "SIZE", "CREATED")
		for _, manifest := range listing.Sessions {
			fmt.Printf("  %-10s %-8d %-12d %s\n",
				manifest.ID, manifest.TotalFiles, manifest.TotalSize,
				manifest.CreationDate.Format("2006-01-02 15:04"))
		}
	}
	for _, id := range listing.Corrupted {
		fmt.Printf("\nWarning: session %s has an unreadable manifest\n", id)
	}
	return nil
}
