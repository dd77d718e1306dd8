package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/models"
	"github.com/pgnkit/curator/internal/quarantine"
	"github.com/pgnkit/curator/internal/store"
)

var quarantineExecute bool

var quarantineCmd = &cobra.Command{
	Use:   "quarantine <threshold>",
	Short: "Move files scoring below a threshold into quarantine",
	Long: `Quarantine selects every record with an EVS score strictly below the
threshold and moves its file into a new quarantine session directory with
a manifest, so the whole batch can be restored later.

Without --execute the candidates are only listed.

Examples:
  curator quarantine 70
  curator quarantine 65 --execute`,
	Args: cobra.ExactArgs(1),
	RunE: runQuarantine,
}

func init() {
	quarantineCmd.Flags().BoolVar(&quarantineExecute, "execute", false, "perform the moves (default lists candidates)")
}

func runQuarantine(cmd *cobra.Command, args []string) error {
	threshold, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid threshold %q: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	records, err := st.Query(ctx, store.QueryFilter{
		MaxEVS:  threshold,
		OrderBy: "evs_score ASC",
	})
	if err != nil {
		return err
	}

	// Only records the state machine allows into quarantine.
	candidates := records[:0]
	for _, record := range records {
		if models.CanTransition(record.Status, models.StatusQuarantined) {
			candidates = append(candidates, record)
		}
	}

	if len(candidates) == 0 {
		fmt.Printf("No records below EVS %.1f\n", threshold)
		return nil
	}

	if !quarantineExecute {
		fmt.Printf("%d candidates below EVS %.1f (dry run, use --execute to move):\n\n", len(candidates), threshold)
		for _, record := range candidates {
			fmt.Printf("  %6.1f  %-16s %s\n", record.EVSScore, record.QualityTier, record.OriginalPath)
		}
		return nil
	}

	manager := quarantine.NewManager(cfg.QuarantineRoot, st, logger).WithMetrics(collector)
	sessionID, err := manager.CreateSession(threshold)
	if err != nil {
		return err
	}

	manifest, err := manager.MoveToQuarantine(ctx, candidates, sessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Quarantine session %s: %d files moved (%d bytes)\n",
		manifest.ID, manifest.TotalFiles, manifest.TotalSize)
	if len(manifest.FailedMoves) > 0 {
		fmt.Printf("\nFailed moves (%d):\n", len(manifest.FailedMoves))
		for _, failure := range manifest.FailedMoves {
			fmt.Printf("  - %s: %s\n", failure.OriginalPath, failure.Error)
		}
	}
	fmt.Printf("\nRestore with: curator restore %s\n", manifest.ID)
	return nil
}
