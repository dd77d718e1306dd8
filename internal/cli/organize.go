package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pgnkit/curator/internal/analyze"
	"github.com/pgnkit/curator/internal/naming"
	"github.com/pgnkit/curator/internal/organize"
)

var (
	organizeExecute   bool
	organizeRecursive bool
	organizeWorkers   int
	organizeBatchSize int
	organizeResume    string
	organizeProgress  bool
)

var organizeCmd = &cobra.Command{
	Use:   "organize <path>",
	Short: "Score and rename chess documents under a directory",
	Long: `Organize discovers chess documents under the given directory, scores
each one's educational value, and renames it to a descriptive filename.

Without --execute this is a dry run: records are scored and staged but no
file is touched. With --execute every rename is journaled so the run can
be rolled back with 'curator rollback'.

Examples:
  curator organize ~/chess/library
  curator organize ~/chess/library --execute --workers 4
  curator organize --resume 1a2b3c4d`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().BoolVar(&organizeExecute, "execute", false, "perform real renames (default is a dry run)")
	organizeCmd.Flags().BoolVarP(&organizeRecursive, "recursive", "r", false, "descend into subdirectories")
	organizeCmd.Flags().IntVar(&organizeWorkers, "workers", 0, "analyzer pool size (default from config)")
	organizeCmd.Flags().IntVar(&organizeBatchSize, "batch-size", 0, "files per checkpoint batch (default from config)")
	organizeCmd.Flags().StringVar(&organizeResume, "resume", "", "resume an interrupted session by id")
	organizeCmd.Flags().BoolVar(&organizeProgress, "progress", false, "show a live progress display")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	if organizeResume == "" && len(args) == 0 {
		return fmt.Errorf("a path is required unless --resume is given")
	}

	workers := organizeWorkers
	if workers <= 0 {
		workers = cfg.Workers
	}
	batchSize := organizeBatchSize
	if batchSize <= 0 {
		batchSize = cfg.BatchSize
	}
	opts := organize.Options{
		Execute:   organizeExecute,
		Recursive: organizeRecursive,
		Workers:   workers,
		BatchSize: batchSize,
	}

	orch := organize.NewOrchestrator(st, &analyze.Heuristic{}, &naming.SlugNamer{}, cfg.JournalDir, logger, collector)

	run := func(ctx context.Context) (*organize.Report, error) {
		if organizeResume != "" {
			return orch.Resume(ctx, organizeResume)
		}
		return orch.Run(ctx, args[0], opts)
	}

	if organizeProgress {
		report, err := runWithProgress(st, run)
		if report != nil {
			printReport(report)
		}
		return err
	}

	// Ctrl+C interrupts at the next batch boundary; the session stays
	// resumable.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := run(ctx)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		if ctx.Err() != nil && report != nil {
			fmt.Printf("\nInterrupted. Resume with: curator organize --resume %s\n", report.SessionID)
			return nil
		}
		return err
	}
	return nil
}

func printReport(report *organize.Report) {
	fmt.Println(report.Summary())
	if len(report.TierCounts) > 0 {
		fmt.Println("\nTier distribution:")
		for _, tier := range tierOrder {
			if count := report.TierCounts[tier]; count > 0 {
				fmt.Printf("  %-16s %d\n", tier, count)
			}
		}
	}
	if report.JournalPath != "" {
		fmt.Printf("\nRollback journal: %s\n", report.JournalPath)
	}
	if len(report.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
}
