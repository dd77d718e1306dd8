package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pgnkit/curator/internal/metrics"
	"github.com/pgnkit/curator/internal/models"
)

// execute performs the final phase over the named records: a dry run
// stages them, a real run renames with a pre-flight existence check,
// journals each success, then validates the result. Renames are
// sequential; the journal order is the exact rename order.
func (o *Orchestrator) execute(ctx context.Context, sessionID string, named []string, execute bool, report *Report) error {
	if len(named) == 0 {
		return nil
	}

	if !execute {
		for _, path := range named {
			if err := o.store.Transition(ctx, path, models.StatusStaged, ""); err != nil {
				report.AddError(path, err)
				continue
			}
			report.Staged++
		}
		o.log.Info("dry run staged", "session_id", sessionID, "staged", report.Staged)
		return nil
	}

	journal, err := OpenJournal(o.journalDir, sessionID)
	if err != nil {
		return err
	}
	defer journal.Close()
	report.JournalPath = journal.Path()

	for _, path := range named {
		record, err := o.store.Get(ctx, path)
		if err != nil {
			report.AddError(path, err)
			continue
		}
		target := filepath.Join(record.NewDirectory, record.NewFilename)

		// Pre-flight: an occupied target is a skip, not an error.
		if _, err := os.Stat(target); err == nil {
			if err := o.store.Transition(ctx, path, models.StatusSkipped, ""); err != nil {
				report.AddError(path, err)
				continue
			}
			report.Skipped++
			o.log.Debug("target exists, skipping", "path", path, "target", target)
			continue
		}

		stop := o.observe(metrics.OpRename)
		renameErr := os.Rename(path, target)
		stop()
		if renameErr != nil {
			report.Failed++
			report.AddError(path, fmt.Errorf("rename: %w", renameErr))
			if err := o.store.Transition(ctx, path, models.StatusFailed, renameErr.Error()); err != nil {
				report.AddError(path, err)
			}
			continue
		}

		// The journal entry goes in only now, after the OS reported
		// success.
		if err := journal.Append(models.JournalEntry{NewPath: target, OriginalPath: path}); err != nil {
			return fmt.Errorf("journal became unwritable: %w", err)
		}

		if err := validateMove(target, record.Size); err != nil {
			report.Failed++
			report.AddError(path, err)
			if terr := o.store.Transition(ctx, path, models.StatusFailed, err.Error()); terr != nil {
				report.AddError(path, terr)
			}
			continue
		}

		if err := o.store.Transition(ctx, path, models.StatusRenamed, ""); err != nil {
			report.AddError(path, err)
			continue
		}
		report.Renamed++
	}

	return nil
}

// validateMove confirms the renamed file exists with the expected size.
func validateMove(target string, expectedSize int64) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("post-rename validation: %w", err)
	}
	if info.Size() != expectedSize {
		return fmt.Errorf("post-rename validation: size mismatch at %s: got %d, want %d",
			target, info.Size(), expectedSize)
	}
	return nil
}
