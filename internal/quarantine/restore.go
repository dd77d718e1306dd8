package quarantine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pgnkit/curator/internal/metrics"
	"github.com/pgnkit/curator/internal/models"
)

const reportFilename = "restoration_report.json"

// RestoreSession moves every manifest entry back to its original path. An
// occupied original path is never an error: the occupant is renamed to a
// timestamped backup first. The session directory is removed only when
// restoration had zero failures; otherwise it stays for a retry.
func (m *Manager) RestoreSession(ctx context.Context, sessionID string) (*models.RestorationReport, error) {
	sessionDir := filepath.Join(m.root, sessionID)
	manifest, err := readManifest(sessionDir)
	if err != nil {
		return nil, err
	}

	report := &models.RestorationReport{
		SessionID:  sessionID,
		RestoredAt: time.Now(),
	}

	for _, entry := range manifest.Entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("restore cancelled: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(entry.OriginalPath), 0o755); err != nil {
			report.Failures = append(report.Failures, models.FailedMove{
				OriginalPath: entry.OriginalPath, Error: err.Error(),
			})
			continue
		}

		// Back up whatever occupies the original path. Logged, not an error.
		if _, err := os.Stat(entry.OriginalPath); err == nil {
			backup := fmt.Sprintf("%s.backup_%s", entry.OriginalPath, time.Now().Format("20060102_150405"))
			if err := os.Rename(entry.OriginalPath, backup); err != nil {
				report.Failures = append(report.Failures, models.FailedMove{
					OriginalPath: entry.OriginalPath,
					Error:        fmt.Sprintf("backup occupant: %v", err),
				})
				continue
			}
			report.BackedUp = append(report.BackedUp, entry.OriginalPath)
			m.log.Info("occupant backed up before restore",
				"path", entry.OriginalPath, "backup", backup)
		}

		stop := m.observe(metrics.OpRestore)
		moveErr := moveFile(entry.QuarantinePath, entry.OriginalPath)
		stop()
		if moveErr != nil {
			report.Failures = append(report.Failures, models.FailedMove{
				OriginalPath: entry.OriginalPath, Error: moveErr.Error(),
			})
			continue
		}
		report.Restored++

		if m.store != nil {
			if err := m.store.Transition(ctx, entry.OriginalPath, models.StatusAnalyzed, ""); err != nil {
				m.log.Warn("failed to mark record restored", "path", entry.OriginalPath, "error", err)
			}
		}
	}

	if len(report.Failures) == 0 {
		if err := os.RemoveAll(sessionDir); err != nil {
			m.log.Warn("failed to remove session dir", "session_id", sessionID, "error", err)
		} else {
			report.DirRemoved = true
		}
	} else {
		// Keep the manifest and remaining files for a retry; record the
		// partial outcome next to them.
		if err := writeReport(sessionDir, report); err != nil {
			m.log.Warn("failed to write restoration report", "session_id", sessionID, "error", err)
		}
	}

	m.log.Info("restore complete",
		"session_id", sessionID,
		"restored", report.Restored,
		"backed_up", len(report.BackedUp),
		"failed", len(report.Failures),
		"dir_removed", report.DirRemoved)
	return report, nil
}
