// Package quarantine relocates low-score files under a quarantine root
// with a manifest that makes every move reversible.
package quarantine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pgnkit/curator/internal/metrics"
	"github.com/pgnkit/curator/internal/models"
	"github.com/pgnkit/curator/internal/store"
)

// ErrManifestNotFound indicates the session has no readable manifest.
var ErrManifestNotFound = errors.New("quarantine manifest not found")

const manifestFilename = "manifest.json"

// collectionSegments are path components recognized as library collection
// roots. A quarantined file keeps its layout from the first recognized
// segment onward so the quarantine tree stays navigable.
var collectionSegments = map[string]struct{}{
	"books":       {},
	"games":       {},
	"openings":    {},
	"endgames":    {},
	"middlegame":  {},
	"tactics":     {},
	"studies":     {},
	"players":     {},
	"tournaments": {},
	"collections": {},
}

// SetCollectionSegments replaces the recognized collection roots. Called
// once at startup when the configuration overrides the built-in set.
func SetCollectionSegments(names []string) {
	if len(names) == 0 {
		return
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = struct{}{}
	}
	collectionSegments = set
}

// Manager moves files in and out of the quarantine root. Moves within one
// session are sequential; independent sessions may run concurrently.
type Manager struct {
	root      string
	store     *store.Store
	log       *slog.Logger
	collector *metrics.Collector
}

// NewManager creates a quarantine manager rooted at dir. The store may be
// nil when record statuses are tracked elsewhere (tests, ad hoc runs).
func NewManager(root string, st *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:  root,
		store: st,
		log:   logger,
	}
}

// WithMetrics attaches an operation timing collector.
func (m *Manager) WithMetrics(c *metrics.Collector) *Manager {
	m.collector = c
	return m
}

func (m *Manager) observe(op string) func() {
	if m.collector == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.collector.Record(op, time.Since(start)) }
}

// CreateSession allocates a new quarantine session directory and returns
// its ID. The threshold is persisted in the manifest right away so a later
// process can finish the session.
func (m *Manager) CreateSession(threshold float64) (string, error) {
	id := uuid.New().String()[:8]
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	manifest := &models.QuarantineManifest{
		ID:           id,
		CreationDate: time.Now(),
		Threshold:    threshold,
	}
	if err := writeManifest(dir, manifest); err != nil {
		return "", err
	}

	m.log.Info("quarantine session created", "session_id", id, "threshold", threshold)
	return id, nil
}

// MoveToQuarantine relocates the given records' files into the session
// directory. A single file's failure is recorded and processing
// continues; the manifest covering the successes and the failure list is
// written once, atomically, after the whole batch. Cancellation ends the
// batch early but still writes the manifest for the files already moved.
func (m *Manager) MoveToQuarantine(ctx context.Context, records []models.FileRecord, sessionID string) (*models.QuarantineManifest, error) {
	sessionDir := filepath.Join(m.root, sessionID)
	manifest, err := readManifest(sessionDir)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	var cancelErr error
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			cancelErr = err
			break
		}

		relPath := relativePathFor(record.OriginalPath)
		target := filepath.Join(sessionDir, relPath)

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			manifest.FailedMoves = append(manifest.FailedMoves, models.FailedMove{
				OriginalPath: record.OriginalPath, Error: err.Error(),
			})
			continue
		}

		info, err := os.Stat(record.OriginalPath)
		if err != nil {
			manifest.FailedMoves = append(manifest.FailedMoves, models.FailedMove{
				OriginalPath: record.OriginalPath, Error: err.Error(),
			})
			continue
		}

		stop := m.observe(metrics.OpQuarantineMove)
		moveErr := moveFile(record.OriginalPath, target)
		stop()
		if moveErr != nil {
			m.log.Warn("quarantine move failed", "path", record.OriginalPath, "error", moveErr)
			manifest.FailedMoves = append(manifest.FailedMoves, models.FailedMove{
				OriginalPath: record.OriginalPath, Error: moveErr.Error(),
			})
			continue
		}

		manifest.Entries = append(manifest.Entries, models.ManifestEntry{
			OriginalPath:   record.OriginalPath,
			QuarantinePath: target,
			RelativePath:   relPath,
			Size:           info.Size(),
			Hash:           record.ContentHash,
			MovedDate:      time.Now(),
		})
		manifest.TotalFiles++
		manifest.TotalSize += info.Size()

		if m.store != nil {
			if err := m.store.Transition(ctx, record.OriginalPath, models.StatusQuarantined, ""); err != nil {
				m.log.Warn("failed to mark record quarantined", "path", record.OriginalPath, "error", err)
			}
		}
	}

	if err := writeManifest(sessionDir, manifest); err != nil {
		return nil, err
	}

	if cancelErr != nil {
		m.log.Warn("quarantine session cancelled",
			"session_id", sessionID,
			"moved", manifest.TotalFiles,
			"remaining", len(records)-manifest.TotalFiles-len(manifest.FailedMoves))
		return manifest, fmt.Errorf("quarantine cancelled: %w", cancelErr)
	}

	m.log.Info("quarantine session complete",
		"session_id", sessionID,
		"moved", manifest.TotalFiles,
		"failed", len(manifest.FailedMoves),
		"total_size", manifest.TotalSize)
	return manifest, nil
}

// relativePathFor derives the layout of a file under the quarantine root:
// the original layout from the first recognized collection segment, else a
// short hash of the parent directory. The heuristic is deliberately ad
// hoc; it mirrors how the library directories are conventionally named.
func relativePathFor(originalPath string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(originalPath)), "/")
	for i, part := range parts[:len(parts)-1] {
		if _, ok := collectionSegments[strings.ToLower(part)]; ok {
			return filepath.Join(parts[i:]...)
		}
	}

	parent := filepath.Dir(originalPath)
	sum := sha256.Sum256([]byte(parent))
	return filepath.Join(hex.EncodeToString(sum[:])[:8], filepath.Base(originalPath))
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close target: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}
