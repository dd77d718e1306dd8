package quarantine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pgnkit/curator/internal/models"
)

// ListResult enumerates the sessions under the quarantine root. Corrupted
// manifests are reported alongside, never fatal to the listing.
type ListResult struct {
	Sessions  []models.QuarantineManifest
	Corrupted []string // session ids with unreadable manifests
}

// ListSessions reads every session manifest under the root.
func (m *Manager) ListSessions() (*ListResult, error) {
	entries, err := os.ReadDir(m.root)
	if errors.Is(err, fs.ErrNotExist) {
		return &ListResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read quarantine root: %w", err)
	}

	result := &ListResult{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := readManifest(filepath.Join(m.root, entry.Name()))
		if err != nil {
			m.log.Warn("skipping unreadable manifest", "session_id", entry.Name(), "error", err)
			result.Corrupted = append(result.Corrupted, entry.Name())
			continue
		}
		result.Sessions = append(result.Sessions, *manifest)
	}
	return result, nil
}

// AutoPurge deletes session directories whose manifest is older than
// maxAgeDays. Returns the purged session ids.
func (m *Manager) AutoPurge(maxAgeDays int) ([]string, error) {
	listing, err := m.ListSessions()
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var purged []string
	for _, manifest := range listing.Sessions {
		if manifest.CreationDate.After(cutoff) {
			continue
		}
		dir := filepath.Join(m.root, manifest.ID)
		if err := os.RemoveAll(dir); err != nil {
			m.log.Warn("failed to purge session", "session_id", manifest.ID, "error", err)
			continue
		}
		purged = append(purged, manifest.ID)
		m.log.Info("purged quarantine session", "session_id", manifest.ID, "age_days", int(time.Since(manifest.CreationDate).Hours()/24))
	}
	return purged, nil
}

// writeManifest writes the manifest once, atomically: temp file in the
// session dir, then rename into place.
func writeManifest(sessionDir string, manifest *models.QuarantineManifest) error {
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return atomicWrite(filepath.Join(sessionDir, manifestFilename), raw)
}

// readManifest loads and validates a session manifest.
func readManifest(sessionDir string) (*models.QuarantineManifest, error) {
	raw, err := os.ReadFile(filepath.Join(sessionDir, manifestFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", sessionDir, ErrManifestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest models.QuarantineManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.ID == "" {
		return nil, fmt.Errorf("parse manifest: missing session id")
	}
	return &manifest, nil
}

func writeReport(sessionDir string, report *models.RestorationReport) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode restoration report: %w", err)
	}
	return atomicWrite(filepath.Join(sessionDir, reportFilename), raw)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
