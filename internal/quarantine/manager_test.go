package quarantine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnkit/curator/internal/models"
)

func testManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "quarantine")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return NewManager(root, nil, logger), root
}

func writeTestFile(t *testing.T, path string, size int) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data := []byte(strings.Repeat("x", size))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hashFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestManifestTotals(t *testing.T) {
	m, _ := testManager(t)
	lib := t.TempDir()

	var records []models.FileRecord
	for i, size := range []int{1000, 2000, 3000} {
		path := filepath.Join(lib, "games", "dump", "weak"+string(rune('a'+i))+".pgn")
		hash := writeTestFile(t, path, size)
		records = append(records, models.FileRecord{OriginalPath: path, ContentHash: hash, EVSScore: 40})
	}

	id, err := m.CreateSession(70)
	require.NoError(t, err)

	manifest, err := m.MoveToQuarantine(context.Background(), records, id)
	require.NoError(t, err)
	assert.Equal(t, 3, manifest.TotalFiles)
	assert.Equal(t, int64(6000), manifest.TotalSize)
	assert.Equal(t, 70.0, manifest.Threshold)
	assert.Empty(t, manifest.FailedMoves)
}

func TestQuarantineRoundTrip(t *testing.T) {
	m, root := testManager(t)
	lib := t.TempDir()

	paths := []string{
		filepath.Join(lib, "games", "blitz", "one.pgn"),
		filepath.Join(lib, "games", "blitz", "two.pgn"),
		filepath.Join(lib, "misc", "three.pgn"),
	}
	hashes := make(map[string]string, len(paths))
	sizes := make(map[string]int64, len(paths))
	var records []models.FileRecord
	for i, path := range paths {
		hashes[path] = writeTestFile(t, path, 500+i*100)
		info, err := os.Stat(path)
		require.NoError(t, err)
		sizes[path] = info.Size()
		records = append(records, models.FileRecord{OriginalPath: path, ContentHash: hashes[path], EVSScore: 30})
	}

	id, err := m.CreateSession(70)
	require.NoError(t, err)

	manifest, err := m.MoveToQuarantine(context.Background(), records, id)
	require.NoError(t, err)
	require.Equal(t, len(paths), manifest.TotalFiles)

	// Originals are gone, quarantined copies exist.
	for _, path := range paths {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "%s should be gone", path)
	}
	for _, entry := range manifest.Entries {
		_, err := os.Stat(entry.QuarantinePath)
		assert.NoError(t, err)
	}

	report, err := m.RestoreSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, len(paths), report.Restored)
	assert.Empty(t, report.Failures)
	assert.True(t, report.DirRemoved)

	// Every file is back with identical size and content hash.
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, sizes[path], info.Size())
		assert.Equal(t, hashes[path], hashFile(t, path))
	}

	// Zero failures: the session directory is gone.
	_, err = os.Stat(filepath.Join(root, id))
	assert.True(t, os.IsNotExist(err))
}

func TestMovePartialFailure(t *testing.T) {
	m, _ := testManager(t)
	lib := t.TempDir()

	good := filepath.Join(lib, "games", "good.pgn")
	hash := writeTestFile(t, good, 100)
	records := []models.FileRecord{
		{OriginalPath: filepath.Join(lib, "games", "missing.pgn"), EVSScore: 10},
		{OriginalPath: good, ContentHash: hash, EVSScore: 20},
	}

	id, err := m.CreateSession(70)
	require.NoError(t, err)

	manifest, err := m.MoveToQuarantine(context.Background(), records, id)
	require.NoError(t, err)

	// The missing file is captured; the good file still moved.
	require.Len(t, manifest.FailedMoves, 1)
	assert.Contains(t, manifest.FailedMoves[0].OriginalPath, "missing.pgn")
	assert.Equal(t, 1, manifest.TotalFiles)
}

// stallingContext reports cancellation once a fixed number of Err checks
// have been spent.
type stallingContext struct {
	context.Context
	mu   sync.Mutex
	left int
}

func (c *stallingContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.left > 0 {
		c.left--
		return nil
	}
	return context.Canceled
}

func TestCancelledMoveStillWritesManifest(t *testing.T) {
	m, root := testManager(t)
	lib := t.TempDir()

	first := filepath.Join(lib, "games", "first.pgn")
	second := filepath.Join(lib, "games", "second.pgn")
	firstHash := writeTestFile(t, first, 200)
	secondHash := writeTestFile(t, second, 300)
	records := []models.FileRecord{
		{OriginalPath: first, ContentHash: firstHash, EVSScore: 10},
		{OriginalPath: second, ContentHash: secondHash, EVSScore: 20},
	}

	id, err := m.CreateSession(70)
	require.NoError(t, err)

	// Cancellation lands between the first and the second move.
	ctx := &stallingContext{Context: context.Background(), left: 1}
	manifest, err := m.MoveToQuarantine(ctx, records, id)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, manifest)
	assert.Equal(t, 1, manifest.TotalFiles)

	// The manifest on disk covers the completed move, so the session is
	// still restorable.
	persisted, err := readManifest(filepath.Join(root, id))
	require.NoError(t, err)
	require.Len(t, persisted.Entries, 1)
	assert.Equal(t, first, persisted.Entries[0].OriginalPath)

	report, err := m.RestoreSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Restored)
	assert.Equal(t, firstHash, hashFile(t, first))

	// The unmoved file never left the library.
	assert.Equal(t, secondHash, hashFile(t, second))
}

func TestThresholdSurvivesManagerRestart(t *testing.T) {
	m, root := testManager(t)
	lib := t.TempDir()

	path := filepath.Join(lib, "games", "weak.pgn")
	hash := writeTestFile(t, path, 100)

	id, err := m.CreateSession(65)
	require.NoError(t, err)

	// A new manager over the same root, as after a process restart.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	restarted := NewManager(root, nil, logger)
	manifest, err := restarted.MoveToQuarantine(context.Background(), []models.FileRecord{
		{OriginalPath: path, ContentHash: hash, EVSScore: 40},
	}, id)
	require.NoError(t, err)
	assert.Equal(t, 65.0, manifest.Threshold)

	persisted, err := readManifest(filepath.Join(root, id))
	require.NoError(t, err)
	assert.Equal(t, 65.0, persisted.Threshold)
	assert.Equal(t, 1, persisted.TotalFiles)
}

func TestMoveRejectsUnknownSession(t *testing.T) {
	m, _ := testManager(t)

	_, err := m.MoveToQuarantine(context.Background(), nil, "deadbeef")
	require.ErrorIs(t, err, ErrManifestNotFound)
}

func TestRestoreCollisionBacksUpOccupant(t *testing.T) {
	m, _ := testManager(t)
	lib := t.TempDir()

	path := filepath.Join(lib, "games", "contested.pgn")
	originalHash := writeTestFile(t, path, 300)

	id, err := m.CreateSession(70)
	require.NoError(t, err)
	_, err = m.MoveToQuarantine(context.Background(), []models.FileRecord{
		{OriginalPath: path, ContentHash: originalHash, EVSScore: 10},
	}, id)
	require.NoError(t, err)

	// An unrelated file takes the original path while quarantined.
	require.NoError(t, os.WriteFile(path, []byte("squatter"), 0o644))

	report, err := m.RestoreSession(context.Background(), id)
	require.NoError(t, err)

	// Counts as a success, not a failure; the occupant was renamed aside.
	assert.Equal(t, 1, report.Restored)
	assert.Empty(t, report.Failures)
	require.Len(t, report.BackedUp, 1)
	assert.True(t, report.DirRemoved)

	// The quarantined content is back at the original path.
	assert.Equal(t, originalHash, hashFile(t, path))

	// The squatter survives under a backup name.
	matches, err := filepath.Glob(path + ".backup_*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "squatter", string(data))
}

func TestRelativePathHeuristic(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "recognized collection segment is preserved",
			path: "/library/chess/books/nimzowitsch/my_system.epub",
			want: filepath.Join("books", "nimzowitsch", "my_system.epub"),
		},
		{
			name: "first recognized segment wins",
			path: "/data/games/books/x.pgn",
			want: filepath.Join("games", "books", "x.pgn"),
		},
		{
			name: "segment match is case insensitive",
			path: "/library/Openings/sicilian.pgn",
			want: filepath.Join("Openings", "sicilian.pgn"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relativePathFor(tt.path))
		})
	}

	// Unrecognized layout: parent-dir hash prefix plus the filename.
	got := relativePathFor("/stuff/random/file.pgn")
	parts := strings.Split(got, string(filepath.Separator))
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 8)
	assert.Equal(t, "file.pgn", parts[1])

	// The hash prefix is stable for the same parent.
	assert.Equal(t, got, relativePathFor("/stuff/random/file.pgn"))
}

func TestListSessionsTolerantOfCorruption(t *testing.T) {
	m, root := testManager(t)
	lib := t.TempDir()

	path := filepath.Join(lib, "games", "a.pgn")
	hash := writeTestFile(t, path, 100)
	id, err := m.CreateSession(65)
	require.NoError(t, err)
	_, err = m.MoveToQuarantine(context.Background(), []models.FileRecord{
		{OriginalPath: path, ContentHash: hash},
	}, id)
	require.NoError(t, err)

	// A corrupted session: directory with garbage manifest.
	badDir := filepath.Join(root, "badbadba")
	require.NoError(t, os.MkdirAll(badDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(badDir, manifestFilename), []byte("{not json"), 0o644))

	listing, err := m.ListSessions()
	require.NoError(t, err)
	require.Len(t, listing.Sessions, 1)
	assert.Equal(t, id, listing.Sessions[0].ID)
	assert.Equal(t, []string{"badbadba"}, listing.Corrupted)
}

func TestAutoPurge(t *testing.T) {
	m, root := testManager(t)
	lib := t.TempDir()

	path := filepath.Join(lib, "games", "a.pgn")
	hash := writeTestFile(t, path, 100)
	id, err := m.CreateSession(65)
	require.NoError(t, err)
	manifest, err := m.MoveToQuarantine(context.Background(), []models.FileRecord{
		{OriginalPath: path, ContentHash: hash},
	}, id)
	require.NoError(t, err)

	// Fresh session survives a 30 day purge.
	purged, err := m.AutoPurge(30)
	require.NoError(t, err)
	assert.Empty(t, purged)

	// Age the manifest past the cutoff and purge again.
	manifest.CreationDate = manifest.CreationDate.AddDate(0, 0, -60)
	require.NoError(t, writeManifest(filepath.Join(root, id), manifest))

	purged, err = m.AutoPurge(30)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, purged)
	_, err = os.Stat(filepath.Join(root, id))
	assert.True(t, os.IsNotExist(err))
}
