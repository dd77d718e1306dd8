package organize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnkit/curator/internal/models"
)

func TestJournalAppendAndRead(t *testing.T) {
	dir := t.TempDir()

	journal, err := OpenJournal(dir, "sess1")
	require.NoError(t, err)

	entries := []models.JournalEntry{
		{NewPath: "/library/a_new.pgn", OriginalPath: "/library/a.pgn"},
		{NewPath: "/library/b_new.pgn", OriginalPath: "/library/b.pgn"},
	}
	for _, entry := range entries {
		require.NoError(t, journal.Append(entry))
	}
	require.NoError(t, journal.Close())

	got, err := ReadJournal(journal.Path())
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestReplayJournalReversesInReverseOrder(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.pgn")
	pathB := filepath.Join(dir, "b.pgn")
	pathC := filepath.Join(dir, "c.pgn")

	// The run renamed A to B, then B to C; only C exists now. Replaying
	// forward would fail at the first entry, so order matters.
	require.NoError(t, os.WriteFile(pathC, []byte("game"), 0o644))

	journal, err := OpenJournal(dir, "sess2")
	require.NoError(t, err)
	require.NoError(t, journal.Append(models.JournalEntry{NewPath: pathB, OriginalPath: pathA}))
	require.NoError(t, journal.Append(models.JournalEntry{NewPath: pathC, OriginalPath: pathB}))
	require.NoError(t, journal.Close())

	result, err := ReplayJournal(journal.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Reversed)
	assert.Empty(t, result.Errors)

	_, err = os.Stat(pathA)
	assert.NoError(t, err)
	_, err = os.Stat(pathC)
	assert.True(t, os.IsNotExist(err))
}

func TestReplayJournalContinuesPastMissingFile(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present_new.pgn")
	require.NoError(t, os.WriteFile(present, []byte("game"), 0o644))

	journal, err := OpenJournal(dir, "sess3")
	require.NoError(t, err)
	require.NoError(t, journal.Append(models.JournalEntry{
		NewPath:      filepath.Join(dir, "gone_new.pgn"),
		OriginalPath: filepath.Join(dir, "gone.pgn"),
	}))
	require.NoError(t, journal.Append(models.JournalEntry{
		NewPath:      present,
		OriginalPath: filepath.Join(dir, "present.pgn"),
	}))
	require.NoError(t, journal.Close())

	result, err := ReplayJournal(journal.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Reversed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "gone_new.pgn")

	_, err = os.Stat(filepath.Join(dir, "present.pgn"))
	assert.NoError(t, err)
}
