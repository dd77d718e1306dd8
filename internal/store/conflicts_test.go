package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnkit/curator/internal/models"
)

func namedRecord(path, hash, filename string, evs, quality float64) *models.FileRecord {
	r := testRecord(path, hash, evs)
	r.NewFilename = filename
	r.ContentQuality = quality
	r.Status = models.StatusNamed
	return r
}

func TestResolveFilenameConflicts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Three records collide on the same generated name; one is unique.
	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/a.pgn", "aaaa1111bbbb", "sicilian_guide.pgn", 88, 0.9)))
	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/b.pgn", "cccc2222dddd", "sicilian_guide.pgn", 75, 0.7)))
	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/c.pgn", "eeee3333ffff", "sicilian_guide.pgn", 0, 0)))
	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/d.pgn", "9999aaaa0000", "unique_name.pgn", 60, 0.5)))

	mutated, err := s.ResolveFilenameConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, mutated)

	// The highest (evs, quality) record keeps the name.
	best, err := s.Get(ctx, "/lib/a.pgn")
	require.NoError(t, err)
	assert.Equal(t, "sicilian_guide.pgn", best.NewFilename)

	// A scored loser gets the EVS disambiguator before the extension.
	second, err := s.Get(ctx, "/lib/b.pgn")
	require.NoError(t, err)
	assert.Equal(t, "sicilian_guide_alt1_EVS75.pgn", second.NewFilename)

	// An unscored loser falls back to the 8-char hash form.
	third, err := s.Get(ctx, "/lib/c.pgn")
	require.NoError(t, err)
	assert.Equal(t, "sicilian_guide_alt2_eeee3333.pgn", third.NewFilename)

	// Untouched outside the conflict group.
	solo, err := s.Get(ctx, "/lib/d.pgn")
	require.NoError(t, err)
	assert.Equal(t, "unique_name.pgn", solo.NewFilename)
}

func TestResolveFilenameConflictsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/a.pgn", "aaaa1111", "endgames.pgn", 80, 0.8)))
	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/b.pgn", "bbbb2222", "endgames.pgn", 70, 0.6)))

	first, err := s.ResolveFilenameConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	// Stable input set: a second run mutates nothing.
	second, err := s.ResolveFilenameConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestResolveFilenameConflictsNoConflicts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/a.pgn", "aaaa", "one.pgn", 80, 0.8)))
	require.NoError(t, s.Upsert(ctx, namedRecord("/lib/b.pgn", "bbbb", "two.pgn", 70, 0.6)))

	mutated, err := s.ResolveFilenameConflicts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, mutated)
}
