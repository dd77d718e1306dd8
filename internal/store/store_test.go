package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnkit/curator/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := Open(filepath.Join(t.TempDir(), "curator.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(path, hash string, evs float64) *models.FileRecord {
	return &models.FileRecord{
		OriginalPath: path,
		ContentHash:  hash,
		Size:         1024,
		ModTime:      time.Now().Truncate(time.Second),
		EVSScore:     evs,
		QualityTier:  models.Tier3,
		GameType:     models.GameAnnotated,
		Status:       models.StatusAnalyzed,
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	record := testRecord("/library/books/my_system.pgn", "abc123", 72)
	require.NoError(t, s.Upsert(ctx, record))

	got, err := s.Get(ctx, record.OriginalPath)
	require.NoError(t, err)
	assert.Equal(t, record.ContentHash, got.ContentHash)
	assert.Equal(t, record.EVSScore, got.EVSScore)

	// Same path replaces, does not duplicate.
	record.EVSScore = 88
	record.QualityTier = models.Tier1
	require.NoError(t, s.Upsert(ctx, record))

	got, err = s.Get(ctx, record.OriginalPath)
	require.NoError(t, err)
	assert.Equal(t, 88.0, got.EVSScore)

	n, err := s.Count(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateContentCollision(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := testRecord("/library/a.pgn", "samehash", 70)
	a.NewFilename = "tal_attacks.pgn"
	require.NoError(t, s.Upsert(ctx, a))

	// Different path, same (hash, new_filename) pair.
	b := testRecord("/library/copy/a.pgn", "samehash", 70)
	b.NewFilename = "tal_attacks.pgn"
	err := s.Upsert(ctx, b)
	assert.ErrorIs(t, err, ErrDuplicateContent)

	// The failure is scoped to that record; others still write.
	c := testRecord("/library/c.pgn", "otherhash", 70)
	assert.NoError(t, s.Upsert(ctx, c))
}

func TestUnnamedRecordsNeverCollide(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// Two identical downloads, not yet named.
	a := testRecord("/library/twin1.pgn", "samehash", 70)
	b := testRecord("/library/twin2.pgn", "samehash", 70)
	require.NoError(t, s.Upsert(ctx, a))
	require.NoError(t, s.Upsert(ctx, b))

	// Two failed analyses carry no hash at all.
	for _, path := range []string{"/library/bad1.pgn", "/library/bad2.pgn"} {
		record := &models.FileRecord{
			OriginalPath: path,
			Status:       models.StatusFailed,
			ErrorMessage: "unreadable",
		}
		require.NoError(t, s.Upsert(ctx, record))
	}

	n, err := s.Count(ctx, QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// Naming is where the pair becomes unique.
	require.NoError(t, s.SetNewName(ctx, a.OriginalPath, "twins.pgn", "/library"))
	err = s.SetNewName(ctx, b.OriginalPath, "twins.pgn", "/library")
	assert.ErrorIs(t, err, ErrDuplicateContent)
}

func TestQueryFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, evs := range []float64{45, 65, 82, 91} {
		r := testRecord(fmt.Sprintf("/library/f%d.pgn", i), fmt.Sprintf("h%d", i), evs)
		switch {
		case evs >= 85:
			r.QualityTier = models.Tier1
		case evs >= 80:
			r.QualityTier = models.Tier2
		case evs >= 70:
			r.QualityTier = models.Tier3
		default:
			r.QualityTier = models.BelowThreshold
		}
		require.NoError(t, s.Upsert(ctx, r))
	}

	low, err := s.Query(ctx, QueryFilter{MaxEVS: 70})
	require.NoError(t, err)
	assert.Len(t, low, 2)

	tier1, err := s.Query(ctx, QueryFilter{Tier: models.Tier1})
	require.NoError(t, err)
	require.Len(t, tier1, 1)
	assert.Equal(t, 91.0, tier1[0].EVSScore)

	ordered, err := s.Query(ctx, QueryFilter{OrderBy: "evs_score DESC", Limit: 2})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, 91.0, ordered[0].EVSScore)
	assert.Equal(t, 82.0, ordered[1].EVSScore)
}

func TestTransitionStateMachine(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := testRecord("/library/f.pgn", "h", 75)
	r.Status = models.StatusDiscovered
	require.NoError(t, s.Upsert(ctx, r))

	// discovered -> analyzed -> named -> renamed is a legal run.
	require.NoError(t, s.Transition(ctx, r.OriginalPath, models.StatusAnalyzed, ""))
	require.NoError(t, s.Transition(ctx, r.OriginalPath, models.StatusNamed, ""))
	require.NoError(t, s.Transition(ctx, r.OriginalPath, models.StatusRenamed, ""))

	// renamed is terminal.
	err := s.Transition(ctx, r.OriginalPath, models.StatusAnalyzed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// discovered cannot jump straight to named.
	r2 := testRecord("/library/g.pgn", "h2", 75)
	r2.Status = models.StatusDiscovered
	require.NoError(t, s.Upsert(ctx, r2))
	err = s.Transition(ctx, r2.OriginalPath, models.StatusNamed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// failed records keep their error message.
	require.NoError(t, s.Transition(ctx, r2.OriginalPath, models.StatusFailed, "extraction blew up"))
	got, err := s.Get(ctx, r2.OriginalPath)
	require.NoError(t, err)
	assert.Equal(t, "extraction blew up", got.ErrorMessage)
}

func TestQuarantineTransitions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r := testRecord("/library/weak.pgn", "h", 40)
	require.NoError(t, s.Upsert(ctx, r))

	// analyzed -> quarantined -> analyzed via explicit restore only.
	require.NoError(t, s.Transition(ctx, r.OriginalPath, models.StatusQuarantined, ""))
	err := s.Transition(ctx, r.OriginalPath, models.StatusRenamed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, s.Transition(ctx, r.OriginalPath, models.StatusAnalyzed, ""))
}

func TestStatistics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, evs := range []float64{90, 90, 50} {
		r := testRecord(fmt.Sprintf("/library/f%d.pgn", i), fmt.Sprintf("h%d", i), evs)
		if evs >= 85 {
			r.QualityTier = models.Tier1
		} else {
			r.QualityTier = models.BelowThreshold
		}
		require.NoError(t, s.Upsert(ctx, r))
	}

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRecords)

	byTier := make(map[string]GroupCount)
	for _, g := range stats.ByTier {
		byTier[g.Key] = g
	}
	assert.Equal(t, int64(2), byTier[string(models.Tier1)].Count)
	assert.InDelta(t, 90.0, byTier[string(models.Tier1)].AvgEVS, 1e-9)
	assert.Equal(t, int64(1), byTier[string(models.BelowThreshold)].Count)
}

func TestSessionLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	session, err := s.CreateSession(ctx, "/library", `{"workers":4}`, 100)
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, models.SessionRunning, session.Status)

	require.NoError(t, s.CheckpointSession(ctx, session.ID, 40, 2))
	got, err := s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Processed)
	assert.Equal(t, 2, got.Failed)

	require.NoError(t, s.FinishSession(ctx, session.ID, models.SessionInterrupted))
	got, err = s.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInterrupted, got.Status)
	assert.NotNil(t, got.EndedAt)

	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
