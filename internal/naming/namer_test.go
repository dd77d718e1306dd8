package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgnkit/curator/internal/models"
)

func payloadFor(evs float64, ct models.ContentType) *models.AnalysisPayload {
	return &models.AnalysisPayload{
		SchemaVersion: models.AnalysisPayloadVersion,
		Integration:   models.IntegrationResult{ContentType: ct, FinalEVS: evs},
	}
}

func TestSlugNamerUsesDetectedSubject(t *testing.T) {
	n := &SlugNamer{}
	record := &models.FileRecord{OriginalPath: "/lib/books/scan0042.PGN"}

	payload := payloadFor(84.2, models.ContentInstructional)
	payload.Semantic.DetectedBooks = []string{"My System (Nimzowitsch)"}

	name, err := n.Name(record, payload)
	require.NoError(t, err)
	assert.Equal(t, "my_system_nimzowitsch_instructional_content_EVS84.pgn", name)
}

func TestSlugNamerSubjectPriority(t *testing.T) {
	n := &SlugNamer{}
	record := &models.FileRecord{OriginalPath: "/lib/a.pgn"}

	payload := payloadFor(70, models.ContentAnnotatedGame)
	payload.Semantic.DetectedOpenings = []string{"Sicilian Defense"}
	payload.Semantic.DetectedPlayers = []string{"Tal, Mikhail"}

	// Openings outrank players.
	name, err := n.Name(record, payload)
	require.NoError(t, err)
	assert.Equal(t, "sicilian_defense_annotated_game_EVS70.pgn", name)

	// Players are the fallback.
	payload.Semantic.DetectedOpenings = nil
	name, err = n.Name(record, payload)
	require.NoError(t, err)
	assert.Equal(t, "tal_mikhail_annotated_game_EVS70.pgn", name)
}

func TestSlugNamerFallsBackToOriginalName(t *testing.T) {
	n := &SlugNamer{}
	record := &models.FileRecord{OriginalPath: "/lib/Famous Games 1953!.pgn"}

	name, err := n.Name(record, payloadFor(66, models.ContentMixed))
	require.NoError(t, err)
	assert.Equal(t, "famous_games_1953_mixed_content_EVS66.pgn", name)
}

func TestSlugNamerDeterministic(t *testing.T) {
	n := &SlugNamer{}
	record := &models.FileRecord{OriginalPath: "/lib/x.epub"}
	payload := payloadFor(91.7, models.ContentEliteInstructional)
	payload.Semantic.DetectedBooks = []string{"Zurich 1953"}

	first, err := n.Name(record, payload)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := n.Name(record, payload)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "zurich_1953_elite_instructional_EVS92.epub", first)
}
