package analyze

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pgnkit/curator/internal/models"
)

// Heuristic is a cheap, deterministic analyzer used for offline runs and
// tests. It looks at PGN tags and annotation density only; it is not a
// substitute for the real model-backed analyzers.
type Heuristic struct {
	// MaxReadBytes bounds how much of each file is inspected. Zero means
	// the default of 256 KiB.
	MaxReadBytes int
}

const defaultMaxRead = 256 << 10

// instructionalMarkers are phrases that indicate teaching-oriented text.
var instructionalMarkers = []string{
	"the idea behind", "the plan is", "note that", "the key concept",
	"why this move", "a common mistake", "exercise", "lesson",
}

// Analyze inspects the head of the file and derives coarse signals.
func (h *Heuristic) Analyze(ctx context.Context, path string) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open for analysis: %w", err)
	}
	defer f.Close()

	limit := h.MaxReadBytes
	if limit <= 0 {
		limit = defaultMaxRead
	}
	buf := make([]byte, limit)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("read for analysis: %w", err)
	}
	text := strings.ToLower(string(buf[:n]))

	result := &models.AnalysisResult{}
	result.PGN = h.pgnSignals(text)
	result.Semantic = h.semanticSignals(text)
	return result, nil
}

// pgnSignals estimates the structural quality of PGN content.
func (h *Heuristic) pgnSignals(text string) models.PGNResult {
	games := strings.Count(text, "[event ")
	comments := strings.Count(text, "{")
	variations := strings.Count(text, "(")

	var pgn models.PGNResult
	if games == 0 {
		pgn.GameType = models.GameNone
		return pgn
	}

	commentDensity := float64(comments) / float64(games)
	switch {
	case games > 50 && commentDensity < 0.5:
		pgn.GameType = models.GameDatabaseDump
	case strings.Contains(text, `[setup "1"]`) || strings.Contains(text, "[fen "):
		pgn.GameType = models.GamePositionStudy
	case commentDensity >= 2:
		pgn.GameType = models.GameAnnotated
	default:
		pgn.GameType = models.GameComplete
	}

	pgn.Structure = clampTo(float64(games), 1, 20)
	pgn.AnnotationRichness = clampTo(commentDensity*4, 0, 20)
	pgn.Humanness = clampTo(float64(variations)/float64(games)*5, 0, 20)
	if strings.Contains(text, "[annotator ") {
		pgn.EducationalContext = 10
		pgn.EducationalCues = append(pgn.EducationalCues, "annotated_source")
	}
	pgn.BaseEVS = clampTo(
		pgn.Structure+pgn.AnnotationRichness+pgn.Humanness+pgn.EducationalContext+20,
		0, 100)
	return pgn
}

// semanticSignals estimates how teaching-oriented the surrounding prose is.
func (h *Heuristic) semanticSignals(text string) models.SemanticResult {
	var semantic models.SemanticResult

	hits := 0
	for _, marker := range instructionalMarkers {
		if strings.Contains(text, marker) {
			hits++
		}
	}
	semantic.InstructionalValue = clampTo(float64(hits)/4, 0, 1)
	semantic.ConceptDensity = clampTo(float64(hits)/6, 0, 1)

	chessTerms := 0
	for _, term := range []string{"opening", "endgame", "middlegame", "tactic", "sacrifice", "zugzwang"} {
		if strings.Contains(text, term) {
			chessTerms++
		}
	}
	semantic.DomainRelevance = clampTo(float64(chessTerms)/4, 0, 1)

	if hits > 0 {
		semantic.EducationalCues = append(semantic.EducationalCues, "instructional_prose")
	}
	return semantic
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
