// Package naming defines the filename collaborator boundary and a default
// slug-based implementation.
package naming

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pgnkit/curator/internal/models"
)

// Namer generates the target filename for a scored record. The real
// LLM-backed namer is out of scope; the pipeline accepts any
// implementation.
type Namer interface {
	Name(record *models.FileRecord, payload *models.AnalysisPayload) (string, error)
}

// SlugNamer builds deterministic names from the detected openings,
// players and books plus the EVS score. It keeps the original extension.
type SlugNamer struct {
	// MaxBaseLength truncates the slug portion. Zero means 80.
	MaxBaseLength int
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Name composes "<subject>_<content-type>_EVS<score><ext>".
func (n *SlugNamer) Name(record *models.FileRecord, payload *models.AnalysisPayload) (string, error) {
	if record == nil || payload == nil {
		return "", fmt.Errorf("name: record and payload are required")
	}

	subject := subjectSlug(payload)
	if subject == "" {
		subject = slugify(strings.TrimSuffix(filepath.Base(record.OriginalPath), filepath.Ext(record.OriginalPath)))
	}
	if subject == "" {
		subject = "chess_document"
	}

	maxLen := n.MaxBaseLength
	if maxLen <= 0 {
		maxLen = 80
	}
	if len(subject) > maxLen {
		subject = strings.Trim(subject[:maxLen], "_")
	}

	base := fmt.Sprintf("%s_%s_EVS%d",
		subject,
		string(payload.Integration.ContentType),
		int(math.Round(payload.Integration.FinalEVS)))
	return base + strings.ToLower(filepath.Ext(record.OriginalPath)), nil
}

// subjectSlug picks the most specific detected subject: book, then
// opening, then player.
func subjectSlug(payload *models.AnalysisPayload) string {
	if len(payload.Semantic.DetectedBooks) > 0 {
		return slugify(payload.Semantic.DetectedBooks[0])
	}
	if len(payload.Semantic.DetectedOpenings) > 0 {
		return slugify(payload.Semantic.DetectedOpenings[0])
	}
	if len(payload.Semantic.DetectedPlayers) > 0 {
		return slugify(payload.Semantic.DetectedPlayers[0])
	}
	return ""
}

func slugify(s string) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}
