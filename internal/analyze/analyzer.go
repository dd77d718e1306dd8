// Package analyze defines the analyzer collaborator boundary. The real
// text/PGN analyzers (EPUB extraction, NLP models) live out of process;
// the pipeline only consumes their typed results.
package analyze

import (
	"context"

	"github.com/pgnkit/curator/internal/models"
)

// Analyzer produces the semantic and PGN signals for one file. An error
// marks that file failed; it never aborts the batch.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*models.AnalysisResult, error)
}
