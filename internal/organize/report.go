package organize

import (
	"fmt"

	"github.com/pgnkit/curator/internal/models"
)

// Report accumulates the outcome of a single organize run.
type Report struct {
	SessionID   string
	Total       int
	Processed   int
	Failed      int
	Renamed     int
	Staged      int
	Skipped     int
	TierCounts  map[models.QualityTier]int
	Errors      []string
	JournalPath string
}

func NewReport(sessionID string) *Report {
	return &Report{
		SessionID:  sessionID,
		TierCounts: map[models.QualityTier]int{},
	}
}

func (r *Report) AddError(context string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", context, err))
}

// Summary renders a short human-readable digest for CLI output.
func (r *Report) Summary() string {
	return fmt.Sprintf("session %s: %d/%d processed, %d renamed, %d staged, %d skipped, %d failed",
		r.SessionID, r.Processed, r.Total, r.Renamed, r.Staged, r.Skipped, r.Failed)
}
