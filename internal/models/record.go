package models

import "time"

// RecordStatus tracks a file through the organize pipeline.
type RecordStatus string

// Record status constants. See CanTransition for the allowed moves.
const (
	StatusDiscovered  RecordStatus = "discovered"
	StatusAnalyzed    RecordStatus = "analyzed"
	StatusNamed       RecordStatus = "named"
	StatusStaged      RecordStatus = "staged"
	StatusRenamed     RecordStatus = "renamed"
	StatusFailed      RecordStatus = "failed"
	StatusSkipped     RecordStatus = "skipped"
	StatusQuarantined RecordStatus = "quarantined"
)

// recordTransitions is the full transition table. Terminal states have no
// entry. quarantined is entered and left only through explicit quarantine
// manager operations.
var recordTransitions = map[RecordStatus][]RecordStatus{
	StatusDiscovered:  {StatusAnalyzed, StatusFailed},
	StatusAnalyzed:    {StatusNamed, StatusFailed, StatusQuarantined},
	StatusNamed:       {StatusStaged, StatusRenamed, StatusSkipped, StatusFailed, StatusQuarantined},
	StatusStaged:      {StatusQuarantined},
	StatusQuarantined: {StatusAnalyzed},
}

// CanTransition reports whether moving a record from one status to another
// is allowed.
func CanTransition(from, to RecordStatus) bool {
	for _, next := range recordTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status ends the record's run. quarantined is
// not terminal: it can be restored back to analyzed.
func (s RecordStatus) IsTerminal() bool {
	switch s {
	case StatusRenamed, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// FileRecord is the persisted state of one file in the library. Identity is
// the original path; the orchestrator is the only writer. The
// (content_hash, new_filename) unique index is partial: unnamed records
// never collide, so duplicate-content files and failed analyses all keep
// their rows until naming surfaces the conflict.
type FileRecord struct {
	OriginalPath   string       `gorm:"primaryKey;column:original_path" json:"original_path"`
	ContentHash    string       `gorm:"column:content_hash;uniqueIndex:idx_hash_filename,where:new_filename <> ''" json:"content_hash"`
	Size           int64        `gorm:"column:size" json:"size"`
	ModTime        time.Time    `gorm:"column:mtime" json:"mtime"`
	AnalysisJSON   string       `gorm:"column:analysis_json" json:"analysis_json,omitempty"`
	EVSScore       float64      `gorm:"column:evs_score;index" json:"evs_score"`
	ContentQuality float64      `gorm:"column:content_quality" json:"content_quality"`
	QualityTier    QualityTier  `gorm:"column:quality_tier;index" json:"quality_tier"`
	GameType       GameType     `gorm:"column:game_type;index" json:"game_type"`
	NewFilename    string       `gorm:"column:new_filename;uniqueIndex:idx_hash_filename" json:"new_filename"`
	NewDirectory   string       `gorm:"column:new_directory" json:"new_directory"`
	Status         RecordStatus `gorm:"column:status;index" json:"status"`
	ErrorMessage   string       `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TableName pins the table name used by the store.
func (FileRecord) TableName() string { return "file_records" }
