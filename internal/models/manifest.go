package models

import "time"

// ManifestEntry records one successfully quarantined file. The pair of
// paths is everything needed to undo the move.
type ManifestEntry struct {
	OriginalPath   string    `json:"original_path"`
	QuarantinePath string    `json:"quarantine_path"`
	RelativePath   string    `json:"relative_path"`
	Size           int64     `json:"size"`
	Hash           string    `json:"hash"`
	MovedDate      time.Time `json:"moved_date"`
}

// FailedMove records a file the quarantine run could not relocate.
type FailedMove struct {
	OriginalPath string `json:"original_path"`
	Error        string `json:"error"`
}

// QuarantineManifest is the durable record of one quarantine session.
// Written once after the batch completes and immutable afterwards; the
// restoration report is a separate file.
type QuarantineManifest struct {
	ID           string          `json:"id"`
	CreationDate time.Time       `json:"creation_date"`
	Threshold    float64         `json:"threshold"`
	TotalFiles   int             `json:"total_files"`
	TotalSize    int64           `json:"total_size"`
	Entries      []ManifestEntry `json:"entries"`
	FailedMoves  []FailedMove    `json:"failed_moves,omitempty"`
}

// RestorationReport summarizes a RestoreSession run.
type RestorationReport struct {
	SessionID    string       `json:"session_id"`
	RestoredAt   time.Time    `json:"restored_at"`
	Restored     int          `json:"restored"`
	BackedUp     []string     `json:"backed_up,omitempty"` // original paths whose occupant was renamed aside
	Failures     []FailedMove `json:"failures,omitempty"`
	DirRemoved   bool         `json:"dir_removed"`
}

// JournalEntry is one line of the rollback journal: a rename that actually
// happened. Entries are appended strictly after the OS rename succeeds.
type JournalEntry struct {
	NewPath      string `json:"new_path"`
	OriginalPath string `json:"original_path"`
}
