package models

import "time"

// SessionStatus is the lifecycle state of an organize run.
type SessionStatus string

// Session status constants.
const (
	SessionRunning     SessionStatus = "running"
	SessionCompleted   SessionStatus = "completed"
	SessionFailed      SessionStatus = "failed"
	SessionInterrupted SessionStatus = "interrupted"
)

// Session is a checkpointed organize run. Progress counts are persisted
// after every batch so a crash leaves a resumable record.
type Session struct {
	ID         string        `gorm:"primaryKey;column:id" json:"id"`
	RootPath   string        `gorm:"column:root_path" json:"root_path"`
	Status     SessionStatus `gorm:"column:status;index" json:"status"`
	TotalFiles int           `gorm:"column:total_files" json:"total_files"`
	Processed  int           `gorm:"column:processed" json:"processed"`
	Failed     int           `gorm:"column:failed" json:"failed"`
	ConfigJSON string        `gorm:"column:config_json" json:"config_json,omitempty"`
	StartedAt  time.Time     `gorm:"column:started_at" json:"started_at"`
	EndedAt    *time.Time    `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

// TableName pins the table name used by the store.
func (Session) TableName() string { return "organize_sessions" }
