package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pgnkit/curator/internal/models"
)

// CreateSession starts a new organize session record.
func (s *Store) CreateSession(ctx context.Context, rootPath, configJSON string, totalFiles int) (*models.Session, error) {
	session := &models.Session{
		ID:         uuid.New().String()[:8],
		RootPath:   rootPath,
		Status:     models.SessionRunning,
		TotalFiles: totalFiles,
		ConfigJSON: configJSON,
		StartedAt:  time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.log.Info("session created", "session_id", session.ID, "root", rootPath, "files", totalFiles)
	return session, nil
}

// CheckpointSession persists progress counts. Called after every batch so
// a crash mid-run leaves a resumable record.
func (s *Store) CheckpointSession(ctx context.Context, id string, processed, failed int) error {
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{"processed": processed, "failed": failed}).Error
	if err != nil {
		return fmt.Errorf("checkpoint session %s: %w", id, err)
	}
	return nil
}

// FinishSession marks a session terminal with its final status.
func (s *Store) FinishSession(ctx context.Context, id string, status models.SessionStatus) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "ended_at": &now}).Error
	if err != nil {
		return fmt.Errorf("finish session %s: %w", id, err)
	}
	return nil
}

// GetSession returns a session by ID, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &session, nil
}

// ListSessions returns sessions most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).Order("started_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
