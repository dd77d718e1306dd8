package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pgnkit/curator/internal/models"
)

// QueryFilter narrows a record query. Zero values mean "no filter".
type QueryFilter struct {
	Status   models.RecordStatus
	Tier     models.QualityTier
	GameType models.GameType
	// PathPrefix restricts records to original paths under a directory.
	PathPrefix string
	// MaxEVS selects records strictly below the given score when > 0.
	// Used to pick quarantine candidates.
	MaxEVS float64
	Limit  int
	// OrderBy is a safe column expression, e.g. "evs_score DESC". Defaults
	// to original_path.
	OrderBy string
}

// Upsert inserts or replaces a record keyed by original path. Duplicate
// (content_hash, new_filename) pairs surface ErrDuplicateContent for this
// record only.
func (s *Store) Upsert(ctx context.Context, record *models.FileRecord) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "original_path"}},
		UpdateAll: true,
	}).Create(record).Error
	if err != nil {
		return wrapWriteError(fmt.Errorf("upsert %s: %w", record.OriginalPath, err))
	}
	return nil
}

// Get returns the record for an original path, or ErrNotFound.
func (s *Store) Get(ctx context.Context, originalPath string) (*models.FileRecord, error) {
	var record models.FileRecord
	err := s.db.WithContext(ctx).First(&record, "original_path = ?", originalPath).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("get %s: %w", originalPath, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", originalPath, err)
	}
	return &record, nil
}

// Query returns records matching the filter.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]models.FileRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.FileRecord{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Tier != "" {
		q = q.Where("quality_tier = ?", filter.Tier)
	}
	if filter.GameType != "" {
		q = q.Where("game_type = ?", filter.GameType)
	}
	if filter.PathPrefix != "" {
		q = q.Where("original_path LIKE ?", filter.PathPrefix+"%")
	}
	if filter.MaxEVS > 0 {
		q = q.Where("evs_score < ?", filter.MaxEVS)
	}
	order := filter.OrderBy
	if order == "" {
		order = "original_path"
	}
	q = q.Order(order)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var records []models.FileRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return records, nil
}

// Transition moves a record to a new status, enforcing the state machine.
// errorMessage is stored alongside failed transitions.
func (s *Store) Transition(ctx context.Context, originalPath string, to models.RecordStatus, errorMessage string) error {
	record, err := s.Get(ctx, originalPath)
	if err != nil {
		return err
	}
	if !models.CanTransition(record.Status, to) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, record.Status, to, originalPath)
	}

	updates := map[string]any{"status": to}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	err = s.db.WithContext(ctx).Model(&models.FileRecord{}).
		Where("original_path = ?", originalPath).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("transition %s: %w", originalPath, err)
	}
	return nil
}

// SetNewName stores the generated filename and target directory for a
// record without touching its status.
func (s *Store) SetNewName(ctx context.Context, originalPath, newFilename, newDirectory string) error {
	err := s.db.WithContext(ctx).Model(&models.FileRecord{}).
		Where("original_path = ?", originalPath).
		Updates(map[string]any{
			"new_filename":  newFilename,
			"new_directory": newDirectory,
		}).Error
	if err != nil {
		return wrapWriteError(fmt.Errorf("set new name %s: %w", originalPath, err))
	}
	return nil
}

// Count returns the number of records matching the filter.
func (s *Store) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.FileRecord{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.MaxEVS > 0 {
		q = q.Where("evs_score < ?", filter.MaxEVS)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
