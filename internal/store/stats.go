package store

import (
	"context"
	"fmt"

	"github.com/pgnkit/curator/internal/models"
)

// GroupCount is one aggregate row of the statistics report.
type GroupCount struct {
	Key    string  `json:"key"`
	Count  int64   `json:"count"`
	AvgEVS float64 `json:"avg_evs"`
}

// Statistics aggregates record counts and average EVS grouped by status,
// tier and game type. Read-only; used by the report layer.
type Statistics struct {
	TotalRecords int64        `json:"total_records"`
	ByStatus     []GroupCount `json:"by_status"`
	ByTier       []GroupCount `json:"by_tier"`
	ByGameType   []GroupCount `json:"by_game_type"`
}

// Statistics computes the aggregate report.
func (s *Store) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{}

	err := s.db.WithContext(ctx).Model(&models.FileRecord{}).Count(&stats.TotalRecords).Error
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	for _, group := range []struct {
		column string
		dest   *[]GroupCount
	}{
		{"status", &stats.ByStatus},
		{"quality_tier", &stats.ByTier},
		{"game_type", &stats.ByGameType},
	} {
		err := s.db.WithContext(ctx).Model(&models.FileRecord{}).
			Select(group.column+" AS key, COUNT(*) AS count, COALESCE(AVG(evs_score), 0) AS avg_evs").
			Group(group.column).
			Order("count DESC").
			Scan(group.dest).Error
		if err != nil {
			return nil, fmt.Errorf("aggregate by %s: %w", group.column, err)
		}
	}

	return stats, nil
}
