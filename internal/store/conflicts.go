package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pgnkit/curator/internal/models"
)

// ResolveFilenameConflicts disambiguates records that map to the same new
// filename. Within each colliding group the record with the highest
// (evs_score, content_quality) keeps the name; the rest get a
// deterministic suffix before the extension: _alt{n}_EVS{score} when
// scored, else _alt{n}_{hash8}. Returns the number of mutated records.
// Idempotent: with no remaining conflicts a second call changes nothing.
func (s *Store) ResolveFilenameConflicts(ctx context.Context) (int, error) {
	var records []models.FileRecord
	err := s.db.WithContext(ctx).
		Where("new_filename <> ''").
		Order("original_path").
		Find(&records).Error
	if err != nil {
		return 0, fmt.Errorf("load records for conflict resolution: %w", err)
	}

	groups := make(map[string][]models.FileRecord)
	for _, r := range records {
		groups[r.NewFilename] = append(groups[r.NewFilename], r)
	}

	mutated := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}

		// Best quality first; original path as the deterministic tiebreak.
		sort.Slice(group, func(i, j int) bool {
			if group[i].EVSScore != group[j].EVSScore {
				return group[i].EVSScore > group[j].EVSScore
			}
			if group[i].ContentQuality != group[j].ContentQuality {
				return group[i].ContentQuality > group[j].ContentQuality
			}
			return group[i].OriginalPath < group[j].OriginalPath
		})

		for n, record := range group[1:] {
			renamed := disambiguate(record, n+1)
			err := s.db.WithContext(ctx).Model(&models.FileRecord{}).
				Where("original_path = ?", record.OriginalPath).
				Update("new_filename", renamed).Error
			if err != nil {
				return mutated, fmt.Errorf("disambiguate %s: %w", record.OriginalPath, err)
			}
			mutated++
			s.log.Debug("filename conflict resolved",
				"path", record.OriginalPath, "old", record.NewFilename, "new", renamed)
		}
	}

	if mutated > 0 {
		s.log.Info("filename conflicts resolved", "mutated", mutated)
	}
	return mutated, nil
}

// disambiguate builds the alternate filename for the n-th loser of a
// conflict group.
func disambiguate(record models.FileRecord, n int) string {
	ext := filepath.Ext(record.NewFilename)
	base := strings.TrimSuffix(record.NewFilename, ext)

	if record.EVSScore > 0 {
		return fmt.Sprintf("%s_alt%d_EVS%d%s", base, n, int(math.Round(record.EVSScore)), ext)
	}

	hash := record.ContentHash
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return fmt.Sprintf("%s_alt%d_%s%s", base, n, hash, ext)
}
