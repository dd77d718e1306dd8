package store

import (
	"gorm.io/gorm"

	"github.com/pgnkit/curator/internal/models"
)

// migrate creates or updates the two tables. FileRecord carries the
// indexed columns the CLI filters on (status, evs_score, quality_tier,
// game_type) plus the partial composite unique index on (content_hash,
// new_filename) that catches duplicate-content collisions once a name is
// assigned, independent of path.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.FileRecord{},
		&models.Session{},
	)
}
