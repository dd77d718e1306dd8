// Package store persists file records and organize sessions in an embedded
// SQLite database.
package store

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Store wraps the embedded database. All mutation during a batch run goes
// through a single Writer; direct methods are for sequential callers.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path and runs
// migrations. The busy timeout keeps concurrent readers from failing fast
// while the writer holds the lock.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gormLog := gormLogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("database opened", "path", path)
	return &Store{db: db, log: logger}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return sqlDB.Close()
}
