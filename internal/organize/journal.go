package organize

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pgnkit/curator/internal/models"
)

// Journal is the append-only rollback log for one run. Each line is one
// JSON-encoded rename that actually happened; an entry is appended
// strictly after the OS rename reports success, so the journal never
// claims a rename that did not happen.
type Journal struct {
	path string
	file *os.File
}

// OpenJournal creates the journal file for a session under dir.
func OpenJournal(dir, sessionID string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("rollback_%s.jsonl", sessionID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{path: path, file: file}, nil
}

// Path returns the on-disk location of the journal.
func (j *Journal) Path() string { return j.path }

// Append writes one completed rename and flushes it to disk before
// returning.
func (j *Journal) Append(entry models.JournalEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	if _, err := j.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("sync journal: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (j *Journal) Close() error {
	return j.file.Close()
}

// ReadJournal loads every entry of a journal file in append order.
func ReadJournal(path string) ([]models.JournalEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var entries []models.JournalEntry
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry models.JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// RollbackResult summarizes a journal replay.
type RollbackResult struct {
	Reversed int
	Errors   []string
}

// ReplayJournal reverses a completed run: entries are applied newest
// first, renaming each new path back to its original. One entry's failure
// is recorded and the replay continues.
func ReplayJournal(path string) (*RollbackResult, error) {
	entries, err := ReadJournal(path)
	if err != nil {
		return nil, err
	}

	result := &RollbackResult{}
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if err := os.Rename(entry.NewPath, entry.OriginalPath); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.NewPath, err))
			continue
		}
		result.Reversed++
	}
	return result, nil
}
