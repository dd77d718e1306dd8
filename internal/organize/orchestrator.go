// Package organize drives the discover, score, name and execute pipeline
// over a library directory, with checkpointed sessions and a rollback
// journal.
package organize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgnkit/curator/internal/analyze"
	"github.com/pgnkit/curator/internal/metrics"
	"github.com/pgnkit/curator/internal/models"
	"github.com/pgnkit/curator/internal/naming"
	"github.com/pgnkit/curator/internal/scoring"
	"github.com/pgnkit/curator/internal/store"
)

// ErrSourceRootMissing indicates the organize root does not exist. This is
// the only fatal, run-aborting error class: nothing is persisted.
var ErrSourceRootMissing = errors.New("source root missing")

// chessExtensions are the file types the pipeline picks up.
var chessExtensions = map[string]struct{}{
	".pgn":  {},
	".epub": {},
	".pdf":  {},
	".txt":  {},
}

// Options configures one organize run.
type Options struct {
	// Execute performs real renames. False stages a dry run.
	Execute bool
	// Recursive walks subdirectories.
	Recursive bool
	// Workers is the analyzer pool size; <= 1 runs sequentially.
	Workers int
	// BatchSize chunks the run for checkpointing; defaults to 50.
	BatchSize int
}

// Orchestrator wires the pipeline. All collaborators are explicit
// constructor arguments; there is no package-level state.
type Orchestrator struct {
	store      *store.Store
	analyzer   analyze.Analyzer
	namer      naming.Namer
	journalDir string
	log        *slog.Logger
	collector  *metrics.Collector
}

// NewOrchestrator creates an orchestrator. The metrics collector may be
// nil when timing is not wanted.
func NewOrchestrator(st *store.Store, analyzer analyze.Analyzer, namer naming.Namer, journalDir string, logger *slog.Logger, collector *metrics.Collector) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:      st,
		analyzer:   analyzer,
		namer:      namer,
		journalDir: journalDir,
		log:        logger,
		collector:  collector,
	}
}

// Run processes every chess file under root: analyze and score in a
// bounded worker pool, persist through the single store writer, name,
// resolve filename conflicts, then execute (or stage) the renames.
func (o *Orchestrator) Run(ctx context.Context, root string, opts Options) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceRootMissing, root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceRootMissing, root)
	}

	files, err := o.discover(root, opts.Recursive)
	if err != nil {
		return nil, err
	}

	configJSON, _ := json.Marshal(opts)
	session, err := o.store.CreateSession(ctx, root, string(configJSON), len(files))
	if err != nil {
		return nil, err
	}

	return o.process(ctx, session, files, opts)
}

// Resume continues an interrupted session, skipping files that already
// have a record.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string) (*Report, error) {
	session, err := o.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInterrupted && session.Status != models.SessionRunning {
		return nil, fmt.Errorf("session %s is %s, not resumable", sessionID, session.Status)
	}

	var opts Options
	if session.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(session.ConfigJSON), &opts); err != nil {
			return nil, fmt.Errorf("parse session config: %w", err)
		}
	}

	files, err := o.discover(session.RootPath, opts.Recursive)
	if err != nil {
		return nil, err
	}

	// Skip anything already persisted by the earlier attempt.
	pending := make([]string, 0, len(files))
	for _, path := range files {
		if _, err := o.store.Get(ctx, path); errors.Is(err, store.ErrNotFound) {
			pending = append(pending, path)
		}
	}
	o.log.Info("resuming session",
		"session_id", sessionID,
		"total", len(files),
		"already_processed", len(files)-len(pending),
		"pending", len(pending))

	return o.process(ctx, session, pending, opts)
}

// discover walks root collecting chess document paths in deterministic
// order.
func (o *Orchestrator) discover(root string, recursive bool) ([]string, error) {
	var files []string
	walkFn := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := chessExtensions[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	}
	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}
	return files, nil
}

// process runs the batched pipeline for the given files against an
// existing session.
func (o *Orchestrator) process(ctx context.Context, session *models.Session, files []string, opts Options) (*Report, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	report := NewReport(session.ID)
	report.Total = len(files)

	writer := o.store.NewWriter(workers * 2)
	defer writer.Close()

	o.log.Info("organize run started",
		"session_id", session.ID,
		"files", len(files),
		"workers", workers,
		"batch_size", batchSize,
		"execute", opts.Execute)

	interrupted := false
	for start := 0; start < len(files); start += batchSize {
		// Cancellation is honored at batch boundaries only.
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		end := min(start+batchSize, len(files))
		batch := files[start:end]

		analyzed := o.analyzeBatch(ctx, batch, workers, writer, report)
		o.nameBatch(ctx, analyzed, report)

		if err := o.store.CheckpointSession(ctx, session.ID, report.Processed, report.Failed); err != nil {
			o.log.Warn("failed to checkpoint session", "session_id", session.ID, "error", err)
		}
	}

	if interrupted {
		if err := o.store.FinishSession(ctx, session.ID, models.SessionInterrupted); err != nil {
			o.log.Warn("failed to mark session interrupted", "session_id", session.ID, "error", err)
		}
		o.log.Warn("organize run interrupted", "session_id", session.ID, "processed", report.Processed)
		return report, ctx.Err()
	}

	if _, err := o.store.ResolveFilenameConflicts(ctx); err != nil {
		report.AddError("resolve conflicts", err)
	}

	// The execute list comes from the store, not the loop above, so a
	// resumed session also picks up records an earlier attempt named but
	// never moved.
	named, err := o.namedPaths(ctx, session.RootPath)
	if err != nil {
		_ = o.store.FinishSession(ctx, session.ID, models.SessionFailed)
		return report, err
	}

	if err := o.execute(ctx, session.ID, named, opts.Execute, report); err != nil {
		_ = o.store.FinishSession(ctx, session.ID, models.SessionFailed)
		return report, err
	}

	if err := o.store.FinishSession(ctx, session.ID, models.SessionCompleted); err != nil {
		o.log.Warn("failed to complete session", "session_id", session.ID, "error", err)
	}

	o.log.Info("organize run complete",
		"session_id", session.ID,
		"processed", report.Processed,
		"failed", report.Failed,
		"renamed", report.Renamed,
		"staged", report.Staged,
		"skipped", report.Skipped)
	return report, nil
}

// analyzeBatch fans the batch across the worker pool. Workers produce
// records; the store writer consumes them on a single goroutine, so no
// two goroutines ever write concurrently. Returns the paths that reached
// analyzed.
func (o *Orchestrator) analyzeBatch(ctx context.Context, batch []string, workers int, writer *store.Writer, report *Report) []string {
	results := make(chan *models.FileRecord, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	go func() {
		for _, path := range batch {
			path := path
			g.Go(func() error {
				results <- o.analyzeFile(gctx, path)
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	var analyzed []string
	for record := range results {
		stop := o.observe(metrics.OpStoreWrite)
		err := writer.Upsert(ctx, record)
		stop()
		if err != nil {
			// A persistence failure is per record; the batch continues.
			report.Failed++
			report.AddError(record.OriginalPath, err)
			continue
		}
		report.Processed++
		if record.Status == models.StatusAnalyzed {
			analyzed = append(analyzed, record.OriginalPath)
			report.TierCounts[record.QualityTier]++
		} else {
			report.Failed++
		}
	}
	return analyzed
}

// analyzeFile builds the persisted record for one path: stat, hash,
// analyze, score. Failures produce a failed record, never an aborted
// batch.
func (o *Orchestrator) analyzeFile(ctx context.Context, path string) *models.FileRecord {
	record := &models.FileRecord{
		OriginalPath: path,
		Status:       models.StatusDiscovered,
	}

	info, err := os.Stat(path)
	if err != nil {
		return o.failRecord(record, fmt.Errorf("stat: %w", err))
	}
	record.Size = info.Size()
	record.ModTime = info.ModTime()

	hash, err := hashFile(path)
	if err != nil {
		return o.failRecord(record, fmt.Errorf("hash: %w", err))
	}
	record.ContentHash = hash

	stop := o.observe(metrics.OpAnalyze)
	result, err := o.analyzer.Analyze(ctx, path)
	stop()
	if err != nil {
		return o.failRecord(record, fmt.Errorf("analysis: %w", err))
	}

	stop = o.observe(metrics.OpScore)
	integration := scoring.Score(result.Semantic, result.PGN)
	stop()
	payload, err := models.EncodeAnalysisPayload(*result, integration)
	if err != nil {
		return o.failRecord(record, err)
	}

	record.AnalysisJSON = payload
	record.EVSScore = integration.FinalEVS
	record.ContentQuality = integration.FinalScore
	record.QualityTier = integration.Tier
	record.GameType = result.PGN.GameType
	record.Status = models.StatusAnalyzed
	return record
}

func (o *Orchestrator) failRecord(record *models.FileRecord, err error) *models.FileRecord {
	o.log.Warn("analysis failed", "path", record.OriginalPath, "error", err)
	record.Status = models.StatusFailed
	record.ErrorMessage = err.Error()
	return record
}

// namedPaths lists every record under root waiting in the named status.
func (o *Orchestrator) namedPaths(ctx context.Context, root string) ([]string, error) {
	records, err := o.store.Query(ctx, store.QueryFilter{
		Status:     models.StatusNamed,
		PathPrefix: filepath.Clean(root) + string(os.PathSeparator),
	})
	if err != nil {
		return nil, fmt.Errorf("list named records: %w", err)
	}
	paths := make([]string, 0, len(records))
	for _, record := range records {
		paths = append(paths, record.OriginalPath)
	}
	return paths, nil
}

// nameBatch asks the naming collaborator for each analyzed record's
// target filename, sequentially (store writes stay serialized).
func (o *Orchestrator) nameBatch(ctx context.Context, analyzed []string, report *Report) {
	for _, path := range analyzed {
		record, err := o.store.Get(ctx, path)
		if err != nil {
			report.AddError(path, err)
			continue
		}
		payload, err := models.DecodeAnalysisPayload(record.AnalysisJSON)
		if err != nil {
			report.AddError(path, err)
			continue
		}

		filename, err := o.namer.Name(record, payload)
		if err != nil {
			report.AddError(path, fmt.Errorf("naming: %w", err))
			continue
		}

		if err := o.store.SetNewName(ctx, path, filename, filepath.Dir(path)); err != nil {
			report.AddError(path, err)
			continue
		}
		if err := o.store.Transition(ctx, path, models.StatusNamed, ""); err != nil {
			report.AddError(path, err)
		}
	}
}

func (o *Orchestrator) observe(op string) func() {
	if o.collector == nil {
		return func() {}
	}
	start := time.Now()
	return func() { o.collector.Record(op, time.Since(start)) }
}

// hashFile returns the hex SHA-256 of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
