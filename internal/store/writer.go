package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/pgnkit/curator/internal/models"
)

// writeRequest carries one upsert and the channel its outcome is answered
// on. One write fails one requester, never the batch.
type writeRequest struct {
	record *models.FileRecord
	reply  chan error
}

// Writer serializes all record writes from analyzer workers onto a single
// goroutine. Workers fan results into the request channel; the store never
// sees concurrent writers.
type Writer struct {
	store *Store
	reqs  chan writeRequest
	done  chan struct{}
}

// NewWriter starts the writer goroutine with a bounded request queue.
func (s *Store) NewWriter(buffer int) *Writer {
	if buffer <= 0 {
		buffer = 64
	}
	w := &Writer{
		store: s,
		reqs:  make(chan writeRequest, buffer),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// run drains the request queue until Close.
func (w *Writer) run() {
	defer close(w.done)
	for req := range w.reqs {
		req.reply <- w.upsertWithRetry(req.record)
	}
}

// upsertWithRetry retries transient SQLite lock errors with a short
// fibonacci backoff; anything else fails immediately.
func (w *Writer) upsertWithRetry(record *models.FileRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := retry.NewFibonacci(20 * time.Millisecond)
	return retry.Do(ctx, retry.WithMaxRetries(5, b), func(ctx context.Context) error {
		err := w.store.Upsert(ctx, record)
		if isBusy(err) {
			w.store.log.Warn("database busy, retrying write", "path", record.OriginalPath)
			return retry.RetryableError(err)
		}
		return err
	})
}

// Upsert submits a record to the writer and waits for its outcome.
func (w *Writer) Upsert(ctx context.Context, record *models.FileRecord) error {
	reply := make(chan error, 1)
	select {
	case w.reqs <- writeRequest{record: record, reply: reply}:
	case <-ctx.Done():
		return fmt.Errorf("submit write: %w", ctx.Err())
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return fmt.Errorf("await write: %w", ctx.Err())
	}
}

// Close stops the writer after draining queued requests.
func (w *Writer) Close() {
	close(w.reqs)
	<-w.done
}
