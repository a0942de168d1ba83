package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Import modes. Insert always creates new rows; upsert overwrites rows whose
// site_id matches the incoming record.
const (
	ModeInsert = "insert"
	ModeUpsert = "upsert"
)

// ValidMode reports whether m is a recognized import mode.
func ValidMode(m string) bool {
	return m == ModeInsert || m == ModeUpsert
}

// BulkWriter is the slice of the store the controller drives. BulkWrite
// returns the number of records it committed.
type BulkWriter[T any] interface {
	BulkWrite(ctx context.Context, records []T, mode string) (int, error)
	ResyncIDSequence(ctx context.Context) error
}

// ChunkFailure records one failed chunk of a bulk run.
type ChunkFailure struct {
	Chunk int    `json:"chunk"`
	Count int    `json:"count"`
	Error string `json:"error"`
}

// Result is the aggregate outcome of a bulk run. A non-empty Failures list
// means partial success: committed chunks are not rolled back.
type Result struct {
	BatchID        uuid.UUID      `json:"batch_id"`
	Processed      int            `json:"processed"`
	TotalRequested int            `json:"total_requested"`
	Failures       []ChunkFailure `json:"failures,omitempty"`
}

// Controller splits a candidate-record list into bounded chunks so each store
// write stays under the hosting platform's execution-time ceiling, retries
// transient chunk failures, and keeps going past chunks that fail for good.
type Controller[T any] struct {
	ChunkSize   int
	MaxAttempts int
	Limiter     *rate.Limiter
}

// DefaultChunkSize bounds one store write; override with INGEST_CHUNK_SIZE.
const DefaultChunkSize = 200

func NewController[T any]() *Controller[T] {
	size := DefaultChunkSize
	if v := os.Getenv("INGEST_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	return &Controller[T]{
		ChunkSize:   size,
		MaxAttempts: 3,
		// Pace chunk dispatch so one large import can't saturate the pool.
		Limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
}

// Run writes records through w in chunks. A chunk that still fails after
// retries is recorded and skipped, never aborting the chunks after it.
func (c *Controller[T]) Run(ctx context.Context, w BulkWriter[T], records []T, mode string) (Result, error) {
	res := Result{BatchID: uuid.New(), TotalRequested: len(records)}

	if !ValidMode(mode) {
		return res, fmt.Errorf("unknown import mode %q", mode)
	}
	if len(records) == 0 {
		return res, nil
	}

	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	for start, idx := 0, 0; start < len(records); start, idx = start+size, idx+1 {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				res.Failures = append(res.Failures, ChunkFailure{Chunk: idx, Count: len(chunk), Error: err.Error()})
				return res, nil
			}
		}

		written, err := c.writeChunk(ctx, w, chunk, mode)
		if err != nil {
			log.Printf("[Ingest] batch %s chunk %d failed (%d records): %v", res.BatchID, idx, len(chunk), err)
			res.Failures = append(res.Failures, ChunkFailure{Chunk: idx, Count: len(chunk), Error: err.Error()})
			continue
		}
		res.Processed += written
	}

	if res.Processed > 0 {
		if err := w.ResyncIDSequence(ctx); err != nil {
			log.Printf("[Ingest] batch %s: sequence resync failed: %v", res.BatchID, err)
		}
	}

	return res, nil
}

func (c *Controller[T]) writeChunk(ctx context.Context, w BulkWriter[T], chunk []T, mode string) (int, error) {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var written int
	op := func() error {
		n, err := w.BulkWrite(ctx, chunk, mode)
		if err != nil {
			return err
		}
		written = n
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(attempts-1))
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return 0, err
	}
	return written, nil
}
