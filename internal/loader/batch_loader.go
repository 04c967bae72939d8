// Package loader submits question records to storage in fixed-size batches.
package loader

import (
	"context"
	"time"

	"quizbank/internal/domain"
)

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 50

// InsertFunc stores one batch and reports how many records were inserted.
type InsertFunc func(ctx context.Context, batch []domain.QuestionRecord) (int, error)

// Options configures a load.
type Options struct {
	BatchSize int
	// Pause is waited between consecutive batches.
	Pause time.Duration
	// SourceFile is copied into every BatchError for diagnostics.
	SourceFile string
}

// Summary is the outcome of one Load call.
type Summary struct {
	Submitted int
	Inserted  int
	Failed    int
	Batches   int
	Errors    []domain.BatchError
}

// Add merges other into s.
func (s *Summary) Add(other Summary) {
	s.Submitted += other.Submitted
	s.Inserted += other.Inserted
	s.Failed += other.Failed
	s.Batches += other.Batches
	s.Errors = append(s.Errors, other.Errors...)
}

// Partition splits records into contiguous chunks of at most size records.
// The chunks share the backing array of records.
func Partition(records []domain.QuestionRecord, size int) [][]domain.QuestionRecord {
	if size < 1 {
		size = DefaultBatchSize
	}
	chunks := make([][]domain.QuestionRecord, 0, (len(records)+size-1)/size)
	for i := 0; i < len(records); i += size {
		end := i + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[i:end:end])
	}
	return chunks
}

// Load submits records to sink one batch at a time, in order, waiting for
// each outcome before the next. A failed batch is recorded and the load
// continues; nothing is retried. Once ctx is done the remaining batches are
// recorded as failed without being submitted.
func Load(ctx context.Context, records []domain.QuestionRecord, opts Options, sink InsertFunc) Summary {
	var sum Summary
	size := opts.BatchSize
	if size < 1 {
		size = DefaultBatchSize
	}

	for i, batch := range Partition(records, size) {
		sum.Batches++
		sum.Submitted += len(batch)

		if i > 0 && opts.Pause > 0 {
			wait(ctx, opts.Pause)
		}

		var (
			n   int
			err error
		)
		if err = ctx.Err(); err == nil {
			n, err = sink(ctx, batch)
		}
		if err != nil {
			sum.Failed += len(batch)
			sum.Errors = append(sum.Errors, domain.BatchError{
				SourceFile: opts.SourceFile,
				Index:      i,
				Offset:     i * size,
				Size:       len(batch),
				Message:    err.Error(),
			})
			continue
		}
		sum.Inserted += n
	}
	return sum
}

func wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
