package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"transcribr/internal/logging"
	"transcribr/internal/services"
)

// Archiver rebuilds the aggregate bundle of the output directory.
type Archiver interface {
	Rebuild(ctx context.Context) (string, error)
}

// Outcome is the per-upload record of a batch.
type Outcome struct {
	Result Result
	Err    error
}

// Failed reports whether the job ended in an error.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Progress is reported after each job of a batch finishes.
type Progress struct {
	BatchID string
	Done    int
	Total   int
	Outcome Outcome
}

// ProgressFunc receives batch progress updates.
type ProgressFunc func(Progress)

// Runner processes batches of uploads sequentially.
type Runner struct {
	processor *Processor
	archiver  Archiver
	lockPath  string
	logger    *slog.Logger
}

// NewRunner returns a Runner that locks lockPath for the duration of a batch.
func NewRunner(processor *Processor, archiver Archiver, lockPath string, logger *slog.Logger) *Runner {
	return &Runner{
		processor: processor,
		archiver:  archiver,
		lockPath:  lockPath,
		logger:    logging.NewComponentLogger(logger, "runner"),
	}
}

// Run processes uploads in order. A failed job is recorded in its Outcome and
// the batch continues. The archive is rebuilt after every job that completes
// and once more when the batch ends; a rebuild failure stops the batch and is
// returned with the outcomes so far.
func (r *Runner) Run(ctx context.Context, uploads []Upload, req Request, onProgress ProgressFunc) ([]Outcome, error) {
	lock, err := AcquireOutputLock(r.lockPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	batchID := uuid.NewString()
	ctx = services.WithRequestID(ctx, batchID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("batch started",
		logging.Int("uploads", len(uploads)),
		logging.String("language", req.Language),
		logging.String("tier", string(req.Tier)),
	)

	outcomes := make([]Outcome, 0, len(uploads))
	completed := 0
	for i, upload := range uploads {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		result, procErr := r.processor.Process(ctx, upload, req)
		outcome := Outcome{Result: result, Err: procErr}
		outcomes = append(outcomes, outcome)

		if procErr != nil {
			logging.WarnWithContext(logger, "job failed", "job_failed",
				logging.String(logging.FieldJob, result.Filename),
				logging.Error(procErr),
			)
		} else {
			completed++
			if _, err := r.archiver.Rebuild(ctx); err != nil {
				return outcomes, fmt.Errorf("rebuild archive after %s: %w", result.Filename, err)
			}
		}
		if onProgress != nil {
			onProgress(Progress{BatchID: batchID, Done: i + 1, Total: len(uploads), Outcome: outcome})
		}
	}

	if _, err := r.archiver.Rebuild(ctx); err != nil {
		return outcomes, fmt.Errorf("rebuild archive: %w", err)
	}
	logger.Info("batch finished",
		logging.Int("completed", completed),
		logging.Int("failed", len(uploads)-completed),
	)
	return outcomes, nil
}
