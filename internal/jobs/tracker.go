package jobs

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/internal/repository"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// ETA model constants: a fixed average job duration and worker ceiling.
const (
	avgSecondsPerJob = 2.5
	maxConcurrency   = 5
)

// Tracker derives batch progress on demand from the live queue, falling
// back to the durable sync run log once the queue has evicted the batch.
// It holds no timers or subscriptions; every call re-derives from scratch.
type Tracker struct {
	queue  QueueReader
	runs   repository.SyncRunRepository
	logger *zap.Logger
}

// NewTracker creates a new tracker
func NewTracker(queue QueueReader, runs repository.SyncRunRepository, logger *zap.Logger) *Tracker {
	return &Tracker{
		queue:  queue,
		runs:   runs,
		logger: logger,
	}
}

// BatchStatus derives the current status of one batch.
func (t *Tracker) BatchStatus(ctx context.Context, batchID string) (*domain.BatchJobStatus, error) {
	counts, err := t.queue.BatchCounts(ctx, batchID)
	if err != nil {
		t.logger.Warn("live queue unavailable, using durable log",
			zap.String("batch_id", batchID),
			zap.Error(err),
		)
		return t.statusFromLog(ctx, batchID)
	}

	if counts.Total() == 0 {
		// Evicted after completion, or never enqueued.
		return t.statusFromLog(ctx, batchID)
	}

	status := &domain.BatchJobStatus{
		BatchID:    batchID,
		TotalJobs:  counts.Total(),
		Completed:  counts.Completed,
		Failed:     counts.Failed,
		InProgress: counts.Active,
		Queued:     counts.Waiting,
		Status:     deriveState(counts),
	}

	done := counts.Completed + counts.Failed
	status.ProgressPercentage = int(math.Round(float64(done) / float64(counts.Total()) * 100))

	if remaining := counts.Waiting + counts.Active; remaining > 0 {
		status.EstimatedCompletionTime = estimateCompletion(remaining, counts.Active)
	}

	if codes, err := t.queue.FailedErrorCodes(ctx, batchID); err == nil {
		status.ErrorSummary = summarize(codes)
	} else {
		t.logger.Warn("failed to read batch error codes", zap.Error(err))
	}

	return status, nil
}

// QueueSnapshot returns the queue-wide view across all batches.
func (t *Tracker) QueueSnapshot(ctx context.Context) (domain.QueueSnapshot, error) {
	return t.queue.Snapshot(ctx)
}

// deriveState maps live counts onto the batch state machine.
func deriveState(counts BatchCounts) domain.BatchState {
	total := counts.Total()
	switch {
	case counts.Active > 0:
		return domain.BatchStateProcessing
	case counts.Completed == total:
		return domain.BatchStateCompleted
	case counts.Failed == total:
		return domain.BatchStateFailed
	case counts.Completed+counts.Failed == total && counts.Completed > 0 && counts.Failed > 0:
		return domain.BatchStateMixed
	default:
		return domain.BatchStateQueued
	}
}

// statusFromLog reconstructs the same shape from the durable sync run log.
// Progress is fixed at 100: the log only holds finished runs.
func (t *Tracker) statusFromLog(ctx context.Context, batchID string) (*domain.BatchJobStatus, error) {
	runs, err := t.runs.ListByBatchID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, &errors.ErrNotFound{Resource: "batch", ID: batchID}
	}

	status := &domain.BatchJobStatus{
		BatchID:            batchID,
		Status:             domain.BatchStateCompleted,
		ProgressPercentage: 100,
	}

	mergedCodes := make(map[string]int)
	for _, run := range runs {
		status.TotalJobs += run.TotalJobs
		status.Completed += run.Completed
		status.Failed += run.Failed
		for code, count := range run.ErrorCodes {
			mergedCodes[code] += count
		}
		if status.StartedAt == nil || run.StartedAt.Before(*status.StartedAt) {
			started := run.StartedAt
			status.StartedAt = &started
		}
		if run.FinishedAt != nil && (status.FinishedAt == nil || run.FinishedAt.After(*status.FinishedAt)) {
			status.FinishedAt = run.FinishedAt
		}
	}

	switch {
	case status.Failed == 0:
		status.Status = domain.BatchStateCompleted
	case status.Completed == 0:
		status.Status = domain.BatchStateFailed
	default:
		status.Status = domain.BatchStateMixed
	}

	status.ErrorSummary = summarize(mergedCodes)
	return status, nil
}

// estimateCompletion projects time to drain the remaining jobs given the
// fixed per-job average and worker ceiling.
func estimateCompletion(remaining, active int) string {
	divisor := active
	if divisor == 0 {
		divisor = remaining
	}
	if divisor > maxConcurrency {
		divisor = maxConcurrency
	}

	seconds := float64(remaining) * avgSecondsPerJob / float64(divisor)
	if seconds < 60 {
		return fmt.Sprintf("%.0f seconds", math.Ceil(seconds))
	}
	return fmt.Sprintf("%.1f minutes", seconds/60)
}

func summarize(codes map[string]int) domain.ErrorSummary {
	summary := domain.ErrorSummary{ErrorTypesByCode: codes}
	for _, count := range codes {
		summary.TotalErrors += count
	}
	if summary.ErrorTypesByCode == nil {
		summary.ErrorTypesByCode = map[string]int{}
	}
	return summary
}
