package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// fakeQueue serves canned counts per batch id.
type fakeQueue struct {
	counts   map[string]BatchCounts
	codes    map[string]map[string]int
	snapshot domain.QueueSnapshot
	down     bool
}

func (q *fakeQueue) BatchCounts(_ context.Context, batchID string) (BatchCounts, error) {
	if q.down {
		return BatchCounts{}, fmt.Errorf("redis unreachable")
	}
	return q.counts[batchID], nil
}

func (q *fakeQueue) FailedErrorCodes(_ context.Context, batchID string) (map[string]int, error) {
	if q.down {
		return nil, fmt.Errorf("redis unreachable")
	}
	return q.codes[batchID], nil
}

func (q *fakeQueue) Snapshot(context.Context) (domain.QueueSnapshot, error) {
	if q.down {
		return domain.QueueSnapshot{}, fmt.Errorf("redis unreachable")
	}
	return q.snapshot, nil
}

// fakeRunLog is an in-memory sync run log.
type fakeRunLog struct {
	runs []*domain.SyncRun
}

func (l *fakeRunLog) Create(_ context.Context, run *domain.SyncRun) error {
	l.runs = append(l.runs, run)
	return nil
}

func (l *fakeRunLog) Finish(_ context.Context, id uuid.UUID, run *domain.SyncRun) error {
	return nil
}

func (l *fakeRunLog) ListByBatchID(_ context.Context, batchID string) ([]*domain.SyncRun, error) {
	var out []*domain.SyncRun
	for _, r := range l.runs {
		if r.BatchID == batchID {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestTracker(queue QueueReader, runs *fakeRunLog) *Tracker {
	return NewTracker(queue, runs, zap.NewNop())
}

func TestBatchStatusAllCompleted(t *testing.T) {
	queue := &fakeQueue{counts: map[string]BatchCounts{
		"batch-1": {Completed: 10},
	}}
	tracker := newTestTracker(queue, &fakeRunLog{})

	status, err := tracker.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, domain.BatchStateCompleted, status.Status)
	assert.Equal(t, 100, status.ProgressPercentage)
	assert.Equal(t, 10, status.TotalJobs)
	assert.Empty(t, status.EstimatedCompletionTime)
	assert.Zero(t, status.ErrorSummary.TotalErrors)
}

func TestBatchStatusProcessing(t *testing.T) {
	queue := &fakeQueue{counts: map[string]BatchCounts{
		"batch-1": {Waiting: 5, Active: 2, Completed: 3},
	}}
	tracker := newTestTracker(queue, &fakeRunLog{})

	status, err := tracker.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, domain.BatchStateProcessing, status.Status)
	assert.Equal(t, 30, status.ProgressPercentage)
	assert.Equal(t, 5, status.Queued)
	assert.Equal(t, 2, status.InProgress)
	assert.NotEmpty(t, status.EstimatedCompletionTime)
}

func TestBatchStatusMixedOutcome(t *testing.T) {
	queue := &fakeQueue{
		counts: map[string]BatchCounts{
			"batch-1": {Completed: 7, Failed: 3},
		},
		codes: map[string]map[string]int{
			"batch-1": {"TRANSFORM_ERROR": 2, "PERSISTENCE_ERROR": 1},
		},
	}
	tracker := newTestTracker(queue, &fakeRunLog{})

	status, err := tracker.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, domain.BatchStateMixed, status.Status)
	assert.Equal(t, 100, status.ProgressPercentage)
	assert.Equal(t, 3, status.ErrorSummary.TotalErrors)
	assert.Equal(t, 2, status.ErrorSummary.ErrorTypesByCode["TRANSFORM_ERROR"])
}

func TestBatchStatusAllFailed(t *testing.T) {
	queue := &fakeQueue{counts: map[string]BatchCounts{
		"batch-1": {Failed: 4},
	}}
	tracker := newTestTracker(queue, &fakeRunLog{})

	status, err := tracker.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStateFailed, status.Status)
}

func TestBatchStatusFallsBackToLogWhenQueueDown(t *testing.T) {
	started := time.Now().Add(-10 * time.Minute)
	finished := started.Add(3 * time.Minute)
	log := &fakeRunLog{runs: []*domain.SyncRun{
		{
			BatchID:    "batch-1",
			Platform:   domain.PlatformShopee,
			TotalJobs:  6,
			Completed:  6,
			StartedAt:  started,
			FinishedAt: &finished,
		},
		{
			BatchID:    "batch-1",
			Platform:   domain.PlatformTikTok,
			TotalJobs:  4,
			Completed:  3,
			Failed:     1,
			ErrorCodes: map[string]int{"TRANSFORM_ERROR": 1},
			StartedAt:  started.Add(time.Second),
			FinishedAt: &finished,
		},
	}}
	tracker := newTestTracker(&fakeQueue{down: true}, log)

	status, err := tracker.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, 10, status.TotalJobs)
	assert.Equal(t, 9, status.Completed)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, domain.BatchStateMixed, status.Status)
	assert.Equal(t, 100, status.ProgressPercentage, "the log only holds finished runs")
	require.NotNil(t, status.StartedAt)
	assert.True(t, status.StartedAt.Equal(started), "earliest platform start wins")
	require.NotNil(t, status.FinishedAt)
	assert.Equal(t, 1, status.ErrorSummary.ErrorTypesByCode["TRANSFORM_ERROR"])
}

func TestBatchStatusEvictedBatchUsesLog(t *testing.T) {
	log := &fakeRunLog{runs: []*domain.SyncRun{
		{BatchID: "batch-1", TotalJobs: 3, Completed: 3, StartedAt: time.Now()},
	}}
	tracker := newTestTracker(&fakeQueue{}, log)

	status, err := tracker.BatchStatus(context.Background(), "batch-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStateCompleted, status.Status)
	assert.Equal(t, 100, status.ProgressPercentage)
}

func TestBatchStatusUnknownBatch(t *testing.T) {
	tracker := newTestTracker(&fakeQueue{}, &fakeRunLog{})

	_, err := tracker.BatchStatus(context.Background(), "no-such-batch")
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestEstimateCompletion(t *testing.T) {
	// 10 remaining, 2 active workers: 10 * 2.5s / 2 = 12.5s.
	assert.Equal(t, "13 seconds", estimateCompletion(10, 2))

	// No active workers yet: divisor is capped at maxConcurrency.
	// 100 * 2.5s / 5 = 50s.
	assert.Equal(t, "50 seconds", estimateCompletion(100, 0))

	// 200 * 2.5s / 5 = 100s = 1.7 minutes.
	assert.Equal(t, "1.7 minutes", estimateCompletion(200, 8))
}

func TestQueueSnapshotPassThrough(t *testing.T) {
	queue := &fakeQueue{snapshot: domain.QueueSnapshot{
		Waiting: 3, Active: 1, Completed: 20, Failed: 2, Delayed: 1, Total: 27,
	}}
	tracker := newTestTracker(queue, &fakeRunLog{})

	snap, err := tracker.QueueSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(27), snap.Total)
	assert.Equal(t, int64(3), snap.Waiting)
}

func TestDeriveState(t *testing.T) {
	assert.Equal(t, domain.BatchStateProcessing, deriveState(BatchCounts{Active: 1, Waiting: 4}))
	assert.Equal(t, domain.BatchStateCompleted, deriveState(BatchCounts{Completed: 5}))
	assert.Equal(t, domain.BatchStateFailed, deriveState(BatchCounts{Failed: 5}))
	assert.Equal(t, domain.BatchStateMixed, deriveState(BatchCounts{Completed: 3, Failed: 2}))
	assert.Equal(t, domain.BatchStateQueued, deriveState(BatchCounts{Waiting: 5}))
}
