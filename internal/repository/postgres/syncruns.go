package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

type syncRunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSyncRunRepository creates a new sync run repository
func NewSyncRunRepository(db *sql.DB, logger *zap.Logger) *syncRunRepository {
	return &syncRunRepository{
		db:     db,
		logger: logger,
	}
}

func (r *syncRunRepository) Create(ctx context.Context, run *domain.SyncRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	errorCodes, err := json.Marshal(run.ErrorCodes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (
			id, batch_id, organization_id, platform, total_jobs,
			completed, failed, status, error_codes, started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		run.ID, run.BatchID, run.OrganizationID, run.Platform, run.TotalJobs,
		run.Completed, run.Failed, run.Status, errorCodes, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create sync run",
			zap.String("batch_id", run.BatchID),
			zap.Error(err),
		)
		return &errors.ErrPersistence{Operation: "create sync run", Key: run.BatchID, Err: err}
	}
	return nil
}

// Finish updates the run's counters and terminal status.
func (r *syncRunRepository) Finish(ctx context.Context, id uuid.UUID, run *domain.SyncRun) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}

	errorCodes, err := json.Marshal(run.ErrorCodes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE sync_runs
		SET total_jobs = $2, completed = $3, failed = $4, status = $5,
			error_codes = $6, finished_at = $7
		WHERE id = $1
	`, id, run.TotalJobs, run.Completed, run.Failed, run.Status, errorCodes, run.FinishedAt)
	if err != nil {
		r.logger.Error("Failed to finish sync run", zap.Error(err))
		return &errors.ErrPersistence{Operation: "finish sync run", Key: id.String(), Err: err}
	}
	return nil
}

func (r *syncRunRepository) ListByBatchID(ctx context.Context, batchID string) ([]*domain.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, batch_id, organization_id, platform, total_jobs,
			completed, failed, status, error_codes, started_at, finished_at
		FROM sync_runs
		WHERE batch_id = $1
		ORDER BY started_at
	`, batchID)
	if err != nil {
		r.logger.Error("Failed to list sync runs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.SyncRun
	for rows.Next() {
		var run domain.SyncRun
		var errorCodes []byte
		var finishedAt sql.NullTime

		err := rows.Scan(
			&run.ID, &run.BatchID, &run.OrganizationID, &run.Platform, &run.TotalJobs,
			&run.Completed, &run.Failed, &run.Status, &errorCodes, &run.StartedAt, &finishedAt,
		)
		if err != nil {
			continue
		}
		if len(errorCodes) > 0 {
			if err := json.Unmarshal(errorCodes, &run.ErrorCodes); err != nil {
				run.ErrorCodes = nil
			}
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
