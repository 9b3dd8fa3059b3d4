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

type rawBatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRawBatchRepository creates a new raw batch repository
func NewRawBatchRepository(db *sql.DB, logger *zap.Logger) *rawBatchRepository {
	return &rawBatchRepository{
		db:     db,
		logger: logger,
	}
}

// Append stores a raw batch and its records. The store is append-only:
// records are never updated in place.
func (r *rawBatchRepository) Append(ctx context.Context, batch *domain.RawBatch) error {
	now := time.Now()
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = now
	}
	batch.RecordCount = len(batch.Records)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &errors.ErrFatalIO{Resource: "raw batch store", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO raw_batches (id, organization_id, platform, batch_id, record_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, batch.ID, batch.OrganizationID, batch.Platform, batch.BatchID, batch.RecordCount, batch.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to append raw batch", zap.Error(err))
		return &errors.ErrPersistence{Operation: "append batch", Key: batch.BatchID, Err: err}
	}

	for seq, record := range batch.Records {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO raw_records (batch_id, seq, organization_id, platform, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, batch.ID, seq, batch.OrganizationID, batch.Platform, record, batch.CreatedAt)
		if err != nil {
			r.logger.Error("Failed to append raw record",
				zap.String("batch_id", batch.BatchID),
				zap.Int("seq", seq),
				zap.Error(err),
			)
			return &errors.ErrPersistence{Operation: "append record", Key: batch.BatchID, Err: err}
		}
	}

	return tx.Commit()
}

func (r *rawBatchRepository) CountRecords(ctx context.Context, organizationID, platform string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM raw_records
		WHERE organization_id = $1 AND platform = $2
	`, organizationID, platform).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count raw records", zap.Error(err))
		return 0, &errors.ErrFatalIO{Resource: "raw batch store", Err: err}
	}
	return count, nil
}

// ReadRecords replays raw records in insertion order.
func (r *rawBatchRepository) ReadRecords(ctx context.Context, organizationID, platform string, limit, offset int) ([]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM raw_records
		WHERE organization_id = $1 AND platform = $2
		ORDER BY created_at, batch_id, seq
		LIMIT $3 OFFSET $4
	`, organizationID, platform, limit, offset)
	if err != nil {
		r.logger.Error("Failed to read raw records", zap.Error(err))
		return nil, &errors.ErrFatalIO{Resource: "raw batch store", Err: err}
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		records = append(records, json.RawMessage(payload))
	}
	return records, rows.Err()
}

// SampleRecords returns up to n recent records for the validator's raw
// data spot check.
func (r *rawBatchRepository) SampleRecords(ctx context.Context, organizationID, platform string, n int) ([]json.RawMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM raw_records
		WHERE organization_id = $1 AND platform = $2
		ORDER BY created_at DESC, seq
		LIMIT $3
	`, organizationID, platform, n)
	if err != nil {
		r.logger.Error("Failed to sample raw records", zap.Error(err))
		return nil, &errors.ErrFatalIO{Resource: "raw batch store", Err: err}
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		records = append(records, json.RawMessage(payload))
	}
	return records, rows.Err()
}
