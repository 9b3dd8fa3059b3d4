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

type platformMappingRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPlatformMappingRepository creates a new platform mapping repository
func NewPlatformMappingRepository(db *sql.DB, logger *zap.Logger) *platformMappingRepository {
	return &platformMappingRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces the mapping keyed by (organization_id,
// platform, platform_product_id). At most one mapping can exist per
// business key.
func (r *platformMappingRepository) Upsert(ctx context.Context, mapping *domain.PlatformMapping) error {
	query := `
		INSERT INTO platform_mappings (
			id, organization_id, master_product_id, platform, platform_product_id,
			sync_status, platform_data, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (organization_id, platform, platform_product_id) DO UPDATE SET
			master_product_id = EXCLUDED.master_product_id,
			sync_status = EXCLUDED.sync_status,
			platform_data = EXCLUDED.platform_data,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = now
	}
	mapping.UpdatedAt = now

	platformData, err := json.Marshal(mapping.PlatformData)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		mapping.ID,
		mapping.OrganizationID,
		mapping.MasterProductID,
		mapping.Platform,
		mapping.PlatformProductID,
		mapping.SyncStatus,
		platformData,
		mapping.CreatedAt,
		mapping.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to upsert platform mapping",
			zap.String("platform", mapping.Platform),
			zap.String("platform_product_id", mapping.PlatformProductID),
			zap.Error(err),
		)
		return &errors.ErrPersistence{Operation: "upsert mapping", Key: mapping.BusinessKey(), Err: err}
	}

	return nil
}

func (r *platformMappingRepository) GetByBusinessKey(ctx context.Context, organizationID, platform, platformProductID string) (*domain.PlatformMapping, error) {
	query := `
		SELECT id, master_product_id, platform, platform_product_id,
			sync_status, platform_data, created_at, updated_at
		FROM platform_mappings
		WHERE organization_id = $1 AND platform = $2 AND platform_product_id = $3
	`

	var mapping domain.PlatformMapping
	var platformData []byte

	err := r.db.QueryRowContext(ctx, query, organizationID, platform, platformProductID).Scan(
		&mapping.ID,
		&mapping.MasterProductID,
		&mapping.Platform,
		&mapping.PlatformProductID,
		&mapping.SyncStatus,
		&platformData,
		&mapping.CreatedAt,
		&mapping.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "platform mapping", ID: platform + ":" + platformProductID}
	}
	if err != nil {
		r.logger.Error("Failed to get platform mapping", zap.Error(err))
		return nil, err
	}

	if err := json.Unmarshal(platformData, &mapping.PlatformData); err != nil {
		return nil, err
	}
	mapping.OrganizationID = organizationID

	return &mapping, nil
}

func (r *platformMappingRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.PlatformMapping, error) {
	query := `
		SELECT id, master_product_id, platform, platform_product_id,
			sync_status, platform_data, created_at, updated_at
		FROM platform_mappings
		WHERE organization_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		r.logger.Error("Failed to list platform mappings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var mappings []*domain.PlatformMapping
	for rows.Next() {
		var mapping domain.PlatformMapping
		var platformData []byte

		err := rows.Scan(
			&mapping.ID,
			&mapping.MasterProductID,
			&mapping.Platform,
			&mapping.PlatformProductID,
			&mapping.SyncStatus,
			&platformData,
			&mapping.CreatedAt,
			&mapping.UpdatedAt,
		)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(platformData, &mapping.PlatformData); err != nil {
			continue
		}
		mapping.OrganizationID = organizationID
		mappings = append(mappings, &mapping)
	}
	return mappings, rows.Err()
}
