package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jafarshop/catalogsync/internal/domain"
)

// MasterProductRepository is the master catalog store. Upserts are keyed by
// the unique business key (organization + master SKU); the storage layer
// must guarantee concurrent same-key writes converge to one surviving row.
type MasterProductRepository interface {
	Upsert(ctx context.Context, product *domain.MasterProduct) error
	GetByMasterSKU(ctx context.Context, organizationID, masterSKU string) (*domain.MasterProduct, error)
	List(ctx context.Context, organizationID string, limit, offset int) ([]*domain.MasterProduct, error)
	Count(ctx context.Context, organizationID string) (int, error)
	RecentImageURLs(ctx context.Context, organizationID string, cap int) ([]string, error)
}

// PlatformMappingRepository stores links between master products and
// marketplace listings.
type PlatformMappingRepository interface {
	Upsert(ctx context.Context, mapping *domain.PlatformMapping) error
	GetByBusinessKey(ctx context.Context, organizationID, platform, platformProductID string) (*domain.PlatformMapping, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*domain.PlatformMapping, error)
}

// RawBatchRepository is the append-only raw import store, replayed in
// insertion order for reconciliation.
type RawBatchRepository interface {
	Append(ctx context.Context, batch *domain.RawBatch) error
	CountRecords(ctx context.Context, organizationID, platform string) (int, error)
	ReadRecords(ctx context.Context, organizationID, platform string, limit, offset int) ([]json.RawMessage, error)
	SampleRecords(ctx context.Context, organizationID, platform string, n int) ([]json.RawMessage, error)
}

// SyncRunRepository is the durable log of population runs, used as the job
// tracker's fallback once the live queue has evicted a batch.
type SyncRunRepository interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	Finish(ctx context.Context, id uuid.UUID, run *domain.SyncRun) error
	ListByBatchID(ctx context.Context, batchID string) ([]*domain.SyncRun, error)
}

// Repositories bundles all repository implementations.
type Repositories struct {
	MasterProduct   MasterProductRepository
	PlatformMapping PlatformMappingRepository
	RawBatch        RawBatchRepository
	SyncRun         SyncRunRepository
}
