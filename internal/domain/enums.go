package domain

// Supported marketplace identifiers.
const (
	PlatformShopee  = "shopee"
	PlatformTikTok  = "tiktokshop"
	PlatformUnknown = "unknown"
)

// ProductStatus represents the lifecycle state of a master product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid checks if the product status is valid
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft, ProductStatusArchived:
		return true
	default:
		return false
	}
}

// SyncStatus represents the state of a platform mapping.
type SyncStatus string

const (
	SyncStatusSynced   SyncStatus = "synced"
	SyncStatusPending  SyncStatus = "pending"
	SyncStatusError    SyncStatus = "error"
	SyncStatusDisabled SyncStatus = "disabled"
)

// IsValid checks if the sync status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusSynced, SyncStatusPending, SyncStatusError, SyncStatusDisabled:
		return true
	default:
		return false
	}
}

// BatchState represents the derived state of a batch population run.
type BatchState string

const (
	BatchStateQueued     BatchState = "queued"
	BatchStateProcessing BatchState = "processing"
	BatchStateCompleted  BatchState = "completed"
	BatchStateFailed     BatchState = "failed"
	BatchStateMixed      BatchState = "mixed"
)

// Terminal reports whether no further progress is possible for the batch.
func (s BatchState) Terminal() bool {
	switch s {
	case BatchStateCompleted, BatchStateFailed, BatchStateMixed:
		return true
	default:
		return false
	}
}
