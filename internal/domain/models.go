package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dimensions describes a product package in a single unit.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// PlatformPrice is the computed resale price for one marketplace.
type PlatformPrice struct {
	Price         float64   `json:"price"`
	FeePercentage float64   `json:"feePercentage"`
	CalculatedAt  time.Time `json:"calculatedAt"`
}

// ProductPricing holds the base price and the per-platform resale prices
// derived from it.
type ProductPricing struct {
	BasePrice      float64                  `json:"basePrice"`
	PlatformPrices map[string]PlatformPrice `json:"platformPrices,omitempty"`
}

// ProductVariant is a sellable variation of a master product.
type ProductVariant struct {
	SKU     string            `json:"sku"`
	Name    string            `json:"name"`
	Price   float64           `json:"price"`
	Stock   int               `json:"stock"`
	Options map[string]string `json:"options,omitempty"`
}

// MasterProduct is the canonical, platform-agnostic product record.
// MasterSKU is the unique business key across the whole catalog.
type MasterProduct struct {
	ID                 uuid.UUID         `json:"id"`
	MasterSKU          string            `json:"masterSku"`
	OrganizationID     string            `json:"organizationId"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	Weight             float64           `json:"weight"`
	Dimensions         Dimensions        `json:"dimensions"`
	Images             []string          `json:"images"`
	Category           string            `json:"category"`
	Brand              string            `json:"brand"`
	Pricing            ProductPricing    `json:"pricing"`
	SEOTitles          map[string]string `json:"seoTitles,omitempty"`
	Variants           []ProductVariant  `json:"variants,omitempty"`
	PlatformMappings   []PlatformMapping `json:"platformMappings,omitempty"`
	Status             ProductStatus     `json:"status"`
	DataQualityScore   int               `json:"dataQualityScore"`
	ValidationErrors   []string          `json:"validationErrors,omitempty"`
	ValidationWarnings []string          `json:"validationWarnings,omitempty"`
	ImportSource       string            `json:"importSource"`
	ImportedAt         time.Time         `json:"importedAt"`
	ImportBatchID      string            `json:"importBatchId"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// PlatformMapping links a master product to one external marketplace listing.
// At most one active mapping may exist per (platform, platformProductId).
type PlatformMapping struct {
	ID                uuid.UUID    `json:"id"`
	OrganizationID    string       `json:"organizationId"`
	MasterProductID   uuid.UUID    `json:"masterProductId"`
	Platform          string       `json:"platform"`
	PlatformProductID string       `json:"platformProductId"`
	SyncStatus        SyncStatus   `json:"syncStatus"`
	PlatformData      PlatformData `json:"platformData"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// BusinessKey is the deduplication key for a mapping: platform + native id.
func (m *PlatformMapping) BusinessKey() string {
	return m.Platform + ":" + m.PlatformProductID
}

// PlatformFeeConfig is one marketplace's fee schedule. Percentages are in
// [0,100]; FixedFee and MinimumPrice are absolute currency amounts.
type PlatformFeeConfig struct {
	Platform             string  `json:"platform"`
	FeePercentage        float64 `json:"feePercentage"`
	PaymentFeePercentage float64 `json:"paymentFeePercentage"`
	FixedFee             float64 `json:"fixedFee"`
	MinimumPrice         float64 `json:"minimumPrice"`
	IsActive             bool    `json:"isActive"`
}

// CanonicalRecord is the platform-neutral intermediate produced by an
// adapter before a MasterProduct is assembled.
type CanonicalRecord struct {
	Platform          string       `json:"platform"`
	PlatformProductID string       `json:"platformProductId"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	Price             float64      `json:"price"`
	Weight            float64      `json:"weight"`
	Dimensions        Dimensions   `json:"dimensions"`
	Images            []string     `json:"images"`
	Category          string       `json:"category"`
	Brand             string       `json:"brand"`
	PriceEstimated    bool         `json:"priceEstimated"`
	PlatformData      PlatformData `json:"platformData"`
}

// RawBatch is one appended chunk of raw marketplace records, replayed in
// insertion order during reconciliation.
type RawBatch struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Platform       string    `json:"platform"`
	BatchID        string    `json:"batchId"`
	Records        [][]byte  `json:"-"`
	RecordCount    int       `json:"recordCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

// SyncRun is the durable audit record of one population run. The job
// tracker reconstructs batch status from it after queue eviction.
type SyncRun struct {
	ID             uuid.UUID  `json:"id"`
	BatchID        string     `json:"batchId"`
	OrganizationID string     `json:"organizationId"`
	Platform       string     `json:"platform"`
	TotalJobs      int        `json:"totalJobs"`
	Completed      int        `json:"completed"`
	Failed         int        `json:"failed"`
	Status         BatchState `json:"status"`
	ErrorCodes     map[string]int `json:"errorCodes,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
}

// ErrorSummary aggregates failed queue entries by error code.
type ErrorSummary struct {
	TotalErrors      int            `json:"totalErrors"`
	ErrorTypesByCode map[string]int `json:"errorTypes"`
}

// BatchJobStatus is the derived, human-facing view of one batch's progress.
// Never persisted: always rebuilt from the queue or the sync run log.
type BatchJobStatus struct {
	BatchID                 string       `json:"batchId"`
	TotalJobs               int          `json:"totalJobs"`
	Completed               int          `json:"completed"`
	Failed                  int          `json:"failed"`
	InProgress              int          `json:"inProgress"`
	Queued                  int          `json:"queued"`
	Status                  BatchState   `json:"status"`
	ProgressPercentage      int          `json:"progressPercentage"`
	EstimatedCompletionTime string       `json:"estimatedCompletionTime,omitempty"`
	StartedAt               *time.Time   `json:"startedAt,omitempty"`
	FinishedAt              *time.Time   `json:"finishedAt,omitempty"`
	ErrorSummary            ErrorSummary `json:"errorSummary"`
}

// QueueSnapshot is the queue-wide view across all batches.
type QueueSnapshot struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
	Total     int64 `json:"total"`
}
