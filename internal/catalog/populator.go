package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/internal/platform"
	"github.com/jafarshop/catalogsync/internal/pricing"
	"github.com/jafarshop/catalogsync/internal/repository"
	"github.com/jafarshop/catalogsync/internal/seo"
	"github.com/jafarshop/catalogsync/internal/validator"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// PopulateConfig drives one population run.
type PopulateConfig struct {
	OrganizationID string   `json:"organizationId" binding:"required"`
	BatchSize      int      `json:"batchSize" binding:"required,min=1"`
	SkipExisting   bool     `json:"skipExisting"`
	DryRun         bool     `json:"dryRun"`
	Platforms      []string `json:"platforms" binding:"required,min=1"`

	// TreatRecordErrorsAsFailure flips Success to false when any record
	// fails. The historical policy (default) reports success as long as
	// every batch read succeeded, even if every record failed.
	TreatRecordErrorsAsFailure bool `json:"treatRecordErrorsAsFailure"`
}

// PlatformSummary accumulates per-platform counters for one run.
type PlatformSummary struct {
	Processed         int     `json:"processed"`
	Succeeded         int     `json:"succeeded"`
	Failed            int     `json:"failed"`
	Skipped           int     `json:"skipped"`
	MappingsCreated   int     `json:"mappingsCreated"`
	AverageFinalPrice float64 `json:"averageFinalPrice"`
	AverageSEOQuality float64 `json:"averageSeoQuality"`
}

// PopulationResult is the structured outcome of one run.
type PopulationResult struct {
	BatchID         string                      `json:"batchId"`
	Success         bool                        `json:"success"`
	TotalProcessed  int                         `json:"totalProcessed"`
	SuccessCount    int                         `json:"successCount"`
	ErrorCount      int                         `json:"errorCount"`
	SkippedProducts int                         `json:"skippedProducts"`
	Errors          []errors.RecordError        `json:"errors,omitempty"`
	Summary         map[string]*PlatformSummary `json:"summary"`
	DryRun          bool                        `json:"dryRun"`
}

// Populator reconciles raw marketplace imports into the master catalog.
type Populator struct {
	repos    *repository.Repositories
	adapters *platform.Registry
	pricing  *pricing.Engine
	seo      *seo.Generator
	logger   *zap.Logger
}

// NewPopulator creates a new populator
func NewPopulator(
	repos *repository.Repositories,
	adapters *platform.Registry,
	pricingEngine *pricing.Engine,
	seoGenerator *seo.Generator,
	logger *zap.Logger,
) *Populator {
	return &Populator{
		repos:    repos,
		adapters: adapters,
		pricing:  pricingEngine,
		seo:      seoGenerator,
		logger:   logger,
	}
}

var skuPrefixes = map[string]string{
	domain.PlatformShopee: "SHP",
	domain.PlatformTikTok: "TTS",
}

// MasterSKU derives the deterministic master SKU for a platform-native id:
// platform prefix + native id + short disambiguating hash suffix. The same
// input always produces the same SKU, which is what makes repeated runs
// idempotent.
func MasterSKU(platformID, nativeID string) string {
	prefix, ok := skuPrefixes[platformID]
	if !ok {
		prefix = strings.ToUpper(platformID)
		if len(prefix) > 3 {
			prefix = prefix[:3]
		}
	}
	h := fnv.New32a()
	h.Write([]byte(platformID + ":" + nativeID))
	return fmt.Sprintf("%s-%s-%04X", prefix, nativeID, h.Sum32()&0xFFFF)
}

// platformRunState carries one platform's in-flight counters.
type platformRunState struct {
	summary    PlatformSummary
	errs       []errors.RecordError
	errorCodes map[string]int
	readFailed bool
	priceSum   float64
	priceCount int
	seoSum     float64
	seoCount   int
}

// PopulateFromImports runs the reconciliation pipeline for every requested
// platform. Platforms run concurrently; within a platform, chunks are
// processed sequentially in insertion order. A record's failure never
// aborts its batch.
func (p *Populator) PopulateFromImports(ctx context.Context, cfg PopulateConfig) (*PopulationResult, error) {
	if cfg.OrganizationID == "" {
		return nil, &errors.ErrValidation{Field: "organizationId", Message: "is required"}
	}
	if cfg.BatchSize <= 0 {
		return nil, &errors.ErrValidation{Field: "batchSize", Message: "must be positive"}
	}
	if len(cfg.Platforms) == 0 {
		return nil, &errors.ErrValidation{Field: "platforms", Message: "at least one platform is required"}
	}

	batchID := uuid.NewString()
	result := &PopulationResult{
		BatchID: batchID,
		Summary: make(map[string]*PlatformSummary, len(cfg.Platforms)),
		DryRun:  cfg.DryRun,
	}

	p.logger.Info("starting population run",
		zap.String("batch_id", batchID),
		zap.String("organization_id", cfg.OrganizationID),
		zap.Strings("platforms", cfg.Platforms),
		zap.Bool("dry_run", cfg.DryRun),
	)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	anyReadFailed := false

	for _, platformID := range cfg.Platforms {
		wg.Add(1)
		go func(platformID string) {
			defer wg.Done()
			state := p.populatePlatform(ctx, cfg, batchID, platformID)

			mu.Lock()
			defer mu.Unlock()
			summary := state.summary
			result.Summary[platformID] = &summary
			result.TotalProcessed += summary.Processed
			result.SuccessCount += summary.Succeeded
			result.ErrorCount += summary.Failed
			result.SkippedProducts += summary.Skipped
			result.Errors = append(result.Errors, state.errs...)
			if state.readFailed {
				anyReadFailed = true
			}
		}(platformID)
	}
	wg.Wait()

	result.Success = !anyReadFailed
	if cfg.TreatRecordErrorsAsFailure && result.ErrorCount > 0 {
		result.Success = false
	}

	p.logger.Info("population run finished",
		zap.String("batch_id", batchID),
		zap.Bool("success", result.Success),
		zap.Int("processed", result.TotalProcessed),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.ErrorCount),
		zap.Int("skipped", result.SkippedProducts),
	)
	return result, nil
}

func (p *Populator) populatePlatform(ctx context.Context, cfg PopulateConfig, batchID, platformID string) *platformRunState {
	state := &platformRunState{errorCodes: make(map[string]int)}

	adapter, err := p.adapters.ForPlatform(platformID)
	if err != nil {
		state.errs = append(state.errs, errors.NewRecordError("", platformID, err))
		state.errorCodes[errorCode(err)]++
		return state
	}

	total, err := p.repos.RawBatch.CountRecords(ctx, cfg.OrganizationID, platformID)
	if err != nil {
		p.logger.Error("raw batch store unreadable, aborting platform",
			zap.String("platform", platformID),
			zap.Error(err),
		)
		state.readFailed = true
		state.errs = append(state.errs, errors.NewRecordError("", platformID, err))
		state.errorCodes[errorCode(err)]++
		return state
	}

	var run *domain.SyncRun
	if !cfg.DryRun {
		run = &domain.SyncRun{
			BatchID:        batchID,
			OrganizationID: cfg.OrganizationID,
			Platform:       platformID,
			TotalJobs:      total,
			Status:         domain.BatchStateProcessing,
		}
		if err := p.repos.SyncRun.Create(ctx, run); err != nil {
			p.logger.Warn("could not record sync run", zap.Error(err))
			run = nil
		}
	}

	for offset := 0; offset < total; offset += cfg.BatchSize {
		records, err := p.repos.RawBatch.ReadRecords(ctx, cfg.OrganizationID, platformID, cfg.BatchSize, offset)
		if err != nil {
			p.logger.Error("batch read failed, aborting remainder of platform run",
				zap.String("platform", platformID),
				zap.Int("offset", offset),
				zap.Error(err),
			)
			state.readFailed = true
			state.errs = append(state.errs, errors.NewRecordError("", platformID, err))
			state.errorCodes[errorCode(err)]++
			break
		}

		for _, raw := range records {
			p.processRecord(ctx, cfg, batchID, platformID, adapter, raw, state)
		}
	}

	if state.priceCount > 0 {
		state.summary.AverageFinalPrice = state.priceSum / float64(state.priceCount)
	}
	if state.seoCount > 0 {
		state.summary.AverageSEOQuality = state.seoSum / float64(state.seoCount)
	}

	if run != nil {
		run.Completed = state.summary.Succeeded + state.summary.Skipped
		run.Failed = state.summary.Failed
		run.ErrorCodes = state.errorCodes
		run.Status = batchOutcome(run.Completed, run.Failed, state.readFailed)
		if err := p.repos.SyncRun.Finish(ctx, run.ID, run); err != nil {
			p.logger.Warn("could not finish sync run", zap.Error(err))
		}
	}

	return state
}

func (p *Populator) processRecord(
	ctx context.Context,
	cfg PopulateConfig,
	batchID, platformID string,
	adapter platform.Adapter,
	raw []byte,
	state *platformRunState,
) {
	state.summary.Processed++

	rec, err := adapter.Normalize(raw)
	if err != nil {
		state.summary.Failed++
		state.errs = append(state.errs, errors.NewRecordError("", platformID, err))
		state.errorCodes[errorCode(err)]++
		return
	}

	if cfg.SkipExisting {
		existing, err := p.repos.PlatformMapping.GetByBusinessKey(ctx, cfg.OrganizationID, platformID, rec.PlatformProductID)
		if err == nil && existing != nil {
			state.summary.Skipped++
			return
		}
	}

	product, mapping := p.assembleProduct(cfg, batchID, rec, state)

	if !cfg.DryRun {
		if err := p.repos.MasterProduct.Upsert(ctx, product); err != nil {
			state.summary.Failed++
			state.errs = append(state.errs, errors.NewRecordError(rec.PlatformProductID, platformID, err))
			state.errorCodes[errorCode(err)]++
			return
		}
		mapping.MasterProductID = product.ID
		if err := p.repos.PlatformMapping.Upsert(ctx, mapping); err != nil {
			state.summary.Failed++
			state.errs = append(state.errs, errors.NewRecordError(rec.PlatformProductID, platformID, err))
			state.errorCodes[errorCode(err)]++
			return
		}
		state.summary.MappingsCreated++
	}

	state.summary.Succeeded++
}

// assembleProduct builds the MasterProduct and its source mapping from a
// canonical record, including platform prices, SEO titles, and the data
// quality score.
func (p *Populator) assembleProduct(
	cfg PopulateConfig,
	batchID string,
	rec *domain.CanonicalRecord,
	state *platformRunState,
) (*domain.MasterProduct, *domain.PlatformMapping) {
	now := time.Now()

	mapping := &domain.PlatformMapping{
		OrganizationID:    cfg.OrganizationID,
		Platform:          rec.Platform,
		PlatformProductID: rec.PlatformProductID,
		SyncStatus:        domain.SyncStatusSynced,
		PlatformData:      rec.PlatformData,
	}

	product := &domain.MasterProduct{
		MasterSKU:      MasterSKU(rec.Platform, rec.PlatformProductID),
		OrganizationID: cfg.OrganizationID,
		Name:           rec.Name,
		Description:    rec.Description,
		Weight:         rec.Weight,
		Dimensions:     rec.Dimensions,
		Images:         rec.Images,
		Category:       rec.Category,
		Brand:          rec.Brand,
		Pricing: domain.ProductPricing{
			BasePrice:      rec.Price,
			PlatformPrices: make(map[string]domain.PlatformPrice, len(cfg.Platforms)),
		},
		SEOTitles:        make(map[string]string, len(cfg.Platforms)),
		PlatformMappings: []domain.PlatformMapping{*mapping},
		Status:           domain.ProductStatusActive,
		ImportSource:     rec.Platform,
		ImportedAt:       now,
		ImportBatchID:    batchID,
	}

	if rec.PriceEstimated {
		product.ValidationWarnings = append(product.ValidationWarnings, "base price was estimated from product name")
	}

	for _, target := range cfg.Platforms {
		res, err := p.pricing.CalculatePlatformPrice(rec.Price, target, nil)
		if err != nil {
			p.logger.Debug("skipping platform price",
				zap.String("platform", target),
				zap.Error(err),
			)
			continue
		}
		product.Pricing.PlatformPrices[target] = domain.PlatformPrice{
			Price:         res.FinalPrice,
			FeePercentage: res.FeePercentage,
			CalculatedAt:  res.CalculatedAt,
		}
		state.priceSum += res.FinalPrice
		state.priceCount++
	}

	for target, variant := range p.seo.GenerateAll(rec.Name, cfg.Platforms) {
		product.SEOTitles[target] = variant.Title
		state.seoSum += variant.Similarity
		state.seoCount++
		if !variant.InBand {
			product.ValidationWarnings = append(product.ValidationWarnings,
				fmt.Sprintf("seo title for %s outside similarity band (%.1f%%)", target, variant.Similarity))
		}
	}

	score := validator.ScoreMasterProduct(product)
	product.DataQualityScore = score.Score
	product.ValidationErrors = append(product.ValidationErrors, score.Errors...)
	product.ValidationWarnings = append(product.ValidationWarnings, score.Warnings...)

	return product, mapping
}

// batchOutcome maps final counters onto a terminal batch state.
func batchOutcome(completed, failed int, readFailed bool) domain.BatchState {
	switch {
	case readFailed && completed == 0:
		return domain.BatchStateFailed
	case failed == 0:
		return domain.BatchStateCompleted
	case completed == 0:
		return domain.BatchStateFailed
	default:
		return domain.BatchStateMixed
	}
}

func errorCode(err error) string {
	switch err.(type) {
	case *errors.ErrTransform:
		return "TRANSFORM_ERROR"
	case *errors.ErrValidation:
		return "VALIDATION_ERROR"
	case *errors.ErrPersistence:
		return "PERSISTENCE_ERROR"
	case *errors.ErrConfiguration:
		return "CONFIGURATION_ERROR"
	case *errors.ErrFatalIO:
		return "FATAL_IO_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}
