package validator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/config"
	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/internal/platform"
	"github.com/jafarshop/catalogsync/internal/repository"
)

// Weights of each dimension in the overall score.
const (
	weightMasterCatalog = 0.30
	weightRawData       = 0.20
	weightImages        = 0.15
	weightFields        = 0.20
	weightIntegrity     = 0.15
)

// Score thresholds for the report status.
const (
	passThreshold    = 90.0
	warningThreshold = 70.0

	// Hard override: image accessibility below this fails the report
	// regardless of the weighted score.
	minAccessibilityRate = 50.0
)

const listPageSize = 500
const worstRecordsCap = 20

// Validator runs the multi-stage data quality pipeline over one
// organization's catalog.
type Validator struct {
	repos    *repository.Repositories
	adapters *platform.Registry
	prober   ImageProber
	cfg      config.ValidatorConfig
	logger   *zap.Logger
}

// New creates a validator. The prober may be nil, in which case an HTTP
// prober with the configured timeout is used.
func New(
	repos *repository.Repositories,
	adapters *platform.Registry,
	prober ImageProber,
	cfg config.ValidatorConfig,
	logger *zap.Logger,
) *Validator {
	if prober == nil {
		prober = NewHTTPProber(cfg.ImageTimeout, logger)
	}
	return &Validator{
		repos:    repos,
		adapters: adapters,
		prober:   prober,
		cfg:      cfg,
		logger:   logger,
	}
}

// ValidateAllData runs all five stages and assembles the weighted report.
// A stage that cannot run is downgraded to a warning-tier finding; it
// never aborts the pipeline.
func (v *Validator) ValidateAllData(ctx context.Context, organizationID string) (*Report, error) {
	acc := NewAccumulator()
	report := &Report{
		Overview: Overview{
			OrganizationID: organizationID,
			GeneratedAt:    time.Now(),
		},
	}

	products, mappings, loadOK := v.loadCatalog(ctx, organizationID, acc)
	report.Overview.TotalMasterProducts = len(products)
	report.Overview.TotalMappings = len(mappings)

	// Stages 1+2: structural scoring and aggregates.
	report.MasterCatalogValidation = v.validateMasterCatalog(products, acc)

	// Stage 3: raw data spot check, per platform.
	report.RawDataValidation = v.validateRawData(ctx, organizationID, acc)

	// Stage 4: image reachability probe.
	report.ImageValidation = v.validateImages(ctx, organizationID, acc)

	// Field completeness across the catalog.
	report.FieldValidation = v.validateFieldCompleteness(products)

	// Stage 5: referential integrity.
	report.DataIntegrityValidation = v.validateIntegrity(products, mappings)

	v.scoreReport(report, loadOK)
	report.Overview.Counters = acc.Snapshot()
	report.Recommendations = v.buildRecommendations(report)

	v.logger.Info("data quality validation finished",
		zap.String("organization_id", organizationID),
		zap.Float64("overall_score", report.OverallScore),
		zap.String("status", report.Status),
	)
	return report, nil
}

// loadCatalog pages through the catalog and mappings. A load failure
// degrades the dependent stages instead of aborting the run.
func (v *Validator) loadCatalog(ctx context.Context, organizationID string, acc *Accumulator) ([]*domain.MasterProduct, []*domain.PlatformMapping, bool) {
	var products []*domain.MasterProduct
	offset := 0
	for {
		page, err := v.repos.MasterProduct.List(ctx, organizationID, listPageSize, offset)
		if err != nil {
			v.logger.Warn("master catalog unreadable, degrading structural stages", zap.Error(err))
			acc.StageDegraded("master-catalog")
			return products, nil, false
		}
		products = append(products, page...)
		if len(page) < listPageSize {
			break
		}
		offset += listPageSize
	}

	mappings, err := v.repos.PlatformMapping.ListByOrganization(ctx, organizationID)
	if err != nil {
		v.logger.Warn("platform mappings unreadable, degrading integrity stage", zap.Error(err))
		acc.StageDegraded("integrity")
		return products, nil, false
	}

	return products, mappings, true
}

// validateMasterCatalog re-scores every record and aggregates the results.
func (v *Validator) validateMasterCatalog(products []*domain.MasterProduct, acc *Accumulator) MasterCatalogValidation {
	out := MasterCatalogValidation{
		TotalRecords:    len(products),
		StatusBreakdown: make(map[string]int),
	}

	var scoreSum int
	var worst []RecordValidation

	for _, p := range products {
		acc.RecordChecked()
		score := ScoreMasterProduct(p)
		scoreSum += score.Score
		out.ErrorCount += len(score.Errors)
		out.WarningCount += len(score.Warnings)
		out.StatusBreakdown[string(p.Status)]++
		acc.AddErrors(score.Errors...)
		acc.AddWarnings(score.Warnings...)

		if len(score.Errors) > 0 || len(score.Warnings) > 0 {
			worst = append(worst, RecordValidation{
				MasterSKU: p.MasterSKU,
				Score:     score.Score,
				Errors:    score.Errors,
				Warnings:  score.Warnings,
			})
		}
	}

	if len(products) > 0 {
		out.AverageScore = float64(scoreSum) / float64(len(products))
	}

	sort.SliceStable(worst, func(i, j int) bool { return worst[i].Score < worst[j].Score })
	if len(worst) > worstRecordsCap {
		worst = worst[:worstRecordsCap]
	}
	out.WorstRecords = worst

	return out
}

// validateRawData independently re-validates a sample of raw records per
// platform to measure ingestion validity.
func (v *Validator) validateRawData(ctx context.Context, organizationID string, acc *Accumulator) RawDataValidation {
	out := RawDataValidation{
		PlatformResults: make(map[string]*RawPlatformResult),
	}

	var totalSampled, totalValid int
	for _, platformID := range v.adapters.Platforms() {
		adapter, err := v.adapters.ForPlatform(platformID)
		if err != nil {
			continue
		}

		samples, err := v.repos.RawBatch.SampleRecords(ctx, organizationID, platformID, v.cfg.RawSampleSize)
		if err != nil {
			v.logger.Warn("raw sample unavailable, degrading raw data stage",
				zap.String("platform", platformID),
				zap.Error(err),
			)
			acc.StageDegraded("raw-data:" + platformID)
			out.Degraded = true
			continue
		}

		result := &RawPlatformResult{Sampled: len(samples)}
		errorCounts := make(map[string]int)

		for _, raw := range samples {
			rec, err := adapter.Normalize(raw)
			if err != nil {
				errorCounts[err.Error()]++
				continue
			}
			if msg, ok := rawRecordIssue(rec); !ok {
				errorCounts[msg]++
				continue
			}
			result.Valid++
		}

		if result.Sampled > 0 {
			result.ValidityRate = float64(result.Valid) / float64(result.Sampled) * 100
		}
		result.TopErrors = topErrors(errorCounts, 5)
		out.PlatformResults[platformID] = result

		totalSampled += result.Sampled
		totalValid += result.Valid
	}

	if totalSampled > 0 {
		out.OverallValidityRate = float64(totalValid) / float64(totalSampled) * 100
	} else if !out.Degraded {
		// Nothing to sample is not a defect.
		out.OverallValidityRate = 100
	}
	return out
}

// rawRecordIssue applies the schema rules a canonical record must satisfy.
func rawRecordIssue(rec *domain.CanonicalRecord) (string, bool) {
	switch {
	case rec.Name == "":
		return "normalized record has no name", false
	case rec.Price <= 0:
		return "normalized record has no usable price", false
	case len(rec.Images) == 0:
		return "normalized record has no images", false
	default:
		return "", true
	}
}

func topErrors(counts map[string]int, n int) []ErrorFrequency {
	freqs := make([]ErrorFrequency, 0, len(counts))
	for msg, count := range counts {
		freqs = append(freqs, ErrorFrequency{Message: msg, Count: count})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Message < freqs[j].Message
	})
	if len(freqs) > n {
		freqs = freqs[:n]
	}
	return freqs
}

// validateImages samples recent image URLs and probes them concurrently.
func (v *Validator) validateImages(ctx context.Context, organizationID string, acc *Accumulator) ImageValidation {
	out := ImageValidation{FailuresByCause: make(map[string]int)}

	urls, err := v.repos.MasterProduct.RecentImageURLs(ctx, organizationID, v.cfg.ImageSampleCap)
	if err != nil {
		v.logger.Warn("image sample unavailable, degrading image stage", zap.Error(err))
		acc.StageDegraded("images")
		out.Degraded = true
		return out
	}
	if len(urls) == 0 {
		out.AccessibilityRate = 100
		return out
	}

	results := probeAll(ctx, v.prober, urls, v.cfg.ProbeConcurrency)
	out.Sampled = len(results)
	for _, res := range results {
		if res.Reachable {
			out.Reachable++
			continue
		}
		out.FailuresByCause[res.Cause]++
	}
	out.AccessibilityRate = float64(out.Reachable) / float64(out.Sampled) * 100
	return out
}

// Required fields tracked for completeness.
var completenessFields = []string{"name", "description", "images", "basePrice", "category", "brand", "weight"}

func (v *Validator) validateFieldCompleteness(products []*domain.MasterProduct) FieldValidation {
	out := FieldValidation{FieldCompleteness: make(map[string]float64, len(completenessFields))}
	if len(products) == 0 {
		for _, f := range completenessFields {
			out.FieldCompleteness[f] = 0
		}
		return out
	}

	counts := make(map[string]int, len(completenessFields))
	for _, p := range products {
		if p.Name != "" {
			counts["name"]++
		}
		if p.Description != "" {
			counts["description"]++
		}
		if len(p.Images) > 0 {
			counts["images"]++
		}
		if p.Pricing.BasePrice > 0 {
			counts["basePrice"]++
		}
		if p.Category != "" {
			counts["category"]++
		}
		if p.Brand != "" {
			counts["brand"]++
		}
		if p.Weight > 0 {
			counts["weight"]++
		}
	}

	var sum float64
	for _, f := range completenessFields {
		rate := float64(counts[f]) / float64(len(products)) * 100
		out.FieldCompleteness[f] = rate
		sum += rate
	}
	out.OverallCompleteness = sum / float64(len(completenessFields))
	return out
}

// validateIntegrity detects duplicate business keys, orphaned mappings,
// products without mappings, and out-of-range prices.
func (v *Validator) validateIntegrity(products []*domain.MasterProduct, mappings []*domain.PlatformMapping) DataIntegrityValidation {
	out := DataIntegrityValidation{}

	productIDs := make(map[string]bool, len(products))
	mappedProducts := make(map[string]bool)
	skuCounts := make(map[string]int, len(products))
	businessKeyCounts := make(map[string]int, len(mappings))

	for _, p := range products {
		productIDs[p.ID.String()] = true
		skuCounts[p.MasterSKU]++

		if p.Pricing.BasePrice <= 0 {
			out.InconsistentPricing++
			out.Findings = append(out.Findings, "invalid base price on "+p.MasterSKU)
		}
		for platformID, price := range p.Pricing.PlatformPrices {
			if price.Price <= 0 || price.FeePercentage < 0 || price.FeePercentage > 100 {
				out.InconsistentPricing++
				out.Findings = append(out.Findings, "invalid "+platformID+" price on "+p.MasterSKU)
			}
		}
	}

	for sku, count := range skuCounts {
		if count > 1 {
			out.DuplicateProducts += count - 1
			out.Findings = append(out.Findings, "duplicate master SKU "+sku)
		}
	}

	for _, m := range mappings {
		businessKeyCounts[m.BusinessKey()]++
		if !productIDs[m.MasterProductID.String()] {
			out.OrphanedMappings++
			out.Findings = append(out.Findings, "orphaned mapping "+m.BusinessKey())
		} else {
			mappedProducts[m.MasterProductID.String()] = true
		}
	}

	for key, count := range businessKeyCounts {
		if count > 1 {
			out.DuplicateProducts += count - 1
			out.Findings = append(out.Findings, "duplicate business key "+key)
		}
	}

	for _, p := range products {
		if !mappedProducts[p.ID.String()] {
			out.MissingMappings++
		}
	}

	sort.Strings(out.Findings)
	return out
}

// scoreReport combines the stage scores with their weights and applies the
// status thresholds and hard overrides.
func (v *Validator) scoreReport(report *Report, loadOK bool) {
	integrityIssues := report.DataIntegrityValidation.DuplicateProducts +
		report.DataIntegrityValidation.OrphanedMappings +
		report.DataIntegrityValidation.MissingMappings +
		report.DataIntegrityValidation.InconsistentPricing
	integrityScore := 100 - float64(integrityIssues)*5
	if integrityScore < 0 {
		integrityScore = 0
	}

	// A degraded stage is excluded and the remaining weights renormalized,
	// so an unreachable collaborator cannot sink the score on its own.
	type weighted struct {
		score  float64
		weight float64
		ok     bool
	}
	parts := []weighted{
		{report.MasterCatalogValidation.AverageScore, weightMasterCatalog, loadOK},
		{report.RawDataValidation.OverallValidityRate, weightRawData, !report.RawDataValidation.Degraded},
		{report.ImageValidation.AccessibilityRate, weightImages, !report.ImageValidation.Degraded},
		{report.FieldValidation.OverallCompleteness, weightFields, loadOK},
		{integrityScore, weightIntegrity, loadOK},
	}

	var sum, weightSum float64
	for _, part := range parts {
		if !part.ok {
			continue
		}
		sum += part.score * part.weight
		weightSum += part.weight
	}
	if weightSum > 0 {
		report.OverallScore = sum / weightSum
	}

	switch {
	case report.OverallScore >= passThreshold:
		report.Status = StatusPass
	case report.OverallScore >= warningThreshold:
		report.Status = StatusWarning
	default:
		report.Status = StatusFail
	}

	// Hard overrides.
	if report.Overview.TotalMasterProducts == 0 {
		report.Status = StatusFail
	}
	if report.ImageValidation.Sampled > 0 && report.ImageValidation.AccessibilityRate < minAccessibilityRate {
		report.Status = StatusFail
	}
}

// buildRecommendations emits prioritized follow-ups from the findings.
func (v *Validator) buildRecommendations(report *Report) []Recommendation {
	var recs []Recommendation

	if report.Overview.TotalMasterProducts == 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityCritical,
			Category:       "catalog",
			Description:    "master catalog is empty",
			ActionRequired: "run a population from raw imports",
			AffectedCount:  0,
		})
	}

	if n := report.MasterCatalogValidation.ErrorCount; n > 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityHigh,
			Category:       "catalog",
			Description:    "products with structural validation errors",
			ActionRequired: "fix missing names, images, or prices on the listed products",
			AffectedCount:  n,
		})
	}

	if report.ImageValidation.Sampled > 0 && report.ImageValidation.AccessibilityRate < minAccessibilityRate {
		recs = append(recs, Recommendation{
			Priority:       PriorityCritical,
			Category:       "images",
			Description:    "more than half of sampled product images are unreachable",
			ActionRequired: "re-host or replace broken image URLs",
			AffectedCount:  report.ImageValidation.Sampled - report.ImageValidation.Reachable,
		})
	} else if report.ImageValidation.Sampled > 0 && report.ImageValidation.AccessibilityRate < passThreshold {
		recs = append(recs, Recommendation{
			Priority:       PriorityMedium,
			Category:       "images",
			Description:    "some sampled product images are unreachable",
			ActionRequired: "review failing image hosts",
			AffectedCount:  report.ImageValidation.Sampled - report.ImageValidation.Reachable,
		})
	}

	if n := report.DataIntegrityValidation.DuplicateProducts; n > 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityHigh,
			Category:       "integrity",
			Description:    "duplicate business keys detected",
			ActionRequired: "merge or remove duplicated products",
			AffectedCount:  n,
		})
	}
	if n := report.DataIntegrityValidation.OrphanedMappings; n > 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityHigh,
			Category:       "integrity",
			Description:    "platform mappings without an owning master product",
			ActionRequired: "delete orphaned mappings or restore their products",
			AffectedCount:  n,
		})
	}
	if n := report.DataIntegrityValidation.MissingMappings; n > 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityMedium,
			Category:       "integrity",
			Description:    "master products with no platform mappings",
			ActionRequired: "link products to their marketplace listings",
			AffectedCount:  n,
		})
	}
	if n := report.DataIntegrityValidation.InconsistentPricing; n > 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityHigh,
			Category:       "pricing",
			Description:    "price fields outside the valid range",
			ActionRequired: "recalculate platform prices for the affected products",
			AffectedCount:  n,
		})
	}

	if report.RawDataValidation.OverallValidityRate < warningThreshold && !report.RawDataValidation.Degraded {
		recs = append(recs, Recommendation{
			Priority:       PriorityMedium,
			Category:       "ingestion",
			Description:    "raw import validity is low",
			ActionRequired: "inspect the top recurring transform errors per platform",
			AffectedCount:  0,
		})
	}

	if n := len(report.Overview.Counters.DegradedStages); n > 0 {
		recs = append(recs, Recommendation{
			Priority:       PriorityLow,
			Category:       "pipeline",
			Description:    "one or more validation stages could not run fully",
			ActionRequired: "check collaborator availability and re-run validation",
			AffectedCount:  n,
		})
	}

	sortRecommendations(recs)
	return recs
}
