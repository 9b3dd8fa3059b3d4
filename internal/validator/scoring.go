package validator

import (
	"strings"

	"github.com/jafarshop/catalogsync/internal/domain"
)

// Weighted penalties applied against a 100-point baseline per record.
const (
	penaltyMissingName        = 20
	penaltyShortDescription   = 15
	penaltyNoImages           = 20
	penaltyFewImages          = 5
	penaltyInvalidBasePrice   = 25
	penaltyMissingSEOTitles   = 5
	penaltyNoPlatformMappings = 10

	minNameLength        = 3
	minDescriptionLength = 20
	minImageCount        = 3
)

// RecordScore is the quality assessment of a single master product.
type RecordScore struct {
	Score    int
	Errors   []string
	Warnings []string
}

// ScoreMasterProduct computes the 0-100 data quality score for one record.
// The score floors at zero. Mappings are counted from the product's
// attached mappings; callers that know the mapping count separately can
// pre-populate PlatformMappings before scoring.
func ScoreMasterProduct(p *domain.MasterProduct) RecordScore {
	score := 100
	var errs, warnings []string

	if len(strings.TrimSpace(p.Name)) < minNameLength {
		score -= penaltyMissingName
		errs = append(errs, "name is missing or too short")
	}

	if len(strings.TrimSpace(p.Description)) < minDescriptionLength {
		score -= penaltyShortDescription
		warnings = append(warnings, "description is missing or too short")
	}

	switch {
	case len(p.Images) == 0:
		score -= penaltyNoImages
		errs = append(errs, "product has no images")
	case len(p.Images) < minImageCount:
		score -= penaltyFewImages
		warnings = append(warnings, "product has fewer than 3 images")
	}

	if p.Pricing.BasePrice <= 0 {
		score -= penaltyInvalidBasePrice
		errs = append(errs, "base price is missing or invalid")
	}

	if len(p.SEOTitles) == 0 {
		score -= penaltyMissingSEOTitles
		warnings = append(warnings, "no SEO titles generated")
	}

	if len(p.PlatformMappings) == 0 {
		score -= penaltyNoPlatformMappings
		warnings = append(warnings, "product has no platform mappings")
	}

	if score < 0 {
		score = 0
	}

	return RecordScore{Score: score, Errors: errs, Warnings: warnings}
}
