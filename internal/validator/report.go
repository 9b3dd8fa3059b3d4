package validator

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Report statuses.
const (
	StatusPass    = "PASS"
	StatusWarning = "WARNING"
	StatusFail    = "FAIL"
)

// Recommendation priorities, strongest first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Overview summarizes the validated data set.
type Overview struct {
	OrganizationID      string    `json:"organizationId"`
	TotalMasterProducts int       `json:"totalMasterProducts"`
	TotalMappings       int       `json:"totalMappings"`
	GeneratedAt         time.Time `json:"generatedAt"`
	Counters            Snapshot  `json:"counters"`
}

// RecordValidation is one master product's structural assessment.
type RecordValidation struct {
	MasterSKU string   `json:"masterSku"`
	Score     int      `json:"score"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// MasterCatalogValidation is stage 1+2: structural scores and aggregates.
type MasterCatalogValidation struct {
	TotalRecords    int                `json:"totalRecords"`
	AverageScore    float64            `json:"averageScore"`
	ErrorCount      int                `json:"errorCount"`
	WarningCount    int                `json:"warningCount"`
	StatusBreakdown map[string]int     `json:"statusBreakdown"`
	WorstRecords    []RecordValidation `json:"worstRecords,omitempty"`
}

// ErrorFrequency is one recurring error message and how often it occurred.
type ErrorFrequency struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// RawPlatformResult is one platform's spot-check outcome.
type RawPlatformResult struct {
	Sampled      int              `json:"sampled"`
	Valid        int              `json:"valid"`
	ValidityRate float64          `json:"validityRate"`
	TopErrors    []ErrorFrequency `json:"topErrors,omitempty"`
}

// RawDataValidation is stage 3: independent re-validation of raw samples.
type RawDataValidation struct {
	PlatformResults     map[string]*RawPlatformResult `json:"platformResults"`
	OverallValidityRate float64                       `json:"overallValidityRate"`
	Degraded            bool                          `json:"degraded"`
}

// ImageValidation is stage 4: the reachability probe.
type ImageValidation struct {
	Sampled           int            `json:"sampled"`
	Reachable         int            `json:"reachable"`
	AccessibilityRate float64        `json:"accessibilityRate"`
	FailuresByCause   map[string]int `json:"failuresByCause,omitempty"`
	Degraded          bool           `json:"degraded"`
}

// FieldValidation measures per-field completeness across the catalog.
type FieldValidation struct {
	FieldCompleteness   map[string]float64 `json:"fieldCompleteness"`
	OverallCompleteness float64            `json:"overallCompleteness"`
}

// DataIntegrityValidation is stage 5: referential integrity findings.
type DataIntegrityValidation struct {
	DuplicateProducts   int      `json:"duplicateProducts"`
	OrphanedMappings    int      `json:"orphanedMappings"`
	MissingMappings     int      `json:"missingMappings"`
	InconsistentPricing int      `json:"inconsistentPricing"`
	Findings            []string `json:"findings,omitempty"`
}

// Recommendation is one prioritized follow-up emitted by the validator.
type Recommendation struct {
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	ActionRequired string `json:"actionRequired"`
	AffectedCount  int    `json:"affectedCount"`
}

// Report is the full structured validation result.
type Report struct {
	Overview                Overview                `json:"overview"`
	MasterCatalogValidation MasterCatalogValidation `json:"masterCatalogValidation"`
	RawDataValidation       RawDataValidation       `json:"rawDataValidation"`
	ImageValidation         ImageValidation         `json:"imageValidation"`
	FieldValidation         FieldValidation         `json:"fieldValidation"`
	DataIntegrityValidation DataIntegrityValidation `json:"dataIntegrityValidation"`
	Recommendations         []Recommendation        `json:"recommendations"`
	OverallScore            float64                 `json:"overallScore"`
	Status                  string                  `json:"status"`
}

var priorityRank = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// sortRecommendations orders by descending priority, stable within a tier.
func sortRecommendations(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
}

// RenderText renders the report as a human-readable document.
func (r *Report) RenderText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "DATA QUALITY REPORT — %s\n", r.Overview.OrganizationID)
	fmt.Fprintf(&b, "Generated: %s\n", r.Overview.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Overall: %.1f/100 [%s]\n\n", r.OverallScore, r.Status)

	fmt.Fprintf(&b, "Catalog: %d products, %d mappings\n",
		r.Overview.TotalMasterProducts, r.Overview.TotalMappings)
	fmt.Fprintf(&b, "Master catalog quality: avg %.1f (%d errors, %d warnings)\n",
		r.MasterCatalogValidation.AverageScore,
		r.MasterCatalogValidation.ErrorCount,
		r.MasterCatalogValidation.WarningCount)
	fmt.Fprintf(&b, "Raw data validity: %.1f%%", r.RawDataValidation.OverallValidityRate)
	if r.RawDataValidation.Degraded {
		b.WriteString(" (degraded)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Image accessibility: %.1f%% (%d/%d reachable)",
		r.ImageValidation.AccessibilityRate,
		r.ImageValidation.Reachable,
		r.ImageValidation.Sampled)
	if r.ImageValidation.Degraded {
		b.WriteString(" (degraded)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Field completeness: %.1f%%\n", r.FieldValidation.OverallCompleteness)
	fmt.Fprintf(&b, "Integrity: %d duplicates, %d orphaned mappings, %d missing mappings, %d pricing issues\n\n",
		r.DataIntegrityValidation.DuplicateProducts,
		r.DataIntegrityValidation.OrphanedMappings,
		r.DataIntegrityValidation.MissingMappings,
		r.DataIntegrityValidation.InconsistentPricing)

	if len(r.Recommendations) > 0 {
		b.WriteString("Recommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "  [%s] %s: %s (%d affected) — %s\n",
				strings.ToUpper(rec.Priority), rec.Category, rec.Description,
				rec.AffectedCount, rec.ActionRequired)
		}
	}

	return b.String()
}
