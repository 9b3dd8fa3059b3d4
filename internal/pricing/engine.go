package pricing

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// Result is the outcome of one platform price calculation. PlatformFee and
// PaymentFee are reported unrounded for display; only FinalPrice is rounded
// to the nearest whole currency unit.
type Result struct {
	Platform             string    `json:"platform"`
	BasePrice            float64   `json:"basePrice"`
	PlatformFee          float64   `json:"platformFee"`
	PaymentFee           float64   `json:"paymentFee"`
	FixedFee             float64   `json:"fixedFee"`
	FinalPrice           float64   `json:"finalPrice"`
	FeePercentage        float64   `json:"feePercentage"`
	PaymentFeePercentage float64   `json:"paymentFeePercentage"`
	ProfitMargin         *float64  `json:"profitMargin,omitempty"`
	CalculatedAt         time.Time `json:"calculatedAt"`
}

// Engine computes platform resale prices from per-platform fee schedules.
// Configs are mutable via UpdateConfig only; a calculation works on a copy
// taken at call start, so a concurrent update never changes it mid-flight.
type Engine struct {
	mu      sync.RWMutex
	configs map[string]domain.PlatformFeeConfig
	logger  *zap.Logger
}

// DefaultConfigs returns the stock fee schedules the engine is seeded with.
func DefaultConfigs() []domain.PlatformFeeConfig {
	return []domain.PlatformFeeConfig{
		{
			Platform:             domain.PlatformShopee,
			FeePercentage:        15,
			PaymentFeePercentage: 2.9,
			FixedFee:             0,
			MinimumPrice:         1000,
			IsActive:             true,
		},
		{
			Platform:             domain.PlatformTikTok,
			FeePercentage:        20,
			PaymentFeePercentage: 2.5,
			FixedFee:             0,
			MinimumPrice:         1000,
			IsActive:             true,
		},
	}
}

// NewEngine creates an engine seeded with the default fee schedules.
func NewEngine(logger *zap.Logger) *Engine {
	e := &Engine{
		configs: make(map[string]domain.PlatformFeeConfig),
		logger:  logger,
	}
	for _, cfg := range DefaultConfigs() {
		e.configs[cfg.Platform] = cfg
	}
	return e
}

func validateConfig(cfg domain.PlatformFeeConfig) error {
	if cfg.Platform == "" {
		return &errors.ErrConfiguration{Message: "platform is required"}
	}
	if cfg.FeePercentage < 0 || cfg.FeePercentage > 100 {
		return &errors.ErrConfiguration{Platform: cfg.Platform, Message: "feePercentage must be in [0,100]"}
	}
	if cfg.PaymentFeePercentage < 0 || cfg.PaymentFeePercentage > 100 {
		return &errors.ErrConfiguration{Platform: cfg.Platform, Message: "paymentFeePercentage must be in [0,100]"}
	}
	if cfg.FixedFee < 0 {
		return &errors.ErrConfiguration{Platform: cfg.Platform, Message: "fixedFee must be non-negative"}
	}
	if cfg.MinimumPrice < 0 {
		return &errors.ErrConfiguration{Platform: cfg.Platform, Message: "minimumPrice must be non-negative"}
	}
	return nil
}

// GetConfig returns the fee schedule for a platform.
func (e *Engine) GetConfig(platform string) (domain.PlatformFeeConfig, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cfg, ok := e.configs[platform]
	if !ok {
		return domain.PlatformFeeConfig{}, &errors.ErrConfiguration{Platform: platform, Message: "unknown platform"}
	}
	return cfg, nil
}

// UpdateConfig replaces the fee schedule for the config's platform.
func (e *Engine) UpdateConfig(cfg domain.PlatformFeeConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	e.mu.Lock()
	e.configs[cfg.Platform] = cfg
	e.mu.Unlock()
	e.logger.Info("updated platform fee config",
		zap.String("platform", cfg.Platform),
		zap.Float64("fee_percentage", cfg.FeePercentage),
		zap.Bool("is_active", cfg.IsActive),
	)
	return nil
}

// ExportConfigs returns all fee schedules as a flat list for backup.
func (e *Engine) ExportConfigs() []domain.PlatformFeeConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.PlatformFeeConfig, 0, len(e.configs))
	for _, cfg := range e.configs {
		out = append(out, cfg)
	}
	return out
}

// ImportConfigs replaces the engine's fee schedules with the given list.
// The whole import is rejected if any entry is malformed.
func (e *Engine) ImportConfigs(configs []domain.PlatformFeeConfig) error {
	for _, cfg := range configs {
		if err := validateConfig(cfg); err != nil {
			return err
		}
	}
	next := make(map[string]domain.PlatformFeeConfig, len(configs))
	for _, cfg := range configs {
		next[cfg.Platform] = cfg
	}
	e.mu.Lock()
	e.configs = next
	e.mu.Unlock()
	return nil
}

// activeConfig snapshots the config for one platform, failing if the
// platform is unknown or inactive.
func (e *Engine) activeConfig(platform string) (domain.PlatformFeeConfig, error) {
	e.mu.RLock()
	cfg, ok := e.configs[platform]
	e.mu.RUnlock()
	if !ok {
		return domain.PlatformFeeConfig{}, &errors.ErrConfiguration{Platform: platform, Message: "unknown platform"}
	}
	if !cfg.IsActive {
		return domain.PlatformFeeConfig{}, &errors.ErrConfiguration{Platform: platform, Message: "platform is inactive"}
	}
	return cfg, nil
}

// CalculatePlatformPrice computes the resale price for one platform.
// Rounding applies to the final figure only; the minimum-price floor is
// applied after rounding.
func (e *Engine) CalculatePlatformPrice(basePrice float64, platform string, costPrice *float64) (*Result, error) {
	if basePrice <= 0 {
		return nil, &errors.ErrValidation{Field: "basePrice", Message: "must be greater than zero"}
	}

	cfg, err := e.activeConfig(platform)
	if err != nil {
		return nil, err
	}

	platformFee := basePrice * cfg.FeePercentage / 100
	paymentFee := (basePrice + platformFee) * cfg.PaymentFeePercentage / 100
	finalPrice := math.Round(basePrice + platformFee + paymentFee + cfg.FixedFee)
	if finalPrice < cfg.MinimumPrice {
		finalPrice = cfg.MinimumPrice
	}

	res := &Result{
		Platform:             platform,
		BasePrice:            basePrice,
		PlatformFee:          platformFee,
		PaymentFee:           paymentFee,
		FixedFee:             cfg.FixedFee,
		FinalPrice:           finalPrice,
		FeePercentage:        cfg.FeePercentage,
		PaymentFeePercentage: cfg.PaymentFeePercentage,
		CalculatedAt:         time.Now(),
	}

	if costPrice != nil && finalPrice > 0 {
		margin := (finalPrice - *costPrice) / finalPrice * 100
		res.ProfitMargin = &margin
	}

	return res, nil
}

// CalculateAllPlatformPrices computes prices across every active platform.
// A single platform's failure is logged and excluded; it never aborts the
// others.
func (e *Engine) CalculateAllPlatformPrices(basePrice float64, costPrice *float64) (map[string]*Result, error) {
	if basePrice <= 0 {
		return nil, &errors.ErrValidation{Field: "basePrice", Message: "must be greater than zero"}
	}

	e.mu.RLock()
	platforms := make([]string, 0, len(e.configs))
	for p, cfg := range e.configs {
		if cfg.IsActive {
			platforms = append(platforms, p)
		}
	}
	e.mu.RUnlock()

	results := make(map[string]*Result, len(platforms))
	for _, p := range platforms {
		res, err := e.CalculatePlatformPrice(basePrice, p, costPrice)
		if err != nil {
			e.logger.Warn("excluding platform from bulk price calculation",
				zap.String("platform", p),
				zap.Error(err),
			)
			continue
		}
		results[p] = res
	}
	return results, nil
}

// CalculateOptimalBasePrice inverts the forward formula to find the base
// price that yields the target profit margin on the given platform.
func (e *Engine) CalculateOptimalBasePrice(costPrice, targetMargin float64, platform string) (float64, error) {
	if costPrice <= 0 {
		return 0, &errors.ErrValidation{Field: "costPrice", Message: "must be greater than zero"}
	}
	if targetMargin < 0 || targetMargin >= 100 {
		return 0, &errors.ErrValidation{Field: "targetMargin", Message: "must be in [0,100)"}
	}

	cfg, err := e.activeConfig(platform)
	if err != nil {
		return 0, err
	}

	requiredFinal := costPrice / (1 - targetMargin/100)
	basePrice := (requiredFinal - cfg.FixedFee) /
		((1 + cfg.FeePercentage/100) * (1 + cfg.PaymentFeePercentage/100))
	if basePrice < 0 {
		basePrice = 0
	}
	return math.Round(basePrice), nil
}

// String implements fmt.Stringer for log-friendly result lines.
func (r *Result) String() string {
	return fmt.Sprintf("%s: base=%.0f final=%.0f (fee=%.2f payment=%.2f)",
		r.Platform, r.BasePrice, r.FinalPrice, r.PlatformFee, r.PaymentFee)
}
