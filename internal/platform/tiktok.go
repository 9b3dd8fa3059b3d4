package platform

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// tiktokRawProduct mirrors the TikTok Shop export schema for the fields we map.
type tiktokRawProduct struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
	PackageWeight     float64 `json:"package_weight"`
	PackageDimensions struct {
		Length float64 `json:"length"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		Unit   string  `json:"unit"`
	} `json:"package_dimensions"`
	CategoryChain    string `json:"category_chain"`
	Brand            string `json:"brand"`
	IncludeTokopedia bool   `json:"include_tokopedia"`
	WarehouseID      string `json:"warehouse_id"`
}

type tiktokAdapter struct {
	estimator *Estimator
	logger    *zap.Logger
}

// NewTikTokAdapter creates the TikTok Shop adapter.
func NewTikTokAdapter(estimator *Estimator, logger *zap.Logger) Adapter {
	return &tiktokAdapter{estimator: estimator, logger: logger}
}

func (a *tiktokAdapter) Platform() string { return domain.PlatformTikTok }

// Normalize maps one raw TikTok Shop product to the canonical record. A
// missing product_id is fatal to the record.
func (a *tiktokAdapter) Normalize(raw json.RawMessage) (*domain.CanonicalRecord, error) {
	var item tiktokRawProduct
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &errors.ErrTransform{Platform: domain.PlatformTikTok, Reason: fmt.Sprintf("malformed payload: %v", err)}
	}

	if item.ProductID == "" {
		return nil, &errors.ErrTransform{Platform: domain.PlatformTikTok, Reason: "missing product_id"}
	}

	name := item.ProductName
	if name == "" {
		name = fmt.Sprintf("TikTok Product %s", item.ProductID)
	}

	images := make([]string, 0, len(item.Images))
	for _, img := range item.Images {
		if img.URL != "" {
			images = append(images, img.URL)
		}
	}

	unit := item.PackageDimensions.Unit
	if unit == "" {
		unit = "cm"
	}

	rec := &domain.CanonicalRecord{
		Platform:          domain.PlatformTikTok,
		PlatformProductID: item.ProductID,
		Name:              name,
		Description:       item.Description,
		Price:             item.Price,
		Weight:            item.PackageWeight,
		Dimensions: domain.Dimensions{
			Length: item.PackageDimensions.Length,
			Width:  item.PackageDimensions.Width,
			Height: item.PackageDimensions.Height,
			Unit:   unit,
		},
		Images:   images,
		Category: item.CategoryChain,
		Brand:    item.Brand,
		PlatformData: domain.PlatformData{
			Platform: domain.PlatformTikTok,
			TikTok: &domain.TikTokData{
				ProductID:        item.ProductID,
				CategoryChain:    item.CategoryChain,
				IncludeTokopedia: item.IncludeTokopedia,
				WarehouseID:      item.WarehouseID,
			},
		},
	}

	if rec.Price <= 0 {
		rec.Price = a.estimator.EstimatePrice(rec.Name)
		rec.PriceEstimated = true
		a.logger.Debug("estimated missing tiktokshop price",
			zap.String("product_id", rec.PlatformProductID),
			zap.Float64("price", rec.Price),
		)
	}
	if rec.Weight <= 0 {
		rec.Weight = a.estimator.EstimateWeight(rec.Name)
	}

	return rec, nil
}
