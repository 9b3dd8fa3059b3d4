package platform

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

// shopeeRawItem mirrors the Shopee export schema for the fields we map.
type shopeeRawItem struct {
	ItemID   int64   `json:"item_id"`
	ItemName string  `json:"item_name"`
	Price    float64 `json:"price"`
	Weight   float64 `json:"weight"`
	Dimension struct {
		PackageLength float64 `json:"package_length"`
		PackageWidth  float64 `json:"package_width"`
		PackageHeight float64 `json:"package_height"`
	} `json:"dimension"`
	Image struct {
		ImageURLList []string `json:"image_url_list"`
	} `json:"image"`
	Description string `json:"description"`
	CategoryID  int64  `json:"category_id"`
	Brand       struct {
		OriginalBrandName string `json:"original_brand_name"`
	} `json:"brand"`
	ItemStatus  string `json:"item_status"`
	LogisticsID int64  `json:"logistic_id"`
}

type shopeeAdapter struct {
	estimator *Estimator
	logger    *zap.Logger
}

// NewShopeeAdapter creates the Shopee adapter.
func NewShopeeAdapter(estimator *Estimator, logger *zap.Logger) Adapter {
	return &shopeeAdapter{estimator: estimator, logger: logger}
}

func (a *shopeeAdapter) Platform() string { return domain.PlatformShopee }

// Normalize maps one raw Shopee item to the canonical record. A missing
// item_id is fatal to the record.
func (a *shopeeAdapter) Normalize(raw json.RawMessage) (*domain.CanonicalRecord, error) {
	var item shopeeRawItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, &errors.ErrTransform{Platform: domain.PlatformShopee, Reason: fmt.Sprintf("malformed payload: %v", err)}
	}

	if item.ItemID == 0 {
		return nil, &errors.ErrTransform{Platform: domain.PlatformShopee, Reason: "missing item_id"}
	}

	name := item.ItemName
	if name == "" {
		name = fmt.Sprintf("Shopee Item %d", item.ItemID)
	}

	rec := &domain.CanonicalRecord{
		Platform:          domain.PlatformShopee,
		PlatformProductID: strconv.FormatInt(item.ItemID, 10),
		Name:              name,
		Description:       item.Description,
		Price:             item.Price,
		Weight:            item.Weight,
		Dimensions: domain.Dimensions{
			Length: item.Dimension.PackageLength,
			Width:  item.Dimension.PackageWidth,
			Height: item.Dimension.PackageHeight,
			Unit:   "cm",
		},
		Images:   item.Image.ImageURLList,
		Category: strconv.FormatInt(item.CategoryID, 10),
		Brand:    item.Brand.OriginalBrandName,
		PlatformData: domain.PlatformData{
			Platform: domain.PlatformShopee,
			Shopee: &domain.ShopeeData{
				ItemID:      item.ItemID,
				CategoryID:  item.CategoryID,
				ItemStatus:  item.ItemStatus,
				LogisticsID: item.LogisticsID,
			},
		},
	}

	if rec.Price <= 0 {
		rec.Price = a.estimator.EstimatePrice(rec.Name)
		rec.PriceEstimated = true
		a.logger.Debug("estimated missing shopee price",
			zap.String("item_id", rec.PlatformProductID),
			zap.Float64("price", rec.Price),
		)
	}
	if rec.Weight <= 0 {
		rec.Weight = a.estimator.EstimateWeight(rec.Name)
	}

	return rec, nil
}
