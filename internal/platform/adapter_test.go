package platform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/catalogsync/internal/domain"
	"github.com/jafarshop/catalogsync/pkg/errors"
)

func TestRegistryResolvesBuiltInAdapters(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	for _, p := range []string{domain.PlatformShopee, domain.PlatformTikTok} {
		a, err := reg.ForPlatform(p)
		require.NoError(t, err)
		assert.Equal(t, p, a.Platform())
	}

	_, err := reg.ForPlatform("bukalapak")
	var cfgErr *errors.ErrConfiguration
	require.ErrorAs(t, err, &cfgErr)

	assert.ElementsMatch(t, []string{domain.PlatformShopee, domain.PlatformTikTok}, reg.Platforms())
}

func TestShopeeNormalize(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	adapter, err := reg.ForPlatform(domain.PlatformShopee)
	require.NoError(t, err)

	raw := json.RawMessage(`{
		"item_id": 4481929,
		"item_name": "Sepatu Running Pria",
		"price": 289000,
		"weight": 750,
		"dimension": {"package_length": 30, "package_width": 20, "package_height": 12},
		"image": {"image_url_list": ["https://cf.shopee.co.id/file/a.jpg", "https://cf.shopee.co.id/file/b.jpg"]},
		"description": "Sepatu lari ringan dengan sol empuk untuk latihan harian.",
		"category_id": 100532,
		"brand": {"original_brand_name": "Ortuseight"},
		"item_status": "NORMAL",
		"logistic_id": 8003
	}`)

	rec, err := adapter.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, domain.PlatformShopee, rec.Platform)
	assert.Equal(t, "4481929", rec.PlatformProductID)
	assert.Equal(t, "Sepatu Running Pria", rec.Name)
	assert.Equal(t, 289000.0, rec.Price)
	assert.False(t, rec.PriceEstimated)
	assert.Equal(t, 750.0, rec.Weight)
	assert.Equal(t, "cm", rec.Dimensions.Unit)
	assert.Len(t, rec.Images, 2)
	assert.Equal(t, "100532", rec.Category)
	assert.Equal(t, "Ortuseight", rec.Brand)
	require.NotNil(t, rec.PlatformData.Shopee)
	assert.Equal(t, int64(4481929), rec.PlatformData.Shopee.ItemID)
	assert.Equal(t, "NORMAL", rec.PlatformData.Shopee.ItemStatus)
}

func TestShopeeNormalizeMissingItemID(t *testing.T) {
	adapter := NewShopeeAdapter(NewEstimator(), zap.NewNop())

	_, err := adapter.Normalize(json.RawMessage(`{"item_name": "No ID Item"}`))
	var trErr *errors.ErrTransform
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.PlatformShopee, trErr.Platform)
}

func TestShopeeNormalizeEstimatesMissingPriceAndWeight(t *testing.T) {
	adapter := NewShopeeAdapter(NewEstimator(), zap.NewNop())

	rec, err := adapter.Normalize(json.RawMessage(`{"item_id": 7, "item_name": "Gaming Laptop 15 inch"}`))
	require.NoError(t, err)
	assert.True(t, rec.PriceEstimated)
	assert.Equal(t, 5000000.0, rec.Price)
	assert.Equal(t, 2500.0, rec.Weight)
}

func TestShopeeNormalizeMalformedPayload(t *testing.T) {
	adapter := NewShopeeAdapter(NewEstimator(), zap.NewNop())

	_, err := adapter.Normalize(json.RawMessage(`{"item_id": "not-a-number"}`))
	var trErr *errors.ErrTransform
	require.ErrorAs(t, err, &trErr)
}

func TestTikTokNormalize(t *testing.T) {
	adapter := NewTikTokAdapter(NewEstimator(), zap.NewNop())

	raw := json.RawMessage(`{
		"product_id": "1729531842650327",
		"product_name": "Tas Selempang Wanita Korean Style",
		"description": "Tas selempang bahan kulit sintetis premium, muat HP dan dompet.",
		"price": 98500,
		"images": [{"url": "https://p16-oec.tiktokcdn.com/img/one.webp"}, {"url": ""}],
		"package_weight": 420,
		"package_dimensions": {"length": 25, "width": 9, "height": 18, "unit": "cm"},
		"category_chain": "Bags > Women Bags > Crossbody",
		"brand": "NoBrand",
		"include_tokopedia": true,
		"warehouse_id": "WHID-77"
	}`)

	rec, err := adapter.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, domain.PlatformTikTok, rec.Platform)
	assert.Equal(t, "1729531842650327", rec.PlatformProductID)
	// Blank URLs are dropped, not kept as empty entries.
	assert.Equal(t, []string{"https://p16-oec.tiktokcdn.com/img/one.webp"}, rec.Images)
	assert.Equal(t, 420.0, rec.Weight)
	require.NotNil(t, rec.PlatformData.TikTok)
	assert.True(t, rec.PlatformData.TikTok.IncludeTokopedia)
	assert.Equal(t, "WHID-77", rec.PlatformData.TikTok.WarehouseID)
}

func TestTikTokNormalizeMissingProductID(t *testing.T) {
	adapter := NewTikTokAdapter(NewEstimator(), zap.NewNop())

	_, err := adapter.Normalize(json.RawMessage(`{"product_name": "Orphan Product"}`))
	var trErr *errors.ErrTransform
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, domain.PlatformTikTok, trErr.Platform)
}

func TestTikTokNormalizeDefaultsNameAndUnit(t *testing.T) {
	adapter := NewTikTokAdapter(NewEstimator(), zap.NewNop())

	rec, err := adapter.Normalize(json.RawMessage(`{"product_id": "991", "price": 10000, "package_weight": 100}`))
	require.NoError(t, err)
	assert.Equal(t, "TikTok Product 991", rec.Name)
	assert.Equal(t, "cm", rec.Dimensions.Unit)
}
