package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformDataResolvesTypedPayload(t *testing.T) {
	in := PlatformData{
		Platform: PlatformShopee,
		Shopee:   &ShopeeData{ItemID: 4481929, ItemStatus: "NORMAL"},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"platform":"shopee","data":{"item_id":4481929,"item_status":"NORMAL"}}`, string(data))

	var out PlatformData
	require.NoError(t, json.Unmarshal(data, &out))
	require.NotNil(t, out.Shopee)
	assert.Equal(t, int64(4481929), out.Shopee.ItemID)
	assert.Nil(t, out.TikTok)
	assert.Nil(t, out.Raw)
}

func TestPlatformDataKeepsUnknownPlatformRaw(t *testing.T) {
	payload := []byte(`{"platform":"lazada","data":{"sku_id":"L-77","warehouse":"JKT"}}`)

	var pd PlatformData
	require.NoError(t, json.Unmarshal(payload, &pd))
	assert.Equal(t, "lazada", pd.Platform)
	assert.Nil(t, pd.Shopee)
	assert.JSONEq(t, `{"sku_id":"L-77","warehouse":"JKT"}`, string(pd.Raw))

	// Raw payloads survive re-encoding untouched.
	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(data))
}

func TestPlatformDataEmptyData(t *testing.T) {
	var pd PlatformData
	require.NoError(t, json.Unmarshal([]byte(`{"platform":"tiktokshop"}`), &pd))
	assert.Equal(t, PlatformTikTok, pd.Platform)
	assert.Nil(t, pd.TikTok)
}

func TestPlatformDataMismatchedPayload(t *testing.T) {
	var pd PlatformData
	err := json.Unmarshal([]byte(`{"platform":"shopee","data":{"item_id":"not-a-number"}}`), &pd)
	require.Error(t, err)
}
