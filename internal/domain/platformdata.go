package domain

import (
	"encoding/json"
	"fmt"
)

// ShopeeData carries the Shopee-specific listing fields kept on a mapping.
type ShopeeData struct {
	ItemID      int64  `json:"item_id"`
	CategoryID  int64  `json:"category_id,omitempty"`
	ItemStatus  string `json:"item_status,omitempty"`
	LogisticsID int64  `json:"logistics_id,omitempty"`
}

// TikTokData carries the TikTok Shop-specific listing fields kept on a mapping.
type TikTokData struct {
	ProductID        string `json:"product_id"`
	CategoryChain    string `json:"category_chain,omitempty"`
	IncludeTokopedia bool   `json:"include_tokopedia,omitempty"`
	WarehouseID      string `json:"warehouse_id,omitempty"`
}

// PlatformData is a tagged variant: a platform discriminant plus the typed
// payload for that platform. Unrecognized platforms keep the raw payload so
// nothing is silently dropped on round-trip.
type PlatformData struct {
	Platform string
	Shopee   *ShopeeData
	TikTok   *TikTokData
	Raw      json.RawMessage
}

type platformDataEnvelope struct {
	Platform string          `json:"platform"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the variant as {"platform": ..., "data": {...}}.
func (p PlatformData) MarshalJSON() ([]byte, error) {
	env := platformDataEnvelope{Platform: p.Platform}

	var payload interface{}
	switch p.Platform {
	case PlatformShopee:
		payload = p.Shopee
	case PlatformTikTok:
		payload = p.TikTok
	default:
		env.Data = p.Raw
		return json.Marshal(env)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the envelope and resolves the typed payload from the
// platform discriminant. Unknown platforms fall back to the raw variant.
func (p *PlatformData) UnmarshalJSON(data []byte) error {
	var env platformDataEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("invalid platform data envelope: %w", err)
	}

	p.Platform = env.Platform
	p.Shopee = nil
	p.TikTok = nil
	p.Raw = nil

	if len(env.Data) == 0 {
		return nil
	}

	switch env.Platform {
	case PlatformShopee:
		var sd ShopeeData
		if err := json.Unmarshal(env.Data, &sd); err != nil {
			return fmt.Errorf("invalid shopee payload: %w", err)
		}
		p.Shopee = &sd
	case PlatformTikTok:
		var td TikTokData
		if err := json.Unmarshal(env.Data, &td); err != nil {
			return fmt.Errorf("invalid tiktokshop payload: %w", err)
		}
		p.TikTok = &td
	default:
		p.Raw = env.Data
	}
	return nil
}
