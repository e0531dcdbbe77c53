package domain

import "time"

type Channel string

const (
	ChannelShopify Channel = "shopify"
	ChannelAmazon  Channel = "amazon"
	ChannelWMS     Channel = "wms"
	ChannelPOS     Channel = "pos"
	ChannelShipBob Channel = "shipbob"
)

// Channels lists all known channels in declaration order.
var Channels = []Channel{ChannelShopify, ChannelAmazon, ChannelWMS, ChannelPOS, ChannelShipBob}

// ChannelQuantities maps a channel to its reported on-hand count. A channel
// absent from the map reported nothing for this snapshot; that is not the same
// as reporting zero.
type ChannelQuantities map[Channel]int

// SKURecord holds the static attributes of a SKU. Records are created the
// first time a product is observed in any channel snapshot and updated on
// every ingest.
type SKURecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	CountryOfOrigin string  `json:"country_of_origin"`
	UnitCost        float64 `json:"unit_cost"`
	LeadTimeDays    int     `json:"lead_time_days"`
	ReorderPoint    int     `json:"reorder_point"`
}

// SnapshotItem is one SKU's slice of a point-in-time snapshot: static
// attributes plus per-channel counts and the trailing velocity series.
type SnapshotItem struct {
	SKURecord
	Channels       ChannelQuantities `json:"channels"`
	Quarantined    int               `json:"quarantined,omitempty"`
	Committed      int               `json:"committed,omitempty"`
	VelocitySeries []float64         `json:"velocity_series,omitempty"`
}

// Snapshot is the full per-SKU state for one evaluation cycle.
type Snapshot struct {
	ID      string         `json:"id"`
	TakenAt time.Time      `json:"taken_at"`
	Items   []SnapshotItem `json:"items"`
}

// ReturnsState describes inventory frozen in the returns/inspection pipeline.
// Units in limbo are unavailable supply and are excluded from true ATP.
type ReturnsState struct {
	InLimboUnits     int     `json:"in_limbo"`
	FrozenValueUSD   float64 `json:"total_frozen_value"`
	AverageDaysStuck float64 `json:"average_days_stuck"`
	Batches          int     `json:"batches"`
}
