package domain

import "time"

type TriggerType string

// Trigger types in declaration order; this order breaks exact-risk ties when
// the causal chain builder picks a basis.
const (
	TriggerShopifyMismatch TriggerType = "SHOPIFY_MISMATCH"
	TriggerAmazonMismatch  TriggerType = "AMAZON_MISMATCH"
)

// Trigger records one fired discrepancy condition with its actual numbers.
type Trigger struct {
	Type       TriggerType `json:"type"`
	Channel    Channel     `json:"channel"`
	ChannelQty int         `json:"channel_qty"`
	WMSQty     int         `json:"wms_qty"`
	Gap        int         `json:"gap"`
	RiskUSD    float64     `json:"risk_usd"`
}

type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ReconciliationResult is the derived truth for one SKU in one snapshot. It is
// a pure function of the channel quantity set plus static SKU attributes and
// is recomputed every cycle, never persisted on its own.
type ReconciliationResult struct {
	TrueATP       int       `json:"true_atp"`
	Discrepancy   bool      `json:"discrepancy"`
	RiskValue     float64   `json:"risk_value"`
	Severity      Severity  `json:"severity"`
	ReorderBreach bool      `json:"reorder_breach"`
	Triggers      []Trigger `json:"triggers,omitempty"`
}

// StockoutForecast projects depletion risk over rolling horizons. Absent
// entirely when the velocity history is too short to forecast from.
type StockoutForecast struct {
	DailyDemand    float64 `json:"daily_demand"`
	DaysToStockout float64 `json:"days_to_stockout"`
	Risk7D         float64 `json:"risk_7d"`
	Risk14D        float64 `json:"risk_14d"`
	Confidence     float64 `json:"confidence"`
}

type CausalNode struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// CausalChain is the fixed 4-node explanation attached to an alert:
// trigger, mechanism, effect, remedy.
type CausalChain struct {
	Basis TriggerType  `json:"basis,omitempty"`
	Nodes []CausalNode `json:"chain"`
}

type AlertType string

const (
	AlertInfo     AlertType = "INFO"
	AlertWarning  AlertType = "WARNING"
	AlertCritical AlertType = "CRITICAL"
)

// Alert is created when a discrepancy or threshold crossing is detected.
// Alerts are immutable; the next cycle supersedes them rather than editing.
type Alert struct {
	ID        string       `json:"id"`
	Type      AlertType    `json:"type"`
	SKU       string       `json:"sku,omitempty"`
	Message   string       `json:"message"`
	RiskUSD   float64      `json:"risk_usd"`
	Cause     *CausalChain `json:"root_cause,omitempty"`
	Command   string       `json:"command,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type RecommendationKind string

const (
	RecommendSync    RecommendationKind = "sync"
	RecommendPause   RecommendationKind = "pause"
	RecommendReturns RecommendationKind = "returns"
	RecommendTariff  RecommendationKind = "tariff"
)

// Recommendation is a ranked remediation action for one cycle. Executable
// recommendations carry a command token of the shape <verb>:<args>; strategic
// ones (sourcing shifts) never do.
type Recommendation struct {
	Rank                     int                `json:"rank"`
	Kind                     RecommendationKind `json:"kind"`
	Title                    string             `json:"title"`
	Rationale                string             `json:"rationale"`
	Score                    float64            `json:"score"`
	ExpectedRiskReductionUSD float64            `json:"expected_risk_reduction_usd"`
	Urgency                  float64            `json:"urgency"`
	Confidence               float64            `json:"confidence"`
	Command                  string             `json:"command,omitempty"`
	SKU                      string             `json:"sku,omitempty"`
}

// Executable reports whether the recommendation carries an action token for
// the external actuation boundary.
func (r Recommendation) Executable() bool { return r.Command != "" }

// HealthScore is a 0-100 supply chain health summary with its 0-25 components.
type HealthScore struct {
	Score     int             `json:"score"`
	Breakdown HealthBreakdown `json:"breakdown"`
}

type HealthBreakdown struct {
	InventorySync int `json:"inventory_sync"`
	RiskExposure  int `json:"risk_exposure"`
	ReturnsFlow   int `json:"returns_flow"`
	AlertHealth   int `json:"alert_health"`
}
