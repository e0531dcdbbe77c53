package domain

// TariffScenario is one proposed rate change for a country of origin.
type TariffScenario struct {
	Rate          float64 `json:"rate"`
	EffectiveDate string  `json:"effective_date"`
}

// TariffRecord is static reference data: a country of origin, its current
// tariff rate, and the proposed rate scenarios under evaluation.
type TariffRecord struct {
	Country     string           `json:"country"`
	CurrentRate float64          `json:"current_rate"`
	Scenarios   []TariffScenario `json:"scenarios"`
}

type StrategyName string

const (
	StrategyDoNothing   StrategyName = "doNothing"
	StrategyShiftMexico StrategyName = "shiftMexico"
	StrategySplitSource StrategyName = "splitSource"
)

// StrategyEvaluation is the computed annual cost and savings of one named
// mitigation strategy against one tariff scenario.
type StrategyEvaluation struct {
	Strategy      StrategyName `json:"strategy"`
	AnnualCostUSD float64      `json:"annual_cost_usd"`
	SavingsUSD    float64      `json:"savings_usd"`
}

// SKUTariffImpact is the per-SKU landed-cost breakdown under a scenario.
type SKUTariffImpact struct {
	SKU               string  `json:"sku"`
	CurrentLandedCost float64 `json:"current_landed_cost"`
	NewLandedCost     float64 `json:"new_landed_cost"`
	AnnualImpactUSD   float64 `json:"annual_impact_usd"`
}

// CountryImpact is the tariff scenario evaluation for one country of origin.
type CountryImpact struct {
	Country         string               `json:"country"`
	CurrentRate     float64              `json:"current_rate"`
	ProposedRate    float64              `json:"proposed_rate"`
	EffectiveDate   string               `json:"effective_date"`
	AffectedSKUs    int                  `json:"affected_skus"`
	AnnualImpactUSD float64              `json:"annual_impact_usd"`
	SKUs            []SKUTariffImpact    `json:"skus"`
	Strategies      []StrategyEvaluation `json:"strategies"`
}
