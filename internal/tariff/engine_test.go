package tariff

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

func vietnamRecord() domain.TariffRecord {
	return domain.TariffRecord{
		Country:     "Vietnam",
		CurrentRate: 0.10,
		Scenarios:   []domain.TariffScenario{{Rate: 0.32, EffectiveDate: "2026-11-01"}},
	}
}

func vietnamSKUs(n int) []AffectedSKU {
	skus := make([]AffectedSKU, 0, n)
	for i := 0; i < n; i++ {
		skus = append(skus, AffectedSKU{
			ID:       "SKU-3000",
			Country:  "Vietnam",
			UnitCost: 28.40,
			TrueATP:  50,
		})
	}
	return skus
}

func TestEvaluateAnnualImpact(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(config.Default().Tariff)

	// 20 SKUs * 50 units * $28.40 * 0.22 rate delta * quarterly factor 4.
	impacts, degraded := calc.Evaluate([]domain.TariffRecord{vietnamRecord()}, vietnamSKUs(20))
	require.Empty(t, degraded)
	require.Len(t, impacts, 1)

	imp := impacts[0]
	assert.Equal(t, "Vietnam", imp.Country)
	assert.Equal(t, 0.10, imp.CurrentRate)
	assert.Equal(t, 0.32, imp.ProposedRate)
	assert.Equal(t, "2026-11-01", imp.EffectiveDate)
	assert.Equal(t, 20, imp.AffectedSKUs)
	assert.InDelta(t, 24992.00, imp.AnnualImpactUSD, 0.01)

	require.Len(t, imp.SKUs, 20)
	sku := imp.SKUs[0]
	assert.InDelta(t, 31.24, sku.CurrentLandedCost, 0.001)
	assert.InDelta(t, 37.49, sku.NewLandedCost, 0.005)
	assert.InDelta(t, 1249.60, sku.AnnualImpactUSD, 0.01)
}

func TestEvaluateStrategies(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(config.Default().Tariff)

	impacts, _ := calc.Evaluate([]domain.TariffRecord{vietnamRecord()}, vietnamSKUs(20))
	require.Len(t, impacts, 1)
	require.Len(t, impacts[0].Strategies, 3)

	byName := make(map[domain.StrategyName]domain.StrategyEvaluation, 3)
	for _, s := range impacts[0].Strategies {
		byName[s.Strategy] = s
	}

	doNothing := byName[domain.StrategyDoNothing]
	assert.InDelta(t, 24992.00, doNothing.AnnualCostUSD, 0.01)
	assert.Zero(t, doNothing.SavingsUSD)

	// Alternative landed cost: 28.40 * 0.85 * 1.05 = 25.347 vs current 31.24.
	shift := byName[domain.StrategyShiftMexico]
	assert.InDelta(t, 48564.00, shift.SavingsUSD, 0.01)
	assert.InDelta(t, -23572.00, shift.AnnualCostUSD, 0.01)

	split := byName[domain.StrategySplitSource]
	assert.InDelta(t, 0.40*shift.SavingsUSD, split.SavingsUSD, 0.01)
	assert.InDelta(t, doNothing.AnnualCostUSD-split.SavingsUSD, split.AnnualCostUSD, 0.01)
}

func TestEvaluateSavingsFlooredAtZero(t *testing.T) {
	t.Parallel()

	// With an alternative basis above the origin's landed cost the relocation
	// can only lose money; savings must floor at zero, not go negative.
	cfg := config.Default().Tariff
	cfg.AltCostBasis = 1.40
	calc := NewCalculator(cfg)

	rec := domain.TariffRecord{
		Country:     "Vietnam",
		CurrentRate: 0.10,
		Scenarios:   []domain.TariffScenario{{Rate: 0.12, EffectiveDate: "2026-11-01"}},
	}
	impacts, _ := calc.Evaluate([]domain.TariffRecord{rec}, vietnamSKUs(5))
	require.Len(t, impacts, 1)

	for _, s := range impacts[0].Strategies {
		assert.GreaterOrEqual(t, s.SavingsUSD, 0.0)
		if s.Strategy != domain.StrategyDoNothing {
			assert.Zero(t, s.SavingsUSD)
			assert.Equal(t, impacts[0].AnnualImpactUSD, s.AnnualCostUSD)
		}
	}
}

func TestEvaluateInvalidScenarios(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(config.Default().Tariff)

	records := []domain.TariffRecord{
		vietnamRecord(),
		{Country: "China", CurrentRate: 0.18},
		{Country: "India", CurrentRate: 0.08, Scenarios: []domain.TariffScenario{{Rate: 0, EffectiveDate: "2027-01-01"}}},
		{Country: "Thailand", CurrentRate: 0.05, Scenarios: []domain.TariffScenario{{Rate: 0.15}}},
	}

	impacts, degraded := calc.Evaluate(records, vietnamSKUs(2))

	// One valid record evaluates; the three malformed ones come back as errors.
	require.Len(t, impacts, 1)
	assert.Equal(t, "Vietnam", impacts[0].Country)
	require.Len(t, degraded, 3)
	for _, err := range degraded {
		assert.True(t, eris.Is(err, ErrInvalidScenario))
	}
	assert.Contains(t, degraded[0].Error(), "China")
	assert.Contains(t, degraded[1].Error(), "India")
	assert.Contains(t, degraded[2].Error(), "Thailand")
}

func TestEvaluateNoSourcedSKUs(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(config.Default().Tariff)

	skus := []AffectedSKU{{ID: "SKU-9", Country: "Mexico", UnitCost: 10, TrueATP: 100}}
	impacts, degraded := calc.Evaluate([]domain.TariffRecord{vietnamRecord()}, skus)

	require.Empty(t, degraded)
	require.Len(t, impacts, 1)
	assert.Zero(t, impacts[0].AffectedSKUs)
	assert.Zero(t, impacts[0].AnnualImpactUSD)
	assert.Empty(t, impacts[0].SKUs)
}

func TestEvaluateDeterministic(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(config.Default().Tariff)

	first, _ := calc.Evaluate([]domain.TariffRecord{vietnamRecord()}, vietnamSKUs(20))
	for i := 0; i < 5; i++ {
		again, _ := calc.Evaluate([]domain.TariffRecord{vietnamRecord()}, vietnamSKUs(20))
		assert.Equal(t, first, again)
	}
}
