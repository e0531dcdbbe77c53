package tariff

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

// ErrInvalidScenario means a tariff record carries no usable scenario (missing
// rate or effective date). The record is excluded from evaluation and surfaced
// as a degraded-data warning; the rest of the evaluation proceeds.
var ErrInvalidScenario = eris.New("invalid tariff scenario")

// AffectedSKU is the slice of reconciled state the calculator needs: identity,
// origin, cost basis, and true ATP as the volume proxy.
type AffectedSKU struct {
	ID       string
	Country  string
	UnitCost float64
	TrueATP  int
}

// Calculator evaluates tariff rate scenarios and mitigation strategies.
// Pure arithmetic over read-only inputs; identical inputs always yield
// identical numbers.
type Calculator struct {
	cfg config.TariffConfig
}

// NewCalculator creates a Calculator with the given thresholds.
func NewCalculator(cfg config.TariffConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Evaluate computes the landed-cost delta and annual financial impact of each
// country's first scenario against the SKUs sourced there, then evaluates the
// named mitigation strategies. Records with no valid scenario come back as
// errors alongside the impacts that did evaluate.
//
// Annual impact projects true ATP with the quarterly-to-annual factor: the
// model assumes true ATP approximates a recurring quarterly order volume.
func (c *Calculator) Evaluate(records []domain.TariffRecord, skus []AffectedSKU) ([]domain.CountryImpact, []error) {
	var impacts []domain.CountryImpact
	var degraded []error

	for _, rec := range records {
		sc, err := firstScenario(rec)
		if err != nil {
			degraded = append(degraded, err)
			continue
		}

		impact := domain.CountryImpact{
			Country:       rec.Country,
			CurrentRate:   rec.CurrentRate,
			ProposedRate:  sc.Rate,
			EffectiveDate: sc.EffectiveDate,
		}

		var affected []AffectedSKU
		for _, sku := range skus {
			if sku.Country != rec.Country {
				continue
			}
			affected = append(affected, sku)

			currentLanded := sku.UnitCost * (1 + rec.CurrentRate)
			newLanded := sku.UnitCost * (1 + sc.Rate)
			annual := float64(sku.TrueATP) * (newLanded - currentLanded) * c.cfg.ProjectionFactor

			impact.SKUs = append(impact.SKUs, domain.SKUTariffImpact{
				SKU:               sku.ID,
				CurrentLandedCost: roundUSD(currentLanded),
				NewLandedCost:     roundUSD(newLanded),
				AnnualImpactUSD:   roundUSD(annual),
			})
			impact.AnnualImpactUSD += annual
		}

		impact.AffectedSKUs = len(affected)
		impact.AnnualImpactUSD = roundUSD(impact.AnnualImpactUSD)
		impact.Strategies = c.strategies(impact.AnnualImpactUSD, rec.CurrentRate, affected)
		impacts = append(impacts, impact)
	}

	return impacts, degraded
}

// strategies evaluates the three named mitigation policies against one
// country's annual impact.
//
// Relocation reprices the affected volume on the fixed alternative-origin
// basis (origin unit cost scaled by the alternative cost factor, under the
// alternative tariff) instead of the origin's new landed cost; savings are
// the impact minus that alternative's annual cost, floored at zero so origins
// already sourced on the cheaper basis never report phantom savings. Split
// sourcing captures the configured fraction of the relocation savings.
func (c *Calculator) strategies(annualImpact, currentRate float64, affected []AffectedSKU) []domain.StrategyEvaluation {
	altCost := 0.0
	for _, sku := range affected {
		currentLanded := sku.UnitCost * (1 + currentRate)
		altLanded := sku.UnitCost * c.cfg.AltCostBasis * (1 + c.cfg.AltTariffRate)
		altCost += float64(sku.TrueATP) * (altLanded - currentLanded) * c.cfg.ProjectionFactor
	}

	shiftSavings := annualImpact - altCost
	if shiftSavings < 0 {
		shiftSavings = 0
	}
	splitSavings := c.cfg.SplitRatio * shiftSavings

	return []domain.StrategyEvaluation{
		{
			Strategy:      domain.StrategyDoNothing,
			AnnualCostUSD: roundUSD(annualImpact),
			SavingsUSD:    0,
		},
		{
			Strategy:      domain.StrategyShiftMexico,
			AnnualCostUSD: roundUSD(annualImpact - shiftSavings),
			SavingsUSD:    roundUSD(shiftSavings),
		},
		{
			Strategy:      domain.StrategySplitSource,
			AnnualCostUSD: roundUSD(annualImpact - splitSavings),
			SavingsUSD:    roundUSD(splitSavings),
		},
	}
}

func firstScenario(rec domain.TariffRecord) (domain.TariffScenario, error) {
	if len(rec.Scenarios) == 0 {
		return domain.TariffScenario{}, eris.Wrapf(ErrInvalidScenario, "%s: no scenarios", rec.Country)
	}
	sc := rec.Scenarios[0]
	if sc.Rate <= 0 {
		return domain.TariffScenario{}, eris.Wrapf(ErrInvalidScenario, "%s: scenario missing rate", rec.Country)
	}
	if sc.EffectiveDate == "" {
		return domain.TariffScenario{}, eris.Wrapf(ErrInvalidScenario, "%s: scenario missing effective date", rec.Country)
	}
	return sc, nil
}

func roundUSD(v float64) float64 {
	return math.Round(v*100) / 100
}
