package engine

import (
	"math"

	"github.com/nexuslink/reconciler/internal/domain"
)

// Health summarizes a cycle as a 0-100 score built from four 0-25 components:
// how many SKUs are out of sync, how much capital is exposed, how badly
// returns are backed up, and the alert mix.
func Health(items []Item, returns domain.ReturnsState, alerts []domain.Alert) domain.HealthScore {
	discCount := 0
	totalRisk := 0.0
	for _, it := range items {
		if it.Discrepancy {
			discCount++
		}
		totalRisk += it.RiskValue
	}
	discScore := math.Max(0, 25-float64(discCount)*5)
	riskScore := math.Max(0, 25-math.Min(25, totalRisk/5000))
	returnsScore := math.Max(0, 25-math.Min(25, returns.AverageDaysStuck*0.5+returns.FrozenValueUSD/5000))

	critical, warning := 0, 0
	for _, a := range alerts {
		switch a.Type {
		case domain.AlertCritical:
			critical++
		case domain.AlertWarning:
			warning++
		}
	}
	alertScore := math.Max(0, 25-float64(critical)*5-float64(warning)*2)

	total := int(math.Round(discScore + riskScore + returnsScore + alertScore))
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return domain.HealthScore{
		Score: total,
		Breakdown: domain.HealthBreakdown{
			InventorySync: int(math.Round(discScore)),
			RiskExposure:  int(math.Round(riskScore)),
			ReturnsFlow:   int(math.Round(returnsScore)),
			AlertHealth:   int(math.Round(alertScore)),
		},
	}
}
