package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

// Per-kind confidence in the expected impact estimate.
const (
	syncConfidence    = 0.92
	pauseConfidence   = 0.78
	returnsConfidence = 0.88
	tariffConfidence  = 0.66
)

// Rank scores and orders remediation actions for one cycle: channel syncs and
// listing pauses (executable, with command tokens), a returns release when
// stock sits frozen in inspection, and strategic sourcing shifts for pending
// tariff increases (never executable).
//
// The ordering is strictly descending expected risk reduction, ties broken by
// ascending SKU id, so identical cycles always rank identically. The
// composite score (impact, urgency, confidence) is kept for display only.
// Pure computation; executing a command is the actuation boundary's job.
func Rank(items []Item, returns domain.ReturnsState, tariffs []domain.TariffRecord,
	now time.Time, cfg config.EngineConfig, tcfg config.TariffConfig) []domain.Recommendation {

	var candidates []domain.Recommendation

	for _, it := range items {
		if it.Discrepancy && it.RiskValue > 0 {
			gap := maxTriggerGap(it.Triggers)
			candidates = append(candidates, domain.Recommendation{
				Kind:  domain.RecommendSync,
				Title: fmt.Sprintf("Sync %s to WMS truth", it.Name),
				Rationale: fmt.Sprintf("%d-unit listing gap is exposing $%.0f of annualized risk.",
					gap, it.RiskValue),
				Command:                  fmt.Sprintf("sync_inventory:%s", it.ID),
				ExpectedRiskReductionUSD: math.Max(1, it.RiskValue),
				Urgency:                  clamp(float64(gap)/30+it.RiskValue/50000, 0, 1),
				Confidence:               syncConfidence,
				SKU:                      it.ID,
			})
		}

		f := it.Forecast
		if f == nil || f.Risk7D < cfg.PauseRiskThreshold {
			continue
		}
		channel := domain.ChannelShopify
		if it.Channels[domain.ChannelAmazon] > it.Channels[domain.ChannelShopify] {
			channel = domain.ChannelAmazon
		}
		if it.Channels[channel] <= 0 {
			continue
		}
		exposure := (f.Risk7D / 100) * math.Max(1, float64(it.Available)) * it.UnitCost * tcfg.ProjectionFactor
		candidates = append(candidates, domain.Recommendation{
			Kind:  domain.RecommendPause,
			Title: fmt.Sprintf("Pause %s listing for %s", channelTitle(channel), it.ID),
			Rationale: fmt.Sprintf("%.1f%% 7-day stockout risk with ~%.0f days of coverage.",
				f.Risk7D, f.DaysToStockout),
			Command:                  fmt.Sprintf("pause_channel:%s:%s", channel, it.ID),
			ExpectedRiskReductionUSD: math.Max(1, math.Round(exposure)),
			Urgency:                  clamp(f.Risk7D/100, 0, 1),
			Confidence:               pauseConfidence,
			SKU:                      it.ID,
		})
	}

	if returns.InLimboUnits > 0 && returns.FrozenValueUSD > 0 {
		candidates = append(candidates, domain.Recommendation{
			Kind:  domain.RecommendReturns,
			Title: "Release inspected returns to ATP",
			Rationale: fmt.Sprintf("%d units and $%.0f remain frozen for ~%.0f days.",
				returns.InLimboUnits, returns.FrozenValueUSD, returns.AverageDaysStuck),
			Command:                  "release_returns",
			ExpectedRiskReductionUSD: math.Round(returns.FrozenValueUSD),
			Urgency:                  clamp(returns.AverageDaysStuck/30+float64(returns.InLimboUnits)/40, 0, 1),
			Confidence:               returnsConfidence,
		})
	}

	candidates = append(candidates, tariffCandidates(items, tariffs, now, tcfg)...)

	if len(candidates) == 0 {
		return nil
	}

	maxImpact := 1.0
	for _, c := range candidates {
		if c.ExpectedRiskReductionUSD > maxImpact {
			maxImpact = c.ExpectedRiskReductionUSD
		}
	}
	for i := range candidates {
		c := &candidates[i]
		c.Score = round1(100 * (0.5*(c.ExpectedRiskReductionUSD/maxImpact) + 0.3*c.Urgency + 0.2*c.Confidence))
		c.Urgency = round2(c.Urgency)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].ExpectedRiskReductionUSD != candidates[j].ExpectedRiskReductionUSD {
			return candidates[i].ExpectedRiskReductionUSD > candidates[j].ExpectedRiskReductionUSD
		}
		return candidates[i].SKU < candidates[j].SKU
	})

	if cfg.TopRecommendations > 0 && len(candidates) > cfg.TopRecommendations {
		candidates = candidates[:cfg.TopRecommendations]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

// tariffCandidates proposes a strategic sourcing shift for every country with
// a pending rate increase that touches sourced inventory.
func tariffCandidates(items []Item, tariffs []domain.TariffRecord, now time.Time, tcfg config.TariffConfig) []domain.Recommendation {
	var out []domain.Recommendation
	for _, rec := range tariffs {
		if len(rec.Scenarios) == 0 {
			continue
		}
		sc := rec.Scenarios[0]
		delta := sc.Rate - rec.CurrentRate
		if delta <= 0 {
			continue
		}

		exposure := 0.0
		affected := 0
		for _, it := range items {
			if it.CountryOfOrigin != rec.Country {
				continue
			}
			affected++
			exposure += float64(it.TrueATP) * it.UnitCost * delta * tcfg.ProjectionFactor
		}
		if affected == 0 {
			continue
		}

		urgency := clamp(1-daysUntil(sc.EffectiveDate, now)/90, 0.2, 1.0)
		out = append(out, domain.Recommendation{
			Kind:  domain.RecommendTariff,
			Title: fmt.Sprintf("Shift sourcing away from %s", rec.Country),
			Rationale: fmt.Sprintf("Tariff delta of %.0f pts could add ~$%.0f annualized landed cost.",
				delta*100, exposure),
			ExpectedRiskReductionUSD: math.Max(1, math.Round(exposure)),
			Urgency:                  urgency,
			Confidence:               tariffConfidence,
		})
	}
	return out
}

func maxTriggerGap(triggers []domain.Trigger) int {
	gap := 0
	for _, t := range triggers {
		if t.Gap > gap {
			gap = t.Gap
		}
	}
	return gap
}

// daysUntil returns whole days from now to a YYYY-MM-DD date, floored at
// zero; unparseable dates fall back to a 30-day horizon.
func daysUntil(date string, now time.Time) float64 {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 30
	}
	d := math.Floor(t.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
