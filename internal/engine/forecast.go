package engine

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

// Forecast projects stockout risk over the 7 and 14 day horizons from true
// ATP, the trailing velocity series, and lead time.
//
// Daily demand is the mean of the positive values among the trailing window
// points; if none are positive, committed units spread over the fallback
// window stand in. Horizon risk rises sharply once projected depletion falls
// inside the horizon-plus-lead-time window and stays near zero when depletion
// is far beyond it.
//
// Fewer than two velocity points means there is no trend to project from, so
// the forecast is absent rather than fabricated.
func Forecast(item domain.SnapshotItem, trueATP int, cfg config.ForecastConfig) (*domain.StockoutForecast, error) {
	if len(item.VelocitySeries) < 2 {
		return nil, eris.Wrapf(ErrInsufficientHistory,
			"sku %s: %d velocity points", item.ID, len(item.VelocitySeries))
	}

	daily := trailingDemand(item.VelocitySeries, cfg.TrailingPoints)
	if daily <= 0 {
		daily = math.Max(1.0, float64(item.Committed)/cfg.FallbackDemandDays)
	}

	days := float64(trueATP) / math.Max(1.0, daily)
	lead := math.Max(1.0, float64(item.LeadTimeDays))
	leadPressure := sigmoid((lead - days) / cfg.LeadScale)

	horizonRisk := func(horizon float64) float64 {
		push := sigmoid((horizon - days) / cfg.HorizonScale)
		base := 0.05 + 0.65*push + 0.25*leadPressure
		if trueATP <= item.ReorderPoint {
			base += cfg.ReorderBump
		}
		return clamp(base, 0.01, 0.99)
	}

	n := len(item.VelocitySeries)
	confidence := clamp(0.55+math.Min(0.3, float64(n)*0.03), 0.55, 0.9)

	return &domain.StockoutForecast{
		DailyDemand:    round2(daily),
		DaysToStockout: round1(days),
		Risk7D:         round1(horizonRisk(7) * 100),
		Risk14D:        round1(horizonRisk(14) * 100),
		Confidence:     round2(confidence),
	}, nil
}

// trailingDemand averages the positive values among the last n points.
func trailingDemand(series []float64, n int) float64 {
	if n <= 0 {
		n = len(series)
	}
	start := len(series) - n
	if start < 0 {
		start = 0
	}

	sum, count := 0.0, 0
	for _, v := range series[start:] {
		if v > 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func roundUSD(v float64) float64 { return math.Round(v*100) / 100 }
