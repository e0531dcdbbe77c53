package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
	"github.com/nexuslink/reconciler/internal/tariff"
)

// Item is one SKU's slice of the engine output contract: the snapshot input
// joined with everything the engine derived from it.
type Item struct {
	domain.SKURecord
	domain.ReconciliationResult
	Channels    domain.ChannelQuantities `json:"channels"`
	Quarantined int                      `json:"quarantined,omitempty"`
	Committed   int                      `json:"committed,omitempty"`
	Available   int                      `json:"available"`
	Forecast    *domain.StockoutForecast `json:"stockout_forecast,omitempty"`
}

// SkippedSKU records a SKU the cycle could not evaluate and why. Skipped SKUs
// appear in no alerts and no risk totals.
type SkippedSKU struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

// CycleResult is one complete evaluation of the full SKU set. It is immutable
// once built; consumers always read a whole cycle or the previous one, never
// a half-updated mix.
type CycleResult struct {
	CycleID         string                  `json:"cycle_id"`
	EvaluatedAt     time.Time               `json:"evaluated_at"`
	Items           []Item                  `json:"inventory"`
	Alerts          []domain.Alert          `json:"alerts"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	TariffScenarios []domain.CountryImpact  `json:"tariff_scenarios"`
	Returns         domain.ReturnsState     `json:"returns"`
	Health          domain.HealthScore      `json:"health"`
	Skipped         []SkippedSKU            `json:"skipped,omitempty"`
}

// Engine is the reconciliation and risk-scoring core. It is stateless: every
// cycle is a pure function of the snapshot, returns state, and tariff
// reference data it is handed.
type Engine struct {
	cfg  config.EngineConfig
	fcfg config.ForecastConfig
	tcfg config.TariffConfig

	tariffs *tariff.Calculator
	log     *zap.Logger
	now     func() time.Time
}

// New creates an Engine from the application configuration.
func New(cfg config.Config, log *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg.Engine,
		fcfg:    cfg.Forecast,
		tcfg:    cfg.Tariff,
		tariffs: tariff.NewCalculator(cfg.Tariff),
		log:     log,
		now:     time.Now,
	}
}

type perSKU struct {
	item   *Item
	skip   *SkippedSKU
	alerts []domain.Alert
}

// EvaluateCycle runs every engine unit over the snapshot and joins the
// results into one consistent cycle. Per-SKU work fans out in parallel (there
// is no cross-SKU state); ranking and totals run only after the join.
func (e *Engine) EvaluateCycle(snap domain.Snapshot, returns domain.ReturnsState, tariffs []domain.TariffRecord) *CycleResult {
	evaluatedAt := e.now()

	results := make([]perSKU, len(snap.Items))
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.MaxParallel)
	for i := range snap.Items {
		i := i
		g.Go(func() error {
			results[i] = e.evaluateOne(snap.Items[i], evaluatedAt)
			return nil
		})
	}
	// Workers record failures as skips; the group never carries an error.
	_ = g.Wait()

	res := &CycleResult{
		CycleID:     uuid.NewString(),
		EvaluatedAt: evaluatedAt,
		Returns:     returns,
	}
	for _, r := range results {
		if r.skip != nil {
			res.Skipped = append(res.Skipped, *r.skip)
			continue
		}
		res.Items = append(res.Items, *r.item)
		res.Alerts = append(res.Alerts, r.alerts...)
	}

	impacts, degraded := e.tariffs.Evaluate(tariffs, affectedSKUs(res.Items))
	res.TariffScenarios = impacts
	for _, err := range degraded {
		e.log.Warn("tariff scenario excluded", zap.Error(err))
		res.Alerts = append(res.Alerts, domain.Alert{
			ID:        uuid.NewString(),
			Type:      domain.AlertWarning,
			Message:   "Degraded tariff data: " + err.Error() + " — scenario excluded from evaluation",
			CreatedAt: evaluatedAt,
		})
	}

	res.Recommendations = Rank(res.Items, returns, tariffs, evaluatedAt, e.cfg, e.tcfg)
	res.Health = Health(res.Items, returns, res.Alerts)

	e.log.Info("cycle evaluated",
		zap.String("cycle_id", res.CycleID),
		zap.Int("skus", len(res.Items)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("alerts", len(res.Alerts)),
		zap.Int("recommendations", len(res.Recommendations)),
		zap.Int("health", res.Health.Score),
	)

	return res
}

// evaluateOne runs reconciliation, valuation, forecasting, and alert
// construction for a single SKU. Failures isolate to this SKU.
func (e *Engine) evaluateOne(item domain.SnapshotItem, now time.Time) perSKU {
	rec, err := Reconcile(item, e.cfg)
	if err != nil {
		e.log.Warn("sku skipped", zap.String("sku", item.ID), zap.Error(err))
		return perSKU{skip: &SkippedSKU{SKU: item.ID, Reason: eris.Cause(err).Error()}}
	}

	Valuate(item, &rec, e.cfg)

	forecast, err := Forecast(item, rec.TrueATP, e.fcfg)
	if err != nil {
		// No forecast is a degraded field, not a failure.
		e.log.Debug("no forecast", zap.String("sku", item.ID), zap.Error(err))
	}

	available := rec.TrueATP - item.Committed
	if available < 0 {
		available = 0
	}

	out := &Item{
		SKURecord:            item.SKURecord,
		ReconciliationResult: rec,
		Channels:             item.Channels,
		Quarantined:          item.Quarantined,
		Committed:            item.Committed,
		Available:            available,
		Forecast:             forecast,
	}

	return perSKU{item: out, alerts: alertsFor(item, rec, now)}
}

func affectedSKUs(items []Item) []tariff.AffectedSKU {
	out := make([]tariff.AffectedSKU, 0, len(items))
	for _, it := range items {
		out = append(out, tariff.AffectedSKU{
			ID:       it.ID,
			Country:  it.CountryOfOrigin,
			UnitCost: it.UnitCost,
			TrueATP:  it.TrueATP,
		})
	}
	return out
}
