package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

// Valuate converts a reconciliation result into a dollar exposure and severity
// tier. Risk is the largest unit mismatch across fired triggers times unit
// cost, annualized; a non-discrepant SKU always values at zero.
//
// The reorder breach flag is a separate supply-runway signal: it fires when
// true ATP is at or below the reorder point regardless of discrepancy state,
// and never changes the discrepancy severity tier.
func Valuate(item domain.SnapshotItem, res *domain.ReconciliationResult, cfg config.EngineConfig) {
	maxGap := 0
	for i := range res.Triggers {
		t := &res.Triggers[i]
		t.RiskUSD = roundUSD(float64(t.Gap) * item.UnitCost * cfg.RiskAnnualization)
		if t.Gap > maxGap {
			maxGap = t.Gap
		}
	}

	if res.Discrepancy {
		res.RiskValue = roundUSD(float64(maxGap) * item.UnitCost * cfg.RiskAnnualization)
	}

	switch {
	case res.RiskValue > cfg.CriticalRiskUSD:
		res.Severity = domain.SeverityCritical
	case res.RiskValue > 0:
		res.Severity = domain.SeverityWarning
	default:
		res.Severity = domain.SeverityOK
	}

	res.ReorderBreach = res.TrueATP <= item.ReorderPoint
}

// alertsFor builds the immutable alerts for one evaluated SKU: one per
// discrepancy and one per reorder breach. Each carries the causal chain and,
// for discrepancies, a sync command token for the actuation boundary.
func alertsFor(item domain.SnapshotItem, res domain.ReconciliationResult, now time.Time) []domain.Alert {
	var alerts []domain.Alert

	if res.Discrepancy {
		basis := chainBasis(res.Triggers)
		typ := domain.AlertWarning
		if res.Severity == domain.SeverityCritical {
			typ = domain.AlertCritical
		}
		alerts = append(alerts, domain.Alert{
			ID:   uuid.NewString(),
			Type: typ,
			SKU:  item.ID,
			Message: fmt.Sprintf("%s: %d-unit gap detected — %s (%d) vs WMS (%d)",
				item.Name, basis.Gap, channelTitle(basis.Channel), basis.ChannelQty, basis.WMSQty),
			RiskUSD:   res.RiskValue,
			Cause:     BuildChain(item, res),
			Command:   fmt.Sprintf("sync_inventory:%s", item.ID),
			CreatedAt: now,
		})
	}

	if res.ReorderBreach {
		alerts = append(alerts, domain.Alert{
			ID:   uuid.NewString(),
			Type: domain.AlertWarning,
			SKU:  item.ID,
			Message: fmt.Sprintf("%s approaching reorder point — %d available vs %d threshold",
				item.Name, res.TrueATP, item.ReorderPoint),
			RiskUSD:   res.RiskValue,
			Cause:     reorderChain(item, res),
			CreatedAt: now,
		})
	}

	return alerts
}
