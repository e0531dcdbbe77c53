package engine

import (
	"github.com/rotisserie/eris"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

// Reconcile computes true ATP and discrepancy classification for one SKU from
// its channel quantity set. It is a pure function: identical inputs always
// yield identical results.
//
// True ATP is the WMS on-hand count minus any quantity held in quarantine
// (returns limbo), floored at zero. Two discrepancy triggers are evaluated
// independently against the WMS truth: an exact Shopify mismatch, and an
// Amazon gap beyond the configured unit threshold. A SKU can trip both.
//
// A channel other than WMS that reported nothing is simply not compared;
// treating absence as zero would manufacture phantom discrepancies.
func Reconcile(item domain.SnapshotItem, cfg config.EngineConfig) (domain.ReconciliationResult, error) {
	wms, ok := item.Channels[domain.ChannelWMS]
	if !ok {
		return domain.ReconciliationResult{}, eris.Wrapf(ErrMissingCanonicalSource,
			"sku %s: no wms quantity in snapshot", item.ID)
	}

	trueATP := wms - item.Quarantined
	if trueATP < 0 {
		trueATP = 0
	}

	res := domain.ReconciliationResult{
		TrueATP:  trueATP,
		Severity: domain.SeverityOK,
	}

	if shopify, ok := item.Channels[domain.ChannelShopify]; ok && shopify != wms {
		res.Triggers = append(res.Triggers, domain.Trigger{
			Type:       domain.TriggerShopifyMismatch,
			Channel:    domain.ChannelShopify,
			ChannelQty: shopify,
			WMSQty:     wms,
			Gap:        absInt(shopify - wms),
		})
	}

	if amazon, ok := item.Channels[domain.ChannelAmazon]; ok && absInt(amazon-wms) > cfg.AmazonGapThreshold {
		res.Triggers = append(res.Triggers, domain.Trigger{
			Type:       domain.TriggerAmazonMismatch,
			Channel:    domain.ChannelAmazon,
			ChannelQty: amazon,
			WMSQty:     wms,
			Gap:        absInt(amazon - wms),
		})
	}

	res.Discrepancy = len(res.Triggers) > 0
	return res, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
