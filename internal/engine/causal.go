package engine

import (
	"fmt"

	"github.com/nexuslink/reconciler/internal/domain"
)

// Node labels, in the only order a chain may carry them.
const (
	nodeTrigger   = "Trigger"
	nodeMechanism = "Mechanism"
	nodeEffect    = "Effect"
	nodeRemedy    = "Remedy"
)

// BuildChain constructs the 4-node explanation for a discrepant SKU:
// what desynced, why, what it costs, and what to do about it. Every node is
// parameterized with the SKU's actual unit and dollar numbers.
//
// When multiple triggers fired, the highest-risk one is the chain's basis;
// exact ties resolve by trigger declaration order (Shopify before Amazon).
// Returns nil for non-discrepant results.
func BuildChain(item domain.SnapshotItem, res domain.ReconciliationResult) *domain.CausalChain {
	if !res.Discrepancy || len(res.Triggers) == 0 {
		return nil
	}

	basis := chainBasis(res.Triggers)

	var mechanism string
	switch basis.Type {
	case domain.TriggerShopifyMismatch:
		mechanism = fmt.Sprintf(
			"Shopify webhook sync lag — storefront count drifted %d units from the warehouse while updates were delayed",
			basis.Gap)
	case domain.TriggerAmazonMismatch:
		mechanism = fmt.Sprintf(
			"Amazon inventory feed lag or API failure — marketplace count is %d units stale against the warehouse",
			basis.Gap)
	}

	return &domain.CausalChain{
		Basis: basis.Type,
		Nodes: []domain.CausalNode{
			{Label: nodeTrigger, Text: fmt.Sprintf(
				"%s listed at %d vs WMS truth of %d — %d-unit gap on %s",
				channelTitle(basis.Channel), basis.ChannelQty, basis.WMSQty, basis.Gap, item.ID)},
			{Label: nodeMechanism, Text: mechanism},
			{Label: nodeEffect, Text: fmt.Sprintf(
				"%s capital at risk — backorder fulfillment required for %d oversold units",
				fmtUSD(res.RiskValue), basis.Gap)},
			{Label: nodeRemedy, Text: fmt.Sprintf(
				"Sync %s to WMS truth (%d units) across all channels",
				item.ID, basis.WMSQty)},
		},
	}
}

// reorderChain explains a supply-runway breach. Distinct from discrepancy
// chains: the trigger is demand against the safety threshold, not a desync.
func reorderChain(item domain.SnapshotItem, res domain.ReconciliationResult) *domain.CausalChain {
	return &domain.CausalChain{
		Nodes: []domain.CausalNode{
			{Label: nodeTrigger, Text: fmt.Sprintf(
				"Sustained demand for %s — %d units on hand vs %d safety threshold",
				item.Name, res.TrueATP, item.ReorderPoint)},
			{Label: nodeMechanism, Text: fmt.Sprintf(
				"Replenishment runs on a %d-day lead time; demand is consuming the buffer faster than the next PO can land",
				item.LeadTimeDays)},
			{Label: nodeEffect, Text: fmt.Sprintf(
				"Stockout probable before replenishment arrives — only %d sellable units remain",
				res.TrueATP)},
			{Label: nodeRemedy, Text: fmt.Sprintf(
				"Reorder %d units (%s) or transfer stock from another channel",
				reorderQty(item.ReorderPoint), fmtUSD(float64(reorderQty(item.ReorderPoint))*item.UnitCost))},
		},
	}
}

// chainBasis picks the highest-risk trigger; strict comparison keeps the
// earlier-declared trigger on ties.
func chainBasis(triggers []domain.Trigger) domain.Trigger {
	basis := triggers[0]
	for _, t := range triggers[1:] {
		if t.RiskUSD > basis.RiskUSD {
			basis = t
		}
	}
	return basis
}

func reorderQty(reorderPoint int) int {
	qty := reorderPoint * 2
	if qty < 100 {
		qty = 100
	}
	return qty
}

func channelTitle(ch domain.Channel) string {
	switch ch {
	case domain.ChannelShopify:
		return "Shopify"
	case domain.ChannelAmazon:
		return "Amazon"
	case domain.ChannelWMS:
		return "WMS"
	case domain.ChannelPOS:
		return "POS"
	case domain.ChannelShipBob:
		return "ShipBob"
	}
	return string(ch)
}

func fmtUSD(v float64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	}
	return fmt.Sprintf("$%.1fK", v/1_000)
}
