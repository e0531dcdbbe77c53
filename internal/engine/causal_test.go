package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

func TestBuildChainStructure(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine

	item := testItem(domain.ChannelQuantities{"shopify": 297, "amazon": 410, "wms": 400})
	item.Quarantined = 40
	res, err := Reconcile(item, cfg)
	require.NoError(t, err)
	Valuate(item, &res, cfg)

	chain := BuildChain(item, res)
	require.NotNil(t, chain)

	require.Len(t, chain.Nodes, 4)
	assert.Equal(t, "Trigger", chain.Nodes[0].Label)
	assert.Equal(t, "Mechanism", chain.Nodes[1].Label)
	assert.Equal(t, "Effect", chain.Nodes[2].Label)
	assert.Equal(t, "Remedy", chain.Nodes[3].Label)

	// Shopify gap (103) outranks the Amazon gap (10).
	assert.Equal(t, domain.TriggerShopifyMismatch, chain.Basis)
	assert.Contains(t, chain.Nodes[0].Text, "Shopify listed at 297")
	assert.Contains(t, chain.Nodes[0].Text, "WMS truth of 400")
	assert.Contains(t, chain.Nodes[0].Text, "103-unit gap")
	assert.Contains(t, chain.Nodes[1].Text, "webhook")
	assert.Contains(t, chain.Nodes[2].Text, "$35.1K")
	assert.Contains(t, chain.Nodes[3].Text, "SKU-1001")
	assert.Contains(t, chain.Nodes[3].Text, "400 units")
}

func TestBuildChainAmazonBasis(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine

	item := testItem(domain.ChannelQuantities{"shopify": 398, "amazon": 450, "wms": 400})
	res, err := Reconcile(item, cfg)
	require.NoError(t, err)
	Valuate(item, &res, cfg)

	chain := BuildChain(item, res)
	require.NotNil(t, chain)
	assert.Equal(t, domain.TriggerAmazonMismatch, chain.Basis)
	assert.Contains(t, chain.Nodes[1].Text, "Amazon inventory feed")
}

func TestBuildChainNilWhenClean(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine

	item := testItem(domain.ChannelQuantities{"shopify": 400, "amazon": 400, "wms": 400})
	res, err := Reconcile(item, cfg)
	require.NoError(t, err)
	Valuate(item, &res, cfg)

	assert.Nil(t, BuildChain(item, res))
}

func TestChainBasisTieBreak(t *testing.T) {
	t.Parallel()

	// Identical risk on both triggers keeps the earlier-declared one.
	triggers := []domain.Trigger{
		{Type: domain.TriggerShopifyMismatch, Gap: 10, RiskUSD: 3408},
		{Type: domain.TriggerAmazonMismatch, Gap: 10, RiskUSD: 3408},
	}
	assert.Equal(t, domain.TriggerShopifyMismatch, chainBasis(triggers).Type)

	// A strictly larger risk wins regardless of order.
	triggers[1].RiskUSD = 3409
	assert.Equal(t, domain.TriggerAmazonMismatch, chainBasis(triggers).Type)
}

func TestReorderChain(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine

	item := testItem(domain.ChannelQuantities{"shopify": 90, "amazon": 90, "wms": 90})
	item.ReorderPoint = 120
	res, err := Reconcile(item, cfg)
	require.NoError(t, err)
	Valuate(item, &res, cfg)

	chain := reorderChain(item, res)
	require.NotNil(t, chain)
	require.Len(t, chain.Nodes, 4)
	assert.Empty(t, chain.Basis)
	assert.Contains(t, chain.Nodes[0].Text, "90 units on hand vs 120 safety threshold")
	assert.Contains(t, chain.Nodes[1].Text, "30-day lead time")
	assert.Contains(t, chain.Nodes[3].Text, "Reorder 240 units")
}

func TestReorderQty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 240, reorderQty(120))
	assert.Equal(t, 100, reorderQty(40))
	assert.Equal(t, 100, reorderQty(50))
	assert.Equal(t, 102, reorderQty(51))
}

func TestFmtUSD(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$35.1K", fmtUSD(35102.40))
	assert.Equal(t, "$0.5K", fmtUSD(480))
	assert.Equal(t, "$1.25M", fmtUSD(1_250_000))
}
