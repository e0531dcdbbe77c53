package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
)

func TestValuate(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine

	t.Run("risk from largest gap annualized", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 297, "amazon": 410, "wms": 400})
		item.Quarantined = 40
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)

		Valuate(item, &res, cfg)

		// 103 units * $28.40 * 12
		assert.InDelta(t, 35102.40, res.RiskValue, 0.01)
		assert.InDelta(t, 35102.40, res.Triggers[0].RiskUSD, 0.01)
		// 10 units * $28.40 * 12
		assert.InDelta(t, 3408.00, res.Triggers[1].RiskUSD, 0.01)
		assert.Equal(t, domain.SeverityCritical, res.Severity)
	})

	t.Run("clean sku values at zero", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 400, "amazon": 400, "wms": 400})
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)

		Valuate(item, &res, cfg)

		assert.Zero(t, res.RiskValue)
		assert.Equal(t, domain.SeverityOK, res.Severity)
	})

	t.Run("small gap is warning", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 390, "wms": 400})
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)

		Valuate(item, &res, cfg)

		// 10 units * $28.40 * 12 = $3,408 < $5,000
		assert.Equal(t, domain.SeverityWarning, res.Severity)
	})

	t.Run("risk exactly at threshold stays warning", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 390, "wms": 400})
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)

		tight := cfg
		tight.CriticalRiskUSD = 3408.00
		Valuate(item, &res, tight)

		assert.InDelta(t, 3408.00, res.RiskValue, 0.01)
		assert.Equal(t, domain.SeverityWarning, res.Severity)
	})
}

func TestValuateReorderBreach(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine

	tests := []struct {
		name    string
		wms     int
		reorder int
		want    bool
	}{
		{"well above point", 400, 120, false},
		{"exactly at point breaches", 120, 120, true},
		{"below point breaches", 80, 120, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			item := testItem(domain.ChannelQuantities{"shopify": tt.wms, "amazon": tt.wms, "wms": tt.wms})
			item.ReorderPoint = tt.reorder
			res, err := Reconcile(item, cfg)
			require.NoError(t, err)

			Valuate(item, &res, cfg)

			assert.Equal(t, tt.want, res.ReorderBreach)
			// A breach alone never changes the discrepancy tier.
			assert.Equal(t, domain.SeverityOK, res.Severity)
		})
	}
}

func TestAlertsFor(t *testing.T) {
	t.Parallel()
	cfg := config.Default().Engine
	now := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)

	t.Run("critical discrepancy alert carries chain and command", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 297, "amazon": 410, "wms": 400})
		item.Quarantined = 40
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)
		Valuate(item, &res, cfg)

		alerts := alertsFor(item, res, now)
		require.Len(t, alerts, 1)

		a := alerts[0]
		assert.Equal(t, domain.AlertCritical, a.Type)
		assert.Equal(t, "SKU-1001", a.SKU)
		assert.Equal(t, "sync_inventory:SKU-1001", a.Command)
		assert.Contains(t, a.Message, "103-unit gap")
		assert.Contains(t, a.Message, "Shopify (297)")
		assert.Contains(t, a.Message, "WMS (400)")
		require.NotNil(t, a.Cause)
		assert.Len(t, a.Cause.Nodes, 4)
		assert.NotEmpty(t, a.ID)
		assert.Equal(t, now, a.CreatedAt)
	})

	t.Run("reorder breach alert is a separate warning without command", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 100, "amazon": 100, "wms": 100})
		item.ReorderPoint = 120
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)
		Valuate(item, &res, cfg)

		alerts := alertsFor(item, res, now)
		require.Len(t, alerts, 1)

		a := alerts[0]
		assert.Equal(t, domain.AlertWarning, a.Type)
		assert.Empty(t, a.Command)
		assert.Contains(t, a.Message, "reorder point")
		require.NotNil(t, a.Cause)
		assert.Len(t, a.Cause.Nodes, 4)
	})

	t.Run("discrepancy plus breach emits both", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 80, "wms": 100})
		item.ReorderPoint = 120
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)
		Valuate(item, &res, cfg)

		alerts := alertsFor(item, res, now)
		require.Len(t, alerts, 2)
		assert.True(t, strings.HasPrefix(alerts[0].Command, "sync_inventory:"))
		assert.Empty(t, alerts[1].Command)
	})

	t.Run("clean sku emits nothing", func(t *testing.T) {
		t.Parallel()
		item := testItem(domain.ChannelQuantities{"shopify": 400, "amazon": 400, "wms": 400})
		res, err := Reconcile(item, cfg)
		require.NoError(t, err)
		Valuate(item, &res, cfg)

		assert.Empty(t, alertsFor(item, res, now))
	})
}
