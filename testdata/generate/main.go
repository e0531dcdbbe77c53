// Command generate emits a randomized channel snapshot for load testing. The
// seed is fixed so regenerated files are stable across runs.
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/nexuslink/reconciler/internal/domain"
)

type snapshotFile struct {
	TakenAt string                `json:"taken_at"`
	Returns domain.ReturnsState   `json:"returns"`
	Items   []domain.SnapshotItem `json:"items"`
}

var (
	categories = []string{"Bags", "Drinkware", "Hiking", "Cooking", "Apparel", "Camping", "Lighting"}
	countries  = []string{"Vietnam", "China", "India", "Mexico"}
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	const skuCount = 60

	file := snapshotFile{
		TakenAt: time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Returns: domain.ReturnsState{
			InLimboUnits:     120 + rng.Intn(200),
			FrozenValueUSD:   round2(5000 + rng.Float64()*15000),
			AverageDaysStuck: round2(5 + rng.Float64()*25),
			Batches:          3 + rng.Intn(8),
		},
	}

	for i := 1; i <= skuCount; i++ {
		wms := 50 + rng.Intn(900)
		item := domain.SnapshotItem{
			SKURecord: domain.SKURecord{
				ID:              fmt.Sprintf("SKU-%04d", 1000+i),
				Name:            fmt.Sprintf("Product %04d", 1000+i),
				Category:        categories[rng.Intn(len(categories))],
				CountryOfOrigin: countries[rng.Intn(len(countries))],
				UnitCost:        round2(5 + rng.Float64()*95),
				LeadTimeDays:    14 + rng.Intn(35),
				ReorderPoint:    40 + rng.Intn(200),
			},
			Channels: domain.ChannelQuantities{domain.ChannelWMS: wms},
		}

		// Shopify drifts on 20% of SKUs, Amazon on 15%.
		shopify := wms
		if rng.Float64() < 0.20 {
			shopify = wms - (rng.Intn(120) + 1)
			if shopify < 0 {
				shopify = 0
			}
		}
		item.Channels[domain.ChannelShopify] = shopify

		amazon := wms + rng.Intn(5) - 2
		if rng.Float64() < 0.15 {
			amazon = wms + rng.Intn(80) + 6
		}
		if amazon < 0 {
			amazon = 0
		}
		item.Channels[domain.ChannelAmazon] = amazon

		if rng.Float64() < 0.5 {
			item.Channels[domain.ChannelPOS] = wms + rng.Intn(7) - 3
		}
		if rng.Float64() < 0.3 {
			item.Channels[domain.ChannelShipBob] = wms + rng.Intn(5) - 2
		}

		if rng.Float64() < 0.25 {
			item.Quarantined = rng.Intn(wms/4 + 1)
		}
		item.Committed = rng.Intn(wms/3 + 1)

		points := rng.Intn(6)
		for p := 0; p < points; p++ {
			item.VelocitySeries = append(item.VelocitySeries, round2(rng.Float64()*25))
		}

		file.Items = append(file.Items, item)
	}

	out, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	path := filepath.Join(baseDir, "generated_snapshot.json")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d SKUs)\n", path, len(file.Items))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func findTestdataDir() string {
	for _, dir := range []string{"testdata", ".", "../.."} {
		if info, err := os.Stat(filepath.Join(dir, "seed_snapshot.json")); err == nil && !info.IsDir() {
			return dir
		}
	}
	return "testdata"
}
