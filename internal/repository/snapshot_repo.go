package repository

import (
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/nexuslink/reconciler/internal/domain"
)

// SnapshotRepo is the Channel Snapshot Store: latest per-SKU quantities per
// channel plus the trailing velocity series the forecaster reads.
type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// ExistsByHash reports whether a snapshot with this file hash was already
// ingested.
func (r *SnapshotRepo) ExistsByHash(hash string) (bool, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM snapshots WHERE file_hash = ?", hash).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "snapshot: check hash")
	}
	return n > 0, nil
}

// Store persists a full snapshot in one transaction: SKU records are upserted
// (created on first observation, updated on every ingest), channel counts and
// per-item state inserted, and each SKU's velocity series replaced.
func (r *SnapshotRepo) Store(snap domain.Snapshot, returns domain.ReturnsState, hash string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return eris.Wrap(err, "snapshot: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.Exec(
		`INSERT INTO snapshots
		(id, taken_at, file_hash, record_count, ingested_at,
		 returns_in_limbo, returns_frozen_value, returns_avg_days_stuck, returns_batches)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		snap.ID, snap.TakenAt.Format(time.RFC3339), hash, len(snap.Items), now.Format(time.RFC3339),
		returns.InLimboUnits, returns.FrozenValueUSD, returns.AverageDaysStuck, returns.Batches,
	)
	if err != nil {
		return eris.Wrap(err, "snapshot: insert")
	}

	skuStmt, err := tx.Prepare(
		`INSERT INTO skus
		(id, name, category, country_of_origin, unit_cost, lead_time_days, reorder_point, first_seen_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, category=excluded.category,
			country_of_origin=excluded.country_of_origin, unit_cost=excluded.unit_cost,
			lead_time_days=excluded.lead_time_days, reorder_point=excluded.reorder_point,
			updated_at=excluded.updated_at`,
	)
	if err != nil {
		return eris.Wrap(err, "snapshot: prepare sku upsert")
	}
	defer skuStmt.Close()

	itemStmt, err := tx.Prepare(
		`INSERT INTO snapshot_items (snapshot_id, sku_id, quarantined, committed) VALUES (?,?,?,?)`,
	)
	if err != nil {
		return eris.Wrap(err, "snapshot: prepare item insert")
	}
	defer itemStmt.Close()

	countStmt, err := tx.Prepare(
		`INSERT INTO channel_counts (snapshot_id, sku_id, channel, quantity) VALUES (?,?,?,?)`,
	)
	if err != nil {
		return eris.Wrap(err, "snapshot: prepare count insert")
	}
	defer countStmt.Close()

	velStmt, err := tx.Prepare(
		`INSERT INTO velocity_history (sku_id, seq, units_per_day) VALUES (?,?,?)`,
	)
	if err != nil {
		return eris.Wrap(err, "snapshot: prepare velocity insert")
	}
	defer velStmt.Close()

	ts := now.Format(time.RFC3339)
	for _, item := range snap.Items {
		if _, err := skuStmt.Exec(
			item.ID, item.Name, item.Category, item.CountryOfOrigin,
			item.UnitCost, item.LeadTimeDays, item.ReorderPoint, ts, ts,
		); err != nil {
			return eris.Wrapf(err, "snapshot: upsert sku %s", item.ID)
		}

		if _, err := itemStmt.Exec(snap.ID, item.ID, item.Quarantined, item.Committed); err != nil {
			return eris.Wrapf(err, "snapshot: insert item %s", item.ID)
		}

		// Iterate the declared channel order so inserts are deterministic.
		for _, ch := range domain.Channels {
			qty, ok := item.Channels[ch]
			if !ok {
				continue
			}
			if _, err := countStmt.Exec(snap.ID, item.ID, string(ch), qty); err != nil {
				return eris.Wrapf(err, "snapshot: insert count %s/%s", item.ID, ch)
			}
		}

		if _, err := tx.Exec("DELETE FROM velocity_history WHERE sku_id = ?", item.ID); err != nil {
			return eris.Wrapf(err, "snapshot: clear velocity %s", item.ID)
		}
		for seq, v := range item.VelocitySeries {
			if _, err := velStmt.Exec(item.ID, seq, v); err != nil {
				return eris.Wrapf(err, "snapshot: insert velocity %s", item.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "snapshot: commit")
	}
	return nil
}

// Latest assembles the most recent snapshot: SKU attributes joined with
// channel counts, quarantine/committed state, and velocity history. Returns a
// nil snapshot (no error) when the store is empty.
func (r *SnapshotRepo) Latest() (*domain.Snapshot, domain.ReturnsState, error) {
	var (
		snap    domain.Snapshot
		returns domain.ReturnsState
		takenAt string
	)
	err := r.db.QueryRow(
		`SELECT id, taken_at, returns_in_limbo, returns_frozen_value, returns_avg_days_stuck, returns_batches
		 FROM snapshots ORDER BY taken_at DESC, ingested_at DESC LIMIT 1`,
	).Scan(&snap.ID, &takenAt, &returns.InLimboUnits, &returns.FrozenValueUSD,
		&returns.AverageDaysStuck, &returns.Batches)
	if err == sql.ErrNoRows {
		return nil, domain.ReturnsState{}, nil
	}
	if err != nil {
		return nil, domain.ReturnsState{}, eris.Wrap(err, "snapshot: query latest")
	}
	snap.TakenAt, _ = time.Parse(time.RFC3339, takenAt)

	items, err := r.loadItems(snap.ID)
	if err != nil {
		return nil, domain.ReturnsState{}, err
	}
	snap.Items = items

	return &snap, returns, nil
}

func (r *SnapshotRepo) loadItems(snapshotID string) ([]domain.SnapshotItem, error) {
	rows, err := r.db.Query(
		`SELECT s.id, s.name, s.category, s.country_of_origin, s.unit_cost,
		        s.lead_time_days, s.reorder_point, si.quarantined, si.committed
		 FROM snapshot_items si
		 JOIN skus s ON s.id = si.sku_id
		 WHERE si.snapshot_id = ?
		 ORDER BY s.id`,
		snapshotID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: query items")
	}
	defer rows.Close()

	var items []domain.SnapshotItem
	for rows.Next() {
		var item domain.SnapshotItem
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Category, &item.CountryOfOrigin, &item.UnitCost,
			&item.LeadTimeDays, &item.ReorderPoint, &item.Quarantined, &item.Committed,
		); err != nil {
			return nil, eris.Wrap(err, "snapshot: scan item")
		}
		item.Channels = make(domain.ChannelQuantities)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "snapshot: iterate items")
	}

	if err := r.attachCounts(snapshotID, items); err != nil {
		return nil, err
	}
	if err := r.attachVelocity(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SnapshotRepo) attachCounts(snapshotID string, items []domain.SnapshotItem) error {
	rows, err := r.db.Query(
		"SELECT sku_id, channel, quantity FROM channel_counts WHERE snapshot_id = ?", snapshotID,
	)
	if err != nil {
		return eris.Wrap(err, "snapshot: query counts")
	}
	defer rows.Close()

	byID := make(map[string]*domain.SnapshotItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for rows.Next() {
		var skuID, channel string
		var qty int
		if err := rows.Scan(&skuID, &channel, &qty); err != nil {
			return eris.Wrap(err, "snapshot: scan count")
		}
		if item, ok := byID[skuID]; ok {
			item.Channels[domain.Channel(channel)] = qty
		}
	}
	return rows.Err()
}

func (r *SnapshotRepo) attachVelocity(items []domain.SnapshotItem) error {
	for i := range items {
		rows, err := r.db.Query(
			"SELECT units_per_day FROM velocity_history WHERE sku_id = ? ORDER BY seq", items[i].ID,
		)
		if err != nil {
			return eris.Wrap(err, "snapshot: query velocity")
		}
		for rows.Next() {
			var v float64
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return eris.Wrap(err, "snapshot: scan velocity")
			}
			items[i].VelocitySeries = append(items[i].VelocitySeries, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return eris.Wrap(err, "snapshot: iterate velocity")
		}
		rows.Close()
	}
	return nil
}
