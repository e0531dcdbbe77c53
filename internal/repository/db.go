package repository

import (
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "repository: open db")
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "repository: set wal mode")
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "repository: enable foreign keys")
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "repository: create tables")
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS skus (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			country_of_origin TEXT NOT NULL,
			unit_cost REAL NOT NULL,
			lead_time_days INTEGER NOT NULL,
			reorder_point INTEGER NOT NULL,
			first_seen_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_skus_country ON skus(country_of_origin)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			taken_at DATETIME NOT NULL,
			file_hash TEXT UNIQUE NOT NULL,
			record_count INTEGER NOT NULL,
			ingested_at DATETIME NOT NULL,
			returns_in_limbo INTEGER NOT NULL DEFAULT 0,
			returns_frozen_value REAL NOT NULL DEFAULT 0,
			returns_avg_days_stuck REAL NOT NULL DEFAULT 0,
			returns_batches INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at)`,

		`CREATE TABLE IF NOT EXISTS snapshot_items (
			snapshot_id TEXT NOT NULL,
			sku_id TEXT NOT NULL,
			quarantined INTEGER NOT NULL DEFAULT 0,
			committed INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (snapshot_id, sku_id),
			FOREIGN KEY (snapshot_id) REFERENCES snapshots(id),
			FOREIGN KEY (sku_id) REFERENCES skus(id)
		)`,

		`CREATE TABLE IF NOT EXISTS channel_counts (
			snapshot_id TEXT NOT NULL,
			sku_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, sku_id, channel),
			FOREIGN KEY (snapshot_id) REFERENCES snapshots(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_channel_counts_sku ON channel_counts(sku_id)`,

		`CREATE TABLE IF NOT EXISTS velocity_history (
			sku_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			units_per_day REAL NOT NULL,
			PRIMARY KEY (sku_id, seq)
		)`,

		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			cycle_id TEXT NOT NULL,
			type TEXT NOT NULL,
			sku TEXT,
			message TEXT NOT NULL,
			risk_usd REAL NOT NULL,
			command TEXT,
			cause_json TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_cycle ON alerts(cycle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_sku ON alerts(sku)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts(type)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return eris.Wrapf(err, "exec %q", stmt[:60])
		}
	}

	return nil
}
