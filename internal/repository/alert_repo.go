package repository

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/nexuslink/reconciler/internal/domain"
)

// AlertRepo persists the alerts each cycle produced. Alerts are append-only:
// a new cycle's rows supersede the previous cycle's, nothing is edited.
type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

// BulkInsert writes one cycle's alerts in a single transaction.
func (r *AlertRepo) BulkInsert(cycleID string, alerts []domain.Alert) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, eris.Wrap(err, "alerts: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO alerts
		(id, cycle_id, type, sku, message, risk_usd, command, cause_json, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "alerts: prepare")
	}
	defer stmt.Close()

	inserted := 0
	for i := range alerts {
		a := &alerts[i]

		var sku, command, causeJSON any
		if a.SKU != "" {
			sku = a.SKU
		}
		if a.Command != "" {
			command = a.Command
		}
		if a.Cause != nil {
			b, err := json.Marshal(a.Cause)
			if err != nil {
				return inserted, eris.Wrapf(err, "alerts: marshal cause %s", a.ID)
			}
			causeJSON = string(b)
		}

		res, err := stmt.Exec(
			a.ID, cycleID, string(a.Type), sku, a.Message, a.RiskUSD,
			command, causeJSON, a.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "alerts: insert %d", i)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "alerts: commit")
	}
	return inserted, nil
}

type AlertFilter struct {
	CycleID string
	Type    string
	SKU     string
	Page    int
	Limit   int
}

// List returns alerts matching the filter, newest first, with the total count
// for pagination.
func (r *AlertRepo) List(f AlertFilter) ([]domain.Alert, int, error) {
	where, args := buildAlertWhere(f)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM alerts"+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "alerts: count")
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	q := `SELECT id, type, sku, message, risk_usd, command, cause_json, created_at
	      FROM alerts` + where + ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, f.Limit, offset)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "alerts: list")
	}
	defer rows.Close()

	alerts, err := scanAlerts(rows)
	return alerts, total, err
}

func buildAlertWhere(f AlertFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.CycleID != "" {
		clauses = append(clauses, "cycle_id = ?")
		args = append(args, f.CycleID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, f.Type)
	}
	if f.SKU != "" {
		clauses = append(clauses, "sku = ?")
		args = append(args, f.SKU)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	var alerts []domain.Alert
	for rows.Next() {
		var (
			a         domain.Alert
			typ       string
			createdAt string
			skuNull   sql.NullString
			cmdNull   sql.NullString
			causeNull sql.NullString
		)
		if err := rows.Scan(&a.ID, &typ, &skuNull, &a.Message, &a.RiskUSD,
			&cmdNull, &causeNull, &createdAt); err != nil {
			return nil, eris.Wrap(err, "alerts: scan")
		}

		a.Type = domain.AlertType(typ)
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if skuNull.Valid {
			a.SKU = skuNull.String
		}
		if cmdNull.Valid {
			a.Command = cmdNull.String
		}
		if causeNull.Valid {
			var chain domain.CausalChain
			if err := json.Unmarshal([]byte(causeNull.String), &chain); err == nil {
				a.Cause = &chain
			}
		}

		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
