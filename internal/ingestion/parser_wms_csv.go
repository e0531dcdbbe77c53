package ingestion

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// WMSRow is one line of a warehouse export: the canonical physical count plus
// units parked in the quarantine/returns state.
type WMSRow struct {
	SKU         string
	OnHand      int
	Quarantined int
}

// ParseWMSCSV parses a WMS stock export. Expected header:
//
//	sku,on_hand,quarantined
//
// The quarantined column is optional; exports without it report zero.
func ParseWMSCSV(data []byte) ([]WMSRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "ingestion: read wms csv")
	}
	if len(records) < 2 {
		return nil, eris.New("ingestion: wms export has no data rows")
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	skuIdx, ok := col["sku"]
	if !ok {
		return nil, eris.New("ingestion: wms export missing sku column")
	}
	onHandIdx, ok := col["on_hand"]
	if !ok {
		return nil, eris.New("ingestion: wms export missing on_hand column")
	}
	quarIdx, hasQuar := col["quarantined"]

	var rows []WMSRow
	for i, rec := range records[1:] {
		sku := strings.TrimSpace(rec[skuIdx])
		if sku == "" {
			return nil, eris.Errorf("ingestion: row %d missing sku", i+1)
		}
		onHand, err := strconv.Atoi(strings.TrimSpace(rec[onHandIdx]))
		if err != nil {
			return nil, eris.Wrapf(err, "ingestion: row %d on_hand", i+1)
		}

		row := WMSRow{SKU: sku, OnHand: onHand}
		if hasQuar && quarIdx < len(rec) && strings.TrimSpace(rec[quarIdx]) != "" {
			q, err := strconv.Atoi(strings.TrimSpace(rec[quarIdx]))
			if err != nil {
				return nil, eris.Wrapf(err, "ingestion: row %d quarantined", i+1)
			}
			row.Quarantined = q
		}
		rows = append(rows, row)
	}

	return rows, nil
}
