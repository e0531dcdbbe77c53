package ingestion

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/nexuslink/reconciler/internal/domain"
)

// snapshotFile is the full JSON snapshot payload pushed by the collector that
// gathers per-channel counts.
type snapshotFile struct {
	TakenAt string                `json:"taken_at"`
	Returns domain.ReturnsState   `json:"returns"`
	Items   []domain.SnapshotItem `json:"items"`
}

// ParseSnapshotJSON parses a full channel snapshot payload.
func ParseSnapshotJSON(data []byte, snapshotID string) (domain.Snapshot, domain.ReturnsState, error) {
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.Snapshot{}, domain.ReturnsState{}, eris.Wrap(err, "ingestion: unmarshal snapshot")
	}
	if len(file.Items) == 0 {
		return domain.Snapshot{}, domain.ReturnsState{}, eris.New("ingestion: snapshot has no items")
	}

	takenAt := time.Now().UTC()
	if file.TakenAt != "" {
		t, err := time.Parse(time.RFC3339, file.TakenAt)
		if err != nil {
			return domain.Snapshot{}, domain.ReturnsState{}, eris.Wrap(err, "ingestion: taken_at")
		}
		takenAt = t
	}

	for i, item := range file.Items {
		if item.ID == "" {
			return domain.Snapshot{}, domain.ReturnsState{}, eris.Errorf("ingestion: item %d missing sku id", i)
		}
		if len(item.Channels) == 0 {
			return domain.Snapshot{}, domain.ReturnsState{}, eris.Errorf("ingestion: sku %s has no channel counts", item.ID)
		}
	}

	return domain.Snapshot{
		ID:      snapshotID,
		TakenAt: takenAt,
		Items:   file.Items,
	}, file.Returns, nil
}
