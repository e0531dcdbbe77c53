package ingestion

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nexuslink/reconciler/internal/domain"
	"github.com/nexuslink/reconciler/internal/repository"
)

// IngestResult is returned from a successful ingestion.
type IngestResult struct {
	SnapshotID string `json:"snapshot_id"`
	SKUCount   int    `json:"sku_count"`
	Duplicate  bool   `json:"duplicate"`
}

// Service ingests channel snapshot uploads into the snapshot store and kicks
// off an evaluation cycle once the data is durable.
type Service struct {
	snapRepo *repository.SnapshotRepo
	onIngest func()
	log      *zap.Logger
}

// NewService creates a new ingestion service. onIngest runs after every
// successful (non-duplicate) ingest; pass nil to skip re-evaluation.
func NewService(snapRepo *repository.SnapshotRepo, onIngest func(), log *zap.Logger) *Service {
	return &Service{snapRepo: snapRepo, onIngest: onIngest, log: log}
}

// IngestSnapshot parses and stores a snapshot upload.
//
// format must be one of: json (full snapshot payload), wms_csv (warehouse
// export merged over the latest stored snapshot). Re-uploading identical
// bytes is a no-op keyed on the file hash.
func (s *Service) IngestSnapshot(data []byte, format string) (*IngestResult, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.snapRepo.ExistsByHash(hash)
	if err != nil {
		return nil, eris.Wrap(err, "ingestion: check hash")
	}
	if exists {
		return &IngestResult{SnapshotID: "already-ingested", Duplicate: true}, nil
	}

	snapshotID := fmt.Sprintf("SNAP-%d", time.Now().UnixNano())

	var (
		snap    domain.Snapshot
		returns domain.ReturnsState
	)
	switch format {
	case "json":
		snap, returns, err = ParseSnapshotJSON(data, snapshotID)
	case "wms_csv":
		snap, returns, err = s.mergeWMSExport(data, snapshotID)
	default:
		return nil, eris.Errorf("ingestion: unsupported format: %s", format)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingestion: parse %s", format)
	}

	if err := s.snapRepo.Store(snap, returns, hash); err != nil {
		return nil, eris.Wrap(err, "ingestion: store snapshot")
	}

	s.log.Info("snapshot ingested",
		zap.String("snapshot_id", snapshotID),
		zap.String("format", format),
		zap.Int("skus", len(snap.Items)),
	)

	if s.onIngest != nil {
		s.onIngest()
	}

	return &IngestResult{SnapshotID: snapshotID, SKUCount: len(snap.Items)}, nil
}

// mergeWMSExport overlays a warehouse export onto the latest stored snapshot:
// WMS counts and quarantine state update, every other channel's count carries
// forward. A WMS export cannot seed an empty store; there is nothing to
// reconcile it against.
func (s *Service) mergeWMSExport(data []byte, snapshotID string) (domain.Snapshot, domain.ReturnsState, error) {
	rows, err := ParseWMSCSV(data)
	if err != nil {
		return domain.Snapshot{}, domain.ReturnsState{}, err
	}

	latest, returns, err := s.snapRepo.Latest()
	if err != nil {
		return domain.Snapshot{}, domain.ReturnsState{}, err
	}
	if latest == nil {
		return domain.Snapshot{}, domain.ReturnsState{}, eris.New("ingestion: wms export requires an existing snapshot")
	}

	byID := make(map[string]WMSRow, len(rows))
	for _, row := range rows {
		byID[row.SKU] = row
	}

	merged := domain.Snapshot{
		ID:      snapshotID,
		TakenAt: time.Now().UTC(),
		Items:   make([]domain.SnapshotItem, 0, len(latest.Items)),
	}
	updated := 0
	for _, item := range latest.Items {
		next := item
		next.Channels = make(domain.ChannelQuantities, len(item.Channels))
		for ch, qty := range item.Channels {
			next.Channels[ch] = qty
		}
		if row, ok := byID[item.ID]; ok {
			next.Channels[domain.ChannelWMS] = row.OnHand
			next.Quarantined = row.Quarantined
			updated++
		}
		merged.Items = append(merged.Items, next)
	}

	s.log.Info("wms export merged",
		zap.Int("rows", len(rows)),
		zap.Int("updated", updated),
		zap.Int("carried", len(merged.Items)-updated),
	)

	return merged, returns, nil
}
