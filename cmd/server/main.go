package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/nexuslink/reconciler/internal/api"
	"github.com/nexuslink/reconciler/internal/config"
	"github.com/nexuslink/reconciler/internal/domain"
	"github.com/nexuslink/reconciler/internal/engine"
	"github.com/nexuslink/reconciler/internal/ingestion"
	"github.com/nexuslink/reconciler/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	log := zap.L()
	defer log.Sync()

	db, err := repository.InitDB(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	snapRepo := repository.NewSnapshotRepo(db)
	alertRepo := repository.NewAlertRepo(db)

	tariffs, err := loadTariffs(cfg.Tariff.ReferencePath)
	if err != nil {
		return err
	}
	log.Info("tariff reference loaded",
		zap.String("path", cfg.Tariff.ReferencePath),
		zap.Int("countries", len(tariffs)),
	)

	eng := engine.New(*cfg, log)
	holder := api.NewCycleHolder()

	runCycle := func() {
		snap, returns, err := snapRepo.Latest()
		if err != nil {
			log.Error("load latest snapshot", zap.Error(err))
			return
		}
		if snap == nil {
			log.Warn("no snapshot in store, cycle skipped")
			return
		}
		res := eng.EvaluateCycle(*snap, returns, tariffs)
		if _, err := alertRepo.BulkInsert(res.CycleID, res.Alerts); err != nil {
			log.Error("persist alerts", zap.Error(err))
		}
		holder.Store(res)
	}

	ingestSvc := ingestion.NewService(snapRepo, runCycle, log)

	if err := seedIfEmpty(snapRepo, ingestSvc, cfg.Seed.Path, log); err != nil {
		return err
	}

	runCycle()

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Engine.IntervalSecs) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			runCycle()
		}
	}()

	router := api.NewRouter(holder, alertRepo, ingestSvc, log)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("server listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

// seedIfEmpty ingests the configured seed snapshot when the store holds
// nothing. The seed goes through the normal ingestion path so it is hashed
// and validated like any upload.
func seedIfEmpty(snapRepo *repository.SnapshotRepo, svc *ingestion.Service, path string, log *zap.Logger) error {
	snap, _, err := snapRepo.Latest()
	if err != nil {
		return err
	}
	if snap != nil {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "server: read seed %s", path)
	}
	res, err := svc.IngestSnapshot(data, "json")
	if err != nil {
		return eris.Wrap(err, "server: seed ingest")
	}
	log.Info("store seeded", zap.String("snapshot_id", res.SnapshotID), zap.Int("skus", res.SKUCount))
	return nil
}

func loadTariffs(path string) ([]domain.TariffRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "server: read tariff reference %s", path)
	}
	var records []domain.TariffRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "server: parse tariff reference")
	}
	return records, nil
}
