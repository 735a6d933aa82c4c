package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"camwatch/config"
	"camwatch/models"
	"camwatch/storage"
)

// Extractor yields the portal's readings for the current run.
type Extractor interface {
	ID() string
	Extract(ctx context.Context) (*models.Extraction, error)
}

// RegistryStore loads the active device registry.
type RegistryStore interface {
	ListActiveRegistry(ctx context.Context) ([]models.RegistryEntry, error)
}

// Store is everything the pipeline needs from the domain store.
type Store interface {
	RegistryStore
	ReconcileStore
	SnapshotStore
	RunStore
	MissingStore
}

// Uploader pushes the dated results artifact to remote storage.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

const progressEvery = 10

// Pipeline runs one full collection: extract, reconcile, snapshot,
// missing sweep, bookkeeping. Devices are processed strictly
// sequentially in extraction order so logs and partial-failure counts
// are deterministic and the store sees one write at a time.
type Pipeline struct {
	cfg       *config.Config
	extractor Extractor
	store     Store
	ops       *storage.SQLiteStore
	uploader  Uploader

	reconcile *ReconcileService
	snapshots *SnapshotService
	missing   *MissingDeviceService

	paused bool
}

func NewPipeline(cfg *config.Config, ext Extractor, store Store, ops *storage.SQLiteStore) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		extractor: ext,
		store:     store,
		ops:       ops,
		reconcile: NewReconcileService(store),
		snapshots: NewSnapshotService(store, cfg.Sync.ActivityThreshold),
		missing:   NewMissingDeviceService(store, cfg.Sync.MissingAfterDays),
	}
}

// SetUploader enables remote artifact upload.
func (p *Pipeline) SetUploader(u Uploader) {
	p.uploader = u
}

func (p *Pipeline) Pause()         { p.paused = true }
func (p *Pipeline) Resume()        { p.paused = false }
func (p *Pipeline) IsPaused() bool { return p.paused }

// Run executes one collection for today. Per-device failures become
// warnings; only extraction or registry-load failures fail the run.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.paused {
		log.Println("Pipeline is paused, skipping run")
		return nil
	}

	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	runlog := NewRunLogger(p.store)
	runlog.LogStart(ctx, day)

	var opsRunID *int64
	if p.ops != nil {
		if id, err := p.ops.CreateRun(&models.CollectionRun{
			RunDate: day, StartedAt: now, Status: models.RunStatusRunning,
		}); err != nil {
			log.Printf("Warning: failed to mirror run locally: %v", err)
		} else {
			opsRunID = &id
		}
	}

	p.logOp(opsRunID, models.LogLevelInfo, fmt.Sprintf("Starting collection via %s", p.extractor.ID()))

	stats := &RunStats{}
	runErr := p.execute(ctx, day, stats, runlog, opsRunID)
	if runErr != nil {
		runlog.LogError(runErr.Error(), "pipeline")
		p.logOp(opsRunID, models.LogLevelError, fmt.Sprintf("Run failed: %v", runErr))
	}

	run := runlog.LogComplete(ctx, runErr == nil, stats, day)
	p.logOp(opsRunID, models.LogLevelInfo, run.Summary)

	if p.ops != nil && opsRunID != nil {
		if err := p.ops.UpdateRun(*opsRunID, run); err != nil {
			log.Printf("Warning: failed to update local run mirror: %v", err)
		}
	}

	p.writeArtifacts(ctx, run)

	return runErr
}

// execute is the fallible middle of a run: anything it returns is a
// run-fatal error, everything device-scoped is handled inline.
func (p *Pipeline) execute(ctx context.Context, day time.Time, stats *RunStats, runlog *RunLogger, opsRunID *int64) error {
	extraction, err := p.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract portal readings: %w", err)
	}
	p.logOp(opsRunID, models.LogLevelInfo, fmt.Sprintf("Extracted %d readings", len(extraction.Readings)))

	entries, err := p.store.ListActiveRegistry(ctx)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	registry := BuildRegistryIndex(entries)
	p.logOp(opsRunID, models.LogLevelInfo, fmt.Sprintf("Loaded %d active registry entries", len(entries)))

	var matched []*ReconcileResult
	for i := range extraction.Readings {
		reading := &extraction.Readings[i]
		stats.CamerasProcessed++

		result, err := p.reconcile.Process(ctx, reading, registry, day, extraction.ReportedAt)
		if err != nil {
			stats.Warnings++
			p.logOp(opsRunID, models.LogLevelWarn,
				fmt.Sprintf("Skipping device %s: %v", reading.Serial, err))
			continue
		}
		stats.CamerasUpdated++
		matched = append(matched, result)

		if stats.CamerasProcessed%progressEvery == 0 {
			runlog.LogProgress(ctx, stats.CamerasProcessed,
				fmt.Sprintf("Reconciled %d/%d readings", stats.CamerasProcessed, len(extraction.Readings)))
		}
	}

	for _, m := range matched {
		snapshot, err := p.snapshots.Process(ctx, m.CameraID, m.SDImages, day)
		if err != nil {
			stats.Warnings++
			p.logOp(opsRunID, models.LogLevelWarn,
				fmt.Sprintf("Snapshot failed for %s: %v", m.Serial, err))
			continue
		}
		stats.SnapshotsCreated++
		if snapshot.Anomaly {
			p.logOp(opsRunID, models.LogLevelWarn,
				fmt.Sprintf("Camera %s: %s", m.Serial, snapshot.Note))
		}
	}

	if flagged, err := p.missing.Sweep(ctx, day); err != nil {
		stats.Warnings++
		p.logOp(opsRunID, models.LogLevelWarn, fmt.Sprintf("Missing-device sweep failed: %v", err))
	} else if flagged > 0 {
		p.logOp(opsRunID, models.LogLevelInfo, fmt.Sprintf("Missing-device sweep touched %d deployments", flagged))
	}

	return nil
}

// writeArtifacts drops the dated JSON results file and appends one line
// to the flat summary log. Both are for humans; failures are warnings.
func (p *Pipeline) writeArtifacts(ctx context.Context, run *models.CollectionRun) {
	dir := p.cfg.Artifacts.Dir
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: failed to create artifacts dir: %v", err)
		return
	}

	name := fmt.Sprintf("results-%s.json", run.RunDate.Format("2006-01-02"))
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		log.Printf("Warning: failed to marshal run results: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		log.Printf("Warning: failed to write %s: %v", name, err)
	}

	line := fmt.Sprintf("%s [%s] %s\n", time.Now().Format(time.RFC3339), run.Status, run.Summary)
	f, err := os.OpenFile(filepath.Join(dir, "summary.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Printf("Warning: failed to open summary log: %v", err)
	} else {
		if _, err := f.WriteString(line); err != nil {
			log.Printf("Warning: failed to append to summary log: %v", err)
		}
		f.Close()
	}

	if p.uploader != nil {
		if err := p.uploader.Upload(ctx, name, strings.NewReader(string(data)), "application/json"); err != nil {
			log.Printf("Warning: failed to upload %s: %v", name, err)
		}
	}
}

func (p *Pipeline) logOp(runID *int64, level models.LogLevel, message string) {
	log.Printf("[%s] %s", level, message)
	if p.ops != nil {
		if err := p.ops.Log(runID, level, message); err != nil {
			log.Printf("Warning: failed to write op log: %v", err)
		}
	}
}
