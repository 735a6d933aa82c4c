package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"camwatch/identity"
	"camwatch/models"
)

// ErrUnknownDevice marks a reading whose serial matches no registry
// entry; the caller logs a warning and moves on.
var ErrUnknownDevice = errors.New("unknown device")

// ReconcileStore is the slice of the store the reconciler writes to.
type ReconcileStore interface {
	UpsertStatusReport(ctx context.Context, r *models.StatusReport) error
	UpdateCameraVersions(ctx context.Context, cameraID uuid.UUID, hw, fw, cl *string) error
	MarkDeploymentSeen(ctx context.Context, deploymentID uuid.UUID, seenAt time.Time) error
}

// RegistryIndex maps normalized serials to registry entries. Built once
// per run and read-only afterwards.
type RegistryIndex map[string]models.RegistryEntry

func BuildRegistryIndex(entries []models.RegistryEntry) RegistryIndex {
	index := make(RegistryIndex, len(entries))
	for _, e := range entries {
		index[identity.NormalizeSerial(e.Camera.Serial)] = e
	}
	return index
}

// ReconcileResult is what the snapshot stage needs from a matched reading.
type ReconcileResult struct {
	DeploymentID    uuid.UUID
	CameraID        uuid.UUID
	Serial          string
	SDImages        *int
	VersionsChanged bool
}

type ReconcileService struct {
	store ReconcileStore
}

func NewReconcileService(store ReconcileStore) *ReconcileService {
	return &ReconcileService{store: store}
}

// Process matches one reading against the registry, writes the per-day
// status report, updates changed hardware versions, and marks the
// deployment seen. Seen-marking is best-effort; its failure is logged
// and does not fail the device.
func (s *ReconcileService) Process(ctx context.Context, reading *models.RawReading, registry RegistryIndex, day time.Time, reportedAt *time.Time) (*ReconcileResult, error) {
	entry, ok := registry[identity.NormalizeSerial(reading.Serial)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDevice, reading.Serial)
	}

	report := &models.StatusReport{
		DeploymentID: entry.Deployment.ID,
		CameraID:     entry.Camera.ID,
		ReportDate:   day,
		Battery:      strings.TrimSpace(reading.Battery),
		SignalLevel:  ParseSignalLevel(reading.Signal),
		NetworkLinks: ParseOptionalInt(reading.Links),
		ImageQueue:   ParseOptionalInt(reading.Queue),
		SDImages:     ParseOptionalInt(reading.SDImages),
		SDFreeMB:     ParseOptionalInt(reading.SDFreeMB),
		ReportedAt:   reportedAt,
	}
	if report.ReportedAt == nil && !reading.ExtractedAt.IsZero() {
		report.ReportedAt = &reading.ExtractedAt
	}

	if err := s.store.UpsertStatusReport(ctx, report); err != nil {
		return nil, fmt.Errorf("upsert status report: %w", err)
	}

	result := &ReconcileResult{
		DeploymentID: entry.Deployment.ID,
		CameraID:     entry.Camera.ID,
		Serial:       entry.Camera.Serial,
		SDImages:     report.SDImages,
	}

	hw := versionChange(reading.HWVersion, entry.Camera.HWVersion)
	fw := versionChange(reading.FWVersion, entry.Camera.FWVersion)
	cl := versionChange(reading.CLVersion, entry.Camera.CLVersion)
	if hw != nil || fw != nil || cl != nil {
		if err := s.store.UpdateCameraVersions(ctx, entry.Camera.ID, hw, fw, cl); err != nil {
			return nil, fmt.Errorf("update camera versions: %w", err)
		}
		result.VersionsChanged = true
	}

	if err := s.store.MarkDeploymentSeen(ctx, entry.Deployment.ID, time.Now()); err != nil {
		log.Printf("Warning: failed to mark deployment %s seen: %v", entry.Deployment.ID, err)
	}

	return result, nil
}

// versionChange returns the reported version when it is present and
// differs from the stored one, nil otherwise.
func versionChange(reported, stored string) *string {
	v := strings.TrimSpace(reported)
	if v == "" || v == stored {
		return nil
	}
	return &v
}
