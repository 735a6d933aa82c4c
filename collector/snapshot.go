package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"camwatch/models"
)

// SnapshotStore is the slice of the store the trend engine touches.
type SnapshotStore interface {
	GetSnapshotHistory(ctx context.Context, cameraID uuid.UUID, date time.Time, limit int) ([]models.DailySnapshot, error)
	UpsertDailySnapshot(ctx context.Context, sn *models.DailySnapshot) error
}

// SnapshotService builds one camera's daily time-series point from its
// parsed SD image count plus up to 14 prior snapshots.
type SnapshotService struct {
	store             SnapshotStore
	activityThreshold int
}

func NewSnapshotService(store SnapshotStore, activityThreshold int) *SnapshotService {
	if activityThreshold <= 0 {
		activityThreshold = DefaultActivityThreshold
	}
	return &SnapshotService{store: store, activityThreshold: activityThreshold}
}

// Process computes and upserts the camera's snapshot for day. Re-runs
// on the same day overwrite the existing row with identical values.
func (s *SnapshotService) Process(ctx context.Context, cameraID uuid.UUID, sdImages *int, day time.Time) (*models.DailySnapshot, error) {
	history, err := s.store.GetSnapshotHistory(ctx, cameraID, day, HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	added := ImagesAddedToday(sdImages, history)
	avg := SevenDayAverage(history)
	anomaly := DetectAnomaly(sdImages, added, avg, history)

	snapshot := &models.DailySnapshot{
		CameraID:          cameraID,
		SnapshotDate:      day,
		SDImages:          sdImages,
		ImagesAdded:       added,
		SevenDayAvg:       avg,
		WeeklyChange:      WeeklyChange(sdImages, history),
		DaysSinceActivity: DaysSinceActivity(history, s.activityThreshold, day),
		Trend:             ClassifyTrend(sdImages, added, avg, history),
		Anomaly:           anomaly.Detected,
	}

	if anomaly.Detected {
		t, sev := anomaly.Type, anomaly.Severity
		snapshot.AnomalyType = &t
		snapshot.AnomalySeverity = &sev
		snapshot.Note = fmt.Sprintf("%s %s anomaly: %d images today against a %.1f daily average (deviation %.1f)",
			sev, t, added, *avg, anomaly.Deviation)
	}

	if err := s.store.UpsertDailySnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}

	return snapshot, nil
}
