package collector

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"camwatch/models"
)

type fakeSnapshotStore struct {
	history []models.DailySnapshot
	// keyed by date so re-runs overwrite like the real upsert does
	saved      map[string]*models.DailySnapshot
	historyErr error
}

func newFakeSnapshotStore(history []models.DailySnapshot) *fakeSnapshotStore {
	return &fakeSnapshotStore{history: history, saved: make(map[string]*models.DailySnapshot)}
}

func (f *fakeSnapshotStore) GetSnapshotHistory(_ context.Context, _ uuid.UUID, _ time.Time, limit int) ([]models.DailySnapshot, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if len(f.history) > limit {
		return f.history[len(f.history)-limit:], nil
	}
	return f.history, nil
}

func (f *fakeSnapshotStore) UpsertDailySnapshot(_ context.Context, sn *models.DailySnapshot) error {
	cp := *sn
	f.saved[sn.SnapshotDate.Format("2006-01-02")] = &cp
	return nil
}

func TestSnapshotProcessFirstDay(t *testing.T) {
	store := newFakeSnapshotStore(nil)
	svc := NewSnapshotService(store, 5)

	sn, err := svc.Process(context.Background(), uuid.New(), intPtr(1200), testDay)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if sn.ImagesAdded != 0 {
		t.Errorf("images added = %d, want 0 on first day", sn.ImagesAdded)
	}
	if sn.SevenDayAvg != nil || sn.WeeklyChange != nil || sn.DaysSinceActivity != nil {
		t.Errorf("derived fields set without history: %+v", sn)
	}
	if sn.Trend != models.TrendInsufficientData {
		t.Errorf("trend = %s, want insufficient_data", sn.Trend)
	}
	if sn.Anomaly {
		t.Error("anomaly flagged on first day")
	}
	if len(store.saved) != 1 {
		t.Fatalf("got %d saved snapshots, want 1", len(store.saved))
	}
}

func TestSnapshotProcessWithHistory(t *testing.T) {
	history := historyFromCounts(counts(100, 110, 120, 130, 140, 150, 160, 170))
	for i := range history {
		history[i].ImagesAdded = 10
	}
	store := newFakeSnapshotStore(history)
	svc := NewSnapshotService(store, 5)
	cameraID := uuid.New()

	sn, err := svc.Process(context.Background(), cameraID, intPtr(182), testDay)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if sn.ImagesAdded != 12 {
		t.Errorf("images added = %d, want 12", sn.ImagesAdded)
	}
	if sn.SevenDayAvg == nil || *sn.SevenDayAvg != 10.0 {
		t.Errorf("seven day avg = %v, want 10.0", fmtFloatPtr(sn.SevenDayAvg))
	}
	if sn.WeeklyChange == nil || *sn.WeeklyChange != 72 {
		t.Errorf("weekly change = %v, want 72", fmtIntPtr(sn.WeeklyChange))
	}
	if sn.DaysSinceActivity == nil || *sn.DaysSinceActivity != 1 {
		t.Errorf("days since activity = %v, want 1", fmtIntPtr(sn.DaysSinceActivity))
	}
	if sn.Trend != models.TrendIncreasing {
		t.Errorf("trend = %s, want increasing", sn.Trend)
	}
	if sn.Anomaly {
		t.Errorf("anomaly flagged for deviation 2.0: %s", sn.Note)
	}

	// Same day, same count: re-run lands on identical values
	again, err := svc.Process(context.Background(), cameraID, intPtr(182), testDay)
	if err != nil {
		t.Fatalf("re-run failed: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("re-run created a second row: %d saved", len(store.saved))
	}
	if again.ImagesAdded != sn.ImagesAdded || again.Trend != sn.Trend || again.Anomaly != sn.Anomaly ||
		!intPtrEqual(again.WeeklyChange, sn.WeeklyChange) ||
		!intPtrEqual(again.DaysSinceActivity, sn.DaysSinceActivity) ||
		(again.SevenDayAvg == nil) != (sn.SevenDayAvg == nil) ||
		(again.SevenDayAvg != nil && *again.SevenDayAvg != *sn.SevenDayAvg) {
		t.Errorf("re-run diverged:\nfirst  %+v\nsecond %+v", sn, again)
	}
}

func TestSnapshotAnomalyNote(t *testing.T) {
	store := newFakeSnapshotStore(historyFromCounts(counts(100, 110, 120, 130, 140, 150, 160, 170)))
	svc := NewSnapshotService(store, 5)

	sn, err := svc.Process(context.Background(), uuid.New(), intPtr(270), testDay)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !sn.Anomaly {
		t.Fatal("100-image day on a 10/day average not flagged")
	}
	if sn.AnomalyType == nil || *sn.AnomalyType != models.AnomalySpike {
		t.Errorf("anomaly type = %v, want spike", sn.AnomalyType)
	}
	if sn.AnomalySeverity == nil || *sn.AnomalySeverity != models.SeverityHigh {
		t.Errorf("anomaly severity = %v, want high", sn.AnomalySeverity)
	}
	if !strings.Contains(sn.Note, "high spike anomaly") || !strings.Contains(sn.Note, "100 images") {
		t.Errorf("note = %q", sn.Note)
	}
}

func TestSnapshotHistoryError(t *testing.T) {
	store := newFakeSnapshotStore(nil)
	store.historyErr = errors.New("connection reset")
	svc := NewSnapshotService(store, 5)

	if _, err := svc.Process(context.Background(), uuid.New(), intPtr(100), testDay); err == nil {
		t.Error("history load failure not propagated")
	}
	if len(store.saved) != 0 {
		t.Error("snapshot written despite history failure")
	}
}
