package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"camwatch/models"
)

// RunStats is the per-run mutable accumulator. It is plain data so
// tests can build a run result without driving the whole pipeline.
type RunStats struct {
	CamerasProcessed int
	CamerasUpdated   int
	SnapshotsCreated int
	Warnings         int
}

// RunStore is the slice of the store the lifecycle logger uses.
type RunStore interface {
	CreateCollectionRun(ctx context.Context, run *models.CollectionRun) error
	UpdateCollectionRun(ctx context.Context, run *models.CollectionRun) error
	CountAnomalies(ctx context.Context, day time.Time) (int, error)
	CountInactive(ctx context.Context, day time.Time, minDays int) (int, error)
}

// inactivityAlertDays is the days-without-activity floor that counts a
// snapshot toward a run's alert total.
const inactivityAlertDays = 5

// RunLogger tracks one run's lifecycle row. Store failures inside the
// logger are printed and swallowed: bookkeeping must never mask or
// amplify a pipeline error.
type RunLogger struct {
	store   RunStore
	run     *models.CollectionRun
	tracked bool
	details []models.ErrorDetail
}

func NewRunLogger(store RunStore) *RunLogger {
	return &RunLogger{store: store}
}

// LogStart inserts the provisional run row. On failure the run proceeds
// untracked and later updates are skipped.
func (l *RunLogger) LogStart(ctx context.Context, day time.Time) {
	run := &models.CollectionRun{
		RunDate:      day,
		Status:       models.RunStatusRunning,
		StartedAt:    time.Now(),
		ErrorDetails: json.RawMessage("[]"),
	}

	if err := l.store.CreateCollectionRun(ctx, run); err != nil {
		log.Printf("Warning: failed to create collection run row: %v", err)
		l.run = run
		return
	}

	l.run = run
	l.tracked = true
}

// LogProgress is an optional partial update, repeatable mid-run.
func (l *RunLogger) LogProgress(ctx context.Context, processed int, summary string) {
	l.run.CamerasProcessed = processed
	l.run.Summary = summary
	if !l.tracked {
		return
	}
	if err := l.store.UpdateCollectionRun(ctx, l.run); err != nil {
		log.Printf("Warning: failed to update run progress: %v", err)
	}
}

// LogError appends a structured entry to the run's error details.
// Entries accumulate; calling it repeatedly never overwrites.
func (l *RunLogger) LogError(message, context string) {
	l.details = append(l.details, models.ErrorDetail{
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
	})
}

// ErrorCount reports how many errors have accumulated so far.
func (l *RunLogger) ErrorCount() int {
	return len(l.details)
}

// LogComplete finalizes the run row: terminal status, duration, the
// completeness score, and an alert total drawn from today's snapshots.
// It always returns the finished run value for artifact writing, even
// when the row itself could not be stored.
func (l *RunLogger) LogComplete(ctx context.Context, success bool, stats *RunStats, day time.Time) *models.CollectionRun {
	now := time.Now()
	run := l.run

	run.Status = models.RunStatusCompleted
	if !success {
		run.Status = models.RunStatusFailed
	}
	run.FinishedAt = &now
	run.DurationSeconds = int(now.Sub(run.StartedAt).Seconds())
	run.CamerasProcessed = stats.CamerasProcessed
	run.CamerasUpdated = stats.CamerasUpdated
	run.SnapshotsCreated = stats.SnapshotsCreated
	run.ErrorsCount = len(l.details)
	run.WarningsCount = stats.Warnings
	run.CompletenessScore = CompletenessScore(run.ErrorsCount, stats.CamerasProcessed, stats.CamerasUpdated)
	run.AlertsGenerated = l.countAlerts(ctx, day)

	if details, err := json.Marshal(l.details); err == nil {
		run.ErrorDetails = details
	}

	run.Summary = fmt.Sprintf(
		"Processed %d cameras, updated %d, wrote %d snapshots; %d errors, %d warnings, completeness %d%%, %d alerts",
		run.CamerasProcessed, run.CamerasUpdated, run.SnapshotsCreated,
		run.ErrorsCount, run.WarningsCount, run.CompletenessScore, run.AlertsGenerated)

	if l.tracked {
		if err := l.store.UpdateCollectionRun(ctx, run); err != nil {
			log.Printf("Warning: failed to finalize collection run: %v", err)
		}
	}

	return run
}

// countAlerts sums today's anomalies and inactive cameras. The two sets
// can overlap; the total intentionally counts both.
func (l *RunLogger) countAlerts(ctx context.Context, day time.Time) int {
	alerts := 0
	if n, err := l.store.CountAnomalies(ctx, day); err != nil {
		log.Printf("Warning: failed to count anomalies: %v", err)
	} else {
		alerts += n
	}
	if n, err := l.store.CountInactive(ctx, day, inactivityAlertDays); err != nil {
		log.Printf("Warning: failed to count inactive cameras: %v", err)
	} else {
		alerts += n
	}
	return alerts
}

// CompletenessScore summarizes run health on a 0-100 scale: each error
// costs 10 points, and the score never exceeds the fraction of
// processed cameras that were actually updated.
func CompletenessScore(errors, processed, updated int) int {
	score := 100 - 10*errors
	if score < 0 {
		score = 0
	}
	if processed > 0 && updated < processed {
		ceiling := updated * 100 / processed
		if score > ceiling {
			score = ceiling
		}
	}
	return score
}
