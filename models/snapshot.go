package models

import (
	"time"

	"github.com/google/uuid"
)

type ActivityTrend string

const (
	TrendInsufficientData   ActivityTrend = "insufficient_data"
	TrendStronglyIncreasing ActivityTrend = "strongly_increasing"
	TrendIncreasing         ActivityTrend = "increasing"
	TrendDecreasing         ActivityTrend = "decreasing"
	TrendStable             ActivityTrend = "stable"
	TrendVariable           ActivityTrend = "variable"
)

// Anomaly types and severities
const (
	AnomalySpike = "spike"
	AnomalyDrop  = "drop"

	SeverityModerate = "moderate"
	SeverityHigh     = "high"
)

// DailySnapshot is one camera's one-day time-series point. Unique per
// (snapshot_date, camera_id); the trend engine reads up to 14 prior
// rows (date < today) and writes exactly one row per camera per run.
type DailySnapshot struct {
	ID                int64         `json:"id" db:"id"`
	CameraID          uuid.UUID     `json:"camera_id" db:"camera_id"`
	SnapshotDate      time.Time     `json:"snapshot_date" db:"snapshot_date"`
	SDImages          *int          `json:"sd_images" db:"sd_images"`
	ImagesAdded       int           `json:"images_added" db:"images_added"`
	SevenDayAvg       *float64      `json:"seven_day_avg" db:"seven_day_avg"`
	WeeklyChange      *int          `json:"weekly_change" db:"weekly_change"`
	DaysSinceActivity *int          `json:"days_since_activity" db:"days_since_activity"`
	Trend             ActivityTrend `json:"activity_trend" db:"activity_trend"`
	Anomaly           bool          `json:"anomaly" db:"anomaly"`
	AnomalyType       *string       `json:"anomaly_type" db:"anomaly_type"`
	AnomalySeverity   *string       `json:"anomaly_severity" db:"anomaly_severity"`
	Note              string        `json:"note" db:"note"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}
