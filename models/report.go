package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusReport is one device's parsed telemetry for one calendar day.
// Unique per (deployment_id, report_date); re-runs on the same day
// overwrite the existing row.
type StatusReport struct {
	ID           int64      `json:"id" db:"id"`
	DeploymentID uuid.UUID  `json:"deployment_id" db:"deployment_id"`
	CameraID     uuid.UUID  `json:"camera_id" db:"camera_id"`
	ReportDate   time.Time  `json:"report_date" db:"report_date"`
	Battery      string     `json:"battery" db:"battery"`
	SignalLevel  *int       `json:"signal_level" db:"signal_level"`
	NetworkLinks *int       `json:"network_links" db:"network_links"`
	ImageQueue   *int       `json:"image_queue" db:"image_queue"`
	SDImages     *int       `json:"sd_images" db:"sd_images"`
	SDFreeMB     *int       `json:"sd_free_mb" db:"sd_free_mb"`
	ReportedAt   *time.Time `json:"reported_at" db:"reported_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
