package models

import (
	"time"

	"github.com/google/uuid"
)

// Camera is the hardware record for a physical device. The registry is
// owned by another system; this pipeline only updates version fields
// when the portal reports a change.
type Camera struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Serial    string    `json:"serial" db:"serial"`
	HWVersion string    `json:"hw_version" db:"hw_version"`
	FWVersion string    `json:"fw_version" db:"fw_version"`
	CLVersion string    `json:"cl_version" db:"cl_version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Deployment is a camera's placement in the field.
type Deployment struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	CameraID    uuid.UUID  `json:"camera_id" db:"camera_id"`
	Name        string     `json:"name" db:"name"`
	Site        string     `json:"site" db:"site"`
	Active      bool       `json:"active" db:"active"`
	IsMissing   bool       `json:"is_missing" db:"is_missing"`
	MissingDays int        `json:"missing_days" db:"missing_days"`
	LastSeenAt  *time.Time `json:"last_seen_at" db:"last_seen_at"`
}

// RegistryEntry pairs a deployment with its camera hardware. The full
// active set is loaded once per run and read-only afterwards.
type RegistryEntry struct {
	Deployment Deployment
	Camera     Camera
}
