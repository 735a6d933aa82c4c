package models

import (
	"encoding/json"
	"time"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// CollectionRun is the permanent record of one pipeline invocation.
type CollectionRun struct {
	ID                int64           `json:"id" db:"id"`
	RunDate           time.Time       `json:"run_date" db:"run_date"`
	Status            RunStatus       `json:"status" db:"status"`
	StartedAt         time.Time       `json:"started_at" db:"started_at"`
	FinishedAt        *time.Time      `json:"finished_at" db:"finished_at"`
	DurationSeconds   int             `json:"duration_seconds" db:"duration_seconds"`
	CamerasProcessed  int             `json:"cameras_processed" db:"cameras_processed"`
	CamerasUpdated    int             `json:"cameras_updated" db:"cameras_updated"`
	SnapshotsCreated  int             `json:"snapshots_created" db:"snapshots_created"`
	ErrorsCount       int             `json:"errors_count" db:"errors_count"`
	WarningsCount     int             `json:"warnings_count" db:"warnings_count"`
	CompletenessScore int             `json:"completeness_score" db:"completeness_score"`
	AlertsGenerated   int             `json:"alerts_generated" db:"alerts_generated"`
	ErrorDetails      json.RawMessage `json:"error_details" db:"error_details"`
	Summary           string          `json:"summary" db:"summary"`
}

// ErrorDetail is one structured entry in a run's error_details array.
type ErrorDetail struct {
	Message   string    `json:"message"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
}
