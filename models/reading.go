package models

import "time"

// RawReading is one device row as scraped from the portal's status table.
// All metric fields are unnormalized text exactly as displayed; parsing
// happens during reconciliation. Readings live only for the duration of
// a run and are never persisted as-is.
type RawReading struct {
	Serial      string    `json:"serial"`
	Battery     string    `json:"battery"`
	Signal      string    `json:"signal"`
	Links       string    `json:"links"`
	Queue       string    `json:"queue"`
	SDImages    string    `json:"sd_images"`
	SDFreeMB    string    `json:"sd_free_mb"`
	HWVersion   string    `json:"hw_version"`
	FWVersion   string    `json:"fw_version"`
	CLVersion   string    `json:"cl_version"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Extraction is the full result of one portal scrape.
type Extraction struct {
	Readings   []RawReading `json:"readings"`
	ReportedAt *time.Time   `json:"reported_at"`
}
