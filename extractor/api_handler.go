package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"camwatch/config"
	"camwatch/httputil"
	"camwatch/models"
)

// APIHandler fetches the portal's device-status JSON feed directly.
// Newer portal builds expose the table's backing endpoint; when
// configured it is much cheaper than driving a browser.
type APIHandler struct {
	cfg    *config.PortalConfig
	client *http.Client
}

func NewAPIHandler(cfg *config.PortalConfig, clients *httputil.Clients) *APIHandler {
	return &APIHandler{cfg: cfg, client: clients.Portal}
}

func (h *APIHandler) ID() string {
	return "api"
}

// deviceRow mirrors the feed's wire format. Every metric is a string
// there too; the portal formats values server-side.
type deviceRow struct {
	Serial     string `json:"serial"`
	Battery    string `json:"battery"`
	Signal     string `json:"signal"`
	Links      string `json:"links"`
	Queue      string `json:"queue"`
	SDImages   string `json:"sd_images"`
	SDFreeMB   string `json:"sd_free_mb"`
	HWVersion  string `json:"hw_version"`
	FWVersion  string `json:"fw_version"`
	CLVersion  string `json:"cl_version"`
	ReportedAt string `json:"reported_at"`
}

type statusFeed struct {
	Devices    []deviceRow `json:"devices"`
	ReportedAt string      `json:"reported_at"`
}

func (h *APIHandler) Extract(ctx context.Context) (*models.Extraction, error) {
	endpoint := h.cfg.Endpoints["status_api"]
	if endpoint == "" {
		endpoint = h.cfg.Endpoints["status"]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.BaseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(h.cfg.Username, h.cfg.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status feed returned %d", resp.StatusCode)
	}

	var feed statusFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode status feed: %w", err)
	}

	now := time.Now()
	extraction := &models.Extraction{}
	for _, d := range feed.Devices {
		if d.Serial == "" {
			continue
		}
		extraction.Readings = append(extraction.Readings, models.RawReading{
			Serial:      d.Serial,
			Battery:     d.Battery,
			Signal:      d.Signal,
			Links:       d.Links,
			Queue:       d.Queue,
			SDImages:    d.SDImages,
			SDFreeMB:    d.SDFreeMB,
			HWVersion:   d.HWVersion,
			FWVersion:   d.FWVersion,
			CLVersion:   d.CLVersion,
			ExtractedAt: now,
		})
	}

	if feed.ReportedAt != "" {
		if t, err := time.Parse(h.cfg.Selectors.TimeFormat, feed.ReportedAt); err == nil {
			extraction.ReportedAt = &t
		}
	}

	return extraction, nil
}
