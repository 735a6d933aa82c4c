package extractor

import (
	"context"

	"camwatch/config"
	"camwatch/httputil"
	"camwatch/models"
)

// Handler is the extraction interface: one call yields every device row
// the portal currently shows plus the portal's own report timestamp.
type Handler interface {
	ID() string
	Extract(ctx context.Context) (*models.Extraction, error)
}

func NewHandler(cfg *config.PortalConfig, clients *httputil.Clients) Handler {
	switch cfg.Handler {
	case "api":
		return NewAPIHandler(cfg, clients)
	case "browser":
		return NewBrowserHandler(cfg)
	default:
		return NewBrowserHandler(cfg)
	}
}
