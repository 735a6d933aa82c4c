package httputil

import (
	"net/http"
	"net/http/cookiejar"

	"camwatch/config"
)

type Clients struct {
	Portal *http.Client // session-aware, timeout bounds the extraction step
	API    *http.Client // direct, for artifact uploads and webhooks
}

func NewClients(portalCfg *config.PortalConfig) *Clients {
	jar, _ := cookiejar.New(nil)

	portal := &http.Client{
		Timeout: portalCfg.Timeout,
		Jar:     jar,
	}

	return &Clients{
		Portal: portal,
		API:    &http.Client{Timeout: portalCfg.Timeout},
	}
}
