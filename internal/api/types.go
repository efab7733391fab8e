package api

import (
	"github.com/stacklok/cartsync/internal/sites"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status  string `json:"status"`
	CartKey string `json:"cartKey,omitempty"`
}

// ActionResponse acknowledges a dispatched cart action
type ActionResponse struct {
	Status string `json:"status"`
	Type   string `json:"type"`
}

// SelectSiteRequest is the body of PUT /v1/site
type SelectSiteRequest struct {
	SiteID int64 `json:"siteId"`
}

// SitesResponse lists the known sites and the current selection
type SitesResponse struct {
	Sites    []sites.Site `json:"sites"`
	Selected *sites.Site  `json:"selected,omitempty"`
}
