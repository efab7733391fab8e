package api

import (
	"net/http"

	"github.com/stacklok/cartsync/internal/api/common"
	"github.com/stacklok/cartsync/internal/versions"
)

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readiness reports ready once the store has a cart bound
func (h *handlers) readiness(w http.ResponseWriter, _ *http.Request) {
	if !h.cart.Bound() {
		common.WriteErrorResponse(w, "cart store not ready: no cart is bound", http.StatusServiceUnavailable)
		return
	}
	common.WriteJSONResponse(w, ReadinessResponse{
		Status:  "ready",
		CartKey: h.cart.Get().CartKey.String(),
	}, http.StatusOK)
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
