package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stacklok/cartsync/internal/api/common"
	"github.com/stacklok/cartsync/internal/logger"
	"github.com/stacklok/cartsync/internal/sites"
	"github.com/stacklok/cartsync/internal/upgrades"
)

// maxBodySize caps action and site request bodies
const maxBodySize = 1 << 20

func (h *handlers) getCart(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, h.cart.Get(), http.StatusOK)
}

// postAction accepts an action and dispatches it on the bus. Every kind but
// CART_DISABLE needs a bound cart.
func (h *handlers) postAction(w http.ResponseWriter, r *http.Request) {
	var action upgrades.Action
	if err := decodeBody(r, &action); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid action payload: %v", err), http.StatusBadRequest)
		return
	}
	if err := action.Validate(); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !action.Type.Known() {
		common.WriteErrorResponse(w, fmt.Sprintf("unknown action type %q", action.Type), http.StatusBadRequest)
		return
	}
	if action.Type != upgrades.CartDisable && !h.cart.Bound() {
		common.WriteErrorResponse(w, "no cart is bound", http.StatusConflict)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), action); err != nil {
		logger.Errorf("Failed to dispatch action %s: %v", action.Type, err)
		common.WriteErrorResponse(w, "failed to dispatch action", http.StatusServiceUnavailable)
		return
	}

	common.WriteJSONResponse(w, ActionResponse{Status: "accepted", Type: string(action.Type)}, http.StatusAccepted)
}

func (h *handlers) listSites(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, SitesResponse{
		Sites:    h.sites.Sites(),
		Selected: h.sites.SelectedSite(),
	}, http.StatusOK)
}

// selectSite selects a site; the store rebinds to its cart before the
// response is written.
func (h *handlers) selectSite(w http.ResponseWriter, r *http.Request) {
	var req SelectSiteRequest
	if err := decodeBody(r, &req); err != nil {
		common.WriteErrorResponse(w, fmt.Sprintf("invalid site payload: %v", err), http.StatusBadRequest)
		return
	}
	if req.SiteID <= 0 {
		common.WriteErrorResponse(w, "siteId must be a positive integer", http.StatusBadRequest)
		return
	}

	if err := h.sites.Select(req.SiteID); err != nil {
		if errors.Is(err, sites.ErrSiteNotFound) {
			common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
			return
		}
		common.WriteErrorResponse(w, err.Error(), http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, h.cart.Get(), http.StatusOK)
}

func (h *handlers) clearSite(w http.ResponseWriter, _ *http.Request) {
	h.sites.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
