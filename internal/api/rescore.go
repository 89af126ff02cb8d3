package api

import (
	"encoding/json"
	"log"
	"net/http"
)

type rescoreRequest struct {
	PortalID string `json:"portal_id"` // optional filter
}

// handleRescore re-runs the audit engine on every stored dataset, rewrites
// the reports and updates the catalog rows in place.
func (h *Handler) handleRescore(w http.ResponseWriter, r *http.Request) {
	var req rescoreRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}

	summary, err := h.ingestionSvc.Rescore(r.Context(), req.PortalID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rescore: "+err.Error())
		return
	}

	h.cache.Purge()
	log.Printf("rescore complete: rescored=%d errors=%d", summary.Rescored, summary.Errors)

	writeJSON(w, http.StatusOK, summary)
}
