package api

import (
	"net/http"

	"github.com/crmpulse/crmpulse/internal/portal"
)

func (h *Handler) handleDeletePortal(w http.ResponseWriter, r *http.Request) {
	portalID := r.PathValue("portalID")

	if err := h.portals.DeletePortal(r.Context(), portalID); err != nil {
		if portal.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "portal not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete portal: "+err.Error())
		return
	}

	// Reports of the deleted portal may still be cached.
	h.cache.Purge()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
