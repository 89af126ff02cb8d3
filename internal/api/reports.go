package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/crmpulse/crmpulse/internal/ingestion"
	"github.com/crmpulse/crmpulse/internal/portal"
	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/surface"
)

var errAuditNotFound = errors.New("audit not found")

// loadReport loads a full audit report, checking the cache first, then
// falling back to the catalog row and blob storage.
func (h *Handler) loadReport(ctx context.Context, auditID string) (*portal.AuditRow, *audit.Result, error) {
	row, err := h.portals.GetAudit(ctx, auditID)
	if err != nil {
		if portal.IsNotFound(err) {
			return nil, nil, errAuditNotFound
		}
		return nil, nil, fmt.Errorf("audit metadata: %w", err)
	}

	if result := h.cache.Get(auditID); result != nil {
		return row, result, nil
	}

	result, err := h.ingestionSvc.LoadReport(ctx, row.PortalID, auditID)
	if err != nil {
		if errors.Is(err, ingestion.ErrBlobNotFound) {
			return nil, nil, errAuditNotFound
		}
		return nil, nil, err
	}

	h.cache.Put(auditID, result)
	return row, result, nil
}

type auditDetail struct {
	ID       string        `json:"id"`
	PortalID string        `json:"portal_id"`
	Result   *audit.Result `json:"result"`
}

func (h *Handler) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	row, result, err := h.loadReport(r.Context(), r.PathValue("auditID"))
	if err != nil {
		writeReportError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, auditDetail{
		ID:       row.ID,
		PortalID: row.PortalID,
		Result:   result,
	})
}

// handleAuditBrief renders the stored report as a Markdown brief.
func (h *Handler) handleAuditBrief(w http.ResponseWriter, r *http.Request) {
	_, result, err := h.loadReport(r.Context(), r.PathValue("auditID"))
	if err != nil {
		writeReportError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = (&surface.MarkdownRenderer{}).Render(w, result)
}

func writeReportError(w http.ResponseWriter, err error) {
	if errors.Is(err, errAuditNotFound) {
		writeError(w, http.StatusNotFound, "audit not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "failed to load audit: "+err.Error())
}
