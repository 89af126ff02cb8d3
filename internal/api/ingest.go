package api

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/crmpulse/crmpulse/internal/ingestion"
	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/crm"
)

// maxAuditBody bounds the decompressed size of a submitted dataset.
const maxAuditBody = 256 << 20

// auditRequest is the JSON body for POST /api/v1/audits.
type auditRequest struct {
	Portal  string       `json:"portal"`
	Dataset *crm.Dataset `json:"dataset"`
}

type auditResponse struct {
	AuditID    string        `json:"audit_id"`
	PortalID   string        `json:"portal_id"`
	DatasetRef string        `json:"dataset_ref"`
	ReportRef  string        `json:"report_ref"`
	Result     *audit.Result `json:"result"`
}

func (h *Handler) handleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	// Support gzip-compressed request bodies
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid gzip body: "+err.Error())
			return
		}
		defer gz.Close()
		body = gz
	}
	body = io.LimitReader(body, maxAuditBody)

	var req auditRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req.Portal = strings.TrimSpace(req.Portal)
	if req.Portal == "" || req.Dataset == nil {
		writeError(w, http.StatusBadRequest, "portal and dataset are required")
		return
	}

	out, err := h.ingestionSvc.Submit(r.Context(), ingestion.AuditRequest{
		PortalName: req.Portal,
		Dataset:    *req.Dataset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to run audit: "+err.Error())
		return
	}

	h.cache.Put(out.AuditID, out.Result)

	writeJSON(w, http.StatusOK, auditResponse{
		AuditID:    out.AuditID,
		PortalID:   out.PortalID,
		DatasetRef: out.DatasetRef,
		ReportRef:  out.ReportRef,
		Result:     out.Result,
	})
}
