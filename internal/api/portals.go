package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crmpulse/crmpulse/internal/portal"
	"github.com/crmpulse/crmpulse/pkg/audit"
)

const defaultAuditListLimit = 50

type portalResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type auditSummary struct {
	ID                string          `json:"id"`
	PortalID          string          `json:"portal_id"`
	Score             int             `json:"score"`
	Severity          string          `json:"severity"`
	PrimaryRiskDriver string          `json:"primary_risk_driver"`
	RecordCounts      recordCounts    `json:"record_counts"`
	Signals           json.RawMessage `json:"signals"`
	Actions           json.RawMessage `json:"prioritized_actions"`
	GeneratedAt       string          `json:"generated_at"`
	CreatedAt         string          `json:"created_at"`
}

type recordCounts struct {
	Contacts  int `json:"contacts"`
	Companies int `json:"companies"`
	Deals     int `json:"deals"`
}

func auditRowToSummary(a *portal.AuditRow) auditSummary {
	return auditSummary{
		ID:                a.ID,
		PortalID:          a.PortalID,
		Score:             a.Score,
		Severity:          a.Severity,
		PrimaryRiskDriver: a.PrimaryRiskDriver,
		RecordCounts: recordCounts{
			Contacts:  a.ContactCount,
			Companies: a.CompanyCount,
			Deals:     a.DealCount,
		},
		Signals:     rawOrEmpty(a.Signals),
		Actions:     rawOrEmpty(a.Actions),
		GeneratedAt: a.GeneratedAt.UTC().Format(time.RFC3339),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}
	return raw
}

func (h *Handler) handleListPortals(w http.ResponseWriter, r *http.Request) {
	portals, err := h.portals.ListPortals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list portals")
		return
	}

	result := make([]portalResponse, 0, len(portals))
	for _, p := range portals {
		result = append(result, portalResponse{
			ID:        p.ID,
			Name:      p.Name,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListAudits(w http.ResponseWriter, r *http.Request) {
	portalID := r.PathValue("portalID")

	limit := defaultAuditListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	audits, err := h.portals.ListAuditsByPortal(r.Context(), portalID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audits")
		return
	}

	result := make([]auditSummary, 0, len(audits))
	for i := range audits {
		result = append(result, auditRowToSummary(&audits[i]))
	}
	writeJSON(w, http.StatusOK, result)
}

type historyEntry struct {
	Date     string             `json:"date"`
	AuditID  string             `json:"audit_id"`
	Score    int                `json:"score"`
	Severity string             `json:"severity"`
	Signals  map[string]float64 `json:"signals"`
}

// handleHistory returns the score trend for a portal, newest first, with
// each audit's signal values keyed by signal key.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	portalID := r.PathValue("portalID")

	audits, err := h.portals.ListAuditsByPortal(r.Context(), portalID, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	history := make([]historyEntry, 0, len(audits))
	for _, a := range audits {
		var signals []audit.SignalResult
		_ = json.Unmarshal(a.Signals, &signals)

		values := make(map[string]float64, len(signals))
		for _, s := range signals {
			values[string(s.Key)] = s.Value
		}

		history = append(history, historyEntry{
			Date:     a.GeneratedAt.UTC().Format("2006-01-02"),
			AuditID:  a.ID,
			Score:    a.Score,
			Severity: a.Severity,
			Signals:  values,
		})
	}
	writeJSON(w, http.StatusOK, history)
}
