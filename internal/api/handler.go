// Package api implements the hosted crmpulse REST API.
// It provides audit submission and read endpoints backed by Postgres and
// blob storage.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/crmpulse/crmpulse/internal/ingestion"
	"github.com/crmpulse/crmpulse/internal/portal"
)

// PortalStore is the read side of the portal catalog used by the API.
// *portal.Service satisfies it.
type PortalStore interface {
	ListPortals(ctx context.Context) ([]portal.Portal, error)
	GetPortal(ctx context.Context, id string) (*portal.Portal, error)
	DeletePortal(ctx context.Context, id string) error
	ListAuditsByPortal(ctx context.Context, portalID string, limit int) ([]portal.AuditRow, error)
	GetAudit(ctx context.Context, id string) (*portal.AuditRow, error)
}

// Handler is the top-level API handler for the hosted crmpulse service.
type Handler struct {
	portals      PortalStore
	ingestionSvc *ingestion.Service
	cache        *ReportCache
}

// NewHandler creates a new API handler.
func NewHandler(portals PortalStore, ingestionSvc *ingestion.Service, cache *ReportCache) *Handler {
	if cache == nil {
		cache = NewReportCacheFromEnv()
	}
	return &Handler{
		portals:      portals,
		ingestionSvc: ingestionSvc,
		cache:        cache,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Write endpoints (auth-protected)
	mux.HandleFunc("POST /api/v1/audits", h.handleSubmitAudit)
	mux.HandleFunc("POST /api/v1/rescore", h.handleRescore)
	mux.HandleFunc("DELETE /api/portals/{portalID}", h.handleDeletePortal)

	// Read endpoints
	mux.HandleFunc("GET /api/portals", h.handleListPortals)
	mux.HandleFunc("GET /api/portals/{portalID}/audits", h.handleListAudits)
	mux.HandleFunc("GET /api/portals/{portalID}/history", h.handleHistory)
	mux.HandleFunc("GET /api/audits/{auditID}", h.handleGetAudit)
	mux.HandleFunc("GET /api/audits/{auditID}/brief", h.handleAuditBrief)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
