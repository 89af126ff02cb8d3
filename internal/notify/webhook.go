// Package notify publishes audit results to external systems.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/surface"
)

// SignatureHeader carries the HMAC-SHA256 of the request body.
const SignatureHeader = "X-Crmpulse-Signature-256"

// EventAuditCompleted is the only event type published today.
const EventAuditCompleted = "audit.completed"

// Event is the webhook payload for a finished audit.
type Event struct {
	Type              string         `json:"type"`
	AuditID           string         `json:"audit_id"`
	PortalID          string         `json:"portal_id"`
	PortalName        string         `json:"portal_name"`
	Score             int            `json:"score"`
	Severity          audit.Severity `json:"severity"`
	PrimaryRiskDriver string         `json:"primary_risk_driver"`
	ActionCount       int            `json:"action_count"`
	Brief             string         `json:"brief"` // markdown
	GeneratedAt       string         `json:"generated_at"`
}

// NewAuditEvent builds the audit.completed event for result.
func NewAuditEvent(auditID, portalID, portalName string, result *audit.Result) Event {
	return Event{
		Type:              EventAuditCompleted,
		AuditID:           auditID,
		PortalID:          portalID,
		PortalName:        portalName,
		Score:             result.OverallHealth.Score,
		Severity:          result.OverallHealth.Severity,
		PrimaryRiskDriver: result.OverallHealth.PrimaryRiskDriver,
		ActionCount:       len(result.PrioritizedActions),
		Brief:             surface.BuildMarkdownBrief(result),
		GeneratedAt:       result.Metadata.GeneratedAt,
	}
}

// WebhookPublisher POSTs events as JSON to a fixed URL. When a secret is
// set, each request is signed with SignatureHeader.
type WebhookPublisher struct {
	url        string
	secret     []byte
	httpClient *http.Client
}

// NewWebhookPublisher creates a publisher for url.
func NewWebhookPublisher(url string, secret []byte) *WebhookPublisher {
	return &WebhookPublisher{
		url:        url,
		secret:     secret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Publish delivers one event. Any non-2xx response is an error.
func (p *WebhookPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Crmpulse-Event", event.Type)
	if len(p.secret) > 0 {
		req.Header.Set(SignatureHeader, Sign(body, p.secret))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook error %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Sign returns the signature header value for payload.
func Sign(payload, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a SignatureHeader value against payload.
// Receivers can use it to authenticate deliveries.
func VerifySignature(payload []byte, signature string, secret []byte) error {
	if !strings.HasPrefix(signature, "sha256=") {
		return fmt.Errorf("invalid signature format")
	}
	sig, err := hex.DecodeString(signature[7:])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
