package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/crmpulse/crmpulse/internal/notify"
	"github.com/crmpulse/crmpulse/internal/portal"
	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/crm"
)

// Store is the audit catalog the service records results in.
// *portal.Service satisfies it.
type Store interface {
	EnsurePortal(ctx context.Context, name string) (*portal.Portal, error)
	InsertAudit(ctx context.Context, row *portal.AuditRow) error
	UpdateAuditResult(ctx context.Context, row *portal.AuditRow) error
	ListAuditRefs(ctx context.Context, portalID string) ([]portal.AuditRow, error)
}

// Publisher receives an event for every completed submission.
// *notify.WebhookPublisher satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event notify.Event) error
}

// AuditRequest describes one dataset submitted for auditing.
type AuditRequest struct {
	PortalName string
	Dataset    crm.Dataset
}

// AuditOutcome is what a completed submission produced.
type AuditOutcome struct {
	AuditID    string
	PortalID   string
	DatasetRef string
	ReportRef  string
	Result     *audit.Result
}

// RescoreSummary counts the outcome of a rescore pass.
type RescoreSummary struct {
	Rescored int `json:"rescored"`
	Errors   int `json:"errors"`
}

// Service orchestrates the hosted audit pipeline.
type Service struct {
	store     Store
	storage   StorageClient
	engine    *audit.Engine
	publisher Publisher
	newID     func() string
}

// NewService creates a new ingestion Service. A nil engine uses the default.
func NewService(store Store, storage StorageClient, engine *audit.Engine) *Service {
	if engine == nil {
		engine = audit.NewEngine()
	}
	return &Service{
		store:   store,
		storage: storage,
		engine:  engine,
		newID:   uuid.NewString,
	}
}

// SetPublisher enables completion events. Delivery failures are logged and
// never fail the submission.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Storage returns the blob storage backend.
func (s *Service) Storage() StorageClient {
	return s.storage
}

// Submit stores the dataset, audits it, stores the report and records the
// audit in the catalog.
func (s *Service) Submit(ctx context.Context, req AuditRequest) (*AuditOutcome, error) {
	if req.PortalName == "" {
		return nil, fmt.Errorf("portal name is required")
	}

	p, err := s.store.EnsurePortal(ctx, req.PortalName)
	if err != nil {
		return nil, fmt.Errorf("ensure portal: %w", err)
	}

	auditID := s.newID()

	datasetRef, err := storeDataset(ctx, s.storage, p.ID, auditID, req.Dataset)
	if err != nil {
		return nil, err
	}

	result := s.engine.Audit(req.Dataset)

	reportRef, err := storeReport(ctx, s.storage, p.ID, auditID, result)
	if err != nil {
		return nil, err
	}

	row, err := auditRow(auditID, p.ID, result)
	if err != nil {
		return nil, err
	}
	row.DatasetRef = datasetRef
	row.ReportRef = reportRef

	if err := s.store.InsertAudit(ctx, row); err != nil {
		return nil, fmt.Errorf("record audit: %w", err)
	}

	log.Printf("audit %s completed: portal=%s score=%d severity=%s",
		auditID, p.Name, result.OverallHealth.Score, result.OverallHealth.Severity)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, notify.NewAuditEvent(auditID, p.ID, p.Name, result)); err != nil {
			log.Printf("audit %s: publish event: %v", auditID, err)
		}
	}

	return &AuditOutcome{
		AuditID:    auditID,
		PortalID:   p.ID,
		DatasetRef: row.DatasetRef,
		ReportRef:  reportRef,
		Result:     result,
	}, nil
}

// LoadReport reads a stored audit report.
func (s *Service) LoadReport(ctx context.Context, portalID, auditID string) (*audit.Result, error) {
	data, err := s.storage.GetReport(ctx, portalID, auditID)
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	var result audit.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &result, nil
}

// Rescore re-runs the engine over every stored dataset (optionally for one
// portal) and updates reports and catalog rows in place. Individual failures
// are logged and counted; only a catalog listing failure is returned.
func (s *Service) Rescore(ctx context.Context, portalID string) (RescoreSummary, error) {
	var summary RescoreSummary

	rows, err := s.store.ListAuditRefs(ctx, portalID)
	if err != nil {
		return summary, fmt.Errorf("list audits: %w", err)
	}

	for _, ref := range rows {
		if err := s.rescoreOne(ctx, ref); err != nil {
			log.Printf("rescore %s: %v", ref.ID, err)
			summary.Errors++
			continue
		}
		summary.Rescored++
	}
	return summary, nil
}

func (s *Service) rescoreOne(ctx context.Context, ref portal.AuditRow) error {
	data, err := s.storage.GetDataset(ctx, ref.PortalID, ref.ID)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	var ds crm.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return fmt.Errorf("unmarshal dataset: %w", err)
	}

	result := s.engine.Audit(ds)

	reportRef, err := storeReport(ctx, s.storage, ref.PortalID, ref.ID, result)
	if err != nil {
		return err
	}

	row, err := auditRow(ref.ID, ref.PortalID, result)
	if err != nil {
		return err
	}
	row.DatasetRef = ref.DatasetRef
	row.ReportRef = reportRef

	if err := s.store.UpdateAuditResult(ctx, row); err != nil {
		return fmt.Errorf("update audit: %w", err)
	}
	return nil
}

// Archive writes a dataset and its audit report to storage without touching
// the catalog, returning both object keys. The CLI uses it for --save.
func Archive(ctx context.Context, storage StorageClient, portalID, auditID string, ds crm.Dataset, result *audit.Result) (datasetRef, reportRef string, err error) {
	datasetRef, err = storeDataset(ctx, storage, portalID, auditID, ds)
	if err != nil {
		return "", "", err
	}
	reportRef, err = storeReport(ctx, storage, portalID, auditID, result)
	if err != nil {
		return "", "", err
	}
	return datasetRef, reportRef, nil
}

func storeDataset(ctx context.Context, storage StorageClient, portalID, auditID string, ds crm.Dataset) (string, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return "", fmt.Errorf("marshal dataset: %w", err)
	}
	if err := storage.PutDataset(ctx, portalID, auditID, data); err != nil {
		return "", fmt.Errorf("put dataset blob: %w", err)
	}
	return objectKey(portalID, kindDatasets, auditID), nil
}

func storeReport(ctx context.Context, storage StorageClient, portalID, auditID string, result *audit.Result) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	if err := storage.PutReport(ctx, portalID, auditID, data); err != nil {
		return "", fmt.Errorf("put report blob: %w", err)
	}
	return objectKey(portalID, kindReports, auditID), nil
}

// auditRow flattens a Result into its catalog row.
func auditRow(auditID, portalID string, result *audit.Result) (*portal.AuditRow, error) {
	signalsJSON, err := json.Marshal(result.Signals)
	if err != nil {
		return nil, fmt.Errorf("marshal signals: %w", err)
	}
	actionsJSON, err := json.Marshal(result.PrioritizedActions)
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339, result.Metadata.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("parse generated_at: %w", err)
	}

	counts := result.Metadata.RecordCounts
	return &portal.AuditRow{
		ID:                auditID,
		PortalID:          portalID,
		Score:             result.OverallHealth.Score,
		Severity:          string(result.OverallHealth.Severity),
		PrimaryRiskDriver: result.OverallHealth.PrimaryRiskDriver,
		ContactCount:      counts.Contacts,
		CompanyCount:      counts.Companies,
		DealCount:         counts.Deals,
		Signals:           signalsJSON,
		Actions:           actionsJSON,
		GeneratedAt:       generatedAt,
	}, nil
}
