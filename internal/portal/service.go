// Package portal manages hosted state: portals (one per connected CRM
// account) and the audits recorded against them.
package portal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = pq.ErrorCode("23505")

// Service provides portal and audit bookkeeping backed by Postgres.
type Service struct {
	db *sql.DB
}

// Portal represents one CRM account whose data is audited.
type Portal struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// AuditRow is the catalog entry for one audit run. The full report lives in
// blob storage under ReportRef.
type AuditRow struct {
	ID                string
	PortalID          string
	Score             int
	Severity          string
	PrimaryRiskDriver string
	ContactCount      int
	CompanyCount      int
	DealCount         int
	Signals           json.RawMessage
	Actions           json.RawMessage
	DatasetRef        string
	ReportRef         string
	GeneratedAt       time.Time
	CreatedAt         time.Time
}

// NewService creates a new portal Service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreatePortal creates a portal with the given name.
func (s *Service) CreatePortal(ctx context.Context, name string) (*Portal, error) {
	p := &Portal{}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO portals (name) VALUES ($1)
		 RETURNING id, name, created_at`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create portal: %w", err)
	}
	return p, nil
}

// GetPortalByName looks up a portal by its unique name.
func (s *Service) GetPortalByName(ctx context.Context, name string) (*Portal, error) {
	p := &Portal{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM portals WHERE name = $1`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get portal by name %s: %w", name, err)
	}
	return p, nil
}

// GetPortal looks up a portal by ID.
func (s *Service) GetPortal(ctx context.Context, id string) (*Portal, error) {
	p := &Portal{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM portals WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get portal %s: %w", id, err)
	}
	return p, nil
}

// EnsurePortal gets or creates the portal with the given name.
func (s *Service) EnsurePortal(ctx context.Context, name string) (*Portal, error) {
	p, err := s.GetPortalByName(ctx, name)
	if err == nil {
		return p, nil
	}
	p, err = s.CreatePortal(ctx, name)
	if err != nil {
		// Lost a creation race; the other writer's row is the one we want.
		if isUniqueViolation(err) {
			return s.GetPortalByName(ctx, name)
		}
		return nil, fmt.Errorf("ensure portal: %w", err)
	}
	return p, nil
}

// ListPortals returns all portals ordered by name.
func (s *Service) ListPortals(ctx context.Context) ([]Portal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM portals ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list portals: %w", err)
	}
	defer rows.Close()

	var portals []Portal
	for rows.Next() {
		var p Portal
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan portal: %w", err)
		}
		portals = append(portals, p)
	}
	return portals, rows.Err()
}

// DeletePortal removes a portal. Its audits are removed by cascade.
func (s *Service) DeletePortal(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM portals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portal %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete portal %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// InsertAudit records a completed audit. The caller assigns row.ID.
func (s *Service) InsertAudit(ctx context.Context, row *AuditRow) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO audits (id, portal_id, score, severity, primary_risk_driver,
		                     contact_count, company_count, deal_count,
		                     signals, actions, dataset_ref, report_ref, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		row.ID, row.PortalID, row.Score, row.Severity, row.PrimaryRiskDriver,
		row.ContactCount, row.CompanyCount, row.DealCount,
		[]byte(row.Signals), []byte(row.Actions), row.DatasetRef, row.ReportRef, row.GeneratedAt,
	).Scan(&row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}

// UpdateAuditResult overwrites the scored fields of an existing audit.
func (s *Service) UpdateAuditResult(ctx context.Context, row *AuditRow) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audits SET score = $1, severity = $2, primary_risk_driver = $3,
		                   signals = $4, actions = $5, report_ref = $6, generated_at = $7
		 WHERE id = $8`,
		row.Score, row.Severity, row.PrimaryRiskDriver,
		[]byte(row.Signals), []byte(row.Actions), row.ReportRef, row.GeneratedAt, row.ID,
	)
	if err != nil {
		return fmt.Errorf("update audit %s: %w", row.ID, err)
	}
	return nil
}

const auditColumns = `id, portal_id, score, severity, primary_risk_driver,
	contact_count, company_count, deal_count,
	signals, actions, dataset_ref, report_ref, generated_at, created_at`

func scanAudit(sc interface{ Scan(...any) error }, a *AuditRow) error {
	return sc.Scan(
		&a.ID, &a.PortalID, &a.Score, &a.Severity, &a.PrimaryRiskDriver,
		&a.ContactCount, &a.CompanyCount, &a.DealCount,
		&a.Signals, &a.Actions, &a.DatasetRef, &a.ReportRef, &a.GeneratedAt, &a.CreatedAt,
	)
}

// ListAuditsByPortal returns audits for a portal, newest first. A limit of
// zero or less returns all of them.
func (s *Service) ListAuditsByPortal(ctx context.Context, portalID string, limit int) ([]AuditRow, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE portal_id = $1 ORDER BY created_at DESC`
	args := []any{portalID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	defer rows.Close()

	var audits []AuditRow
	for rows.Next() {
		var a AuditRow
		if err := scanAudit(rows, &a); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// ListAuditRefs returns every audit, oldest first, optionally restricted to
// one portal. Used when re-running the engine over stored datasets.
func (s *Service) ListAuditRefs(ctx context.Context, portalID string) ([]AuditRow, error) {
	query := `SELECT ` + auditColumns + ` FROM audits`
	var args []any
	if portalID != "" {
		query += ` WHERE portal_id = $1`
		args = append(args, portalID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit refs: %w", err)
	}
	defer rows.Close()

	var audits []AuditRow
	for rows.Next() {
		var a AuditRow
		if err := scanAudit(rows, &a); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// GetAudit returns a single audit by ID.
func (s *Service) GetAudit(ctx context.Context, id string) (*AuditRow, error) {
	a := &AuditRow{}
	err := scanAudit(s.db.QueryRowContext(ctx,
		`SELECT `+auditColumns+` FROM audits WHERE id = $1`, id), a)
	if err != nil {
		return nil, fmt.Errorf("get audit %s: %w", id, err)
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// IsNotFound reports whether err came from a lookup that matched no rows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
