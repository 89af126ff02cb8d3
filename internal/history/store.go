// Package history keeps a local record of audits run from the CLI, so a
// portal's data-quality trend can be reviewed without the hosted service.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/crmpulse/crmpulse/pkg/audit"
)

// Entry is one recorded audit run.
type Entry struct {
	ID                int64              `json:"id"`
	Portal            string             `json:"portal"`
	Score             int                `json:"score"`
	Severity          audit.Severity     `json:"severity"`
	PrimaryRiskDriver string             `json:"primary_risk_driver"`
	Contacts          int                `json:"contacts"`
	Companies         int                `json:"companies"`
	Deals             int                `json:"deals"`
	Signals           map[string]float64 `json:"signals"`
	ReportRef         string             `json:"report_ref,omitempty"`
	GeneratedAt       string             `json:"generated_at"`
}

// Store is a sqlite-backed audit history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_runs (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			portal              TEXT NOT NULL,
			score               INTEGER NOT NULL,
			severity            TEXT NOT NULL,
			primary_risk_driver TEXT NOT NULL,
			contacts            INTEGER NOT NULL DEFAULT 0,
			companies           INTEGER NOT NULL DEFAULT 0,
			deals               INTEGER NOT NULL DEFAULT 0,
			signals             TEXT NOT NULL DEFAULT '{}',
			report_ref          TEXT NOT NULL DEFAULT '',
			generated_at        TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_runs_portal ON audit_runs(portal, generated_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Record stores a completed audit for portal and returns its row ID.
func (s *Store) Record(portal string, result *audit.Result, reportRef string) (int64, error) {
	values := make(map[string]float64, len(result.Signals))
	for _, sig := range result.Signals {
		values[string(sig.Key)] = sig.Value
	}
	signalsJSON, err := json.Marshal(values)
	if err != nil {
		return 0, fmt.Errorf("history: marshal signals: %w", err)
	}

	generatedAt := result.Metadata.GeneratedAt
	if generatedAt == "" {
		generatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	counts := result.Metadata.RecordCounts
	res, err := s.db.Exec(
		`INSERT INTO audit_runs (portal, score, severity, primary_risk_driver,
		                         contacts, companies, deals, signals, report_ref, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		portal, result.OverallHealth.Score, string(result.OverallHealth.Severity),
		result.OverallHealth.PrimaryRiskDriver,
		counts.Contacts, counts.Companies, counts.Deals,
		string(signalsJSON), reportRef, generatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	return res.LastInsertId()
}

// List returns recorded runs, newest first. An empty portal lists every
// portal; a limit of zero or less returns all rows.
func (s *Store) List(portal string, limit int) ([]Entry, error) {
	query := `SELECT id, portal, score, severity, primary_risk_driver,
	                 contacts, companies, deals, signals, report_ref, generated_at
	          FROM audit_runs`
	var args []any
	if portal != "" {
		query += ` WHERE portal = ?`
		args = append(args, portal)
	}
	query += ` ORDER BY generated_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			severity string
			signals  string
		)
		if err := rows.Scan(&e.ID, &e.Portal, &e.Score, &severity, &e.PrimaryRiskDriver,
			&e.Contacts, &e.Companies, &e.Deals, &signals, &e.ReportRef, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		e.Severity = audit.Severity(severity)
		if err := json.Unmarshal([]byte(signals), &e.Signals); err != nil {
			return nil, fmt.Errorf("history: decode signals for run %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Portals returns the distinct portal names with recorded runs.
func (s *Store) Portals() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT portal FROM audit_runs ORDER BY portal`)
	if err != nil {
		return nil, fmt.Errorf("history: list portals: %w", err)
	}
	defer rows.Close()

	var portals []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("history: scan portal: %w", err)
		}
		portals = append(portals, p)
	}
	return portals, rows.Err()
}
