package history_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/crmpulse/crmpulse/internal/history"
	"github.com/crmpulse/crmpulse/pkg/audit"
	"github.com/crmpulse/crmpulse/pkg/crm"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	s, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func resultAt(day int, deals []crm.Record) *audit.Result {
	clock := func() time.Time { return time.Date(2026, 4, day, 8, 0, 0, 0, time.UTC) }
	return audit.NewEngine(audit.WithClock(clock)).Audit(crm.Dataset{Deals: deals})
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t)

	full := crm.NewRecord("", map[string]string{crm.PropCloseDate: "x", crm.PropAmount: "x", crm.PropDealStage: "x", crm.PropPipeline: "x"})
	bare := crm.NewRecord("", nil)

	if _, err := s.Record("acme", resultAt(1, []crm.Record{bare, full}), ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := s.Record("acme", resultAt(3, []crm.Record{full, full}), "acme/reports/r2.json"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := s.Record("globex", resultAt(2, []crm.Record{full}), ""); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := s.List("acme", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 acme entries, got %d", len(entries))
	}

	newest := entries[0]
	if newest.GeneratedAt != "2026-04-03T08:00:00Z" {
		t.Errorf("newest generated_at = %q", newest.GeneratedAt)
	}
	if newest.ReportRef != "acme/reports/r2.json" {
		t.Errorf("report ref = %q", newest.ReportRef)
	}
	if newest.Deals != 2 {
		t.Errorf("deals = %d, want 2", newest.Deals)
	}

	oldest := entries[1]
	if oldest.Severity != audit.SeverityHigh {
		t.Errorf("oldest severity = %s, want high", oldest.Severity)
	}
	if v := oldest.Signals[string(audit.SignalDealsMissingCloseDate)]; v != 50 {
		t.Errorf("close date signal = %f, want 50", v)
	}
	if len(oldest.Signals) != 7 {
		t.Errorf("expected 7 signal values, got %d", len(oldest.Signals))
	}

	all, err := s.List("", 2)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 || all[1].Portal != "globex" {
		t.Errorf("limit/ordering wrong: %+v", all)
	}

	portals, err := s.Portals()
	if err != nil {
		t.Fatalf("Portals: %v", err)
	}
	if len(portals) != 2 || portals[0] != "acme" || portals[1] != "globex" {
		t.Errorf("portals = %v", portals)
	}
}

func TestList_EmptyIsNonNil(t *testing.T) {
	s := openStore(t)
	entries, err := s.List("nobody", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Record("acme", resultAt(1, nil), ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	s.Close()

	s, err = history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	entries, err := s.List("acme", 0)
	if err != nil || len(entries) != 1 {
		t.Errorf("expected 1 entry after reopen, got %d (%v)", len(entries), err)
	}
}
