package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoragePutGetDataset(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"contacts":[],"companies":[],"deals":[]}`)
	if err := s.PutDataset(ctx, "portal1", "audit1", data); err != nil {
		t.Fatalf("PutDataset: %v", err)
	}

	got, err := s.GetDataset(ctx, "portal1", "audit1")
	if err != nil {
		t.Fatalf("GetDataset: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetDataset = %q, want %q", got, data)
	}

	// Verify file path layout
	expectedPath := filepath.Join(dir, "portal1", "datasets", "audit1.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStoragePutGetReport(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir)
	ctx := context.Background()

	data := []byte(`{"overall_health":{"score":42}}`)
	if err := s.PutReport(ctx, "portal1", "audit1", data); err != nil {
		t.Fatalf("PutReport: %v", err)
	}

	got, err := s.GetReport(ctx, "portal1", "audit1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("GetReport = %q, want %q", got, data)
	}

	expectedPath := filepath.Join(dir, "portal1", "reports", "audit1.json")
	if _, err := os.Stat(expectedPath); err != nil {
		t.Errorf("expected file at %s: %v", expectedPath, err)
	}
}

func TestLocalStorageGetNotFound(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	_, err := s.GetDataset(context.Background(), "portal1", "nonexistent")
	if err == nil {
		t.Fatal("expected error for nonexistent dataset")
	}
	if !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	if got := objectKey("p", kindReports, "a"); got != "p/reports/a.json" {
		t.Errorf("objectKey = %q", got)
	}
}

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	s, err := OpenStorage(ctx, BackendConfig{Backend: "local", LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("OpenStorage(local): %v", err)
	}
	if _, ok := s.(*LocalStorage); !ok {
		t.Errorf("expected *LocalStorage, got %T", s)
	}

	tests := []struct {
		name string
		cfg  BackendConfig
	}{
		{name: "local without dir", cfg: BackendConfig{Backend: "local"}},
		{name: "s3 without bucket", cfg: BackendConfig{Backend: "s3"}},
		{name: "gcs without bucket", cfg: BackendConfig{Backend: "gcs"}},
		{name: "unknown backend", cfg: BackendConfig{Backend: "ftp"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := OpenStorage(ctx, tc.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
