// Package ingestion runs hosted audits: it stores submitted datasets, runs
// the audit engine, writes reports to blob storage and records the results.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrBlobNotFound is returned (wrapped) when a dataset or report blob does
// not exist in the backend.
var ErrBlobNotFound = errors.New("blob not found")

// Blob kinds under each portal prefix.
const (
	kindDatasets = "datasets"
	kindReports  = "reports"
)

// StorageClient abstracts blob storage for datasets and audit reports.
type StorageClient interface {
	PutDataset(ctx context.Context, portalID, datasetID string, data []byte) error
	GetDataset(ctx context.Context, portalID, datasetID string) ([]byte, error)
	PutReport(ctx context.Context, portalID, auditID string, data []byte) error
	GetReport(ctx context.Context, portalID, auditID string) ([]byte, error)
}

// objectKey is the slash-separated key shared by every backend.
func objectKey(portalID, kind, id string) string {
	return portalID + "/" + kind + "/" + id + ".json"
}

// LocalStorage implements StorageClient using the local filesystem.
// Useful for development, the CLI and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(portalID, kind, id string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(objectKey(portalID, kind, id)))
}

func (s *LocalStorage) get(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, ErrBlobNotFound)
	}
	return data, err
}

func (s *LocalStorage) put(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// PutDataset stores a dataset blob.
func (s *LocalStorage) PutDataset(ctx context.Context, portalID, datasetID string, data []byte) error {
	return s.put(s.path(portalID, kindDatasets, datasetID), data)
}

// GetDataset retrieves a dataset blob.
func (s *LocalStorage) GetDataset(ctx context.Context, portalID, datasetID string) ([]byte, error) {
	return s.get(s.path(portalID, kindDatasets, datasetID))
}

// PutReport stores an audit report blob.
func (s *LocalStorage) PutReport(ctx context.Context, portalID, auditID string, data []byte) error {
	return s.put(s.path(portalID, kindReports, auditID), data)
}

// GetReport retrieves an audit report blob.
func (s *LocalStorage) GetReport(ctx context.Context, portalID, auditID string) ([]byte, error) {
	return s.get(s.path(portalID, kindReports, auditID))
}

// BackendConfig selects and configures a StorageClient.
type BackendConfig struct {
	Backend   string // local, s3, gcs
	LocalDir  string
	GCSBucket string
	S3        S3Config
}

// OpenStorage builds the StorageClient named by cfg.Backend.
func OpenStorage(ctx context.Context, cfg BackendConfig) (StorageClient, error) {
	switch cfg.Backend {
	case "", "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("local storage requires a directory")
		}
		return NewLocalStorage(cfg.LocalDir), nil
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("s3 storage requires a bucket")
		}
		s, err := NewS3Storage(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("gcs storage requires a bucket")
		}
		s, err := NewGCSStorage(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
