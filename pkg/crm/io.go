package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// page is the shape of a paginated CRM list response.
type page struct {
	Results []Record `json:"results"`
}

// ParseRecords decodes a record collection. It accepts either a bare JSON
// array of records or a list page of the form {"results": [...]}.
func ParseRecords(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("unmarshaling records: %w", err)
		}
		return records, nil
	}

	var p page
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("unmarshaling record page: %w", err)
	}
	return p.Results, nil
}

// LoadRecords reads a record collection from disk.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	return ParseRecords(data)
}

// LoadDataset reads a combined dataset file from disk.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("unmarshaling dataset: %w", err)
	}

	return &ds, nil
}

// SaveDataset writes a dataset to disk as JSON.
func SaveDataset(path string, ds *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for dataset: %w", err)
	}

	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling dataset: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}

	return nil
}
