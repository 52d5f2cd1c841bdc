// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// FormatFor returns the dataset format implied by a file extension,
// falling back to def.
func FormatFor(path string, def types.OutputFormat) types.OutputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return types.FormatYAML
	case ".json":
		return types.FormatJSON
	}
	return def
}

// EncodeDataset serializes records. JSON output is indented by two spaces
// and keeps non-ASCII characters and markup as written.
func EncodeDataset(records []types.Record, format types.OutputFormat) ([]byte, error) {
	if records == nil {
		records = []types.Record{}
	}
	switch format {
	case types.FormatYAML:
		data, err := yaml.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return data, nil
	case types.FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(records); err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// WriteDataset writes records to path, creating parent directories.
func WriteDataset(path string, records []types.Record, format types.OutputFormat) error {
	data, err := EncodeDataset(records, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing dataset %s: %w", path, err)
	}
	return nil
}

// ReadDataset loads a dataset written by WriteDataset. The format follows
// the file extension; anything but .yaml/.yml is read as JSON.
func ReadDataset(path string) ([]types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	var records []types.Record
	if FormatFor(path, types.FormatJSON) == types.FormatYAML {
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
		}
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return records, nil
}
