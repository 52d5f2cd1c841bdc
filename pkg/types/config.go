// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OutputFormat selects the dataset serialization.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// ConvertConfig holds settings for the conversion stage.
type ConvertConfig struct {
	// InputPath is the raw kortsvar transcript.
	InputPath string `json:"input_path" yaml:"input_path"`

	// ImagesDir is the directory holding figure images.
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// RootDir, when set, makes recorded image paths relative to it
	// (e.g. "billeder/opgaver/2026-01-a.jpg"). Empty keeps ImagesDir-joined paths.
	RootDir string `json:"root_dir,omitempty" yaml:"root_dir,omitempty"`

	// OutputPath is the dataset file to write (e.g. "data/kortsvar.json").
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Format selects json or yaml output (default json).
	Format OutputFormat `json:"format" yaml:"format"`

	// AliasesPath is an optional YAML file extending the category alias table.
	AliasesPath string `json:"aliases_path,omitempty" yaml:"aliases_path,omitempty"`

	// ReportPath, when set, receives an XLSX review workbook.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	// MaxListed caps how many entries of each diagnostic list are printed (default 20).
	MaxListed int `json:"max_listed" yaml:"max_listed"`
}

// ArchiveConfig holds settings for the SQLite archive index.
type ArchiveConfig struct {
	// ArchiveDir is the directory holding kortsvar.db and exports.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
