// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RecordType marks the question kind in the serialized dataset. The
// converter only produces short-answer records.
const RecordType = "short"

// Record is the serialized form of a Question with its normalized category.
// JSON keys follow the dataset consumed by the ingestion pipeline.
type Record struct {
	Type        string   `json:"type" yaml:"type"`
	Year        int      `json:"year" yaml:"year"`
	Session     *Session `json:"session" yaml:"session"`
	Category    string   `json:"category" yaml:"category"`
	Opgave      int      `json:"opgave" yaml:"opgave"`
	OpgaveTitle string   `json:"opgaveTitle" yaml:"opgave_title"`
	OpgaveIntro *string  `json:"opgaveIntro" yaml:"opgave_intro"`
	Label       *string  `json:"label" yaml:"label"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Answer      string   `json:"answer" yaml:"answer"`
	Sources     []string `json:"sources" yaml:"sources"`
	Images      []string `json:"images" yaml:"images"`
}

// LabelString returns the label or "" when the record is unlabeled.
func (r *Record) LabelString() string {
	if r.Label == nil {
		return ""
	}
	return *r.Label
}
