// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the kortsvar pipeline:
// parsed questions, figure image descriptors, diagnostics, serialized
// records, and stage configuration.
package types

import "strings"

// Session identifies the exam session a question belongs to. Transcripts
// name it in free text after the year; normalized values are SessionOrdinary
// and SessionReExam, anything else is kept as the cleaned raw label.
type Session string

const (
	SessionOrdinary Session = "ordinær"
	SessionReExam   Session = "sygeeksamen"
)

// NormalizeSession maps a free-text session label to a Session. An empty
// label means no session was given and returns nil.
func NormalizeSession(label string) *Session {
	cleaned := strings.ToLower(strings.TrimSpace(label))
	if cleaned == "" {
		return nil
	}
	var s Session
	switch {
	case strings.Contains(cleaned, "syge"):
		s = SessionReExam
	case strings.Contains(cleaned, "ordin"):
		s = SessionOrdinary
	default:
		s = Session(cleaned)
	}
	return &s
}

// SessionPtr returns a pointer to s. Handy in tests and literals.
func SessionPtr(s Session) *Session {
	return &s
}

// SessionKey flattens an optional session into a comparable map key. The
// empty string stands for "no session".
func SessionKey(s *Session) string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Question is one finalized prompt/answer span from a transcript.
type Question struct {
	// Year is the exam year from the most recent year header.
	Year int `json:"year" yaml:"year"`

	// Session is the normalized session label, nil when the year header had none.
	Session *Session `json:"session" yaml:"session"`

	// Opgave is the task number, explicit or auto-assigned.
	Opgave int `json:"opgave" yaml:"opgave"`

	// OpgaveTitle is the trimmed title from the opgave, topic or implicit heading.
	OpgaveTitle string `json:"opgave_title" yaml:"opgave_title"`

	// OpgaveIntro holds lead-in text shared by the lettered sub-questions.
	OpgaveIntro *string `json:"opgave_intro" yaml:"opgave_intro"`

	// Label is the lower-case sub-question letter, nil for unlabeled questions.
	Label *string `json:"label" yaml:"label"`

	Prompt  string   `json:"prompt" yaml:"prompt"`
	Answer  string   `json:"answer" yaml:"answer"`
	Sources []string `json:"sources" yaml:"sources"`
	Images  []string `json:"images" yaml:"images"`
}

// LabelString returns the label or "" when the question is unlabeled.
func (q *Question) LabelString() string {
	if q.Label == nil {
		return ""
	}
	return *q.Label
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// ImageFile describes a figure image whose name follows the
// <year>[syg]-<opgave>-<label>[<variant>] convention.
type ImageFile struct {
	// Name is the base file name, e.g. "2026-01-b1.jpg".
	Name string `json:"name" yaml:"name"`

	// Path is the path recorded on matched questions.
	Path string `json:"path" yaml:"path"`

	Year int `json:"year" yaml:"year"`

	// Session is SessionReExam when the name carries "syg", nil otherwise.
	Session *Session `json:"session" yaml:"session"`

	Opgave int    `json:"opgave" yaml:"opgave"`
	Label  string `json:"label" yaml:"label"`

	// Variant is the trailing number of a multi-image figure, nil if absent.
	Variant *int `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// Diagnostics collects non-fatal findings from image assignment. They are
// meant for human review, not for machine consumption.
type Diagnostics struct {
	// MissingImages lists questions that mention a figure but received no image.
	MissingImages []string `json:"missing_images" yaml:"missing_images"`

	// UnmatchedImages lists catalogued image names no question used.
	UnmatchedImages []string `json:"unmatched_images" yaml:"unmatched_images"`
}

// Empty reports whether there is nothing to review.
func (d Diagnostics) Empty() bool {
	return len(d.MissingImages) == 0 && len(d.UnmatchedImages) == 0
}
