// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript turns a hand-maintained kortsvar transcript into an
// ordered list of questions. The transcript has no formal grammar: headers,
// lettered sub-questions, multi-paragraph answers, citations and unmarked
// section headings are told apart by line shape and one line of lookahead.
package transcript

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the shape of a single transcript line.
type Kind int

const (
	KindBlank Kind = iota
	KindYear
	KindOpgave
	KindTopic
	KindHeading
	KindSubQuestion
	KindLettered
	KindReference
	KindText
)

var kindNames = [...]string{
	KindBlank:       "blank",
	KindYear:        "year",
	KindOpgave:      "opgave",
	KindTopic:       "topic",
	KindHeading:     "heading",
	KindSubQuestion: "underspørgsmål",
	KindLettered:    "lettered",
	KindReference:   "reference",
	KindText:        "text",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	yearRe        = regexp.MustCompile(`^(\d{4})(?:\s*(?:[-–]\s*|\s+)(.*\S.*))?\s*$`)
	opgaveRe      = regexp.MustCompile(`(?i)^Opgave\s+(\d+)\.?\s*(.*)$`)
	topicRe       = regexp.MustCompile(`(?i)^Hovedemne\s+(\d+)\s*[:–-]\s*(.*)$`)
	letteredRe    = regexp.MustCompile(`^([A-Za-z])\)\s*(.*)$`)
	subQuestionRe = regexp.MustCompile(`(?i)^Underspørgsmål\s+(\d+)\s*[-–]\s*(?:([A-Za-z])\)\s*)?(.*)$`)
	referenceRe   = regexp.MustCompile(`(?i)^(Pensum:|\(?P\.|\(?Fig\.|Fig\.|Figurer|Figur|p\.|P\.)`)

	// figureCueRe matches words that point the reader at a figure.
	figureCueRe = regexp.MustCompile(`(?i)\b(figur|figurer|skitse|tegning|diagram|illustration)\b`)
)

// reservedPrefixes never start an implicit heading.
var reservedPrefixes = []string{"opgave", "svar", "pensum", "underspørgsmål", "hovedemne"}

// Line is one classified transcript line. Only the fields relevant to Kind
// are set.
type Line struct {
	// Raw is the line as read, indentation included.
	Raw string
	// Text is the line with surrounding whitespace removed.
	Text string
	Kind Kind

	// Year and Session come from a year header.
	Year    int
	Session string

	// Number and Title come from opgave, topic and underspørgsmål headers.
	Number int
	Title  string

	// Label and Rest come from lettered and underspørgsmål lines.
	Label string
	Rest  string

	// Citation is the source text of a reference line. It may be empty
	// ("Kilde:" with nothing after it).
	Citation string
}

// Classify assigns a line to the first matching shape, in priority order:
// year header, opgave header, topic header, implicit heading,
// underspørgsmål, lettered sub-question, reference, text.
func Classify(raw string) Line {
	text := strings.TrimSpace(raw)
	l := Line{Raw: raw, Text: text}

	if text == "" {
		l.Kind = KindBlank
		return l
	}

	if m := yearRe.FindStringSubmatch(text); m != nil {
		l.Kind = KindYear
		l.Year, _ = strconv.Atoi(m[1])
		l.Session = m[2]
		return l
	}

	if m := opgaveRe.FindStringSubmatch(text); m != nil {
		l.Kind = KindOpgave
		l.Number, _ = strconv.Atoi(m[1])
		l.Title = strings.TrimSpace(m[2])
		if l.Title == "" {
			l.Title = "Opgave " + m[1]
		}
		return l
	}

	if m := topicRe.FindStringSubmatch(text); m != nil {
		l.Kind = KindTopic
		l.Number, _ = strconv.Atoi(m[1])
		l.Title = strings.TrimSpace(m[2])
		if l.Title == "" {
			l.Title = "Hovedemne " + m[1]
		}
		return l
	}

	if IsHeading(text) {
		l.Kind = KindHeading
		l.Title = text
		return l
	}

	if m := subQuestionRe.FindStringSubmatch(text); m != nil {
		l.Kind = KindSubQuestion
		l.Number, _ = strconv.Atoi(m[1])
		l.Label = m[2]
		l.Rest = strings.TrimSpace(m[3])
		return l
	}

	if m := letteredRe.FindStringSubmatch(text); m != nil {
		l.Kind = KindLettered
		l.Label = m[1]
		l.Rest = strings.TrimSpace(m[2])
		return l
	}

	if citation, ok := Reference(text); ok {
		l.Kind = KindReference
		l.Citation = citation
		return l
	}

	l.Kind = KindText
	return l
}

// IsLettered reports whether a stripped line opens a lettered sub-question.
func IsLettered(text string) bool {
	return letteredRe.MatchString(text)
}

// IsHeading reports whether a stripped line reads as an unmarked section
// heading: short descriptive text that is not a keyword line, citation,
// parenthetical or sub-question and does not end like a sentence or lead-in.
func IsHeading(text string) bool {
	if text == "" {
		return false
	}
	lowered := strings.ToLower(text)
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(lowered, p) {
			return false
		}
	}
	if citation, ok := Reference(text); ok && citation != "" {
		return false
	}
	if isParenthesized(text) {
		return false
	}
	if letteredRe.MatchString(text) {
		return false
	}
	if strings.HasSuffix(text, ":") || strings.HasSuffix(text, ".") || strings.HasSuffix(text, "?") {
		return false
	}
	return true
}

// Reference extracts the citation from a reference line. The boolean is
// false when the line is not a reference; the citation may still be empty
// for a bare "Kilde:" line.
func Reference(text string) (string, bool) {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return "", false
	}
	lowered := strings.ToLower(stripped)
	if strings.HasPrefix(lowered, "kilde:") {
		_, after, _ := strings.Cut(stripped, ":")
		return strings.TrimSpace(after), true
	}
	if strings.HasPrefix(lowered, "pensum:") || referenceRe.MatchString(stripped) {
		return stripped, true
	}
	if isParenthesized(stripped) {
		if strings.Contains(lowered, "p.") || strings.Contains(lowered, "side") || strings.Contains(lowered, "fig") {
			return stripped, true
		}
	}
	return "", false
}

// HasFigureCue reports whether text mentions a figure, sketch, drawing,
// diagram or illustration.
func HasFigureCue(text string) bool {
	return figureCueRe.MatchString(text)
}

func isParenthesized(text string) bool {
	return strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")")
}

// answerMarker reports whether the line is indented or opens with "Svar:".
func answerMarker(raw, text string) bool {
	if strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(text), "svar:")
}

// stripAnswerMarker removes a leading "Svar:" marker.
func stripAnswerMarker(text string) string {
	if strings.HasPrefix(strings.ToLower(text), "svar:") {
		_, after, _ := strings.Cut(text, ":")
		return strings.TrimSpace(after)
	}
	return text
}

// collapseSpaces joins runs of whitespace into single spaces and trims.
func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
