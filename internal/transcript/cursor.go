// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import "strings"

// Cursor walks transcript lines in order and can peek at the next
// non-blank line without consuming it.
type Cursor struct {
	lines []string
	pos   int // index of the next line Next returns
}

// NewCursor splits text into lines. CRLF line endings are accepted.
func NewCursor(text string) *Cursor {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return &Cursor{lines: lines}
}

// Next returns the next raw line. ok is false at end of input.
func (c *Cursor) Next() (line string, ok bool) {
	if c.pos >= len(c.lines) {
		return "", false
	}
	line = c.lines[c.pos]
	c.pos++
	return line, true
}

// LineNumber is the 1-based number of the line most recently returned by Next.
func (c *Cursor) LineNumber() int {
	return c.pos
}

// PeekNextNonBlank returns the stripped text of the first non-blank line
// after the current one, or false if only blank lines remain.
func (c *Cursor) PeekNextNonBlank() (string, bool) {
	for i := c.pos; i < len(c.lines); i++ {
		if text := strings.TrimSpace(c.lines[i]); text != "" {
			return text, true
		}
	}
	return "", false
}
