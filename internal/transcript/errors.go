// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"errors"
	"fmt"
)

// ErrStructure is wrapped by every StructuralParseError.
var ErrStructure = errors.New("transcript: malformed structure")

// StructuralParseError reports question content that appears outside the
// year or opgave context it needs. The transcript must be fixed at the
// source; no partial result accompanies this error.
type StructuralParseError struct {
	// Line is the 1-based line at which the question was finalized.
	Line int
	// Year is the current year context, nil before any year header.
	Year *int
	// Opgave is the current opgave context, nil before any opgave header.
	Opgave *int
	Reason string
}

func (e *StructuralParseError) Error() string {
	where := "no year"
	if e.Year != nil {
		where = fmt.Sprintf("year %d", *e.Year)
	}
	if e.Opgave != nil {
		where += fmt.Sprintf(", opgave %d", *e.Opgave)
	} else {
		where += ", no opgave"
	}
	return fmt.Sprintf("line %d: %s (%s)", e.Line, e.Reason, where)
}

func (e *StructuralParseError) Unwrap() error {
	return ErrStructure
}
