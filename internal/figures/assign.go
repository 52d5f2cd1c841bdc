// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"fmt"
	"slices"

	"github.com/pdiddy/kortsvar/internal/transcript"
	"github.com/pdiddy/kortsvar/pkg/types"
)

// Resolver decides which catalogued images belong to each question and
// remembers which images were used.
type Resolver struct {
	cat       *Catalogue
	unlabeled map[groupKey]int
	used      map[string]bool
}

// NewResolver prepares a resolver for one question list. The list is
// needed up front because rule 2 looks at the unlabeled siblings of a
// question.
func NewResolver(cat *Catalogue, questions []types.Question) *Resolver {
	r := &Resolver{
		cat:       cat,
		unlabeled: make(map[groupKey]int),
		used:      make(map[string]bool),
	}
	for i := range questions {
		q := &questions[i]
		if q.Label == nil {
			r.unlabeled[groupKey{q.Year, types.SessionKey(q.Session), q.Opgave}]++
		}
	}
	return r
}

// Resolve returns the images for q. The first rule that yields anything
// wins:
//
//  1. a labeled question takes the images named for its label;
//  2. label "a" with nothing of its own takes the whole opgave group when
//     the opgave holds exactly one unlabeled question;
//  3. an unlabeled question takes the whole opgave group;
//  4. a question mentioning a figure takes the whole opgave group.
func (r *Resolver) Resolve(q *types.Question) []types.ImageFile {
	var images []types.ImageFile
	if q.Label != nil {
		images = r.cat.Lookup(q.Year, q.Session, q.Opgave, *q.Label)
		if len(images) == 0 && *q.Label == "a" &&
			r.unlabeled[groupKey{q.Year, types.SessionKey(q.Session), q.Opgave}] == 1 {
			images = r.cat.LookupGroup(q.Year, q.Session, q.Opgave)
		}
	} else {
		images = r.cat.LookupGroup(q.Year, q.Session, q.Opgave)
	}

	if len(images) == 0 && mentionsFigure(q) {
		images = r.cat.LookupGroup(q.Year, q.Session, q.Opgave)
	}
	return images
}

// Apply resolves q and appends the matched paths to q.Images, skipping
// paths already present.
func (r *Resolver) Apply(q *types.Question) {
	for _, img := range r.Resolve(q) {
		r.used[img.Name] = true
		if !slices.Contains(q.Images, img.Path) {
			q.Images = append(q.Images, img.Path)
		}
	}
}

// Diagnostics reports questions that mention a figure yet have no image,
// and catalogued images no question used, in listing order.
func (r *Resolver) Diagnostics(questions []types.Question) types.Diagnostics {
	diag := types.Diagnostics{
		MissingImages:   []string{},
		UnmatchedImages: []string{},
	}
	for i := range questions {
		q := &questions[i]
		if len(q.Images) == 0 && mentionsFigure(q) {
			diag.MissingImages = append(diag.MissingImages, MissingEntry(q))
		}
	}
	for _, img := range r.cat.Images() {
		if !r.used[img.Name] {
			diag.UnmatchedImages = append(diag.UnmatchedImages, img.Name)
		}
	}
	return diag
}

// Assign attaches images to every question in place and returns the
// review diagnostics.
func Assign(cat *Catalogue, questions []types.Question) types.Diagnostics {
	r := NewResolver(cat, questions)
	for i := range questions {
		if questions[i].Images == nil {
			questions[i].Images = []string{}
		}
		r.Apply(&questions[i])
	}
	return r.Diagnostics(questions)
}

// MissingEntry formats a question for the missing-images list, e.g.
// "2026 3b: Tegn en skitse af nyren.".
func MissingEntry(q *types.Question) string {
	return fmt.Sprintf("%d %d%s: %s", q.Year, q.Opgave, q.LabelString(), q.Prompt)
}

func mentionsFigure(q *types.Question) bool {
	return transcript.HasFigureCue(q.Prompt) || transcript.HasFigureCue(q.Answer)
}
