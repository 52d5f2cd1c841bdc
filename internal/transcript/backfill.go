// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"strings"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// groupKey identifies sibling sub-questions of one opgave.
type groupKey struct {
	year    int
	session string
	opgave  int
	title   string
}

// Backfill copies the answer of a uniquely answered sibling onto its
// unanswered siblings. Siblings share year, session, opgave and opgave
// title. A sibling without sources of its own also receives a copy of the
// donor's sources. Groups with no answer or several answers are untouched.
// It returns the number of questions that received an answer.
func Backfill(questions []types.Question) int {
	groups := make(map[groupKey][]int)
	for i := range questions {
		q := &questions[i]
		key := groupKey{q.Year, types.SessionKey(q.Session), q.Opgave, q.OpgaveTitle}
		groups[key] = append(groups[key], i)
	}

	filled := 0
	for _, members := range groups {
		donor := -1
		answered := 0
		for _, i := range members {
			if strings.TrimSpace(questions[i].Answer) != "" {
				donor = i
				answered++
			}
		}
		if answered != 1 {
			continue
		}
		src := &questions[donor]
		for _, i := range members {
			q := &questions[i]
			if strings.TrimSpace(q.Answer) != "" {
				continue
			}
			q.Answer = src.Answer
			if len(q.Sources) == 0 && len(src.Sources) > 0 {
				q.Sources = append([]string(nil), src.Sources...)
			}
			filled++
		}
	}
	return filled
}
