// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns a kortsvar transcript and its image directory into
// the structured question dataset. Convert is the pure core; Run adds the
// file system around it and Watch repeats Run on changes.
package convert

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/kortsvar/internal/category"
	"github.com/pdiddy/kortsvar/internal/figures"
	"github.com/pdiddy/kortsvar/internal/report"
	"github.com/pdiddy/kortsvar/internal/transcript"
	"github.com/pdiddy/kortsvar/pkg/types"
)

// defaultMaxListed caps each diagnostic list in the summary.
const defaultMaxListed = 20

// Result holds the outcome of one conversion.
type Result struct {
	Questions   []types.Question
	Records     []types.Record
	Diagnostics types.Diagnostics
	// Years are the distinct exam years, ascending.
	Years []int
	// Backfilled counts questions that inherited a sibling's answer.
	Backfilled int
	// Catalogued counts image files that follow the naming convention.
	Catalogued int
}

// Convert parses text, backfills answers, attaches images from the named
// files and builds records. imagePrefix is recorded in front of every image
// name. It performs no I/O.
func Convert(text, imagePrefix string, imageNames []string, cats *category.Normalizer) (*Result, error) {
	questions, err := transcript.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}
	filled := transcript.Backfill(questions)
	cat := figures.BuildCatalogue(imagePrefix, imageNames)
	diag := figures.Assign(cat, questions)

	records, err := BuildRecords(questions, cats)
	if err != nil {
		return nil, err
	}

	return &Result{
		Questions:   questions,
		Records:     records,
		Diagnostics: diag,
		Years:       distinctYears(questions),
		Backfilled:  filled,
		Catalogued:  cat.Len(),
	}, nil
}

// BuildRecords pairs each question with its normalized category. The first
// title that cannot be normalized aborts the build.
func BuildRecords(questions []types.Question, cats *category.Normalizer) ([]types.Record, error) {
	records := make([]types.Record, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		cat, err := cats.ForQuestion(q)
		if err != nil {
			return nil, err
		}
		records = append(records, types.Record{
			Type:        types.RecordType,
			Year:        q.Year,
			Session:     q.Session,
			Category:    cat,
			Opgave:      q.Opgave,
			OpgaveTitle: q.OpgaveTitle,
			OpgaveIntro: q.OpgaveIntro,
			Label:       q.Label,
			Prompt:      q.Prompt,
			Answer:      q.Answer,
			Sources:     nonNil(q.Sources),
			Images:      nonNil(q.Images),
		})
	}
	return records, nil
}

// Run converts cfg.InputPath using the images in cfg.ImagesDir, writes the
// dataset (and the review workbook when configured) and prints a summary
// to w.
func Run(ctx context.Context, cfg types.ConvertConfig, w io.Writer) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := ReadTranscript(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	names, err := ListImages(cfg.ImagesDir)
	if err != nil {
		return nil, err
	}
	prefix, err := ImagePrefix(cfg.ImagesDir, cfg.RootDir)
	if err != nil {
		return nil, err
	}
	cats, err := category.LoadFile(cfg.AliasesPath)
	if err != nil {
		return nil, err
	}

	res, err := Convert(text, prefix, names, cats)
	if err != nil {
		return nil, err
	}

	format := cfg.Format
	if format == "" {
		format = FormatFor(cfg.OutputPath, types.FormatJSON)
	}
	if err := WriteDataset(cfg.OutputPath, res.Records, format); err != nil {
		return nil, err
	}
	if cfg.ReportPath != "" {
		if err := report.WriteWorkbook(cfg.ReportPath, res.Records, res.Diagnostics); err != nil {
			return nil, err
		}
	}

	PrintSummary(w, res, cfg)
	return res, nil
}

// PrintSummary writes the question count, the years, the output location
// and the capped diagnostic lists.
func PrintSummary(w io.Writer, res *Result, cfg types.ConvertConfig) {
	years := make([]string, len(res.Years))
	for i, y := range res.Years {
		years[i] = fmt.Sprint(y)
	}
	fmt.Fprintf(w, "Parsed %d kortsvar questions across %d years: %s\n",
		len(res.Records), len(res.Years), strings.Join(years, ", "))
	if res.Backfilled > 0 {
		fmt.Fprintf(w, "Backfilled %d answers from sibling questions\n", res.Backfilled)
	}
	fmt.Fprintf(w, "Saved structured data to %s\n", cfg.OutputPath)
	if cfg.ReportPath != "" {
		fmt.Fprintf(w, "Saved review workbook to %s\n", cfg.ReportPath)
	}

	if res.Catalogued > 0 {
		fmt.Fprintf(w, "Matched %d of %d figure images\n",
			res.Catalogued-len(res.Diagnostics.UnmatchedImages), res.Catalogued)
	}
	if res.Diagnostics.Empty() {
		fmt.Fprintln(w, "Nothing to review: all figure references and images matched")
		return
	}

	limit := cfg.MaxListed
	if limit <= 0 {
		limit = defaultMaxListed
	}
	printList(w, "Questions referencing figures without matched images:", res.Diagnostics.MissingImages, limit)
	printList(w, "Images without matching question:", res.Diagnostics.UnmatchedImages, limit)
}

func printList(w io.Writer, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for i, item := range items {
		if i == limit {
			fmt.Fprintf(w, "... and %d more\n", len(items)-limit)
			break
		}
		fmt.Fprintf(w, "- %s\n", item)
	}
}

func distinctYears(questions []types.Question) []int {
	seen := make(map[int]bool)
	var years []int
	for _, q := range questions {
		if !seen[q.Year] {
			seen[q.Year] = true
			years = append(years, q.Year)
		}
	}
	sort.Ints(years)
	return years
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
