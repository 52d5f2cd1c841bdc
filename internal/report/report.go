// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes a review workbook for a converted dataset so that
// editors can check categories, answers and figure matches in a
// spreadsheet.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// Sheet names in the workbook.
const (
	SheetQuestions = "Questions"
	SheetMissing   = "Missing images"
	SheetUnmatched = "Unmatched images"
)

var questionHeader = []any{
	"Year", "Session", "Category", "Opgave", "Title", "Label",
	"Prompt", "Answer", "Sources", "Images",
}

// WriteWorkbook writes records and diagnostics to an XLSX file at path,
// creating parent directories as needed.
func WriteWorkbook(path string, records []types.Record, diag types.Diagnostics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetQuestions); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := setRow(f, SheetQuestions, 1, questionHeader); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{
			r.Year,
			types.SessionKey(r.Session),
			r.Category,
			r.Opgave,
			r.OpgaveTitle,
			r.LabelString(),
			r.Prompt,
			r.Answer,
			strings.Join(r.Sources, "\n"),
			strings.Join(r.Images, "\n"),
		}
		if err := setRow(f, SheetQuestions, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetQuestions, "G", "H", 60); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if err := writeList(f, SheetMissing, "Question", diag.MissingImages); err != nil {
		return err
	}
	if err := writeList(f, SheetUnmatched, "Image", diag.UnmatchedImages); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func writeList(f *excelize.File, sheet, header string, items []string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("adding sheet %s: %w", sheet, err)
	}
	if err := setRow(f, sheet, 1, []any{header}); err != nil {
		return err
	}
	for i, item := range items {
		if err := setRow(f, sheet, i+2, []any{item}); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
