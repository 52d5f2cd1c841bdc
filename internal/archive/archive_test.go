// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kortsvar/internal/convert"
	"github.com/pdiddy/kortsvar/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	store, err := NewStore(types.ArchiveConfig{
		ArchiveDir: filepath.Join(tmpDir, "archive"),
		MaxResults: 20,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, tmpDir
}

func sampleRecords() []types.Record {
	return []types.Record{
		{
			Type: types.RecordType, Year: 2026, Category: "Hjerte-kredsløb",
			Opgave: 1, OpgaveTitle: "Hjertet", Label: types.StringPtr("a"),
			Prompt: "Beskriv hjertets faser.", Answer: "Systole og diastole.",
			Sources: []string{"Pensum s. 12"}, Images: []string{"billeder/opgaver/2026-01-a.jpg"},
		},
		{
			Type: types.RecordType, Year: 2026, Category: "Hjerte-kredsløb",
			Opgave: 1, OpgaveTitle: "Hjertet", Label: types.StringPtr("b"),
			Prompt: "Hvad er slagvolumen?", Answer: "Blodvolumen pr. hjerteslag.",
			Sources: []string{}, Images: []string{},
		},
		{
			Type: types.RecordType, Year: 2019, Session: types.SessionPtr(types.SessionReExam),
			Category: "Lunger", Opgave: 3, OpgaveTitle: "Respirationsfysiologi",
			OpgaveIntro: types.StringPtr("Om lungernes mekanik"),
			Prompt:      "Hvad er compliance?", Answer: "Lungens eftergivelighed.",
			Sources: []string{}, Images: []string{},
		},
	}
}

func writeDataset(t *testing.T, dir, name string, records []types.Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := convert.WriteDataset(path, records, convert.FormatFor(path, types.FormatJSON)); err != nil {
		t.Fatal(err)
	}
	return path
}

func ingest(t *testing.T, store *Store, paths ...string) (IngestSummary, string) {
	t.Helper()
	var buf strings.Builder
	summary, err := store.Ingest(context.Background(), paths, &buf)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return summary, buf.String()
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, tmpDir := testSetup(t)

	for _, table := range []string{"questions", "questions_fts", "ingest_status"} {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "archive", dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNewStoreReopens(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := types.ArchiveConfig{ArchiveDir: tmpDir}
	for i := 0; i < 2; i++ {
		store, err := NewStore(cfg)
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		store.Close()
	}
}

// --- ingest tests ---

func TestIngest(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeDataset(t, tmpDir, "kortsvar.json", sampleRecords())

	summary, out := ingest(t, store, path)
	if summary.Indexed != 1 || summary.Questions != 3 {
		t.Errorf("summary = %+v, want 1 indexed with 3 questions", summary)
	}
	if !strings.Contains(out, "indexing "+path+" (3 questions)") {
		t.Errorf("output %q missing indexing line", out)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestIngestSkipsUnchangedAndReplacesChanged(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeDataset(t, tmpDir, "kortsvar.json", sampleRecords())
	ingest(t, store, path)

	summary, out := ingest(t, store, path)
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if !strings.Contains(out, "skipped "+path) {
		t.Errorf("output %q missing skipped line", out)
	}

	writeDataset(t, tmpDir, "kortsvar.json", sampleRecords()[:1])
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	summary, _ = ingest(t, store, path)
	if summary.Updated != 1 {
		t.Errorf("Updated = %d, want 1", summary.Updated)
	}
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Count after update = %d, want 1", n)
	}
}

func TestIngestReportsFailures(t *testing.T) {
	store, tmpDir := testSetup(t)
	bad := filepath.Join(tmpDir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	good := writeDataset(t, tmpDir, "kortsvar.yaml", sampleRecords())

	summary, out := ingest(t, store, filepath.Join(tmpDir, "missing.json"), bad, good)
	if summary.Failed != 2 || summary.Indexed != 1 {
		t.Errorf("summary = %+v, want 2 failed and 1 indexed", summary)
	}
	if summary.Total() != 3 {
		t.Errorf("Total = %d, want 3", summary.Total())
	}
	if !strings.Contains(out, "failed  "+bad) {
		t.Errorf("output %q missing failure for %s", out, bad)
	}
	if !strings.Contains(out, "3 datasets: indexed: 1") {
		t.Errorf("output %q missing summary line", out)
	}
}

func checkFTSIntegrity(t *testing.T, store *Store) {
	t.Helper()
	if _, err := store.db.Exec(`INSERT INTO questions_fts(questions_fts, rank) VALUES('integrity-check', 1)`); err != nil {
		t.Fatalf("FTS integrity check: %v", err)
	}
}

func TestIngestSameQuestionsFromTwoDatasets(t *testing.T) {
	store, tmpDir := testSetup(t)
	records := sampleRecords()
	jsonPath := writeDataset(t, tmpDir, "kortsvar.json", records)
	yamlPath := writeDataset(t, tmpDir, "kortsvar.yaml", records)

	summary, _ := ingest(t, store, jsonPath, yamlPath)
	if summary.Indexed != 2 || summary.Questions != 6 {
		t.Errorf("summary = %+v, want 2 indexed with 6 questions", summary)
	}
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("Count = %d, want 6", n)
	}

	results, err := store.Retrieve(context.Background(), QueryOptions{Year: 2019})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Dataset == results[1].Dataset {
		t.Fatalf("results = %+v, want one row per dataset", results)
	}
	if results[0].ID != results[1].ID {
		t.Errorf("IDs %q and %q differ for the same question", results[0].ID, results[1].ID)
	}
	checkFTSIntegrity(t, store)

	// Re-ingesting one dataset leaves the other untouched.
	writeDataset(t, tmpDir, "kortsvar.json", records[:1])
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(jsonPath, later, later); err != nil {
		t.Fatal(err)
	}
	ingest(t, store, jsonPath)
	if n, _ := store.Count(context.Background()); n != 4 {
		t.Errorf("Count after update = %d, want 4", n)
	}
	checkFTSIntegrity(t, store)

	hits, err := store.Retrieve(context.Background(), QueryOptions{Query: "compliance"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || !strings.HasSuffix(hits[0].Dataset, "kortsvar.yaml") {
		t.Errorf("full-text hits = %+v, want only the YAML dataset", hits)
	}
}

func TestIngestKeepsDuplicateQuestions(t *testing.T) {
	store, tmpDir := testSetup(t)
	records := sampleRecords()
	dup := records[2]
	dup.Answer = "Et andet svar."
	records = append(records, dup)

	ingest(t, store, writeDataset(t, tmpDir, "kortsvar.json", records))
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
	checkFTSIntegrity(t, store)
}

func TestNewStoreRebuildsLegacySchema(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(tmpDir, dbFile))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`CREATE TABLE questions (id TEXT NOT NULL UNIQUE, dataset TEXT NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	store, err := NewStore(types.ArchiveConfig{ArchiveDir: tmpDir})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	path := writeDataset(t, tmpDir, "kortsvar.json", sampleRecords())
	summary, _ := ingest(t, store, path)
	if summary.Indexed != 1 {
		t.Errorf("summary = %+v, want 1 indexed", summary)
	}
	checkFTSIntegrity(t, store)
}

func TestIngestCancelled(t *testing.T) {
	store, tmpDir := testSetup(t)
	path := writeDataset(t, tmpDir, "kortsvar.json", sampleRecords())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Ingest(ctx, []string{path}, &strings.Builder{}); err == nil {
		t.Error("Ingest with cancelled context should fail")
	}
}

// --- retrieve tests ---

func TestRetrieveRoundTrip(t *testing.T) {
	store, tmpDir := testSetup(t)
	records := sampleRecords()
	ingest(t, store, writeDataset(t, tmpDir, "kortsvar.json", records))

	results, err := store.Retrieve(context.Background(), QueryOptions{Year: 2019})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	got := results[0]
	if got.ID != QuestionID(&records[2]) {
		t.Errorf("ID = %q, want %q", got.ID, QuestionID(&records[2]))
	}
	if got.Session == nil || *got.Session != types.SessionReExam {
		t.Errorf("Session = %v, want sygeeksamen", got.Session)
	}
	if got.OpgaveIntro == nil || *got.OpgaveIntro != "Om lungernes mekanik" {
		t.Errorf("OpgaveIntro = %v", got.OpgaveIntro)
	}
	if got.Label != nil {
		t.Errorf("Label = %q, want nil", *got.Label)
	}
	if got.Type != types.RecordType {
		t.Errorf("Type = %q, want %q", got.Type, types.RecordType)
	}
}

func TestRetrieveFilters(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingest(t, store, writeDataset(t, tmpDir, "kortsvar.json", sampleRecords()))

	tests := []struct {
		name       string
		opts       QueryOptions
		wantPrompt []string
	}{
		{"all in exam order", QueryOptions{}, []string{
			"Hvad er compliance?", "Beskriv hjertets faser.", "Hvad er slagvolumen?",
		}},
		{"category", QueryOptions{Category: "Lunger"}, []string{"Hvad er compliance?"}},
		{"opgave and label", QueryOptions{Opgave: 1, Label: "B"}, []string{"Hvad er slagvolumen?"}},
		{"full text", QueryOptions{Query: "diastole"}, []string{"Beskriv hjertets faser."}},
		{"full text with filter", QueryOptions{Query: "hvad", Year: 2026}, []string{"Hvad er slagvolumen?"}},
		{"max results", QueryOptions{MaxResults: 1}, []string{"Hvad er compliance?"}},
		{"no match", QueryOptions{Year: 1999}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Retrieve(context.Background(), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			var prompts []string
			for _, r := range results {
				prompts = append(prompts, r.Prompt)
			}
			if strings.Join(prompts, "|") != strings.Join(tt.wantPrompt, "|") {
				t.Errorf("prompts = %q, want %q", prompts, tt.wantPrompt)
			}
		})
	}
}

func TestQuestionIDStable(t *testing.T) {
	records := sampleRecords()
	a, b := QuestionID(&records[0]), QuestionID(&records[0])
	if a != b || len(a) != 12 {
		t.Errorf("QuestionID = %q / %q, want equal 12-char IDs", a, b)
	}
	if QuestionID(&records[0]) == QuestionID(&records[1]) {
		t.Error("different questions share an ID")
	}
}

func TestQueryOptionsIsEmpty(t *testing.T) {
	if !(QueryOptions{MaxResults: 5}).IsEmpty() {
		t.Error("MaxResults alone should count as empty")
	}
	if (QueryOptions{Category: "Lunger"}).IsEmpty() {
		t.Error("category filter should not be empty")
	}
}

// --- export tests ---

func TestExport(t *testing.T) {
	store, tmpDir := testSetup(t)
	ingest(t, store, writeDataset(t, tmpDir, "kortsvar.json", sampleRecords()))
	ctx := context.Background()

	yamlPath, err := store.ExportYAML(ctx, QueryOptions{Category: "Hjerte-kredsløb"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML []QueryResult
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if len(fromYAML) != 2 || fromYAML[0].Prompt != "Beskriv hjertets faser." {
		t.Errorf("YAML export = %+v", fromYAML)
	}

	jsonPath, err := store.ExportJSON(ctx, QueryOptions{Year: 1999})
	if err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("empty JSON export = %q, want []", data)
	}

	jsonPath, err = store.ExportJSON(ctx, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(jsonPath)
	var fromJSON []map[string]any
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if len(fromJSON) != 3 || fromJSON[0]["opgaveTitle"] != "Respirationsfysiologi" {
		t.Errorf("JSON export = %v", fromJSON)
	}
}
