// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive keeps converted kortsvar datasets in a SQLite database
// with a full-text index over prompts and answers, so earlier years can be
// searched and exported by year, category and opgave.
//
// The full-text index needs SQLite's FTS5 module, which mattn/go-sqlite3
// only compiles in with the sqlite_fts5 build tag:
//
//	go build -tags sqlite_fts5 ./...
//	go test -tags sqlite_fts5 ./...
package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/kortsvar/internal/convert"
	"github.com/pdiddy/kortsvar/pkg/types"
)

const (
	dbFile            = "kortsvar.db"
	defaultMaxResults = 20

	// schemaVersion is stored in PRAGMA user_version. An archive written
	// with an older layout is rebuilt; datasets are re-ingested on demand.
	schemaVersion = 2
)

// ErrNoFTS5 is returned by NewStore when the SQLite driver was built
// without the FTS5 module.
var ErrNoFTS5 = errors.New("sqlite has no FTS5 module: build with -tags sqlite_fts5")

// Store manages the archive SQLite database.
type Store struct {
	db         *sql.DB
	archiveDir string
	maxResults int
}

// NewStore opens or creates archiveDir/kortsvar.db and its schema.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.ArchiveDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, archiveDir: cfg.ArchiveDir, maxResults: maxResults}
	if err := s.checkFTS5(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) checkFTS5() error {
	var enabled int
	if err := s.db.QueryRow(`SELECT sqlite_compileoption_used('ENABLE_FTS5')`).Scan(&enabled); err != nil {
		return fmt.Errorf("checking FTS5 support: %w", err)
	}
	if enabled == 0 {
		return ErrNoFTS5
	}
	return nil
}

// dropLegacySchema removes tables written by an older layout so
// createSchema can rebuild them.
func (s *Store) dropLegacySchema() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	for _, stmt := range []string{
		`DROP TRIGGER IF EXISTS questions_ai`,
		`DROP TRIGGER IF EXISTS questions_ad`,
		`DROP TRIGGER IF EXISTS questions_au`,
		`DROP TABLE IF EXISTS questions_fts`,
		`DROP TABLE IF EXISTS questions`,
		`DROP TABLE IF EXISTS ingest_status`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("dropping legacy schema: %w", err)
		}
	}
	return nil
}

func (s *Store) createSchema() error {
	if err := s.dropLegacySchema(); err != nil {
		return err
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			position INTEGER NOT NULL,
			year INTEGER NOT NULL,
			session TEXT,
			category TEXT NOT NULL,
			opgave INTEGER NOT NULL,
			opgave_title TEXT NOT NULL,
			opgave_intro TEXT,
			label TEXT,
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			sources TEXT,
			images TEXT,
			UNIQUE(dataset, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_id ON questions(id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_year ON questions(year)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_dataset ON questions(dataset)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			dataset TEXT PRIMARY KEY,
			file_mod_time TEXT,
			question_count INTEGER
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='questions_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return s.setSchemaVersion()
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE questions_fts USING fts5(prompt, answer, content=questions, content_rowid=rowid)`,
		`CREATE TRIGGER questions_ai AFTER INSERT ON questions BEGIN
			INSERT INTO questions_fts(rowid, prompt, answer) VALUES (new.rowid, new.prompt, new.answer);
		END`,
		`CREATE TRIGGER questions_ad AFTER DELETE ON questions BEGIN
			INSERT INTO questions_fts(questions_fts, rowid, prompt, answer) VALUES('delete', old.rowid, old.prompt, old.answer);
		END`,
		`CREATE TRIGGER questions_au AFTER UPDATE ON questions BEGIN
			INSERT INTO questions_fts(questions_fts, rowid, prompt, answer) VALUES('delete', old.rowid, old.prompt, old.answer);
			INSERT INTO questions_fts(rowid, prompt, answer) VALUES (new.rowid, new.prompt, new.answer);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return s.setSchemaVersion()
}

func (s *Store) setSchemaVersion() error {
	if _, err := s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return nil
}

// QuestionID derives a stable ID from the fields that identify a question:
// the first 12 hex characters of SHA-256 over year, session, opgave, label
// and prompt. The same question archived from two datasets shares its ID;
// rows themselves are keyed by dataset and position.
func QuestionID(r *types.Record) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(r.Year)))
	h.Write([]byte{0})
	h.Write([]byte(types.SessionKey(r.Session)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(r.Opgave)))
	h.Write([]byte{0})
	h.Write([]byte(r.LabelString()))
	h.Write([]byte{0})
	h.Write([]byte(r.Prompt))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Indexed   int
	Updated   int
	Skipped   int
	Failed    int
	Questions int
}

// Total returns the number of datasets processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest loads each dataset file into the archive. A dataset whose
// modification time matches the last ingest is skipped; a changed one
// replaces its earlier questions. Per-dataset failures are reported to w
// and counted; they do not stop the run.
func (s *Store) Ingest(ctx context.Context, paths []string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		dataset, err := filepath.Abs(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		info, err := os.Stat(dataset)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE dataset = ?`, dataset,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		records, err := convert.ReadDataset(dataset)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if err := s.ingestDataset(ctx, dataset, records, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		summary.Questions += len(records)
		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d questions)\n", path, len(records))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d questions)\n", path, len(records))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\n%d datasets: indexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Total(), summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestDataset(ctx context.Context, dataset string, records []types.Record, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE dataset = ?`, dataset); err != nil {
		return fmt.Errorf("deleting old questions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO questions
			(id, dataset, position, year, session, category, opgave, opgave_title, opgave_intro,
			 label, prompt, answer, sources, images)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		sourcesJSON, _ := json.Marshal(nonNil(r.Sources))
		imagesJSON, _ := json.Marshal(nonNil(r.Images))
		id := QuestionID(r)
		_, err := stmt.ExecContext(ctx,
			id, dataset, i, r.Year, nullable((*string)(r.Session)), r.Category,
			r.Opgave, r.OpgaveTitle, nullable(r.OpgaveIntro), nullable(r.Label),
			r.Prompt, r.Answer, string(sourcesJSON), string(imagesJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting question %s: %w", id, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (dataset, file_mod_time, question_count) VALUES (?, ?, ?)
		 ON CONFLICT(dataset) DO UPDATE SET
			file_mod_time=excluded.file_mod_time, question_count=excluded.question_count`,
		dataset, modTime, len(records),
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
