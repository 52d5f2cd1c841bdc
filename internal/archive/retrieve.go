// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/kortsvar/pkg/types"
)

// QueryOptions holds parameters for archive queries.
type QueryOptions struct {
	// Query is an FTS5 search over prompts and answers.
	Query string

	// Year filters by exam year. Zero means any year.
	Year int

	// Category filters by canonical category.
	Category string

	// Opgave filters by opgave number. Zero means any opgave.
	Opgave int

	// Label filters by sub-question letter.
	Label string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Year == 0 && q.Category == "" && q.Opgave == 0 && q.Label == ""
}

// QueryResult is an archived record with its stable ID and the dataset it
// came from.
type QueryResult struct {
	ID      string `json:"id" yaml:"id"`
	Dataset string `json:"dataset" yaml:"dataset"`
	types.Record `yaml:",inline"`
}

// Retrieve queries the archive. Full-text queries are ranked by relevance;
// filter-only queries come back in exam order (year, session, opgave,
// label).
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	const columns = `q.id, q.dataset, q.year, q.session, q.category, q.opgave,
		q.opgave_title, q.opgave_intro, q.label, q.prompt, q.answer, q.sources, q.images`

	if useFTS {
		qb.WriteString(`SELECT ` + columns + `
			FROM questions_fts
			JOIN questions q ON q.rowid = questions_fts.rowid
			WHERE questions_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(`SELECT ` + columns + `
			FROM questions q
			WHERE 1=1`)
	}

	if opts.Year != 0 {
		qb.WriteString(` AND q.year = ?`)
		args = append(args, opts.Year)
	}
	if opts.Category != "" {
		qb.WriteString(` AND q.category = ?`)
		args = append(args, opts.Category)
	}
	if opts.Opgave != 0 {
		qb.WriteString(` AND q.opgave = ?`)
		args = append(args, opts.Opgave)
	}
	if opts.Label != "" {
		qb.WriteString(` AND q.label = ?`)
		args = append(args, strings.ToLower(opts.Label))
	}

	if useFTS {
		qb.WriteString(` ORDER BY questions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY q.year, q.session, q.opgave, q.label, q.rowid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr          QueryResult
			session     sql.NullString
			intro       sql.NullString
			label       sql.NullString
			sourcesJSON sql.NullString
			imagesJSON  sql.NullString
		)
		if err := rows.Scan(
			&qr.ID, &qr.Dataset, &qr.Year, &session, &qr.Category, &qr.Opgave,
			&qr.OpgaveTitle, &intro, &label, &qr.Prompt, &qr.Answer,
			&sourcesJSON, &imagesJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		qr.Type = types.RecordType
		if session.Valid {
			qr.Session = types.SessionPtr(types.Session(session.String))
		}
		if intro.Valid {
			qr.OpgaveIntro = types.StringPtr(intro.String)
		}
		if label.Valid {
			qr.Label = types.StringPtr(label.String)
		}
		qr.Sources = []string{}
		qr.Images = []string{}
		if sourcesJSON.Valid {
			json.Unmarshal([]byte(sourcesJSON.String), &qr.Sources)
		}
		if imagesJSON.Valid {
			json.Unmarshal([]byte(imagesJSON.String), &qr.Images)
		}

		results = append(results, qr)
	}

	return results, rows.Err()
}

// Count returns the number of archived questions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting questions: %w", err)
	}
	return n, nil
}
