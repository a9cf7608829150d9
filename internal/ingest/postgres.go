package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ksedova/fulltext/pkg/postgres"
)

// PostgresSource reads documents from a `documents` table (columns doc_id,
// body) ordered by doc_id, driving the offline builder from a relational
// store instead of a flat file.
type PostgresSource struct {
	rows *sql.Rows
}

// NewPostgresSource runs the source query eagerly and streams results via
// Next as the caller drains them.
func NewPostgresSource(ctx context.Context, db *postgres.Client) (*PostgresSource, error) {
	rows, err := db.DB.QueryContext(ctx, `SELECT doc_id, body FROM documents ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	return &PostgresSource{rows: rows}, nil
}

func (s *PostgresSource) Next(ctx context.Context) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, false, err
	}
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return Document{}, false, fmt.Errorf("reading documents: %w", err)
		}
		return Document{}, false, s.rows.Close()
	}
	var doc Document
	if err := s.rows.Scan(&doc.DocID, &doc.Text); err != nil {
		return Document{}, false, fmt.Errorf("scanning document row: %w", err)
	}
	return doc, true, nil
}
