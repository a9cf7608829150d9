// Package ingest drives documents from an external source into the search
// core's Sink (normally an *internal/fulltext/service.Service) during the
// offline build step. Each source implementation is responsible for its own
// determinism and error reporting; callers drive the loop via Run.
package ingest

import (
	"context"
	"log/slog"
)

// Sink accepts documents. internal/fulltext/service.Service satisfies this.
type Sink interface {
	AddDocument(docID int32, text string) error
}

// Document is one (docId, text) pair produced by a Source.
type Document struct {
	DocID int32
	Text  string
}

// Source yields documents to be indexed. Next returns (Document{}, false,
// nil) once exhausted, or a non-nil error if the source itself failed in a
// way that should abort ingestion (as opposed to a single bad document,
// which a Source should skip and log rather than fail the whole run).
type Source interface {
	Next(ctx context.Context) (Document, bool, error)
}

// Stats summarises one Run.
type Stats struct {
	Added   int
	Skipped int
}

// Run drains src into sink, adding every document it yields. Duplicate
// docIds are logged and counted as skipped rather than aborting the run.
func Run(ctx context.Context, src Source, sink Sink, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats Stats
	for {
		doc, ok, err := src.Next(ctx)
		if err != nil {
			return stats, err
		}
		if !ok {
			return stats, nil
		}
		if err := validateDocument(doc); err != nil {
			logger.Warn("skipping document", "doc_id", doc.DocID, "error", err)
			stats.Skipped++
			continue
		}
		if err := sink.AddDocument(doc.DocID, doc.Text); err != nil {
			logger.Warn("skipping document", "doc_id", doc.DocID, "error", err)
			stats.Skipped++
			continue
		}
		stats.Added++
	}
}
