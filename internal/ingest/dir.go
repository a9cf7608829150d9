package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// DirSource walks a flat directory of text files and yields one document
// per readable regular file, in byte-lexicographic path order, with
// contiguous docIds starting at 1. Re-running it against an unchanged
// directory produces identical docId assignments, extending the core's
// binary-determinism guarantee to the ingestion boundary.
//
// Files that cannot be read (permission errors, directories that slipped
// through the initial scan) are skipped and logged rather than aborting
// the run, mirroring the corrupted-input handling a directory-ingestion
// pipeline needs in practice.
type DirSource struct {
	paths  []string
	pos    int
	nextID int32
	logger *slog.Logger
}

// NewDirSource scans dir non-recursively and sorts its entries by raw path
// bytes (not locale-aware collation), matching the platform's own byte
// ordering for filenames.
func NewDirSource(dir string, logger *slog.Logger) (*DirSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return &DirSource{paths: paths, nextID: 1, logger: logger.With("component", "dir-source")}, nil
}

func (s *DirSource) Next(ctx context.Context) (Document, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Document{}, false, err
		}
		if s.pos >= len(s.paths) {
			return Document{}, false, nil
		}
		path := s.paths[s.pos]
		s.pos++

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}

		doc := Document{DocID: s.nextID, Text: string(data)}
		s.nextID++
		return doc, true, nil
	}
}
