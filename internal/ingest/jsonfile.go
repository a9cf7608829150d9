package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// jsonRecord mirrors the on-disk document-source contract: a JSON array of
// {"docId": int, "text": string} objects.
type jsonRecord struct {
	DocID int32  `json:"docId"`
	Text  string `json:"text"`
}

// JSONFileSource reads a single JSON file holding an array of documents.
type JSONFileSource struct {
	records []jsonRecord
	pos     int
}

// NewJSONFileSource parses path eagerly so malformed input fails fast,
// before any document has been added to the sink.
func NewJSONFileSource(path string) (*JSONFileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &JSONFileSource{records: records}, nil
}

func (s *JSONFileSource) Next(ctx context.Context) (Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, false, err
	}
	if s.pos >= len(s.records) {
		return Document{}, false, nil
	}
	rec := s.records[s.pos]
	s.pos++
	return Document{DocID: rec.DocID, Text: rec.Text}, true, nil
}
