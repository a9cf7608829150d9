package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventIndexDoc   EventType = "index_document"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent records one query against the single-node search core: what
// was asked, how many results came back, and how long it took.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID int32     `json:"document_id"`
	TokenCount int       `json:"token_count"`
	SizeBytes  int       `json:"size_bytes"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
