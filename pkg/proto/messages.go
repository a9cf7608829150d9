// Package proto defines the message types exchanged over the search
// service's internal RPC facade (see pkg/grpc, internal/rpcapi).
//
// These are hand-written, JSON-tagged types for the platform's lightweight
// JSON-over-TCP RPC layer rather than generated Protocol Buffer stubs.
//
// Example server:
//
//	s := grpc.NewServer()
//	s.Register("SearchService.Search", func(ctx context.Context, req json.RawMessage) (any, error) {
//	    var searchReq proto.SearchRequest
//	    json.Unmarshal(req, &searchReq)
//	    // ... execute search ...
//	    return &proto.SearchResponse{...}, nil
//	})
//	s.Serve(":9000")
//
// Example client:
//
//	c, _ := grpc.Dial("localhost:9000")
//	var resp proto.SearchResponse
//	c.Call("SearchService.Search", &proto.SearchRequest{Query: "hello"}, &resp)
package proto

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Search ----------

// SearchRequest is the input to the Search RPC.
type SearchRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"` // ids, scored, snippets
	Limit int32  `json:"limit"`
}

// SearchResponse is the output of the Search RPC.
type SearchResponse struct {
	Query     string         `json:"query"`
	TotalHits int32          `json:"total_hits"`
	Results   []SearchResult `json:"results"`
	LatencyMs int64          `json:"latency_ms"`
}

// SearchResult is a single scored document in the result set.
type SearchResult struct {
	DocID   int32   `json:"doc_id"`
	Score   float32 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

// ---------- Index ----------

// StatsRequest requests index-level statistics. It carries no fields; the
// index is not partitioned in this deployment.
type StatsRequest struct{}

// StatsResponse contains index-level statistics.
type StatsResponse struct {
	TotalDocs int64   `json:"total_docs"`
	Avgdl     float64 `json:"avgdl"`
}
