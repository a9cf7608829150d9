// Package rpcapi exposes the search core over the platform's internal
// JSON-over-TCP RPC facade (pkg/grpc), for callers that prefer a persistent
// connection over HTTP — e.g. a co-located sidecar or another internal
// service. It offers the same search modes as internal/httpapi.
package rpcapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ksedova/fulltext/internal/fulltext/service"
	"github.com/ksedova/fulltext/pkg/grpc"
	"github.com/ksedova/fulltext/pkg/proto"
)

// Searcher is the subset of *internal/fulltext/service.Service the RPC
// facade depends on, narrowed for testability with a fake.
type Searcher interface {
	Search(q string) []int32
	SearchScored(q string) []service.ScoredDoc
	SearchWithSnippets(q string) []service.Hit
	N() int64
	Avgdl() float64
}

// Register wires SearchService.Search, SearchService.Health and
// SearchService.Stats onto srv.
func Register(srv *grpc.Server, svc Searcher) {
	logger := slog.Default().With("component", "rpcapi")

	srv.Register("SearchService.Search", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req proto.SearchRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		start := time.Now()

		limit := int(req.Limit)
		if limit <= 0 {
			limit = 10
		}

		results := searchResults(svc, req.Mode, req.Query, limit)
		logger.Info("rpc search", "query", req.Query, "mode", req.Mode, "returned", len(results))

		return &proto.SearchResponse{
			Query:     req.Query,
			TotalHits: int32(len(results)),
			Results:   results,
			LatencyMs: time.Since(start).Milliseconds(),
		}, nil
	})

	srv.Register("SearchService.Health", func(ctx context.Context, raw json.RawMessage) (any, error) {
		status := "SERVING"
		if svc.N() == 0 {
			status = "NOT_SERVING"
		}
		return &proto.HealthCheckResponse{Status: status}, nil
	})

	srv.Register("SearchService.Stats", func(ctx context.Context, raw json.RawMessage) (any, error) {
		return &proto.StatsResponse{TotalDocs: svc.N(), Avgdl: svc.Avgdl()}, nil
	})
}

func searchResults(svc Searcher, mode, query string, limit int) []proto.SearchResult {
	switch mode {
	case "ids":
		ids := svc.Search(query)
		if len(ids) > limit {
			ids = ids[:limit]
		}
		out := make([]proto.SearchResult, len(ids))
		for i, id := range ids {
			out[i] = proto.SearchResult{DocID: id}
		}
		return out
	case "snippets":
		hits := svc.SearchWithSnippets(query)
		if len(hits) > limit {
			hits = hits[:limit]
		}
		out := make([]proto.SearchResult, len(hits))
		for i, h := range hits {
			out[i] = proto.SearchResult{DocID: h.DocID, Score: float32(h.Score), Snippet: h.Snippet}
		}
		return out
	default:
		scored := svc.SearchScored(query)
		if len(scored) > limit {
			scored = scored[:limit]
		}
		out := make([]proto.SearchResult, len(scored))
		for i, s := range scored {
			out[i] = proto.SearchResult{DocID: s.DocID, Score: float32(s.Score)}
		}
		return out
	}
}
