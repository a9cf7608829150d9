package benchmark

import (
	"fmt"
	"testing"

	"github.com/ksedova/fulltext/internal/fulltext/query"
	"github.com/ksedova/fulltext/internal/fulltext/service"
)

// BenchmarkQueryParse measures query parsing latency for queries of varying
// complexity.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "distributed systems"},
		{"boolean_or", "indexing OR caching OR ranking"},
		{"with_not", "distributed -monolithic"},
		{"complex", "search ranking OR analytics -deprecated"},
		{"long", "distributed search analytics platform indexing query processing ranking caching sharding"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				parsed := query.Parse(q.query)
				_ = parsed
			}
		})
	}
}

// BenchmarkSearchScored measures end-to-end BM25 scored search over growing
// corpus sizes.
func BenchmarkSearchScored(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			svc := service.New()
			for i := 0; i < numDocs; i++ {
				text := fmt.Sprintf("document about %s and %s covers %s %s in production systems",
					terms[i%len(terms)], terms[(i+1)%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
				if err := svc.AddDocument(int32(i), text); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked := svc.SearchScored("search")
				_ = ranked
			}
		})
	}
}

// BenchmarkSearchScoredMultiTerm measures scored search with an increasing
// number of OR-joined query terms.
func BenchmarkSearchScoredMultiTerm(b *testing.B) {
	termCount := []int{1, 3, 5, 8}
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}

	svc := service.New()
	for i := 0; i < 5000; i++ {
		text := fmt.Sprintf("document about %s and %s covers %s %s in production systems",
			terms[i%len(terms)], terms[(i+1)%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
		if err := svc.AddDocument(int32(i), text); err != nil {
			b.Fatal(err)
		}
	}

	for _, tc := range termCount {
		b.Run(fmt.Sprintf("terms_%d", tc), func(b *testing.B) {
			q := ""
			for t := 0; t < tc; t++ {
				if t > 0 {
					q += " OR "
				}
				q += terms[t%len(terms)]
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked := svc.SearchScored(q)
				_ = ranked
			}
		})
	}
}

// BenchmarkSearchWithSnippetsParallel measures concurrent snippet-producing
// search throughput.
func BenchmarkSearchWithSnippetsParallel(b *testing.B) {
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	svc := service.New()
	for i := 0; i < 8000; i++ {
		text := fmt.Sprintf("document about %s and %s covers %s %s in production systems",
			terms[i%len(terms)], terms[(i+1)%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
		if err := svc.AddDocument(int32(i), text); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			hits := svc.SearchWithSnippets("search")
			_ = hits
		}
	})
}
