// Package benchmark contains Go benchmarks for the tokenizer, inverted
// index, and search service, measuring throughput and allocation behaviour.
package benchmark

import (
	"fmt"
	"io"
	"testing"

	"github.com/ksedova/fulltext/internal/fulltext/index"
	"github.com/ksedova/fulltext/internal/fulltext/service"
	"github.com/ksedova/fulltext/internal/fulltext/token"
)

// BenchmarkIndexAdd measures per-document insert throughput into the
// in-memory inverted index.
func BenchmarkIndexAdd(b *testing.B) {
	idx := index.New()
	tokens := token.Tokenize("this is a benchmark document with several terms for testing the indexing performance of our inverted index")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.AddDocument(int32(i), tokens)
	}
}

// BenchmarkIndexSearch measures single-term lookup latency over 10 000
// documents.
func BenchmarkIndexSearch(b *testing.B) {
	idx := index.New()
	tokens := token.Tokenize("search engine with distributed indexing and query processing")
	for i := 0; i < 10000; i++ {
		idx.AddDocument(int32(i), tokens)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := idx.Search("search")
		_ = results
	}
}

// BenchmarkIndexSearchParallel measures concurrent read throughput.
func BenchmarkIndexSearchParallel(b *testing.B) {
	idx := index.New()
	tokens := token.Tokenize("search engine with distributed indexing and query processing")
	for i := 0; i < 10000; i++ {
		idx.AddDocument(int32(i), tokens)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results := idx.Search("search")
			_ = results
		}
	})
}

// BenchmarkIndexEncodeBinary measures the cost of serialising the postings
// list to the on-disk binary format before a Save.
func BenchmarkIndexEncodeBinary(b *testing.B) {
	idx := index.New()
	tokens := token.Tokenize("testing snapshot performance with multiple terms and documents")
	for i := 0; i < 5000; i++ {
		idx.AddDocument(int32(i), tokens)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := index.EncodeBinary(io.Discard, idx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkServiceAddDocument measures full Service indexing throughput at
// various pre-loaded corpus sizes.
func BenchmarkServiceAddDocument(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, preload := range sizes {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
			svc := service.New()
			for i := 0; i < preload; i++ {
				_ = svc.AddDocument(int32(i), "preloading documents for benchmark warmup phase")
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := svc.AddDocument(int32(preload+i), "benchmark document body for measuring indexing throughput"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkServiceSearch measures end-to-end search latency across 10 000
// documents.
func BenchmarkServiceSearch(b *testing.B) {
	svc := service.New()
	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	for i := 0; i < 10000; i++ {
		text := fmt.Sprintf("document about %s and %s covers %s %s in production systems",
			terms[i%len(terms)], terms[(i+1)%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
		if err := svc.AddDocument(int32(i), text); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results := svc.Search(terms[i%len(terms)])
		_ = results
	}
}
