// Package service composes the tokeniser, inverted index, query parser, and
// snippet builder into the Search Service: the component that owns the
// corpus's in-memory state, enforces the reader/writer concurrency
// discipline, and coordinates persistence.
package service

import (
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/ksedova/fulltext/internal/fulltext/index"
	"github.com/ksedova/fulltext/internal/fulltext/query"
	"github.com/ksedova/fulltext/internal/fulltext/snippet"
	"github.com/ksedova/fulltext/internal/fulltext/token"
)

const (
	k1 = 1.2
	b  = 0.75
)

// ScoredDoc is one (docId, score) result, ordered per Service's ranking.
type ScoredDoc struct {
	DocID int32
	Score float64
}

// Hit is one (docId, score, snippet) result from SearchWithSnippets.
type Hit struct {
	DocID   int32
	Score   float64
	Snippet string
}

// Service owns the inverted index, document-text table, document-length
// table, and corpus counters. External callers observe these only through
// its exported methods; no internal structure is retained across a call
// boundary by a caller.
//
// All mutable state is protected by one sync.RWMutex:
//   - Search, SearchScored, SearchWithSnippets take a read lock for the
//     whole call.
//   - AddDocument takes a write lock for the whole call.
//   - Save takes a read lock (it only reads state).
//   - Load parses outside any lock, then takes a write lock only to swap
//     the freshly built buffers into place.
type Service struct {
	mu sync.RWMutex

	idx     *index.Index
	docText map[int32]string
	docLen  map[int32]int
	n       int64
	avgdl   float64

	logger *slog.Logger
}

// New returns an empty Service.
func New() *Service {
	return &Service{
		idx:     index.New(),
		docText: make(map[int32]string),
		docLen:  make(map[int32]int),
		logger:  slog.Default().With("component", "fulltext-service"),
	}
}

// AddDocument tokenises text, updates postings and document length, and
// refreshes corpus statistics. Calling it twice with the same docID is
// rejected with ErrDuplicateDocument rather than silently corrupting N and
// avgdl (spec.md §9 leaves this as an open question; this build picks
// rejection).
func (s *Service) AddDocument(docID int32, text string) error {
	tokens := token.Tokenize(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docText[docID]; exists {
		return ErrDuplicateDocument
	}

	s.idx.AddDocument(docID, tokens)
	s.docText[docID] = text
	s.docLen[docID] = len(tokens)
	s.n++
	s.recomputeAvgdlLocked()
	return nil
}

// recomputeAvgdlLocked must be called with mu held for write.
func (s *Service) recomputeAvgdlLocked() {
	if s.n == 0 {
		s.avgdl = 0.0
		return
	}
	var total int64
	for _, l := range s.docLen {
		total += int64(l)
	}
	s.avgdl = float64(total) / float64(s.n)
}

// Search parses query, builds the boolean candidate set, applies NOT
// exclusion, scores with BM25, and returns the resulting docIds ordered by
// (-score, docId).
func (s *Service) Search(q string) []int32 {
	scored := s.SearchScored(q)
	ids := make([]int32, len(scored))
	for i, sd := range scored {
		ids[i] = sd.DocID
	}
	return ids
}

// SearchScored is Search but carries the BM25 score alongside each docId.
func (s *Service) SearchScored(q string) []ScoredDoc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchScoredLocked(q)
}

// SearchWithSnippets is SearchScored enriched with a contextual snippet of
// the stored document text around the earliest matching positive term.
func (s *Service) SearchWithSnippets(q string) []Hit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	parsed := query.Parse(q)
	scored := s.scoreCandidatesLocked(parsed)

	hits := make([]Hit, len(scored))
	for i, sd := range scored {
		hits[i] = Hit{
			DocID:   sd.DocID,
			Score:   sd.Score,
			Snippet: snippet.Extract(s.docText[sd.DocID], parsed.Positives),
		}
	}
	return hits
}

func (s *Service) searchScoredLocked(q string) []ScoredDoc {
	parsed := query.Parse(q)
	return s.scoreCandidatesLocked(parsed)
}

// scoreCandidatesLocked must be called with mu held (read or write).
func (s *Service) scoreCandidatesLocked(parsed query.Parsed) []ScoredDoc {
	if len(parsed.Positives) == 0 {
		return nil
	}

	candidates := s.candidateSetLocked(parsed)
	if len(parsed.Negatives) > 0 {
		candidates = s.excludeNegativesLocked(candidates, parsed.Negatives)
	}
	if len(candidates) == 0 {
		return nil
	}

	result := make([]ScoredDoc, len(candidates))
	for i, docID := range candidates {
		result[i] = ScoredDoc{DocID: docID, Score: s.scoreLocked(docID, parsed.Positives)}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	return result
}

// candidateSetLocked folds the positive terms' sorted posting lists left to
// right: AND intersects, OR unions. Both run in O(|a|+|b|) on sorted input.
func (s *Service) candidateSetLocked(parsed query.Parsed) []int32 {
	var candidates []int32
	for i, term := range parsed.Positives {
		postings := s.idx.Search(term)
		if i == 0 {
			candidates = postings
			continue
		}
		if parsed.IsOr {
			candidates = unionSorted(candidates, postings)
		} else {
			candidates = intersectSorted(candidates, postings)
		}
	}
	return candidates
}

// excludeNegativesLocked drops every candidate that appears in the union of
// the negative terms' posting lists.
func (s *Service) excludeNegativesLocked(candidates []int32, negatives []string) []int32 {
	excluded := make(map[int32]struct{})
	for _, term := range negatives {
		for _, docID := range s.idx.Search(term) {
			excluded[docID] = struct{}{}
		}
	}
	if len(excluded) == 0 {
		return candidates
	}
	kept := candidates[:0:0]
	for _, docID := range candidates {
		if _, ok := excluded[docID]; !ok {
			kept = append(kept, docID)
		}
	}
	return kept
}

// scoreLocked computes the BM25 score of docID against positives.
func (s *Service) scoreLocked(docID int32, positives []string) float64 {
	dl := float64(s.docLen[docID])
	var total float64
	for _, term := range positives {
		df := s.idx.DF(term)
		if df == 0 {
			continue
		}
		postings, ok := s.idx.PostingsMap(term)
		if !ok {
			continue
		}
		tf, ok := postings[docID]
		if !ok || tf == 0 {
			continue
		}
		idf := math.Log((float64(s.n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
		total += idf * tfNorm(float64(tf), dl, s.avgdl)
	}
	return total
}

// tfNorm is the BM25 term-frequency normalisation factor. When avgdl is
// zero the length-normalisation factor degrades to 1.0 rather than
// dividing by zero.
func tfNorm(tf, dl, avgdl float64) float64 {
	lengthNorm := 1.0
	if avgdl != 0 {
		lengthNorm = (1 - b) + b*dl/avgdl
	}
	return (tf * (k1 + 1)) / (tf + k1*lengthNorm)
}

func intersectSorted(a, b []int32) []int32 {
	result := make([]int32, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}

func unionSorted(a, b []int32) []int32 {
	result := make([]int32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			result = append(result, a[i])
			i++
		default:
			result = append(result, b[j])
			j++
		}
	}
	result = append(result, a[i:]...)
	result = append(result, b[j:]...)
	return result
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// N returns the number of indexed documents.
func (s *Service) N() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.n
}

// Avgdl returns the corpus's mean document length, 0.0 when N()==0.
func (s *Service) Avgdl() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avgdl
}

// DF returns the document frequency of term, zero if unknown.
func (s *Service) DF(term string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.DF(term)
}
