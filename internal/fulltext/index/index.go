// Package index implements the inverted index: a term -> {docId -> tf}
// mapping with a deterministic little-endian binary codec. The type carries
// no locking of its own — it is always manipulated under the single
// reader/writer lock owned by internal/fulltext/service.Service.
package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// Posting is a (docId, tf) pair for one term.
type Posting struct {
	DocID int32
	TF    int32
}

// Index maps term -> docId -> term frequency.
type Index struct {
	terms map[string]map[int32]int32
}

// New returns an empty Index.
func New() *Index {
	return &Index{terms: make(map[string]map[int32]int32)}
}

// AddDocument increments the (term, docId) tf cell for every token in
// tokens. Calling this twice with the same docId is not a supported
// operation — see internal/fulltext/service for the duplicate-docId policy.
func (idx *Index) AddDocument(docID int32, tokens []string) {
	for _, term := range tokens {
		postings, ok := idx.terms[term]
		if !ok {
			postings = make(map[int32]int32)
			idx.terms[term] = postings
		}
		postings[docID]++
	}
}

// Postings returns term's postings ordered by docId ascending. Empty for an
// unknown term.
func (idx *Index) Postings(term string) []Posting {
	docs, ok := idx.terms[term]
	if !ok {
		return nil
	}
	result := make([]Posting, 0, len(docs))
	for docID, tf := range docs {
		result = append(result, Posting{DocID: docID, TF: tf})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DocID < result[j].DocID })
	return result
}

// PostingsMap returns the live {docId -> tf} map for term, for O(1) lookup
// during scoring. The returned map must not be retained past the current
// call into the Service — it becomes stale the moment the index is mutated
// or replaced by a reload.
func (idx *Index) PostingsMap(term string) (map[int32]int32, bool) {
	m, ok := idx.terms[term]
	return m, ok
}

// DF returns the document frequency of term, zero if unknown.
func (idx *Index) DF(term string) int {
	return len(idx.terms[term])
}

// Search returns the sorted docIds containing term.
func (idx *Index) Search(term string) []int32 {
	docs, ok := idx.terms[term]
	if !ok {
		return nil
	}
	result := make([]int32, 0, len(docs))
	for docID := range docs {
		result = append(result, docID)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// TermCount returns the number of distinct terms in the index.
func (idx *Index) TermCount() int {
	return len(idx.terms)
}

// EncodeBinary writes idx to w using the on-disk layout:
//
//	u64 term_count
//	for each term in ascending byte-lexicographic order:
//	    u32 term_byte_length
//	    bytes[term_byte_length] term
//	    u32 posting_count
//	    for each posting in ascending docId order:
//	        i32 docId
//	        i32 tf
//
// Two indexes with equal logical content produce byte-identical output.
func EncodeBinary(w io.Writer, idx *Index) error {
	bw := bufio.NewWriter(w)

	terms := make([]string, 0, len(idx.terms))
	for term := range idx.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	if err := binary.Write(bw, binary.LittleEndian, uint64(len(terms))); err != nil {
		return fmt.Errorf("writing term count: %w", err)
	}

	var lenBuf [4]byte
	for _, term := range terms {
		termBytes := []byte(term)
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(termBytes)))
		if _, err := bw.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("writing term length for %q: %w", term, err)
		}
		if _, err := bw.Write(termBytes); err != nil {
			return fmt.Errorf("writing term bytes for %q: %w", term, err)
		}

		postings := idx.Postings(term)
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(postings)))
		if _, err := bw.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("writing posting count for %q: %w", term, err)
		}
		for _, p := range postings {
			if err := binary.Write(bw, binary.LittleEndian, p.DocID); err != nil {
				return fmt.Errorf("writing docId for %q: %w", term, err)
			}
			if err := binary.Write(bw, binary.LittleEndian, p.TF); err != nil {
				return fmt.Errorf("writing tf for %q: %w", term, err)
			}
		}
	}
	return bw.Flush()
}

// DecodeBinary reads an Index serialised by EncodeBinary from r. It rejects
// files whose declared counts exceed the remaining bytes, returning an error
// wrapping io.ErrUnexpectedEOF for truncated input.
func DecodeBinary(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)
	idx := New()

	var termCount uint64
	if err := binary.Read(br, binary.LittleEndian, &termCount); err != nil {
		return nil, fmt.Errorf("reading term count: %w", io.ErrUnexpectedEOF)
	}

	for i := uint64(0); i < termCount; i++ {
		var termLen uint32
		if err := binary.Read(br, binary.LittleEndian, &termLen); err != nil {
			return nil, fmt.Errorf("reading term %d length: %w", i, io.ErrUnexpectedEOF)
		}
		termBytes := make([]byte, termLen)
		if _, err := io.ReadFull(br, termBytes); err != nil {
			return nil, fmt.Errorf("reading term %d bytes: %w", i, io.ErrUnexpectedEOF)
		}
		term := string(termBytes)

		var postingCount uint32
		if err := binary.Read(br, binary.LittleEndian, &postingCount); err != nil {
			return nil, fmt.Errorf("reading posting count for %q: %w", term, io.ErrUnexpectedEOF)
		}
		postings := make(map[int32]int32, postingCount)
		for j := uint32(0); j < postingCount; j++ {
			var docID, tf int32
			if err := binary.Read(br, binary.LittleEndian, &docID); err != nil {
				return nil, fmt.Errorf("reading posting %d docId for %q: %w", j, term, io.ErrUnexpectedEOF)
			}
			if err := binary.Read(br, binary.LittleEndian, &tf); err != nil {
				return nil, fmt.Errorf("reading posting %d tf for %q: %w", j, term, io.ErrUnexpectedEOF)
			}
			postings[docID] = tf
		}
		idx.terms[term] = postings
	}
	return idx, nil
}
