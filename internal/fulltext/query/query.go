// Package query implements query-string parsing into a positive/negative
// term list plus a conjunction/disjunction flag, per the rules shared by the
// indexing tokeniser (internal/fulltext/token).
package query

import (
	"strings"

	"github.com/ksedova/fulltext/internal/fulltext/token"
)

// Parsed holds the outcome of splitting and tokenising a raw query string.
type Parsed struct {
	Positives []string
	Negatives []string
	IsOr      bool
}

// Parse splits raw on single ASCII spaces. For each lexeme:
//   - "OR" or "or" (and no other case) sets IsOr and is discarded.
//   - a lexeme beginning with '-' contributes its suffix's tokens to Negatives.
//   - any other lexeme contributes its tokens to Positives.
//
// Both lists preserve query order and may contain duplicates. Candidate
// generation is unaffected by them (it uses sorted set operations), but
// BM25 scoring sums over every listed positive, so a repeated term adds its
// contribution once per occurrence.
func Parse(raw string) Parsed {
	var p Parsed
	for _, lexeme := range strings.Split(raw, " ") {
		if lexeme == "" {
			continue
		}
		if lexeme == "OR" || lexeme == "or" {
			p.IsOr = true
			continue
		}
		if strings.HasPrefix(lexeme, "-") {
			p.Negatives = append(p.Negatives, token.Tokenize(lexeme[1:])...)
			continue
		}
		p.Positives = append(p.Positives, token.Tokenize(lexeme)...)
	}
	return p
}
