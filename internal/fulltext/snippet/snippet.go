// Package snippet extracts a bounded, human-readable excerpt of a document's
// original text around the earliest occurrence of a query term.
package snippet

import "strings"

// Window is the byte width of the emitted extract.
const Window = 120

// Extract finds the earliest byte offset in the ASCII-lowercased text where
// any of terms' bytes occur as a substring, then emits a Window-byte slice
// of the original text starting Window/3 bytes before that offset (clamped
// to the start of text) and ending at min(start+Window, len(text)). If no
// term occurs, it emits the first min(Window, len(text)) bytes. The returned
// slice preserves the original case; only the search is case-folded.
func Extract(text string, terms []string) string {
	lower := strings.ToLower(text)
	matchAt := -1
	for _, term := range terms {
		if term == "" {
			continue
		}
		if i := strings.Index(lower, term); i != -1 && (matchAt == -1 || i < matchAt) {
			matchAt = i
		}
	}

	if matchAt == -1 {
		end := Window
		if end > len(text) {
			end = len(text)
		}
		return text[:end]
	}

	start := matchAt - Window/3
	if start < 0 {
		start = 0
	}
	end := start + Window
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}
