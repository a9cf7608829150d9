// Package token implements the single tokenisation rule shared by indexing,
// document-length computation, and query normalisation. Diverging copies of
// this function across call sites is the classic source of ranking drift, so
// every caller in this module goes through Tokenize.
package token

// Tokenize scans text byte by byte. A byte is word-continuing iff it is
// ASCII alphanumeric; any other byte terminates the current token. Letters
// are folded to lowercase (ASCII only). Empty tokens are never emitted.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/5+1)
	start := -1
	buf := make([]byte, 0, 16)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isAlnum(c) {
			if start == -1 {
				start = i
				buf = buf[:0]
			}
			buf = append(buf, lower(c))
			continue
		}
		if start != -1 {
			tokens = append(tokens, string(buf))
			start = -1
		}
	}
	if start != -1 {
		tokens = append(tokens, string(buf))
	}
	return tokens
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}
