package token

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single word", "apple", []string{"apple"}},
		{"folds case", "Apple BANANA", []string{"apple", "banana"}},
		{"splits on punctuation", "foo-bar.baz", []string{"foo", "bar", "baz"}},
		{"splits on hyphen prefix", "-foo.bar", []string{"foo", "bar"}},
		{"digits kept", "abc123 456", []string{"abc123", "456"}},
		{"only punctuation", "---...", nil},
		{"leading and trailing junk", "  hello!  ", []string{"hello"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.in)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTokenizeIdempotentOnOwnOutput(t *testing.T) {
	cases := []string{
		"apple banana apple",
		"hello world",
		"migration guide map attributes validate schema",
	}
	for _, in := range cases {
		first := Tokenize(in)
		second := Tokenize(strings.Join(first, " "))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("tokenize not idempotent on reconstruction: %v vs %v", first, second)
		}
	}
}

func TestTokenizeIdentityAcrossLengths(t *testing.T) {
	text := "Teamcenter migration guide: map attributes, validate schema, run dry-run."
	a := Tokenize(text)
	b := Tokenize(text)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("tokenizer is not deterministic: %v vs %v", a, b)
	}
}
