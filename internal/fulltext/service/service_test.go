package service

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func mustAdd(t *testing.T, s *Service, docID int32, text string) {
	t.Helper()
	if err := s.AddDocument(docID, text); err != nil {
		t.Fatalf("AddDocument(%d): %v", docID, err)
	}
}

func assertIDs(t *testing.T, got []int32, want []int32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// S1 — basic ranking.
func TestS1BasicRanking(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "apple banana apple")
	mustAdd(t, s, 2, "banana cherry banana banana")
	mustAdd(t, s, 3, "cherry date cherry cherry cherry")

	assertIDs(t, s.Search("banana"), []int32{1, 2})
}

// S2 — NOT.
func TestS2Not(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "hello world")
	mustAdd(t, s, 2, "hello there")
	mustAdd(t, s, 3, "goodbye world")

	assertIDs(t, s.Search("hello -world"), []int32{2})
}

// S3 — OR.
func TestS3Or(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "apple banana")
	mustAdd(t, s, 2, "banana cherry")
	mustAdd(t, s, 3, "cherry date")

	assertIDs(t, s.Search("apple OR date"), []int32{1, 3})
}

// S4 — length normalisation.
func TestS4LengthNormalisation(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "hello filler filler filler filler filler filler filler filler filler filler world")
	mustAdd(t, s, 2, "hello world")

	ids := s.Search("hello world")
	if len(ids) == 0 || ids[0] != 2 {
		t.Fatalf("expected doc 2 first, got %v", ids)
	}
}

// S5 — snippet.
func TestS5Snippet(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "Teamcenter migration guide: map attributes, validate schema, run dry-run.")

	hits := s.SearchWithSnippets("migration schema")
	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if hits[0].DocID != 1 {
		t.Fatalf("expected docId 1, got %d", hits[0].DocID)
	}
	if !strings.Contains(hits[0].Snippet, "migration") || !strings.Contains(hits[0].Snippet, "schema") {
		t.Fatalf("snippet %q missing expected substrings", hits[0].Snippet)
	}
}

func seedS1(t *testing.T, s *Service) {
	mustAdd(t, s, 1, "apple banana apple")
	mustAdd(t, s, 2, "banana cherry banana banana")
	mustAdd(t, s, 3, "cherry date cherry cherry cherry")
}

// S6 — persistence round-trip.
func TestS6PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New()
	seedS1(t, s)

	before := s.SearchScored("banana cherry")

	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := New()
	if err := loaded.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}

	after := loaded.SearchScored("banana cherry")
	if len(before) != len(after) {
		t.Fatalf("result count mismatch: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i].DocID != after[i].DocID {
			t.Fatalf("docId mismatch at %d: %v vs %v", i, before[i], after[i])
		}
		if math.Abs(before[i].Score-after[i].Score) >= 1e-9 {
			t.Fatalf("score mismatch at %d: %v vs %v", i, before[i].Score, after[i].Score)
		}
	}
}

func TestSaveLeavesNoTmpFiles(t *testing.T) {
	dir := t.TempDir()
	s := New()
	seedS1(t, s)
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover tmp file: %s", e.Name())
		}
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	s := New()
	seedS1(t, s)
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.Remove(filepath.Join(dir, "postings.bin")); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	err := s.Load(dir)
	var svcErr *Error
	if err == nil {
		t.Fatal("Load: expected error, got nil")
	}
	if !asError(err, &svcErr) || svcErr.Kind != KindIndexFileMissing {
		t.Fatalf("Load error = %v, want KindIndexFileMissing", err)
	}
}

func TestLoadRejectsUnsupportedSchema(t *testing.T) {
	dir := t.TempDir()
	s := New()
	seedS1(t, s)
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index_meta.json"), []byte(`{"schema_version":2,"N":3,"avgdl":2.0}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err := s.Load(dir)
	var svcErr *Error
	if err == nil || !asError(err, &svcErr) || svcErr.Kind != KindUnsupportedSchema {
		t.Fatalf("Load error = %v, want KindUnsupportedSchema", err)
	}
}

func TestLoadDoesNotMutateStateOnFailure(t *testing.T) {
	dir := t.TempDir()
	s := New()
	seedS1(t, s)

	before := s.N()
	if err := s.Load(filepath.Join(dir, "does-not-exist")); err == nil {
		t.Fatal("expected Load to fail against a missing directory")
	}
	if s.N() != before {
		t.Fatalf("Load on error mutated state: N before=%d after=%d", before, s.N())
	}
}

func TestBoundaryAvgdlZeroIffEmpty(t *testing.T) {
	s := New()
	if s.Avgdl() != 0.0 || s.N() != 0 {
		t.Fatalf("empty service: avgdl=%v N=%v, want 0/0", s.Avgdl(), s.N())
	}
	mustAdd(t, s, 1, "hello")
	if s.Avgdl() == 0.0 {
		t.Fatalf("non-empty service has avgdl 0.0")
	}
}

func TestBoundaryUnknownTerm(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "hello")
	if s.DF("nope") != 0 {
		t.Errorf("DF(unknown) = %d, want 0", s.DF("nope"))
	}
}

func TestEmptyPositivesReturnsEmpty(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "hello world")
	ids := s.Search("-hello")
	if len(ids) != 0 {
		t.Errorf("Search with only NOT terms = %v, want empty", ids)
	}
}

func TestDuplicateDocIDRejected(t *testing.T) {
	s := New()
	mustAdd(t, s, 1, "hello")
	if err := s.AddDocument(1, "world"); err != ErrDuplicateDocument {
		t.Errorf("AddDocument duplicate = %v, want ErrDuplicateDocument", err)
	}
}

func TestConcurrentSearchesAreConsistent(t *testing.T) {
	s := New()
	seedS1(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assertIDs(t, s.Search("banana"), []int32{1, 2})
		}()
	}
	wg.Wait()
}

func TestConcurrentAddAndSearchDoesNotCrash(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int32(0); i < 200; i++ {
			_ = s.AddDocument(i, "hello world foo bar")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Search("hello")
		}
	}()
	wg.Wait()
}

// asError is a small errors.As helper kept local to this test file.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
