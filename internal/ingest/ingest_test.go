package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeSink struct {
	added map[int32]string
	fail  map[int32]bool
}

func newFakeSink() *fakeSink {
	return &fakeSink{added: make(map[int32]string)}
}

func (s *fakeSink) AddDocument(docID int32, text string) error {
	if s.fail[docID] {
		return errors.New("rejected")
	}
	s.added[docID] = text
	return nil
}

type sliceSource struct {
	docs []Document
	pos  int
}

func (s *sliceSource) Next(ctx context.Context) (Document, bool, error) {
	if s.pos >= len(s.docs) {
		return Document{}, false, nil
	}
	d := s.docs[s.pos]
	s.pos++
	return d, true, nil
}

func TestRunAddsAllDocuments(t *testing.T) {
	src := &sliceSource{docs: []Document{{DocID: 1, Text: "a"}, {DocID: 2, Text: "b"}}}
	sink := newFakeSink()

	stats, err := Run(context.Background(), src, sink, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Added != 2 || stats.Skipped != 0 {
		t.Fatalf("stats = %+v, want Added=2 Skipped=0", stats)
	}
	if sink.added[1] != "a" || sink.added[2] != "b" {
		t.Fatalf("sink state = %+v", sink.added)
	}
}

func TestRunSkipsRejectedDocuments(t *testing.T) {
	src := &sliceSource{docs: []Document{{DocID: 1, Text: "a"}, {DocID: 2, Text: "b"}}}
	sink := newFakeSink()
	sink.fail = map[int32]bool{2: true}

	stats, err := Run(context.Background(), src, sink, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Added != 1 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want Added=1 Skipped=1", stats)
	}
	if _, ok := sink.added[2]; ok {
		t.Errorf("doc 2 should not have been added")
	}
}

func TestRunSkipsEmptyDocuments(t *testing.T) {
	src := &sliceSource{docs: []Document{{DocID: 1, Text: "a"}, {DocID: 2, Text: ""}}}
	sink := newFakeSink()

	stats, err := Run(context.Background(), src, sink, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Added != 1 || stats.Skipped != 1 {
		t.Fatalf("stats = %+v, want Added=1 Skipped=1", stats)
	}
	if _, ok := sink.added[2]; ok {
		t.Errorf("empty document should not have been added")
	}
}

func TestJSONFileSourceYieldsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docs.json")
	content := `[{"docId":1,"text":"alpha"},{"docId":2,"text":"beta"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src, err := NewJSONFileSource(path)
	if err != nil {
		t.Fatalf("NewJSONFileSource: %v", err)
	}

	var got []Document
	for {
		doc, ok, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, doc)
	}
	if len(got) != 2 || got[0].DocID != 1 || got[1].DocID != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestJSONFileSourceRejectsMalformedInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewJSONFileSource(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestDirSourceOrdersByPathAndAssignsContiguousIDs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_second.txt", "a_first.txt", "c_third.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content "+name), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	src, err := NewDirSource(dir, nil)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	var docs []Document
	for {
		doc, ok, err := src.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		docs = append(docs, doc)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}
	for i, doc := range docs {
		if doc.DocID != int32(i+1) {
			t.Errorf("docs[%d].DocID = %d, want %d", i, doc.DocID, i+1)
		}
	}
	if docs[0].Text != "content a_first.txt" {
		t.Errorf("docs[0].Text = %q, want a_first.txt content first", docs[0].Text)
	}
}

func TestDirSourceDeterministicAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"f1.txt", "f2.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	drain := func() []Document {
		src, err := NewDirSource(dir, nil)
		if err != nil {
			t.Fatalf("NewDirSource: %v", err)
		}
		var docs []Document
		for {
			doc, ok, err := src.Next(context.Background())
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				break
			}
			docs = append(docs, doc)
		}
		return docs
	}

	first := drain()
	second := drain()
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("run %d differs at index %d: %+v vs %+v", i, i, first[i], second[i])
		}
	}
}
