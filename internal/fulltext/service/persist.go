package service

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/ksedova/fulltext/internal/fulltext/index"
	"github.com/ksedova/fulltext/internal/fulltext/token"
)

const schemaVersion = 1

const (
	metaFile     = "index_meta.json"
	docsFile     = "docs.jsonl"
	postingsFile = "postings.bin"
)

type metadata struct {
	SchemaVersion int     `json:"schema_version"`
	N             int64   `json:"N"`
	Avgdl         float64 `json:"avgdl"`
}

type docRecord struct {
	DocID int32  `json:"docId"`
	Text  string `json:"text"`
}

// Save writes index_meta.json, docs.jsonl, and postings.bin to dir, each
// committed independently via write-temp-then-rename. Only a shared lock is
// held: Save only reads state, and readers are safe to run concurrently
// with it.
func (s *Service) Save(dir string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newError(KindIoError, err, "creating index directory %s", dir)
	}

	meta := metadata{SchemaVersion: schemaVersion, N: s.n, Avgdl: s.avgdl}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return newError(KindIoError, err, "marshaling %s", metaFile)
	}
	if err := atomicWriteFile(filepath.Join(dir, metaFile), metaBytes); err != nil {
		return err
	}

	if err := s.saveDocs(dir); err != nil {
		return err
	}

	if err := s.savePostings(dir); err != nil {
		return err
	}
	return nil
}

func (s *Service) saveDocs(dir string) error {
	docIDs := make([]int32, 0, len(s.docText))
	for id := range s.docText {
		docIDs = append(docIDs, id)
	}
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	tmpPath := filepath.Join(dir, docsFile+".tmp")
	finalPath := filepath.Join(dir, docsFile)

	f, err := os.Create(tmpPath)
	if err != nil {
		return newError(KindIoError, err, "creating %s", tmpPath)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, id := range docIDs {
		if err := enc.Encode(docRecord{DocID: id, Text: s.docText[id]}); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return newError(KindIoError, err, "writing %s", docsFile)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(KindIoError, err, "flushing %s", docsFile)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(KindIoError, err, "syncing %s", docsFile)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return newError(KindIoError, err, "closing %s", docsFile)
	}
	return renameReplacing(tmpPath, finalPath)
}

func (s *Service) savePostings(dir string) error {
	tmpPath := filepath.Join(dir, postingsFile+".tmp")
	finalPath := filepath.Join(dir, postingsFile)

	f, err := os.Create(tmpPath)
	if err != nil {
		return newError(KindIoError, err, "creating %s", tmpPath)
	}
	if err := index.EncodeBinary(f, s.idx); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(KindIoError, err, "writing %s", postingsFile)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(KindIoError, err, "syncing %s", postingsFile)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return newError(KindIoError, err, "closing %s", postingsFile)
	}
	return renameReplacing(tmpPath, finalPath)
}

// atomicWriteFile writes data to path via a temp file, flush, and rename.
func atomicWriteFile(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return newError(KindIoError, err, "creating %s", tmpPath)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(KindIoError, err, "writing %s", path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return newError(KindIoError, err, "syncing %s", path)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return newError(KindIoError, err, "closing %s", path)
	}
	return renameReplacing(tmpPath, path)
}

// renameReplacing renames tmpPath onto finalPath. On platforms where rename
// does not replace an existing target (Windows), the target is removed
// first and the rename retried.
func renameReplacing(tmpPath, finalPath string) error {
	err := os.Rename(tmpPath, finalPath)
	if err == nil {
		return nil
	}
	if runtime.GOOS == "windows" {
		if rmErr := os.Remove(finalPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return newError(KindIoError, err, "renaming %s to %s", tmpPath, finalPath)
		}
		if err := os.Rename(tmpPath, finalPath); err != nil {
			return newError(KindIoError, err, "renaming %s to %s", tmpPath, finalPath)
		}
		return nil
	}
	return newError(KindIoError, err, "renaming %s to %s", tmpPath, finalPath)
}

// Load performs a double-buffered reload: index_meta.json, docs.jsonl, and
// postings.bin are parsed into fresh buffers with no lock held, then the
// exclusive lock is acquired only to swap the new buffers into place. On
// any error the service's existing state is left untouched.
func (s *Service) Load(dir string) error {
	for _, name := range []string{metaFile, docsFile, postingsFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return newError(KindIndexFileMissing, err, "missing %s", path)
		}
	}

	meta, err := loadMetadata(filepath.Join(dir, metaFile))
	if err != nil {
		return err
	}
	if meta.SchemaVersion != schemaVersion {
		return newError(KindUnsupportedSchema, nil, "unsupported schema_version %d", meta.SchemaVersion)
	}

	docText, docLen, err := loadDocs(filepath.Join(dir, docsFile))
	if err != nil {
		return err
	}

	idx, err := loadPostings(filepath.Join(dir, postingsFile))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx
	s.docText = docText
	s.docLen = docLen
	s.n = meta.N
	s.avgdl = meta.Avgdl
	return nil
}

func loadMetadata(path string) (metadata, error) {
	var meta metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, newError(KindIoError, err, "reading %s", path)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, newError(KindCorruptIndex, err, "parsing %s", path)
	}
	return meta, nil
}

func loadDocs(path string) (map[int32]string, map[int32]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, newError(KindIoError, err, "reading %s", path)
	}
	defer f.Close()

	docText := make(map[int32]string)
	docLen := make(map[int32]int)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec docRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, nil, newError(KindCorruptIndex, err, "parsing %s line %d", docsFile, lineNo)
		}
		if rec.DocID < 0 {
			return nil, nil, newError(KindCorruptIndex, nil, "%s line %d: negative docId %d", docsFile, lineNo, rec.DocID)
		}
		docText[rec.DocID] = rec.Text
		docLen[rec.DocID] = len(token.Tokenize(rec.Text))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, newError(KindIoError, err, "reading %s", path)
	}
	return docText, docLen, nil
}

func loadPostings(path string) (*index.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindIoError, err, "reading %s", path)
	}
	defer f.Close()

	idx, err := index.DecodeBinary(f)
	if err != nil {
		return nil, newError(KindCorruptIndex, err, "parsing %s", postingsFile)
	}
	return idx, nil
}
