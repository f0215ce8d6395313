package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"employerexport/internal/domain"
)

// ── JSON file destination ─────────────────────────────────
// Compact JSON array, UTF-8, no HTML escaping, no trailing newline.
// Written to a temp file in the same directory and renamed into place, so
// readers never see a half-written file.

// EncodeJSON renders records as a single JSON array. An empty or nil slice
// renders as [].
func EncodeJSON(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteJSONFile serializes records to path, creating parent directories and
// overwriting any existing file.
func WriteJSONFile(path string, records []domain.Record) error {
	data, err := EncodeJSON(records)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// ChunkRecords splits records into n contiguous parts whose sizes differ by
// at most one; earlier parts take the remainder. Parts may be empty.
func ChunkRecords(records []domain.Record, n int) [][]domain.Record {
	if n <= 0 {
		return nil
	}
	chunks := make([][]domain.Record, n)
	size, extra := len(records)/n, len(records)%n
	start := 0
	for i := range chunks {
		end := start + size
		if i < extra {
			end++
		}
		chunks[i] = records[start:end]
		start = end
	}
	return chunks
}

// chunkFileName returns regionsdata_3.json for ("regionsdata.json", 3).
func chunkFileName(file string, index int) string {
	ext := filepath.Ext(file)
	return fmt.Sprintf("%s_%d%s", file[:len(file)-len(ext)], index, ext)
}

// RemoveStaleChunks deletes chunk files of file in dir numbered above keep,
// so a reader that merges regionsdata_1..N never sees rows from an earlier
// run that used more chunks. It returns the number of files removed.
func RemoveStaleChunks(dir, file string, keep int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read directory: %w", err)
	}
	ext := filepath.Ext(file)
	prefix := file[:len(file)-len(ext)] + "_"

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		n, err := strconv.Atoi(name[len(prefix) : len(name)-len(ext)])
		if err != nil || n <= keep {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
