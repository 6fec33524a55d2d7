// JSONL import and export of shelf contents with atomic persistence.
package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/patterns/pkg/store"
)

// record is one JSONL line: a single key/value entry.
type record struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file.
func writeJSONL(path string, records []json.RawMessage) error {
	return writeAtomic(path, ".jsonl-*.tmp", func(w *bufio.Writer) error {
		for _, rec := range records {
			if _, err := w.Write(rec); err != nil {
				return fmt.Errorf("writing record: %w", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
		return nil
	})
}

// WriteFileAtomic replaces path with data, creating parent directories as
// needed. Readers see either the old contents or the new ones.
func WriteFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	return writeAtomic(path, "."+filepath.Base(path)+"-*.tmp", func(w *bufio.Writer) error {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing data: %w", err)
		}
		return nil
	})
}

// writeAtomic fills a temp file next to path with fill, then fsyncs it and
// renames it over path. The temp file is removed on any failure.
func writeAtomic(path, pattern string, fill func(w *bufio.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), pattern)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(fmt.Errorf("setting mode: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ExportJSONL writes the entries of st to path, one {"key","value"} object
// per line in insertion order. The file is replaced atomically.
func ExportJSONL(path string, st *store.Store[any]) error {
	records := make([]json.RawMessage, 0, st.Len())
	for key, value := range st.All() {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		line, err := json.Marshal(record{Key: key, Value: data})
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		records = append(records, line)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return writeJSONL(path, records)
}

// ImportJSONL reads path into a new store built with opts. Malformed lines
// and records without a key are skipped. Records are written through the
// store's policy, so with the default policy the first occurrence of a key
// wins.
func ImportJSONL(path string, opts ...store.Option[any]) (*store.Store[any], error) {
	lines, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	st := store.New(opts...)
	for _, line := range lines {
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Key == "" {
			continue
		}
		var value any
		if len(rec.Value) > 0 {
			if err := json.Unmarshal(rec.Value, &value); err != nil {
				continue
			}
		}
		st.Store(rec.Key, value)
	}
	return st, nil
}
