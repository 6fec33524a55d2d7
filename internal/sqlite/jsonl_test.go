// Tests for JSONL import and export.
package sqlite

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

func TestExportImportJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shelf.jsonl")

	st := NewStore(types.PolicyRejectIfExists)
	st.Store("b", "two")
	st.Store("a", 1.0)
	st.Store("c", []any{"x", true})

	if err := ExportJSONL(path, st); err != nil {
		t.Fatalf("ExportJSONL failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != `{"key":"b","value":"two"}` {
		t.Errorf("first line = %s", lines[0])
	}

	got, err := ImportJSONL(path)
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if !reflect.DeepEqual(got.Keys(), []string{"b", "a", "c"}) {
		t.Errorf("keys = %v", got.Keys())
	}
	if v, _ := got.Get("c"); !reflect.DeepEqual(v, []any{"x", true}) {
		t.Errorf("c = %v", v)
	}
}

func TestImportJSONLSkipsMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := strings.Join([]string{
		`{"key":"a","value":1}`,
		`not json`,
		``,
		`{"value":"no key"}`,
		`{"key":"a","value":2}`,
		`{"key":"b"}`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ImportJSONL(path)
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if !reflect.DeepEqual(got.Keys(), []string{"a", "b"}) {
		t.Errorf("keys = %v", got.Keys())
	}
	if v, _ := got.Get("a"); v != 1.0 {
		t.Errorf("a = %v, want first value 1", v)
	}
	if v, ok := got.Get("b"); !ok || v != nil {
		t.Errorf("b = %v (%v), want nil", v, ok)
	}
}

func TestImportJSONLWithReplacePolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	content := "{\"key\":\"a\",\"value\":1}\n{\"key\":\"a\",\"value\":2}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ImportJSONL(path, store.WithPolicy[any](types.PolicyReplace))
	if err != nil {
		t.Fatalf("ImportJSONL failed: %v", err)
	}
	if v, _ := got.Get("a"); v != 2.0 {
		t.Errorf("a = %v, want 2", v)
	}
}

func TestImportJSONLMissingFile(t *testing.T) {
	if _, err := ImportJSONL(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteJSONLLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	st := store.New[any]()
	st.Store("k", "v")
	if err := ExportJSONL(path, st); err != nil {
		t.Fatalf("ExportJSONL failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.jsonl" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestWriteFileAtomicReplacesContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "shelf.json")

	if err := WriteFileAtomic(path, []byte("old")); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("new\n")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new\n" {
		t.Errorf("contents = %q, want %q", data, "new\n")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestWriteFileAtomicFailureKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shelf.yaml")
	if err := os.WriteFile(path, []byte("kept"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A directory in place of the target makes the rename fail.
	blocked := filepath.Join(dir, "blocked")
	if err := os.MkdirAll(filepath.Join(blocked, "child"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(blocked, []byte("x")); err == nil {
		t.Fatal("expected an error writing over a non-empty directory")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "kept" {
		t.Errorf("contents = %q, want %q", data, "kept")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("temp file left behind: %v", entries)
	}
}
