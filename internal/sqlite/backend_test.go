// Tests for the SQLite snapshot backend.
package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mesh-intelligence/patterns/pkg/store"
	"github.com/mesh-intelligence/patterns/pkg/types"
)

func attachedBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	err := b.Attach(config)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// Verify database file created
	dbPath := filepath.Join(tmpDir, DBFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("%s not created", DBFileName)
	}

	// Verify double attach fails
	err = b.Attach(config)
	if !errors.Is(err, types.ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	b.Detach()
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{DataDir: t.TempDir()})
	if !errors.Is(err, types.ErrBackendEmpty) {
		t.Errorf("expected ErrBackendEmpty, got %v", err)
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	// Verify idempotent
	if err := b.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	// Verify operations fail after detach
	if _, err := b.Load("any"); !errors.Is(err, types.ErrDetached) {
		t.Errorf("Load: expected ErrDetached, got %v", err)
	}
	if err := b.Save("any", store.New[any]()); !errors.Is(err, types.ErrDetached) {
		t.Errorf("Save: expected ErrDetached, got %v", err)
	}
	if _, err := b.Shelves(); !errors.Is(err, types.ErrDetached) {
		t.Errorf("Shelves: expected ErrDetached, got %v", err)
	}
	if err := b.Drop("any"); !errors.Is(err, types.ErrDetached) {
		t.Errorf("Drop: expected ErrDetached, got %v", err)
	}
}

func TestBackend_SaveLoadRoundTrip(t *testing.T) {
	b := attachedBackend(t)

	st := NewStore(types.PolicyReplace)
	st.Store("zeta", "last")
	st.Store("alpha", 1.5)
	st.Store("mid", map[string]any{"on": true})

	if err := b.Save("main", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Load("main")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Policy() != types.PolicyReplace {
		t.Errorf("policy = %v, want replace", got.Policy())
	}
	wantKeys := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(got.Keys(), wantKeys) {
		t.Errorf("keys = %v, want %v", got.Keys(), wantKeys)
	}
	if v, _ := got.Get("alpha"); v != 1.5 {
		t.Errorf("alpha = %v, want 1.5", v)
	}
	if v, _ := got.Get("mid"); !reflect.DeepEqual(v, map[string]any{"on": true}) {
		t.Errorf("mid = %v", v)
	}
}

func TestBackend_SaveReplacesSnapshot(t *testing.T) {
	b := attachedBackend(t)

	first := NewStore(types.PolicyRejectIfExists)
	first.Store("a", "1")
	first.Store("b", "2")
	if err := b.Save("s", first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := NewStore(types.PolicyRejectIfExists)
	second.Store("c", "3")
	if err := b.Save("s", second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Load("s")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got.Keys(), []string{"c"}) {
		t.Errorf("keys = %v, want [c]", got.Keys())
	}
}

func TestBackend_SaveEmptyName(t *testing.T) {
	b := attachedBackend(t)
	if err := b.Save("", store.New[any]()); !errors.Is(err, types.ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestBackend_LoadMissing(t *testing.T) {
	b := attachedBackend(t)

	if _, err := b.Load("nope"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	st, err := b.LoadOrNew("nope", types.PolicyMergeOverlay)
	if err != nil {
		t.Fatalf("LoadOrNew failed: %v", err)
	}
	if st.Len() != 0 || st.Policy() != types.PolicyMergeOverlay {
		t.Errorf("LoadOrNew returned len=%d policy=%v", st.Len(), st.Policy())
	}
}

func TestBackend_LoadedStoreMerges(t *testing.T) {
	b := attachedBackend(t)

	st := NewStore(types.PolicyMergeOverlay)
	st.Store("cfg", map[string]any{"a": 1.0})
	if err := b.Save("m", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Load("m")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got.Store("cfg", map[string]any{"b": 2.0})

	v, _ := got.Get("cfg")
	if !reflect.DeepEqual(v, map[string]any{"a": 1.0, "b": 2.0}) {
		t.Errorf("cfg = %v", v)
	}
}

func TestBackend_ShelvesAndDrop(t *testing.T) {
	b := attachedBackend(t)

	one := NewStore(types.PolicyRejectIfExists)
	one.Store("k", "v")
	two := NewStore(types.PolicyReplace)

	if err := b.Save("beta", one); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := b.Save("alpha", two); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	infos, err := b.Shelves()
	if err != nil {
		t.Fatalf("Shelves failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 shelves, got %d", len(infos))
	}
	if infos[0].Name != "alpha" || infos[1].Name != "beta" {
		t.Errorf("shelves not sorted: %v, %v", infos[0].Name, infos[1].Name)
	}
	if infos[1].Entries != 1 || infos[1].Policy != "reject" {
		t.Errorf("beta info = %+v", infos[1])
	}
	if infos[0].ShelfID == "" || infos[0].ShelfID == infos[1].ShelfID {
		t.Errorf("shelf ids not unique: %q %q", infos[0].ShelfID, infos[1].ShelfID)
	}

	// Shelf ID survives a re-save
	id := infos[1].ShelfID
	if err := b.Save("beta", one); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	infos, _ = b.Shelves()
	if infos[1].ShelfID != id {
		t.Errorf("shelf id changed on save: %q -> %q", id, infos[1].ShelfID)
	}

	if err := b.Drop("beta"); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := b.Load("beta"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("expected ErrNotFound after drop, got %v", err)
	}
	if err := b.Drop("beta"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("second Drop: expected ErrNotFound, got %v", err)
	}
}

func TestBackend_PersistsAcrossAttach(t *testing.T) {
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}

	b := NewBackend()
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	st := NewStore(types.PolicyRejectIfExists)
	st.Store("k", "v")
	if err := b.Save("keep", st); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	b.Detach()

	b2 := NewBackend()
	if err := b2.Attach(config); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer b2.Detach()

	got, err := b2.Load("keep")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, _ := got.Get("k"); v != "v" {
		t.Errorf("k = %v, want v", v)
	}
}
