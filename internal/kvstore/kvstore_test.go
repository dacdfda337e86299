package kvstore

import (
	"os"
	"path/filepath"
	"testing"
)

// stores returns one of each implementation for shared behavior tests.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return map[string]Store{
		"file":   fs,
		"memory": NewMemoryStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, _ := s.Get("missing"); ok {
				t.Error("Get on missing key reported present")
			}

			if err := s.Set("k", []byte(`{"v":1}`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, ok, err := s.Get("k")
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if string(got) != `{"v":1}` {
				t.Errorf("Get = %q", got)
			}

			if err := s.Set("k", []byte("replaced")); err != nil {
				t.Fatalf("second Set failed: %v", err)
			}
			got, _, _ = s.Get("k")
			if string(got) != "replaced" {
				t.Errorf("Get after replace = %q", got)
			}

			if err := s.Delete("k"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, ok, _ := s.Get("k"); ok {
				t.Error("key present after Delete")
			}

			// Deleting a missing key is not an error.
			if err := s.Delete("k"); err != nil {
				t.Errorf("second Delete errored: %v", err)
			}
		})
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if err := fs.Set("../escape/attempt", []byte("x")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file in store dir, found %d", len(entries))
	}
	if filepath.Dir(filepath.Join(dir, entries[0].Name())) != dir {
		t.Error("value escaped the store directory")
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := first.Set("history", []byte("[]")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("second NewFileStore failed: %v", err)
	}
	got, ok, err := second.Get("history")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(got) != "[]" {
		t.Errorf("Get = %q", got)
	}
}
