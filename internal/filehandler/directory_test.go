package filehandler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "day2")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		filepath.Join(dir, "b.jpg"):    []byte("b"),
		filepath.Join(dir, "a.png"):    []byte("a"),
		filepath.Join(dir, "notes.md"): []byte("skip me"),
		filepath.Join(sub, "c.heic"):   []byte("c"),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("recursive", func(t *testing.T) {
		photos, err := LoadDirectory(dir, ScanOptions{})
		if err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
		var names []string
		for _, p := range photos {
			names = append(names, p.Filename)
		}
		want := []string{"a.png", "b.jpg", "c.heic"}
		if len(names) != len(want) {
			t.Fatalf("got %v, want %v", names, want)
		}
		for i := range want {
			if names[i] != want[i] {
				t.Errorf("photo[%d] = %q, want %q", i, names[i], want[i])
			}
		}
		if string(photos[0].Data) != "a" {
			t.Errorf("photo data = %q, want %q", photos[0].Data, "a")
		}
	})

	t.Run("top level only", func(t *testing.T) {
		photos, err := LoadDirectory(dir, ScanOptions{MaxDepth: 1})
		if err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
		if len(photos) != 2 {
			t.Errorf("got %d photos, want 2", len(photos))
		}
	})

	t.Run("limit", func(t *testing.T) {
		photos, err := LoadDirectory(dir, ScanOptions{Limit: 1})
		if err != nil {
			t.Fatalf("LoadDirectory: %v", err)
		}
		if len(photos) != 1 {
			t.Errorf("got %d photos, want 1", len(photos))
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := LoadDirectory(filepath.Join(dir, "nope"), ScanOptions{}); err == nil {
			t.Error("expected error for missing directory")
		}
	})
}
