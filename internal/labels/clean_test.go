package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCleanFileKeepsNormalizedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "1.txt")
	content := "11 0 0 10 10\n" +
		"12 10 10 20 20\n" +
		"11 0.050000 0.050000 0.100000 0.100000\n" +
		"12 0.150000 0.150000 0.100000 0.100000\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	original, kept, err := CleanFile(path, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if original != 4 || kept != 2 {
		t.Errorf("expected 4 original / 2 kept, got %d / %d", original, kept)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "11 0.050000 0.050000 0.100000 0.100000\n12 0.150000 0.150000 0.100000 0.100000\n"
	if string(got) != want {
		t.Errorf("expected %q, got %q", want, string(got))
	}
}

func TestCleanFileBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2.txt")
	content := "11 0 0 10 10\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := CleanFile(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if string(bak) != content {
		t.Errorf("backup content mismatch: %q", string(bak))
	}

	got, _ := os.ReadFile(path)
	if string(got) != "" {
		t.Errorf("expected empty cleaned file, got %q", string(got))
	}
}

func TestCleanDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"1.txt": "11 0 0 10 10\n11 0.1 0.1 0.2 0.2\n",
		"2.txt": "21 0.3 0.3 0.1 0.1\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Non-label file is ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := CleanDir(dir, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Files != 2 {
		t.Errorf("expected 2 files, got %d", stats.Files)
	}
	if stats.Original != 3 || stats.Kept != 2 || stats.Removed() != 1 {
		t.Errorf("expected 3/2/1, got %d/%d/%d", stats.Original, stats.Kept, stats.Removed())
	}
}
