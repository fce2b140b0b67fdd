package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates file with correct content", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test1.txt")
		content := []byte("hello world")

		if err := AtomicWriteFile(path, content, 0644); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading file: %v", err)
		}
		if string(got) != string(content) {
			t.Errorf("content mismatch: got %q, want %q", string(got), string(content))
		}
	})

	t.Run("overwrites existing file atomically", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test2.txt")

		if err := AtomicWriteFile(path, []byte("initial"), 0644); err != nil {
			t.Fatalf("first write failed: %v", err)
		}
		if err := AtomicWriteFile(path, []byte("updated content"), 0644); err != nil {
			t.Fatalf("second write failed: %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading file: %v", err)
		}
		if string(got) != "updated content" {
			t.Errorf("content mismatch: got %q, want %q", string(got), "updated content")
		}
	})

	t.Run("errors on missing parent directory", func(t *testing.T) {
		nested := filepath.Join(tmpDir, "nonexistent", "subdir", "test.txt")
		if err := AtomicWriteFile(nested, []byte("test"), 0644); err == nil {
			t.Fatal("expected error for nonexistent parent directory")
		}
	})

	t.Run("cleans up temp file on success", func(t *testing.T) {
		path := filepath.Join(tmpDir, "test3.txt")
		if err := AtomicWriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("AtomicWriteFile failed: %v", err)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("reading dir: %v", err)
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "ctm-atomic-") {
				t.Errorf("temp file left behind: %s", entry.Name())
			}
		}
	})
}

func TestAtomicWriteFileConcurrent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "concurrent.txt")

	// All writers race on one path; every observed state must be a complete
	// write from exactly one of them.
	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			content := []byte(strings.Repeat(string(rune('A'+n)), 100))
			if err := AtomicWriteFile(path, content, 0644); err != nil {
				t.Errorf("concurrent write %d failed: %v", n, err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if len(content) != 100 {
		t.Errorf("unexpected content length: %d", len(content))
	}
	first := content[0]
	for i, b := range content {
		if b != first {
			t.Errorf("content corruption at byte %d: got %c, expected %c", i, b, first)
			break
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"myproject", "myproject"},
		{"My Project", "my-project"},
		{"fix/parser bugs", "fix-parser-bugs"},
		{"  spaced  out  ", "spaced-out"},
		{"trailing---", "trailing"},
		{"", ""},
		{"___", ""},
		{"über-repo", "ber-repo"},
		{"Ünïcode tásk", "n-code-t-sk"},
		{"日本語", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"this is a longer string", 10, "this is..."},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
