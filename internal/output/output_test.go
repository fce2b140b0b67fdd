package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatterTextMode(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, false)

	f.Textln("hello %s", "world")
	if got := buf.String(); got != "hello world\n" {
		t.Errorf("Textln output = %q", got)
	}
	if f.IsJSON() {
		t.Error("IsJSON = true for text formatter")
	}
}

func TestFormatterJSONMode(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(&buf, true)

	// Text is suppressed so JSON output stays parseable.
	f.Textln("noise")
	f.Line()
	if buf.Len() != 0 {
		t.Errorf("text leaked into JSON mode: %q", buf.String())
	}

	if err := f.JSON(map[string]int{"count": 2}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 2`) {
		t.Errorf("JSON output = %q", buf.String())
	}
}

func TestTableAlignment(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "TASK")
	table.AddRow("demo", "build the docs")
	table.AddRow("demo-2", "x")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4 (header, separator, 2 rows)", len(lines))
	}
	if !strings.Contains(lines[0], "ID") || !strings.Contains(lines[0], "TASK") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "--") {
		t.Errorf("separator = %q", lines[1])
	}
	// The TASK column starts at the same offset in every row.
	taskCol := strings.Index(lines[0], "TASK")
	if idx := strings.Index(lines[2], "build"); idx != taskCol {
		t.Errorf("row 1 task at %d, header at %d", idx, taskCol)
	}
	if idx := strings.Index(lines[3], "x"); idx != taskCol {
		t.Errorf("row 2 task at %d, header at %d", idx, taskCol)
	}
}

func TestTableStyledCellAlignment(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "TASK")
	// Pre-styled cell: escape bytes must not count toward the column width.
	table.AddRow("\x1b[38;5;42mdemo\x1b[0m", "build the docs")
	table.AddRow("demo-2", "x")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	taskCol := strings.Index(lines[0], "TASK")
	plain := strings.NewReplacer("\x1b[38;5;42m", "", "\x1b[0m", "").Replace(lines[2])
	if idx := strings.Index(plain, "build"); idx != taskCol {
		t.Errorf("styled row task at %d, header at %d\nrow: %q", idx, taskCol, lines[2])
	}
	if idx := strings.Index(lines[3], "x"); idx != taskCol {
		t.Errorf("plain row task at %d, header at %d", idx, taskCol)
	}
}

func TestTableShortRows(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "A", "B", "C")
	table.AddRow("only-one")
	table.Render()
	if !strings.Contains(buf.String(), "only-one") {
		t.Errorf("output = %q", buf.String())
	}
}
