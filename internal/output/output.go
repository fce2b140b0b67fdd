// Package output handles all user-facing printing: plain text, JSON for
// scripts, and the shared table renderer.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Formatter writes either human text or machine JSON depending on mode.
type Formatter struct {
	writer io.Writer
	json   bool
}

// NewFormatter returns a formatter over w. When jsonMode is set, JSON is the
// only thing it emits.
func NewFormatter(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{writer: w, json: jsonMode}
}

// IsJSON reports whether the formatter is in JSON mode.
func (f *Formatter) IsJSON() bool {
	return f.json
}

// JSON encodes v with indentation.
func (f *Formatter) JSON(v interface{}) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Textln outputs formatted text with a newline. No-op in JSON mode so text
// never pollutes machine output.
func (f *Formatter) Textln(format string, args ...interface{}) {
	if f.json {
		return
	}
	fmt.Fprintf(f.writer, format+"\n", args...)
}

// Line outputs a blank line.
func (f *Formatter) Line() {
	if f.json {
		return
	}
	fmt.Fprintln(f.writer)
}

// Writer returns the underlying writer, for renderers that need it.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// PrintWarningf writes a styled warning to stderr.
func PrintWarningf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, warnStyle().Render(fmt.Sprintf(format, args...)))
}

// PrintErrorf writes a styled error to stderr.
func PrintErrorf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, errorStyle().Render(fmt.Sprintf(format, args...)))
}
