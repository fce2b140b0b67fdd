package output

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	colorOnce    sync.Once
	colorEnabled bool
)

// ColorEnabled reports whether styled output should be used: stdout must be
// a terminal with some color support, and neither NO_COLOR nor CTM_NO_COLOR
// may be set.
func ColorEnabled() bool {
	colorOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" || os.Getenv("CTM_NO_COLOR") != "" {
			return
		}
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return
		}
		colorEnabled = termenv.ColorProfile() != termenv.Ascii
	})
	return colorEnabled
}

func style(s lipgloss.Style, text string) string {
	if !ColorEnabled() {
		return text
	}
	return s.Render(text)
}

// Live styles a live-session marker.
func Live(text string) string {
	return style(lipgloss.NewStyle().Foreground(lipgloss.Color("42")), text)
}

// Stale styles a stale-session marker.
func Stale(text string) string {
	return style(lipgloss.NewStyle().Foreground(lipgloss.Color("214")), text)
}

// Dim styles secondary text.
func Dim(text string) string {
	return style(lipgloss.NewStyle().Faint(true), text)
}

// Bold styles emphasized text.
func Bold(text string) string {
	return style(lipgloss.NewStyle().Bold(true), text)
}

func warnStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
}

// TermWidth returns the terminal width of stdout, or a conservative default
// when stdout is not a terminal.
func TermWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}
