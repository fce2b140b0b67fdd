// Package tmux shells out to the tmux binary. Each agent session runs in its
// own window of a shared ctm tmux session; the window id is the opaque
// handle recorded alongside the session, and the window's pane pid is the
// process the registry tracks for liveness.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// IsInstalled checks if tmux is available.
func IsInstalled() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// EnsureInstalled returns an error if tmux is not installed.
func EnsureInstalled() error {
	if !IsInstalled() {
		return errors.New("tmux is not installed. Install it with: brew install tmux (macOS) or apt install tmux (Linux)")
	}
	return nil
}

// InTmux returns true if currently inside a tmux session.
func InTmux() bool {
	return os.Getenv("TMUX") != ""
}

// run executes a tmux command and returns stdout.
func run(args ...string) (string, error) {
	cmd := exec.Command("tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runSilent executes a tmux command ignoring output.
func runSilent(args ...string) error {
	return exec.Command("tmux", args...).Run()
}

// SessionExists checks if a tmux session exists.
func SessionExists(name string) bool {
	return runSilent("has-session", "-t", name) == nil
}

// EnsureSession creates the shared detached session if it does not exist.
func EnsureSession(name, directory string) error {
	if SessionExists(name) {
		return nil
	}
	return runSilent("new-session", "-d", "-s", name, "-c", directory)
}

// NewWindow opens a detached window named name in session, rooted at
// directory, running command, and returns the window id together with the
// pid of the window's pane process.
func NewWindow(session, name, directory, command string) (string, int, error) {
	output, err := run("new-window", "-d", "-P",
		"-F", "#{window_id}|#{pane_pid}",
		"-t", session+":",
		"-n", name,
		"-c", directory,
		command)
	if err != nil {
		return "", 0, err
	}

	parts := strings.SplitN(output, "|", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("unexpected new-window output %q", output)
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("parsing pane pid from %q: %w", output, err)
	}
	return parts[0], pid, nil
}

// RenameWindow renames a window by id. Cosmetic; the id stays stable.
func RenameWindow(windowID, name string) error {
	return runSilent("rename-window", "-t", windowID, name)
}

// KillWindow kills a window by id. A window that is already gone is fine.
func KillWindow(windowID string) error {
	if windowID == "" {
		return nil
	}
	err := runSilent("kill-window", "-t", windowID)
	if err != nil && windowExists(windowID) {
		return fmt.Errorf("killing window %s: %w", windowID, err)
	}
	return nil
}

func windowExists(windowID string) bool {
	_, err := run("display-message", "-p", "-t", windowID, "#{window_id}")
	return err == nil
}

// SelectWindow focuses a window inside its session.
func SelectWindow(windowID string) error {
	return runSilent("select-window", "-t", windowID)
}

// AttachOrSwitch attaches to a session or switches the client if already
// inside tmux.
func AttachOrSwitch(session string) error {
	if InTmux() {
		return runSilent("switch-client", "-t", session)
	}
	cmd := exec.Command("tmux", "attach", "-t", session)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ShellQuote single-quotes s for safe interpolation into a shell command.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
