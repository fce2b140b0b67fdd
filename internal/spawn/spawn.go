// Package spawn launches a new agent in an isolated tmux window and
// registers its session, retrying id collisions with a pluggable
// disambiguation strategy.
package spawn

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Dicklesworthstone/ctm/internal/session"
	"github.com/Dicklesworthstone/ctm/internal/tmux"
	"github.com/Dicklesworthstone/ctm/internal/util"
)

// DefaultMaxAttempts bounds the id collision retry loop.
const DefaultMaxAttempts = 5

// Error reports a failed spawn. The launched window, if any, has already
// been torn down.
type Error struct {
	Base string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("spawning session '%s': %v", e.Base, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Launcher creates and tears down isolated execution contexts. The handle is
// opaque to everything above the launcher.
type Launcher interface {
	// Launch starts the agent rooted at cwd and returns its pid plus the
	// context handle. The process exists before Launch returns; a session
	// record never points at a pid that was never valid.
	Launch(id, cwd, task string) (pid int, handle string, err error)
	// Rename relabels the context after id disambiguation. Best-effort.
	Rename(handle, id string) error
	// Discard tears down a context whose registration failed.
	Discard(handle string) error
}

// IDStrategy derives the candidate id for a given retry attempt. Attempt
// numbering starts at 1.
type IDStrategy func(base string, attempt int) string

// DefaultIDStrategy uses the base name as-is, then appends an incrementing
// numeric suffix: demo, demo-2, demo-3, ...
func DefaultIDStrategy(base string, attempt int) string {
	if attempt <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, attempt)
}

// DeriveBase builds a candidate id base from the spawn context: the working
// directory's name, plus the first words of the task when present. The
// result always passes id validation; slugging admits only ASCII, so a
// fully non-ASCII context falls back to "agent".
func DeriveBase(cwd, task string) string {
	base := util.Slug(filepath.Base(cwd))
	if ts := util.Slug(util.Truncate(task, 20)); ts != "" {
		if base != "" {
			base += "-" + ts
		} else {
			base = ts
		}
	}
	if len(base) > 40 {
		base = strings.TrimRight(base[:40], "-")
	}
	if base == "" {
		base = "agent"
	}
	return base
}

// Spawner wires a launcher to the registry.
type Spawner struct {
	Registry    *session.Registry
	Launcher    Launcher
	Strategy    IDStrategy
	MaxAttempts int
}

// New returns a spawner with the default id strategy and retry budget.
func New(reg *session.Registry, launcher Launcher) *Spawner {
	return &Spawner{
		Registry:    reg,
		Launcher:    launcher,
		Strategy:    DefaultIDStrategy,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Spawn launches the agent and registers its session, returning the final
// record. The process is launched exactly once; only the registration
// retries on id collisions. If every candidate id is held by a live session
// the window is discarded and a spawn Error returned.
func (s *Spawner) Spawn(cwd, task string) (session.Record, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return session.Record{}, &Error{Base: cwd, Err: err}
	}
	base := DeriveBase(abs, task)

	// Find a candidate that is free right now so the window gets a sensible
	// name. Registration below still rechecks; two racing spawns may both
	// pick the same candidate here and exactly one will win it.
	candidate := s.firstFreeCandidate(base)

	pid, handle, err := s.Launcher.Launch(candidate, abs, task)
	if err != nil {
		return session.Record{}, &Error{Base: base, Err: err}
	}

	rec := session.Record{
		Pid:     pid,
		Cwd:     abs,
		Task:    task,
		Started: time.Now(),
		Window:  handle,
	}

	for attempt := 1; attempt <= s.maxAttempts(); attempt++ {
		rec.ID = s.Strategy(base, attempt)
		err := s.Registry.Register(rec)
		if err == nil {
			if rec.ID != candidate {
				_ = s.Launcher.Rename(handle, rec.ID)
			}
			return rec, nil
		}
		var dup *session.DuplicateIDError
		if !errors.As(err, &dup) {
			_ = s.Launcher.Discard(handle)
			return session.Record{}, &Error{Base: base, Err: err}
		}
	}

	_ = s.Launcher.Discard(handle)
	return session.Record{}, &Error{
		Base: base,
		Err:  fmt.Errorf("no free id after %d attempts", s.maxAttempts()),
	}
}

func (s *Spawner) firstFreeCandidate(base string) string {
	store := s.Registry.Store()
	for attempt := 1; attempt <= s.maxAttempts(); attempt++ {
		id := s.Strategy(base, attempt)
		rec, err := store.Get(id)
		if err != nil || !s.Registry.Alive(rec) {
			return id
		}
	}
	return s.Strategy(base, 1)
}

func (s *Spawner) maxAttempts() int {
	if s.MaxAttempts > 0 {
		return s.MaxAttempts
	}
	return DefaultMaxAttempts
}

// TmuxLauncher launches agents as windows of a shared tmux session.
type TmuxLauncher struct {
	// Session is the tmux session windows are created in; created on demand.
	Session string
	// Command is the agent command line, e.g. "claude". The session id and
	// task reach the agent through CTM_SESSION and CTM_TASK.
	Command string
}

// Launch opens a new detached window running the agent command.
func (l *TmuxLauncher) Launch(id, cwd, task string) (int, string, error) {
	if err := tmux.EnsureInstalled(); err != nil {
		return 0, "", err
	}
	if err := tmux.EnsureSession(l.Session, cwd); err != nil {
		return 0, "", fmt.Errorf("ensuring tmux session '%s': %w", l.Session, err)
	}

	command := fmt.Sprintf("CTM_SESSION=%s CTM_TASK=%s exec %s",
		tmux.ShellQuote(id), tmux.ShellQuote(task), l.Command)

	windowID, pid, err := tmux.NewWindow(l.Session, id, cwd, command)
	if err != nil {
		return 0, "", err
	}
	return pid, windowID, nil
}

// Rename relabels the window after id disambiguation.
func (l *TmuxLauncher) Rename(handle, id string) error {
	return tmux.RenameWindow(handle, id)
}

// Discard kills the window of a spawn that failed to register.
func (l *TmuxLauncher) Discard(handle string) error {
	return tmux.KillWindow(handle)
}
