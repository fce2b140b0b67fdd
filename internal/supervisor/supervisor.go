// Package supervisor terminates sessions and removes their shared state.
package supervisor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dicklesworthstone/ctm/internal/mailbox"
	"github.com/Dicklesworthstone/ctm/internal/proc"
	"github.com/Dicklesworthstone/ctm/internal/session"
	"github.com/Dicklesworthstone/ctm/internal/tmux"
)

// NotFoundError reports an operation against an unknown session id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no session '%s'", e.ID)
}

// PartialFailure reports a bulk kill in which some targets failed. The
// successful kills stand.
type PartialFailure struct {
	Failed map[string]error
}

func (e *PartialFailure) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("kill failed for %d session(s): %s", len(ids), strings.Join(ids, ", "))
}

// CleanupReport summarizes an explicit cleanup pass.
type CleanupReport struct {
	LiveSessions     int      `json:"live_sessions"`
	ExpiredMailboxes []string `json:"expired_mailboxes,omitempty"`
}

// Supervisor owns the destructive half of the session lifecycle: kill,
// kill-all, and explicit cleanup.
type Supervisor struct {
	Registry *session.Registry
	Box      *mailbox.Box
	Probe    proc.Prober

	// KillWindow tears down the recorded execution context. Swappable so
	// tests run without a tmux server.
	KillWindow func(handle string) error
}

// New returns a supervisor killing tmux windows by recorded handle.
func New(reg *session.Registry, box *mailbox.Box, probe proc.Prober) *Supervisor {
	return &Supervisor{
		Registry:   reg,
		Box:        box,
		Probe:      probe,
		KillWindow: tmux.KillWindow,
	}
}

// Kill requests termination of id's process and removes its record and
// mailbox. The signal is best-effort: success means "termination requested",
// not "process confirmed dead". Unknown ids fail with NotFoundError and
// mutate nothing.
func (s *Supervisor) Kill(id string) error {
	rec, err := s.Registry.Store().Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotExist) {
			return &NotFoundError{ID: id}
		}
		return err
	}

	var termErr error
	if s.Probe.Alive(rec.Pid) {
		termErr = s.Probe.Terminate(rec.Pid)
	}
	if rec.Window != "" {
		_ = s.KillWindow(rec.Window)
	}

	if err := s.Registry.Store().Delete(id); err != nil {
		return errors.Join(termErr, err)
	}
	if err := s.Box.Remove(id); err != nil {
		return errors.Join(termErr, err)
	}
	return termErr
}

// KillAll kills every session with a record, live or stale. Individual
// failures are collected into a PartialFailure instead of aborting the
// batch. Returns the ids that were fully torn down.
func (s *Supervisor) KillAll() ([]string, error) {
	records, err := s.Registry.Store().List()
	if err != nil {
		return nil, err
	}

	var killed []string
	failed := make(map[string]error)
	for _, rec := range records {
		if err := s.Kill(rec.ID); err != nil {
			// A concurrent kill or reclaim already removed it; that is the
			// outcome we wanted.
			var notFound *NotFoundError
			if errors.As(err, &notFound) {
				continue
			}
			failed[rec.ID] = err
			continue
		}
		killed = append(killed, rec.ID)
	}
	sort.Strings(killed)

	if len(failed) > 0 {
		return killed, &PartialFailure{Failed: failed}
	}
	return killed, nil
}

// Cleanup forces a full reclaim pass over the registry, then expires
// orphaned mailboxes older than retention.
func (s *Supervisor) Cleanup(retention time.Duration) (CleanupReport, error) {
	live, err := s.Registry.ListLive()
	if err != nil {
		return CleanupReport{}, err
	}

	known := make(map[string]bool, len(live))
	for _, rec := range live {
		known[rec.ID] = true
	}

	expired, err := s.Box.ExpireOrphans(known, retention)
	if err != nil {
		return CleanupReport{}, err
	}
	return CleanupReport{LiveSessions: len(live), ExpiredMailboxes: expired}, nil
}
