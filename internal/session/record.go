// Package session implements the shared-filesystem session registry. One JSON
// record per agent session lives in a shared directory; rename atomicity is
// the only synchronization primitive, so concurrent writers never corrupt a
// record and readers never observe partial writes.
package session

import (
	"fmt"
	"time"
)

// Record describes one agent session. A record is live iff its Pid currently
// identifies a running process; anything else is stale and carries no
// authority.
type Record struct {
	ID      string    `json:"id"`
	Pid     int       `json:"pid"`
	Cwd     string    `json:"cwd"`
	Task    string    `json:"task,omitempty"`
	Started time.Time `json:"started"`
	// Window is the opaque handle to the tmux window the agent runs in,
	// needed to attach to or kill it.
	Window string `json:"window,omitempty"`
}

// Status is the liveness classification of a record at observation time.
type Status string

const (
	StatusLive  Status = "live"
	StatusStale Status = "stale"
)

const maxIDLen = 64

// DuplicateIDError reports a registration collision with a live session.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("session '%s' is already registered and alive", e.ID)
}

// InvalidIDError reports a syntactically invalid session id.
type InvalidIDError struct {
	ID     string
	Reason string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid session id '%s': %s", e.ID, e.Reason)
}

// ValidateID rejects ids that cannot safely name a file or directory in the
// shared store. Allowed: letters, digits, dash, underscore; must not start
// with a dash.
func ValidateID(id string) error {
	if id == "" {
		return &InvalidIDError{ID: id, Reason: "empty"}
	}
	if len(id) > maxIDLen {
		return &InvalidIDError{ID: id, Reason: fmt.Sprintf("longer than %d bytes", maxIDLen)}
	}
	if id[0] == '-' {
		return &InvalidIDError{ID: id, Reason: "starts with a dash"}
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return &InvalidIDError{ID: id, Reason: fmt.Sprintf("character %q not allowed", r)}
		}
	}
	return nil
}
