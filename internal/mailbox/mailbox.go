// Package mailbox implements per-session message queues on the shared
// filesystem. Every message is a distinct, uniquely named file created by an
// atomic rename, so unrelated senders never block or corrupt each other, and
// a drain racing a send sees either the whole message or none of it.
package mailbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/ctm/internal/session"
	"github.com/Dicklesworthstone/ctm/internal/util"
)

const messageExtension = ".json"

// seq disambiguates messages written by this process within one clock tick.
var seq atomic.Uint64

// Message is one mailbox entry. Timestamps come from the sender's clock and
// are advisory; ordering decisions use file names, which preserve each
// sender's own send order.
type Message struct {
	From string    `json:"from"`
	Time time.Time `json:"ts"`
	Body string    `json:"body"`
}

// InvalidTargetError reports a syntactically invalid id in a send.
type InvalidTargetError struct {
	ID  string
	Err error
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target '%s': %v", e.ID, e.Err)
}

func (e *InvalidTargetError) Unwrap() error { return e.Err }

// PartialFailure reports a broadcast in which some deliveries failed. The
// successful deliveries stand.
type PartialFailure struct {
	Failed map[string]error
}

func (e *PartialFailure) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("delivery failed for %d target(s): %s", len(ids), strings.Join(ids, ", "))
}

// Box is the root directory of all mailboxes, one subdirectory per session
// id. Mailboxes exist independently of session records: messages may be
// queued for a session that is still starting up.
type Box struct {
	root string
}

// NewBox returns a mailbox layer rooted at dir.
func NewBox(dir string) *Box {
	return &Box{root: dir}
}

// Root returns the mailbox root directory.
func (b *Box) Root() string {
	return b.root
}

func (b *Box) dir(id string) string {
	return filepath.Join(b.root, id)
}

func validateTarget(id string) error {
	if err := session.ValidateID(id); err != nil {
		return &InvalidTargetError{ID: id, Err: err}
	}
	return nil
}

// Send appends a message to target's mailbox, creating it if needed. The
// target does not have to be live; delivery waits for its next drain. Fails
// only when an id is syntactically invalid.
func (b *Box) Send(target, sender, body string) error {
	if err := validateTarget(target); err != nil {
		return err
	}
	if err := validateTarget(sender); err != nil {
		return err
	}

	dir := b.dir(target)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating mailbox: %w", err)
	}

	msg := Message{From: sender, Time: time.Now(), Body: body}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serializing message: %w", err)
	}

	// Nanosecond prefix plus a process-local sequence makes names sort into
	// per-sender send order even on a coarse clock; the uuid suffix keeps
	// two sender processes hitting the same instant distinct.
	name := fmt.Sprintf("%020d-%010d-%s%s",
		msg.Time.UnixNano(), seq.Add(1), uuid.NewString()[:8], messageExtension)
	if err := util.AtomicWriteFile(filepath.Join(dir, name), data, 0600); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// Broadcast sends body to every id in targets except the sender itself.
// Per-target failures are collected into a PartialFailure instead of
// aborting the remaining deliveries.
func (b *Box) Broadcast(targets []string, sender, body string) error {
	failed := make(map[string]error)
	for _, target := range targets {
		if target == sender {
			continue
		}
		if err := b.Send(target, sender, body); err != nil {
			failed[target] = err
		}
	}
	if len(failed) > 0 {
		return &PartialFailure{Failed: failed}
	}
	return nil
}

// Drain returns all pending messages for owner in arrival-name order and
// empties the mailbox. Intended to be called only by the owning session;
// filesystem permissions are the only enforcement.
func (b *Box) Drain(owner string) ([]Message, error) {
	if err := validateTarget(owner); err != nil {
		return nil, err
	}

	names, err := b.messageNames(owner)
	if err != nil {
		return nil, err
	}

	var msgs []Message
	for _, name := range names {
		path := filepath.Join(b.dir(owner), name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // lost a race with another drain
			}
			return msgs, fmt.Errorf("reading message: %w", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// Atomic renames mean this is debris, not a half-sent message.
			_ = os.Remove(path)
			continue
		}
		msgs = append(msgs, msg)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return msgs, fmt.Errorf("removing drained message: %w", err)
		}
	}
	return msgs, nil
}

// Peek returns pending messages without consuming them.
func (b *Box) Peek(id string) ([]Message, error) {
	if err := validateTarget(id); err != nil {
		return nil, err
	}
	names, err := b.messageNames(id)
	if err != nil {
		return nil, err
	}
	var msgs []Message
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(b.dir(id), name))
		if err != nil {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Pending returns the number of queued messages for id.
func (b *Box) Pending(id string) int {
	names, err := b.messageNames(id)
	if err != nil {
		return 0
	}
	return len(names)
}

// Remove deletes id's mailbox and everything in it.
func (b *Box) Remove(id string) error {
	if err := validateTarget(id); err != nil {
		return err
	}
	if err := os.RemoveAll(b.dir(id)); err != nil {
		return fmt.Errorf("removing mailbox: %w", err)
	}
	return nil
}

// ExpireOrphans removes mailboxes whose id is not in known and whose newest
// content is older than retention. Messages queued ahead of a spawn are
// legitimate, so young orphans are left alone. Returns the removed ids.
func (b *Box) ExpireOrphans(known map[string]bool, retention time.Duration) ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading mailbox root: %w", err)
	}

	cutoff := time.Now().Add(-retention)
	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() || known[entry.Name()] {
			continue
		}
		if b.newestModTime(entry.Name()).After(cutoff) {
			continue
		}
		if err := os.RemoveAll(b.dir(entry.Name())); err == nil {
			removed = append(removed, entry.Name())
		}
	}
	sort.Strings(removed)
	return removed, nil
}

// messageNames returns sorted message file names for id. Lexical order is
// arrival order because names are zero-padded nanosecond timestamps.
func (b *Box) messageNames(id string) ([]string, error) {
	entries, err := os.ReadDir(b.dir(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading mailbox: %w", err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, messageExtension) {
			continue
		}
		if strings.HasPrefix(name, "ctm-atomic-") {
			continue // in-flight send
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *Box) newestModTime(id string) time.Time {
	dir := b.dir(id)
	newest := time.Time{}
	info, err := os.Stat(dir)
	if err == nil {
		newest = info.ModTime()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newest
	}
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().After(newest) {
			newest = fi.ModTime()
		}
	}
	return newest
}
