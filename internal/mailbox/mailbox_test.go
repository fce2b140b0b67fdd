package mailbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestBox(t *testing.T) *Box {
	t.Helper()
	return NewBox(filepath.Join(t.TempDir(), "mail"))
}

func TestSendAndDrainOrder(t *testing.T) {
	box := newTestBox(t)

	for i := 0; i < 5; i++ {
		if err := box.Send("alice", "bob", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	msgs, err := box.Drain("alice")
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("drained %d messages, want 5", len(msgs))
	}
	for i, msg := range msgs {
		if want := fmt.Sprintf("msg-%d", i); msg.Body != want {
			t.Errorf("msgs[%d].Body = %q, want %q", i, msg.Body, want)
		}
		if msg.From != "bob" {
			t.Errorf("msgs[%d].From = %q, want bob", i, msg.From)
		}
	}
}

func TestDrainEmptiesMailbox(t *testing.T) {
	box := newTestBox(t)

	if err := box.Send("alice", "bob", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := box.Drain("alice"); err != nil {
		t.Fatalf("first Drain: %v", err)
	}

	msgs, err := box.Drain("alice")
	if err != nil {
		t.Fatalf("second Drain: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("second Drain returned %d messages, want 0", len(msgs))
	}
}

func TestDrainEmptyAndMissingMailbox(t *testing.T) {
	box := newTestBox(t)

	msgs, err := box.Drain("never-seen")
	if err != nil {
		t.Fatalf("Drain on missing mailbox: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages, want 0", len(msgs))
	}
}

func TestSendQueuesForNonLiveTarget(t *testing.T) {
	box := newTestBox(t)

	// No session exists for "future"; the message must still queue.
	if err := box.Send("future", "bob", "early bird"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := box.Pending("future"); got != 1 {
		t.Errorf("Pending = %d, want 1", got)
	}
}

func TestSendInvalidTarget(t *testing.T) {
	box := newTestBox(t)

	for _, id := range []string{"", "a/b", "-dash", ".."} {
		err := box.Send(id, "bob", "x")
		var invalid *InvalidTargetError
		if !errors.As(err, &invalid) {
			t.Errorf("Send to %q: %v, want InvalidTargetError", id, err)
		}
	}

	// Invalid sender is rejected the same way.
	var invalid *InvalidTargetError
	if err := box.Send("alice", "bad sender", "x"); !errors.As(err, &invalid) {
		t.Errorf("Send from invalid sender: %v, want InvalidTargetError", err)
	}
}

func TestConcurrentSenders(t *testing.T) {
	box := newTestBox(t)

	const senders = 8
	const perSender = 10

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			from := fmt.Sprintf("sender%d", s)
			for i := 0; i < perSender; i++ {
				if err := box.Send("shared", from, fmt.Sprintf("%s-%d", from, i)); err != nil {
					t.Errorf("Send: %v", err)
				}
			}
		}(s)
	}
	wg.Wait()

	msgs, err := box.Drain("shared")
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != senders*perSender {
		t.Fatalf("drained %d messages, want %d", len(msgs), senders*perSender)
	}

	// Per-sender order must hold; interleaving across senders is unspecified.
	lastSeen := make(map[string]int)
	for _, msg := range msgs {
		var seq int
		if _, err := fmt.Sscanf(msg.Body, msg.From+"-%d", &seq); err != nil {
			t.Fatalf("unparseable body %q: %v", msg.Body, err)
		}
		if prev, ok := lastSeen[msg.From]; ok && seq <= prev {
			t.Errorf("sender %s out of order: %d after %d", msg.From, seq, prev)
		}
		lastSeen[msg.From] = seq
	}
}

func TestBroadcastSkipsSenderAndCollectsFailures(t *testing.T) {
	box := newTestBox(t)

	err := box.Broadcast([]string{"a", "b", "me"}, "me", "ping")
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if got := box.Pending("a"); got != 1 {
		t.Errorf("Pending(a) = %d, want 1", got)
	}
	if got := box.Pending("b"); got != 1 {
		t.Errorf("Pending(b) = %d, want 1", got)
	}
	if got := box.Pending("me"); got != 0 {
		t.Errorf("Pending(me) = %d, want 0 (sender excluded)", got)
	}

	// One bad target does not abort the rest.
	err = box.Broadcast([]string{"c", "bad/id", "d"}, "me", "ping")
	var partial *PartialFailure
	if !errors.As(err, &partial) {
		t.Fatalf("Broadcast with bad target: %v, want PartialFailure", err)
	}
	if len(partial.Failed) != 1 {
		t.Errorf("Failed = %v, want 1 entry", partial.Failed)
	}
	if got := box.Pending("c"); got != 1 {
		t.Errorf("Pending(c) = %d, want 1", got)
	}
	if got := box.Pending("d"); got != 1 {
		t.Errorf("Pending(d) = %d, want 1", got)
	}
}

func TestDrainSkipsCorruptMessages(t *testing.T) {
	box := newTestBox(t)

	if err := box.Send("alice", "bob", "good"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	corrupt := filepath.Join(box.Root(), "alice", "00000000000000000000-zzzzzzzz.json")
	if err := os.WriteFile(corrupt, []byte("{nope"), 0600); err != nil {
		t.Fatalf("writing corrupt message: %v", err)
	}

	msgs, err := box.Drain("alice")
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Body != "good" {
		t.Errorf("unexpected messages: %+v", msgs)
	}
	if _, err := os.Stat(corrupt); !os.IsNotExist(err) {
		t.Error("corrupt message not removed")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	box := newTestBox(t)

	if err := box.Send("alice", "bob", "keep me"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs, err := box.Peek("alice")
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("Peek returned %d messages, want 1", len(msgs))
	}
	if got := box.Pending("alice"); got != 1 {
		t.Errorf("Pending after Peek = %d, want 1", got)
	}
}

func TestRemove(t *testing.T) {
	box := newTestBox(t)

	if err := box.Send("alice", "bob", "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := box.Remove("alice"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(box.Root(), "alice")); !os.IsNotExist(err) {
		t.Error("mailbox directory still present")
	}

	// Removing an absent mailbox is fine.
	if err := box.Remove("alice"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestExpireOrphans(t *testing.T) {
	box := newTestBox(t)

	if err := box.Send("known", "bob", "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := box.Send("orphan-old", "bob", "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := box.Send("orphan-new", "bob", "x"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Age the old orphan's files past the retention cutoff.
	old := time.Now().Add(-48 * time.Hour)
	dir := filepath.Join(box.Root(), "orphan-old")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading orphan dir: %v", err)
	}
	for _, entry := range entries {
		if err := os.Chtimes(filepath.Join(dir, entry.Name()), old, old); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}
	if err := os.Chtimes(dir, old, old); err != nil {
		t.Fatalf("Chtimes dir: %v", err)
	}

	removed, err := box.ExpireOrphans(map[string]bool{"known": true}, 24*time.Hour)
	if err != nil {
		t.Fatalf("ExpireOrphans: %v", err)
	}
	if len(removed) != 1 || removed[0] != "orphan-old" {
		t.Errorf("removed = %v, want [orphan-old]", removed)
	}
	if got := box.Pending("known"); got != 1 {
		t.Errorf("known mailbox touched: pending = %d", got)
	}
	if got := box.Pending("orphan-new"); got != 1 {
		t.Errorf("young orphan touched: pending = %d", got)
	}
}
