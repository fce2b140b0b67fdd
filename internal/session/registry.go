package session

import (
	"errors"
	"sort"

	"github.com/Dicklesworthstone/ctm/internal/proc"
)

// Registry layers liveness semantics over the Store: registration is mutually
// exclusive among live ids, and every read pass doubles as incremental
// garbage collection of stale records. There is no background sweeper; the
// amount of orphaned state left by crashed agents is bounded by the time
// until someone next lists.
type Registry struct {
	store *Store
	probe proc.Prober

	// OnReclaim, when set, is called with the id of every reclaimed record
	// so the caller can drop associated state (the session's mailbox).
	OnReclaim func(id string)
}

// NewRegistry builds a registry over store using probe for liveness checks.
func NewRegistry(store *Store, probe proc.Prober) *Registry {
	return &Registry{store: store, probe: probe}
}

// Store exposes the underlying record store.
func (r *Registry) Store() *Store {
	return r.store
}

// Alive reports whether rec's process currently exists.
func (r *Registry) Alive(rec Record) bool {
	return r.probe.Alive(rec.Pid)
}

// Register creates the record, failing with DuplicateIDError only when a
// *live* record already holds the id. A stale holder is reclaimed
// transparently; crashed sessions must not squat on their names. Mutual
// exclusion comes from the store's exclusive create: of two racing
// registrations for the same id, exactly one wins.
func (r *Registry) Register(rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	for attempt := 0; attempt < 2; attempt++ {
		err := r.store.Create(rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrExist) {
			return err
		}
		existing, gerr := r.store.Get(rec.ID)
		if gerr == nil && r.probe.Alive(existing.Pid) {
			return &DuplicateIDError{ID: rec.ID}
		}
		// Stale or unreadable holder: reclaim it and try the create again.
		r.reclaim(rec.ID)
	}
	return &DuplicateIDError{ID: rec.ID}
}

// ListLive returns every record whose process is alive, sorted by start
// time. Stale records visited along the way are reclaimed as a side effect;
// reclamation is normal housekeeping, never an error surfaced to a caller
// who merely asked to list.
func (r *Registry) ListLive() ([]Record, error) {
	records, err := r.store.List()
	if err != nil {
		return nil, err
	}

	var live []Record
	for _, rec := range records {
		if r.probe.Alive(rec.Pid) {
			live = append(live, rec)
			continue
		}
		r.reclaim(rec.ID)
	}

	sort.Slice(live, func(i, j int) bool {
		if live[i].Started.Equal(live[j].Started) {
			return live[i].ID < live[j].ID
		}
		return live[i].Started.Before(live[j].Started)
	})
	return live, nil
}

// ReclaimAll forces a full scan-and-GC pass. Used by the explicit cleanup
// command; listings already reclaim incrementally.
func (r *Registry) ReclaimAll() error {
	_, err := r.ListLive()
	return err
}

func (r *Registry) reclaim(id string) {
	_ = r.store.Delete(id)
	if r.OnReclaim != nil {
		r.OnReclaim(id)
	}
}
