package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/ctm/internal/util"
)

const fileExtension = ".json"

// ErrNotExist is returned by Get for an unknown session id.
var ErrNotExist = errors.New("session record not found")

// ErrExist is returned by Create when a record already holds the id.
var ErrExist = errors.New("session record already exists")

// Store is the shared directory of session records, one file per id. All
// mutations go through write-temp-then-rename, so a concurrent Put and Delete
// on the same id never leave a partial record visible to a third reader.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created lazily on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+fileExtension)
}

// Put creates or replaces the record for rec.ID.
func (s *Store) Put(rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing session record: %w", err)
	}
	if err := util.AtomicWriteFile(s.path(rec.ID), data, 0600); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}
	return nil
}

// Create writes the record for rec.ID only if no record holds the id,
// failing with ErrExist otherwise. The content is staged in a temp file and
// linked into place, so the existence check and the publish are one atomic
// step and readers never see a partial record. This is the mutual exclusion
// primitive behind duplicate-id detection.
func (s *Store) Create(rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing session record: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "ctm-atomic-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Link(tmpPath, s.path(rec.ID)); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("session '%s': %w", rec.ID, ErrExist)
		}
		return fmt.Errorf("publishing session record: %w", err)
	}
	return nil
}

// Get reads the record for id. Returns ErrNotExist if no record is present
// or the stored record cannot be parsed; a record we cannot read carries no
// authority.
func (s *Store) Get(id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("session '%s': %w", id, ErrNotExist)
		}
		return Record{}, fmt.Errorf("reading session record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("session '%s': %w", id, ErrNotExist)
	}
	return rec, nil
}

// Delete removes the record for id. Removing an absent record is not an
// error; deletes race with lazy reclamation.
func (s *Store) Delete(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting session record: %w", err)
	}
	return nil
}

// List returns every parseable record in the store. Files that fail to parse
// are removed on the spot: atomic writes mean a malformed file is debris from
// a crashed writer, not an in-flight record.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExtension) {
			continue
		}
		if strings.HasPrefix(name, "ctm-atomic-") {
			continue // in-flight temp file from a concurrent writer
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil || rec.ID == "" {
			_ = os.Remove(path)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
