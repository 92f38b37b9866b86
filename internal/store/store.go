// Package store persists claim records in a single JSON file that maps each
// submitter to the ordered list of their claims.
//
// Records are only ever appended. Claim ids are assigned at append time from
// the length of the submitter's list (CLM001, CLM002, ...). All reads and
// writes within the process go through one mutex, so concurrent appends for
// the same submitter never lose an update or reuse an id.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/claimflow/internal/model"
)

var (
	// ErrNotFound is returned when no record matches
	ErrNotFound = errors.New("claim record not found")
	// ErrCorrupt marks a store file that could not be parsed
	ErrCorrupt = errors.New("result store is corrupt")
)

// ClaimID formats the id of the n-th claim of a submitter (1-based)
func ClaimID(n int) string {
	return fmt.Sprintf("CLM%03d", n)
}

// mapping is the file content; records stay raw so earlier entries are rewritten as they were
type mapping map[string][]json.RawMessage

// Store is the append-only result store
type Store struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// New creates a store backed by the file at path
func New(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Append assigns the next claim id for the submitter, stores the record and returns the id.
// A missing or corrupt file starts a fresh mapping.
func (s *Store) Append(submitterID string, rec model.ClaimRecord) (string, error) {
	if submitterID == "" {
		submitterID = model.AnonymousSubmitter
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if errors.Is(err, ErrCorrupt) {
		s.logger.Warn("Replacing corrupt result store", zap.String("path", s.path), zap.Error(err))
	} else if err != nil {
		return "", err
	}

	rec.SubmitterID = submitterID
	rec.ClaimID = ClaimID(len(m[submitterID]) + 1)

	raw, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	m[submitterID] = append(m[submitterID], raw)

	if err := s.write(m); err != nil {
		return "", err
	}

	s.logger.Info("Claim record stored",
		zap.String("submitter_id", submitterID),
		zap.String("claim_id", rec.ClaimID))
	return rec.ClaimID, nil
}

// All returns every record by submitter
func (s *Store) All() (map[string][]model.ClaimRecord, error) {
	m, err := s.read()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]model.ClaimRecord, len(m))
	for id, raws := range m {
		records, err := decode(raws)
		if err != nil {
			return nil, fmt.Errorf("submitter %s: %w", id, err)
		}
		out[id] = records
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Submitter returns the records of one submitter in append order
func (s *Store) Submitter(submitterID string) ([]model.ClaimRecord, error) {
	m, err := s.read()
	if err != nil {
		return nil, err
	}
	raws, ok := m[submitterID]
	if !ok || len(raws) == 0 {
		return nil, fmt.Errorf("%w: submitter %s", ErrNotFound, submitterID)
	}
	return decode(raws)
}

// Claim returns one record of one submitter
func (s *Store) Claim(submitterID, claimID string) (model.ClaimRecord, error) {
	records, err := s.Submitter(submitterID)
	if err != nil {
		return model.ClaimRecord{}, err
	}
	for _, r := range records {
		if r.ClaimID == claimID {
			return r, nil
		}
	}
	return model.ClaimRecord{}, fmt.Errorf("%w: %s/%s", ErrNotFound, submitterID, claimID)
}

// FindClaim returns the first record with claimID, searching submitters in id order
func (s *Store) FindClaim(claimID string) (model.ClaimRecord, error) {
	all, err := s.All()
	if errors.Is(err, ErrNotFound) {
		return model.ClaimRecord{}, fmt.Errorf("%w: %s", ErrNotFound, claimID)
	}
	if err != nil {
		return model.ClaimRecord{}, err
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, r := range all[id] {
			if r.ClaimID == claimID {
				return r, nil
			}
		}
	}
	return model.ClaimRecord{}, fmt.Errorf("%w: %s", ErrNotFound, claimID)
}

// read loads the mapping under the lock, treating corruption as an empty store
func (s *Store) read() (mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if errors.Is(err, ErrCorrupt) {
		s.logger.Warn("Result store is corrupt", zap.String("path", s.path), zap.Error(err))
		return mapping{}, nil
	}
	return m, err
}

// load reads the file. ErrCorrupt means the file as a whole is not a JSON
// object; it comes with an empty mapping.
func (s *Store) load() (mapping, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read result store: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return mapping{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	m := make(mapping, len(raw))
	for id, value := range raw {
		m[id] = normalize(value)
	}
	return m, nil
}

// normalize turns a stored value into a list. Any value that is not a list,
// including a bare string or number, becomes a one-element list; null is empty.
func normalize(value json.RawMessage) []json.RawMessage {
	trimmed := bytes.TrimSpace(value)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var list []json.RawMessage
	if len(trimmed) > 0 && trimmed[0] == '[' && json.Unmarshal(trimmed, &list) == nil {
		return list
	}
	return []json.RawMessage{value}
}

// write replaces the file atomically
func (s *Store) write(m mapping) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace result store: %w", err)
	}
	return nil
}

// decode reads the records of one submitter. Entries that are not JSON
// objects were never written by Append and are skipped; they still count
// toward the next claim id.
func decode(raws []json.RawMessage) ([]model.ClaimRecord, error) {
	out := make([]model.ClaimRecord, 0, len(raws))
	for i, raw := range raws {
		if t := bytes.TrimSpace(raw); len(t) == 0 || t[0] != '{' {
			continue
		}
		var r model.ClaimRecord
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
