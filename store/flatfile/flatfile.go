// Package flatfile persists account records as a single pretty-printed
// JSON file, the format the original portal used ({"users":[...]} /
// {"teachers":[...]}).
//
// The original read and rewrote these files with no coordination, so
// two concurrent signups could both pass the duplicate check. Here
// every access serializes on a mutex and each write lands via an
// atomic rename, so a crash mid-write can never truncate the store.
package flatfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/internal/logutil"
	"github.com/cyberheroes/portal/store"
)

type (
	// Store is a flat-file account store for one realm.
	Store[T account.Record[T]] struct {
		mu   sync.Mutex
		path string
		key  string
		seed func() []T
	}
)

// New returns a store backed by the JSON file at path. key is the
// top-level field holding the record array ("users" or "teachers").
// seed, when non-nil, provides the initial records written the first
// time the file is found missing.
func New[T account.Record[T]](path, key string, seed func() []T) *Store[T] {
	return &Store[T]{path: path, key: key, seed: seed}
}

// ReadAll loads every record, creating (and possibly seeding) the file
// if it does not exist yet.
func (s *Store[T]) ReadAll(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(ctx)
}

// WriteAll replaces the entire record list.
func (s *Store[T]) WriteAll(ctx context.Context, recs []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(recs)
}

// Insert appends rec, failing with store.ErrDuplicate if a record with
// the same username already exists. The check and the write happen
// under the same lock.
func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.readLocked(ctx)
	if err != nil {
		return err
	}
	if _, exists := account.FindByUsername(recs, rec.AccountName()); exists {
		return store.ErrDuplicate
	}
	return s.writeLocked(append(recs, rec))
}

func (s *Store[T]) readLocked(ctx context.Context) ([]T, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.createLocked(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("flatfile: reading %v: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("flatfile: decoding %v: %w", s.path, err)
	}
	var recs []T
	if body, ok := doc[s.key]; ok {
		if err := json.Unmarshal(body, &recs); err != nil {
			return nil, fmt.Errorf("flatfile: decoding %v of %v: %w", s.key, s.path, err)
		}
	}
	return recs, nil
}

func (s *Store[T]) createLocked(ctx context.Context) ([]T, error) {
	var recs []T
	if s.seed != nil {
		recs = s.seed()
	}
	if len(recs) > 0 {
		logger := logutil.GetOrDefault(ctx)
		logger.Warn().
			Str("store.path", s.path).
			Int("store.seeded", len(recs)).
			Msg("Store file missing, creating it with seed records")
	}
	if err := s.writeLocked(recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Store[T]) writeLocked(recs []T) error {
	if recs == nil {
		recs = []T{}
	}
	raw, err := json.MarshalIndent(map[string][]T{s.key: recs}, "", "  ")
	if err != nil {
		return fmt.Errorf("flatfile: encoding %v: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("flatfile: creating data dir: %w", err)
	}
	if err := renameio.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("flatfile: writing %v: %w", s.path, err)
	}
	return nil
}
