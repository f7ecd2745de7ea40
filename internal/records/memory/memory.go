package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tally/internal/core"
	"tally/internal/records"
)

// Store keeps records in process memory in insertion order.
type Store struct {
	mu    sync.Mutex
	items []core.Record
}

func New(seed ...core.Record) *Store {
	s := &Store{}
	for _, r := range seed {
		if r.ID == "" || s.indexOf(r.ID) >= 0 {
			continue
		}
		s.items = append(s.items, r)
	}
	return s
}

// NewFromFiles seeds the store from base/seed_records.json, an array of
// rows in either column naming. A missing or unreadable file yields an
// empty store.
func NewFromFiles(base string) *Store {
	rows := readRows(filepath.Join(base, "seed_records.json"))
	seed := make([]core.Record, 0, len(rows))
	for i, row := range rows {
		r := records.Decode(row)
		if r.ID == "" {
			r.ID = fmt.Sprintf("seed-%d", i+1)
		}
		seed = append(seed, r)
	}
	return New(seed...)
}

// List returns a copy of all records.
func (s *Store) List(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items...), nil
}

// Insert appends rows. Nothing is stored if any id is empty or already
// present.
func (s *Store) Insert(_ context.Context, rows []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return fmt.Errorf("insert: record without id")
		}
		if seen[r.ID] || s.indexOf(r.ID) >= 0 {
			return fmt.Errorf("insert: duplicate id %q", r.ID)
		}
		seen[r.ID] = true
	}
	s.items = append(s.items, rows...)
	return nil
}

func (s *Store) Update(_ context.Context, id string, d core.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return records.ErrNotFound
	}
	s.items[i] = d.ApplyTo(s.items[i])
	return nil
}

// Upsert replaces the record with r.ID or appends r.
func (s *Store) Upsert(_ context.Context, r core.Record) error {
	if r.ID == "" {
		return fmt.Errorf("upsert: record without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(r.ID); i >= 0 {
		s.items[i] = r
		return nil
	}
	s.items = append(s.items, r)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return records.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func readRows(path string) []map[string]any {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var rows []map[string]any
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil
	}
	return rows
}
