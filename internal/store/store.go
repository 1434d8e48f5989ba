// Package store persists named collections of JSON records, one file per collection.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrCorruptData       = errors.New("corrupt collection data")
	ErrDuplicateID       = errors.New("duplicate record id")
	ErrConflict          = errors.New("conflicting record exists")
)

// Record is a single schema-free document.
type Record map[string]any

// Predicate selects records during a linear scan.
type Predicate func(Record) bool

// FieldEquals matches records whose string field equals value.
func FieldEquals(field, value string) Predicate {
	return func(r Record) bool {
		v, ok := r[field].(string)
		return ok && v == value
	}
}

type collection struct {
	mu   sync.Mutex
	path string
}

// Store maps a fixed set of collection names to JSON files under a data directory.
// Every operation holds the collection's lock for its whole read-modify-write span.
type Store struct {
	dir         string
	collections map[string]*collection
}

// New ensures dir and one file per collection exist, seeding missing files with an
// empty array. Existing files are left untouched.
func New(dir string, names ...string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		dir:         dir,
		collections: make(map[string]*collection, len(names)),
	}

	for _, name := range names {
		path := filepath.Join(dir, name+".json")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
				return nil, fmt.Errorf("failed to seed collection %s: %w", name, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to stat collection %s: %w", name, err)
		}
		s.collections[name] = &collection{path: path}
	}

	return s, nil
}

// Dir returns the backing data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Collections returns the registered collection names.
func (s *Store) Collections() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names
}

func (s *Store) get(name string) (*collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	return c, nil
}

// Read loads and parses the full contents of a collection.
func (s *Store) Read(ctx context.Context, name string) ([]Record, error) {
	c, err := s.lock(ctx, name)
	if err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	return c.load()
}

// Write replaces the persisted contents of a collection.
func (s *Store) Write(ctx context.Context, name string, records []Record) error {
	c, err := s.lock(ctx, name)
	if err != nil {
		return err
	}
	defer c.mu.Unlock()
	return c.save(records)
}

// FindOne returns the first record matching pred, or nil.
func (s *Store) FindOne(ctx context.Context, name string, pred Predicate) (Record, error) {
	records, err := s.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if pred(r) {
			return r, nil
		}
	}
	return nil, nil
}

// Filter returns every record matching pred in collection order.
func (s *Store) Filter(ctx context.Context, name string, pred Predicate) ([]Record, error) {
	records, err := s.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	matched := make([]Record, 0)
	for _, r := range records {
		if pred(r) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Add appends record and returns it unchanged.
func (s *Store) Add(ctx context.Context, name string, record Record) (Record, error) {
	return s.AddUnique(ctx, name, record, nil)
}

// AddUnique appends record unless an existing record matches conflict.
func (s *Store) AddUnique(ctx context.Context, name string, record Record, conflict Predicate) (Record, error) {
	err := s.Mutate(ctx, name, func(records []Record) ([]Record, error) {
		id, hasID := record["id"].(string)
		for _, r := range records {
			if hasID && FieldEquals("id", id)(r) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
			if conflict != nil && conflict(r) {
				return nil, ErrConflict
			}
		}
		return append(records, record), nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update merges patch into the first record matching pred. Fields in patch override
// existing ones; other fields are kept. Returns nil without writing when nothing matches.
func (s *Store) Update(ctx context.Context, name string, pred Predicate, patch Record) (Record, error) {
	return s.UpdateFunc(ctx, name, pred, func(Record) (Record, error) {
		return patch, nil
	})
}

// UpdateFunc is Update with the patch computed from the current record while the
// collection is locked. An error from fn aborts the update.
func (s *Store) UpdateFunc(ctx context.Context, name string, pred Predicate, fn func(Record) (Record, error)) (Record, error) {
	var updated Record
	err := s.Mutate(ctx, name, func(records []Record) ([]Record, error) {
		for i, r := range records {
			if !pred(r) {
				continue
			}
			patch, err := fn(r)
			if err != nil {
				return nil, err
			}
			merged := make(Record, len(r)+len(patch))
			for k, v := range r {
				merged[k] = v
			}
			for k, v := range patch {
				merged[k] = v
			}
			records[i] = merged
			updated = merged
			return records, nil
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Mutate runs fn over the whole collection and persists the result. A nil slice with a
// nil error means "no change" and skips the write.
func (s *Store) Mutate(ctx context.Context, name string, fn func([]Record) ([]Record, error)) error {
	c, err := s.lock(ctx, name)
	if err != nil {
		return err
	}
	defer c.mu.Unlock()

	records, err := c.load()
	if err != nil {
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return c.save(next)
}

func (s *Store) lock(ctx context.Context, name string) (*collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := s.get(name)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	return c, nil
}

func (c *collection) load() ([]Record, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptData, c.path, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (c *collection) save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.path, err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", c.path, err)
	}
	return nil
}
