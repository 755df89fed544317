// Package order persists the user's preferred launch order and applies it to
// freshly discovered targets.
package order

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/superrun/internal/launch"
)

// RecordKey names the single record the order is stored under.
const RecordKey = "superrun.configurationOrder"

// Backend is the durable key-value record store the order lives in.
// kvstore.FileStore and kvstore.SQLiteStore implement it.
type Backend interface {
	ReadString(key string) (string, bool, error)
	WriteString(key, value string) error
}

// WriteError reports that a save could not be made durable. The store's
// in-memory order still reflects the save.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("order: write: %v", e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }

// Store keeps the latest order in memory and mirrors every change to the
// backend synchronously.
type Store struct {
	backend Backend

	mu      sync.RWMutex
	current []string
}

// NewStore wraps backend. A nil backend keeps the order in memory only.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load returns the last saved order, never an error. A missing record yields
// an empty order. When the record cannot be read or decoded, Load falls back
// to the order last held in memory, which is empty until Save or a successful
// Load populated it.
func (s *Store) Load() []string {
	if s == nil {
		return []string{}
	}
	if s.backend != nil {
		if raw, ok, err := s.backend.ReadString(RecordKey); err == nil && ok {
			if ids, err := decode(raw); err == nil {
				s.mu.Lock()
				s.current = ids
				s.mu.Unlock()
			}
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// Current returns the in-memory order without touching the backend.
func (s *Store) Current() []string {
	if s == nil {
		return []string{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// Save replaces the stored order with ids exactly as given. IDs are opaque:
// no trimming or de-duplication happens here. The in-memory copy is updated
// even when the durable write fails; that failure comes back as *WriteError.
func (s *Store) Save(ids []string) error {
	if s == nil {
		return &WriteError{Err: fmt.Errorf("nil store")}
	}
	saved := clone(ids)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = saved
	if s.backend == nil {
		return nil
	}
	raw, err := encode(saved)
	if err != nil {
		return &WriteError{Err: err}
	}
	if err := s.backend.WriteString(RecordKey, raw); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// ApplyOrder sorts candidates by the position of their ID in saved. Unknown
// IDs trail in their original relative order.
func ApplyOrder(candidates []launch.Target, saved []string) []launch.Target {
	out := make([]launch.Target, len(candidates))
	copy(out, candidates)
	if len(saved) == 0 {
		return out
	}
	rank := make(map[string]int, len(saved))
	for i, id := range saved {
		if _, dup := rank[id]; !dup {
			rank[id] = i
		}
	}
	key := func(t launch.Target) int {
		if r, ok := rank[t.ID]; ok {
			return r
		}
		return len(saved)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(out[i]) < key(out[j])
	})
	return out
}

// IDs projects targets to their identifiers.
func IDs(targets []launch.Target) []string {
	ids := make([]string, len(targets))
	for i, t := range targets {
		ids[i] = t.ID
	}
	return ids
}

// Move swaps the entry at index with its neighbour delta rows away (-1 up,
// +1 down). It returns the new slice, the entry's new index, and false when
// the move would leave the bounds.
func Move[T any](items []T, index, delta int) ([]T, int, bool) {
	target := index + delta
	if index < 0 || index >= len(items) || target < 0 || target >= len(items) || delta == 0 {
		return items, index, false
	}
	out := make([]T, len(items))
	copy(out, items)
	out[index], out[target] = out[target], out[index]
	return out, target, true
}

func encode(ids []string) (string, error) {
	data, err := yaml.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decode(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var ids []string
	if err := yaml.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, err
	}
	return clone(ids), nil
}

func clone(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
