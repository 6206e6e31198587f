package config

import "sync/atomic"

// Store holds the current Watch snapshot. Readers always see a complete
// snapshot; Reload swaps the pointer or leaves it untouched on error.
type Store struct {
	path string
	load func(string) (*Watch, error)
	cur  atomic.Pointer[Watch]
}

// NewStore loads path once and returns a store serving that snapshot.
func NewStore(path string) (*Store, error) {
	return newStore(path, Load)
}

func newStore(path string, load func(string) (*Watch, error)) (*Store, error) {
	w, err := load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, load: load}
	s.cur.Store(w)
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Current() *Watch { return s.cur.Load() }

// Reload re-reads the source. On failure the previous snapshot stays current.
func (s *Store) Reload() (*Watch, error) {
	w, err := s.load(s.path)
	if err != nil {
		return s.cur.Load(), err
	}
	s.cur.Store(w)
	return w, nil
}
