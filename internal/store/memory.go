package store

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is returned by MemoryStore while save or load failures are switched on.
var ErrInjected = errors.New("store: injected failure")

// MemoryStore keeps the snapshot in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	data      []byte
	ok        bool
	saves     int
	failSaves bool
	failLoads bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store preloaded with data.
func NewMemoryStoreWith(data []byte) *MemoryStore {
	return &MemoryStore{data: append([]byte(nil), data...), ok: true}
}

func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLoads {
		return nil, ErrInjected
	}
	if !s.ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return ErrInjected
	}
	s.data = append(s.data[:0:0], data...)
	s.ok = true
	s.saves++
	return nil
}

// FailSaves switches save failure injection on or off.
func (s *MemoryStore) FailSaves(fail bool) {
	s.mu.Lock()
	s.failSaves = fail
	s.mu.Unlock()
}

// FailLoads switches load failure injection on or off.
func (s *MemoryStore) FailLoads(fail bool) {
	s.mu.Lock()
	s.failLoads = fail
	s.mu.Unlock()
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Snapshot returns the stored bytes and whether anything was saved.
func (s *MemoryStore) Snapshot() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...), s.ok
}
