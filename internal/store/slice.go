package store

import (
	"sync"
	"time"
)

type Keyed interface {
	RecordID() string
}

// Slice caches one resource collection. Every operation is a pure reducer over
// the guarded array; readers always get copies.
type Slice[T Keyed] struct {
	mu       sync.RWMutex
	items    []T
	loaded   bool
	loadedAt time.Time
	gen      uint64
	ttl      time.Duration
	now      func() time.Time
}

// NewSlice returns an empty, stale slice. A ttl <= 0 disables caching of reads.
func NewSlice[T Keyed](ttl time.Duration) *Slice[T] {
	return &Slice[T]{ttl: ttl, now: time.Now}
}

func (s *Slice[T]) ReplaceAll(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(items)
}

// ReplaceAllSince loads items only if nothing was written since gen was read.
// It reports whether the slice was replaced.
func (s *Slice[T]) ReplaceAllSince(gen uint64, items []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.replace(items)
	return true
}

func (s *Slice[T]) replace(items []T) {
	next := make([]T, len(items))
	copy(next, items)
	s.items = next
	s.loaded = true
	s.loadedAt = s.now()
	s.gen++
}

// Generation is bumped by every mutation and by Invalidate.
func (s *Slice[T]) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Slice[T]) Add(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	s.gen++
}

// ReplaceByID swaps the matching element in place; unknown ids are a no-op.
func (s *Slice[T]) ReplaceByID(item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].RecordID() == item.RecordID() {
			s.items[i] = item
			s.gen++
			return true
		}
	}
	return false
}

// RemoveByID drops the matching element; unknown ids are a no-op.
func (s *Slice[T]) RemoveByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].RecordID() == id {
			next := make([]T, 0, len(s.items)-1)
			next = append(next, s.items[:i]...)
			s.items = append(next, s.items[i+1:]...)
			s.gen++
			return true
		}
	}
	return false
}

func (s *Slice[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Slice[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Slice[T]) Fresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded && s.ttl > 0 && s.now().Sub(s.loadedAt) < s.ttl
}

func (s *Slice[T]) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.gen++
}
