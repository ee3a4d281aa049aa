// Copyright (c) 2024 tgkit

package utils

import "sync"

const minSizeSet = 128

type null = struct{}

// SyncSet is a mutex-guarded set. Add reports whether the key was new,
// which makes it usable as a seen-before guard.
type SyncSet[T comparable] struct {
	mu sync.RWMutex
	m  map[T]null
}

func NewSyncSet[T comparable]() *SyncSet[T] {
	return &SyncSet[T]{m: make(map[T]null, minSizeSet)}
}

func (s *SyncSet[T]) Add(key T) bool {
	s.mu.Lock()
	prevLen := len(s.m)
	s.m[key] = null{}
	cLen := len(s.m)
	s.mu.Unlock()
	return prevLen != cLen
}

func (s *SyncSet[T]) Has(key T) bool {
	s.mu.RLock()
	_, ok := s.m[key]
	s.mu.RUnlock()
	return ok
}

func (s *SyncSet[T]) Delete(key T) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

func (s *SyncSet[T]) Len() int {
	s.mu.RLock()
	c := len(s.m)
	s.mu.RUnlock()
	return c
}

func (s *SyncSet[T]) Clear() {
	s.mu.Lock()
	clear(s.m)
	s.mu.Unlock()
}
