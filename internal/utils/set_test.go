// Copyright (c) 2024 tgkit

package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncSet(t *testing.T) {
	s := NewSyncSet[int]()

	assert.True(t, s.Add(1))
	assert.False(t, s.Add(1))
	assert.True(t, s.Add(2))

	assert.True(t, s.Has(1))
	assert.False(t, s.Has(3))
	assert.Equal(t, 2, s.Len())

	s.Delete(1)
	assert.False(t, s.Has(1))
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Add(2))
}

func TestSyncSetConcurrent(t *testing.T) {
	s := NewSyncSet[int]()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Add(g*1000 + i)
				s.Has(i)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 800, s.Len())
}
