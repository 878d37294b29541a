// Package hset implements a set of elements that are not comparable with
// ==, keyed by an immutable.Hasher
package hset

import (
	"iter"

	"github.com/benbjohnson/immutable"
)

// HSet is a shallow wrapper around a map of hash buckets.
// Use immutable.Set if you are not going to be modifying this.
type HSet[A any] struct {
	hasher     immutable.Hasher[A]
	underlying map[uint32][]A
}

func Empty[A any](hasher immutable.Hasher[A]) HSet[A] {
	return HSet[A]{
		hasher:     hasher,
		underlying: make(map[uint32][]A),
	}
}

func New[A any](hasher immutable.Hasher[A], elems ...A) HSet[A] {
	n := Empty(hasher)
	n.Add(elems...)
	return n
}

func (s HSet[A]) find(elem A) (uint32, int) {
	h := s.hasher.Hash(elem)
	for i, other := range s.underlying[h] {
		if s.hasher.Equal(elem, other) {
			return h, i
		}
	}
	return h, -1
}

// Add inserts elems, ignoring those already present
func (s HSet[A]) Add(elems ...A) {
	for _, elem := range elems {
		s.Insert(elem)
	}
}

// Insert adds elem and reports whether it was not already present
func (s HSet[A]) Insert(elem A) bool {
	h, i := s.find(elem)
	if i >= 0 {
		return false
	}
	s.underlying[h] = append(s.underlying[h], elem)
	return true
}

func (s HSet[A]) Remove(elems ...A) {
	for _, elem := range elems {
		h, i := s.find(elem)
		if i < 0 {
			continue
		}
		bucket := s.underlying[h]
		s.underlying[h] = append(bucket[:i:i], bucket[i+1:]...)
		if len(s.underlying[h]) == 0 {
			delete(s.underlying, h)
		}
	}
}

func (s HSet[A]) Contains(elem A) bool {
	_, i := s.find(elem)
	return i >= 0
}

func (s HSet[A]) Len() int {
	n := 0
	for _, bucket := range s.underlying {
		n += len(bucket)
	}
	return n
}

func (s HSet[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, bucket := range s.underlying {
			for _, elem := range bucket {
				if !yield(elem) {
					return
				}
			}
		}
	}
}
