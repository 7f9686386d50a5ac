// Package ids generates record ids.
//
// Uniqueness is only required within one sibling collection, but the default
// generator never repeats a value within a process, which keeps freshly
// generated ids disjoint from each other across the whole tree.
package ids

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// Generator yields record ids.
type Generator interface {
	Next() int64
}

// Clock is a process-wide monotonic generator seeded from wall-clock milliseconds
// plus a random offset, so ids generated by separate processes rarely meet.
type Clock struct {
	last atomic.Int64
}

// NewClock creates a Clock seeded at now.
func NewClock() *Clock {
	c := &Clock{}
	c.last.Store(time.Now().UnixMilli()*1000 + rand.Int63n(1000))
	return c
}

// Next returns a value strictly greater than any previously returned one.
func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

var defaultGenerator = NewClock()

// Default returns the shared process-wide generator.
func Default() Generator {
	return defaultGenerator
}

// Next draws from the shared generator.
func Next() int64 {
	return defaultGenerator.Next()
}

// Sequence is a deterministic generator for tests and fixtures.
// It is not safe for concurrent use.
type Sequence struct {
	next int64
}

// NewSequence starts at start.
func NewSequence(start int64) *Sequence {
	return &Sequence{next: start}
}

// Next returns the current value and advances.
func (s *Sequence) Next() int64 {
	v := s.next
	s.next++
	return v
}

// Set is a set of ids.
type Set map[int64]struct{}

// NewSet builds a set from ids.
func NewSet(values ...int64) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s Set) Add(v int64) { s[v] = struct{}{} }

// Has reports membership. A nil set contains nothing.
func (s Set) Has(v int64) bool {
	_, ok := s[v]
	return ok
}

// Fresh draws from gen until it finds a value rejected by none of the taken predicates.
func Fresh(gen Generator, taken ...func(int64) bool) int64 {
	for {
		id := gen.Next()
		clash := false
		for _, t := range taken {
			if t != nil && t(id) {
				clash = true
				break
			}
		}
		if !clash {
			return id
		}
	}
}
