// Package report implements the append-only event log and its structural
// query matcher (spec.md §4.2).
package report

import (
	"iter"
	"sync"

	"github.com/josemmo/fakeium/pkg/event"
)

// Store is an append-only, ordered sequence of events. It is safe for
// concurrent use; callers may read while a run is still appending, though
// spec.md §5 makes no ordering guarantee across concurrent runs on the
// same orchestrator.
type Store struct {
	mu     sync.RWMutex
	events []event.Event
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Append adds an event to the end of the log. Events are immutable once
// appended.
func (s *Store) Append(e event.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

// Size returns the number of events currently stored.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// GetAll returns a snapshot copy of every stored event, in insertion order.
func (s *Store) GetAll() []event.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Clear empties the log. It does not reset the sandbox's next-value-id
// counter -- per spec.md §3.1, that only happens on full dispose.
func (s *Store) Clear() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}

// FindAll returns a lazy sequence of events matching q, in insertion order.
func (s *Store) FindAll(q Query) iter.Seq[event.Event] {
	snapshot := s.GetAll()
	return func(yield func(event.Event) bool) {
		for _, e := range snapshot {
			if Matches(q, e) {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Find returns the first event matching q, if any.
func (s *Store) Find(q Query) (event.Event, bool) {
	for e := range s.FindAll(q) {
		return e, true
	}
	return event.Event{}, false
}

// Has reports whether any event matches q.
func (s *Store) Has(q Query) bool {
	_, ok := s.Find(q)
	return ok
}
