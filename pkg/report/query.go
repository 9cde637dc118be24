package report

import "github.com/josemmo/fakeium/pkg/event"

// Query is a partial event record; every non-nil field is a conjunctive
// filter, per spec.md §4.2. There is no indexing: evaluating a Query is
// always a linear scan.
type Query struct {
	Type          *event.Type
	Path          *string
	Filename      *string
	Line          *int
	Column        *int
	Value         *event.Value
	Returns       *event.Value
	IsConstructor *bool

	// Arguments is nil when the query does not filter on arguments at all.
	// A non-nil, empty slice matches only CallEvents with no arguments.
	// A non-nil, non-empty slice requires every queried Value to match
	// *some* argument in the event (set-containment, not positional) --
	// spec.md §4.2's Open Question 1 asymmetry is intentional and
	// preserved here unchanged.
	Arguments *[]event.Value
}

// WithType returns a copy of q filtering on the given event type.
func (q Query) WithType(t event.Type) Query { q.Type = &t; return q }

// WithPath returns a copy of q filtering on the given accessor path.
func (q Query) WithPath(p string) Query { q.Path = &p; return q }

// Matches reports whether e satisfies every filter set on q.
func Matches(q Query, e event.Event) bool {
	if q.Type != nil && *q.Type != e.Type {
		return false
	}
	if q.Path != nil && *q.Path != e.Path {
		return false
	}
	if q.Filename != nil && *q.Filename != e.Location.Filename {
		return false
	}
	if q.Line != nil && *q.Line != e.Location.Line {
		return false
	}
	if q.Column != nil && *q.Column != e.Location.Column {
		return false
	}
	if q.Value != nil {
		if !e.Value.Valid() || !matchesValue(*q.Value, e.Value) {
			return false
		}
	}
	if q.Returns != nil {
		if e.Type != event.TypeCall || !matchesValue(*q.Returns, e.Returns) {
			return false
		}
	}
	if q.IsConstructor != nil {
		if e.Type != event.TypeCall || e.IsConstructor != *q.IsConstructor {
			return false
		}
	}
	if q.Arguments != nil {
		if e.Type != event.TypeCall {
			return false
		}
		if !matchesArguments(*q.Arguments, e.Arguments) {
			return false
		}
	}
	return true
}

func matchesArguments(queried, actual []event.Value) bool {
	if len(queried) == 0 {
		return len(actual) == 0
	}
	for _, qv := range queried {
		found := false
		for _, av := range actual {
			if matchesValue(qv, av) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchesValue implements spec.md §4.2's matchesValue(q, t): refs compare
// by id, literals compare by Go equality (which distinguishes undefined
// from null -- see event.Undefined).
func matchesValue(q, t event.Value) bool {
	if id, ok := q.RefID(); ok {
		tid, tok := t.RefID()
		return tok && tid == id
	}
	if lit, ok := q.LiteralValue(); ok {
		tlit, tok := t.LiteralValue()
		return tok && lit == tlit
	}
	return false
}
