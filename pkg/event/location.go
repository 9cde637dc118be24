package event

// Location names the closest user source frame at the time an event was
// captured: an absolute URL and a 1-based line/column pair. When no user
// frame can be found (the whole call stack is inside the bootstrap),
// UnknownLocation is used.
type Location struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// UnknownLocation is returned by the bootstrap's stack walk when every
// frame belongs to the bootstrap itself (spec.md §4.8).
var UnknownLocation = Location{Filename: "<unknown>", Line: 1, Column: 1}

// Valid reports whether the location satisfies the invariants in
// spec.md §8.1.1: non-empty filename, line and column both >= 1.
func (l Location) Valid() bool {
	return l.Filename != "" && l.Line >= 1 && l.Column >= 1
}
