// Package errx adds formatted context to sentinel errors while keeping
// errors.Is matching against the sentinel (and any further wrapped cause).
package errx

import "fmt"

// With returns sentinel wrapped with a formatted suffix. format may itself
// contain additional %w verbs to wrap further causes.
func With(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w"+format, append([]any{sentinel}, args...)...)
}

// Wrap combines a sentinel with an underlying cause; both are wrapped so
// errors.Is matches either.
func Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}
