// Package hook implements the host-declared override table: copied
// values, host callables, and intra-guest aliases (spec.md §3.4, §4.3).
package hook

import (
	"context"
	"errors"

	"github.com/josemmo/fakeium/internal/errx"
)

// ErrInvalidValue is returned when a declared hook value cannot be
// classified into one of the three variants.
var ErrInvalidValue = errors.New("hook: value is not structured-cloneable, callable, or a Reference")

// Kind discriminates the three hook variants in spec.md §3.4.
type Kind int

const (
	KindCopy Kind = iota
	KindCallable
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindCallable:
		return "callable"
	case KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// HostFunc is a host-side function reference invoked from the guest;
// invocation is round-tripped across the structured-clone boundary.
type HostFunc func(ctx context.Context, args []any) (any, error)

// Reference declares an alias: reads and calls at the hook's path behave
// as if they occurred at Path, and are recorded under Path's name.
type Reference struct {
	Path string
}

// Hook is a declared override keyed by Path.
type Hook struct {
	Path     string
	Writable bool
	Kind     Kind
	Copied   any
	Callable HostFunc
	Alias    string
}

// Classify builds a Hook from a caller-supplied value, matching spec.md
// §4.1's hook() classification: a HostFunc becomes a callable hook, a
// Reference becomes an alias, anything else is deposited as a copy.
func Classify(path string, value any, writable bool) (Hook, error) {
	switch v := value.(type) {
	case HostFunc:
		return Hook{Path: path, Writable: writable, Kind: KindCallable, Callable: v}, nil
	case func(context.Context, []any) (any, error):
		return Hook{Path: path, Writable: writable, Kind: KindCallable, Callable: HostFunc(v)}, nil
	case Reference:
		if v.Path == "" {
			return Hook{}, errx.With(ErrInvalidValue, ": alias at %q has empty target", path)
		}
		return Hook{Path: path, Writable: writable, Kind: KindAlias, Alias: v.Path}, nil
	default:
		return Hook{Path: path, Writable: writable, Kind: KindCopy, Copied: value}, nil
	}
}
