// Package resolver resolves a module/script specifier into an absolute URL
// and, via a user-supplied callback, into source bytes (spec.md §4.5, §6.4).
package resolver

import (
	"context"
	"errors"
	"net/url"

	"github.com/josemmo/fakeium/internal/errx"
)

// ErrSourceNotFound is raised when the user resolver returns nil for a URL.
var ErrSourceNotFound = errors.New("resolver: source not found")

// ErrNoResolver is raised when a module import is encountered but no
// resolver has been registered via Driver.SetResolver.
var ErrNoResolver = errors.New("resolver: no resolver registered")

// Func resolves an absolute URL to UTF-8 source bytes, or (nil, nil) if no
// source exists at that URL.
type Func func(ctx context.Context, u *url.URL) ([]byte, error)

// Driver resolves specifiers against a referrer (or the sandbox's origin)
// and fetches source text through the registered Func.
type Driver struct {
	origin string
	fn     Func
}

// NewDriver creates a Driver whose resolution base is origin.
func NewDriver(origin string) *Driver {
	return &Driver{origin: origin}
}

// SetResolver registers fn as the user-provided resolver callback.
func (d *Driver) SetResolver(fn Func) {
	d.fn = fn
}

// ResolveURL builds the absolute URL for specifier relative to referrer
// (or the driver's origin, if referrer is nil), per spec.md §4.5:
// new URL(specifier, referrerURL ?? origin). Fragments and percent-encoding
// are preserved verbatim.
func (d *Driver) ResolveURL(specifier string, referrer *url.URL) (*url.URL, error) {
	base := referrer
	if base == nil {
		var err error
		base, err = url.Parse(d.origin)
		if err != nil {
			return nil, errx.With(ErrSourceNotFound, ": invalid origin %q: %w", d.origin, err)
		}
	}
	rel, err := url.Parse(specifier)
	if err != nil {
		return nil, errx.With(ErrSourceNotFound, ": invalid specifier %q: %w", specifier, err)
	}
	return base.ResolveReference(rel), nil
}

// Fetch resolves specifier against referrer and fetches its source via the
// registered resolver. referrer may be nil to resolve against the origin.
func (d *Driver) Fetch(ctx context.Context, specifier string, referrer *url.URL) (*url.URL, []byte, error) {
	u, err := d.ResolveURL(specifier, referrer)
	if err != nil {
		return nil, nil, err
	}
	if d.fn == nil {
		return u, nil, errx.With(ErrNoResolver, ": resolving %q", u.String())
	}
	src, err := d.fn(ctx, u)
	if err != nil {
		return u, nil, err
	}
	if src == nil {
		return u, nil, errx.With(ErrSourceNotFound, ": %q", u.String())
	}
	return u, src, nil
}
