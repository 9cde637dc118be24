package resolver

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURLAgainstOrigin(t *testing.T) {
	d := NewDriver("file:///")
	u, err := d.ResolveURL("./index.js", nil)
	require.NoError(t, err)
	assert.Equal(t, "file:///index.js", u.String())
}

func TestResolveURLAgainstReferrer(t *testing.T) {
	d := NewDriver("file:///")
	referrer, err := url.Parse("file:///subdir/hey.js")
	require.NoError(t, err)
	u, err := d.ResolveURL("../test.js", referrer)
	require.NoError(t, err)
	assert.Equal(t, "file:///test.js", u.String())
}

func TestResolveURLPreservesPercentEncodingAndFragment(t *testing.T) {
	d := NewDriver("file:///")
	u, err := d.ResolveURL("a%20[weird]%20(name).js#frag", nil)
	require.NoError(t, err)
	assert.Contains(t, u.String(), "%20")
	assert.Equal(t, "frag", u.Fragment)
}

func TestFetchNotFoundWhenResolverReturnsNil(t *testing.T) {
	d := NewDriver("file:///")
	d.SetResolver(func(ctx context.Context, u *url.URL) ([]byte, error) { return nil, nil })
	_, _, err := d.Fetch(context.Background(), "./missing.js", nil)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestFetchNoResolverRegistered(t *testing.T) {
	d := NewDriver("file:///")
	_, _, err := d.Fetch(context.Background(), "./index.js", nil)
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestFetchSucceeds(t *testing.T) {
	d := NewDriver("file:///")
	d.SetResolver(func(ctx context.Context, u *url.URL) ([]byte, error) {
		if u.String() == "file:///index.js" {
			return []byte("alert(1)"), nil
		}
		return nil, nil
	})
	u, src, err := d.Fetch(context.Background(), "./index.js", nil)
	require.NoError(t, err)
	assert.Equal(t, "file:///index.js", u.String())
	assert.Equal(t, "alert(1)", string(src))
}
