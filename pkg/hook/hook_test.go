package hook

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCopy(t *testing.T) {
	h, err := Classify("foo.bar", 42, true)
	require.NoError(t, err)
	assert.Equal(t, KindCopy, h.Kind)
	assert.Equal(t, 42, h.Copied)
}

func TestClassifyCallable(t *testing.T) {
	fn := HostFunc(func(ctx context.Context, args []any) (any, error) { return nil, nil })
	h, err := Classify("foo", fn, true)
	require.NoError(t, err)
	assert.Equal(t, KindCallable, h.Kind)
	assert.NotNil(t, h.Callable)
}

func TestClassifyAlias(t *testing.T) {
	h, err := Classify("chrome", Reference{Path: "browser"}, true)
	require.NoError(t, err)
	assert.Equal(t, KindAlias, h.Kind)
	assert.Equal(t, "browser", h.Alias)
}

func TestClassifyAliasRejectsEmptyTarget(t *testing.T) {
	_, err := Classify("chrome", Reference{}, true)
	assert.Error(t, err)
}

func TestRegistrySetRejectsInvalidPath(t *testing.T) {
	r := New()
	err := r.Set(Hook{Path: "bad path"})
	assert.Error(t, err)
}

func TestRegistrySetOverwrites(t *testing.T) {
	r := New()
	require.NoError(t, r.Set(Hook{Path: "a", Kind: KindCopy, Copied: 1}))
	require.NoError(t, r.Set(Hook{Path: "a", Kind: KindCopy, Copied: 2}))
	h, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, h.Copied)
}

func TestInstallDefaultsCoversDocumentedSet(t *testing.T) {
	r := New()
	require.NoError(t, InstallDefaults(r))

	for _, path := range []string{"frames", "global", "parent", "self", "window"} {
		h, ok := r.Get(path)
		require.True(t, ok, path)
		assert.Equal(t, KindAlias, h.Kind)
		assert.Equal(t, "globalThis", h.Alias)
	}

	doc, ok := r.Get("document")
	require.True(t, ok)
	assert.Equal(t, KindCopy, doc.Kind)

	browser, ok := r.Get("browser")
	require.True(t, ok)
	assert.Equal(t, KindCopy, browser.Kind)

	chrome, ok := r.Get("chrome")
	require.True(t, ok)
	assert.Equal(t, KindAlias, chrome.Kind)
	assert.Equal(t, "browser", chrome.Alias)

	for _, path := range []string{"define", "exports", "module", "require"} {
		h, ok := r.Get(path)
		require.True(t, ok, path)
		assert.Equal(t, KindCopy, h.Kind)
	}
}

func TestUserHooksOverrideDefaults(t *testing.T) {
	r := New()
	require.NoError(t, InstallDefaults(r))
	require.NoError(t, r.Set(Hook{Path: "document", Kind: KindCopy, Copied: "custom"}))
	h, ok := r.Get("document")
	require.True(t, ok)
	assert.Equal(t, "custom", h.Copied)
}
