package main

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josemmo/fakeium/pkg/hook"
	"github.com/josemmo/fakeium/pkg/sandbox"
)

func TestFilesystemResolverReadsRelativeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.js"), []byte("1+1"), 0644))

	resolve := filesystemResolver(dir)
	u, err := url.Parse("file:///index.js")
	require.NoError(t, err)

	src, err := resolve(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "1+1", string(src))
}

func TestFilesystemResolverMissingFileReturnsNil(t *testing.T) {
	resolve := filesystemResolver(t.TempDir())
	u, err := url.Parse("file:///missing.js")
	require.NoError(t, err)

	src, err := resolve(context.Background(), u)
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestFilesystemResolverIgnoresNonFileScheme(t *testing.T) {
	resolve := filesystemResolver(t.TempDir())
	u, err := url.Parse("https://example.com/index.js")
	require.NoError(t, err)

	src, err := resolve(context.Background(), u)
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestInstallHookFileInstallsCopyAndAliasHooks(t *testing.T) {
	dir := t.TempDir()
	hookFile := filepath.Join(dir, "hooks.json")
	require.NoError(t, os.WriteFile(hookFile, []byte(`[
		{"path": "navigator.userAgent", "value": "custom-agent", "writable": true},
		{"path": "window.top", "alias": "window"}
	]`), 0644))

	sbx, err := sandbox.New()
	require.NoError(t, err)

	require.NoError(t, installHookFile(sbx, hookFile))
}

func TestInstallHookFileRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	hookFile := filepath.Join(dir, "hooks.json")
	require.NoError(t, os.WriteFile(hookFile, []byte("not json"), 0644))

	sbx, err := sandbox.New()
	require.NoError(t, err)

	err = installHookFile(sbx, hookFile)
	assert.Error(t, err)
}

func TestHookFileEntryAliasBuildsReference(t *testing.T) {
	entries := []hookFileEntry{{Path: "a", Alias: "b"}}
	var value any = entries[0].Value
	if entries[0].Alias != "" {
		value = hook.Reference{Path: entries[0].Alias}
	}
	assert.Equal(t, hook.Reference{Path: "b"}, value)
}
