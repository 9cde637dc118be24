package sandbox

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/josemmo/fakeium/pkg/engine/enginefake"
	"github.com/josemmo/fakeium/pkg/event"
	"github.com/josemmo/fakeium/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSandbox(t *testing.T, opts ...Option) *Sandbox {
	t.Helper()
	all := append([]Option{withBackend(&enginefake.Backend{})}, opts...)
	s, err := New(all...)
	require.NoError(t, err)
	return s
}

func TestNewInstallsDefaultHooks(t *testing.T) {
	s := newTestSandbox(t)
	h, ok := s.hooks.Get("document")
	require.True(t, ok)
	assert.Equal(t, hook.KindCopy, h.Kind)
}

func TestHookRejectsInvalidPath(t *testing.T) {
	s := newTestSandbox(t)
	err := s.Hook("bad path", 1)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestHookOverwritesDefault(t *testing.T) {
	s := newTestSandbox(t)
	require.NoError(t, s.Hook("document", map[string]any{"x": 1.0}))
	h, ok := s.hooks.Get("document")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": 1.0}, h.Copied)
}

func TestUnhookRemovesHook(t *testing.T) {
	s := newTestSandbox(t)
	require.NoError(t, s.Hook("custom", 1))
	require.NoError(t, s.Unhook("custom"))
	_, ok := s.hooks.Get("custom")
	assert.False(t, ok)
}

func TestRunSucceedsAndUpdatesStats(t *testing.T) {
	s := newTestSandbox(t)
	err := s.Run(context.Background(), "./index.js", "ok")
	require.NoError(t, err)
	assert.False(t, s.Stats().DidTimeout)
	assert.NotEmpty(t, s.Stats().LastRunID)
}

func TestRunClassifiesExecutionError(t *testing.T) {
	s := newTestSandbox(t)
	err := s.Run(context.Background(), "./index.js", "throw:boom")
	assert.ErrorIs(t, err, ErrExecution)
}

func TestRunTimesOutAndDisposesIsolate(t *testing.T) {
	s := newTestSandbox(t, WithTimeout(30*time.Millisecond))
	err := s.Run(context.Background(), "./index.js", "terminate")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, s.Stats().DidTimeout)
}

func TestDisposeClearsReportAndResetsIDCounter(t *testing.T) {
	s := newTestSandbox(t)
	s.report.Append(event.Get("alert", event.Ref(1), event.UnknownLocation))
	s.nextValueID = 42

	require.NoError(t, s.Dispose(true))
	assert.Equal(t, 0, s.report.Size())
	assert.Equal(t, 1, s.nextValueID)
}

func TestDisposeWithoutClearKeepsReport(t *testing.T) {
	s := newTestSandbox(t)
	s.report.Append(event.Get("alert", event.Ref(1), event.UnknownLocation))
	s.nextValueID = 7

	require.NoError(t, s.Dispose(false))
	assert.Equal(t, 1, s.report.Size())
	assert.Equal(t, 7, s.nextValueID)
}

func TestLoadSourcePrefersExplicitSourceCode(t *testing.T) {
	s := newTestSandbox(t)
	u, src, err := s.loadSource(context.Background(), "./index.js", "alert(1)")
	require.NoError(t, err)
	assert.Equal(t, "file:///index.js", u.String())
	assert.Equal(t, "alert(1)", string(src))
}

func TestLoadSourceWithoutResolverFails(t *testing.T) {
	s := newTestSandbox(t)
	_, _, err := s.loadSource(context.Background(), "./index.js", "")
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoadSourceFetchesViaResolver(t *testing.T) {
	s := newTestSandbox(t)
	s.SetResolver(func(ctx context.Context, u *url.URL) ([]byte, error) {
		return []byte("1+1"), nil
	})
	u, src, err := s.loadSource(context.Background(), "./index.js", "")
	require.NoError(t, err)
	assert.Equal(t, "file:///index.js", u.String())
	assert.Equal(t, "1+1", string(src))
}
