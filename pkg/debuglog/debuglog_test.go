package debuglog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFansOutToAllSinks(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	l := New("sbx-1", a, b)
	l.Debug("hello")

	for _, s := range []*MemorySink{a, b} {
		entries := s.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "sbx-1", entries[0].SandboxID)
		assert.Equal(t, "hello", entries[0].Message)
	}
}

func TestNilLoggerDiscardsSafely(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Debug("ignored")
		_ = l.Close()
	})
}

func TestCloseReturnsFirstSinkError(t *testing.T) {
	l := New("sbx-1", &erroringSink{err: assert.AnError})
	assert.ErrorIs(t, l.Close(), assert.AnError)
}

type erroringSink struct{ err error }

func (s *erroringSink) Write(Entry) error { return nil }
func (s *erroringSink) Close() error      { return s.err }
