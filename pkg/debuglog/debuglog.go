// Package debuglog is the ambient debug channel fed by the bootstrap's
// hostDebug reference and by the orchestrator itself. It follows the
// Sink/Emitter shape of the host's own structured logging package, but
// narrows the payload to a single free-text message per line and writes
// through log/slog rather than a bespoke JSONL encoder.
package debuglog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Entry is one debug line, stamped with wall-clock time and the sandbox
// that produced it.
type Entry struct {
	Timestamp time.Time
	SandboxID string
	Message   string
}

// Sink consumes debug entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(e Entry) error
	Close() error
}

// Logger stamps entries with a sandbox id and fans them out to one or
// more sinks. A nil *Logger is safe to call methods on; it discards.
type Logger struct {
	sandboxID string
	sinks     []Sink
}

// New creates a Logger that stamps every entry with sandboxID.
func New(sandboxID string, sinks ...Sink) *Logger {
	return &Logger{sandboxID: sandboxID, sinks: sinks}
}

// Debug records msg, ignoring every sink error (best effort; a broken
// debug channel must never fail guest evaluation).
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	e := Entry{Timestamp: time.Now().UTC(), SandboxID: l.sandboxID, Message: msg}
	for _, s := range l.sinks {
		_ = s.Write(e)
	}
}

// Close closes all sinks, returning the first error encountered.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	var firstErr error
	for _, s := range l.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SlogSink forwards entries to a *slog.Logger at debug level, the way a
// developer running fakeium locally would wire --debug output.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps logger (context-scoped, matching the rest of the
// module's logging convention) as a Sink.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Write(e Entry) error {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, e.Message,
		slog.String("sandbox_id", e.SandboxID),
		slog.Time("ts", e.Timestamp),
	)
	return nil
}

func (s *SlogSink) Close() error { return nil }

// MemorySink buffers entries in memory, for tests and for short-lived
// CLI invocations that want to print debug output only on failure.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// Entries returns a snapshot of everything buffered so far.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
