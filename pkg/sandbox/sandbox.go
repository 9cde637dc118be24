// Package sandbox drives the lifecycle of one instrumented JavaScript
// evaluation session: isolate creation, context setup, bootstrap
// installation, module/script compilation, timeouts, and error
// classification.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/josemmo/fakeium/internal/errx"
	"github.com/josemmo/fakeium/pkg/accessor"
	"github.com/josemmo/fakeium/pkg/bootstrap"
	"github.com/josemmo/fakeium/pkg/debuglog"
	"github.com/josemmo/fakeium/pkg/engine"
	"github.com/josemmo/fakeium/pkg/event"
	"github.com/josemmo/fakeium/pkg/hook"
	"github.com/josemmo/fakeium/pkg/report"
	"github.com/josemmo/fakeium/pkg/resolver"
	"github.com/josemmo/fakeium/pkg/source"
)

// SourceType selects whether the entry point is compiled as a plain
// script or as an ES module graph.
type SourceType string

const (
	SourceScript SourceType = "script"
	SourceModule SourceType = "module"
)

// Error kinds, per spec.md §7. Wrap these with internal/errx.With to add
// call-site context while preserving errors.Is matching.
var (
	ErrInvalidPath   = errors.New("sandbox: invalid hook path")
	ErrInvalidValue  = errors.New("sandbox: invalid hook value")
	ErrSourceNotFound = errors.New("sandbox: source not found")
	ErrParsing       = errors.New("sandbox: syntax error")
	ErrExecution     = errors.New("sandbox: execution error")
	ErrTimeout       = errors.New("sandbox: evaluation timed out")
	ErrMemoryLimit   = errors.New("sandbox: memory limit exceeded")
)

// hardTimeoutGrace is added to the effective soft timeout before the
// host-side watchdog forcibly disposes the isolate (spec.md §4.1 step 5).
const hardTimeoutGrace = 150 * time.Millisecond

// Stats reports cumulative resource usage for the current isolate. It
// resets to zero on Dispose.
type Stats struct {
	Wall          time.Duration
	HeapUsed      uint64
	HeapTotal     uint64
	HeapLimit     uint64
	LastRunID     string
	DidTimeout    bool
}

// Sandbox is one orchestrator instance: one isolate, one hook table, one
// report. Concurrent Run calls on the same Sandbox are not supported;
// callers must serialise (spec.md §5 "Fairness").
type Sandbox struct {
	mu sync.Mutex

	backend engine.Backend
	iso     engine.Isolate

	sourceType SourceType
	origin     string
	maxMemMB   int
	timeout    time.Duration
	logger     *debuglog.Logger

	hooks    *hook.Registry
	resolver *resolver.Driver
	report   *report.Store
	modules  *source.Cache

	nextValueID int
	stats       Stats
}

// Option configures a Sandbox at construction time.
type Option func(*Sandbox)

func WithSourceType(t SourceType) Option { return func(s *Sandbox) { s.sourceType = t } }
func WithOrigin(origin string) Option    { return func(s *Sandbox) { s.origin = origin } }
func WithMaxMemoryMB(mb int) Option      { return func(s *Sandbox) { s.maxMemMB = mb } }
func WithTimeout(d time.Duration) Option { return func(s *Sandbox) { s.timeout = d } }
func WithLogger(l *debuglog.Logger) Option { return func(s *Sandbox) { s.logger = l } }
func withBackend(b engine.Backend) Option  { return func(s *Sandbox) { s.backend = b } }

// New constructs a Sandbox and pre-installs the default hook set
// (spec.md §4.3). The isolate itself is created lazily, on first Run.
func New(opts ...Option) (*Sandbox, error) {
	s := &Sandbox{
		sourceType: SourceScript,
		origin:     "file:///",
		maxMemMB:   64,
		timeout:    10 * time.Second,
		hooks:       hook.New(),
		report:      report.New(),
		modules:     source.NewCache(),
		nextValueID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		s.backend = engine.NewV8Backend()
	}
	s.resolver = resolver.NewDriver(s.origin)
	if err := hook.InstallDefaults(s.hooks); err != nil {
		return nil, fmt.Errorf("sandbox: installing default hooks: %w", err)
	}
	return s, nil
}

// SetResolver registers the user-provided module/script source resolver.
func (s *Sandbox) SetResolver(fn resolver.Func) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver.SetResolver(fn)
}

// Hook validates path, classifies value, and installs (or overwrites) a
// hook at that path (spec.md §4.1 "hook").
func (s *Sandbox) Hook(path string, value any, writable ...bool) error {
	w := true
	if len(writable) > 0 {
		w = writable[0]
	}
	h, err := hook.Classify(path, value, w)
	if err != nil {
		if errors.Is(err, accessor.ErrInvalidPath) {
			return errx.With(ErrInvalidPath, ": %q: %w", path, err)
		}
		return errx.With(ErrInvalidValue, ": %q: %w", path, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hooks.Set(h); err != nil {
		return errx.With(ErrInvalidPath, ": %q: %w", path, err)
	}
	return nil
}

// Unhook removes any hook declared at path.
func (s *Sandbox) Unhook(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks.Delete(path)
	return nil
}

// Report returns the shared, append-only event log (spec.md §3.6).
func (s *Sandbox) Report() *report.Store { return s.report }

// Stats returns cumulative resource usage for the current isolate.
func (s *Sandbox) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	if s.iso != nil {
		hs := s.iso.HeapStats()
		stats.HeapUsed, stats.HeapTotal, stats.HeapLimit = hs.UsedHeapSize, hs.TotalHeapSize, hs.HeapSizeLimit
	}
	return stats
}

// Dispose releases the isolate. If clearReport is true, the report is
// also cleared and the next-value-id counter resets to 1 (spec.md §3.1
// "Identity invariant"); otherwise the report and id counter survive so
// a subsequent Run can be inspected cumulatively.
func (s *Sandbox) Dispose(clearReport bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.iso != nil {
		s.iso.Dispose()
		s.iso = nil
	}
	s.modules.Clear()
	s.stats = Stats{}
	if clearReport {
		s.report.Clear()
		s.nextValueID = 1
	}
	return nil
}

// RunOption overrides a constructor option for a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	timeout    time.Duration
	sourceType SourceType
}

func WithRunTimeout(d time.Duration) RunOption {
	return func(c *runConfig) { c.timeout = d }
}

func WithRunSourceType(t SourceType) RunOption {
	return func(c *runConfig) { c.sourceType = t }
}

// Run evaluates specifier (optionally with an explicit sourceCode
// override) per the algorithm in spec.md §4.1. A zero-length sourceCode
// means "fetch via the resolver driver".
func (s *Sandbox) Run(ctx context.Context, specifier string, sourceCode string, opts ...RunOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := runConfig{timeout: s.timeout, sourceType: s.sourceType}
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := uuid.New().String()

	if s.iso == nil {
		iso, err := s.backend.NewIsolate(s.maxMemMB)
		if err != nil {
			return fmt.Errorf("sandbox: creating isolate: %w", err)
		}
		s.iso = iso
	}

	jsCtx, err := s.iso.NewContext()
	if err != nil {
		return fmt.Errorf("sandbox: creating context: %w", err)
	}
	defer jsCtx.Close()

	handle, err := bootstrap.Install(jsCtx, s.hooks.All(), s.nextValueID,
		func(ev event.Event) { s.report.Append(ev) },
		func(msg string) { s.logDebug(runID, msg) },
		s.dispatchCallable,
	)
	if err != nil {
		return fmt.Errorf("sandbox: installing bootstrap: %w", err)
	}

	entryURL, src, err := s.loadSource(ctx, specifier, sourceCode)
	if err != nil {
		return err
	}

	watchdogFired := false
	var wdMu sync.Mutex
	watchdog := time.AfterFunc(cfg.timeout+hardTimeoutGrace, func() {
		wdMu.Lock()
		watchdogFired = true
		wdMu.Unlock()
		s.iso.Terminate()
	})
	defer watchdog.Stop()

	evalCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	start := time.Now()
	var runErr error
	if cfg.sourceType == SourceModule {
		if sourceCode != "" {
			s.modules.Invalidate(entryURL.String())
		}
		runErr = s.runModule(evalCtx, jsCtx, entryURL, src)
	} else {
		_, runErr = jsCtx.RunScript(evalCtx, string(src), entryURL.String())
	}
	wall := time.Since(start)

	wdMu.Lock()
	didTimeout := watchdogFired
	wdMu.Unlock()

	classified := classifyRunError(runErr, didTimeout)

	// A forced disposal (timeout or memory limit) leaves the isolate
	// unusable mid-execution, and spec.md §5/§7 require the caller to
	// observe pre-run stats afterwards, not a partial merge. Dispose it
	// and drop the handle so the next Run lazily recreates a fresh one.
	if didTimeout || errors.Is(classified, ErrMemoryLimit) {
		s.iso.Dispose()
		s.iso = nil
		if didTimeout {
			s.stats.DidTimeout = true
			return errx.With(ErrTimeout, ": %q", specifier)
		}
		return classified
	}
	if classified != nil {
		return classified
	}

	s.stats.Wall += wall
	s.stats.LastRunID = runID
	s.stats.DidTimeout = false
	if nextID, err := handle.NextValueID(); err == nil {
		s.nextValueID = nextID
	} else {
		s.logDebug(runID, fmt.Sprintf("reading next value id: %v", err))
	}
	return nil
}

func (s *Sandbox) logDebug(runID, msg string) {
	if s.logger != nil {
		s.logger.Debug(fmt.Sprintf("[%s] %s", runID, msg))
	}
}

// dispatchCallable services a "callable" hook invocation forwarded from
// the guest through the bootstrap's hostCallable reference.
func (s *Sandbox) dispatchCallable(args []any) (any, error) {
	if len(args) < 1 {
		return nil, nil
	}
	path, _ := args[0].(string)
	h, ok := s.hooks.Get(path)
	if !ok || h.Kind != hook.KindCallable || h.Callable == nil {
		return nil, nil
	}
	callArgs := args[1:]
	return h.Callable(context.Background(), callArgs)
}

// loadSource resolves and fetches the entry point's source text, unless
// sourceCode is already supplied by the caller (an explicit override, per
// spec.md §4.5 "explicit source-override").
func (s *Sandbox) loadSource(ctx context.Context, specifier, sourceCode string) (*url.URL, []byte, error) {
	if sourceCode != "" {
		u, err := s.resolver.ResolveURL(specifier, nil)
		if err != nil {
			return nil, nil, errx.With(ErrSourceNotFound, ": %q: %w", specifier, err)
		}
		return u, []byte(sourceCode), nil
	}
	u, src, err := s.resolver.Fetch(ctx, specifier, nil)
	if err != nil {
		if errors.Is(err, resolver.ErrSourceNotFound) || errors.Is(err, resolver.ErrNoResolver) {
			return nil, nil, errx.With(ErrSourceNotFound, ": %w", err)
		}
		return nil, nil, err
	}
	return u, src, nil
}

// runModule compiles entryURL as an ES module, recursively routing nested
// static import specifiers through the resolver driver, then evaluates
// the instantiated graph (spec.md §4.1 step 4, §4.5).
func (s *Sandbox) runModule(ctx context.Context, jsCtx engine.Context, entryURL *url.URL, src []byte) error {
	var compile func(u *url.URL, source []byte) (engine.Module, error)
	compile = func(u *url.URL, source []byte) (engine.Module, error) {
		if h, ok := s.modules.Lookup(u.String()); ok {
			if mod, ok := h.(engine.Module); ok {
				return mod, nil
			}
		}
		mod, err := jsCtx.CompileModule(u.String(), string(source), func(specifier string) (engine.Module, error) {
			depURL, depSrc, err := s.resolver.Fetch(ctx, specifier, u)
			if err != nil {
				return nil, err
			}
			return compile(depURL, depSrc)
		})
		if err != nil {
			return nil, err
		}
		s.modules.Store(u.String(), mod)
		return mod, nil
	}

	mod, err := compile(entryURL, src)
	if err != nil {
		return err
	}
	_, err = mod.Evaluate(ctx)
	return err
}

// classifyRunError maps an engine-reported error onto the sandbox's error
// kinds, per spec.md §4.1 step 7.
func classifyRunError(err error, didTimeout bool) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case didTimeout:
		return nil // Timeout is raised by the caller after cleanup.
	case strings.Contains(msg, "disposed during execution due to memory limit"):
		return errx.With(ErrMemoryLimit, ": %w", err)
	case strings.Contains(msg, "disposed during execution"):
		return nil // watchdog already acted; swallowed per spec.md §7.
	case strings.Contains(msg, "SyntaxError"):
		return errx.With(ErrParsing, ": %w", err)
	case errors.Is(err, resolver.ErrSourceNotFound), errors.Is(err, resolver.ErrNoResolver):
		return errx.With(ErrSourceNotFound, ": %w", err)
	default:
		return errx.With(ErrExecution, ": %w", err)
	}
}
