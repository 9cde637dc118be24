package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	v8 "rogchap.com/v8go"
)

// V8Backend is the production Backend, binding directly to rogchap.com/v8go.
type V8Backend struct{}

// NewV8Backend returns the default v8go-backed Backend.
func NewV8Backend() *V8Backend { return &V8Backend{} }

func (b *V8Backend) Name() string { return "v8go" }

// NewIsolate creates a v8go isolate. rogchap.com/v8go has no public API for
// capping an isolate's heap size, so memoryLimitMB is advisory only: it is
// stored on v8Isolate for interface parity with enginefake, but nothing
// reads it (HeapStats reports V8's own heap limit) and the real backend
// does not enforce it. A memory-limit
// dispose observed by the watchdog therefore currently only happens via
// V8's own default near-heap-limit behaviour, not a caller-chosen ceiling.
func (b *V8Backend) NewIsolate(memoryLimitMB int) (Isolate, error) {
	iso := v8.NewIsolate()
	return &v8Isolate{iso: iso, memoryLimitMB: memoryLimitMB}, nil
}

type v8Isolate struct {
	iso           *v8.Isolate
	memoryLimitMB int
}

func (i *v8Isolate) NewContext() (Context, error) {
	ctx := v8.NewContext(i.iso)
	return &v8Context{iso: i.iso, ctx: ctx}, nil
}

func (i *v8Isolate) HeapStats() HeapStats {
	stats := i.iso.GetHeapStatistics()
	return HeapStats{
		TotalHeapSize: stats.TotalHeapSize,
		UsedHeapSize:  stats.UsedHeapSize,
		HeapSizeLimit: stats.HeapSizeLimit,
	}
}

func (i *v8Isolate) Terminate() { i.iso.TerminateExecution() }
func (i *v8Isolate) Dispose()   { i.iso.Dispose() }

type v8Context struct {
	iso *v8.Isolate
	ctx *v8.Context

	mu          sync.Mutex
	resolveByID map[string]ResolveFunc
	seq         int
}

// RunScript evaluates src as a plain script. ctx is not consulted, so the
// soft per-call deadline it carries is not enforced here; the only
// termination comes from pkg/sandbox's watchdog, which calls
// Isolate.Terminate once the timeout plus its grace period has elapsed.
// This method does not itself spawn a goroutine, since TerminateExecution
// is safe to call from any thread while RunScript blocks.
func (c *v8Context) RunScript(ctx context.Context, src, origin string) (Value, error) {
	val, err := c.ctx.RunScript(src, origin)
	if err != nil {
		return nil, classifyJSError(err)
	}
	return &v8Value{val: val}, nil
}

// ErrModulesUnsupported is returned by the v8go-backed CompileModule:
// rogchap.com/v8go exposes no ES-module compile/instantiate/evaluate API,
// so SourceModule evaluation is only available through enginefake in
// tests until the underlying binding gains one.
var ErrModulesUnsupported = errors.New("engine: rogchap.com/v8go does not support compiling ES modules")

// CompileModule always fails for the v8go backend; see ErrModulesUnsupported.
func (c *v8Context) CompileModule(origin, src string, resolve ResolveFunc) (Module, error) {
	return nil, fmt.Errorf("%w: %q", ErrModulesUnsupported, origin)
}

func (c *v8Context) NewHostFunction(fn HostFunc) Value {
	tmpl := v8.NewFunctionTemplate(c.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := make([]any, len(info.Args()))
		for i, a := range info.Args() {
			args[i] = valueToAny(a)
		}
		result, err := fn(args)
		if err != nil {
			return c.iso.ThrowException(err)
		}
		v, convErr := anyToValue(c.iso, result)
		if convErr != nil {
			return v8.Undefined(c.iso)
		}
		return v
	})
	return &v8Value{val: tmpl.GetFunction(c.ctx).Value}
}

func (c *v8Context) NewValue(v any) (Value, error) {
	val, err := anyToValue(c.iso, v)
	if err != nil {
		return nil, fmt.Errorf("engine: creating value: %w", err)
	}
	return &v8Value{val: val}, nil
}

func (c *v8Context) Invoke(fn Value, args ...Value) (Value, error) {
	jsFn, ok := fn.(*v8Value)
	if !ok {
		return nil, errors.New("engine: Invoke called with a foreign function handle")
	}
	function, err := jsFn.val.AsFunction()
	if err != nil {
		return nil, fmt.Errorf("engine: value is not callable: %w", err)
	}
	raw := make([]v8.Valuer, len(args))
	for i, a := range args {
		v, ok := a.(*v8Value)
		if !ok {
			return nil, errors.New("engine: Invoke called with a foreign argument handle")
		}
		raw[i] = v.val
	}
	result, err := function.Call(c.ctx.Global(), raw...)
	if err != nil {
		return nil, classifyJSError(err)
	}
	return &v8Value{val: result}, nil
}

func (c *v8Context) Global() Value {
	return &v8Value{val: c.ctx.Global().Value}
}

func (c *v8Context) Close() { c.ctx.Close() }

type v8Value struct {
	val *v8.Value
}

func (v *v8Value) String() string { return v.val.String() }

// classifyJSError keeps v8go's *v8go.JSError intact so pkg/sandbox can
// pattern-match it against the well-known engine error strings (out of
// memory, parse error, execution terminated) named in spec.md §6.3.
func classifyJSError(err error) error {
	var jsErr *v8.JSError
	if errors.As(err, &jsErr) {
		return jsErr
	}
	return err
}

func valueToAny(v *v8.Value) any {
	if v == nil {
		return nil
	}
	switch {
	case v.IsUndefined():
		return nil
	case v.IsNull():
		return nil
	case v.IsBoolean():
		return v.Boolean()
	case v.IsNumber():
		return v.Number()
	case v.IsString():
		return v.String()
	default:
		return v.String()
	}
}

func anyToValue(iso *v8.Isolate, v any) (*v8.Value, error) {
	if v == nil {
		return v8.Undefined(iso), nil
	}
	return v8.NewValue(iso, v)
}

// defaultSoftTimeout is not referenced anywhere: pkg/sandbox's watchdog
// calls Isolate.Terminate() after the sandbox's configured timeout plus a
// grace period, not after this value.
const defaultSoftTimeout = 5 * time.Second
