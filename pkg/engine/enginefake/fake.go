// Package enginefake provides a pure-Go engine.Backend double for testing
// pkg/sandbox's orchestration logic without linking against v8go's cgo
// bindings.
package enginefake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/josemmo/fakeium/pkg/engine"
)

// Backend is a deterministic, in-memory stand-in for engine.V8Backend.
// Scripts are simple strings interpreted as a tiny command language
// understood only by tests: "throw:<message>" raises an error,
// "terminate" blocks until Isolate.Terminate is called, anything else is
// echoed back as the completion value.
type Backend struct{}

func (b *Backend) Name() string { return "fake" }

func (b *Backend) NewIsolate(memoryLimitMB int) (engine.Isolate, error) {
	return &isolate{limitMB: memoryLimitMB, terminated: make(chan struct{})}, nil
}

type isolate struct {
	limitMB    int
	mu         sync.Mutex
	term       bool
	terminated chan struct{}
}

func (i *isolate) NewContext() (engine.Context, error) {
	return &ctx{iso: i, globals: map[string]any{}}, nil
}

func (i *isolate) HeapStats() engine.HeapStats {
	return engine.HeapStats{
		TotalHeapSize: 1 << 20,
		UsedHeapSize:  1 << 18,
		HeapSizeLimit: uint64(i.limitMB) << 20,
	}
}

func (i *isolate) Terminate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.term {
		i.term = true
		close(i.terminated)
	}
}

func (i *isolate) Dispose() {}

type ctx struct {
	iso     *isolate
	globals map[string]any
}

func (c *ctx) RunScript(parent context.Context, src, origin string) (engine.Value, error) {
	if msg, ok := strings.CutPrefix(src, "throw:"); ok {
		return nil, fmt.Errorf("fake js error: %s", msg)
	}
	if src == "terminate" {
		<-c.iso.terminated
		return nil, fmt.Errorf("execution terminated")
	}
	select {
	case <-parent.Done():
		return nil, parent.Err()
	default:
	}
	return value{v: src}, nil
}

func (c *ctx) CompileModule(origin, src string, resolve engine.ResolveFunc) (engine.Module, error) {
	return module{src: src}, nil
}

func (c *ctx) NewHostFunction(fn engine.HostFunc) engine.Value {
	return hostFnValue{fn: fn}
}

func (c *ctx) NewValue(v any) (engine.Value, error) {
	return value{v: fmt.Sprintf("%v", v)}, nil
}

func (c *ctx) Invoke(fn engine.Value, args ...engine.Value) (engine.Value, error) {
	hf, ok := fn.(hostFnValue)
	if !ok {
		return value{v: "undefined"}, nil
	}
	raw := make([]any, len(args))
	for i, a := range args {
		raw[i] = a.String()
	}
	result, err := hf.fn(raw)
	if err != nil {
		return nil, err
	}
	return value{v: fmt.Sprintf("%v", result)}, nil
}

func (c *ctx) Global() engine.Value { return value{v: "globalThis"} }

type hostFnValue struct {
	fn engine.HostFunc
}

func (v hostFnValue) String() string { return "[host function]" }

func (c *ctx) Close() {}

type module struct{ src string }

func (m module) Evaluate(context.Context) (engine.Value, error) { return value{v: m.src}, nil }

type value struct{ v string }

func (v value) String() string { return v.v }
