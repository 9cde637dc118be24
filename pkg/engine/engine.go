// Package engine abstracts the embedding JavaScript engine away from the
// orchestrator, the same way pkg/vm separates VM lifecycle from the
// hypervisor backend that actually runs it. V8Backend, backed by
// rogchap.com/v8go, is the only production implementation; tests
// substitute a fake.
package engine

import "context"

// Backend creates isolates. One Backend instance is shared by a process;
// each Sandbox owns exactly one Isolate.
type Backend interface {
	NewIsolate(memoryLimitMB int) (Isolate, error)
	Name() string
}

// Isolate is a single JavaScript heap. All contexts created from it share
// the same heap and memory limit.
type Isolate interface {
	NewContext() (Context, error)
	HeapStats() HeapStats
	Terminate()
	Dispose()
}

// Context is a single global object / realm within an Isolate.
type Context interface {
	// RunScript compiles and evaluates src as a classic (non-module)
	// script, returning its completion value.
	RunScript(ctx context.Context, src, origin string) (Value, error)

	// CompileModule compiles src as an ES module without evaluating it.
	// resolve is invoked synchronously, once per distinct static import
	// specifier found while instantiating the module graph, and must
	// return an already-compiled (and already-instantiated) Module for
	// that specifier.
	CompileModule(origin, src string, resolve ResolveFunc) (Module, error)

	// NewHostFunction exposes fn to guest code as a callable value bound
	// under no particular name; the caller is responsible for installing
	// the returned Value wherever guest code should observe it.
	NewHostFunction(fn HostFunc) Value

	// NewValue lifts a Go scalar (string, float64, bool, nil) into the
	// context's heap.
	NewValue(v any) (Value, error)

	// Invoke calls fn (typically a closure previously returned by
	// RunScript) with args, as the bootstrap installation step does to
	// pass its host references and hook table into bootstrap.js.
	Invoke(fn Value, args ...Value) (Value, error)

	// Global returns the context's global object, pre-hijack.
	Global() Value

	Close()
}

// Module is a compiled-and-instantiated ES module, ready to evaluate.
type Module interface {
	Evaluate(ctx context.Context) (Value, error)
}

// ResolveFunc resolves a nested static import specifier against the
// module currently being instantiated, returning a compiled dependency.
type ResolveFunc func(specifier string) (Module, error)

// HostFunc is a Go function exposed to guest code as a callable value.
// args are JSON-shaped (string, float64, bool, nil, []any, map[string]any).
type HostFunc func(args []any) (any, error)

// Value is an opaque handle to a JS value living in one Isolate's heap.
type Value interface {
	// String renders the value as the engine's own ToString() would.
	String() string
}

// HeapStats mirrors v8's heap statistics, narrowed to the fields spec'd
// stats surface (spec.md §4.1 "Stats").
type HeapStats struct {
	TotalHeapSize uint64
	UsedHeapSize  uint64
	HeapSizeLimit uint64
}
