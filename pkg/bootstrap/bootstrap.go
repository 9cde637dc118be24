// Package bootstrap embeds and installs the in-guest instrumentation
// layer (spec.md §4.6-§4.8) into a freshly created engine context.
package bootstrap

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/josemmo/fakeium/pkg/engine"
	"github.com/josemmo/fakeium/pkg/event"
	"github.com/josemmo/fakeium/pkg/hook"
)

//go:embed bootstrap.js
var source string

// Origin is the synthetic script URL the bootstrap is compiled under. The
// in-guest stack-walker (captureLocation in bootstrap.js) skips every
// frame whose filename equals this constant, so user-code locations are
// never attributed to the instrumentation layer itself.
const Origin = "fakeium://bootstrap"

// wireHook is the JSON shape bootstrap.js expects per hook table entry.
// Value is only present for kind "copy"; aliasTarget only for "alias".
type wireHook struct {
	Path        string `json:"path"`
	Writable    bool   `json:"writable"`
	Kind        string `json:"kind"`
	Value       any    `json:"value,omitempty"`
	AliasTarget string `json:"aliasTarget,omitempty"`
}

// Handle lets the host read the guest's live next-value-id counter back
// after installation, in particular once a Run's user code has finished,
// so the counter can be persisted across Run calls (spec.md §3.1
// "Identity invariant").
type Handle struct {
	ctx    engine.Context
	getter engine.Value
}

// NextValueID invokes the getter the bootstrap closure returned and
// parses its numeric result.
func (h *Handle) NextValueID() (int, error) {
	result, err := h.ctx.Invoke(h.getter)
	if err != nil {
		return 0, fmt.Errorf("bootstrap: reading next value id: %w", err)
	}
	id, err := strconv.Atoi(result.String())
	if err != nil {
		return 0, fmt.Errorf("bootstrap: parsing next value id %q: %w", result.String(), err)
	}
	return id, nil
}

// Install evaluates the bootstrap closure in ctx and invokes it with the
// sink callbacks, the next value id to hand out, and the hook table. It
// returns a Handle the caller can use to read the counter back after
// execution. onCallable services "callable"-kind hook invocations made
// from guest code: its first argument is the hook path, the rest are the
// call's arguments as event.Values; its return value is JSON-encoded back
// into the guest.
func Install(ctx engine.Context, hooks []hook.Hook, nextValueID int, onEvent func(event.Event), onDebug func(string), onCallable engine.HostFunc) (*Handle, error) {
	closureVal, err := ctx.RunScript(context.Background(), "("+source+")", Origin)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: compiling closure: %w", err)
	}

	eventFn := ctx.NewHostFunction(func(args []any) (any, error) {
		if len(args) == 0 {
			return nil, nil
		}
		raw, _ := args[0].(string)
		var ev event.Event
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return nil, fmt.Errorf("bootstrap: decoding event: %w", err)
		}
		onEvent(ev)
		return nil, nil
	})
	debugFn := ctx.NewHostFunction(func(args []any) (any, error) {
		if len(args) > 0 {
			if s, ok := args[0].(string); ok {
				onDebug(s)
			}
		}
		return nil, nil
	})
	callableFn := ctx.NewHostFunction(func(args []any) (any, error) {
		if len(args) < 2 {
			return "", nil
		}
		path, _ := args[0].(string)
		argsJSON, _ := args[1].(string)
		var values []event.Value
		if err := json.Unmarshal([]byte(argsJSON), &values); err != nil {
			return "", fmt.Errorf("bootstrap: decoding callable arguments: %w", err)
		}
		anyArgs := make([]any, 0, len(values)+1)
		anyArgs = append(anyArgs, path)
		for _, v := range values {
			anyArgs = append(anyArgs, v)
		}
		result, err := onCallable(anyArgs)
		if err != nil {
			return "", err
		}
		encoded, err := json.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("bootstrap: encoding callable result: %w", err)
		}
		return string(encoded), nil
	})

	table := make([]wireHook, 0, len(hooks))
	for _, h := range hooks {
		wh := wireHook{Path: h.Path, Writable: h.Writable}
		switch h.Kind {
		case hook.KindCopy:
			wh.Kind = "copy"
			// h.Copied == event.Undefined must reach the guest as a wholly
			// absent "value" key: bootstrap.js treats a missing key as
			// undefined (h.value === undefined) but a present-and-empty
			// object as {} (spec.md §4.3, §9 open question 3).
			if h.Copied != event.Undefined {
				wh.Value = h.Copied
			}
		case hook.KindCallable:
			wh.Kind = "callable"
		case hook.KindAlias:
			wh.Kind = "alias"
			wh.AliasTarget = h.Alias
		}
		table = append(table, wh)
	}
	hookJSON, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: encoding hook table: %w", err)
	}

	nextIDVal, err := ctx.NewValue(float64(nextValueID))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: encoding next value id: %w", err)
	}
	hookTableVal, err := ctx.NewValue(string(hookJSON))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: encoding hook table value: %w", err)
	}

	getter, err := ctx.Invoke(closureVal, eventFn, debugFn, callableFn, nextIDVal, hookTableVal)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: installing: %w", err)
	}
	return &Handle{ctx: ctx, getter: getter}, nil
}
