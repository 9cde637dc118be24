package hook

import (
	"sort"
	"sync"

	"github.com/josemmo/fakeium/pkg/accessor"
)

// Registry stores the current hook table, keyed by accessor path.
// Mirrors the register/lookup/list shape of the teacher's plugin
// registry, but holds declared values rather than plugin factories.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]Hook
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{hooks: make(map[string]Hook)}
}

// Set validates h.Path and stores h, overwriting any prior hook at the
// same path.
func (r *Registry) Set(h Hook) error {
	if err := accessor.Validate(h.Path); err != nil {
		return err
	}
	r.mu.Lock()
	r.hooks[h.Path] = h
	r.mu.Unlock()
	return nil
}

// Delete removes the hook at path, if any.
func (r *Registry) Delete(path string) {
	r.mu.Lock()
	delete(r.hooks, path)
	r.mu.Unlock()
}

// Get returns the hook declared at path, if any.
func (r *Registry) Get(path string) (Hook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[path]
	return h, ok
}

// All returns every declared hook, ordered by path for deterministic
// bootstrap materialisation.
func (r *Registry) All() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
