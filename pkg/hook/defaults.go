package hook

import "github.com/josemmo/fakeium/pkg/event"

// InstallDefaults populates r with the default hook set every orchestrator
// must pre-install, before any user hooks (spec.md §4.3). Installing user
// hooks afterwards may freely override any of these.
func InstallDefaults(r *Registry) error {
	for _, path := range []string{"frames", "global", "parent", "self", "window"} {
		if err := r.Set(Hook{Path: path, Writable: true, Kind: KindAlias, Alias: "globalThis"}); err != nil {
			return err
		}
	}

	if err := r.Set(Hook{
		Path:     "document",
		Writable: true,
		Kind:     KindCopy,
		Copied: map[string]any{
			"nodeType":    float64(9),
			"readyState":  "complete",
		},
	}); err != nil {
		return err
	}

	if err := r.Set(Hook{Path: "browser", Writable: true, Kind: KindCopy, Copied: map[string]any{}}); err != nil {
		return err
	}
	if err := r.Set(Hook{Path: "chrome", Writable: true, Kind: KindAlias, Alias: "browser"}); err != nil {
		return err
	}

	for _, path := range []string{"define", "exports", "module", "require"} {
		if err := r.Set(Hook{Path: path, Writable: true, Kind: KindCopy, Copied: event.Undefined}); err != nil {
			return err
		}
	}
	return nil
}
