// Package accessor validates the restricted dotted/bracketed identifier
// grammar used for hook paths (spec.md §4.4).
package accessor

import (
	"errors"
	"regexp"

	"github.com/josemmo/fakeium/internal/errx"
)

// ErrInvalidPath is returned when a path does not match the grammar.
var ErrInvalidPath = errors.New("accessor: invalid path")

const (
	identPattern    = `[A-Za-z_$][A-Za-z0-9_$]*`
	dqStringPattern = `\[\"[^\"]*\"\]`
	sqStringPattern = `\['[^']*'\]`
	indexPattern    = `\[[0-9]+\]`
)

var pathRE = regexp.MustCompile(
	`^` + identPattern +
		`(?:\.` + identPattern + `|` + dqStringPattern + `|` + sqStringPattern + `|` + indexPattern + `)*$`,
)

// Validate reports an error unless path is structurally valid: an
// identifier followed by any number of .identifier, ["string"],
// ['string'], or [nonneg-integer] segments -- no whitespace, no leading
// dots, no empty brackets.
func Validate(path string) error {
	if path == "" || !pathRE.MatchString(path) {
		return errx.With(ErrInvalidPath, ": %q", path)
	}
	return nil
}
