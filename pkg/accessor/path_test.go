package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePathAccepts(t *testing.T) {
	for _, p := range []string{
		"alert",
		"navigator.geolocation.getCurrentPosition",
		`document["createElement"]`,
		"document['createElement']",
		"frames[0]",
		"$jq",
		"_private.thing",
	} {
		assert.NoError(t, Validate(p), p)
	}
}

func TestValidatePathRejects(t *testing.T) {
	for _, p := range []string{
		"",
		".leadingDot",
		"has space",
		"1startsWithDigit",
		"foo..bar",
		"foo[]",
		"foo[-1]",
		"foo[bar]",
		" foo",
	} {
		assert.Error(t, Validate(p), p)
	}
}
