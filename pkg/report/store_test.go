package report

import (
	"testing"

	"github.com/josemmo/fakeium/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertReport() *Store {
	s := New()
	loc := event.Location{Filename: "file:///index.js", Line: 1, Column: 1}
	s.Append(event.Get("alert", event.Ref(1), loc))
	s.Append(event.Call("alert", []event.Value{event.Literal("hello")}, event.Ref(2), false, loc))
	return s
}

// S8 -- query matcher scenario from spec.md §8.2.
func TestQueryMatcherScenarioS8(t *testing.T) {
	s := alertReport()
	path := "alert"
	assert.True(t, s.Has(Query{Path: &path}))

	setType := event.TypeSet
	assert.False(t, s.Has(Query{Type: &setType}))

	empty := []event.Value{}
	_, ok := s.Find(Query{Arguments: &empty})
	assert.False(t, ok, "the alert call has one argument, not zero")

	helloArgs := []event.Value{event.Literal("hello")}
	found, ok := s.Find(Query{Arguments: &helloArgs})
	require.True(t, ok)
	assert.Equal(t, event.TypeCall, found.Type)
}

func TestHasFindAgreementInvariant(t *testing.T) {
	s := alertReport()
	for _, q := range []Query{
		{Path: strPtr("alert")},
		{Path: strPtr("missing")},
		{Type: typePtr(event.TypeCall)},
	} {
		has := s.Has(q)
		_, found := s.Find(q)
		assert.Equal(t, has, found, "has(q) must agree with find(q) presence for %+v", q)
	}
}

func TestFindAllPreservesInsertionOrder(t *testing.T) {
	s := New()
	loc := event.Location{Filename: "file:///i.js", Line: 1, Column: 1}
	s.Append(event.Get("a", event.Ref(1), loc))
	s.Append(event.Get("b", event.Ref(2), loc))
	s.Append(event.Get("c", event.Ref(3), loc))

	var paths []string
	for e := range s.FindAll(Query{}) {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"a", "b", "c"}, paths)
}

func TestClearEmptiesLogButLeavesIDsToCaller(t *testing.T) {
	s := alertReport()
	require.Equal(t, 2, s.Size())
	s.Clear()
	assert.Equal(t, 0, s.Size())
}

func strPtr(s string) *string       { return &s }
func typePtr(t event.Type) *event.Type { return &t }
