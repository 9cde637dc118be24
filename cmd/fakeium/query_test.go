package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josemmo/fakeium/pkg/event"
)

func TestParseEventTypeAcceptsKnownValues(t *testing.T) {
	got, err := parseEventType("call")
	require.NoError(t, err)
	assert.Equal(t, event.TypeCall, got)
}

func TestParseEventTypeRejectsUnknownValue(t *testing.T) {
	_, err := parseEventType("delete")
	assert.Error(t, err)
}

func TestBuildQueryCombinesFlags(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("path", "", "")
	cmd.Flags().String("type", "", "")
	cmd.Flags().String("filename", "", "")
	cmd.Flags().Int("line", 0, "")
	cmd.Flags().Bool("constructor", false, "")

	require.NoError(t, cmd.Flags().Set("path", "document.cookie"))
	require.NoError(t, cmd.Flags().Set("type", "get"))
	require.NoError(t, cmd.Flags().Set("line", "12"))

	q, err := buildQuery(cmd)
	require.NoError(t, err)
	require.NotNil(t, q.Path)
	assert.Equal(t, "document.cookie", *q.Path)
	require.NotNil(t, q.Type)
	assert.Equal(t, event.TypeGet, *q.Type)
	require.NotNil(t, q.Line)
	assert.Equal(t, 12, *q.Line)
	assert.Nil(t, q.Filename)
	assert.Nil(t, q.IsConstructor)
}

func TestBuildQueryRejectsUnknownType(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("path", "", "")
	cmd.Flags().String("type", "", "")
	cmd.Flags().String("filename", "", "")
	cmd.Flags().Int("line", 0, "")
	cmd.Flags().Bool("constructor", false, "")
	require.NoError(t, cmd.Flags().Set("type", "bogus"))

	_, err := buildQuery(cmd)
	assert.Error(t, err)
}
