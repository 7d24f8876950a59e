// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewINI(t *testing.T) {
	doc, err := Parse("PVP=true\nMaxPlayers=32\n", DialectFlatINI)
	require.NoError(t, err)

	c, err := Preview(doc, Patch{
		"PVP":        "false",
		"MaxPlayers": "32",
		"MaxPlayer":  "10",
	}, DefaultCatalog())
	require.NoError(t, err)

	assert.Equal(t, "PVP=false\nMaxPlayers=32\nMaxPlayer=10\n", c.Text)
	assert.Equal(t, []string{"PVP"}, c.Changed)
	assert.Equal(t, []string{"MaxPlayer"}, c.Appended)
	assert.Equal(t, []string{"MaxPlayers"}, c.Unchanged)
	require.Len(t, c.Unknown, 1)
	assert.Equal(t, "MaxPlayer", c.Unknown[0].Key)
	assert.Contains(t, c.Unknown[0].Suggestions, "MaxPlayers")

	assert.ElementsMatch(t, []DiffLine{
		{Op: DiffDelete, Text: "PVP=true"},
		{Op: DiffInsert, Text: "PVP=false"},
		{Op: DiffInsert, Text: "MaxPlayer=10"},
	}, c.Diff)
	assert.False(t, c.Empty())
}

func TestPreviewLua(t *testing.T) {
	doc, err := Parse(sampleLua, DialectNestedTable)
	require.NoError(t, err)

	c, err := Preview(doc, Patch{
		"ZombieLore": "x",
		"DayLength":  "3",
		"StartYear":  "2",
		"Brand":      "new",
	}, DefaultCatalog())
	require.NoError(t, err)

	assert.Equal(t, []string{"StartYear"}, c.Changed)
	assert.Equal(t, []string{"Brand"}, c.Appended)
	assert.Equal(t, []string{"DayLength", "ZombieLore"}, c.Unchanged)
	assert.Empty(t, c.Unknown, "sandbox files have no catalog")
}

func TestPreviewNoop(t *testing.T) {
	doc, err := Parse("PVP=true\n", DialectFlatINI)
	require.NoError(t, err)

	c, err := Preview(doc, Patch{"PVP": "true"}, nil)
	require.NoError(t, err)
	assert.True(t, c.Empty())
	assert.Equal(t, doc.Source, c.Text)
	assert.Equal(t, []string{"PVP"}, c.Unchanged)
}

func TestLineDiff(t *testing.T) {
	assert.Nil(t, LineDiff("a\nb\n", "a\nb\n"))
	assert.Equal(t, []DiffLine{{Op: DiffInsert, Text: "c"}}, LineDiff("a\nb\n", "a\nb\nc\n"))
	assert.Equal(t, []DiffLine{{Op: DiffDelete, Text: "b"}}, LineDiff("a\r\nb\r\n", "a\r\n"))
}
