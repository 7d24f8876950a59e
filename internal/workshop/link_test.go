// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare id", "2392709985", "2392709985"},
		{"bare short id", "123", "123"},
		{"padded", "  2392709985 ", "2392709985"},
		{"community url", "https://steamcommunity.com/sharedfiles/filedetails/?id=2392709985", "2392709985"},
		{"workshop url with extra params", "https://steamcommunity.com/workshop/filedetails/?l=german&id=2169435993&searchtext=", "2169435993"},
		{"steam protocol", "steam://url/CommunityFilePage/2392709985", "2392709985"},
		{"steam protocol trailing slash", "steam://url/CommunityFilePage/2392709985/", "2392709985"},
		{"embedded digits", "see mod 2392709985 for details", "2392709985"},
		{"foreign host falls back to digits", "https://example.com/item/12345678", "12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLink(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLinkInvalid(t *testing.T) {
	for _, in := range []string{"", "   ", "https://steamcommunity.com/id/someone", "mod 1234567"} {
		_, err := ParseLink(in)
		assert.ErrorIs(t, err, ErrInvalidLink, in)
	}
}

func TestModIDs(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want []string
	}{
		{"none", "A great mod.", nil},
		{"labelled", "Workshop ID: 2392709985\nMod ID: Hydrocraft", []string{"Hydrocraft"}},
		{"labelled lower case", "modid: tsarslib", []string{"tsarslib"}},
		{"underscore label", "Mod_ID=ignored\nMod_ID: Brita_2", []string{"Brita_2"}},
		{"several labels", "Mod ID: A\nMod ID: B\nMod ID: A", []string{"A", "B"}},
		{"server block", "For dedicated servers:\n-- \\ModA;\\ModB\n-- 123456789", []string{"ModA", "ModB"}},
		{"server block before label", "-- Arsenal26\n-- 2297098490\nMod ID: Other", []string{"Arsenal26", "Other"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModIDs(tt.desc))
		})
	}
	assert.Equal(t, "Hydrocraft", ModID("Mod ID: Hydrocraft"))
	assert.Empty(t, ModID("nothing here"))
}

func TestPopularityScore(t *testing.T) {
	assert.Equal(t, 0.0, PopularityScore(0, 0, 0, 0))
	assert.Equal(t, 1.5, PopularityScore(999, 0, 0, 0))
	assert.Equal(t, 2.7, PopularityScore(999, 0, 9, 1))
	assert.Equal(t, 5.4, PopularityScore(999, 1000, 9, 1))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortSubscriptions, ParseSort(""))
	assert.Equal(t, SortSubscriptions, ParseSort("bogus"))
	assert.Equal(t, SortTrending, ParseSort("Popular"))
	assert.Equal(t, SortRecent, ParseSort("vote"))
	assert.Equal(t, 12, SortSubscriptions.queryType())
	assert.Equal(t, 3, SortTrending.queryType())
	assert.Equal(t, 0, SortRecent.queryType())
}
