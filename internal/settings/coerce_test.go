// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"007", true},
		{"-3", true},
		{"+3", true},
		{"1.5", true},
		{".5", true},
		{"5.", true},
		{"1e3", true},
		{"2.5E-2", true},
		{"0x1F", true},
		{"0b101", true},
		{"0o17", true},
		{"Infinity", true},
		{" 42 ", true},
		{"", false},
		{"   ", false},
		{"abc", false},
		{"1,000", false},
		{"--1", false},
		{"0x", false},
		{"-0x10", false},
		{"1.2.3", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNumeric(tt.in))
		})
	}
}

func TestFormatters(t *testing.T) {
	t.Run("integer", func(t *testing.T) {
		cases := map[string]string{
			"5":        "5",
			"2.4":      "2",
			"2.5":      "3",
			"-2.5":     "-2",
			"1e3":      "1000",
			"0x10":     "16",
			"abc":      "0",
			"":         "0",
			"Infinity": "0",
		}
		for in, want := range cases {
			assert.Equal(t, want, formatInteger(in), "formatInteger(%q)", in)
		}
	})

	t.Run("float", func(t *testing.T) {
		cases := map[string]string{
			"2":    "2.0",
			"2.50": "2.5",
			"-1":   "-1.0",
			"x":    "0.0",
		}
		for in, want := range cases {
			assert.Equal(t, want, formatFloat(in), "formatFloat(%q)", in)
		}
	})

	t.Run("bool", func(t *testing.T) {
		for _, in := range []string{"", "0", "false", "FALSE", "no", "Off", "nil", " false "} {
			assert.Equal(t, "false", formatBool(in), "formatBool(%q)", in)
		}
		for _, in := range []string{"true", "1", "yes", "on", "anything"} {
			assert.Equal(t, "true", formatBool(in), "formatBool(%q)", in)
		}
	})
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"a\"b"`, quote(`a"b`, '"'))
	assert.Equal(t, `'a\\b'`, quote(`a\b`, '\''))
	assert.Equal(t, `'it"s'`, quote(`it"s`, '\''))

	s, ok := unquote(`"a\"b"`)
	assert.True(t, ok)
	assert.Equal(t, `a"b`, s)

	s, ok = unquote(quote(`x\y'z`, '\''))
	assert.True(t, ok)
	assert.Equal(t, `x\y'z`, s)

	_, ok = unquote(`"mismatch'`)
	assert.False(t, ok)
	_, ok = unquote(`"`)
	assert.False(t, ok)

	assert.Equal(t, "abc", stripQuotes(`"abc'`))
	assert.Equal(t, "abc", stripQuotes("abc"))
}
