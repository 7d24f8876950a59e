// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numericLiteral mirrors the string-to-number grammar of the web front end
	// the files are usually edited from: decimal with optional exponent,
	// Infinity, and unsigned hex/octal/binary integers.
	numericLiteral = regexp.MustCompile(`^(?:[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)|0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+)$`)

	integerLiteral = regexp.MustCompile(`^-?\d+$`)
	floatLiteral   = regexp.MustCompile(`^-?\d+\.\d+$`)
	plainNumber    = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// IsNumeric reports whether s reads as a number. Zero padded strings such as
// "007" count as numbers.
func IsNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return numericLiteral.MatchString(s)
}

// toNumber converts s using the same grammar as IsNumeric. Unparseable and
// non-finite input yields 0.
func toNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || !numericLiteral.MatchString(s) {
		return 0
	}
	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0
		}
		return float64(n)
	}
	if strings.HasSuffix(s, "Infinity") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// formatInteger rounds half up, as the dashboard does.
func formatInteger(s string) string {
	return strconv.FormatFloat(math.Floor(toNumber(s)+0.5), 'f', 0, 64)
}

// formatFloat keeps a decimal point so the value stays a float on the next parse.
func formatFloat(s string) string {
	out := strconv.FormatFloat(toNumber(s), 'f', -1, 64)
	if !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}
	return out
}

var falsy = map[string]bool{
	"":      true,
	"0":     true,
	"false": true,
	"no":    true,
	"off":   true,
	"nil":   true,
}

// formatBool renders s as a Lua boolean.
func formatBool(s string) string {
	if falsy[strings.ToLower(strings.TrimSpace(s))] {
		return "false"
	}
	return "true"
}

func isQuote(c byte) bool { return c == '"' || c == '\'' }

// stripQuotes drops one leading and one trailing quote character independently.
func stripQuotes(s string) string {
	if s != "" && isQuote(s[0]) {
		s = s[1:]
	}
	if s != "" && isQuote(s[len(s)-1]) {
		s = s[:len(s)-1]
	}
	return s
}

// unquote removes a matching pair of quotes and resolves quote and backslash escapes.
func unquote(s string) (string, bool) {
	if len(s) < 2 || !isQuote(s[0]) || s[len(s)-1] != s[0] {
		return s, false
	}
	body := s[1 : len(s)-1]
	if !strings.Contains(body, `\`) {
		return body, true
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) && strings.IndexByte(`\"'`, body[i+1]) >= 0 {
			i++
		}
		b.WriteByte(body[i])
	}
	return b.String(), true
}

// quote wraps s in q, escaping backslashes and q itself.
func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}
