// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"regexp"
	"strings"
)

// luaAssignmentHead matches the `indent key = ` prefix of an assignment.
var luaAssignmentHead = regexp.MustCompile(`^(\s*)([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*`)

// luaField is one `key = value` assignment on a line. start and end bound
// the value text, excluding surrounding blanks and the separator.
type luaField struct {
	key        string
	start, end int
}

// luaFields returns every assignment in the code part of line, in order.
// Fields separated by ',' or ';' are found, and so are the fields of an
// inline table closed on the same line.
func luaFields(line string) []luaField {
	var out []luaField
	collectFields(line, 0, commentStart(line), &out)
	return out
}

func collectFields(line string, lo, hi int, out *[]luaField) {
	var q byte
	depth := 0
	seg := lo
	for i := lo; i < hi; i++ {
		c := line[i]
		if q != 0 {
			if c == '\\' {
				i++
			} else if c == q {
				q = 0
			}
			continue
		}
		switch {
		case isQuote(c):
			q = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case (c == ',' || c == ';') && depth == 0:
			addField(line, seg, i, out)
			seg = i + 1
		}
	}
	addField(line, seg, hi, out)
}

func addField(line string, lo, hi int, out *[]luaField) {
	loc := luaAssignmentHead.FindStringSubmatchIndex(line[lo:hi])
	if loc == nil {
		return
	}
	start := lo + loc[1]
	if start < hi && line[start] == '=' {
		return
	}
	end := hi
	for end > start && (line[end-1] == ' ' || line[end-1] == '\t') {
		end--
	}
	if end <= start {
		return
	}
	*out = append(*out, luaField{key: line[lo+loc[4] : lo+loc[5]], start: start, end: end})
	if line[start] == '{' && line[end-1] == '}' {
		collectFields(line, start+1, end-1, out)
	}
}

// commentStart returns the index of the first "--" outside a string, or len(s).
func commentStart(s string) int {
	var q byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if q != 0 {
			if c == '\\' {
				i++
			} else if c == q {
				q = 0
			}
			continue
		}
		if isQuote(c) {
			q = c
			continue
		}
		if c == '-' && i+1 < len(s) && s[i+1] == '-' {
			return i
		}
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// stripLuaComments removes block and line comments outside string literals.
// Newlines inside removed block comments are kept so line structure survives.
func stripLuaComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	var q byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if q != 0 {
			b.WriteByte(c)
			switch {
			case c == '\\' && i+1 < len(text) && text[i+1] != '\n':
				i++
				b.WriteByte(text[i])
			case c == q || c == '\n':
				q = 0
			}
			continue
		}
		if isQuote(c) {
			q = c
			b.WriteByte(c)
			continue
		}
		if c != '-' || !strings.HasPrefix(text[i:], "--") {
			b.WriteByte(c)
			continue
		}
		if strings.HasPrefix(text[i:], "--[[") {
			if end := strings.Index(text[i+4:], "]]"); end >= 0 {
				stop := i + 4 + end + 2
				b.WriteString(strings.Repeat("\n", strings.Count(text[i:stop], "\n")))
				i = stop - 1
				continue
			}
		}
		nl := strings.IndexByte(text[i:], '\n')
		if nl < 0 {
			break
		}
		i += nl - 1
	}
	return b.String()
}

// scanValue returns the end of the value starting at i: the first top-level
// ',', '}' or newline.
func scanValue(s string, i int) int {
	var q byte
	for ; i < len(s); i++ {
		c := s[i]
		if c == '\n' {
			return i
		}
		if q != 0 {
			if c == '\\' && i+1 < len(s) && s[i+1] != '\n' {
				i++
			} else if c == q {
				q = 0
			}
			continue
		}
		switch {
		case isQuote(c):
			q = c
		case c == ',' || c == '}':
			return i
		}
	}
	return i
}

// inferLua types a captured value.
func inferLua(raw string) Value {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), ","))
	switch {
	case v == "true" || v == "false":
		return Value{Raw: v, Type: TypeBoolean}
	case IsNumeric(v):
		if integerLiteral.MatchString(v) {
			return Value{Raw: v, Type: TypeInteger}
		}
		return Value{Raw: v, Type: TypeFloat}
	}
	if s, ok := unquote(v); ok {
		return Value{Raw: s, Type: TypeString}
	}
	return Value{Raw: v, Type: TypeString}
}

// parseLua captures every scalar `key = value` assignment, at any depth.
// Table constructors are not entries; scanning continues inside them.
func parseLua(text string) *Entries {
	entries := NewEntries()
	s := stripLuaComments(text)
	var q byte
	for i := 0; i < len(s); {
		c := s[i]
		if q != 0 {
			if c == '\\' && i+1 < len(s) {
				i += 2
				continue
			}
			if c == q || c == '\n' {
				q = 0
			}
			i++
			continue
		}
		if isQuote(c) {
			q = c
			i++
			continue
		}
		if !isIdentStart(c) || (i > 0 && (isIdentPart(s[i-1]) || s[i-1] == '.')) {
			i++
			continue
		}

		j := i
		for j < len(s) && (isIdentPart(s[j]) || s[j] == '.') {
			j++
		}
		key := s[i:j]

		k := j
		for k < len(s) && (s[k] == ' ' || s[k] == '\t' || s[k] == '\r' || s[k] == '\n') {
			k++
		}
		if k >= len(s) || s[k] != '=' || (k+1 < len(s) && s[k+1] == '=') {
			i = j
			continue
		}

		v := k + 1
		for v < len(s) && (s[v] == ' ' || s[v] == '\t') {
			v++
		}
		if v < len(s) && s[v] == '{' {
			i = v + 1
			continue
		}
		end := scanValue(s, v)
		raw := strings.TrimSpace(s[v:end])
		if raw != "" {
			entries.Set(key, inferLua(raw))
		}
		i = end
		if i <= k {
			i = k + 1
		}
	}
	return entries
}

// renderLuaValue formats newValue using the type of the value it replaces.
// It reports false when the line should be kept as it is.
func renderLuaValue(original, newValue string) (string, bool) {
	orig := strings.TrimSpace(original)
	if strings.HasPrefix(orig, "{") || strings.HasPrefix(orig, "[") {
		return orig, false
	}
	next := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(newValue), ","))
	if s, ok := unquote(next); ok {
		next = s
	} else {
		next = stripQuotes(next)
	}
	current := orig
	if s, ok := unquote(orig); ok {
		current = s
	}
	if current == next {
		return orig, false
	}

	var out string
	switch {
	case orig != "" && isQuote(orig[0]):
		out = quote(next, orig[0])
	case orig == "true" || orig == "false":
		out = formatBool(next)
	case integerLiteral.MatchString(orig):
		out = formatInteger(next)
	case floatLiteral.MatchString(orig):
		out = formatFloat(next)
	case commentStart(next) < len(next) || strings.ContainsAny(next, ",;{}"):
		out = quote(next, '"')
	default:
		out = next
	}
	return out, out != orig
}

// renderLuaAppend formats a value for a newly appended line. Table and long
// string literals are kept; other text is written as a double-quoted string.
func renderLuaAppend(v string) string {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), ","))
	switch {
	case v == "":
		return `""`
	case plainNumber.MatchString(v), v == "true", v == "false":
		return v
	case commentStart(v) == len(v) && (strings.HasPrefix(v, "{") && strings.HasSuffix(v, "}") ||
		strings.HasPrefix(v, "[[") && strings.HasSuffix(v, "]]")):
		return v
	}
	if s, ok := unquote(v); ok {
		return quote(s, v[0])
	}
	return quote(stripQuotes(v), '"')
}

// opensBlockComment reports whether line leaves a --[[ block comment open.
func opensBlockComment(line string) bool {
	idx := strings.LastIndex(line, "--[[")
	return idx >= 0 && !strings.Contains(line[idx+4:], "]]")
}

func serializeLua(original string, patch Patch) string {
	if len(patch) == 0 {
		return original
	}
	lines := strings.Split(original, "\n")
	out := make([]string, 0, len(lines)+len(patch))
	consumed := make(map[string]bool, len(patch))
	inBlock := false

	for _, raw := range lines {
		line, eol := trimCR(raw)
		if inBlock {
			out = append(out, raw)
			if strings.Contains(line, "]]") {
				inBlock = false
			}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			out = append(out, raw)
			inBlock = opensBlockComment(trimmed)
			continue
		}
		inBlock = opensBlockComment(line)

		// Fields are spliced right to left so earlier offsets stay valid.
		// Table values never change, so nested fields are safe too.
		src := line
		fields := luaFields(src)
		for i := len(fields) - 1; i >= 0; i-- {
			f := fields[i]
			newValue, ok := patch[f.key]
			if !ok {
				continue
			}
			consumed[f.key] = true
			if value, changed := renderLuaValue(src[f.start:f.end], newValue); changed {
				line = line[:f.start] + value + line[f.end:]
			}
		}
		out = append(out, line+eol)
	}

	var extra []string
	for _, key := range patch.sortedKeys() {
		if !consumed[key] {
			extra = append(extra, "    "+key+" = "+renderLuaAppend(patch[key])+",")
		}
	}
	if len(extra) > 0 {
		eol := ""
		if usesCRLF(lines) {
			eol = "\r"
		}
		out = insertLines(out, luaAppendIndex(out), extra, eol)
	}
	return strings.Join(out, "\n")
}

// luaAppendIndex places new keys inside the root table when its closing
// brace is the last significant line, otherwise at the end of the file. The
// field before the brace gets the separator it lacks; when that line is not
// a field, the keys go to the end of the file.
func luaAppendIndex(out []string) int {
	closing := -1
	for i := len(out) - 1; i >= 0; i-- {
		t := strings.TrimSpace(out[i])
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		if t == "}" {
			closing = i
		}
		break
	}
	if closing < 0 {
		return appendIndex(out)
	}
	for i := closing - 1; i >= 0; i-- {
		line, eol := trimCR(out[i])
		body := strings.TrimRight(line[:commentStart(line)], " \t")
		t := strings.TrimSpace(body)
		switch {
		case t == "":
			continue
		case strings.HasSuffix(t, ",") || strings.HasSuffix(t, ";") || strings.HasSuffix(t, "{"):
			return closing
		case strings.HasSuffix(t, "}") || luaAssignmentHead.MatchString(t):
			out[i] = body + "," + line[len(body):] + eol
			return closing
		}
		return appendIndex(out)
	}
	return closing
}
