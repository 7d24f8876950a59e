// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"regexp"
	"strings"
)

// assignmentStart matches a line that begins a new identifier= assignment.
var assignmentStart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*\s*=`)

func isINIComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#")
}

// splitAssignment splits a trimmed line on its first '='.
func splitAssignment(trimmed string) (key, value string, ok bool) {
	idx := strings.IndexByte(trimmed, '=')
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(trimmed[idx+1:]), true
}

// continuation collects the lines following a list assignment that carry on
// its value. It returns the joined text and how many lines were consumed.
func continuation(lines []string) (string, int) {
	var b strings.Builder
	n := 0
	for _, raw := range lines {
		t := strings.TrimSpace(raw)
		if t == "" || isINIComment(t) || assignmentStart.MatchString(t) {
			break
		}
		b.WriteString(t)
		n++
	}
	return b.String(), n
}

func parseINI(text string) *Entries {
	entries := NewEntries()
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || isINIComment(line) {
			continue
		}
		key, value, ok := splitAssignment(line)
		if !ok {
			continue
		}
		if !isContinuationKey(key) {
			entries.Set(key, Value{Raw: value, Type: TypeString})
			continue
		}
		rest, n := continuation(lines[i+1:])
		i += n
		entries.Set(key, Value{Raw: value + rest, Type: TypeList})
	}
	return entries
}

func serializeINI(original string, patch Patch) string {
	if len(patch) == 0 {
		return original
	}
	lines := strings.Split(original, "\n")
	out := make([]string, 0, len(lines)+len(patch))
	consumed := make(map[string]bool, len(patch))

	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		line := strings.TrimSpace(raw)
		if line == "" || isINIComment(line) {
			out = append(out, raw)
			continue
		}
		key, value, ok := splitAssignment(line)
		if !ok {
			out = append(out, raw)
			continue
		}

		span := 1
		if isContinuationKey(key) {
			rest, n := continuation(lines[i+1:])
			value += rest
			span += n
		}

		newValue, patched := patch[key]
		if !patched || strings.TrimSpace(newValue) == value {
			out = append(out, lines[i:i+span]...)
			consumed[key] = consumed[key] || patched
			i += span - 1
			continue
		}

		consumed[key] = true
		_, eol := trimCR(raw)
		out = append(out, key+"="+newValue+eol)
		i += span - 1
	}

	var extra []string
	for _, key := range patch.sortedKeys() {
		if !consumed[key] {
			extra = append(extra, key+"="+patch[key])
		}
	}
	eol := ""
	if usesCRLF(lines) {
		eol = "\r"
	}
	out = insertLines(out, appendIndex(out), extra, eol)
	return strings.Join(out, "\n")
}
