// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ValueType is the type inferred for a parsed value.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeBoolean ValueType = "boolean"
	TypeInteger ValueType = "integer"
	TypeFloat   ValueType = "float"
	TypeList    ValueType = "list"
	TypeTable   ValueType = "tableLiteral"
)

// Value describes one parsed setting.
type Value struct {
	Raw  string    `json:"value"`
	Type ValueType `json:"type"`
}

// Entries is an insertion ordered key/value set. A repeated key keeps the
// position of its first occurrence and the value of its last.
type Entries struct {
	keys   []string
	values map[string]Value
}

// NewEntries returns an empty set.
func NewEntries() *Entries {
	return &Entries{values: make(map[string]Value)}
}

// Set stores v under key.
func (e *Entries) Set(key string, v Value) {
	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.values[key] = v
}

// Get returns the value stored under key.
func (e *Entries) Get(key string) (Value, bool) {
	if e == nil {
		return Value{}, false
	}
	v, ok := e.values[key]
	return v, ok
}

// Raw returns the raw value for key, or "" when absent.
func (e *Entries) Raw(key string) string {
	v, _ := e.Get(key)
	return v.Raw
}

// Has reports whether key was parsed.
func (e *Entries) Has(key string) bool {
	_, ok := e.Get(key)
	return ok
}

// Len returns the number of distinct keys.
func (e *Entries) Len() int {
	if e == nil {
		return 0
	}
	return len(e.keys)
}

// Keys returns the keys in source order.
func (e *Entries) Keys() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Map returns the raw values keyed by setting name.
func (e *Entries) Map() map[string]string {
	out := make(map[string]string, e.Len())
	if e == nil {
		return out
	}
	for _, k := range e.keys {
		out[k] = e.values[k].Raw
	}
	return out
}

// Types returns the inferred type of every key.
func (e *Entries) Types() map[string]ValueType {
	out := make(map[string]ValueType, e.Len())
	if e == nil {
		return out
	}
	for _, k := range e.keys {
		out[k] = e.values[k].Type
	}
	return out
}

// MarshalJSON encodes the entries as a JSON object of raw values, keeping source order.
func (e *Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if e != nil {
		for i, k := range e.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := json.Marshal(e.values[k].Raw)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			buf.Write(vb)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Patch maps setting keys to their new raw values.
type Patch map[string]string

// settingKey is the shape of a key that can be written back as one assignment.
var settingKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Check rejects keys that are not plain identifiers and values spanning more
// than one line. Either would be written as text that parses back differently.
func (p Patch) Check() error {
	var problems []Problem
	for _, key := range p.sortedKeys() {
		v := p[key]
		switch {
		case !settingKey.MatchString(key):
			problems = append(problems, Problem{Key: key, Value: v, Message: "key must be letters, digits and underscores, not starting with a digit"})
		case strings.ContainsAny(v, "\r\n"):
			problems = append(problems, Problem{Key: key, Value: v, Message: "value must be a single line"})
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &PatchError{Problems: problems}
}

// sortedKeys returns the patch keys in lexical order so appended lines are deterministic.
func (p Patch) sortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document is a parsed configuration file together with the text it came from.
type Document struct {
	Dialect Dialect
	Source  string
	Entries *Entries
}

// Parse reads text in the given dialect. Lines that match no recognised
// pattern are ignored; the only error is an unsupported dialect.
func Parse(text string, dialect Dialect) (*Document, error) {
	entries, err := ParseConfig(text, dialect)
	if err != nil {
		return nil, err
	}
	return &Document{Dialect: dialect, Source: text, Entries: entries}, nil
}

// ParseConfig returns only the entries of text.
func ParseConfig(text string, dialect Dialect) (*Entries, error) {
	switch dialect {
	case DialectFlatINI:
		return parseINI(text), nil
	case DialectNestedTable:
		return parseLua(text), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
}

// Serialize applies patch to original and returns the new text. An empty
// patch returns original unchanged. A patch failing Check is a *PatchError.
func Serialize(original string, dialect Dialect, patch Patch) (string, error) {
	if err := patch.Check(); err != nil {
		return "", err
	}
	switch dialect {
	case DialectFlatINI:
		return serializeINI(original, patch), nil
	case DialectNestedTable:
		return serializeLua(original, patch), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
}

// Apply serializes the document source with patch applied.
func (d *Document) Apply(patch Patch) (string, error) {
	return Serialize(d.Source, d.Dialect, patch)
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// trimCR splits a trailing carriage return off line.
func trimCR(line string) (string, string) {
	if strings.HasSuffix(line, "\r") {
		return line[:len(line)-1], "\r"
	}
	return line, ""
}

// usesCRLF reports whether the first line of a split document ends with CR.
func usesCRLF(lines []string) bool {
	return len(lines) > 1 && strings.HasSuffix(lines[0], "\r")
}

// insertLines places extra at index at, before any trailing empty segment
// produced by a final newline, terminating each inserted line with eol when a
// line follows it.
func insertLines(out []string, at int, extra []string, eol string) []string {
	if len(extra) == 0 {
		return out
	}
	tail := append([]string(nil), out[at:]...)
	head := out[:at]
	for i, line := range extra {
		if eol != "" && (i < len(extra)-1 || len(tail) > 0) {
			line += eol
		}
		head = append(head, line)
	}
	return append(head, tail...)
}

// appendIndex returns where appended lines go: before the empty segment a
// trailing newline leaves behind, otherwise at the very end.
func appendIndex(out []string) int {
	if n := len(out); n > 0 && out[n-1] == "" {
		return n - 1
	}
	return len(out)
}
