// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Kind is the declared type of a known server setting.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindPort    Kind = "port"
	KindList    Kind = "list"
)

// Setting describes one well known server.ini key.
type Setting struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Kind        Kind   `json:"type"`
	Default     string `json:"defaultValue"`
	Separator   string `json:"separator,omitempty"`
}

// Catalog is a lookup table of known settings.
type Catalog struct {
	order []Setting
	byKey map[string]Setting
	lower map[string]string
}

// NewCatalog indexes settings. Later duplicates replace earlier ones.
func NewCatalog(settings []Setting) *Catalog {
	c := &Catalog{
		byKey: make(map[string]Setting, len(settings)),
		lower: make(map[string]string, len(settings)),
	}
	for _, s := range settings {
		if _, dup := c.byKey[s.Key]; !dup {
			c.order = append(c.order, s)
		}
		c.byKey[s.Key] = s
		c.lower[strings.ToLower(s.Key)] = s.Key
	}
	for i, s := range c.order {
		c.order[i] = c.byKey[s.Key]
	}
	return c
}

var defaultCatalog = NewCatalog(serverSettings)

// DefaultCatalog returns the catalog of common server.ini keys.
func DefaultCatalog() *Catalog { return defaultCatalog }

// All returns every setting in display order.
func (c *Catalog) All() []Setting {
	out := make([]Setting, len(c.order))
	copy(out, c.order)
	return out
}

// Lookup returns the setting for key. Keys are case sensitive.
func (c *Catalog) Lookup(key string) (Setting, bool) {
	s, ok := c.byKey[key]
	return s, ok
}

// isContinuationKey reports whether key holds a ';' separated list whose
// value may wrap onto following lines.
func isContinuationKey(key string) bool {
	s, ok := defaultCatalog.Lookup(key)
	return ok && s.Kind == KindList && s.Separator == ";"
}

// Annotated is a parsed entry joined with its catalog metadata.
type Annotated struct {
	Key     string    `json:"key"`
	Value   string    `json:"value"`
	Type    ValueType `json:"type"`
	Known   bool      `json:"known"`
	Setting *Setting  `json:"meta,omitempty"`
}

// Annotate joins entries with the catalog, keeping source order.
func (c *Catalog) Annotate(entries *Entries) []Annotated {
	out := make([]Annotated, 0, entries.Len())
	for _, key := range entries.Keys() {
		v, _ := entries.Get(key)
		a := Annotated{Key: key, Value: v.Raw, Type: v.Type}
		if s, ok := c.Lookup(key); ok {
			s := s
			a.Known = true
			a.Setting = &s
			a.Type = s.Kind.valueType()
		}
		out = append(out, a)
	}
	return out
}

func (k Kind) valueType() ValueType {
	switch k {
	case KindInteger, KindPort:
		return TypeInteger
	case KindBoolean:
		return TypeBoolean
	case KindList:
		return TypeList
	default:
		return TypeString
	}
}

// Problem is one rejected patch value.
type Problem struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// PatchError lists every value in a patch that contradicts the catalog.
type PatchError struct {
	Problems []Problem
}

func (e *PatchError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = fmt.Sprintf("%s: %s", p.Key, p.Message)
	}
	return "invalid settings: " + strings.Join(msgs, "; ")
}

// Validate checks patch values of known keys against their declared kind.
// Unknown keys are accepted.
func (c *Catalog) Validate(patch Patch) error {
	var problems []Problem
	for _, key := range patch.sortedKeys() {
		s, ok := c.Lookup(key)
		if !ok {
			continue
		}
		v := strings.TrimSpace(patch[key])
		if msg := s.Kind.check(v); msg != "" {
			problems = append(problems, Problem{Key: key, Value: patch[key], Message: msg})
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &PatchError{Problems: problems}
}

func (k Kind) check(v string) string {
	switch k {
	case KindInteger:
		if _, err := strconv.Atoi(v); err != nil {
			return "must be an integer"
		}
	case KindPort:
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 65535 {
			return "must be a port between 1 and 65535"
		}
	case KindBoolean:
		if v != "true" && v != "false" {
			return `must be "true" or "false"`
		}
	}
	return ""
}

// Suggest returns known keys within a small edit distance of key, closest first.
func (c *Catalog) Suggest(key string) []string {
	if _, ok := c.byKey[key]; ok {
		return nil
	}
	if exact, ok := c.lower[strings.ToLower(key)]; ok {
		return []string{exact}
	}
	limit := len(key) / 3
	if limit < 2 {
		limit = 2
	}
	type candidate struct {
		key  string
		dist int
	}
	var found []candidate
	lk := strings.ToLower(key)
	for lower, k := range c.lower {
		if d := levenshtein.ComputeDistance(lk, lower); d <= limit {
			found = append(found, candidate{key: k, dist: d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].key < found[j].key
	})
	out := make([]string, 0, len(found))
	for _, f := range found {
		out = append(out, f.key)
	}
	return out
}
