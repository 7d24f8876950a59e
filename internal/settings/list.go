// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"regexp"
	"strings"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// IDList is a ';' separated list of numeric IDs together with what was lost
// while reading it.
type IDList struct {
	IDs        []string `json:"ids"`
	Separators int      `json:"separators"`
	Dropped    []string `json:"dropped,omitempty"`
}

// Mismatch reports whether the number of IDs disagrees with the number of
// non-empty tokens between separators.
func (l IDList) Mismatch() bool {
	return l.Separators > 0 && len(l.Dropped) > 0
}

// SplitIDs splits value on ';' and keeps the all-digit tokens.
func SplitIDs(value string) IDList {
	l := IDList{Separators: strings.Count(value, ";")}
	for _, tok := range strings.Split(value, ";") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
		case digitsOnly.MatchString(tok):
			l.IDs = append(l.IDs, tok)
		default:
			l.Dropped = append(l.Dropped, tok)
		}
	}
	return l
}

// SplitList splits value on any of seps, trimming and dropping empty items.
func SplitList(value, seps string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// JoinList joins items with ';'.
func JoinList(items []string) string {
	return strings.Join(items, ";")
}

// IsWorkshopID reports whether s is an all-digit Steam Workshop ID.
func IsWorkshopID(s string) bool {
	return digitsOnly.MatchString(s)
}
