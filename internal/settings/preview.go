// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffOp classifies a DiffLine.
type DiffOp string

const (
	DiffInsert DiffOp = "insert"
	DiffDelete DiffOp = "delete"
)

// DiffLine is one changed line of a preview.
type DiffLine struct {
	Op   DiffOp `json:"op"`
	Text string `json:"text"`
}

// UnknownKey is a patch key that is neither in the document nor in the catalog.
type UnknownKey struct {
	Key         string   `json:"key"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Change summarises what a patch does to a document.
type Change struct {
	Text      string       `json:"-"`
	Changed   []string     `json:"changed"`
	Appended  []string     `json:"appended"`
	Unchanged []string     `json:"unchanged"`
	Unknown   []UnknownKey `json:"unknown,omitempty"`
	Diff      []DiffLine   `json:"diff"`
}

// Empty reports whether the patch leaves the text as it was.
func (c Change) Empty() bool {
	return len(c.Diff) == 0
}

// Preview applies patch to doc without writing anything and classifies each key.
func Preview(doc *Document, patch Patch, catalog *Catalog) (Change, error) {
	text, err := doc.Apply(patch)
	if err != nil {
		return Change{}, err
	}
	after, err := ParseConfig(text, doc.Dialect)
	if err != nil {
		return Change{}, err
	}

	c := Change{Text: text, Diff: LineDiff(doc.Source, text)}
	for _, key := range patch.sortedKeys() {
		before, existed := doc.Entries.Get(key)
		now, _ := after.Get(key)
		switch {
		case !existed && !after.Has(key):
			// table constructors are never rewritten
			c.Unchanged = append(c.Unchanged, key)
		case !existed:
			c.Appended = append(c.Appended, key)
			if catalog != nil && doc.Dialect == DialectFlatINI {
				if _, known := catalog.Lookup(key); !known {
					c.Unknown = append(c.Unknown, UnknownKey{Key: key, Suggestions: catalog.Suggest(key)})
				}
			}
		case before.Raw == now.Raw:
			c.Unchanged = append(c.Unchanged, key)
		default:
			c.Changed = append(c.Changed, key)
		}
	}
	return c, nil
}

// LineDiff returns the inserted and deleted lines between before and after.
func LineDiff(before, after string) []DiffLine {
	if before == after {
		return nil
	}
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out []DiffLine
	for _, d := range diffs {
		var op DiffOp
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = DiffInsert
		case diffmatchpatch.DiffDelete:
			op = DiffDelete
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimRight(line, "\r\n")})
		}
	}
	return out
}
