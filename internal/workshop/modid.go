// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"regexp"
	"strings"
)

var (
	// "-- \ModA;\ModB" directly above a "-- 123;456" workshop line
	serverBlockModID = regexp.MustCompile(`--\s*\\?([A-Za-z_][A-Za-z0-9_;\\]*?)\s*\n\s*--\s*\d`)
	labelledModID    = regexp.MustCompile(`(?i)Mod[\s_]*ID[:\s]+([A-Za-z_][A-Za-z0-9_]*)`)
)

// ModIDs returns the in-game mod ids named in a workshop description, in order of appearance.
func ModIDs(description string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	if m := serverBlockModID.FindStringSubmatch(description); m != nil {
		for _, id := range strings.Split(strings.ReplaceAll(m[1], `\`, ""), ";") {
			add(id)
		}
	}
	for _, m := range labelledModID.FindAllStringSubmatch(description, -1) {
		add(m[1])
	}
	return out
}

// ModID returns the first in-game mod id named in a workshop description, or "".
func ModID(description string) string {
	if ids := ModIDs(description); len(ids) > 0 {
		return ids[0]
	}
	return ""
}
