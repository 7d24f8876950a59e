// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	digits     = regexp.MustCompile(`^\d+$`)
	longDigits = regexp.MustCompile(`\d{8,}`)
)

// ParseLink extracts a workshop id from a bare id, a steamcommunity.com
// file details URL, a steam://url/CommunityFilePage/ URL, or failing those
// the first run of at least eight digits.
func ParseLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", ErrInvalidLink
	}
	if digits.MatchString(link) {
		return link, nil
	}

	if u, err := url.Parse(link); err == nil {
		if strings.Contains(strings.ToLower(u.Hostname()), "steamcommunity.com") {
			if id := u.Query().Get("id"); digits.MatchString(id) {
				return id, nil
			}
		}
		if u.Scheme == "steam" {
			path := strings.TrimRight(u.Opaque+u.Path, "/")
			if i := strings.LastIndexByte(path, '/'); i >= 0 {
				path = path[i+1:]
			}
			if digits.MatchString(path) {
				return path, nil
			}
		}
	}

	if m := longDigits.FindString(link); m != "" {
		return m, nil
	}
	return "", ErrInvalidLink
}
