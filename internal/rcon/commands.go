// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rcon

import (
	"regexp"
	"strings"
)

var playersHeader = regexp.MustCompile(`(?i)^Players connected \((\d+)\):?`)

// ParsePlayers extracts player names from the output of "players".
// Names follow the header as lines starting with "-".
func ParsePlayers(out string) []string {
	players := []string{}
	inList := false
	for _, line := range strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if playersHeader.MatchString(line) {
			inList = true
			continue
		}
		if !inList || !strings.HasPrefix(line, "-") {
			continue
		}
		if name := strings.TrimSpace(strings.TrimPrefix(line, "-")); name != "" {
			players = append(players, name)
		}
	}
	return players
}

// Normalize rewrites user input into the form the server expects:
// known verbs are lower-cased and servermsg text is wrapped in double quotes.
func Normalize(command string) string {
	command = strings.TrimSpace(command)
	verb, rest, _ := strings.Cut(command, " ")
	switch lower := strings.ToLower(verb); lower {
	case "players", "save", "quit":
		return lower
	case "servermsg":
		msg := strings.TrimSpace(rest)
		msg = strings.TrimPrefix(strings.TrimPrefix(msg, `"`), `'`)
		msg = strings.TrimSuffix(strings.TrimSuffix(msg, `"`), `'`)
		msg = strings.ReplaceAll(msg, `"`, `'`)
		return `servermsg "` + msg + `"`
	default:
		return command
	}
}

var knownVerbs = map[string]bool{
	"players": true, "save": true, "quit": true, "servermsg": true,
	"kickuser": true, "banuser": true, "unbanuser": true, "banid": true, "unbanid": true,
	"additem": true, "addxp": true, "addvehicle": true, "godmod": true, "invisible": true,
	"noclip": true, "teleport": true, "teleportto": true, "setaccesslevel": true,
	"adduser": true, "addusertowhitelist": true, "removeuserfromwhitelist": true,
	"changeoption": true, "reloadoptions": true, "checkmodsneedupdate": true,
	"chopper": true, "gunshot": true, "startrain": true, "stoprain": true,
	"startstorm": true, "stopweather": true, "help": true, "showoptions": true,
	"createhorde": true, "lightning": true, "thunder": true, "grantadmin": true,
	"removeadmin": true, "releasesafehouse": true, "reloadlua": true,
}

// Verb returns the command's first word for metrics, or "other" for unknown verbs.
func Verb(command string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(command), " ")
	verb = strings.ToLower(verb)
	if knownVerbs[verb] {
		return verb
	}
	return "other"
}
