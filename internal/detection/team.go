// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import "strings"

// hackerMarker is matched case-sensitively.
const hackerMarker = "hacker"

// TeamHandler flags teams whose name contains "hacker".
type TeamHandler struct {
	*Handler
}

// NewTeamHandler creates the team handler.
func NewTeamHandler(alerter *Alerter) *TeamHandler {
	h := &TeamHandler{Handler: NewHandler(EventTeam, alerter)}
	h.mustAddRule(CauseHackerTeam, TeamNameHasHacker)
	return h
}

// TeamNameHasHacker reports whether team.name is a string containing "hacker".
func TeamNameHasHacker(p Payload) bool {
	name, ok := p.String("team", "name")
	return ok && strings.Contains(name, hackerMarker)
}
