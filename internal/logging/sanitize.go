// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package logging

import (
	"fmt"
	"strings"
)

// maxSanitizedLength caps attacker-controlled values written to logs.
const maxSanitizedLength = 256

// SanitizeValue escapes control characters (0x00-0x1F, 0x7F) and truncates
// long input so webhook fields such as repository or team names cannot forge
// log lines.
func SanitizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n >= maxSanitizedLength {
			b.WriteString("...")
			break
		}
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
		n++
	}
	return b.String()
}
