// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Command hookwatch serves the GitHub webhook endpoint and reports anomalous
// events. See internal/cli for flags and arguments.
package main

import (
	"context"
	"os"

	"github.com/tomtom215/hookwatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
