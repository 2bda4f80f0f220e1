// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package detection evaluates verified GitHub webhook events against a fixed
// set of anomaly rules and raises alerts when a rule fires.
//
// Detection Architecture:
//
//	(event type, Payload) -> Dispatcher -> Handler -> Rules -> Alerter
//	                                                      |
//	                                                      v
//	                                          console line + AlertLogger
//
// Each Handler is bound to one event type and owns an ordered list of
// Rules. Every Rule is a cause label plus a predicate over the payload.
// Rules run in registration order; the labels of the rules that match
// become the causes of a single alert.
//
// Supported Rules:
//   - push: the push happened between 14:00 (inclusive) and 16:00
//     (exclusive) local time.
//   - team: the team name contains "hacker" (case-sensitive).
//   - repository: a repository was deleted within the correlation window
//     (10 minutes by default) of its creation, both observed by this process.
//
// The repository rule keeps a creation-time table guarded by a mutex. Entries
// for repositories that are never deleted are kept for the life of the
// process; the table size is exported as hookwatch_repo_correlation_entries.
package detection
