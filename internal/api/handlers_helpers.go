// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookwatch/internal/logging"
)

// Response status values.
const (
	statusReceived = "received"
	statusError    = "error"
	statusOK       = "ok"
)

// apiResponse is the envelope for every JSON body this server writes.
type apiResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *apiResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError sends an error envelope. message goes to the caller as-is, so
// it must not reveal why a request was rejected beyond what the caller needs.
// err is only logged.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Int("status", status).
			Str("error", logging.SanitizeValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, &apiResponse{Status: statusError, Error: message})
}
