// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/tomtom215/hookwatch/internal/detection"
	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
	"github.com/tomtom215/hookwatch/internal/signature"
)

// GitHub delivery headers.
const (
	HeaderEvent    = "X-GitHub-Event"
	HeaderDelivery = "X-GitHub-Delivery"
)

// Delivery outcomes exported as the "outcome" metric label.
const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeMalformed = "malformed"
	outcomeTooLarge  = "too_large"
	outcomeReadError = "read_error"
	outcomeDuplicate = "duplicate"
)

// signatureMismatch is the only detail a rejected caller gets.
const signatureMismatch = "Signature mismatch"

// DefaultMaxPayloadBytes matches GitHub's 25 MB payload cap.
const DefaultMaxPayloadBytes int64 = 25 << 20

// EventDispatcher is the part of detection.Dispatcher the webhook needs.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string, payload detection.Payload) []string
}

// DeliveryGuard recognizes redelivered webhooks by their delivery GUID.
// Seen records id and reports whether it had already been recorded.
type DeliveryGuard interface {
	Seen(id string) bool
}

// WebhookHandler receives GitHub deliveries, authenticates them against the
// raw body and hands verified events to the dispatcher.
type WebhookHandler struct {
	verifier   *signature.Verifier
	dispatcher EventDispatcher
	deliveries DeliveryGuard
	maxBytes   int64
}

// NewWebhookHandler creates the handler. maxBytes <= 0 uses DefaultMaxPayloadBytes
// and a nil deliveries guard evaluates every delivery.
func NewWebhookHandler(verifier *signature.Verifier, dispatcher EventDispatcher, deliveries DeliveryGuard, maxBytes int64) *WebhookHandler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPayloadBytes
	}
	return &WebhookHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		deliveries: deliveries,
		maxBytes:   maxBytes,
	}
}

// ServeHTTP handles one delivery.
//
// A missing or wrong signature is answered with 401 and nothing else. Once
// the signature checks out the caller always gets 200, whether or not the
// body decodes and whether or not a rule fired.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	delivery := r.Header.Get(HeaderDelivery)
	if delivery != "" {
		ctx = logging.ContextWithDeliveryID(ctx, logging.SanitizeValue(delivery))
	}

	// The signature covers the exact bytes GitHub sent, so read them before anything else.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			metrics.RecordWebhookDelivery(outcomeTooLarge)
			respondError(w, r, http.StatusRequestEntityTooLarge, "Payload too large", nil)
			return
		}
		metrics.RecordWebhookDelivery(outcomeReadError)
		respondError(w, r, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	if !h.verifier.Verify(body, r.Header.Get(signature.HeaderName)) {
		metrics.RecordWebhookDelivery(outcomeRejected)
		logging.Ctx(ctx).Warn().
			Str("remote_addr", r.RemoteAddr).
			Bool("signature_present", r.Header.Get(signature.HeaderName) != "").
			Msg("Webhook signature verification failed")
		respondJSON(w, http.StatusUnauthorized, &apiResponse{Status: statusError, Error: signatureMismatch})
		return
	}

	eventType := r.Header.Get(HeaderEvent)
	logger := logging.Ctx(ctx)

	// Only verified deliveries are recorded, so forged requests cannot
	// poison the guard with a GUID GitHub is about to use.
	if h.deliveries != nil && h.deliveries.Seen(delivery) {
		metrics.RecordWebhookDelivery(outcomeDuplicate)
		logger.Info().
			Str("event", logging.SanitizeValue(eventType)).
			Msg("Duplicate delivery acknowledged without evaluation")
		respondJSON(w, http.StatusOK, &apiResponse{Status: statusReceived})
		return
	}

	payload, err := detection.DecodePayload(body)
	if err != nil {
		metrics.RecordWebhookDelivery(outcomeMalformed)
		logger.Warn().Err(err).
			Str("event", logging.SanitizeValue(eventType)).
			Int("bytes", len(body)).
			Msg("Verified webhook body is not a JSON object, skipping evaluation")
		respondJSON(w, http.StatusOK, &apiResponse{Status: statusReceived})
		return
	}

	logger.Info().
		Str("event", logging.SanitizeValue(eventType)).
		Str("action", logging.SanitizeValue(payload.Text("action"))).
		Str("repository", logging.SanitizeValue(payload.Text("repository", "full_name"))).
		Msg("Webhook received")

	causes := h.dispatcher.Dispatch(ctx, eventType, payload)
	metrics.RecordWebhookDelivery(outcomeAccepted)
	if len(causes) > 0 {
		logger.Debug().Strs("causes", causes).Msg("Webhook raised an alert")
	}

	respondJSON(w, http.StatusOK, &apiResponse{Status: statusReceived})
}
