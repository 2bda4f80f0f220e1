// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package signature authenticates GitHub webhook deliveries.
//
// GitHub signs every delivery with HMAC-SHA256 keyed by the webhook secret
// and sends the hex digest in the X-Hub-Signature-256 header, prefixed with
// "sha256=". Verification must run over the raw request body: decoding and
// re-encoding JSON does not reproduce the signed bytes.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HeaderName is the request header carrying the signature.
const HeaderName = "X-Hub-Signature-256"

// Prefix precedes the hex digest in the header value.
const Prefix = "sha256="

// Verifier checks payload signatures against one shared secret.
// It holds no mutable state and is safe for concurrent use.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for secret. An empty secret yields a
// Verifier that rejects everything.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify reports whether provided is the signature of payload under the
// configured secret.
func (v *Verifier) Verify(payload []byte, provided string) bool {
	if v == nil {
		return false
	}
	return verify(payload, provided, v.secret)
}

// Verify is the standalone form of (*Verifier).Verify.
func Verify(payload []byte, provided, secret string) bool {
	return verify(payload, provided, []byte(secret))
}

// Sign returns the header value GitHub would send for payload. Used by tests
// and by operators reproducing a delivery with curl.
func Sign(payload []byte, secret string) string {
	return Prefix + hex.EncodeToString(digest(payload, []byte(secret)))
}

func verify(payload []byte, provided string, secret []byte) bool {
	if len(secret) == 0 || !strings.HasPrefix(provided, Prefix) {
		return false
	}
	expected := Prefix + hex.EncodeToString(digest(payload, secret))
	return hmac.Equal([]byte(provided), []byte(expected))
}

func digest(payload, secret []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return mac.Sum(nil)
}
