// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package detection

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Payload is a decoded webhook body. Only the fields a rule reads are
// inspected; everything else is carried untouched.
type Payload map[string]any

// DecodePayload parses a JSON object. Any other top-level value is an error.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p == nil {
		return nil, errors.New("decode payload: not a JSON object")
	}
	return p, nil
}

// Lookup walks nested objects following path. It reports false when any
// segment is missing, null, or not an object.
func (p Payload) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(p)
	for _, key := range path {
		var obj map[string]any
		switch m := cur.(type) {
		case map[string]any:
			obj = m
		case Payload:
			obj = m
		default:
			return nil, false
		}
		v, ok := obj[key]
		if !ok || v == nil {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// String returns the value at path when it is a JSON string.
func (p Payload) String(path ...string) (string, bool) {
	v, ok := p.Lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns the value at path when it is a finite JSON number.
func (p Payload) Number(path ...string) (float64, bool) {
	v, ok := p.Lookup(path...)
	if !ok {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case interface{ Float64() (float64, error) }:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text returns the value at path formatted for display, or NoneValue when
// it is absent. Strings are returned as-is.
func (p Payload) Text(path ...string) string {
	v, ok := p.Lookup(path...)
	if !ok {
		return NoneValue
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
