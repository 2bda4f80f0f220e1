// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/webhook", "200"))

	RecordAPIRequest("POST", "/webhook", "200", 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/webhook", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestRecordAlert(t *testing.T) {
	alerts := AlertsTotal.WithLabelValues("team")
	causeA := AnomaliesTotal.WithLabelValues("team", "cause-a")
	causeB := AnomaliesTotal.WithLabelValues("team", "cause-b")
	beforeAlerts, beforeA, beforeB := testutil.ToFloat64(alerts), testutil.ToFloat64(causeA), testutil.ToFloat64(causeB)

	RecordAlert("team", []string{"cause-a", "cause-b"})

	if d := testutil.ToFloat64(alerts) - beforeAlerts; d != 1 {
		t.Errorf("alerts delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(causeA) - beforeA; d != 1 {
		t.Errorf("cause-a delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(causeB) - beforeB; d != 1 {
		t.Errorf("cause-b delta = %v, want 1", d)
	}
}

func TestRecordAlertLogWrite(t *testing.T) {
	ok := AlertLogWrites.WithLabelValues("csv", "success")
	failed := AlertLogWrites.WithLabelValues("csv", "error")
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordAlertLogWrite("csv", nil)
	RecordAlertLogWrite("csv", errors.New("disk full"))

	if d := testutil.ToFloat64(ok) - beforeOK; d != 1 {
		t.Errorf("success delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(failed) - beforeFailed; d != 1 {
		t.Errorf("error delta = %v, want 1", d)
	}
}

func TestSetCorrelationEntries(t *testing.T) {
	SetCorrelationEntries(7)
	if got := testutil.ToFloat64(CorrelationEntries); got != 7 {
		t.Errorf("correlation entries = %v, want 7", got)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("alert-webhook", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("alert-webhook")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("alert-webhook", "closed", "open")); got < 1 {
		t.Errorf("transitions = %v, want >= 1", got)
	}
}
