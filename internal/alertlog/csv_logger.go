// Hookwatch - GitHub Webhook Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/hookwatch

// Package alertlog persists anomaly alerts as rows of a CSV file.
//
// The file has one header row followed by one row per alert:
//
//	event,time,causes,repository_name,pusher_name,team_name
//	team,1718546709.123456,"[""hacker in the team name""]",None,None,hacker-club
//
// time is Unix seconds with a fractional part and causes is a JSON array.
// Existing files are appended to; the header is written only when the file
// is empty.
package alertlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/hookwatch/internal/detection"
	"github.com/tomtom215/hookwatch/internal/logging"
	"github.com/tomtom215/hookwatch/internal/metrics"
)

const sinkName = "csv"

// ErrInvalidPath is returned for paths that do not name a .csv file.
var ErrInvalidPath = errors.New("alert log path must name a .csv file")

// Columns is the header row, in order.
var Columns = []string{"event", "time", "causes", "repository_name", "pusher_name", "team_name"}

// CSVLogger appends alert records to a CSV file. It implements
// detection.AlertLogger and is safe for concurrent use.
type CSVLogger struct {
	path string

	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

var _ detection.AlertLogger = (*CSVLogger)(nil)

// NewCSVLogger opens (or creates) path for appending.
func NewCSVLogger(path string) (*CSVLogger, error) {
	if !strings.Contains(path, ".csv") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve alert log path: %w", err)
	}

	//nolint:gosec // path comes from operator configuration
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open alert log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat alert log: %w", err)
	}

	l := &CSVLogger{path: abs, file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.writeRow(Columns); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write alert log header: %w", err)
		}
	}

	logging.Info().Str("path", abs).Msg("Alert log opened")
	return l, nil
}

// Path returns the absolute path of the log file.
func (l *CSVLogger) Path() string {
	return l.path
}

// Log appends one row for record.
func (l *CSVLogger) Log(_ context.Context, record *detection.AlertRecord) error {
	row, err := encodeRow(record)
	if err == nil {
		l.mu.Lock()
		if l.file == nil {
			err = os.ErrClosed
		} else {
			err = l.writeRow(row)
		}
		l.mu.Unlock()
	}

	metrics.RecordAlertLogWrite(sinkName, err)
	if err != nil {
		return fmt.Errorf("append to alert log %s: %w", l.path, err)
	}
	return nil
}

// Close flushes and closes the file. Further Log calls fail.
func (l *CSVLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.w.Flush()
	flushErr := l.w.Error()
	closeErr := l.file.Close()
	l.file = nil
	return errors.Join(flushErr, closeErr)
}

// writeRow must be called with mu held (or before l is shared).
func (l *CSVLogger) writeRow(row []string) error {
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

func encodeRow(record *detection.AlertRecord) ([]string, error) {
	if record == nil {
		return nil, errors.New("nil alert record")
	}
	causes := record.Causes
	if causes == nil {
		causes = []string{}
	}
	encoded, err := json.Marshal(causes)
	if err != nil {
		return nil, fmt.Errorf("encode causes: %w", err)
	}

	seconds := float64(record.Time.Unix()) + float64(record.Time.Nanosecond())/1e9
	return []string{
		record.EventName,
		strconv.FormatFloat(seconds, 'f', 6, 64),
		string(encoded),
		orNone(record.Context.RepositoryName),
		orNone(record.Context.PusherName),
		orNone(record.Context.TeamName),
	}, nil
}

func orNone(s string) string {
	if s == "" {
		return detection.NoneValue
	}
	return s
}
