//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoFilters.
//
// GoFilters is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoFilters is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoFilters. If not, see https://www.gnu.org/licenses/.

package readers

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aaronlmathis/gofilters/core"
)

// JSONReaderError wraps structured error information for the JSON lines reader.
type JSONReaderError struct {
	Op   string
	Line int
	Err  error
}

func (e *JSONReaderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("json reader %s (line %d): %v", e.Op, e.Line, e.Err)
	}
	return fmt.Sprintf("json reader %s: %v", e.Op, e.Err)
}

func (e *JSONReaderError) Unwrap() error {
	return e.Err
}

// JSONReaderStats holds statistics about the JSON reader.
type JSONReaderStats struct {
	RecordsRead  int64
	LinesSkipped int64
	ReadDuration time.Duration
}

// JSONReaderOptions configures the JSON reader.
type JSONReaderOptions struct {
	// UseNumber decodes numbers as json.Number instead of float64.
	UseNumber bool
	// MaxLineSize is the longest accepted line in bytes.
	MaxLineSize int
}

// ReaderOptionJSON allows functional customization of JSONReader.
type ReaderOptionJSON func(*JSONReaderOptions)

// WithJSONUseNumber toggles json.Number decoding. Enabled by default so
// integers survive unchanged.
func WithJSONUseNumber(use bool) ReaderOptionJSON {
	return func(o *JSONReaderOptions) { o.UseNumber = use }
}

// WithJSONMaxLineSize sets the longest accepted line.
func WithJSONMaxLineSize(n int) ReaderOptionJSON {
	return func(o *JSONReaderOptions) { o.MaxLineSize = n }
}

// JSONReader implements DataSource for JSON lines files.
// Blank lines are skipped.
type JSONReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	opts    JSONReaderOptions
	line    int
	done    bool
	stats   JSONReaderStats
}

// NewJSONReader creates a new JSON reader for line-delimited JSON.
func NewJSONReader(r io.ReadCloser, options ...ReaderOptionJSON) *JSONReader {
	opts := JSONReaderOptions{UseNumber: true, MaxLineSize: 16 << 20}
	for _, opt := range options {
		opt(&opts)
	}

	initial := 64 * 1024
	if opts.MaxLineSize < initial {
		initial = opts.MaxLineSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initial), opts.MaxLineSize)
	return &JSONReader{
		scanner: scanner,
		closer:  r,
		opts:    opts,
	}
}

// Read implements the DataSource interface.
func (j *JSONReader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() { j.stats.ReadDuration += time.Since(start) }()

	select {
	case <-ctx.Done():
		return nil, &JSONReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if j.done {
		return nil, io.EOF
	}
	for j.scanner.Scan() {
		j.line++
		line := bytes.TrimSpace(j.scanner.Bytes())
		if len(line) == 0 {
			j.stats.LinesSkipped++
			continue
		}
		record, err := decodeRecord(line, j.opts.UseNumber)
		if err != nil {
			return nil, &JSONReaderError{Op: "decode", Line: j.line, Err: err}
		}
		j.stats.RecordsRead++
		return record, nil
	}
	j.done = true
	if err := j.scanner.Err(); err != nil {
		return nil, &JSONReaderError{Op: "scan", Line: j.line + 1, Err: err}
	}
	return nil, io.EOF
}

// Stats returns JSON reader stats.
func (j *JSONReader) Stats() JSONReaderStats {
	return j.stats
}

// Close implements the DataSource interface.
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
