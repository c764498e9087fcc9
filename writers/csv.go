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

package writers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/aaronlmathis/gofilters/core"
)

// CSVWriterError wraps CSV-specific write errors with context.
type CSVWriterError struct {
	Op  string
	Err error
}

func (e *CSVWriterError) Error() string {
	return fmt.Sprintf("csv writer %s: %v", e.Op, e.Err)
}

func (e *CSVWriterError) Unwrap() error {
	return e.Err
}

// CSVWriterStats holds CSV write performance statistics.
type CSVWriterStats struct {
	RecordsWritten  int64
	FlushCount      int64
	FlushDuration   time.Duration
	NullValueCounts map[string]int64
}

// CSVWriterOptions configures CSV output.
type CSVWriterOptions struct {
	Comma       rune
	UseCRLF     bool
	WriteHeader bool
	Headers     []string
	BatchSize   int
}

// WriterOptionCSV is a functional option.
type WriterOptionCSV func(*CSVWriterOptions)

// WithHeaders fixes the column order. Without it the columns are the sorted
// keys of the first record, and keys missing from it are not written.
func WithHeaders(headers []string) WriterOptionCSV {
	return func(opts *CSVWriterOptions) {
		opts.Headers = append([]string(nil), headers...)
	}
}

func WithComma(delim rune) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.Comma = delim }
}

func WithWriteHeader(write bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.WriteHeader = write }
}

func WithCSVBatchSize(size int) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.BatchSize = size }
}

func WithUseCRLF(useCRLF bool) WriterOptionCSV {
	return func(opts *CSVWriterOptions) { opts.UseCRLF = useCRLF }
}

// CSVWriter implements DataSink for CSV output. Nested values are written as
// JSON text.
type CSVWriter struct {
	mu          sync.Mutex
	writer      *csv.Writer
	closer      io.Closer
	options     CSVWriterOptions
	headers     []string
	recordBuf   []core.Record
	stats       CSVWriterStats
	wroteHeader bool
	failed      error
}

// NewCSVWriter creates a new CSV writer with extended options.
func NewCSVWriter(w io.WriteCloser, opts ...WriterOptionCSV) (*CSVWriter, error) {
	options := CSVWriterOptions{
		Comma:       ',',
		WriteHeader: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Comma == '\n' || options.Comma == '\r' || options.Comma == '"' {
		return nil, &CSVWriterError{Op: "validate", Err: fmt.Errorf("invalid delimiter %q", options.Comma)}
	}

	cw := csv.NewWriter(w)
	cw.Comma = options.Comma
	cw.UseCRLF = options.UseCRLF

	return &CSVWriter{
		writer:  cw,
		closer:  w,
		options: options,
		headers: append([]string(nil), options.Headers...),
		stats:   CSVWriterStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// Write implements the DataSink interface.
func (c *CSVWriter) Write(ctx context.Context, record core.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed != nil {
		return &CSVWriterError{Op: "write", Err: fmt.Errorf("writer is in error state: %w", c.failed)}
	}

	if len(c.headers) == 0 {
		for key := range record {
			c.headers = append(c.headers, key)
		}
		sort.Strings(c.headers)
	}
	if !c.wroteHeader && c.options.WriteHeader {
		if err := c.writer.Write(c.headers); err != nil {
			c.failed = err
			return &CSVWriterError{Op: "write_header", Err: err}
		}
		c.wroteHeader = true
	}

	for k, v := range record {
		if v == nil {
			c.stats.NullValueCounts[k]++
		}
	}
	c.recordBuf = append(c.recordBuf, record)
	c.stats.RecordsWritten++

	if len(c.recordBuf) >= c.options.BatchSize {
		if err := c.flushBufferUnsafe(); err != nil {
			c.failed = err
			return err
		}
	}
	return nil
}

// Flush implements the DataSink interface.
func (c *CSVWriter) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushBufferUnsafe()
}

// Close implements the DataSink interface.
func (c *CSVWriter) Close() error {
	err := c.Flush()
	if c.closer != nil {
		err = errors.Join(err, c.closer.Close())
		c.closer = nil
	}
	return err
}

// flushBufferUnsafe writes buffered records (must hold mutex).
func (c *CSVWriter) flushBufferUnsafe() error {
	start := time.Now()

	for _, record := range c.recordBuf {
		row := make([]string, len(c.headers))
		for i, key := range c.headers {
			cell, err := cellString(record[key])
			if err != nil {
				return &CSVWriterError{Op: "encode_" + key, Err: err}
			}
			row[i] = cell
		}
		if err := c.writer.Write(row); err != nil {
			return &CSVWriterError{Op: "write_row", Err: err}
		}
	}
	c.recordBuf = c.recordBuf[:0]

	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return &CSVWriterError{Op: "flush", Err: err}
	}
	c.stats.FlushCount++
	c.stats.FlushDuration += time.Since(start)
	return nil
}

// Stats returns write statistics.
func (c *CSVWriter) Stats() CSVWriterStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	statsCopy := c.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(c.stats.NullValueCounts))
	for k, v := range c.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}
