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
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/aaronlmathis/gofilters/core"
)

// JSONWriterError wraps JSON-specific write errors with context.
type JSONWriterError struct {
	Op  string
	Err error
}

func (e *JSONWriterError) Error() string {
	return fmt.Sprintf("json writer %s: %v", e.Op, e.Err)
}

func (e *JSONWriterError) Unwrap() error {
	return e.Err
}

// JSONWriter implements DataSink for JSON lines files
type JSONWriter struct {
	writer  *bufio.Writer
	closer  io.Closer
	written int64
}

// NewJSONWriter creates a new JSON writer for line-delimited JSON output
func NewJSONWriter(w io.WriteCloser) *JSONWriter {
	return &JSONWriter{
		writer: bufio.NewWriter(w),
		closer: w,
	}
}

// Write implements the DataSink interface
func (j *JSONWriter) Write(ctx context.Context, record core.Record) error {
	data, err := marshalJSON(record)
	if err != nil {
		return &JSONWriterError{Op: "marshal", Err: err}
	}
	if _, err := j.writer.Write(data); err != nil {
		return &JSONWriterError{Op: "write", Err: err}
	}
	if err := j.writer.WriteByte('\n'); err != nil {
		return &JSONWriterError{Op: "write", Err: err}
	}
	j.written++
	return nil
}

// RecordsWritten returns the number of records written.
func (j *JSONWriter) RecordsWritten() int64 {
	return j.written
}

// Flush implements the DataSink interface
func (j *JSONWriter) Flush() error {
	if err := j.writer.Flush(); err != nil {
		return &JSONWriterError{Op: "flush", Err: err}
	}
	return nil
}

// Close implements the DataSink interface
func (j *JSONWriter) Close() error {
	if err := j.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		err := j.closer.Close()
		j.closer = nil
		return err
	}
	return nil
}
