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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
)

// ParquetReaderError provides structured error information for the Parquet reader.
type ParquetReaderError struct {
	Op  string // Operation that failed (e.g., "read", "load_batch", "open_file", "schema")
	Err error
}

func (e *ParquetReaderError) Error() string {
	return fmt.Sprintf("parquet reader %s: %v", e.Op, e.Err)
}

func (e *ParquetReaderError) Unwrap() error {
	return e.Err
}

// ParquetReaderStats holds statistics about the Parquet reader.
type ParquetReaderStats struct {
	RecordsRead     int64
	BatchesRead     int64
	ReadDuration    time.Duration
	NullValueCounts map[string]int64
}

// ParquetReaderOptions configures the Parquet reader.
type ParquetReaderOptions struct {
	BatchSize int64
	Columns   []string
}

// ReaderOptionParquet represents a configuration function for ParquetReader.
type ReaderOptionParquet func(*ParquetReaderOptions)

// WithParquetBatchSize sets the rows decoded per batch.
func WithParquetBatchSize(size int64) ReaderOptionParquet {
	return func(opts *ParquetReaderOptions) { opts.BatchSize = size }
}

// WithParquetColumns projects the named columns only.
func WithParquetColumns(columns ...string) ReaderOptionParquet {
	return func(opts *ParquetReaderOptions) {
		opts.Columns = append([]string(nil), columns...)
	}
}

// ParquetReader implements DataSource for Parquet files.
//
// LIST columns become []interface{} and STRUCT columns become
// *filters.OrderedMap in schema field order, so a Repeater or Mapper can walk
// nested data directly.
type ParquetReader struct {
	fileHandle   *os.File
	recordReader pqarrow.RecordReader
	batch        arrow.Record
	row          int
	schema       *arrow.Schema
	stats        ParquetReaderStats
}

// NewParquetReader opens filename for reading.
func NewParquetReader(filename string, options ...ReaderOptionParquet) (*ParquetReader, error) {
	opts := &ParquetReaderOptions{BatchSize: 1000}
	for _, option := range options {
		option(opts)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetReaderError{Op: "open_file", Err: err}
	}

	pf, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_reader", Err: err}
	}

	props := pqarrow.ArrowReadProperties{BatchSize: opts.BatchSize}
	arrowReader, err := pqarrow.NewFileReader(pf, props, memory.NewGoAllocator())
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_arrow_reader", Err: err}
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "get_schema", Err: err}
	}

	colIndices, err := projectColumns(schema, opts.Columns)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "column_projection", Err: err}
	}

	recordReader, err := arrowReader.GetRecordReader(context.Background(), colIndices, nil)
	if err != nil {
		f.Close()
		return nil, &ParquetReaderError{Op: "create_record_reader", Err: err}
	}

	return &ParquetReader{
		fileHandle:   f,
		recordReader: recordReader,
		schema:       schema,
		stats:        ParquetReaderStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// projectColumns maps column names to leaf column indices. Nil selects all.
func projectColumns(schema *arrow.Schema, columns []string) ([]int, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	indices := make([]int, 0, len(columns))
	for _, name := range columns {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("column %q not found in schema", name)
		}
		indices = append(indices, idx[0])
	}
	return indices, nil
}

// Read reads the next row, returning io.EOF at the end of the file.
func (p *ParquetReader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() { p.stats.ReadDuration += time.Since(start) }()

	select {
	case <-ctx.Done():
		return nil, &ParquetReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	for p.batch == nil || p.row >= int(p.batch.NumRows()) {
		if err := p.loadNextBatch(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, &ParquetReaderError{Op: "load_batch", Err: err}
		}
	}

	rec := make(core.Record, p.batch.NumCols())
	sch := p.batch.Schema()
	for i := 0; i < int(p.batch.NumCols()); i++ {
		name := sch.Field(i).Name
		v := arrowValue(p.batch.Column(i), p.row)
		if v == nil {
			p.stats.NullValueCounts[name]++
		}
		rec[name] = v
	}
	p.row++
	p.stats.RecordsRead++
	return rec, nil
}

func (p *ParquetReader) loadNextBatch() error {
	if p.batch != nil {
		p.batch.Release()
		p.batch = nil
	}
	rec, err := p.recordReader.Read()
	if err != nil {
		return err
	}
	if rec == nil {
		return io.EOF
	}
	rec.Retain()
	p.batch = rec
	p.row = 0
	p.stats.BatchesRead++
	return nil
}

// Schema returns the Arrow schema of the Parquet file.
func (p *ParquetReader) Schema() *arrow.Schema {
	return p.schema
}

// Stats returns statistics about the Parquet reader.
func (p *ParquetReader) Stats() ParquetReaderStats {
	return p.stats
}

// Close releases resources and closes the underlying file.
func (p *ParquetReader) Close() error {
	if p.batch != nil {
		p.batch.Release()
		p.batch = nil
	}
	if p.recordReader != nil {
		p.recordReader.Release()
		p.recordReader = nil
	}
	if p.fileHandle != nil {
		err := p.fileHandle.Close()
		p.fileHandle = nil
		return err
	}
	return nil
}

// arrowValue converts one cell to a Go value.
func arrowValue(col arrow.Array, i int) interface{} {
	if col.IsNull(i) {
		return nil
	}

	switch arr := col.(type) {
	case *array.Boolean:
		return arr.Value(i)
	case *array.Int8:
		return arr.Value(i)
	case *array.Int16:
		return arr.Value(i)
	case *array.Int32:
		return arr.Value(i)
	case *array.Int64:
		return arr.Value(i)
	case *array.Uint8:
		return arr.Value(i)
	case *array.Uint16:
		return arr.Value(i)
	case *array.Uint32:
		return arr.Value(i)
	case *array.Uint64:
		return arr.Value(i)
	case *array.Float32:
		return arr.Value(i)
	case *array.Float64:
		return arr.Value(i)
	case *array.String:
		return arr.Value(i)
	case *array.LargeString:
		return arr.Value(i)
	case *array.Binary:
		return append([]byte(nil), arr.Value(i)...)
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(i).ToTime(unit).UTC()
	case *array.Date32:
		return arr.Value(i).ToTime().UTC()
	case *array.Date64:
		return arr.Value(i).ToTime().UTC()
	case *array.List:
		offsets := arr.Offsets()
		values := arr.ListValues()
		out := make([]interface{}, 0, offsets[i+1]-offsets[i])
		for j := offsets[i]; j < offsets[i+1]; j++ {
			out = append(out, arrowValue(values, int(j)))
		}
		return out
	case *array.Struct:
		st := arr.DataType().(*arrow.StructType)
		m := filters.NewOrderedMap()
		for f := 0; f < arr.NumField(); f++ {
			m.Set(st.Field(f).Name, arrowValue(arr.Field(f), i))
		}
		return m
	}
	return fmt.Sprintf("%v", col.GetOneForMarshal(i))
}
