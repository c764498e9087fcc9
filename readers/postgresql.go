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
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aaronlmathis/gofilters/core"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// This file implements a PostgreSQL reader streaming the rows of one query.
// json and jsonb columns are decoded with key order preserved.

// PostgresReaderError provides structured error information for Postgres reader operations
type PostgresReaderError struct {
	Op  string // Operation that failed (e.g., "connect", "query", "scan", "read")
	Err error
}

func (e *PostgresReaderError) Error() string {
	return fmt.Sprintf("postgres reader %s: %v", e.Op, e.Err)
}

func (e *PostgresReaderError) Unwrap() error {
	return e.Err
}

// PostgresReaderStats holds statistics about the Postgres reader's performance
type PostgresReaderStats struct {
	RecordsRead     int64
	QueryDuration   time.Duration
	ReadDuration    time.Duration
	NullValueCounts map[string]int64
}

// PostgresReaderOptions configures the Postgres reader
type PostgresReaderOptions struct {
	DSN             string        // Database connection string
	Query           string        // SQL query to execute
	Params          []interface{} // Optional query parameters
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	QueryTimeout    time.Duration // Timeout for connecting and starting the query
}

// PostgresReaderOption represents a configuration function for PostgresReaderOptions
type PostgresReaderOption func(*PostgresReaderOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) { opts.DSN = dsn }
}

// WithPostgresQuery sets the SQL query and optional parameters.
func WithPostgresQuery(query string, params ...interface{}) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.Query = query
		opts.Params = append([]interface{}(nil), params...)
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresQueryTimeout sets the timeout for connecting and starting the query.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) { opts.QueryTimeout = timeout }
}

func defaultPostgresReaderOptions() *PostgresReaderOptions {
	return &PostgresReaderOptions{
		ConnMaxLifetime: 5 * time.Minute,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		QueryTimeout:    30 * time.Second,
	}
}

func (opts *PostgresReaderOptions) validate() error {
	if opts.DSN == "" {
		return &PostgresReaderError{Op: "validate", Err: errors.New("dsn is required")}
	}
	if opts.Query == "" {
		return &PostgresReaderError{Op: "validate", Err: errors.New("query is required")}
	}
	return nil
}

// PostgresReader implements core.DataSource for PostgreSQL databases.
type PostgresReader struct {
	db      *sql.DB
	rows    *sql.Rows
	columns []*sql.ColumnType
	values  []interface{}
	scan    []interface{}
	stats   PostgresReaderStats
}

// NewPostgresReader connects and starts the query.
func NewPostgresReader(options ...PostgresReaderOption) (*PostgresReader, error) {
	opts := defaultPostgresReaderOptions()
	for _, option := range options {
		option(opts)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresReaderError{Op: "connect", Err: err}
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &PostgresReaderError{Op: "ping", Err: err}
	}

	start := time.Now()
	// The rows outlive ctx, so the query runs on a background context.
	rows, err := db.QueryContext(context.Background(), opts.Query, opts.Params...)
	if err != nil {
		db.Close()
		return nil, &PostgresReaderError{Op: "query", Err: err}
	}

	columns, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, &PostgresReaderError{Op: "column_types", Err: err}
	}

	p := &PostgresReader{
		db:      db,
		rows:    rows,
		columns: columns,
		values:  make([]interface{}, len(columns)),
		scan:    make([]interface{}, len(columns)),
		stats: PostgresReaderStats{
			QueryDuration:   time.Since(start),
			NullValueCounts: make(map[string]int64),
		},
	}
	for i := range p.scan {
		p.scan[i] = &p.values[i]
	}
	return p, nil
}

// Read implements the core.DataSource interface.
func (p *PostgresReader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() { p.stats.ReadDuration += time.Since(start) }()

	select {
	case <-ctx.Done():
		return nil, &PostgresReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.rows == nil {
		return nil, io.EOF
	}
	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, &PostgresReaderError{Op: "read", Err: err}
		}
		return nil, io.EOF
	}
	if err := p.rows.Scan(p.scan...); err != nil {
		return nil, &PostgresReaderError{Op: "scan", Err: err}
	}

	record := make(core.Record, len(p.columns))
	for i, col := range p.columns {
		name := col.Name()
		if p.values[i] == nil {
			p.stats.NullValueCounts[name]++
			record[name] = nil
			continue
		}
		v, err := convertSQLValue(p.values[i], col.DatabaseTypeName())
		if err != nil {
			return nil, &PostgresReaderError{Op: "decode_" + name, Err: err}
		}
		record[name] = v
	}
	p.stats.RecordsRead++
	return record, nil
}

// Columns returns the result column names.
func (p *PostgresReader) Columns() []string {
	names := make([]string, len(p.columns))
	for i, col := range p.columns {
		names[i] = col.Name()
	}
	return names
}

// Stats returns statistics about the PostgreSQL reader.
func (p *PostgresReader) Stats() PostgresReaderStats {
	return p.stats
}

// Close implements the core.DataSource interface.
func (p *PostgresReader) Close() error {
	var errs []error
	if p.rows != nil {
		errs = append(errs, p.rows.Close())
		p.rows = nil
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
		p.db = nil
	}
	if err := errors.Join(errs...); err != nil {
		return &PostgresReaderError{Op: "close", Err: err}
	}
	return nil
}

// convertSQLValue converts a driver value by column type. lib/pq returns
// text, numeric and json columns as []byte.
func convertSQLValue(value interface{}, dbType string) (interface{}, error) {
	b, ok := value.([]byte)
	if !ok {
		return value, nil
	}
	switch dbType {
	case "JSON", "JSONB":
		return decodeDocument(b, true)
	case "BYTEA":
		return append([]byte(nil), b...), nil
	}
	return string(b), nil
}
