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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
	"github.com/lib/pq"
)

// This file implements a batched PostgreSQL writer. Nested values are stored
// as JSONB.

// PostgresWriterError provides structured error information for Postgres writer operations
type PostgresWriterError struct {
	Op  string
	Err error
}

func (e *PostgresWriterError) Error() string {
	return fmt.Sprintf("postgres writer %s: %v", e.Op, e.Err)
}

func (e *PostgresWriterError) Unwrap() error {
	return e.Err
}

// PostgresWriterStats holds statistics about the Postgres writer.
type PostgresWriterStats struct {
	RecordsWritten int64
	BatchesWritten int64
	ConflictCount  int64
	WriteDuration  time.Duration
}

// ConflictResolution defines how to handle INSERT conflicts in PostgreSQL.
type ConflictResolution int

const (
	// ConflictError fails on conflicting rows.
	ConflictError ConflictResolution = iota
	// ConflictIgnore ignores conflicting rows (ON CONFLICT DO NOTHING).
	ConflictIgnore
	// ConflictUpdate updates conflicting rows (ON CONFLICT DO UPDATE).
	ConflictUpdate
)

// PostgresWriterOptions configures the Postgres writer.
type PostgresWriterOptions struct {
	DSN                string
	TableName          string
	Columns            []string
	BatchSize          int
	CreateTable        bool
	ConflictResolution ConflictResolution
	ConflictColumns    []string
	UpdateColumns      []string
	QueryTimeout       time.Duration
}

// PostgresWriterOption represents a configuration function for PostgresWriterOptions
type PostgresWriterOption func(*PostgresWriterOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) { opts.DSN = dsn }
}

// WithTableName sets the target table. It may be schema qualified.
func WithTableName(tableName string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) { opts.TableName = tableName }
}

// WithColumns fixes the written columns. Without it the columns are the
// sorted keys of the first record.
func WithColumns(columns []string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) { opts.Columns = append([]string(nil), columns...) }
}

// WithPostgresBatchSize sets the rows written per transaction.
func WithPostgresBatchSize(size int) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) { opts.BatchSize = size }
}

// WithCreateTable creates the table from the first record when missing.
func WithCreateTable(create bool) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) { opts.CreateTable = create }
}

// WithConflictResolution sets the ON CONFLICT behavior.
func WithConflictResolution(resolution ConflictResolution, conflictCols, updateCols []string) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) {
		opts.ConflictResolution = resolution
		opts.ConflictColumns = append([]string(nil), conflictCols...)
		opts.UpdateColumns = append([]string(nil), updateCols...)
	}
}

// WithPostgresQueryTimeout bounds connecting and each batch.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresWriterOption {
	return func(opts *PostgresWriterOptions) { opts.QueryTimeout = timeout }
}

func defaultPostgresWriterOptions() *PostgresWriterOptions {
	return &PostgresWriterOptions{
		BatchSize:    500,
		QueryTimeout: 30 * time.Second,
	}
}

func (opts *PostgresWriterOptions) validate() error {
	switch {
	case opts.DSN == "":
		return errors.New("dsn is required")
	case opts.TableName == "":
		return errors.New("table name is required")
	case opts.BatchSize <= 0:
		return errors.New("batch size must be positive")
	case opts.ConflictResolution != ConflictError && len(opts.ConflictColumns) == 0:
		return errors.New("conflict columns are required for conflict resolution")
	case opts.ConflictResolution == ConflictUpdate && len(opts.UpdateColumns) == 0:
		return errors.New("update columns are required for ConflictUpdate")
	}
	return nil
}

// PostgresWriter implements core.DataSink for a PostgreSQL table.
type PostgresWriter struct {
	mu        sync.Mutex
	db        *sql.DB
	opts      *PostgresWriterOptions
	columns   []string
	query     string
	recordBuf []core.Record
	stats     PostgresWriterStats
}

// NewPostgresWriter connects to the database. The table is prepared on the
// first Write.
func NewPostgresWriter(options ...PostgresWriterOption) (*PostgresWriter, error) {
	opts := defaultPostgresWriterOptions()
	for _, option := range options {
		option(opts)
	}
	if err := opts.validate(); err != nil {
		return nil, &PostgresWriterError{Op: "validate", Err: err}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresWriterError{Op: "connect", Err: err}
	}
	ctx, cancel := context.WithTimeout(context.Background(), opts.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &PostgresWriterError{Op: "ping", Err: err}
	}

	return &PostgresWriter{
		db:      db,
		opts:    opts,
		columns: append([]string(nil), opts.Columns...),
	}, nil
}

// Write implements the core.DataSink interface.
func (w *PostgresWriter) Write(ctx context.Context, record core.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return &PostgresWriterError{Op: "write", Err: errors.New("writer is closed")}
	}
	if w.query == "" {
		if err := w.initializeUnsafe(ctx, record); err != nil {
			return err
		}
	}

	w.recordBuf = append(w.recordBuf, record)
	if len(w.recordBuf) >= w.opts.BatchSize {
		return w.flushBufferUnsafe(ctx)
	}
	return nil
}

// Flush implements the core.DataSink interface.
func (w *PostgresWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), w.opts.QueryTimeout)
	defer cancel()
	return w.flushBufferUnsafe(ctx)
}

// Close flushes pending rows and closes the connection pool.
func (w *PostgresWriter) Close() error {
	err := w.Flush()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.db != nil {
		err = errors.Join(err, w.db.Close())
		w.db = nil
	}
	return err
}

// Stats returns statistics about the PostgreSQL writer.
func (w *PostgresWriter) Stats() PostgresWriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *PostgresWriter) initializeUnsafe(ctx context.Context, first core.Record) error {
	if len(w.columns) == 0 {
		for key := range first {
			w.columns = append(w.columns, key)
		}
		sort.Strings(w.columns)
	}

	if w.opts.CreateTable {
		query := createTableQuery(w.opts.TableName, w.columns, first)
		if _, err := w.db.ExecContext(ctx, query); err != nil {
			return &PostgresWriterError{Op: "create_table", Err: err}
		}
	}
	w.query = insertQuery(w.opts, w.columns)
	return nil
}

// flushBufferUnsafe writes buffered records in one transaction (must hold mutex).
func (w *PostgresWriter) flushBufferUnsafe(ctx context.Context) (err error) {
	if len(w.recordBuf) == 0 || w.db == nil {
		return nil
	}
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return &PostgresWriterError{Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, w.query)
	if err != nil {
		return &PostgresWriterError{Op: "prepare", Err: err}
	}
	defer stmt.Close()

	var conflicts int64
	for _, record := range w.recordBuf {
		values := make([]interface{}, len(w.columns))
		for i, col := range w.columns {
			if values[i], err = convertValue(record[col]); err != nil {
				return &PostgresWriterError{Op: "encode_" + col, Err: err}
			}
		}
		result, err := stmt.ExecContext(ctx, values...)
		if err != nil {
			return &PostgresWriterError{Op: "insert", Err: err}
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			conflicts++
		}
	}

	if err = tx.Commit(); err != nil {
		return &PostgresWriterError{Op: "commit", Err: err}
	}

	w.stats.RecordsWritten += int64(len(w.recordBuf))
	w.stats.BatchesWritten++
	w.stats.ConflictCount += conflicts
	w.stats.WriteDuration += time.Since(start)
	w.recordBuf = w.recordBuf[:0]
	return nil
}

// quoteTable quotes a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func quoteColumns(columns []string) []string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	return quoted
}

func createTableQuery(table string, columns []string, sample core.Record) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = pq.QuoteIdentifier(col) + " " + inferSQLType(sample[col])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteTable(table), strings.Join(defs, ", "))
}

func insertQuery(opts *PostgresWriterOptions, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTable(opts.TableName),
		strings.Join(quoteColumns(columns), ", "),
		strings.Join(placeholders, ", "))

	switch opts.ConflictResolution {
	case ConflictIgnore:
		query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING",
			strings.Join(quoteColumns(opts.ConflictColumns), ", "))
	case ConflictUpdate:
		updates := make([]string, len(opts.UpdateColumns))
		for i, col := range opts.UpdateColumns {
			q := pq.QuoteIdentifier(col)
			updates[i] = q + " = EXCLUDED." + q
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(quoteColumns(opts.ConflictColumns), ", "),
			strings.Join(updates, ", "))
	}
	return query
}

// inferSQLType infers a PostgreSQL column type from a sample value.
func inferSQLType(value interface{}) string {
	switch value.(type) {
	case bool:
		return "BOOLEAN"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case json.Number:
		return "NUMERIC"
	case time.Time:
		return "TIMESTAMPTZ"
	case []byte:
		return "BYTEA"
	case *filters.OrderedMap, map[string]interface{}, core.Record, map[interface{}]interface{}, []interface{}:
		return "JSONB"
	}
	return "TEXT"
}

// convertValue converts a record value into a driver value.
func convertValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil, bool, int64, float64, string, []byte, time.Time:
		return v, nil
	case json.Number:
		return v.String(), nil
	case *filters.OrderedMap, map[string]interface{}, core.Record, map[interface{}]interface{}, []interface{}:
		b, err := marshalJSON(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(rv.Uint()), nil
	case reflect.Uint64:
		return fmt.Sprintf("%d", rv.Uint()), nil
	case reflect.Float32:
		return rv.Float(), nil
	}
	if s, ok := value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return fmt.Sprintf("%v", value), nil
}
