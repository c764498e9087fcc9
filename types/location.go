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

package types

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/readers"
	"github.com/aaronlmathis/gofilters/writers"
)

// Package types resolves input and output locations (local files, stdio,
// S3 objects, PostgreSQL and MongoDB) into DataSources and DataSinks.

// Format represents a record encoding.
type Format int

const (
	FormatAuto Format = iota
	FormatJSON
	FormatCSV
	FormatParquet
	FormatPostgres
	FormatMongo
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatJSON:
		return "jsonl"
	case FormatCSV:
		return "csv"
	case FormatParquet:
		return "parquet"
	case FormatPostgres:
		return "postgres"
	case FormatMongo:
		return "mongo"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name. The empty string means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "json", "jsonl", "ndjson":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "parquet":
		return FormatParquet, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q", s)
}

// FormatFromPath guesses a file format from its extension. Unknown
// extensions are JSON lines.
func FormatFromPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".csv":
		return FormatCSV
	case ".parquet":
		return FormatParquet
	}
	return FormatJSON
}

// InputOptions carries the settings a location may need to open a source.
type InputOptions struct {
	Format     Format
	Query      string // SQL query for PostgreSQL inputs
	Database   string // MongoDB database
	Collection string // MongoDB collection
	CSV        []readers.ReaderOptionCSV
}

// OutputOptions carries the settings a location may need to open a sink.
type OutputOptions struct {
	Format Format
	Table  string // PostgreSQL table
	CSV    []writers.WriterOptionCSV
}

// InputLocation creates a DataSource.
type InputLocation interface {
	NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error)
}

// OutputLocation creates a DataSink.
type OutputLocation interface {
	NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error)
}

// Location is any resolved location. Use a type assertion to InputLocation
// or OutputLocation for the direction needed.
type Location interface {
	fmt.Stringer
}

// ParseLocation resolves a location string:
//
//	-                          stdin or stdout
//	path/to/file.jsonl         local file
//	s3://bucket/key            S3 object, or every object under a prefix when reading
//	postgres://... postgresql://...
//	mongodb://... mongodb+srv://...
func ParseLocation(s string) (Location, error) {
	if s == "" {
		return nil, errors.New("empty location")
	}
	scheme, _, found := strings.Cut(s, "://")
	if !found {
		return FileLocation{Path: s}, nil
	}

	switch strings.ToLower(scheme) {
	case "s3":
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}
		if u.Host == "" {
			return nil, fmt.Errorf("s3 location %q has no bucket", s)
		}
		return S3Location{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
	case "postgres", "postgresql":
		return PostgresLocation{DSN: s}, nil
	case "mongodb", "mongodb+srv":
		return MongoLocation{URI: s}, nil
	case "file":
		return FileLocation{Path: strings.TrimPrefix(s, "file://")}, nil
	}
	return nil, fmt.Errorf("unsupported location scheme %q", scheme)
}

// source and sink drop typed nil pointers on error.
func source[T core.DataSource](s T, err error) (core.DataSource, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func sink[T core.DataSink](s T, err error) (core.DataSink, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

func resolveFormat(f Format, name string) Format {
	if f == FormatAuto {
		return FormatFromPath(name)
	}
	return f
}

// FileLocation reads or writes a local file. Path "-" is stdin or stdout.
type FileLocation struct {
	Path string
}

func (f FileLocation) String() string { return f.Path }

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// NewSource opens the file for reading.
func (f FileLocation) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	format := resolveFormat(opts.Format, f.Path)
	if format == FormatParquet {
		if f.Path == "-" {
			return nil, errors.New("parquet input cannot be read from stdin")
		}
		return source(readers.NewParquetReader(f.Path))
	}

	var rc io.ReadCloser = os.Stdin
	if f.Path != "-" {
		file, err := os.Open(f.Path)
		if err != nil {
			return nil, err
		}
		rc = file
	}
	src, err := newStreamSource(rc, format, opts)
	if err != nil {
		rc.Close()
		return nil, err
	}
	return src, nil
}

// NewSink creates the file for writing.
func (f FileLocation) NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error) {
	var wc io.WriteCloser = nopCloser{os.Stdout}
	if f.Path != "-" {
		file, err := os.Create(f.Path)
		if err != nil {
			return nil, err
		}
		wc = file
	}
	sink, err := newStreamSink(wc, resolveFormat(opts.Format, f.Path), opts)
	if err != nil {
		wc.Close()
		return nil, err
	}
	return sink, nil
}

func newStreamSource(rc io.ReadCloser, format Format, opts InputOptions) (core.DataSource, error) {
	switch format {
	case FormatJSON:
		return readers.NewJSONReader(rc), nil
	case FormatCSV:
		return source(readers.NewCSVReader(rc, opts.CSV...))
	}
	return nil, fmt.Errorf("format %s cannot be streamed", format)
}

func newStreamSink(wc io.WriteCloser, format Format, opts OutputOptions) (core.DataSink, error) {
	switch format {
	case FormatJSON:
		return writers.NewJSONWriter(wc), nil
	case FormatCSV:
		return sink(writers.NewCSVWriter(wc, opts.CSV...))
	}
	return nil, fmt.Errorf("format %s is not supported for output", format)
}

// S3Location addresses an S3 object. When reading, Key is a prefix and every
// object under it is read.
type S3Location struct {
	Bucket string
	Key    string
	// Uploader is created from the default AWS configuration when nil.
	Uploader *s3manager.Uploader
}

func (s S3Location) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// NewSource lists and reads the objects under Key.
func (s S3Location) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	options := []readers.ReaderOptionS3{
		readers.WithS3Bucket(s.Bucket),
		readers.WithS3Prefix(s.Key),
		readers.WithS3CSVOptions(opts.CSV...),
	}
	switch opts.Format {
	case FormatCSV:
		options = append(options, readers.WithS3Suffix(".csv"))
	case FormatParquet:
		return nil, errors.New("parquet input is only supported for local files")
	}
	return source(readers.NewS3Reader(options...))
}

// NewSink streams the output to the object through the upload manager.
func (s S3Location) NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error) {
	if s.Key == "" || strings.HasSuffix(s.Key, "/") {
		return nil, fmt.Errorf("s3 output %s needs an object key", s)
	}
	uploader := s.Uploader
	if uploader == nil {
		cfg, err := readers.LoadAWSConfig(ctx, "", "", aws.Credentials{})
		if err != nil {
			return nil, err
		}
		uploader = s3manager.NewUploader(s3.NewFromConfig(cfg))
	}

	w := newS3WriteCloser(ctx, uploader, s.Bucket, s.Key)
	sink, err := newStreamSink(w, resolveFormat(opts.Format, s.Key), opts)
	if err != nil {
		w.CloseWithError(err)
		return nil, err
	}
	return sink, nil
}

// s3WriteCloser pipes writes into a concurrent multipart upload. Close waits
// for the upload to finish.
type s3WriteCloser struct {
	pw   *io.PipeWriter
	done chan error
}

func newS3WriteCloser(ctx context.Context, u *s3manager.Uploader, bucket, key string) *s3WriteCloser {
	pr, pw := io.Pipe()
	w := &s3WriteCloser{pw: pw, done: make(chan error, 1)}
	go func() {
		_, err := u.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *s3WriteCloser) Write(p []byte) (int, error) { return w.pw.Write(p) }

func (w *s3WriteCloser) Close() error {
	w.pw.Close()
	return <-w.done
}

func (w *s3WriteCloser) CloseWithError(err error) {
	w.pw.CloseWithError(err)
	<-w.done
}

// PostgresLocation reads query results from or writes rows to PostgreSQL.
type PostgresLocation struct {
	DSN string
}

func (p PostgresLocation) String() string {
	u, err := url.Parse(p.DSN)
	if err != nil {
		return "postgres"
	}
	return u.Redacted()
}

// NewSource runs opts.Query.
func (p PostgresLocation) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	if opts.Query == "" {
		return nil, errors.New("postgres input needs a query")
	}
	return source(readers.NewPostgresReader(
		readers.WithPostgresDSN(p.DSN),
		readers.WithPostgresQuery(opts.Query),
	))
}

// NewSink inserts into opts.Table, creating it when missing.
func (p PostgresLocation) NewSink(ctx context.Context, opts OutputOptions) (core.DataSink, error) {
	if opts.Table == "" {
		return nil, errors.New("postgres output needs a table")
	}
	return sink(writers.NewPostgresWriter(
		writers.WithPostgresDSN(p.DSN),
		writers.WithTableName(opts.Table),
		writers.WithCreateTable(true),
	))
}

// MongoLocation reads documents from a MongoDB collection.
type MongoLocation struct {
	URI string
}

func (m MongoLocation) String() string {
	u, err := url.Parse(m.URI)
	if err != nil {
		return "mongodb"
	}
	return u.Redacted()
}

// NewSource reads every document of opts.Collection.
func (m MongoLocation) NewSource(ctx context.Context, opts InputOptions) (core.DataSource, error) {
	return source(readers.NewMongoReader(
		readers.WithMongoURI(m.URI),
		readers.WithMongoDB(opts.Database),
		readers.WithMongoCollection(opts.Collection),
	))
}

// OpenSource parses s and opens it for reading.
func OpenSource(ctx context.Context, s string, opts InputOptions) (core.DataSource, error) {
	loc, err := ParseLocation(s)
	if err != nil {
		return nil, err
	}
	in, ok := loc.(InputLocation)
	if !ok {
		return nil, fmt.Errorf("%s cannot be read", loc)
	}
	return in.NewSource(ctx, opts)
}

// OpenSink parses s and opens it for writing.
func OpenSink(ctx context.Context, s string, opts OutputOptions) (core.DataSink, error) {
	loc, err := ParseLocation(s)
	if err != nil {
		return nil, err
	}
	out, ok := loc.(OutputLocation)
	if !ok {
		return nil, fmt.Errorf("%s cannot be written", loc)
	}
	return out.NewSink(ctx, opts)
}
