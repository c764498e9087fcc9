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
	"time"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// This file implements a MongoDB reader. Documents are decoded as bson.D so
// embedded documents keep their field order through validation.

// MongoReaderError provides structured error information for MongoDB reader operations
type MongoReaderError struct {
	Op         string // Operation that failed (e.g., "connect", "query", "decode", "aggregate")
	Collection string
	Err        error
}

func (e *MongoReaderError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("mongo reader %s [%s]: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("mongo reader %s: %v", e.Op, e.Err)
}

func (e *MongoReaderError) Unwrap() error {
	return e.Err
}

// MongoReaderStats holds statistics about the MongoDB reader.
type MongoReaderStats struct {
	RecordsRead  int64
	ReadDuration time.Duration
	LastReadTime time.Time
	ErrorCount   int64
}

// MongoReaderOptions configures the MongoDB reader.
type MongoReaderOptions struct {
	URI            string
	Database       string
	Collection     string
	Filter         bson.M   // Query filter for find
	Projection     bson.M   // Field projection for find
	Sort           bson.D   // Sort specification for find
	Pipeline       []bson.M // Aggregation pipeline; replaces find when set
	BatchSize      int32
	Limit          int64
	Timeout        time.Duration // Connect timeout
	ReadPreference string        // primary, primaryPreferred, secondary, secondaryPreferred, nearest
}

// ReaderOptionMongo is a functional option for MongoReaderOptions
type ReaderOptionMongo func(*MongoReaderOptions)

func WithMongoURI(uri string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.URI = uri }
}

func WithMongoDB(database string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Database = database }
}

func WithMongoCollection(collection string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Collection = collection }
}

func WithMongoFilter(filter bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Filter = filter }
}

func WithMongoProjection(projection bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Projection = projection }
}

func WithMongoSort(sort bson.D) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Sort = sort }
}

func WithMongoPipeline(pipeline []bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Pipeline = pipeline }
}

func WithMongoBatchSize(batchSize int32) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.BatchSize = batchSize }
}

func WithMongoLimit(limit int64) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Limit = limit }
}

func WithMongoTimeout(timeout time.Duration) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Timeout = timeout }
}

func WithMongoReadPreference(preference string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.ReadPreference = preference }
}

// MongoReader implements core.DataSource for a MongoDB collection.
// It connects lazily on the first Read.
type MongoReader struct {
	opts   *MongoReaderOptions
	client *mongo.Client
	cursor *mongo.Cursor
	stats  MongoReaderStats
}

// NewMongoReader creates a MongoDB reader with the given options.
func NewMongoReader(options ...ReaderOptionMongo) (*MongoReader, error) {
	opts := &MongoReaderOptions{
		URI:            "mongodb://localhost:27017",
		BatchSize:      1000,
		Timeout:        30 * time.Second,
		ReadPreference: "primary",
	}
	for _, option := range options {
		option(opts)
	}

	if opts.Database == "" {
		return nil, &MongoReaderError{Op: "validate", Err: errors.New("database name is required")}
	}
	if opts.Collection == "" {
		return nil, &MongoReaderError{Op: "validate", Err: errors.New("collection name is required")}
	}
	if _, err := readpref.ModeFromString(opts.ReadPreference); err != nil {
		return nil, &MongoReaderError{Op: "validate", Err: err}
	}
	return &MongoReader{opts: opts}, nil
}

func (mr *MongoReader) connect(ctx context.Context) error {
	mode, _ := readpref.ModeFromString(mr.opts.ReadPreference)
	pref, err := readpref.New(mode)
	if err != nil {
		return &MongoReaderError{Op: "read_preference", Err: err}
	}

	clientOpts := options.Client().
		ApplyURI(mr.opts.URI).
		SetReadPreference(pref).
		SetConnectTimeout(mr.opts.Timeout)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return &MongoReaderError{Op: "connect", Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return &MongoReaderError{Op: "ping", Err: err}
	}
	mr.client = client

	coll := client.Database(mr.opts.Database).Collection(mr.opts.Collection)
	if len(mr.opts.Pipeline) > 0 {
		aggOpts := options.Aggregate().SetBatchSize(mr.opts.BatchSize)
		mr.cursor, err = coll.Aggregate(ctx, mr.opts.Pipeline, aggOpts)
		if err != nil {
			return &MongoReaderError{Op: "aggregate", Collection: mr.opts.Collection, Err: err}
		}
		return nil
	}

	findOpts := options.Find().SetBatchSize(mr.opts.BatchSize)
	if mr.opts.Limit > 0 {
		findOpts.SetLimit(mr.opts.Limit)
	}
	if mr.opts.Projection != nil {
		findOpts.SetProjection(mr.opts.Projection)
	}
	if mr.opts.Sort != nil {
		findOpts.SetSort(mr.opts.Sort)
	}
	filter := mr.opts.Filter
	if filter == nil {
		filter = bson.M{}
	}
	mr.cursor, err = coll.Find(ctx, filter, findOpts)
	if err != nil {
		return &MongoReaderError{Op: "find", Collection: mr.opts.Collection, Err: err}
	}
	return nil
}

// Read implements the core.DataSource interface.
func (mr *MongoReader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() {
		mr.stats.ReadDuration += time.Since(start)
		mr.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &MongoReaderError{Op: "read", Collection: mr.opts.Collection, Err: ctx.Err()}
	default:
	}

	if mr.cursor == nil {
		if err := mr.connect(ctx); err != nil {
			mr.stats.ErrorCount++
			return nil, err
		}
	}

	if !mr.cursor.Next(ctx) {
		if err := mr.cursor.Err(); err != nil {
			mr.stats.ErrorCount++
			return nil, &MongoReaderError{Op: "cursor_next", Collection: mr.opts.Collection, Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.D
	if err := mr.cursor.Decode(&doc); err != nil {
		mr.stats.ErrorCount++
		return nil, &MongoReaderError{Op: "decode", Collection: mr.opts.Collection, Err: err}
	}

	mr.stats.RecordsRead++
	return documentToRecord(doc), nil
}

// Stats returns MongoDB reader stats.
func (mr *MongoReader) Stats() MongoReaderStats {
	return mr.stats
}

// Close implements the core.DataSource interface.
func (mr *MongoReader) Close() error {
	ctx := context.Background()
	var errs []error
	if mr.cursor != nil {
		if err := mr.cursor.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		mr.cursor = nil
	}
	if mr.client != nil {
		if err := mr.client.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
		mr.client = nil
	}
	if err := errors.Join(errs...); err != nil {
		return &MongoReaderError{Op: "close", Collection: mr.opts.Collection, Err: err}
	}
	return nil
}

func documentToRecord(doc bson.D) core.Record {
	rec := make(core.Record, len(doc))
	for _, e := range doc {
		rec[e.Key] = convertBSONValue(e.Value)
	}
	return rec
}

// convertBSONValue maps BSON types onto values the filters understand.
func convertBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.D:
		m := filters.NewOrderedMap()
		for _, e := range v {
			m.Set(e.Key, convertBSONValue(e.Value))
		}
		return m
	case primitive.M:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[k] = convertBSONValue(val)
		}
		return m
	case primitive.A:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = convertBSONValue(val)
		}
		return out
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0).UTC()
	case primitive.Decimal128:
		return v.String()
	case primitive.Binary:
		return v.Data
	case primitive.Regex:
		return v.Pattern
	case primitive.JavaScript:
		return string(v)
	case primitive.Symbol:
		return string(v)
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return value
}
