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
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/gofilters/core"
)

// S3ReaderError provides structured error information for S3 reader operations
type S3ReaderError struct {
	Op  string // Operation that failed (e.g., "list_objects", "get_object", "read")
	Key string // Object being read, if any
	Err error
}

func (e *S3ReaderError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("s3 reader %s [%s]: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3ReaderStats holds statistics about the S3 reader.
type S3ReaderStats struct {
	ObjectsListed int64
	ObjectsRead   int64
	RecordsRead   int64
	ReadDuration  time.Duration
	CurrentObject string
}

// S3ReaderOptions configures the S3 reader.
type S3ReaderOptions struct {
	Bucket         string
	Prefix         string
	Suffix         string // Key suffix filter (e.g., ".csv", ".jsonl")
	Region         string
	Profile        string
	Credentials    aws.Credentials
	EndpointURL    string // Custom endpoint for S3-compatible services
	ForcePathStyle bool
	// IncludeKey adds the object key to each record under S3KeyField.
	IncludeKey bool
	CSVOptions []ReaderOptionCSV
}

// S3KeyField holds the source object key when IncludeKey is set.
const S3KeyField = "_s3_key"

// ReaderOptionS3 represents a configuration function for S3Reader
type ReaderOptionS3 func(*S3ReaderOptions)

func WithS3Bucket(bucket string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Bucket = bucket }
}

func WithS3Prefix(prefix string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Prefix = prefix }
}

func WithS3Suffix(suffix string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Suffix = suffix }
}

func WithS3Region(region string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Region = region }
}

func WithS3Profile(profile string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Credentials = creds }
}

func WithS3Endpoint(endpoint string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.EndpointURL = endpoint }
}

func WithS3PathStyle(pathStyle bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.ForcePathStyle = pathStyle }
}

func WithS3IncludeKey(include bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.IncludeKey = include }
}

func WithS3CSVOptions(options ...ReaderOptionCSV) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.CSVOptions = append(opts.CSVOptions, options...) }
}

// S3Reader implements core.DataSource over every object under a prefix.
// Objects are read in key order; .csv objects are parsed as CSV and all
// others as JSON lines. Objects are listed on the first Read.
type S3Reader struct {
	client  *s3.Client
	opts    S3ReaderOptions
	keys    []string
	listed  bool
	next    int
	current core.DataSource
	key     string
	stats   S3ReaderStats
}

// NewS3Reader creates a new S3 reader with the specified options.
func NewS3Reader(options ...ReaderOptionS3) (*S3Reader, error) {
	var opts S3ReaderOptions
	for _, option := range options {
		option(&opts)
	}
	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: errors.New("bucket is required")}
	}

	cfg, err := LoadAWSConfig(context.Background(), opts.Region, opts.Profile, opts.Credentials)
	if err != nil {
		return nil, &S3ReaderError{Op: "create_aws_config", Err: err}
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3Reader{client: client, opts: opts}, nil
}

// LoadAWSConfig loads the default AWS configuration with optional region,
// profile and static credentials.
func LoadAWSConfig(ctx context.Context, region, profile string, creds aws.Credentials) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error
	if region != "" {
		configOpts = append(configOpts, config.WithRegion(region))
	}
	if profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, err
	}
	if creds.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		)
	}
	return cfg, nil
}

// Read implements the core.DataSource interface.
func (s *S3Reader) Read(ctx context.Context) (core.Record, error) {
	start := time.Now()
	defer func() { s.stats.ReadDuration += time.Since(start) }()

	select {
	case <-ctx.Done():
		return nil, &S3ReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if !s.listed {
		if err := s.list(ctx); err != nil {
			return nil, &S3ReaderError{Op: "list_objects", Err: err}
		}
	}

	for {
		if s.current == nil {
			if s.next >= len(s.keys) {
				return nil, io.EOF
			}
			if err := s.open(ctx, s.keys[s.next]); err != nil {
				key := s.keys[s.next]
				s.next++
				return nil, &S3ReaderError{Op: "get_object", Key: key, Err: err}
			}
			s.next++
		}

		record, err := s.current.Read(ctx)
		if errors.Is(err, io.EOF) {
			s.closeCurrent()
			continue
		}
		if err != nil {
			return nil, &S3ReaderError{Op: "read_record", Key: s.key, Err: err}
		}
		if s.opts.IncludeKey {
			record[S3KeyField] = s.key
		}
		s.stats.RecordsRead++
		return record, nil
	}
}

// Close implements the core.DataSource interface.
func (s *S3Reader) Close() error {
	return s.closeCurrent()
}

// Stats returns S3 reader statistics.
func (s *S3Reader) Stats() S3ReaderStats {
	return s.stats
}

// Keys returns the object keys to be read, in order.
func (s *S3Reader) Keys() []string {
	return append([]string(nil), s.keys...)
}

func (s *S3Reader) list(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.opts.Bucket)}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if includeObject(key, s.opts.Suffix) {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)

	s.keys = keys
	s.listed = true
	s.stats.ObjectsListed = int64(len(keys))
	return nil
}

// includeObject skips directory markers and keys without the suffix.
func includeObject(key, suffix string) bool {
	if strings.HasSuffix(key, "/") {
		return false
	}
	return suffix == "" || strings.HasSuffix(key, suffix)
}

func (s *S3Reader) open(ctx context.Context, key string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}

	reader, err := s.readerFor(out.Body, key)
	if err != nil {
		out.Body.Close()
		return err
	}
	s.current = reader
	s.key = key
	s.stats.ObjectsRead++
	s.stats.CurrentObject = key
	return nil
}

// readerFor picks a reader by extension. Unknown extensions are read as
// JSON lines.
func (s *S3Reader) readerFor(body io.ReadCloser, key string) (core.DataSource, error) {
	if strings.EqualFold(path.Ext(key), ".csv") {
		return NewCSVReader(body, s.opts.CSVOptions...)
	}
	return NewJSONReader(body), nil
}

func (s *S3Reader) closeCurrent() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	s.key = ""
	return err
}
