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

package gofilters

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aaronlmathis/gofilters/filters"
	"github.com/aaronlmathis/gofilters/transform"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Package gofilters provides composable record validation pipelines for Go.
//
// Records stream from a DataSource through transformers and predicates into a
// validating filter (see package filters). Valid, cleaned records go to the
// DataSink; rejected records go to an optional reject sink together with
// their issues.
//
// Core Concepts:
//   - DataSource: Interface for reading records (JSONL, CSV, PostgreSQL, MongoDB, S3, Parquet).
//   - DataSink: Interface for writing records (JSONL, CSV, PostgreSQL).
//   - Transformer: Interface for transforming records before validation.
//   - Predicate: Interface for dropping records before validation.
//   - filters.Filter: the validating filter, usually a Mapper or a YAML schema.
//   - ErrorStrategy: Configurable error handling (fail fast, skip, collect, custom handler).
//
// Example usage:
//
//	pipeline, err := gofilters.NewPipeline().
//	    From(jsonReader).
//	    Validate(userSchema).
//	    To(jsonWriter).
//	    Rejects(rejectWriter).
//	    WithErrorStrategy(gofilters.CollectErrors).
//	    Build()
//	if err != nil { log.Fatal(err) }
//	report, err := pipeline.Execute(context.Background())

// Reject record fields.
const (
	RejectIndex  = "index"
	RejectRunID  = "run_id"
	RejectRecord = "record"
	RejectIssues = "issues"
	RejectError  = "error"
)

// PipelineBuilder provides a fluent API for constructing validation pipelines.
// Use NewPipeline() to create a new builder, then chain From, Transform, Validate, To, and configuration methods.
type PipelineBuilder struct {
	pipeline *Pipeline
}

// NewPipeline creates a new PipelineBuilder.
func NewPipeline() *PipelineBuilder {
	return &PipelineBuilder{
		pipeline: &Pipeline{
			transformers: make([]Transformer, 0),
			predicates:   make([]Predicate, 0),
			strategy:     FailFast,
			logger:       zerolog.Nop(),
		},
	}
}

// From sets the DataSource for the pipeline.
func (pb *PipelineBuilder) From(source DataSource) *PipelineBuilder {
	pb.pipeline.source = source
	return pb
}

// Transform adds a Transformer applied before validation.
func (pb *PipelineBuilder) Transform(transformer Transformer) *PipelineBuilder {
	pb.pipeline.transformers = append(pb.pipeline.transformers, transformer)
	return pb
}

// Map adds a transformation function applied before validation.
func (pb *PipelineBuilder) Map(fn func(ctx context.Context, record Record) (Record, error)) *PipelineBuilder {
	return pb.Transform(TransformFunc(fn))
}

// Filter adds a Predicate. Records it excludes are dropped silently.
func (pb *PipelineBuilder) Filter(predicate Predicate) *PipelineBuilder {
	pb.pipeline.predicates = append(pb.pipeline.predicates, predicate)
	return pb
}

// Where adds a predicate function.
func (pb *PipelineBuilder) Where(fn func(ctx context.Context, record Record) (bool, error)) *PipelineBuilder {
	return pb.Filter(PredicateFunc(fn))
}

// Validate sets the filter every record must pass. The filter's output
// replaces the record.
func (pb *PipelineBuilder) Validate(f filters.Filter) *PipelineBuilder {
	return pb.ValidateWith(filters.NewRunner(f))
}

// ValidateWith is Validate with a configured runner, such as one built from
// a schema document with message overrides.
func (pb *PipelineBuilder) ValidateWith(runner *filters.Runner) *PipelineBuilder {
	pb.pipeline.validator = runner
	return pb
}

// To sets the DataSink receiving valid records.
func (pb *PipelineBuilder) To(sink DataSink) *PipelineBuilder {
	pb.pipeline.sink = sink
	return pb
}

// Rejects sets a DataSink receiving one record per rejected input, with the
// fields RejectIndex, RejectRunID, RejectRecord and RejectIssues or
// RejectError.
func (pb *PipelineBuilder) Rejects(sink DataSink) *PipelineBuilder {
	pb.pipeline.rejects = sink
	return pb
}

// Aggregate adds an Aggregator fed with every reject record.
func (pb *PipelineBuilder) Aggregate(agg Aggregator) *PipelineBuilder {
	pb.pipeline.aggregators = append(pb.pipeline.aggregators, agg)
	return pb
}

// Observe adds an Aggregator fed with every record written to the sink.
func (pb *PipelineBuilder) Observe(agg Aggregator) *PipelineBuilder {
	pb.pipeline.observers = append(pb.pipeline.observers, agg)
	return pb
}

// WithErrorStrategy sets the error handling strategy for the pipeline.
func (pb *PipelineBuilder) WithErrorStrategy(strategy ErrorStrategy) *PipelineBuilder {
	pb.pipeline.strategy = strategy
	return pb
}

// WithErrorHandler sets a custom error handler for the pipeline.
func (pb *PipelineBuilder) WithErrorHandler(handler ErrorHandler) *PipelineBuilder {
	pb.pipeline.errorHandler = handler
	return pb
}

// WithLogger sets the logger. The default logger discards everything.
func (pb *PipelineBuilder) WithLogger(logger zerolog.Logger) *PipelineBuilder {
	pb.pipeline.logger = logger
	return pb
}

// Build validates and constructs the Pipeline from the builder.
func (pb *PipelineBuilder) Build() (*Pipeline, error) {
	if pb.pipeline.source == nil {
		return nil, fmt.Errorf("pipeline requires a data source")
	}
	if pb.pipeline.sink == nil {
		return nil, fmt.Errorf("pipeline requires a data sink")
	}
	return pb.pipeline, nil
}

// Pipeline is a streaming validation pipeline.
type Pipeline struct {
	transformers []Transformer
	predicates   []Predicate
	validator    *filters.Runner
	source       DataSource
	sink         DataSink
	rejects      DataSink
	aggregators  []Aggregator
	observers    []Aggregator
	strategy     ErrorStrategy
	errorHandler ErrorHandler
	logger       zerolog.Logger
}

// Report summarises one Execute call.
type Report struct {
	RunID    uuid.UUID
	Read     int
	Written  int
	Filtered int
	Rejected int
	Issues   int
	// Errors holds record errors when the strategy is CollectErrors.
	Errors []error
}

// Valid reports whether no record was rejected.
func (r *Report) Valid() bool {
	return r.Rejected == 0
}

// Execute runs the pipeline, processing all records from source to sink.
//
// The returned Report is never nil. The error is non-nil when the context is
// cancelled, the source fails under FailFast, a record is rejected under
// FailFast or by the ErrorHandler, or a sink fails to flush or close. Sink
// errors are joined with the error that ended the run.
func (p *Pipeline) Execute(ctx context.Context) (report *Report, err error) {
	report = &Report{RunID: uuid.New()}
	log := p.logger.With().Str("run_id", report.RunID.String()).Logger()

	defer func() {
		if cerr := p.close(); cerr != nil {
			log.Error().Err(cerr).Msg("pipeline close failed")
			err = errors.Join(err, cerr)
		}
	}()

	log.Info().Str("strategy", p.strategy.String()).Msg("pipeline started")

	for index := 0; ; index++ {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		record, err := p.source.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if err := p.reject(ctx, log, report, index, record, err); err != nil {
				return report, err
			}
			continue
		}
		report.Read++

		out, include, err := p.process(ctx, record)
		if err != nil {
			if err := p.reject(ctx, log, report, index, record, err); err != nil {
				return report, err
			}
			continue
		}
		if !include {
			report.Filtered++
			continue
		}

		if err := p.sink.Write(ctx, out); err != nil {
			if err := p.handleError(ctx, report, out, fmt.Errorf("record %d: %w", index, err)); err != nil {
				return report, err
			}
			continue
		}
		report.Written++
		for _, agg := range p.observers {
			if err := agg.Add(ctx, out); err != nil {
				return report, fmt.Errorf("observe: %w", err)
			}
		}
	}

	log.Info().
		Int("read", report.Read).
		Int("written", report.Written).
		Int("filtered", report.Filtered).
		Int("rejected", report.Rejected).
		Int("issues", report.Issues).
		Msg("pipeline finished")
	return report, nil
}

// close flushes and closes both sinks, then closes the source.
func (p *Pipeline) close() error {
	var errs []error
	for _, s := range []struct {
		name string
		sink DataSink
	}{{"sink", p.sink}, {"reject sink", p.rejects}} {
		if s.sink == nil {
			continue
		}
		if err := s.sink.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", s.name, err))
		}
		if err := s.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.name, err))
		}
	}
	if p.source != nil {
		if err := p.source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close source: %w", err))
		}
	}
	return errors.Join(errs...)
}

// process applies transformers, predicates and the validator to a record.
func (p *Pipeline) process(ctx context.Context, record Record) (Record, bool, error) {
	current := record
	for _, transformer := range p.transformers {
		transformed, err := transformer.Transform(ctx, current)
		if err != nil {
			return nil, false, err
		}
		current = transformed
	}

	for _, predicate := range p.predicates {
		include, err := predicate.ShouldInclude(ctx, current)
		if err != nil {
			return nil, false, err
		}
		if !include {
			return nil, false, nil
		}
	}

	if p.validator == nil {
		return current, true, nil
	}
	res := p.validator.Run(map[string]interface{}(current))
	if err := res.Err(); err != nil {
		return nil, false, err
	}
	out, ok := transform.ToRecord(res.Value)
	if !ok {
		return nil, false, fmt.Errorf("validator returned %T, want a mapping", res.Value)
	}
	return out, true, nil
}

// reject records a failed input on the reject sink and aggregators, then
// applies the error strategy.
func (p *Pipeline) reject(ctx context.Context, log zerolog.Logger, report *Report, index int, record Record, cause error) error {
	report.Rejected++

	rec := Record{
		RejectIndex:  index,
		RejectRunID:  report.RunID.String(),
		RejectRecord: map[string]interface{}(record),
	}
	var verr *filters.ValidationError
	if errors.As(cause, &verr) {
		report.Issues += len(verr.Issues)
		rec[RejectIssues] = transform.IssueRecords(verr.Issues)
	} else {
		rec[RejectError] = cause.Error()
	}

	log.Debug().Int("index", index).Err(cause).Msg("record rejected")

	if p.rejects != nil {
		if err := p.rejects.Write(ctx, rec); err != nil {
			return fmt.Errorf("reject sink: %w", err)
		}
	}
	for _, agg := range p.aggregators {
		if err := agg.Add(ctx, rec); err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
	}
	return p.handleError(ctx, report, record, fmt.Errorf("record %d: %w", index, cause))
}

// handleError handles errors according to the pipeline's error strategy and handler.
func (p *Pipeline) handleError(ctx context.Context, report *Report, record Record, err error) error {
	switch p.strategy {
	case FailFast:
		return err
	case CollectErrors:
		report.Errors = append(report.Errors, err)
	case SkipErrors:
	default:
		return err
	}
	if p.errorHandler != nil {
		return p.errorHandler.HandleError(ctx, record, err)
	}
	return nil
}
