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
	"github.com/aaronlmathis/gofilters/aggregate"
	"github.com/aaronlmathis/gofilters/core"
)

// This file re-exports the core interfaces and types so pipelines can be
// assembled from the root package alone.

// Record represents a single data record in the pipeline.
type Record = core.Record

// DataSource streams records from a source.
type DataSource = core.DataSource

// DataSink writes records to a destination.
type DataSink = core.DataSink

// Transformer modifies records as they pass through the pipeline.
type Transformer = core.Transformer

// TransformFunc is a function adapter for Transformer.
type TransformFunc = core.TransformFunc

// Predicate decides whether a record continues down the pipeline.
type Predicate = core.Predicate

// PredicateFunc is a function adapter for Predicate.
type PredicateFunc = core.PredicateFunc

// Aggregator summarises rejected records.
type Aggregator = aggregate.Aggregator

// ErrorStrategy defines how to handle record errors in the pipeline.
type ErrorStrategy = core.ErrorStrategy

const (
	FailFast      = core.FailFast
	SkipErrors    = core.SkipErrors
	CollectErrors = core.CollectErrors
)

// ErrorHandler defines how errors are handled during processing.
type ErrorHandler = core.ErrorHandler

// ErrorHandlerFunc is a function adapter for ErrorHandler.
type ErrorHandlerFunc = core.ErrorHandlerFunc
