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

package core

import (
	"context"
)

// DataSource streams records into a pipeline, e.g. JSON lines, CSV rows,
// query results, MongoDB documents, S3 objects or Parquet rows.
type DataSource interface {
	// Read returns the next record, or io.EOF at the end of the stream.
	// Any other error rejects the current input and the pipeline keeps
	// reading unless its strategy stops it, so a source that cannot continue
	// must return io.EOF on the following call.
	Read(ctx context.Context) (Record, error)
	Close() error
}

// DataSink receives the records that passed validation, or the reject
// records describing the ones that did not.
type DataSink interface {
	Write(ctx context.Context, record Record) error
	// Flush writes buffered records. The pipeline calls it once, before Close.
	Flush() error
	Close() error
}

// Transformer rewrites a record before it is validated. A transform error
// rejects the record.
type Transformer interface {
	Transform(ctx context.Context, record Record) (Record, error)
}

// Predicate drops records before validation. Dropped records are counted as
// filtered, not rejected.
type Predicate interface {
	ShouldInclude(ctx context.Context, record Record) (bool, error)
}
