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

package transform

import (
	"context"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
)

// Package transform provides record transformers built on filters.
//
// Validate and Clean run a filter (typically a Mapper) over each record.
// Field applies a chain to a single field. All functions return
// core.Transformer implementations for use in GoFilters pipelines.

// IssuesField is the field Clean stores issues under.
const IssuesField = "_issues"

// Validate creates a transformer that runs f over each record and returns the
// filtered record. A record with issues is rejected with a
// *filters.ValidationError.
func Validate(f filters.Filter) core.Transformer {
	return ValidateWith(filters.NewRunner(f))
}

// ValidateWith is Validate with a configured runner.
func ValidateWith(runner *filters.Runner) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		res := runner.Run(map[string]interface{}(record))
		if err := res.Err(); err != nil {
			return nil, err
		}
		out, ok := ToRecord(res.Value)
		if !ok {
			return nil, &filters.ValidationError{}
		}
		return out, nil
	})
}

// Clean creates a transformer that runs f over each record and keeps the
// best-effort result even when issues were found. Issues are attached under
// IssuesField.
func Clean(f filters.Filter) core.Transformer {
	runner := filters.NewRunner(f)
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		res := runner.Run(map[string]interface{}(record))
		out, ok := ToRecord(res.Value)
		if !ok {
			out = record.Clone()
		}
		if !res.IsValid() {
			out[IssuesField] = IssueRecords(res.Issues)
		}
		return out, nil
	})
}

// Field creates a transformer that applies filters to one field. Issues are
// reported under the field's name. A missing field is passed to the chain as
// nil and stays absent when the chain returns nil.
func Field(name string, fs ...filters.Filter) core.Transformer {
	runner := filters.NewRunner(filters.Normalize(fs...))
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		value, exists := record[name]
		res := runner.Run(value)
		if err := res.Err(); err != nil {
			for _, issue := range res.Issues {
				issue.Path = append([]string{name}, issue.Path...)
			}
			return nil, err
		}

		out := record.Clone()
		if exists || res.Value != nil {
			out[name] = res.Value
		}
		return out, nil
	})
}

// Select creates a transformer that selects only the specified fields from each record.
// Fields not listed are omitted from the output record.
func Select(fields ...string) core.Transformer {
	return core.TransformFunc(func(ctx context.Context, record core.Record) (core.Record, error) {
		result := make(core.Record, len(fields))
		for _, field := range fields {
			if value, exists := record[field]; exists {
				result[field] = value
			}
		}
		return result, nil
	})
}

// ToRecord converts filter output into a record. Ordered maps lose their
// top-level order; nested values are kept as they are.
func ToRecord(value interface{}) (core.Record, bool) {
	switch v := value.(type) {
	case core.Record:
		return v, true
	case map[string]interface{}:
		return core.Record(v), true
	case *filters.OrderedMap:
		if v == nil {
			return nil, false
		}
		out := make(core.Record, v.Len())
		for p := v.Oldest(); p != nil; p = p.Next() {
			out[filters.StringifyKey(p.Key)] = p.Value
		}
		return out, true
	}
	return nil, false
}

// IssueRecords converts issues into plain values suitable for sinks.
func IssueRecords(issues []*filters.Issue) []interface{} {
	out := make([]interface{}, len(issues))
	for i, issue := range issues {
		out[i] = map[string]interface{}{
			"path":    issue.Key(),
			"code":    string(issue.Code),
			"message": issue.Message,
		}
	}
	return out
}
