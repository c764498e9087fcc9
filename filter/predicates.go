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

package filter

import (
	"context"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
)

// Package filter provides record predicates for GoFilters pipelines.
//
// Valid and Invalid route records on the outcome of a filters.Filter without
// changing them; And, Or and Not combine predicates.

// Valid includes records that f accepts without issues.
func Valid(f filters.Filter) core.Predicate {
	runner := filters.NewRunner(f)
	return core.PredicateFunc(func(ctx context.Context, record core.Record) (bool, error) {
		return runner.Run(map[string]interface{}(record)).IsValid(), nil
	})
}

// Invalid includes records for which f reports at least one issue.
func Invalid(f filters.Filter) core.Predicate {
	return Not(Valid(f))
}

// HasField includes records where field is present and not nil.
func HasField(field string) core.Predicate {
	return core.PredicateFunc(func(ctx context.Context, record core.Record) (bool, error) {
		value, exists := record[field]
		return exists && value != nil, nil
	})
}

// And includes records accepted by every predicate. It stops at the first
// rejection.
func And(predicates ...core.Predicate) core.Predicate {
	return core.PredicateFunc(func(ctx context.Context, record core.Record) (bool, error) {
		for _, p := range predicates {
			include, err := p.ShouldInclude(ctx, record)
			if err != nil || !include {
				return false, err
			}
		}
		return true, nil
	})
}

// Or includes records accepted by any predicate.
func Or(predicates ...core.Predicate) core.Predicate {
	return core.PredicateFunc(func(ctx context.Context, record core.Record) (bool, error) {
		for _, p := range predicates {
			include, err := p.ShouldInclude(ctx, record)
			if err != nil {
				return false, err
			}
			if include {
				return true, nil
			}
		}
		return false, nil
	})
}

// Not inverts a predicate.
func Not(p core.Predicate) core.Predicate {
	return core.PredicateFunc(func(ctx context.Context, record core.Record) (bool, error) {
		include, err := p.ShouldInclude(ctx, record)
		if err != nil {
			return false, err
		}
		return !include, nil
	})
}
