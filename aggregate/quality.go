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

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aaronlmathis/gofilters/core"
)

// QualityGate checks dataset-level constraints that no single record can
// violate on its own: record counts, field presence and null rates.
// Feed it the accepted records and call Check once the stream has ended.
type QualityGate struct {
	MinRecords      int      // Minimum number of records required
	MaxRecords      int      // Maximum number of records allowed (0 = unlimited)
	MaxNullRate     float64  // Maximum allowed null rate per field, 0 disables the check
	RequiredFields  []string // Fields that must be present in every record
	ForbiddenFields []string // Fields that must not be present in any record

	mu        sync.Mutex
	records   int
	nulls     map[string]int
	present   map[string]int
	missing   map[string]int
	forbidden map[string]int
}

func (g *QualityGate) Add(ctx context.Context, record core.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nulls == nil {
		g.nulls = make(map[string]int)
		g.present = make(map[string]int)
		g.missing = make(map[string]int)
		g.forbidden = make(map[string]int)
	}
	g.records++
	for field, value := range record {
		g.present[field]++
		if value == nil {
			g.nulls[field]++
		}
	}
	for _, field := range g.RequiredFields {
		if _, ok := record[field]; !ok {
			g.missing[field]++
		}
	}
	for _, field := range g.ForbiddenFields {
		if _, ok := record[field]; ok {
			g.forbidden[field]++
		}
	}
	return nil
}

// nullRates returns the share of records in which each seen field is absent
// or nil. Callers hold g.mu.
func (g *QualityGate) nullRates() map[string]float64 {
	rates := make(map[string]float64, len(g.present))
	for field, n := range g.present {
		absent := g.records - n
		rates[field] = float64(absent+g.nulls[field]) / float64(g.records)
	}
	return rates
}

// Check returns every violated constraint joined into one error, or nil.
func (g *QualityGate) Check() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var errs []error
	if g.records < g.MinRecords {
		errs = append(errs, fmt.Errorf("insufficient records: got %d, need at least %d", g.records, g.MinRecords))
	}
	if g.MaxRecords > 0 && g.records > g.MaxRecords {
		errs = append(errs, fmt.Errorf("too many records: got %d, maximum allowed %d", g.records, g.MaxRecords))
	}
	for _, field := range g.RequiredFields {
		if n := g.missing[field]; n > 0 {
			errs = append(errs, fmt.Errorf("%d records missing required field %s", n, field))
		}
	}
	for _, field := range g.ForbiddenFields {
		if n := g.forbidden[field]; n > 0 {
			errs = append(errs, fmt.Errorf("%d records contain forbidden field %s", n, field))
		}
	}
	if g.MaxNullRate > 0 {
		rates := g.nullRates()
		fields := make([]string, 0, len(rates))
		for field := range rates {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			if rate := rates[field]; rate > g.MaxNullRate {
				errs = append(errs, fmt.Errorf("field %s has null rate %.2f, exceeds maximum %.2f", field, rate, g.MaxNullRate))
			}
		}
	}
	return errors.Join(errs...)
}

func (g *QualityGate) Result() (core.Record, error) {
	g.mu.Lock()
	rates := g.nullRates()
	out := core.Record{"records": g.records}
	g.mu.Unlock()

	nullRates := make(map[string]interface{}, len(rates))
	for field, rate := range rates {
		nullRates[field] = rate
	}
	out["null_rates"] = nullRates
	if err := g.Check(); err != nil {
		out["error"] = err.Error()
	}
	return out, nil
}

func (g *QualityGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = 0
	g.nulls, g.present, g.missing, g.forbidden = nil, nil, nil, nil
}
