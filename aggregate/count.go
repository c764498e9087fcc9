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
	"fmt"
	"sort"
	"sync"

	"github.com/aaronlmathis/gofilters/core"
)

// CountAggregator counts records.
type CountAggregator struct {
	mu    sync.Mutex
	count int
}

func (c *CountAggregator) Add(ctx context.Context, record core.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

func (c *CountAggregator) Result() (core.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.Record{"count": c.count}, nil
}

func (c *CountAggregator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count = 0
}

// Count is one bucket of an IssueCounter.
type Count struct {
	Key string
	N   int
}

// IssueCounter counts issues by code and by path. It reads the issue list
// stored under Field of each record, as written by the pipeline's reject
// records and transform.Clean: a slice of maps with "path" and "code" keys.
type IssueCounter struct {
	// Field holds the issue list. Defaults to "issues".
	Field string

	mu      sync.Mutex
	records int
	total   int
	byCode  map[string]int
	byPath  map[string]int
}

// NewIssueCounter creates an IssueCounter reading field.
func NewIssueCounter(field string) *IssueCounter {
	return &IssueCounter{Field: field}
}

func (c *IssueCounter) Add(ctx context.Context, record core.Record) error {
	field := c.Field
	if field == "" {
		field = "issues"
	}
	raw, ok := record[field]
	if !ok || raw == nil {
		return nil
	}
	issues, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("issue counter: field %q holds %T, want []interface{}", field, raw)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.byCode == nil {
		c.byCode = make(map[string]int)
		c.byPath = make(map[string]int)
	}
	c.records++
	for _, item := range issues {
		issue, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		c.total++
		code, _ := issue["code"].(string)
		path, _ := issue["path"].(string)
		c.byCode[code]++
		c.byPath[path]++
	}
	return nil
}

func (c *IssueCounter) Result() (core.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.Record{
		"records": c.records,
		"issues":  c.total,
		"by_code": copyCounts(c.byCode),
		"by_path": copyCounts(c.byPath),
	}, nil
}

func (c *IssueCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records, c.total = 0, 0
	c.byCode, c.byPath = nil, nil
}

// ByCode returns issue counts per code, largest first.
func (c *IssueCounter) ByCode() []Count {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sorted(c.byCode)
}

// ByPath returns issue counts per path, largest first.
func (c *IssueCounter) ByPath() []Count {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sorted(c.byPath)
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, n := range m {
		out = append(out, Count{Key: k, N: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].N != out[j].N {
			return out[i].N > out[j].N
		}
		return out[i].Key < out[j].Key
	})
	return out
}
