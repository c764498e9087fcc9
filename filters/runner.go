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

package filters

// Runner applies a filter to values, each run with its own issue collector.
// A Runner is safe for concurrent use when its filter is.
type Runner struct {
	filter    Filter
	templates map[Code]string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMessages overrides message templates per code for this runner.
func WithMessages(messages map[Code]string) RunnerOption {
	return func(r *Runner) {
		if r.templates == nil {
			r.templates = make(map[Code]string, len(messages))
		}
		for code, tmpl := range messages {
			r.templates[code] = tmpl
		}
	}
}

// NewRunner creates a Runner for f.
func NewRunner(f Filter, opts ...RunnerOption) *Runner {
	r := &Runner{filter: f}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies the runner's filter to value.
func (r *Runner) Run(value any) *Result {
	c := &collector{templates: r.templates}
	out, _ := newScope(c).apply(r.filter, value)
	return &Result{Value: out, Issues: c.issues}
}

// Filter returns the filter applied by the runner.
func (r *Runner) Filter() Filter { return r.filter }

// Run applies f to value with a fresh issue collector.
func Run(f Filter, value any) *Result {
	return NewRunner(f).Run(value)
}

// Result is the outcome of one run.
type Result struct {
	// Value is the filtered value. Rejected values are nil inside it.
	Value any
	// Issues lists every problem in the order it was recorded.
	Issues []*Issue
}

// IsValid reports whether the run recorded no issues. A valid run may still
// produce a nil Value.
func (r *Result) IsValid() bool {
	return len(r.Issues) == 0
}

// ErrorsByPath groups issues by their dot-joined path.
func (r *Result) ErrorsByPath() map[string][]*Issue {
	out := make(map[string][]*Issue)
	for _, issue := range r.Issues {
		key := issue.Key()
		out[key] = append(out[key], issue)
	}
	return out
}

// Err returns nil for a valid run, otherwise a *ValidationError.
func (r *Result) Err() error {
	if r.IsValid() {
		return nil
	}
	return &ValidationError{Issues: r.Issues}
}
