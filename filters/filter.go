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

import "fmt"

// Package filters provides composable value filters for GoFilters.
//
// A Filter transforms or validates a single value. Composite filters
// (Repeater, Mapper) walk mappings and sequences and apply a Chain of filters
// to each member, producing a new container plus a list of Issues, each tagged
// with the key path where it occurred.
//
// Filters never stop a traversal on a bad value. Problems are recorded on the
// Scope of the current run and the offending value is replaced by a
// placeholder (nil). Use Run or a Runner to apply a filter and inspect the
// Result.
//
// Example usage:
//
//	users := filters.NewRepeater(filters.NewMapper([]filters.FieldSpec{
//	    filters.Field("id", filters.Required(), filters.Int()),
//	    filters.Field("email", filters.Unicode(), filters.Strip(), filters.Lower()),
//	}, filters.WithExtraKeys(filters.DenyAll())))
//
//	res := filters.Run(users, input)
//	if !res.IsValid() {
//	    for path, issues := range res.ErrorsByPath() { ... }
//	}

// Filter transforms or validates a single value.
type Filter interface {
	// Apply returns the filtered value. Problems are recorded on s; a value that
	// cannot be repaired is replaced by the placeholder returned by s.Invalid.
	Apply(s *Scope, value any) any
}

// NilFilter is implemented by filters that act on nil input, such as Required
// and Optional. Filters that do not implement it are skipped for nil values.
type NilFilter interface {
	Filter
	ApplyNil(s *Scope) any
}

// FilterFunc is a function adapter for the Filter interface.
// Allows ordinary functions to be used as Filters.
type FilterFunc func(s *Scope, value any) any

// Apply implements the Filter interface for FilterFunc.
func (f FilterFunc) Apply(s *Scope, value any) any {
	return f(s, value)
}

// leaf is a named single-value filter. onNil is optional.
type leaf struct {
	name  string
	apply func(s *Scope, value any) any
	onNil func(s *Scope) any
}

func newLeaf(name string, apply func(s *Scope, value any) any) *leaf {
	return &leaf{name: name, apply: apply}
}

func (l *leaf) Apply(s *Scope, value any) any { return l.apply(s, value) }

func (l *leaf) ApplyNil(s *Scope) any {
	if l.onNil == nil {
		return nil
	}
	return l.onNil(s)
}

func (l *leaf) String() string { return l.name }

// Describe returns the display form of a filter, such as
// Mapper(id=Required | Int). Filters that are not fmt.Stringers are shown by
// their Go type.
func Describe(f Filter) string {
	return describe(f)
}

func describe(f Filter) string {
	if s, ok := f.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", f)
}

// typeName is the "incoming" template variable for wrong_type issues.
func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
