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

import "strings"

// collector owns the issues of one run. It is never shared between runs.
type collector struct {
	issues    []*Issue
	templates map[Code]string
}

func (c *collector) template(code Code) string {
	if t, ok := c.templates[code]; ok {
		return t
	}
	return Template(code)
}

// Scope is the position of a filter inside one run: the key path from the
// root value and the run's issue collector.
//
// A Scope is only valid for the duration of the Apply call it was passed to.
type Scope struct {
	c      *collector
	parent *Scope
	path   []string
	failed bool
}

func newScope(c *collector) *Scope {
	return &Scope{c: c}
}

// Path returns a copy of the key path from the root value.
func (s *Scope) Path() []string {
	return append([]string(nil), s.path...)
}

// Key returns the dot-joined key path. The root scope has an empty key.
func (s *Scope) Key() string {
	return strings.Join(s.path, ".")
}

// At returns a child scope whose path is extended by segments.
func (s *Scope) At(segments ...string) *Scope {
	path := make([]string, len(s.path), len(s.path)+len(segments))
	copy(path, s.path)
	return &Scope{c: s.c, parent: s, path: append(path, segments...)}
}

// Failed reports whether an issue was recorded at this scope or below it.
func (s *Scope) Failed() bool {
	return s.failed
}

// Apply runs f against value in a child scope at the same path and returns
// the filtered value. A nil value only reaches filters implementing NilFilter.
func (s *Scope) Apply(f Filter, value any) any {
	out, _ := s.apply(f, value)
	return out
}

// apply is Apply that also reports whether f recorded no issues.
func (s *Scope) apply(f Filter, value any) (any, bool) {
	if f == nil {
		return value, true
	}
	child := s.At()
	var out any
	if value == nil {
		nf, ok := f.(NilFilter)
		if !ok {
			return nil, true
		}
		out = nf.ApplyNil(child)
	} else {
		out = f.Apply(child, value)
	}
	return out, !child.failed
}

// Invalid records an issue for value at the scope's path and returns the
// placeholder that stands in for the rejected value.
//
// vars are substituted into the code's message template. "value" and "key"
// (the last path segment) are always available.
func (s *Scope) Invalid(value any, code Code, vars Vars) any {
	ctx := make(Vars, len(vars)+2)
	ctx["value"] = value
	if n := len(s.path); n > 0 {
		ctx["key"] = s.path[n-1]
	} else {
		ctx["key"] = ""
	}
	for k, v := range vars {
		ctx[k] = v
	}

	s.c.issues = append(s.c.issues, &Issue{
		Code:    code,
		Message: render(s.c.template(code), ctx),
		Path:    s.Path(),
		Value:   value,
		Context: ctx,
	})
	for p := s; p != nil && !p.failed; p = p.parent {
		p.failed = true
	}
	return nil
}
