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

type chainKind uint8

const (
	chainEmpty chainKind = iota
	chainSingle
	chainSequence
)

// Chain applies filters left to right. The zero Chain is the identity chain:
// it returns its input unchanged but still takes part in key policies, so a
// Mapper field declared without filters means "this key must be present".
//
// A Chain stops at the first filter that records an issue and returns that
// filter's output.
type Chain struct {
	kind    chainKind
	filters []Filter
}

// Normalize builds a Chain from zero, one or several filters. nil entries are
// skipped and nested Chains are flattened.
func Normalize(filters ...Filter) Chain {
	flat := make([]Filter, 0, len(filters))
	for _, f := range filters {
		switch v := f.(type) {
		case nil:
		case Chain:
			flat = append(flat, v.filters...)
		case *Chain:
			if v != nil {
				flat = append(flat, v.filters...)
			}
		default:
			flat = append(flat, f)
		}
	}

	switch len(flat) {
	case 0:
		return Chain{}
	case 1:
		return Chain{kind: chainSingle, filters: flat}
	}
	return Chain{kind: chainSequence, filters: flat}
}

// Apply implements the Filter interface for Chain.
func (c Chain) Apply(s *Scope, value any) any {
	return c.run(s, value)
}

// ApplyNil runs the chain on nil so Required, Optional and friends can act on
// absent values.
func (c Chain) ApplyNil(s *Scope) any {
	return c.run(s, nil)
}

func (c Chain) run(s *Scope, value any) any {
	switch c.kind {
	case chainEmpty:
		return value
	case chainSingle:
		return s.Apply(c.filters[0], value)
	}
	for _, f := range c.filters {
		out, ok := s.apply(f, value)
		value = out
		if !ok {
			break
		}
	}
	return value
}

// IsEmpty reports whether c is the identity chain.
func (c Chain) IsEmpty() bool { return c.kind == chainEmpty }

// Len returns the number of filters in the chain.
func (c Chain) Len() int { return len(c.filters) }

func (c Chain) String() string {
	if c.kind == chainEmpty {
		return "Identity"
	}
	parts := make([]string, len(c.filters))
	for i, f := range c.filters {
		parts[i] = describe(f)
	}
	return strings.Join(parts, " | ")
}
