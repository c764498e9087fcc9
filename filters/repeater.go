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

import (
	"fmt"
	"strconv"
)

// Repeater applies one Chain to every value of a mapping or every element of
// a sequence.
//
// Mapping input produces an *OrderedMap keyed by the original keys in the
// input's natural order. Sequence input produces a []any of the same length.
// Any other input is rejected with CodeWrongType and yields nil.
//
// A Repeater is immutable and safe for concurrent use.
type Repeater struct {
	chain      Chain
	restricted KeyPolicy
}

// RepeaterOption configures a Repeater.
type RepeaterOption func(*Repeater)

// WithRestrictedKeys limits the keys (for mappings) or indices (for
// sequences) the Repeater admits. Indices are matched as int. Calling it with
// no keys rejects every element.
//
// A rejected mapping entry is dropped from the output. A rejected sequence
// element keeps its slot, filled with the invalid placeholder, so that later
// indices keep their meaning.
func WithRestrictedKeys(keys ...any) RepeaterOption {
	policy := AllowOnly(keys...)
	return func(r *Repeater) {
		r.restricted = policy
	}
}

// NewRepeater creates a Repeater applying chain to each element. A nil chain
// is the identity chain.
func NewRepeater(chain Filter, opts ...RepeaterOption) *Repeater {
	r := &Repeater{chain: Normalize(chain)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply implements the Filter interface for Repeater.
func (r *Repeater) Apply(s *Scope, value any) any {
	switch ShapeOf(value) {
	case ShapeMapping:
		return r.applyMapping(s, value)
	case ShapeSequence:
		return r.applySequence(s, value)
	}
	return s.Invalid(value, CodeWrongType, Vars{
		"incoming": typeName(value),
		"allowed":  "mapping, sequence",
	})
}

func (r *Repeater) applyMapping(s *Scope, value any) any {
	out := NewOrderedMap()
	for _, e := range mappingEntries(value) {
		label := StringifyKey(e.key)
		if !r.restricted.Allows(e.key) || !hashable(e.key) {
			s.At(label).Invalid(e.value, CodeUnexpected, Vars{"key": label})
			continue
		}
		out.Set(e.key, s.At(label).Apply(r.chain, e.value))
	}
	return out
}

func (r *Repeater) applySequence(s *Scope, value any) any {
	items := sequenceItems(value)
	out := make([]any, len(items))
	for i, item := range items {
		label := strconv.Itoa(i)
		if !r.restricted.Allows(i) {
			out[i] = s.At(label).Invalid(item, CodeUnexpected, Vars{"key": label})
			continue
		}
		out[i] = s.At(label).Apply(r.chain, item)
	}
	return out
}

// Chain returns the chain applied to each element.
func (r *Repeater) Chain() Chain { return r.chain }

func (r *Repeater) String() string {
	return fmt.Sprintf("Repeater(%s)", r.chain)
}
