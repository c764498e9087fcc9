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

// FieldSpec binds a schema key to the chain applied to its value.
type FieldSpec struct {
	Key   any
	Chain Chain
}

// Field declares a schema key. With no filters the field only requires the
// key to be present (subject to the missing-key policy).
func Field(key any, filters ...Filter) FieldSpec {
	return FieldSpec{Key: key, Chain: Normalize(filters...)}
}

// Mapper applies a per-key Chain to the values of a mapping.
//
// Output is always an *OrderedMap: declared keys in schema order, followed by
// admitted extra keys in the input's natural order. A declared key that is
// missing and not admitted by the missing-key policy is reported with
// CodeMissing and kept with the invalid placeholder. An extra key that is not
// admitted by the extra-key policy is reported with CodeUnexpected and
// omitted. Non-mapping input is rejected with CodeWrongType and yields nil.
//
// A Mapper is immutable and safe for concurrent use.
type Mapper struct {
	fields  []FieldSpec
	index   map[any]int
	missing KeyPolicy
	extra   KeyPolicy
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithMissingKeys sets which declared keys may be absent. Absent admitted
// keys have their chain applied to nil. Defaults to AllowAll.
func WithMissingKeys(policy KeyPolicy) MapperOption {
	return func(m *Mapper) {
		m.missing = policy
	}
}

// WithExtraKeys sets which undeclared keys pass through unchanged. Defaults
// to AllowAll.
func WithExtraKeys(policy KeyPolicy) MapperOption {
	return func(m *Mapper) {
		m.extra = policy
	}
}

// NewMapper creates a Mapper from an ordered schema. A key declared twice
// keeps its first position and its last chain. NewMapper panics if a key is
// not comparable.
func NewMapper(schema []FieldSpec, opts ...MapperOption) *Mapper {
	m := &Mapper{
		fields:  make([]FieldSpec, 0, len(schema)),
		index:   make(map[any]int, len(schema)),
		missing: AllowAll(),
		extra:   AllowAll(),
	}
	for _, f := range schema {
		mustComparable(f.Key, "Mapper schema")
		if i, ok := m.index[f.Key]; ok {
			m.fields[i].Chain = f.Chain
			continue
		}
		m.index[f.Key] = len(m.fields)
		m.fields = append(m.fields, f)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply implements the Filter interface for Mapper.
func (m *Mapper) Apply(s *Scope, value any) any {
	if ShapeOf(value) != ShapeMapping {
		return s.Invalid(value, CodeWrongType, Vars{
			"incoming": typeName(value),
			"allowed":  "mapping",
		})
	}

	entries := mappingEntries(value)
	present := make(map[any]int, len(entries))
	for i, e := range entries {
		setIndex(present, e.key, i)
	}

	out := NewOrderedMap()
	for _, f := range m.fields {
		label := StringifyKey(f.Key)
		scope := s.At(label)
		switch i, ok := present[f.Key]; {
		case ok:
			out.Set(f.Key, scope.Apply(f.Chain, entries[i].value))
		case m.missing.Allows(f.Key):
			out.Set(f.Key, scope.Apply(f.Chain, nil))
		default:
			out.Set(f.Key, scope.Invalid(nil, CodeMissing, Vars{"key": label}))
		}
	}

	for _, e := range entries {
		if _, declared := lookupIndex(m.index, e.key); declared {
			continue
		}
		if m.extra.Allows(e.key) && hashable(e.key) {
			out.Set(e.key, e.value)
			continue
		}
		label := StringifyKey(e.key)
		s.At(label).Invalid(e.value, CodeUnexpected, Vars{"key": label})
	}
	return out
}

// Fields returns a copy of the schema in declaration order.
func (m *Mapper) Fields() []FieldSpec {
	return append([]FieldSpec(nil), m.fields...)
}

func (m *Mapper) String() string {
	parts := make([]string, len(m.fields))
	for i, f := range m.fields {
		parts[i] = StringifyKey(f.Key) + "=" + f.Chain.String()
	}
	return "Mapper(" + strings.Join(parts, ", ") + ")"
}

// hashable reports whether key can be stored in a map. Keys from a Mapping
// implementation may hold slices or maps.
func hashable(key any) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_ = map[any]struct{}{key: {}}
	return true
}

// setIndex records key in idx, skipping keys that cannot be hashed.
func setIndex(idx map[any]int, key any, i int) {
	defer func() { _ = recover() }()
	idx[key] = i
}

func lookupIndex(idx map[any]int, key any) (i int, ok bool) {
	defer func() {
		if recover() != nil {
			i, ok = 0, false
		}
	}()
	i, ok = idx[key]
	return i, ok
}
