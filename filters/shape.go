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
	"reflect"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OrderedMap is the mapping container produced by Repeater and Mapper.
type OrderedMap = orderedmap.OrderedMap[any, any]

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return orderedmap.New[any, any]()
}

// Mapping is implemented by ordered containers other than Go maps and
// OrderedMaps that should be treated as mapping input.
type Mapping interface {
	Keys() []any
	Get(key any) (any, bool)
}

// Shape is the runtime shape of an input value.
type Shape uint8

const (
	ShapeOther Shape = iota
	ShapeMapping
	ShapeSequence
)

func (s Shape) String() string {
	switch s {
	case ShapeMapping:
		return "mapping"
	case ShapeSequence:
		return "sequence"
	}
	return "other"
}

// ShapeOf classifies value. Strings and byte slices are scalars.
func ShapeOf(value any) Shape {
	switch value.(type) {
	case nil, string, []byte:
		return ShapeOther
	case *OrderedMap, *orderedmap.OrderedMap[string, any], Mapping, map[string]any:
		return ShapeMapping
	case []any:
		return ShapeSequence
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map:
		return ShapeMapping
	case reflect.Slice, reflect.Array:
		return ShapeSequence
	}
	return ShapeOther
}

type entry struct {
	key   any
	value any
}

// mappingEntries returns the entries of a mapping in natural order: insertion
// order for ordered containers, stringified-key order for Go maps.
func mappingEntries(value any) []entry {
	switch m := value.(type) {
	case *OrderedMap:
		if m == nil {
			return nil
		}
		out := make([]entry, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			out = append(out, entry{p.Key, p.Value})
		}
		return out
	case *orderedmap.OrderedMap[string, any]:
		if m == nil {
			return nil
		}
		out := make([]entry, 0, m.Len())
		for p := m.Oldest(); p != nil; p = p.Next() {
			out = append(out, entry{p.Key, p.Value})
		}
		return out
	case Mapping:
		keys := m.Keys()
		out := make([]entry, 0, len(keys))
		for _, k := range keys {
			v, _ := m.Get(k)
			out = append(out, entry{k, v})
		}
		return out
	}

	rv := reflect.ValueOf(value)
	type labeled struct {
		entry
		label string
		typ   string
		gosyn string
	}
	items := make([]labeled, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		items = append(items, labeled{
			entry: entry{k, iter.Value().Interface()},
			label: StringifyKey(k),
			typ:   typeName(k),
			gosyn: fmt.Sprintf("%#v", k),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].label != items[j].label {
			return items[i].label < items[j].label
		}
		if items[i].typ != items[j].typ {
			return items[i].typ < items[j].typ
		}
		return items[i].gosyn < items[j].gosyn
	})

	out := make([]entry, len(items))
	for i, it := range items {
		out[i] = it.entry
	}
	return out
}

// sequenceItems returns the elements of a sequence in order.
func sequenceItems(value any) []any {
	if s, ok := value.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(value)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
