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
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Kind is a coarse value type accepted by Type.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindMapping  Kind = "mapping"
	KindSequence Kind = "sequence"
	KindTime     Kind = "time"
)

// KindOf returns the Kind of value, or "" when none applies.
func KindOf(value any) Kind {
	switch v := value.(type) {
	case string:
		return KindString
	case bool:
		return KindBool
	case time.Time:
		return KindTime
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return KindInt
		}
		return KindFloat
	}
	switch ShapeOf(value) {
	case ShapeMapping:
		return KindMapping
	case ShapeSequence:
		return KindSequence
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	}
	return ""
}

// Type rejects values whose Kind is not one of kinds.
func Type(kinds ...Kind) Filter {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	allowed := strings.Join(names, ", ")

	return newLeaf("Type("+allowed+")", func(s *Scope, value any) any {
		got := KindOf(value)
		for _, k := range kinds {
			if k == got {
				return value
			}
		}
		return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": allowed})
	})
}

// isEmpty reports whether value is nil or a zero-length string or container.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case *OrderedMap:
		return v == nil || v.Len() == 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len() == 0
	}
	return false
}

// Required rejects nil and empty values with CodeEmpty.
func Required() Filter {
	l := newLeaf("Required", func(s *Scope, value any) any {
		if isEmpty(value) {
			return s.Invalid(value, CodeEmpty, nil)
		}
		return value
	})
	l.onNil = func(s *Scope) any {
		return s.Invalid(nil, CodeEmpty, nil)
	}
	return l
}

// NotEmpty rejects empty strings and containers but lets nil through.
func NotEmpty() Filter {
	return newLeaf("NotEmpty", func(s *Scope, value any) any {
		if isEmpty(value) {
			return s.Invalid(value, CodeEmpty, nil)
		}
		return value
	})
}

// Optional replaces nil and empty values with def.
func Optional(def any) Filter {
	l := newLeaf(fmt.Sprintf("Optional(%v)", def), func(s *Scope, value any) any {
		if isEmpty(value) {
			return def
		}
		return value
	})
	l.onNil = func(*Scope) any { return def }
	return l
}

// Choice rejects values that are not equal to one of choices.
func Choice(choices ...any) Filter {
	return newLeaf(fmt.Sprintf("Choice%v", choices), func(s *Scope, value any) any {
		for _, c := range choices {
			if equal(c, value) {
				return value
			}
		}
		return s.Invalid(value, CodeInvalidChoice, Vars{"choices": choices})
	})
}

func equal(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}

// Call adapts fn as a filter. An error from fn rejects the value with
// CodeInvalid and the error text as message.
func Call(name string, fn func(value any) (any, error)) Filter {
	return newLeaf(name, func(s *Scope, value any) any {
		out, err := fn(value)
		if err != nil {
			return s.Invalid(value, CodeInvalid, Vars{"error": err.Error()})
		}
		return out
	})
}
