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
	"time"
)

// Plain converts value into plain Go data: mappings become map[string]any
// with stringified keys, sequences become []any and times become RFC 3339
// strings. Expression, script and JSON Schema filters see values in this
// form.
func Plain(value any) any {
	switch v := value.(type) {
	case nil, string, bool:
		return v
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case []byte:
		return string(v)
	}

	switch ShapeOf(value) {
	case ShapeMapping:
		entries := mappingEntries(value)
		out := make(map[string]any, len(entries))
		for _, e := range entries {
			out[StringifyKey(e.key)] = Plain(e.value)
		}
		return out
	case ShapeSequence:
		items := sequenceItems(value)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = Plain(item)
		}
		return out
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool, reflect.String:
		return value
	}
	if s, ok := value.(fmt.Stringer); ok {
		return s.String()
	}
	return value
}
