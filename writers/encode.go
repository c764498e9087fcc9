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

package writers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
)

// Package writers provides implementations of core.DataSink.
//
// Nested *filters.OrderedMap values are written in their own key order.
// Non-string keys are written in their StringifyKey form.

// jsonValue prepares v for encoding/json.
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case *filters.OrderedMap:
		if x == nil {
			return nil
		}
		out := orderedmap.New[string, interface{}]()
		for p := x.Oldest(); p != nil; p = p.Next() {
			out.Set(filters.StringifyKey(p.Key), jsonValue(p.Value))
		}
		return out
	case core.Record:
		return jsonValue(map[string]interface{}(x))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[k] = jsonValue(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[filters.StringifyKey(k)] = jsonValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = jsonValue(val)
		}
		return out
	}
	return v
}

// marshalJSON encodes v with ordered nested maps.
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(jsonValue(v))
}

// cellString renders a value for a flat text cell. Containers are written as
// JSON.
func cellString(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case *filters.OrderedMap, map[string]interface{}, core.Record, map[interface{}]interface{}, []interface{}:
		b, err := marshalJSON(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return fmt.Sprintf("%v", v), nil
}
