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
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Int converts integers, integral floats and numeric strings to int64.
func Int() Filter {
	return newLeaf("Int", func(s *Scope, value any) any {
		n, ok := toInt(value)
		if !ok {
			return s.Invalid(value, CodeNotInt, nil)
		}
		return n
	})
}

func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case bool:
		return 0, false
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		str := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(str, 10, 64); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Float converts numbers and numeric strings to float64. NaN and infinities
// are rejected.
func Float() Filter {
	return newLeaf("Float", func(s *Scope, value any) any {
		f, ok := toFloat(value)
		if !ok {
			return s.Invalid(value, CodeNotNumeric, nil)
		}
		return f
	})
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case bool:
		return 0, false
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool converts booleans, 0/1 and the usual true/false words to bool.
func Bool() Filter {
	return newLeaf("Bool", func(s *Scope, value any) any {
		switch v := value.(type) {
		case bool:
			return v
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "t", "yes", "y", "on", "1":
				return true
			case "false", "f", "no", "n", "off", "0":
				return false
			}
		default:
			if n, ok := toInt(value); ok && (n == 0 || n == 1) {
				return n == 1
			}
		}
		return s.Invalid(value, CodeNotBool, nil)
	})
}

// Min rejects numbers less than min.
func Min(min float64) Filter {
	return newLeaf(fmt.Sprintf("Min(%v)", min), func(s *Scope, value any) any {
		f, ok := toFloat(value)
		if !ok {
			return s.Invalid(value, CodeNotNumeric, nil)
		}
		if f < min {
			return s.Invalid(value, CodeTooSmall, Vars{"min": min})
		}
		return value
	})
}

// Max rejects numbers greater than max.
func Max(max float64) Filter {
	return newLeaf(fmt.Sprintf("Max(%v)", max), func(s *Scope, value any) any {
		f, ok := toFloat(value)
		if !ok {
			return s.Invalid(value, CodeNotNumeric, nil)
		}
		if f > max {
			return s.Invalid(value, CodeTooBig, Vars{"max": max})
		}
		return value
	})
}
