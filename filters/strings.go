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
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Unicode coerces scalars to string.
func Unicode() Filter {
	return newLeaf("Unicode", func(s *Scope, value any) any {
		str, ok := coerceString(value)
		if !ok {
			return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string"})
		}
		return str
	})
}

// stringLeaf builds a filter that requires a string and maps it with fn.
func stringLeaf(name string, fn func(string) string) Filter {
	return newLeaf(name, func(s *Scope, value any) any {
		str, ok := value.(string)
		if !ok {
			return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string"})
		}
		return fn(str)
	})
}

// Strip removes leading and trailing white space.
func Strip() Filter { return stringLeaf("Strip", strings.TrimSpace) }

// Lower converts strings to lower case.
func Lower() Filter { return stringLeaf("Lower", strings.ToLower) }

// Upper converts strings to upper case.
func Upper() Filter { return stringLeaf("Upper", strings.ToUpper) }

// Regex rejects strings that do not match pattern with CodeMalformed.
func Regex(pattern string) (Filter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("regex filter: %w", err)
	}
	return newLeaf("Regex("+pattern+")", func(s *Scope, value any) any {
		str, ok := value.(string)
		if !ok {
			return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string"})
		}
		if !re.MatchString(str) {
			return s.Invalid(value, CodeMalformed, Vars{"pattern": pattern})
		}
		return str
	}), nil
}

// MustRegex is like Regex but panics if pattern does not compile.
func MustRegex(pattern string) Filter {
	f, err := Regex(pattern)
	if err != nil {
		panic(err)
	}
	return f
}

// length returns the rune count of strings and the length of containers.
func length(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case *OrderedMap:
		return v.Len(), true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}

// MinLength rejects strings and containers shorter than n.
func MinLength(n int) Filter {
	return newLeaf(fmt.Sprintf("MinLength(%d)", n), func(s *Scope, value any) any {
		l, ok := length(value)
		if !ok {
			return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string, mapping, sequence"})
		}
		if l < n {
			return s.Invalid(value, CodeTooShort, Vars{"min": n})
		}
		return value
	})
}

// MaxLength rejects strings and containers longer than n.
func MaxLength(n int) Filter {
	return newLeaf(fmt.Sprintf("MaxLength(%d)", n), func(s *Scope, value any) any {
		l, ok := length(value)
		if !ok {
			return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string, mapping, sequence"})
		}
		if l > n {
			return s.Invalid(value, CodeTooLong, Vars{"max": n})
		}
		return value
	})
}

// Date parses strings with layout into time.Time. time.Time values pass
// through.
func Date(layout string) Filter {
	return newLeaf("Date("+layout+")", func(s *Scope, value any) any {
		switch v := value.(type) {
		case time.Time:
			return v
		case string:
			t, err := time.Parse(layout, strings.TrimSpace(v))
			if err != nil {
				return s.Invalid(value, CodeInvalidDate, Vars{"layout": layout})
			}
			return t
		}
		return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string, time"})
	})
}
