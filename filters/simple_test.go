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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leafCase runs f against in and checks the output or the issue code.
type leafCase struct {
	name string
	in   any
	want any
	code Code
}

func runLeafCases(t *testing.T, f Filter, cases []leafCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Run(f, tc.in)
			if tc.code != "" {
				require.Len(t, res.Issues, 1)
				assert.Equal(t, tc.code, res.Issues[0].Code)
				assert.Nil(t, res.Value)
				return
			}
			require.True(t, res.IsValid(), "unexpected issues: %v", res.Issues)
			assert.Equal(t, tc.want, res.Value)
		})
	}
}

func TestInt(t *testing.T) {
	runLeafCases(t, Int(), []leafCase{
		{name: "int", in: 3, want: int64(3)},
		{name: "uint", in: uint16(9), want: int64(9)},
		{name: "integral float", in: 4.0, want: int64(4)},
		{name: "string", in: " 42 ", want: int64(42)},
		{name: "float string", in: "5.0", want: int64(5)},
		{name: "json number", in: json.Number("17"), want: int64(17)},
		{name: "fraction", in: 1.5, code: CodeNotInt},
		{name: "text", in: "abc", code: CodeNotInt},
		{name: "bool", in: true, code: CodeNotInt},
		{name: "nil passes", in: nil, want: nil},
	})
}

func TestFloat(t *testing.T) {
	runLeafCases(t, Float(), []leafCase{
		{name: "int", in: 3, want: 3.0},
		{name: "string", in: "2.5", want: 2.5},
		{name: "json number", in: json.Number("1e3"), want: 1000.0},
		{name: "nan", in: "NaN", code: CodeNotNumeric},
		{name: "text", in: "x", code: CodeNotNumeric},
	})
}

func TestBool(t *testing.T) {
	runLeafCases(t, Bool(), []leafCase{
		{name: "bool", in: false, want: false},
		{name: "yes", in: "Yes", want: true},
		{name: "off", in: "off", want: false},
		{name: "one", in: 1, want: true},
		{name: "two", in: 2, code: CodeNotBool},
		{name: "word", in: "maybe", code: CodeNotBool},
	})
}

func TestRequiredAndOptional(t *testing.T) {
	runLeafCases(t, Required(), []leafCase{
		{name: "value", in: "x", want: "x"},
		{name: "nil", in: nil, code: CodeEmpty},
		{name: "empty string", in: "", code: CodeEmpty},
		{name: "empty slice", in: []any{}, code: CodeEmpty},
		{name: "zero is not empty", in: 0, want: 0},
	})

	runLeafCases(t, NotEmpty(), []leafCase{
		{name: "nil passes", in: nil, want: nil},
		{name: "empty map", in: map[string]any{}, code: CodeEmpty},
	})

	runLeafCases(t, Optional("n/a"), []leafCase{
		{name: "nil", in: nil, want: "n/a"},
		{name: "empty", in: "", want: "n/a"},
		{name: "value", in: "v", want: "v"},
	})
}

func TestChoice(t *testing.T) {
	f := Choice("red", "green", 3)
	runLeafCases(t, f, []leafCase{
		{name: "member", in: "green", want: "green"},
		{name: "int member", in: 3, want: 3},
		{name: "not member", in: "blue", code: CodeInvalidChoice},
	})

	res := Run(f, "blue")
	assert.Equal(t, "Valid options are: red, green, 3.", res.Issues[0].Message)
}

func TestStrings(t *testing.T) {
	runLeafCases(t, Unicode(), []leafCase{
		{name: "int", in: 7, want: "7"},
		{name: "bytes", in: []byte("hi"), want: "hi"},
		{name: "map", in: map[string]any{}, code: CodeWrongType},
	})
	runLeafCases(t, Strip(), []leafCase{
		{name: "trim", in: "  a b  ", want: "a b"},
		{name: "not string", in: 1, code: CodeWrongType},
	})
	runLeafCases(t, Lower(), []leafCase{{name: "lower", in: "AbC", want: "abc"}})
	runLeafCases(t, Upper(), []leafCase{{name: "upper", in: "AbC", want: "ABC"}})
}

func TestRegex(t *testing.T) {
	f, err := Regex(`^[a-z]+@[a-z]+\.[a-z]+$`)
	require.NoError(t, err)
	runLeafCases(t, f, []leafCase{
		{name: "match", in: "a@b.io", want: "a@b.io"},
		{name: "no match", in: "nope", code: CodeMalformed},
		{name: "not string", in: 5, code: CodeWrongType},
	})

	_, err = Regex("(")
	assert.Error(t, err)
	assert.Panics(t, func() { MustRegex("(") })
}

func TestBounds(t *testing.T) {
	runLeafCases(t, Min(10), []leafCase{
		{name: "equal", in: 10, want: 10},
		{name: "below", in: 9.5, code: CodeTooSmall},
		{name: "not numeric", in: "x", code: CodeNotNumeric},
	})
	runLeafCases(t, Max(10), []leafCase{
		{name: "above", in: int64(11), code: CodeTooBig},
		{name: "string number", in: "3", want: "3"},
	})
	runLeafCases(t, MinLength(2), []leafCase{
		{name: "runes", in: "éé", want: "éé"},
		{name: "short", in: "a", code: CodeTooShort},
		{name: "not sized", in: 3, code: CodeWrongType},
	})
	runLeafCases(t, MaxLength(2), []leafCase{
		{name: "slice", in: []any{1, 2, 3}, code: CodeTooLong},
		{name: "map", in: map[string]any{"a": 1}, want: map[string]any{"a": 1}},
	})

	res := Run(Min(10), 3)
	assert.Equal(t, "Value is less than 10.", res.Issues[0].Message)
}

func TestDate(t *testing.T) {
	ts := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	runLeafCases(t, Date("2006-01-02"), []leafCase{
		{name: "parse", in: "2025-03-14", want: ts},
		{name: "time", in: ts, want: ts},
		{name: "bad format", in: "14/03/2025", code: CodeInvalidDate},
		{name: "not string", in: 20250314, code: CodeWrongType},
	})
}

func TestUUID(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	runLeafCases(t, UUID(), []leafCase{
		{name: "string", in: id.String(), want: id},
		{name: "bytes", in: id[:], want: id},
		{name: "uuid", in: id, want: id},
		{name: "bad", in: "not-a-uuid", code: CodeNotUUID},
		{name: "int", in: 1, code: CodeWrongType},
	})
}

func TestType(t *testing.T) {
	f := Type(KindInt, KindString)
	runLeafCases(t, f, []leafCase{
		{name: "int", in: 1, want: 1},
		{name: "string", in: "a", want: "a"},
		{name: "float", in: 1.5, code: CodeWrongType},
		{name: "mapping", in: map[string]any{}, code: CodeWrongType},
	})

	res := Run(f, 1.5)
	assert.Equal(t, "float64 is not valid (allowed types: int, string).", res.Issues[0].Message)
	assert.Equal(t, KindSequence, KindOf([]int{1}))
	assert.Equal(t, KindMapping, KindOf(NewOrderedMap()))
}

func TestCall(t *testing.T) {
	f := Call("Double", func(v any) (any, error) {
		n, ok := v.(int)
		if !ok {
			return nil, assert.AnError
		}
		return n * 2, nil
	})
	runLeafCases(t, f, []leafCase{
		{name: "ok", in: 2, want: 4},
		{name: "error", in: "x", code: CodeInvalid},
	})
	assert.Equal(t, "Double", describe(f))
}
