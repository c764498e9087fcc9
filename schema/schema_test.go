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

package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aaronlmathis/gofilters/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const usersSchema = `
filter:
  repeat:
    map:
      id: [required, int, {min: 1}]
      email: [required, unicode, strip, lower, {regex: '^[^@]+@[^@]+$'}]
      role:
        - {optional: viewer}
        - {choice: [viewer, editor, admin]}
      nickname:
      tags:
        repeat: [unicode, strip]
        restrict: [0, 1, 2]
    missing: [nickname, tags, role]
    extra: deny
messages:
  unexpected: 'field "{key}" is not allowed'
`

func TestParse_Users(t *testing.T) {
	s, err := Parse([]byte(usersSchema))
	require.NoError(t, err)

	res := s.Runner().Run([]any{
		map[string]any{"id": "1", "email": " Ann@Example.com ", "tags": []any{" a "}},
		map[string]any{"id": 0, "email": "bob", "role": "root", "admin": true},
	})

	byPath := res.ErrorsByPath()
	assert.Len(t, res.Issues, 4, "%v", res.Issues)
	assert.Equal(t, filters.CodeTooSmall, byPath["1.id"][0].Code)
	assert.Equal(t, filters.CodeMalformed, byPath["1.email"][0].Code)
	assert.Equal(t, filters.CodeInvalidChoice, byPath["1.role"][0].Code)
	assert.Equal(t, `field "admin" is not allowed`, byPath["1.admin"][0].Message)

	out := res.Value.([]any)
	first := out[0].(*filters.OrderedMap)
	email, _ := first.Get("email")
	assert.Equal(t, "ann@example.com", email)
	role, _ := first.Get("role")
	assert.Equal(t, "viewer", role)
	tags, _ := first.Get("tags")
	assert.Equal(t, []any{"a"}, tags)

	keys := []any{}
	for p := first.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []any{"id", "email", "role", "nickname", "tags"}, keys)
}

func TestParse_BareSpec(t *testing.T) {
	s, err := Parse([]byte(`[unicode, upper]`))
	require.NoError(t, err)
	assert.Empty(t, s.Messages)

	res := s.Runner().Run(12)
	require.True(t, res.IsValid())
	assert.Equal(t, "12", res.Value)

	s, err = Parse([]byte(`{"map": {"a": "int"}, "missing": "deny"}`))
	require.NoError(t, err)
	res = s.Runner().Run(map[string]any{})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, filters.CodeMissing, res.Issues[0].Code)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"unknown filter", "map:\n  a: [int, nope]\n", 2},
		{"bad argument", "map:\n  a:\n    - {min: abc}\n", 3},
		{"missing argument", "regex\n", 1},
		{"bad regex", "{regex: '('}\n", 1},
		{"unexpected argument", "{int: 3}\n", 1},
		{"bad policy", "map: {a: int}\nextra: sometimes\n", 2},
		{"unknown map option", "map: {a: int}\nstrict: true\n", 2},
		{"unknown repeat option", "repeat: int\nonly: [1]\n", 2},
		{"ambiguous mapping", "{int: , float: }\n", 1},
		{"unknown document key", "filter: int\nextra: 1\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var serr *Error
			require.True(t, errors.As(err, &serr), "got %T: %v", err, err)
			assert.Equal(t, tt.line, serr.Line, serr.Error())
		})
	}

	_, err := Parse([]byte("   "))
	assert.Error(t, err)
	_, err = Parse([]byte("a: [b"))
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	Register("even", func(arg *yaml.Node) (filters.Filter, error) {
		return filters.MustExpr("value % 2 == 0"), nil
	})
	assert.Contains(t, Names(), "even")
	assert.Contains(t, Names(), "jsonschema")

	s, err := Parse([]byte("repeat: [int, even]\n"))
	require.NoError(t, err)
	res := s.Runner().Run([]any{"2", "3"})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "1", res.Issues[0].Key())
	assert.Equal(t, filters.CodeFailedCheck, res.Issues[0].Code)
}

func TestParse_ScriptAndJSONSchema(t *testing.T) {
	doc := `
map:
  name:
    script: |
      function filter(v) { return v.split(" ").reverse().join(" "); }
  address:
    jsonschema:
      type: object
      required: [city]
`
	s, err := Parse([]byte(doc))
	require.NoError(t, err)

	res := s.Runner().Run(map[string]any{"name": "Lovelace Ada", "address": map[string]any{}})
	require.Len(t, res.Issues, 1, "%v", res.Issues)
	assert.Equal(t, "address", res.Issues[0].Key())

	name, _ := res.Value.(*filters.OrderedMap).Get("name")
	assert.Equal(t, "Ada Lovelace", name)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersSchema), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, s.Messages, filters.CodeUnexpected)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_RestrictMatchesStringKeys(t *testing.T) {
	s, err := Parse([]byte("repeat: int\nrestrict: [1]\n"))
	require.NoError(t, err)

	res := filters.Run(s.Filter, map[string]any{"1": "5", "2": "6"})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, filters.CodeUnexpected, res.Issues[0].Code)
	assert.Equal(t, "2", res.Issues[0].Key())

	res = filters.Run(s.Filter, []any{"7", "8"})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "0", res.Issues[0].Key())
	assert.Equal(t, []any{nil, int64(8)}, res.Value)
}
