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
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Result(t *testing.T) {
	m := NewMapper([]FieldSpec{Field("a", Int())}, WithExtraKeys(DenyAll()))

	res := Run(m, map[string]any{"a": "1"})
	assert.True(t, res.IsValid())
	assert.NoError(t, res.Err())

	res = Run(m, map[string]any{"a": "x", "b": 1})
	assert.False(t, res.IsValid())

	err := res.Err()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 2)
	assert.Equal(t, "validation failed with 2 issues; first: a: Integer value expected.", err.Error())

	byPath := res.ErrorsByPath()
	assert.Len(t, byPath, 2)
	assert.Contains(t, byPath, "a")
	assert.Contains(t, byPath, "b")
}

func TestRunner_ValidNilIsDistinct(t *testing.T) {
	res := Run(Optional(nil), nil)
	assert.True(t, res.IsValid())
	assert.Nil(t, res.Value)

	res = Run(Required(), nil)
	assert.False(t, res.IsValid())
	assert.Nil(t, res.Value)
}

func TestRunner_WithMessages(t *testing.T) {
	m := NewMapper([]FieldSpec{Field("name")}, WithMissingKeys(DenyAll()))
	r := NewRunner(m, WithMessages(map[Code]string{CodeMissing: "field {key} must be set"}))

	res := r.Run(map[string]any{})
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "field name must be set", res.Issues[0].Message)

	// The package default is untouched.
	res = Run(m, map[string]any{})
	assert.Equal(t, "name is required.", res.Issues[0].Message)
}

func TestRunner_UnknownCodeAndTemplateVars(t *testing.T) {
	const code Code = "custom_code"
	f := FilterFunc(func(s *Scope, v any) any {
		return s.Invalid(v, code, Vars{"limit": 3})
	})

	res := Run(f, "x")
	assert.Equal(t, "custom_code", res.Issues[0].Message)

	RegisterTemplate(code, "over {limit} for {value} {unknown}")
	res = Run(f, "x")
	assert.Equal(t, "over 3 for x {unknown}", res.Issues[0].Message)
}

func TestRunner_Concurrent(t *testing.T) {
	r := NewRunner(NewRepeater(Int()))

	var wg sync.WaitGroup
	results := make([]*Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := []any{fmt.Sprint(i)}
			if i%2 == 1 {
				in = append(in, "bad")
			}
			results[i] = r.Run(in)
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if i%2 == 1 {
			assert.Len(t, res.Issues, 1)
			continue
		}
		assert.True(t, res.IsValid())
		assert.Equal(t, []any{int64(i)}, res.Value)
	}
}

func TestScope_Paths(t *testing.T) {
	var seen []string
	probe := FilterFunc(func(s *Scope, v any) any {
		seen = append(seen, s.Key())
		return v
	})

	Run(NewMapper([]FieldSpec{Field("a", NewRepeater(probe))}), map[string]any{"a": []any{1, 2}})
	assert.Equal(t, []string{"a.0", "a.1"}, seen)
}
