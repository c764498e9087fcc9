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

package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func include(t *testing.T, p core.Predicate, r core.Record) bool {
	t.Helper()
	ok, err := p.ShouldInclude(context.Background(), r)
	require.NoError(t, err)
	return ok
}

func TestValidInvalid(t *testing.T) {
	schema := filters.NewMapper([]filters.FieldSpec{
		filters.Field("n", filters.Int()),
	}, filters.WithMissingKeys(filters.DenyAll()))

	assert.True(t, include(t, Valid(schema), core.Record{"n": "1"}))
	assert.False(t, include(t, Valid(schema), core.Record{"n": "x"}))
	assert.False(t, include(t, Valid(schema), core.Record{}))
	assert.True(t, include(t, Invalid(schema), core.Record{}))
}

func TestCombinators(t *testing.T) {
	a := HasField("a")
	b := HasField("b")
	r := core.Record{"a": 1, "b": nil}

	assert.True(t, include(t, a, r))
	assert.False(t, include(t, b, r))
	assert.False(t, include(t, And(a, b), r))
	assert.True(t, include(t, Or(b, a), r))
	assert.True(t, include(t, Not(b), r))
	assert.True(t, include(t, And(), r))
	assert.False(t, include(t, Or(), r))

	boom := errors.New("boom")
	failing := core.PredicateFunc(func(context.Context, core.Record) (bool, error) { return false, boom })
	_, err := Or(failing, a).ShouldInclude(context.Background(), r)
	assert.ErrorIs(t, err, boom)
	_, err = Not(failing).ShouldInclude(context.Background(), r)
	assert.ErrorIs(t, err, boom)
}
