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

package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userSchema() filters.Filter {
	return filters.NewMapper([]filters.FieldSpec{
		filters.Field("id", filters.Required(), filters.Int()),
		filters.Field("email", filters.Unicode(), filters.Strip(), filters.Lower()),
	}, filters.WithExtraKeys(filters.DenyAll()))
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	v := Validate(userSchema())

	out, err := v.Transform(ctx, core.Record{"id": "7", "email": " A@B.IO "})
	require.NoError(t, err)
	assert.Equal(t, core.Record{"id": int64(7), "email": "a@b.io"}, out)

	_, err = v.Transform(ctx, core.Record{"id": "x", "other": 1})
	require.Error(t, err)
	var verr *filters.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 2)
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	c := Clean(userSchema())

	out, err := c.Transform(ctx, core.Record{"id": "x", "email": "Q@Z"})
	require.NoError(t, err)
	assert.Nil(t, out["id"])
	assert.Equal(t, "q@z", out["email"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"path": "id", "code": "not_int", "message": "Integer value expected."},
	}, out[IssuesField])

	out, err = c.Transform(ctx, core.Record{"id": 1})
	require.NoError(t, err)
	assert.NotContains(t, out, IssuesField)
}

func TestField(t *testing.T) {
	ctx := context.Background()

	tr := Field("age", filters.Int(), filters.Min(0))
	out, err := tr.Transform(ctx, core.Record{"age": "42", "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, core.Record{"age": int64(42), "name": "x"}, out)

	_, err = tr.Transform(ctx, core.Record{"age": "-1"})
	var verr *filters.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "age", verr.Issues[0].Key())

	out, err = tr.Transform(ctx, core.Record{"name": "x"})
	require.NoError(t, err)
	assert.NotContains(t, out, "age")

	out, err = Field("age", filters.Optional(0)).Transform(ctx, core.Record{})
	require.NoError(t, err)
	assert.Equal(t, 0, out["age"])
}

func TestSelect(t *testing.T) {
	out, err := Select("a", "c").Transform(context.Background(), core.Record{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, core.Record{"a": 1}, out)
}

func TestToRecord(t *testing.T) {
	om := filters.NewOrderedMap()
	om.Set("a", 1)
	om.Set(2, "two")

	rec, ok := ToRecord(om)
	require.True(t, ok)
	assert.Equal(t, core.Record{"a": 1, "2": "two"}, rec)

	_, ok = ToRecord([]interface{}{1})
	assert.False(t, ok)
}
