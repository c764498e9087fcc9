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

package aggregate

import (
	"context"
	"testing"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityGate_Passes(t *testing.T) {
	g := &QualityGate{MinRecords: 2, MaxRecords: 3, MaxNullRate: 0.5, RequiredFields: []string{"id"}}
	ctx := context.Background()
	require.NoError(t, g.Add(ctx, core.Record{"id": 1, "email": "a@example.com"}))
	require.NoError(t, g.Add(ctx, core.Record{"id": 2, "email": nil}))
	assert.NoError(t, g.Check())

	res, err := g.Result()
	require.NoError(t, err)
	assert.Equal(t, 2, res["records"])
	assert.Equal(t, map[string]interface{}{"id": 0.0, "email": 0.5}, res["null_rates"])
	assert.NotContains(t, res, "error")
}

func TestQualityGate_Violations(t *testing.T) {
	g := &QualityGate{
		MinRecords:      5,
		MaxNullRate:     0.4,
		RequiredFields:  []string{"id"},
		ForbiddenFields: []string{"password"},
	}
	ctx := context.Background()
	require.NoError(t, g.Add(ctx, core.Record{"id": 1, "password": "x"}))
	require.NoError(t, g.Add(ctx, core.Record{"name": "b"}))

	err := g.Check()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "insufficient records: got 2, need at least 5")
	assert.Contains(t, msg, "1 records missing required field id")
	assert.Contains(t, msg, "1 records contain forbidden field password")
	assert.Contains(t, msg, "field id has null rate 0.50")
	assert.Contains(t, msg, "field name has null rate 0.50")

	res, _ := g.Result()
	assert.Contains(t, res, "error")

	g.Reset()
	g.MinRecords = 0
	assert.NoError(t, g.Check())
}

func TestQualityGate_MaxRecords(t *testing.T) {
	g := &QualityGate{MaxRecords: 1}
	ctx := context.Background()
	require.NoError(t, g.Add(ctx, core.Record{"a": 1}))
	assert.NoError(t, g.Check())
	require.NoError(t, g.Add(ctx, core.Record{"a": 2}))
	assert.ErrorContains(t, g.Check(), "too many records: got 2, maximum allowed 1")
}
