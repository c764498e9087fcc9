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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.True(t, Normalize().IsEmpty())
	assert.True(t, Normalize(nil, nil).IsEmpty())
	assert.Equal(t, 1, Normalize(nil, Int()).Len())

	nested := Normalize(Normalize(Unicode(), Strip()), nil, Lower())
	assert.Equal(t, 3, nested.Len())
	assert.Equal(t, "Unicode | Strip | Lower", nested.String())
	assert.Equal(t, "Identity", Normalize().String())
}

func TestChain_Apply(t *testing.T) {
	t.Run("left to right", func(t *testing.T) {
		res := Run(Normalize(Unicode(), Strip(), Upper()), 12)
		require.True(t, res.IsValid())
		assert.Equal(t, "12", res.Value)

		res = Run(Normalize(Strip(), Upper()), "  ab ")
		assert.Equal(t, "AB", res.Value)
	})

	t.Run("identity", func(t *testing.T) {
		res := Run(Normalize(), "x")
		require.True(t, res.IsValid())
		assert.Equal(t, "x", res.Value)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		calls := 0
		spy := FilterFunc(func(s *Scope, v any) any {
			calls++
			return v
		})
		res := Run(Normalize(Int(), spy), "nope")

		require.Len(t, res.Issues, 1)
		assert.Equal(t, CodeNotInt, res.Issues[0].Code)
		assert.Nil(t, res.Value)
		assert.Zero(t, calls)
	})

	t.Run("nil skips plain filters", func(t *testing.T) {
		res := Run(Normalize(Int(), Optional(5)), nil)
		require.True(t, res.IsValid())
		assert.Equal(t, 5, res.Value)
	})

	t.Run("nil reaches required", func(t *testing.T) {
		res := Run(Normalize(Strip(), Required()), nil)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, CodeEmpty, res.Issues[0].Code)
	})
}
