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
)

func TestKeyPolicy(t *testing.T) {
	t.Run("zero value allows all", func(t *testing.T) {
		var p KeyPolicy
		assert.True(t, p.Allows("anything"))
		assert.Equal(t, "AllowAll", p.String())
	})

	t.Run("allow all", func(t *testing.T) {
		assert.True(t, AllowAll().Allows(1))
		assert.True(t, AllowAll().Allows(nil))
	})

	t.Run("deny all", func(t *testing.T) {
		assert.False(t, DenyAll().Allows("a"))
		assert.Equal(t, "DenyAll", DenyAll().String())
	})

	t.Run("allow only", func(t *testing.T) {
		p := AllowOnly("b", "a", 0)
		assert.True(t, p.Allows("a"))
		assert.True(t, p.Allows(0))
		assert.False(t, p.Allows("c"))
		assert.False(t, p.Allows(int64(0)))
		assert.Equal(t, "AllowOnly(0, a, b)", p.String())
	})

	t.Run("empty set allows nothing", func(t *testing.T) {
		p := AllowOnly()
		assert.False(t, p.Allows("a"))
		assert.False(t, p.Allows(0))
	})

	t.Run("unhashable key is rejected", func(t *testing.T) {
		p := AllowOnly("a")
		assert.NotPanics(t, func() {
			assert.False(t, p.Allows([]int{1}))
		})
	})

	t.Run("non-comparable member panics", func(t *testing.T) {
		assert.Panics(t, func() { AllowOnly(map[string]int{}) })
	})
}
