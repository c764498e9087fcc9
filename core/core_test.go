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

package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorStrategy(t *testing.T) {
	for in, want := range map[string]ErrorStrategy{
		"fail":     FailFast,
		"Skip":     SkipErrors,
		" collect": CollectErrors,
	} {
		got, err := ParseErrorStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseErrorStrategy("retry")
	assert.Error(t, err)
	assert.Equal(t, "collect", CollectErrors.String())
}

func TestAdapters(t *testing.T) {
	ctx := context.Background()

	tf := TransformFunc(func(_ context.Context, r Record) (Record, error) {
		out := r.Clone()
		out["seen"] = true
		return out, nil
	})
	in := Record{"a": 1}
	out, err := tf.Transform(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, Record{"a": 1, "seen": true}, out)
	assert.NotContains(t, in, "seen")

	pf := PredicateFunc(func(_ context.Context, r Record) (bool, error) {
		return r["a"] == 1, nil
	})
	ok, err := pf.ShouldInclude(ctx, in)
	require.NoError(t, err)
	assert.True(t, ok)

	boom := errors.New("boom")
	hf := ErrorHandlerFunc(func(_ context.Context, _ Record, err error) error { return err })
	assert.ErrorIs(t, hf.HandleError(ctx, in, boom), boom)
}
