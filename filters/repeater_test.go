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

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keysOf returns the keys of an ordered output in order.
func keysOf(t *testing.T, value any) []any {
	t.Helper()
	om, ok := value.(*OrderedMap)
	require.True(t, ok, "expected *OrderedMap, got %s", spew.Sdump(value))
	keys := make([]any, 0, om.Len())
	for p := om.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

func get(t *testing.T, value any, key any) any {
	t.Helper()
	om, ok := value.(*OrderedMap)
	require.True(t, ok, "expected *OrderedMap, got %s", spew.Sdump(value))
	v, present := om.Get(key)
	require.True(t, present, "key %v missing from %s", key, spew.Sdump(value))
	return v
}

func TestRepeater_Sequence(t *testing.T) {
	res := Run(NewRepeater(Int()), []any{"1", 2, 3.0})
	require.True(t, res.IsValid(), spew.Sdump(res.Issues))
	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, res.Value)
}

func TestRepeater_TypedSlice(t *testing.T) {
	res := Run(NewRepeater(Unicode()), []int{3, 1, 2})
	require.True(t, res.IsValid())
	assert.Equal(t, []any{"3", "1", "2"}, res.Value)
}

func TestRepeater_Mapping(t *testing.T) {
	t.Run("go map in stringified key order", func(t *testing.T) {
		res := Run(NewRepeater(Int()), map[string]any{"b": "2", "a": "1", "c": 3})
		require.True(t, res.IsValid())
		assert.Equal(t, []any{"a", "b", "c"}, keysOf(t, res.Value))
		assert.Equal(t, int64(2), get(t, res.Value, "b"))
	})

	t.Run("ordered input keeps insertion order", func(t *testing.T) {
		in := NewOrderedMap()
		in.Set("z", 1)
		in.Set("a", 2)
		in.Set("m", 3)
		res := Run(NewRepeater(nil), in)
		require.True(t, res.IsValid())
		assert.Equal(t, []any{"z", "a", "m"}, keysOf(t, res.Value))
	})

	t.Run("original key identity", func(t *testing.T) {
		res := Run(NewRepeater(Unicode()), map[int]any{2: "b", 1: "a"})
		require.True(t, res.IsValid())
		assert.Equal(t, []any{1, 2}, keysOf(t, res.Value))
	})
}

func TestRepeater_RestrictedKeys(t *testing.T) {
	t.Run("mapping drops rejected keys", func(t *testing.T) {
		r := NewRepeater(nil, WithRestrictedKeys("a"))
		res := Run(r, map[string]any{"a": 1, "b": 2})

		assert.Equal(t, []any{"a"}, keysOf(t, res.Value))
		require.Len(t, res.Issues, 1)
		assert.Equal(t, CodeUnexpected, res.Issues[0].Code)
		assert.Equal(t, []string{"b"}, res.Issues[0].Path)
		assert.Equal(t, `Unexpected key "b".`, res.Issues[0].Message)
		assert.Equal(t, 2, res.Issues[0].Value)
	})

	t.Run("sequence keeps placeholder", func(t *testing.T) {
		r := NewRepeater(nil, WithRestrictedKeys(0))
		res := Run(r, []any{10, 20})

		assert.Equal(t, []any{10, nil}, res.Value)
		require.Len(t, res.Issues, 1)
		assert.Equal(t, CodeUnexpected, res.Issues[0].Code)
		assert.Equal(t, "1", res.Issues[0].Key())
		assert.Equal(t, `Unexpected key "1".`, res.Issues[0].Message)
	})

	t.Run("empty restriction rejects everything", func(t *testing.T) {
		r := NewRepeater(Int(), WithRestrictedKeys())

		res := Run(r, map[string]any{"a": 1, "b": 2, "c": 3})
		assert.Empty(t, keysOf(t, res.Value))
		require.Len(t, res.Issues, 3)
		for _, issue := range res.Issues {
			assert.Equal(t, CodeUnexpected, issue.Code)
		}

		res = Run(r, []any{1, 2})
		assert.Equal(t, []any{nil, nil}, res.Value)
		assert.Len(t, res.Issues, 2)
	})
}

func TestRepeater_NotIterable(t *testing.T) {
	for _, in := range []any{42, "abc", []byte("abc"), true, 1.5} {
		res := Run(NewRepeater(nil), in)
		assert.Nil(t, res.Value)
		require.Len(t, res.Issues, 1, "input %#v", in)
		assert.Equal(t, CodeWrongType, res.Issues[0].Code)
		assert.Empty(t, res.Issues[0].Path)
	}
}

func TestRepeater_NilPassesThrough(t *testing.T) {
	res := Run(NewRepeater(Int()), nil)
	assert.True(t, res.IsValid())
	assert.Nil(t, res.Value)
}

func TestRepeater_ItemFailures(t *testing.T) {
	res := Run(NewRepeater(Int()), []any{"1", "x", "3", "y"})

	assert.Equal(t, []any{int64(1), nil, int64(3), nil}, res.Value)
	require.Len(t, res.Issues, 2)
	assert.Equal(t, "1", res.Issues[0].Key())
	assert.Equal(t, CodeNotInt, res.Issues[0].Code)
	assert.Equal(t, "3", res.Issues[1].Key())
}

func TestRepeater_Identity(t *testing.T) {
	in := []any{1, "a", nil, map[string]any{"k": "v"}}
	res := Run(NewRepeater(nil), in)
	require.True(t, res.IsValid())
	assert.Equal(t, in, res.Value)
}

func TestRepeater_NestedMapper(t *testing.T) {
	users := NewRepeater(NewMapper([]FieldSpec{
		Field("id", Required(), Int()),
		Field("name", Unicode(), Strip()),
	}, WithMissingKeys(DenyAll())))

	res := Run(users, []any{
		map[string]any{"id": "1", "name": " ann "},
		map[string]any{"name": "bob"},
		map[string]any{"id": "x", "name": "cy"},
	})

	require.Len(t, res.Issues, 2, spew.Sdump(res.Issues))
	assert.Equal(t, []string{"1", "id"}, res.Issues[0].Path)
	assert.Equal(t, CodeMissing, res.Issues[0].Code)
	assert.Equal(t, "id is required.", res.Issues[0].Message)
	assert.Equal(t, []string{"2", "id"}, res.Issues[1].Path)
	assert.Equal(t, CodeNotInt, res.Issues[1].Code)

	out := res.Value.([]any)
	require.Len(t, out, 3)
	assert.Equal(t, "ann", get(t, out[0], "name"))
	assert.Nil(t, get(t, out[1], "id"))
}

func TestRepeater_String(t *testing.T) {
	r := NewRepeater(Normalize(Int(), Min(0)))
	assert.Equal(t, "Repeater(Int | Min(0))", r.String())
	assert.Equal(t, "Repeater(Identity)", NewRepeater(nil).String())
}

func TestRepeater_UnhashableKeyIsRejected(t *testing.T) {
	in := pairMapping{
		keys:   []any{"x", []int{1}},
		values: []any{"1", "2"},
	}

	var res *Result
	require.NotPanics(t, func() { res = Run(NewRepeater(Int()), in) })

	require.Len(t, res.Issues, 1)
	assert.Equal(t, CodeUnexpected, res.Issues[0].Code)
	assert.Equal(t, []string{StringifyKey([]int{1})}, res.Issues[0].Path)
	assert.Equal(t, []any{"x"}, keysOf(t, res.Value))
	assert.Equal(t, int64(1), get(t, res.Value, "x"))
}

type sameLabel struct{ N int }

func (sameLabel) String() string { return "same" }

func TestRepeater_MapOrderIsDeterministic(t *testing.T) {
	in := make(map[sameLabel]int)
	for i := 0; i < 20; i++ {
		in[sameLabel{i}] = i
	}

	first := keysOf(t, Run(NewRepeater(nil), in).Value)
	require.Len(t, first, 20)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, keysOf(t, Run(NewRepeater(nil), in).Value))
	}
}
