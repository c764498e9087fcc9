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

package readers

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeParquet writes three rows of (id int64, name utf8 nullable).
func writeParquet(t *testing.T) string {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2, 3}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"ada", "", "cy"}, []bool{true, false, true})
	rec := b.NewRecord()
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "users.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := pqarrow.NewFileWriter(schema, f, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return path
}

func TestParquetReader(t *testing.T) {
	path := writeParquet(t)
	r, err := NewParquetReader(path, WithParquetBatchSize(2))
	require.NoError(t, err)
	defer r.Close()

	ctx := context.Background()
	var ids []interface{}
	var names []interface{}
	for {
		rec, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		ids = append(ids, rec["id"])
		names = append(names, rec["name"])
	}
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, ids)
	assert.Equal(t, []interface{}{"ada", nil, "cy"}, names)
	assert.Equal(t, int64(3), r.Stats().RecordsRead)
}

func TestParquetReader_Columns(t *testing.T) {
	path := writeParquet(t)
	r, err := NewParquetReader(path, WithParquetColumns("name"))
	require.NoError(t, err)
	defer r.Close()

	rec, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada", rec["name"])
	_, ok := rec["id"]
	assert.False(t, ok)

	_, err = NewParquetReader(path, WithParquetColumns("nope"))
	assert.Error(t, err)
}

func TestInspectParquet(t *testing.T) {
	info, err := InspectParquet(writeParquet(t))
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Rows)
	assert.Equal(t, 1, info.RowGroups)
	assert.Equal(t, []int64{3}, info.RowGroupRows)
	require.Len(t, info.Columns, 2)
	assert.Equal(t, "id int64", info.Columns[0].String())
	assert.Equal(t, "name utf8 (nullable)", info.Columns[1].String())

	_, err = InspectParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	var perr *ParquetReaderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "open_file", perr.Op)
}
