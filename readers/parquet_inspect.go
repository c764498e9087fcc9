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
	"fmt"
	"os"

	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet/file"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
)

// ParquetColumn describes one top-level Arrow field of a Parquet file.
type ParquetColumn struct {
	Name     string
	Type     string
	Nullable bool
}

// ParquetInfo summarizes a Parquet file. It is used to write a schema for
// records read by ParquetReader.
type ParquetInfo struct {
	Rows      int64
	RowGroups int
	// RowGroupRows holds the row count of each row group.
	RowGroupRows []int64
	Columns      []ParquetColumn
}

// InspectParquet reads the metadata and Arrow schema of a Parquet file.
func InspectParquet(filename string) (*ParquetInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParquetReaderError{Op: "open_file", Err: err}
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, &ParquetReaderError{Op: "create_reader", Err: err}
	}
	defer pf.Close()

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, &ParquetReaderError{Op: "create_arrow_reader", Err: err}
	}
	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, &ParquetReaderError{Op: "get_schema", Err: err}
	}

	info := &ParquetInfo{
		Rows:      pf.NumRows(),
		RowGroups: pf.NumRowGroups(),
	}
	for i := 0; i < pf.NumRowGroups(); i++ {
		info.RowGroupRows = append(info.RowGroupRows, pf.RowGroup(i).NumRows())
	}
	for _, field := range schema.Fields() {
		info.Columns = append(info.Columns, ParquetColumn{
			Name:     field.Name,
			Type:     field.Type.String(),
			Nullable: field.Nullable,
		})
	}
	return info, nil
}

func (c ParquetColumn) String() string {
	if c.Nullable {
		return fmt.Sprintf("%s %s (nullable)", c.Name, c.Type)
	}
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}
