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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
)

// Package readers provides implementations of core.DataSource for reading data from various sources.
//
// Nested objects are decoded as *filters.OrderedMap so validation issues and
// cleaned output follow the key order of the input document.

// decodeOrdered decodes one JSON value from dec. Objects become
// *filters.OrderedMap and arrays become []interface{}. Numbers are json.Number
// when dec.UseNumber was called and float64 otherwise.
func decodeOrdered(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		m := filters.NewOrderedMap()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T", kt)
			}
			v, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return m, nil
	case '[':
		s := make([]interface{}, 0)
		for dec.More() {
			v, err := decodeOrdered(dec)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unexpected delimiter %q", delim)
}

// decodeDocument decodes data holding exactly one JSON value.
func decodeDocument(data []byte, useNumber bool) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if useNumber {
		dec.UseNumber()
	}
	v, err := decodeOrdered(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// decodeRecord decodes a JSON object into a record. The top level loses its
// key order; nested objects keep theirs.
func decodeRecord(data []byte, useNumber bool) (core.Record, error) {
	v, err := decodeDocument(data, useNumber)
	if err != nil {
		return nil, err
	}
	m, ok := v.(*filters.OrderedMap)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return orderedToRecord(m), nil
}

func orderedToRecord(m *filters.OrderedMap) core.Record {
	rec := make(core.Record, m.Len())
	for p := m.Oldest(); p != nil; p = p.Next() {
		rec[filters.StringifyKey(p.Key)] = p.Value
	}
	return rec
}
