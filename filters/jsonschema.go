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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const inlineSchemaURL = "https://gofilters.local/schemas/inline.json"

// JSONSchema validates values against a JSON Schema document. doc is either
// JSON text (string or []byte) or an already decoded document.
//
// Each violation is recorded with CodeSchemaViolation at the path of the
// offending member below the current scope. A conforming value is returned
// unchanged.
func JSONSchema(doc any) (Filter, error) {
	if raw, ok := doc.(string); ok {
		doc = []byte(raw)
	}
	if raw, ok := doc.([]byte); ok {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("jsonschema filter: failed to parse schema: %w", err)
		}
		doc = parsed
	} else {
		doc = Plain(doc)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(inlineSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("jsonschema filter: failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile(inlineSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("jsonschema filter: failed to compile schema: %w", err)
	}
	return &schemaFilter{schema: schema}, nil
}

type schemaFilter struct {
	schema *jsonschema.Schema
}

func (f *schemaFilter) Apply(s *Scope, value any) any {
	err := f.schema.Validate(Plain(value))
	if err == nil {
		return value
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return s.Invalid(value, CodeSchemaViolation, Vars{"error": err.Error()})
	}
	for _, leaf := range violations(verr) {
		s.At(leaf.InstanceLocation...).Invalid(value, CodeSchemaViolation, Vars{"error": violationMessage(leaf)})
	}
	if !s.Failed() {
		s.Invalid(value, CodeSchemaViolation, Vars{"error": verr.Error()})
	}
	return nil
}

func (f *schemaFilter) String() string { return "JSONSchema" }

// violations returns the leaf errors of a validation error tree.
func violations(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, violations(cause)...)
	}
	return out
}

// violationMessage drops the "at '<pointer>': " prefix; the location is
// already part of the issue path.
func violationMessage(err *jsonschema.ValidationError) string {
	msg := err.Error()
	if strings.HasPrefix(msg, "at ") {
		if i := strings.Index(msg, ": "); i >= 0 {
			return msg[i+2:]
		}
	}
	return msg
}
