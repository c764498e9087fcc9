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
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Code identifies why a value was rejected.
type Code string

const (
	// CodeWrongType is recorded when a value has the wrong shape or type.
	CodeWrongType Code = "wrong_type"
	// CodeUnexpected is recorded for keys or indices rejected by a key policy.
	CodeUnexpected Code = "unexpected"
	// CodeMissing is recorded for declared keys that are absent and required.
	CodeMissing Code = "missing"

	CodeEmpty           Code = "empty"
	CodeNotInt          Code = "not_int"
	CodeNotNumeric      Code = "not_numeric"
	CodeNotBool         Code = "not_bool"
	CodeInvalidChoice   Code = "not_valid_choice"
	CodeMalformed       Code = "malformed"
	CodeTooSmall        Code = "too_small"
	CodeTooBig          Code = "too_big"
	CodeTooShort        Code = "too_short"
	CodeTooLong         Code = "too_long"
	CodeInvalidDate     Code = "invalid_date"
	CodeNotUUID         Code = "not_uuid"
	CodeFailedCheck     Code = "failed_check"
	CodeScriptError     Code = "script_error"
	CodeSchemaViolation Code = "schema_violation"
	CodeInvalid         Code = "invalid"
)

var (
	templatesMu sync.RWMutex
	templates   = map[Code]string{
		CodeWrongType:       "{incoming} is not valid (allowed types: {allowed}).",
		CodeUnexpected:      `Unexpected key "{key}".`,
		CodeMissing:         "{key} is required.",
		CodeEmpty:           "Empty value not allowed.",
		CodeNotInt:          "Integer value expected.",
		CodeNotNumeric:      "Numeric value expected.",
		CodeNotBool:         "Boolean value expected.",
		CodeInvalidChoice:   "Valid options are: {choices}.",
		CodeMalformed:       "Value does not match regular expression {pattern}.",
		CodeTooSmall:        "Value is less than {min}.",
		CodeTooBig:          "Value is greater than {max}.",
		CodeTooShort:        "Value is too short (length must be at least {min}).",
		CodeTooLong:         "Value is too long (length must be at most {max}).",
		CodeInvalidDate:     "This value does not appear to be a date in the format {layout}.",
		CodeNotUUID:         "This value is not a well-formed UUID.",
		CodeFailedCheck:     "Value failed check: {expression}.",
		CodeScriptError:     "Script rejected value: {error}.",
		CodeSchemaViolation: "{error}",
		CodeInvalid:         "{error}",
	}
)

// Template returns the default message template for code.
// Unknown codes render as the code itself.
func Template(code Code) string {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	if t, ok := templates[code]; ok {
		return t
	}
	return string(code)
}

// RegisterTemplate sets the default message template for code. Custom
// filters call it from init to give their codes readable messages.
func RegisterTemplate(code Code, template string) {
	templatesMu.Lock()
	defer templatesMu.Unlock()
	templates[code] = template
}

// Vars holds the values substituted into a message template.
type Vars map[string]any

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// render substitutes {name} placeholders. Unknown names are left as-is.
func render(template string, vars Vars) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		v, ok := vars[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return formatVar(v)
	})
}

func formatVar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = formatVar(p)
		}
		return strings.Join(parts, ", ")
	case nil:
		return "None"
	}
	return fmt.Sprint(v)
}

// Issue is one rejected value.
type Issue struct {
	Code    Code     `json:"code"`
	Message string   `json:"message"`
	Path    []string `json:"path"`
	Value   any      `json:"-"`
	Context Vars     `json:"-"`
}

// Key returns the dot-joined path of the issue. Issues on the root value have
// an empty key.
func (i *Issue) Key() string {
	return strings.Join(i.Path, ".")
}

func (i *Issue) String() string {
	if key := i.Key(); key != "" {
		return key + ": " + i.Message
	}
	return i.Message
}

// ValidationError is returned by Result.Err when a run recorded issues.
type ValidationError struct {
	Issues []*Issue
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "validation failed"
	case 1:
		return "validation failed: " + e.Issues[0].String()
	}
	return fmt.Sprintf("validation failed with %d issues; first: %s", len(e.Issues), e.Issues[0])
}
