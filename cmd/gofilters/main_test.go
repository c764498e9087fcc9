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

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersSchema = `
filter:
  map:
    id: [required, int]
    email: [required, unicode, strip, lower]
  extra: deny
messages:
  not_int: "{key} must be a whole number"
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "gofilters dev")
	assert.Contains(t, stdout, "commit unknown")
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)

	code, stdout, _ := runCLI(t, "check", schemaPath)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "Mapper(")
	assert.Contains(t, stdout, "id=Required | Int")

	code, stdout, _ = runCLI(t, "--verbose", "check", schemaPath)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "message overrides: not_int")
}

func TestCheckCommandErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "map:\n  id: no_such_filter\n")

	code, _, stderr := runCLI(t, "check", bad)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Error:")

	code, _, _ = runCLI(t, "check", filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, ExitError, code)

	code, _, _ = runCLI(t, "check")
	assert.Equal(t, ExitError, code)
}

func TestValidateAllValid(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl",
		`{"id": "1", "email": "  Ada@Example.com "}`+"\n"+
			`{"id": 2, "email": "bob@example.com"}`+"\n")
	out := filepath.Join(dir, "clean.jsonl")

	code, stdout, stderr := runCLI(t, "validate", "--schema", schemaPath, "--input", input, "--out", out)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "read 2, valid 2, rejected 0")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := nonEmptyLines(string(data))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"email":"ada@example.com"`)
	assert.Contains(t, lines[0], `"id":1`)
}

func TestValidateWithRejects(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl",
		`{"id": 1, "email": "a@example.com"}`+"\n"+
			`{"id": "x", "email": "b@example.com"}`+"\n"+
			`{"id": 3, "email": "c@example.com", "admin": true}`+"\n")
	out := filepath.Join(dir, "clean.jsonl")
	rejects := filepath.Join(dir, "rejects.jsonl")

	code, stdout, stderr := runCLI(t, "validate", "-s", schemaPath, "-i", input, "-o", out, "-r", rejects)
	require.Equal(t, ExitRejects, code, stderr)
	assert.Contains(t, stdout, "read 3, valid 1, rejected 2")
	assert.Contains(t, stdout, "not_int")
	assert.Contains(t, stdout, "unexpected")

	data, err := os.ReadFile(rejects)
	require.NoError(t, err)
	lines := nonEmptyLines(string(data))
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "id must be a whole number")
	assert.Contains(t, lines[1], `Unexpected key \"admin\".`)
}

func TestValidateQuietAndSelect(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl", `{"id": 1, "email": "a@example.com", "admin": true}`+"\n")

	code, stdout, stderr := runCLI(t, "-q", "validate", "-s", schemaPath, "-i", input, "--select", "id,email")
	assert.Equal(t, ExitSuccess, code, stderr)
	assert.Empty(t, stdout)
}

func TestValidateFailFast(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl",
		`{"id": "x", "email": "a@example.com"}`+"\n"+
			`{"id": 2, "email": "b@example.com"}`+"\n")

	code, stdout, stderr := runCLI(t, "validate", "-s", schemaPath, "-i", input, "--strategy", "fail")
	assert.Equal(t, ExitRejects, code)
	assert.Contains(t, stderr, "validation failed")
	assert.Contains(t, stdout, "read 1, valid 0, rejected 1")
}

func TestValidateDump(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl", `{"id": 7, "email": "A@B.C"}`+"\n")

	code, _, stderr := runCLI(t, "-q", "validate", "-s", schemaPath, "-i", input, "--dump")
	assert.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "a@b.c")
}

func TestValidateQualityGate(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl", `{"id": 1, "email": "a@example.com"}`+"\n")

	code, _, stderr := runCLI(t, "-q", "validate", "-s", schemaPath, "-i", input, "--min-records", "2")
	assert.Equal(t, ExitRejects, code)
	assert.Contains(t, stderr, "insufficient records: got 1, need at least 2")

	code, _, stderr = runCLI(t, "-q", "validate", "-s", schemaPath, "-i", input, "--min-records", "1", "--require-field", "id")
	assert.Equal(t, ExitSuccess, code, stderr)
}

func TestInspectCommandMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "inspect", filepath.Join(t.TempDir(), "none.parquet"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "open_file")
}

func TestValidateUsageErrors(t *testing.T) {
	dir := t.TempDir()
	schemaPath := writeFile(t, dir, "users.yaml", usersSchema)
	input := writeFile(t, dir, "users.jsonl", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing schema", []string{"validate", "-i", input}, "schema"},
		{"bad strategy", []string{"validate", "-s", schemaPath, "-i", input, "--strategy", "retry"}, "retry"},
		{"bad format", []string{"validate", "-s", schemaPath, "-i", input, "--format", "xml"}, "xml"},
		{"bad scheme", []string{"validate", "-s", schemaPath, "-i", "ftp://host/file"}, "ftp"},
		{"missing input", []string{"validate", "-s", schemaPath, "-i", filepath.Join(dir, "nope.jsonl")}, "open input"},
		{"unknown command", []string{"frobnicate"}, "frobnicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, ExitError, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}
