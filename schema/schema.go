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

package schema

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/aaronlmathis/gofilters/filters"
	"gopkg.in/yaml.v3"
)

// Package schema compiles declarative YAML (or JSON) documents into filters.
//
// A filter spec is one of:
//
//	int                          # a registered leaf filter without argument
//	{min: 18}                    # a leaf filter with its argument
//	[unicode, strip, lower]      # a chain, applied left to right
//	{repeat: <spec>, restrict: [0, 1]}  # integers also match string keys "0", "1"
//	{map: {<key>: <spec>, ...}, missing: allow|deny|[keys], extra: allow|deny|[keys]}
//
// A field whose spec is empty only requires the key to be present. Mapping
// field order is preserved. The document is either a spec, or a mapping with
// a "filter" spec and optional "messages" overriding templates per code:
//
//	filter:
//	  map:
//	    id: [required, int]
//	    email: [unicode, strip, lower]
//	  extra: deny
//	messages:
//	  missing: "{key} must be provided"

// Schema is a compiled schema document.
type Schema struct {
	Filter   filters.Filter
	Messages map[filters.Code]string
}

// Runner returns a runner applying the schema's filter with its messages.
func (s *Schema) Runner() *filters.Runner {
	return filters.NewRunner(s.Filter, filters.WithMessages(s.Messages))
}

// Error reports a problem at a position in a schema document.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return "schema: " + e.Msg
	}
	return fmt.Sprintf("schema line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func errorAt(n *yaml.Node, format string, args ...any) *Error {
	return &Error{Line: n.Line, Column: n.Column, Msg: fmt.Sprintf(format, args...)}
}

// Load reads and compiles the schema file at path.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse compiles a schema document.
func Parse(data []byte) (*Schema, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &Error{Msg: "empty document"}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Msg: err.Error()}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	spec, messages := root, (*yaml.Node)(nil)
	if root.Kind == yaml.MappingNode {
		if f := child(root, "filter"); f != nil {
			for i := 0; i < len(root.Content); i += 2 {
				switch k := root.Content[i]; k.Value {
				case "filter", "version":
				case "messages":
					messages = root.Content[i+1]
				default:
					return nil, errorAt(k, "unknown document key %q", k.Value)
				}
			}
			spec = f
		}
	}

	f, err := Compile(spec)
	if err != nil {
		return nil, err
	}
	s := &Schema{Filter: f}
	if messages != nil {
		var m map[string]string
		if err := messages.Decode(&m); err != nil {
			return nil, errorAt(messages, "messages: %v", err)
		}
		s.Messages = make(map[filters.Code]string, len(m))
		for code, tmpl := range m {
			s.Messages[filters.Code(code)] = tmpl
		}
	}
	return s, nil
}

// Compile builds the filter described by a spec node.
func Compile(n *yaml.Node) (filters.Filter, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return filters.Normalize(), nil
		}
		return Compile(n.Content[0])
	case yaml.AliasNode:
		return Compile(n.Alias)
	case yaml.ScalarNode:
		if isNull(n) {
			return filters.Normalize(), nil
		}
		return leaf(n, n.Value, nil)
	case yaml.SequenceNode:
		chain := make([]filters.Filter, 0, len(n.Content))
		for _, item := range n.Content {
			f, err := Compile(item)
			if err != nil {
				return nil, err
			}
			chain = append(chain, f)
		}
		return filters.Normalize(chain...), nil
	case yaml.MappingNode:
		switch {
		case child(n, "repeat") != nil:
			return compileRepeater(n)
		case child(n, "map") != nil:
			return compileMapper(n)
		case len(n.Content) == 2:
			return leaf(n.Content[0], n.Content[0].Value, n.Content[1])
		}
		return nil, errorAt(n, "expected a single filter name, \"repeat\" or \"map\"")
	}
	return nil, errorAt(n, "unsupported node")
}

func leaf(at *yaml.Node, name string, arg *yaml.Node) (filters.Filter, error) {
	c, ok := lookup(name)
	if !ok {
		return nil, errorAt(at, "unknown filter %q", name)
	}
	f, err := c(arg)
	if err != nil {
		return nil, errorAt(at, "%s: %v", name, err)
	}
	return f, nil
}

func compileRepeater(n *yaml.Node) (filters.Filter, error) {
	var (
		chain filters.Filter
		opts  []filters.RepeaterOption
	)
	for i := 0; i < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "repeat":
			f, err := Compile(v)
			if err != nil {
				return nil, err
			}
			chain = f
		case "restrict":
			var keys []any
			if err := v.Decode(&keys); err != nil {
				return nil, errorAt(v, "restrict: %v", err)
			}
			opts = append(opts, filters.WithRestrictedKeys(restrictKeys(keys)...))
		default:
			return nil, errorAt(k, "unknown repeat option %q", k.Value)
		}
	}
	return filters.NewRepeater(chain, opts...), nil
}

// restrictKeys adds the decimal string form of every integer key, so that
// restrict: [1] admits index 1 of a sequence and key "1" of a JSON object.
func restrictKeys(keys []any) []any {
	out := append([]any(nil), keys...)
	for _, k := range keys {
		if n, ok := k.(int); ok {
			out = append(out, strconv.Itoa(n))
		}
	}
	return out
}

func compileMapper(n *yaml.Node) (filters.Filter, error) {
	var (
		fields []filters.FieldSpec
		opts   []filters.MapperOption
	)
	for i := 0; i < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "map":
			if v.Kind != yaml.MappingNode {
				if !isNull(v) {
					return nil, errorAt(v, "map: expected a mapping of fields")
				}
				continue
			}
			for j := 0; j < len(v.Content); j += 2 {
				f, err := Compile(v.Content[j+1])
				if err != nil {
					return nil, err
				}
				fields = append(fields, filters.Field(v.Content[j].Value, f))
			}
		case "missing", "extra":
			p, err := policy(v)
			if err != nil {
				return nil, err
			}
			if k.Value == "missing" {
				opts = append(opts, filters.WithMissingKeys(p))
			} else {
				opts = append(opts, filters.WithExtraKeys(p))
			}
		default:
			return nil, errorAt(k, "unknown map option %q", k.Value)
		}
	}
	return filters.NewMapper(fields, opts...), nil
}

// policy decodes allow/deny/true/false or a list of keys.
func policy(n *yaml.Node) (filters.KeyPolicy, error) {
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "allow", "true", "all":
			return filters.AllowAll(), nil
		case "deny", "false", "none":
			return filters.DenyAll(), nil
		}
		return filters.KeyPolicy{}, errorAt(n, "invalid key policy %q", n.Value)
	}
	var keys []string
	if err := n.Decode(&keys); err != nil {
		return filters.KeyPolicy{}, errorAt(n, "key policy: %v", err)
	}
	anyKeys := make([]any, len(keys))
	for i, k := range keys {
		anyKeys[i] = k
	}
	return filters.AllowOnly(anyKeys...), nil
}

// child returns the value node for key in a mapping node.
func child(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
