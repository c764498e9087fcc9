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
	"errors"
	"sort"
	"sync"

	"github.com/aaronlmathis/gofilters/filters"
	"gopkg.in/yaml.v3"
)

// Constructor builds a leaf filter from its YAML argument. arg is nil when
// the filter is named without an argument.
type Constructor func(arg *yaml.Node) (filters.Filter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register makes a leaf filter available to schemas under name. Registering
// a name twice replaces the earlier constructor.
func Register(name string, c Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = c
}

// Names returns the registered filter names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// noArg adapts a filter that takes no argument.
func noArg(f func() filters.Filter) Constructor {
	return func(arg *yaml.Node) (filters.Filter, error) {
		if arg != nil && !isNull(arg) {
			return nil, errors.New("takes no argument")
		}
		return f(), nil
	}
}

// decoded adapts a filter whose argument decodes into T.
func decoded[T any](build func(T) (filters.Filter, error)) Constructor {
	return func(arg *yaml.Node) (filters.Filter, error) {
		var v T
		if arg == nil || isNull(arg) {
			return nil, errors.New("requires an argument")
		}
		if err := arg.Decode(&v); err != nil {
			return nil, err
		}
		return build(v)
	}
}

func pure[T any](f func(T) filters.Filter) func(T) (filters.Filter, error) {
	return func(v T) (filters.Filter, error) { return f(v), nil }
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func init() {
	Register("required", noArg(filters.Required))
	Register("not_empty", noArg(filters.NotEmpty))
	Register("unicode", noArg(filters.Unicode))
	Register("strip", noArg(filters.Strip))
	Register("lower", noArg(filters.Lower))
	Register("upper", noArg(filters.Upper))
	Register("int", noArg(filters.Int))
	Register("float", noArg(filters.Float))
	Register("bool", noArg(filters.Bool))
	Register("uuid", noArg(filters.UUID))

	Register("optional", func(arg *yaml.Node) (filters.Filter, error) {
		var def any
		if arg != nil {
			if err := arg.Decode(&def); err != nil {
				return nil, err
			}
		}
		return filters.Optional(def), nil
	})
	Register("choice", decoded(pure(func(choices []any) filters.Filter {
		return filters.Choice(choices...)
	})))
	Register("type", func(arg *yaml.Node) (filters.Filter, error) {
		if arg == nil || isNull(arg) {
			return nil, errors.New("requires an argument")
		}
		var kinds []string
		if arg.Kind == yaml.ScalarNode {
			kinds = []string{arg.Value}
		} else if err := arg.Decode(&kinds); err != nil {
			return nil, err
		}
		ks := make([]filters.Kind, len(kinds))
		for i, k := range kinds {
			ks[i] = filters.Kind(k)
		}
		return filters.Type(ks...), nil
	})
	Register("regex", decoded(filters.Regex))
	Register("min", decoded(pure(filters.Min)))
	Register("max", decoded(pure(filters.Max)))
	Register("min_length", decoded(pure(filters.MinLength)))
	Register("max_length", decoded(pure(filters.MaxLength)))
	Register("date", decoded(pure(filters.Date)))
	Register("expr", decoded(filters.Expr))
	Register("script", decoded(filters.Script))
	Register("jsonschema", func(arg *yaml.Node) (filters.Filter, error) {
		if arg == nil || isNull(arg) {
			return nil, errors.New("requires an argument")
		}
		var doc any
		if err := arg.Decode(&doc); err != nil {
			return nil, err
		}
		return filters.JSONSchema(doc)
	})
}
