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
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// Script runs a JavaScript function named filter against the value, passed
// in its Plain form. The function's return value replaces the value;
// returning undefined keeps it. A thrown exception rejects the value with
// CodeScriptError.
//
//	function filter(value) {
//	    if (value.length > 64) throw new Error("name too long");
//	    return value.trim();
//	}
//
// Calls are serialized on one JavaScript runtime.
func Script(source string) (Filter, error) {
	vm := goja.New()
	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("script filter: %w", err)
	}
	fn, ok := goja.AssertFunction(vm.Get("filter"))
	if !ok {
		return nil, errors.New("script filter: script must define function filter(value)")
	}
	return &scriptFilter{vm: vm, fn: fn}, nil
}

type scriptFilter struct {
	mu sync.Mutex
	vm *goja.Runtime
	fn goja.Callable
}

func (f *scriptFilter) Apply(s *Scope, value any) any {
	f.mu.Lock()
	res, err := f.fn(goja.Undefined(), f.vm.ToValue(Plain(value)))
	var out any
	undefined := err == nil && goja.IsUndefined(res)
	if err == nil && !undefined {
		out = res.Export()
	}
	f.mu.Unlock()

	if err != nil {
		msg := err.Error()
		var exc *goja.Exception
		if errors.As(err, &exc) {
			msg = exc.Value().String()
		}
		return s.Invalid(value, CodeScriptError, Vars{"error": msg})
	}
	if undefined {
		return value
	}
	return out
}

func (f *scriptFilter) String() string { return "Script" }
