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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Expr evaluates an expr-lang expression against the value, available to the
// expression as "value" in its Plain form.
//
// A boolean result accepts (true) or rejects (false, CodeFailedCheck) the
// value unchanged. Any other result replaces the value. Evaluation errors
// reject the value with CodeInvalid.
//
//	filters.Expr(`value >= 18 && value < 130`)
//	filters.Expr(`trim(lower(value))`)
func Expr(expression string) (Filter, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("expr filter %q: %w", expression, err)
	}
	return &exprFilter{source: expression, program: program}, nil
}

// MustExpr is like Expr but panics if expression does not compile.
func MustExpr(expression string) Filter {
	f, err := Expr(expression)
	if err != nil {
		panic(err)
	}
	return f
}

type exprFilter struct {
	source  string
	program *vm.Program
}

func (f *exprFilter) Apply(s *Scope, value any) any {
	out, err := expr.Run(f.program, map[string]any{"value": Plain(value)})
	if err != nil {
		return s.Invalid(value, CodeInvalid, Vars{"error": err.Error()})
	}
	if ok, isBool := out.(bool); isBool {
		if !ok {
			return s.Invalid(value, CodeFailedCheck, Vars{"expression": f.source})
		}
		return value
	}
	return out
}

func (f *exprFilter) String() string {
	return fmt.Sprintf("Expr(%q)", f.source)
}
