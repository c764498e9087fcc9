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
	"reflect"
	"sort"
	"strings"
)

type policyKind uint8

const (
	policyAllowAll policyKind = iota
	policyDenyAll
	policyAllowOnly
)

// KeyPolicy decides which keys are admitted. The zero KeyPolicy admits every
// key.
type KeyPolicy struct {
	kind policyKind
	keys map[any]struct{}
}

// AllowAll admits every key.
func AllowAll() KeyPolicy {
	return KeyPolicy{kind: policyAllowAll}
}

// DenyAll admits no key.
func DenyAll() KeyPolicy {
	return KeyPolicy{kind: policyDenyAll}
}

// AllowOnly admits exactly the given keys. An empty set admits nothing.
// It panics if a key is not comparable.
func AllowOnly(keys ...any) KeyPolicy {
	set := make(map[any]struct{}, len(keys))
	for _, k := range keys {
		mustComparable(k, "AllowOnly")
		set[k] = struct{}{}
	}
	return KeyPolicy{kind: policyAllowOnly, keys: set}
}

// Allows reports whether key is admitted. A key that cannot be compared
// against the set is not admitted.
func (p KeyPolicy) Allows(key any) (ok bool) {
	switch p.kind {
	case policyAllowAll:
		return true
	case policyDenyAll:
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_, ok = p.keys[key]
	return ok
}

func (p KeyPolicy) String() string {
	switch p.kind {
	case policyAllowAll:
		return "AllowAll"
	case policyDenyAll:
		return "DenyAll"
	}
	labels := make([]string, 0, len(p.keys))
	for k := range p.keys {
		labels = append(labels, StringifyKey(k))
	}
	sort.Strings(labels)
	return "AllowOnly(" + strings.Join(labels, ", ") + ")"
}

func mustComparable(key any, where string) {
	if key != nil && !reflect.TypeOf(key).Comparable() {
		panic(fmt.Sprintf("filters: %s: key %#v of type %T is not comparable", where, key, key))
	}
}
