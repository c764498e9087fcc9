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
	"strings"

	"github.com/google/uuid"
)

// UUID parses strings and 16-byte slices into uuid.UUID.
func UUID() Filter {
	return newLeaf("UUID", func(s *Scope, value any) any {
		switch v := value.(type) {
		case uuid.UUID:
			return v
		case string:
			id, err := uuid.Parse(strings.TrimSpace(v))
			if err != nil {
				return s.Invalid(value, CodeNotUUID, nil)
			}
			return id
		case []byte:
			id, err := uuid.FromBytes(v)
			if err != nil {
				return s.Invalid(value, CodeNotUUID, nil)
			}
			return id
		}
		return s.Invalid(value, CodeWrongType, Vars{"incoming": typeName(value), "allowed": "string, uuid"})
	})
}
