/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import "strconv"

// MustParseInt64 parses a query.Row column into an int64, panicking on a
// malformed value. Managers only call it on columns they themselves
// declared as INTEGER, so a parse failure indicates store corruption
// rather than bad input and is not worth a recoverable error path.
func MustParseInt64(s *string) int64 {
	if s == nil {
		return 0
	}
	v, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		panic("utils: malformed integer column: " + *s)
	}
	return v
}

// MustParseInt is MustParseInt64 truncated to int, for columns used as
// small enums (type_kind, data_type, event type).
func MustParseInt(s *string) int {
	return int(MustParseInt64(s))
}

// MustParseFloat64 parses a query.Row column into a float64.
func MustParseFloat64(s *string) float64 {
	if s == nil {
		return 0
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		panic("utils: malformed float column: " + *s)
	}
	return v
}

// StringOrEmpty dereferences s, or returns "" for a NULL column.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BlobOrNil converts a query.Row column holding a driver-stringified
// BLOB back into a byte slice, or nil for a NULL column.
func BlobOrNil(s *string) []byte {
	if s == nil || *s == "" {
		return nil
	}
	return []byte(*s)
}
