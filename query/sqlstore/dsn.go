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

package sqlstore

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// DSN represents a sqlite connection string, split into the file name and
// its query parameters so individual parameters (like cache=shared for an
// in-memory test database) can be toggled without re-parsing the string.
type DSN struct {
	filename string
	params   map[string]string
}

// NewDSN parses the given string and returns a DSN.
func NewDSN(s string) (*DSN, error) {
	parts := strings.SplitN(s, "?", 2)

	dsn := &DSN{
		filename: strings.TrimPrefix(parts[0], "file:"),
		params:   make(map[string]string),
	}

	if len(parts) < 2 {
		return dsn, nil
	}

	for _, v := range strings.Split(parts[1], "&") {
		param := strings.SplitN(v, "=", 2)

		if len(param) != 2 {
			return nil, fmt.Errorf("unrecognized parameter: %s", v)
		}

		dsn.params[param[0]] = param[1]
	}

	return dsn, nil
}

// Format formats DSN to a connection string accepted by sql.Open("sqlite3", ...).
func (dsn *DSN) Format() string {
	l := len(dsn.params)

	if l <= 0 {
		return fmt.Sprintf("file:%s", dsn.filename)
	}

	params := make([]string, 0, l)

	for k, v := range dsn.params {
		params = append(params, strings.Join([]string{k, v}, "="))
	}

	return fmt.Sprintf("file:%s?%s", dsn.filename, strings.Join(params, "&"))
}

// SetFileName sets the sqlite database file name of DSN.
func (dsn *DSN) SetFileName(fn string) { dsn.filename = fn }

// GetFileName gets the sqlite database file name of DSN.
func (dsn *DSN) GetFileName() string { return dsn.filename }

// AddParam adds a key:value DSN parameter; an empty value removes it.
func (dsn *DSN) AddParam(key, value string) {
	if dsn.params == nil {
		dsn.params = make(map[string]string)
	}

	if value == "" {
		delete(dsn.params, key)
	} else {
		dsn.params[key] = value
	}
}

// GetParam gets the value of a DSN parameter.
func (dsn *DSN) GetParam(key string) (value string, ok bool) {
	value, ok = dsn.params[key]
	return
}

// Clone returns a copy of dsn.
func (dsn *DSN) Clone() (copy *DSN) {
	copy = &DSN{}
	copy.filename = dsn.filename
	copy.params = make(map[string]string, len(dsn.params))

	for k, v := range dsn.params {
		copy.params[k] = v
	}

	return
}

// inMemorySeq numbers the named databases handed out by InMemoryDSN.
var inMemorySeq uint64

// InMemoryDSN returns a DSN string for a shared in-memory sqlite database,
// used by manager and facade tests that need a throwaway store per run.
// A non-empty name yields a distinct database on every call (name plus a
// sequence number); an empty name yields the single unnamed
// "file::memory:?cache=shared" database.
func InMemoryDSN(name string) string {
	dsn := &DSN{filename: ":memory:", params: map[string]string{"cache": "shared"}}
	if name != "" {
		dsn.filename = fmt.Sprintf("%s-%d", name, atomic.AddUint64(&inMemorySeq, 1))
		dsn.AddParam("mode", "memory")
	}
	return dsn.Format()
}
