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

// Package query declares the boundary between the managers and whatever
// SQL engine backs them. Managers never import database/sql directly;
// they speak Executor and Tx.
package query

import "context"

// Row is one row of a RecordSet: its columns in declaration order,
// string-encoded. A NULL column is represented by a nil string pointer.
type Row []*string

// RecordSet is the result of a single Query: its column names followed
// by zero or more rows.
type RecordSet struct {
	Columns []string
	Rows    []Row
}

// NumRows reports the row count.
func (r *RecordSet) NumRows() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Query is one parameterized statement: Text uses the positional
// placeholder style of the underlying driver's database/sql
// implementation (e.g. "?" for sqlite3/mysql); Args are bound in order.
type Query struct {
	Text string
	Args []interface{}
}

// Q is a convenience constructor for Query.
func Q(text string, args ...interface{}) Query {
	return Query{Text: text, Args: args}
}

// Executor is the external contract the core requires from the SQL
// engine: execute a parameterized statement and obtain transaction
// control. Implementations live under query/sqlstore.
type Executor interface {
	// Begin starts a new transaction and returns a handle scoped to it.
	// Nested Begin on an Executor that does not support nesting is an
	// implementation error, not a core concern.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single transaction's view of the Executor: every statement
// issued against it participates in the same transaction until Commit
// or Rollback is called.
type Tx interface {
	// Exec runs a statement that does not return rows (INSERT/UPDATE/DDL)
	// and reports the last-inserted row id, when the driver supports it.
	Exec(ctx context.Context, q Query) (lastInsertID int64, rowsAffected int64, err error)

	// Query runs a statement that returns rows.
	Query(ctx context.Context, q Query) (*RecordSet, error)

	// Commit finalizes the transaction.
	Commit() error

	// Rollback discards the transaction. Once any statement in the
	// transaction fails, callers must call Rollback and then re-Begin
	// before issuing further statements.
	Rollback() error
}
