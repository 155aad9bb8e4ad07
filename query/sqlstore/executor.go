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

// Package sqlstore is the default query.Executor implementation, backed
// by database/sql. It registers both the sqlite3 and mysql drivers so a
// single binary can talk to either, selected by the driver name supplied
// to Open.
package sqlstore

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	// Register database/sql drivers used by this store.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/utils/log"
)

var (
	openMu sync.Mutex
	opened = make(map[string]*sql.DB)
)

func openDB(driver, dsn string) (*sql.DB, error) {
	openMu.Lock()
	defer openMu.Unlock()

	key := driver + "|" + dsn
	if db, ok := opened[key]; ok {
		return db, nil
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", driver)
	}

	opened[key] = db
	return db, nil
}

// Store is a query.Executor backed by a database/sql.DB.
type Store struct {
	driver string
	dsn    string
	db     *sql.DB
}

// Open opens (or reuses) the database/sql connection pool identified by
// (driver, dsn) and wraps it as a query.Executor.
func Open(driver, dsn string) (*Store, error) {
	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, err
	}

	return &Store{driver: driver, dsn: dsn, db: db}, nil
}

// Driver reports the database/sql driver name this store was opened with.
func (s *Store) Driver() string { return s.driver }

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (query.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	return &sqlTx{tx: tx}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	openMu.Lock()
	defer openMu.Unlock()
	delete(opened, s.driver+"|"+s.dsn)
	return s.db.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, q query.Query) (int64, int64, error) {
	res, err := t.tx.ExecContext(ctx, q.Text, q.Args...)
	if err != nil {
		log.Debugf("sqlstore: exec failed: %s: %v", q.Text, err)
		return 0, 0, errors.Wrap(err, "exec")
	}

	lastID, _ := res.LastInsertId()
	affected, _ := res.RowsAffected()
	return lastID, affected, nil
}

func (t *sqlTx) Query(ctx context.Context, q query.Query) (*query.RecordSet, error) {
	rows, err := t.tx.QueryContext(ctx, q.Text, q.Args...)
	if err != nil {
		log.Debugf("sqlstore: query failed: %s: %v", q.Text, err)
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "columns")
	}

	rs := &query.RecordSet{Columns: cols}
	scanBuf := make([]sql.NullString, len(cols))
	scanArgs := make([]interface{}, len(cols))
	for i := range scanBuf {
		scanArgs[i] = &scanBuf[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		row := make(query.Row, len(cols))
		for i, v := range scanBuf {
			if v.Valid {
				s := v.String
				row[i] = &s
			}
		}
		rs.Rows = append(rs.Rows, row)
	}

	return rs, rows.Err()
}

func (t *sqlTx) Commit() error {
	return errors.Wrap(t.tx.Commit(), "commit")
}

func (t *sqlTx) Rollback() error {
	return errors.Wrap(t.tx.Rollback(), "rollback")
}
