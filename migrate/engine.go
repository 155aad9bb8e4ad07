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

// Package migrate implements the Migration Engine: it reads the stored
// schema version, decides whether the store is fresh, current, corrupt,
// or in need of an upgrade or downgrade, and carries out the chosen path
// one version at a time against the Schema Registry's scripts.
package migrate

import (
	"context"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/schema"
	"github.com/covenant-labs/mlmd-core/utils/log"
)

// Engine runs migrations against an Executor using the static Schema
// Registry.
type Engine struct {
	executor query.Executor
}

// New builds a Migration Engine over executor.
func New(executor query.Executor) *Engine {
	return &Engine{executor: executor}
}

// GetSchemaVersion reads the stored schema_version, or 0 if the store has
// no Environment table (the historical layout, or an empty store).
func (e *Engine) GetSchemaVersion(ctx context.Context) (int, error) {
	tx, err := e.executor.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	v, err := readVersion(ctx, tx)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// GetLibraryVersion returns the highest version this binary can produce.
func (e *Engine) GetLibraryVersion() int {
	return schema.LibraryVersion
}

func readVersion(ctx context.Context, tx query.Tx) (int, error) {
	hasEnv, err := tableExists(ctx, tx, "MLMDEnv")
	if err != nil {
		return 0, err
	}
	if !hasEnv {
		return 0, nil
	}

	rs, err := tx.Query(ctx, query.Q("SELECT `schema_version` FROM `MLMDEnv`"))
	if err != nil {
		return 0, pkgerrors.Wrap(err, "read schema_version")
	}
	if rs.NumRows() == 0 {
		return 0, mlmderrors.Aborted("MLMDEnv table exists but has no row")
	}
	return strconv.Atoi(*rs.Rows[0][0])
}

func tableExists(ctx context.Context, tx query.Tx, table string) (bool, error) {
	rs, err := tx.Query(ctx, query.Q(
		"SELECT `name` FROM `sqlite_master` WHERE `type` = 'table' AND `name` = ?", table))
	if err != nil {
		return false, pkgerrors.Wrapf(err, "check table %s", table)
	}
	return rs.NumRows() > 0, nil
}

func allTablesExist(ctx context.Context, tx query.Tx, tables []string) (bool, error) {
	for _, t := range tables {
		ok, err := tableExists(ctx, tx, t)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func runScripts(ctx context.Context, tx query.Tx, scripts []string) error {
	for _, q := range scripts {
		if _, _, err := tx.Exec(ctx, query.Q(q)); err != nil {
			return pkgerrors.Wrapf(err, "run migration script %q", q)
		}
	}
	return nil
}

// InitMetadataSourceIfNotExists runs the §4.6 Init protocol: a fresh
// store is created at the library version; a store already at the
// library version is verified for table completeness; a store behind
// the library version is upgraded one version at a time when
// enableUpgradeMigration is set, and rejected with FAILED_PRECONDITION
// otherwise; a store ahead of the library version is always rejected.
func (e *Engine) InitMetadataSourceIfNotExists(ctx context.Context, enableUpgradeMigration bool) error {
	tx, err := e.executor.Begin(ctx)
	if err != nil {
		return err
	}

	hasEnv, err := tableExists(ctx, tx, "MLMDEnv")
	if err != nil {
		tx.Rollback()
		return err
	}

	if !hasEnv {
		anyDataTable, err := e.anyV0TableExists(ctx, tx)
		if err != nil {
			tx.Rollback()
			return err
		}
		if !anyDataTable {
			// Fresh database: build it straight at the library version.
			ddl, _ := schema.DDL(schema.LibraryVersion)
			if err := runScripts(ctx, tx, ddl); err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return err
			}
			log.Infof("migrate: initialized fresh store at schema_version=%d", schema.LibraryVersion)
			return nil
		}
		// Recognizable data tables but no MLMDEnv: historical version 0.
		tx.Rollback()
		return e.initFromVersion(ctx, 0, enableUpgradeMigration)
	}

	stored, err := readVersion(ctx, tx)
	tx.Rollback()
	if err != nil {
		return err
	}
	return e.initFromVersion(ctx, stored, enableUpgradeMigration)
}

func (e *Engine) anyV0TableExists(ctx context.Context, tx query.Tx) (bool, error) {
	tables, _ := schema.RequiredTables(0)
	for _, t := range tables {
		ok, err := tableExists(ctx, tx, t)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) initFromVersion(ctx context.Context, stored int, enableUpgradeMigration bool) error {
	library := schema.LibraryVersion

	switch {
	case stored == library:
		return e.verifyComplete(ctx, stored)
	case stored > library:
		return mlmderrors.FailedPrecondition(
			"stored schema_version %d is newer than library version %d", stored, library)
	case stored < library && !enableUpgradeMigration:
		return mlmderrors.FailedPrecondition(
			"stored schema_version %d is older than library version %d and upgrade migration is disabled",
			stored, library)
	default:
		return e.upgradeTo(ctx, stored, library)
	}
}

func (e *Engine) verifyComplete(ctx context.Context, version int) error {
	tx, err := e.executor.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables, _ := schema.RequiredTables(version)
	ok, err := allTablesExist(ctx, tx, tables)
	if err != nil {
		return err
	}
	if !ok {
		return mlmderrors.Aborted("store at schema_version %d is missing required tables", version)
	}
	return nil
}

func (e *Engine) upgradeTo(ctx context.Context, from, to int) error {
	for v := from + 1; v <= to; v++ {
		scripts, ok := schema.Upgrade(v)
		if !ok {
			return mlmderrors.Internal("no registered upgrade path to schema_version %d", v)
		}

		tx, err := e.executor.Begin(ctx)
		if err != nil {
			return err
		}
		if err := runScripts(ctx, tx, scripts); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.Infof("migrate: upgraded store to schema_version=%d", v)
	}
	return nil
}

// InitMetadataSource applies the library version's DDL to the store as it
// is. Tables that already exist are kept; if any DDL statement fails (for
// example the ALTER TABLE that adds the Type signature columns, on a store
// whose Type table already has them), nothing is applied and ABORTED is
// returned.
func (e *Engine) InitMetadataSource(ctx context.Context) error {
	ddl, _ := schema.DDL(schema.LibraryVersion)

	tx, err := e.executor.Begin(ctx)
	if err != nil {
		return err
	}
	if err := runScripts(ctx, tx, ddl); err != nil {
		tx.Rollback()
		return mlmderrors.Aborted("forced init could not apply library schema: %v", err)
	}
	return tx.Commit()
}

// DowngradeMetadataSource runs the §4.6 Downgrade protocol: steps from
// the current stored version down to toVersion, one registry-declared
// downgrade script at a time.
func (e *Engine) DowngradeMetadataSource(ctx context.Context, toVersion int) error {
	if toVersion < schema.MinimumVersion || toVersion > schema.LibraryVersion {
		return mlmderrors.InvalidArgument(
			"downgrade target %d is outside the supported range [%d, %d]",
			toVersion, schema.MinimumVersion, schema.LibraryVersion)
	}

	current, err := e.GetSchemaVersion(ctx)
	if err != nil {
		return err
	}

	if current == 0 {
		return mlmderrors.InvalidArgument("cannot downgrade an uninitialized store")
	}

	for v := current; v > toVersion; v-- {
		scripts, ok := schema.Downgrade(v)
		if !ok {
			return mlmderrors.Internal("no registered downgrade path from schema_version %d", v)
		}

		tx, err := e.executor.Begin(ctx)
		if err != nil {
			return err
		}
		if err := runScripts(ctx, tx, scripts); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.Infof("migrate: downgraded store to schema_version=%d", v-1)
	}
	return nil
}
