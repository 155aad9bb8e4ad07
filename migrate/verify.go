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

package migrate

import (
	"context"
	"strconv"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/schema"
)

// VerifyUpgrade exercises the §4.6 verification protocol for upgrading
// into version: it runs the registered setup queries, then the upgrade
// scripts, then asserts every post-migration verification query returns
// a single truthy row. Used by schema round-trip tests, not by the
// running Init path.
func (e *Engine) VerifyUpgrade(ctx context.Context, version int) error {
	v, ok := schema.UpgradeVerification(version)
	if !ok {
		return mlmderrors.Internal("no upgrade verification registered for schema_version %d", version)
	}
	return e.runVerification(ctx, version, true, v)
}

// VerifyDowngrade is the downgrade counterpart of VerifyUpgrade.
func (e *Engine) VerifyDowngrade(ctx context.Context, version int) error {
	v, ok := schema.DowngradeVerification(version)
	if !ok {
		return mlmderrors.Internal("no downgrade verification registered for schema_version %d", version)
	}
	return e.runVerification(ctx, version, false, v)
}

func (e *Engine) runVerification(ctx context.Context, version int, upgrade bool, v *schema.Verification) error {
	tx, err := e.executor.Begin(ctx)
	if err != nil {
		return err
	}
	if err := runScripts(ctx, tx, v.PreviousVersionSetupQueries); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	var scripts []string
	var ok bool
	if upgrade {
		scripts, ok = schema.Upgrade(version)
	} else {
		scripts, ok = schema.Downgrade(version)
	}
	if !ok {
		return mlmderrors.Internal("no migration script registered for schema_version %d", version)
	}

	tx, err = e.executor.Begin(ctx)
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

	return e.checkVerificationQueries(ctx, v.PostMigrationVerificationQueries)
}

func (e *Engine) checkVerificationQueries(ctx context.Context, queries []string) error {
	tx, err := e.executor.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range queries {
		rs, err := tx.Query(ctx, query.Q(q))
		if err != nil {
			return mlmderrors.Internal("verification query failed: %v", err)
		}
		if rs.NumRows() != 1 || len(rs.Columns) != 1 {
			return mlmderrors.Internal("verification query %q did not return exactly one row and column", q)
		}
		if rs.Rows[0][0] == nil {
			return mlmderrors.Internal("verification query %q returned NULL", q)
		}
		truthy, err := parseBoolCoercible(*rs.Rows[0][0])
		if err != nil {
			return mlmderrors.Internal("verification query %q returned non-boolean value: %v", q, err)
		}
		if !truthy {
			return mlmderrors.Internal("verification query %q returned false", q)
		}
	}
	return nil
}

func parseBoolCoercible(s string) (bool, error) {
	if s == "true" || s == "TRUE" {
		return true, nil
	}
	if s == "false" || s == "FALSE" {
		return false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}
