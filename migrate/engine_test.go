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
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/query/sqlstore"
	"github.com/covenant-labs/mlmd-core/schema"
)

func freshExecutor(t *testing.T, name string) query.Executor {
	st, err := sqlstore.Open("sqlite3", sqlstore.InMemoryDSN(name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	return st
}

func TestInitMetadataSourceIfNotExists(t *testing.T) {
	ctx := context.Background()

	Convey("Given a brand new empty store", t, func() {
		exec := freshExecutor(t, "migrate-fresh")
		engine := New(exec)

		Convey("Init brings it straight to the library version", func() {
			So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)
			v, err := engine.GetSchemaVersion(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, schema.LibraryVersion)
		})

		Convey("a second Init call is a no-op success", func() {
			So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)
			So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)
		})
	})

	Convey("Given a store pre-populated at version 0 with upgrade disabled", t, func() {
		exec := freshExecutor(t, "migrate-v0-noupgrade")
		tx, err := exec.Begin(ctx)
		So(err, ShouldBeNil)
		ddl, _ := schema.DDL(0)
		for _, q := range ddl {
			_, _, err := tx.Exec(ctx, query.Q(q))
			So(err, ShouldBeNil)
		}
		So(tx.Commit(), ShouldBeNil)

		engine := New(exec)

		Convey("Init fails with FAILED_PRECONDITION", func() {
			err := engine.InitMetadataSourceIfNotExists(ctx, false)
			So(mlmderrors.Code(err).String(), ShouldEqual, "FailedPrecondition")
		})
	})

	Convey("Given a store pre-populated at version 0 with upgrade enabled", t, func() {
		exec := freshExecutor(t, "migrate-v0-upgrade")
		tx, err := exec.Begin(ctx)
		So(err, ShouldBeNil)
		ddl, _ := schema.DDL(0)
		for _, q := range ddl {
			_, _, err := tx.Exec(ctx, query.Q(q))
			So(err, ShouldBeNil)
		}
		So(tx.Commit(), ShouldBeNil)

		engine := New(exec)

		Convey("Init upgrades it to the library version", func() {
			So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)
			v, err := engine.GetSchemaVersion(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, schema.LibraryVersion)
		})

		Convey("then Downgrade back to 0 restores the historical layout", func() {
			So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)
			So(engine.DowngradeMetadataSource(ctx, 0), ShouldBeNil)

			v, err := engine.GetSchemaVersion(ctx)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0)
		})
	})

	Convey("Given a store whose Type table was dropped after a successful Init", t, func() {
		exec := freshExecutor(t, "migrate-corrupt-table")
		engine := New(exec)
		So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)

		tx, err := exec.Begin(ctx)
		So(err, ShouldBeNil)
		_, _, err = tx.Exec(ctx, query.Q("DROP TABLE `Type`"))
		So(err, ShouldBeNil)
		So(tx.Commit(), ShouldBeNil)

		Convey("the next Init reports ABORTED", func() {
			err := engine.InitMetadataSourceIfNotExists(ctx, true)
			So(mlmderrors.Code(err).String(), ShouldEqual, "Aborted")
		})
	})

	Convey("Given a store whose MLMDEnv rows were all deleted after a successful Init", t, func() {
		exec := freshExecutor(t, "migrate-corrupt-env")
		engine := New(exec)
		So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)

		tx, err := exec.Begin(ctx)
		So(err, ShouldBeNil)
		_, _, err = tx.Exec(ctx, query.Q("DELETE FROM `MLMDEnv`"))
		So(err, ShouldBeNil)
		So(tx.Commit(), ShouldBeNil)

		Convey("the next Init reports ABORTED", func() {
			err := engine.InitMetadataSourceIfNotExists(ctx, true)
			So(mlmderrors.Code(err).String(), ShouldEqual, "Aborted")
		})
	})

	Convey("Given a store whose schema_version was bumped ahead of the library version", t, func() {
		exec := freshExecutor(t, "migrate-too-new")
		engine := New(exec)
		So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)

		tx, err := exec.Begin(ctx)
		So(err, ShouldBeNil)
		_, _, err = tx.Exec(ctx, query.Q("UPDATE `MLMDEnv` SET `schema_version` = `schema_version` + 2"))
		So(err, ShouldBeNil)
		So(tx.Commit(), ShouldBeNil)

		Convey("the next Init reports FAILED_PRECONDITION", func() {
			err := engine.InitMetadataSourceIfNotExists(ctx, true)
			So(mlmderrors.Code(err).String(), ShouldEqual, "FailedPrecondition")
		})
	})
}

func TestDowngradeValidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given an initialized store", t, func() {
		exec := freshExecutor(t, "migrate-downgrade-validation")
		engine := New(exec)
		So(engine.InitMetadataSourceIfNotExists(ctx, true), ShouldBeNil)

		Convey("downgrading outside [0, library] is INVALID_ARGUMENT", func() {
			err := engine.DowngradeMetadataSource(ctx, schema.LibraryVersion+1)
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")

			err = engine.DowngradeMetadataSource(ctx, -1)
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})
	})

	Convey("Given a never-initialized store", t, func() {
		exec := freshExecutor(t, "migrate-downgrade-empty")
		engine := New(exec)

		Convey("downgrading is INVALID_ARGUMENT", func() {
			err := engine.DowngradeMetadataSource(ctx, 0)
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})
	})
}

func TestMigrationRoundTripVerification(t *testing.T) {
	ctx := context.Background()

	Convey("Given an executor at version 0", t, func() {
		exec := freshExecutor(t, "migrate-verify")
		engine := New(exec)
		tx, err := exec.Begin(ctx)
		So(err, ShouldBeNil)
		ddl, _ := schema.DDL(0)
		for _, q := range ddl {
			_, _, err := tx.Exec(ctx, query.Q(q))
			So(err, ShouldBeNil)
		}
		So(tx.Commit(), ShouldBeNil)

		Convey("VerifyUpgrade(1) succeeds", func() {
			So(engine.VerifyUpgrade(ctx, 1), ShouldBeNil)
		})
	})
}
