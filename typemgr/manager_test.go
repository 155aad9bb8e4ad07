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

package typemgr

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/migrate"
	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/query/sqlstore"
)

func initializedTx(t *testing.T, name string) (query.Executor, query.Tx) {
	ctx := context.Background()
	exec, err := sqlstore.Open("sqlite3", sqlstore.InMemoryDSN(name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := migrate.New(exec).InitMetadataSourceIfNotExists(ctx, true); err != nil {
		t.Fatalf("init store: %v", err)
	}
	tx, err := exec.Begin(ctx)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	return exec, tx
}

func TestTypeCreationDisambiguation(t *testing.T) {
	ctx := context.Background()

	Convey("Given an initialized store", t, func() {
		_, tx := initializedTx(t, "typemgr-disambiguation")
		mgr := New()

		Convey("creating the same name in all three kinds yields distinct ids", func() {
			artID, err := mgr.CreateType(ctx, tx, &model.Type{Kind: model.ArtifactType, Name: "t"})
			So(err, ShouldBeNil)
			execID, err := mgr.CreateType(ctx, tx, &model.Type{Kind: model.ExecutionType, Name: "t"})
			So(err, ShouldBeNil)
			ctxID, err := mgr.CreateType(ctx, tx, &model.Type{Kind: model.ContextType, Name: "t"})
			So(err, ShouldBeNil)

			So(artID, ShouldNotEqual, execID)
			So(execID, ShouldNotEqual, ctxID)
			So(artID, ShouldNotEqual, ctxID)

			Convey("looking the artifact id up under EXECUTION kind is NOT_FOUND", func() {
				_, err := mgr.FindTypeById(ctx, tx, artID, model.ExecutionType)
				So(mlmderrors.Code(err).String(), ShouldEqual, "NotFound")
			})
		})
	})
}

func TestUpdateTypeAdditive(t *testing.T) {
	ctx := context.Background()

	Convey("Given an ArtifactType T with one stored property", t, func() {
		_, tx := initializedTx(t, "typemgr-update-additive")
		mgr := New()

		_, err := mgr.CreateType(ctx, tx, &model.Type{
			Kind:       model.ArtifactType,
			Name:       "T",
			Properties: map[string]model.PropertyType{"stored": model.String},
		})
		So(err, ShouldBeNil)

		Convey("UpdateType with a new property unions the schema", func() {
			err := mgr.UpdateType(ctx, tx, &model.Type{
				Kind:       model.ArtifactType,
				Name:       "T",
				Properties: map[string]model.PropertyType{"new": model.Int},
			})
			So(err, ShouldBeNil)

			found, err := mgr.FindTypeByName(ctx, tx, "T", model.ArtifactType)
			So(err, ShouldBeNil)
			So(found.Properties, ShouldResemble, map[string]model.PropertyType{
				"stored": model.String,
				"new":    model.Int,
			})
		})

		Convey("a conflicting redefinition of an existing property is ALREADY_EXISTS", func() {
			found, err := mgr.FindTypeByName(ctx, tx, "T", model.ArtifactType)
			So(err, ShouldBeNil)

			err = mgr.UpdateType(ctx, tx, &model.Type{
				ID:         found.ID,
				Kind:       model.ArtifactType,
				Name:       "T",
				Properties: map[string]model.PropertyType{"stored": model.Int},
			})
			So(mlmderrors.Code(err).String(), ShouldEqual, "AlreadyExists")
		})

		Convey("supplying an UNKNOWN property type is INVALID_ARGUMENT", func() {
			err := mgr.UpdateType(ctx, tx, &model.Type{
				Kind:       model.ArtifactType,
				Name:       "T",
				Properties: map[string]model.PropertyType{"new": model.Unknown},
			})
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})
	})
}

func TestExecutionTypeSignatureRoundTrip(t *testing.T) {
	ctx := context.Background()

	Convey("Given an ExecutionType created with input and output signatures", t, func() {
		_, tx := initializedTx(t, "typemgr-signature-roundtrip")
		mgr := New()

		id, err := mgr.CreateType(ctx, tx, &model.Type{
			Kind:       model.ExecutionType,
			Name:       "Train",
			InputType:  []byte("dataset:Dataset,epochs:int"),
			OutputType: []byte("model:Model"),
		})
		So(err, ShouldBeNil)

		Convey("FindTypeById reconstructs the exact signature bytes", func() {
			found, err := mgr.FindTypeById(ctx, tx, id, model.ExecutionType)
			So(err, ShouldBeNil)
			So(found.InputType, ShouldResemble, []byte("dataset:Dataset,epochs:int"))
			So(found.OutputType, ShouldResemble, []byte("model:Model"))
		})

		Convey("FindTypeByName sees the same round-tripped signature", func() {
			found, err := mgr.FindTypeByName(ctx, tx, "Train", model.ExecutionType)
			So(err, ShouldBeNil)
			So(found.InputType, ShouldResemble, []byte("dataset:Dataset,epochs:int"))
			So(found.OutputType, ShouldResemble, []byte("model:Model"))
		})
	})

	Convey("Given a type created with no signature", t, func() {
		_, tx := initializedTx(t, "typemgr-signature-empty")
		mgr := New()

		id, err := mgr.CreateType(ctx, tx, &model.Type{Kind: model.ExecutionType, Name: "Score"})
		So(err, ShouldBeNil)

		Convey("FindTypeById reports nil signatures rather than an empty-blob round trip", func() {
			found, err := mgr.FindTypeById(ctx, tx, id, model.ExecutionType)
			So(err, ShouldBeNil)
			So(found.InputType, ShouldBeNil)
			So(found.OutputType, ShouldBeNil)
		})
	})
}
