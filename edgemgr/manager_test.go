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

package edgemgr

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/migrate"
	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/nodemgr"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/query/sqlstore"
	"github.com/covenant-labs/mlmd-core/typemgr"
)

func setupGraph(t *testing.T, name string) (query.Tx, int64, int64) {
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

	types := typemgr.New()
	artTypeID, err := types.CreateType(ctx, tx, &model.Type{Kind: model.ArtifactType, Name: "A"})
	if err != nil {
		t.Fatalf("create artifact type: %v", err)
	}
	execTypeID, err := types.CreateType(ctx, tx, &model.Type{Kind: model.ExecutionType, Name: "E"})
	if err != nil {
		t.Fatalf("create execution type: %v", err)
	}

	artifacts := nodemgr.NewArtifactManager(types)
	executions := nodemgr.NewExecutionManager(types)

	artifactID, err := artifacts.Create(ctx, tx, &model.Node{TypeID: artTypeID})
	if err != nil {
		t.Fatalf("create artifact: %v", err)
	}
	executionID, err := executions.Create(ctx, tx, &model.Node{TypeID: execTypeID})
	if err != nil {
		t.Fatalf("create execution: %v", err)
	}

	return tx, artifactID, executionID
}

func TestEventWithPath(t *testing.T) {
	ctx := context.Background()

	Convey("Given an Artifact and an Execution", t, func() {
		tx, artifactID, executionID := setupGraph(t, "edgemgr-event-path")
		edges := New()

		Convey("CreateEvent with a path round-trips through FindEventsByArtifact", func() {
			event := &model.Event{
				ArtifactID:  artifactID,
				ExecutionID: executionID,
				Type:        model.InputEvent,
				Path: []model.PathStep{
					{Kind: model.IndexStep, Index: 1},
					{Kind: model.KeyStep, Key: "key"},
				},
			}
			So(edges.CreateEvent(ctx, tx, event), ShouldBeNil)
			So(event.MillisecondsSinceEpoch, ShouldBeGreaterThan, 0)

			found, err := edges.FindEventsByArtifact(ctx, tx, artifactID)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 1)
			So(found[0].Type, ShouldEqual, model.InputEvent)
			So(found[0].MillisecondsSinceEpoch, ShouldEqual, event.MillisecondsSinceEpoch)
			So(found[0].Path, ShouldResemble, event.Path)
		})

		Convey("an event missing a required field is INVALID_ARGUMENT", func() {
			err := edges.CreateEvent(ctx, tx, &model.Event{ArtifactID: artifactID, ExecutionID: executionID})
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})

		Convey("an event with a nonexistent endpoint is INVALID_ARGUMENT", func() {
			err := edges.CreateEvent(ctx, tx, &model.Event{ArtifactID: 999, ExecutionID: executionID, Type: model.InputEvent})
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})
	})
}

func TestAttributionAndAssociationUniqueness(t *testing.T) {
	ctx := context.Background()

	Convey("Given an Artifact, an Execution, and a Context", t, func() {
		tx, artifactID, executionID := setupGraph(t, "edgemgr-pairs")
		types := typemgr.New()
		contexts := nodemgr.NewContextManager(types)
		ctxTypeID, err := types.CreateType(ctx, tx, &model.Type{Kind: model.ContextType, Name: "C"})
		So(err, ShouldBeNil)
		contextID, err := contexts.Create(ctx, tx, &model.Node{TypeID: ctxTypeID, Name: "run"})
		So(err, ShouldBeNil)

		edges := New()

		Convey("a first Attribution succeeds and reverse lookups see it", func() {
			So(edges.CreateAttribution(ctx, tx, &model.Attribution{ArtifactID: artifactID, ContextID: contextID}), ShouldBeNil)

			contextIDs, err := edges.FindContextsByArtifact(ctx, tx, artifactID)
			So(err, ShouldBeNil)
			So(contextIDs, ShouldResemble, []int64{contextID})

			artifactIDs, err := edges.FindArtifactsByContext(ctx, tx, contextID)
			So(err, ShouldBeNil)
			So(artifactIDs, ShouldResemble, []int64{artifactID})
		})

		Convey("a duplicate Association pair is ALREADY_EXISTS", func() {
			So(edges.CreateAssociation(ctx, tx, &model.Association{ExecutionID: executionID, ContextID: contextID}), ShouldBeNil)
			err := edges.CreateAssociation(ctx, tx, &model.Association{ExecutionID: executionID, ContextID: contextID})
			So(mlmderrors.Code(err).String(), ShouldEqual, "AlreadyExists")
		})
	})
}
