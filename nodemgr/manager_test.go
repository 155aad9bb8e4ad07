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

package nodemgr

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/migrate"
	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/query/sqlstore"
	"github.com/covenant-labs/mlmd-core/typemgr"
)

func initializedTx(t *testing.T, name string) query.Tx {
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
	return tx
}

func TestArtifactLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given an ArtifactType with three typed properties", t, func() {
		tx := initializedTx(t, "nodemgr-artifact-lifecycle")
		types := typemgr.New()
		artifacts := NewArtifactManager(types)

		typeID, err := types.CreateType(ctx, tx, &model.Type{
			Kind: model.ArtifactType,
			Name: "Model",
			Properties: map[string]model.PropertyType{
				"accuracy": model.Double,
				"version":  model.Int,
				"label":    model.String,
			},
		})
		So(err, ShouldBeNil)

		Convey("the first two created artifacts get ids 1 and 2", func() {
			firstID, err := artifacts.Create(ctx, tx, &model.Node{
				TypeID: typeID,
				URI:    "s3://bucket/first",
				Properties: model.PropertyBag{
					"accuracy": model.DoubleProp(0.9),
					"version":  model.IntProp(1),
					"label":    model.StringProp("v1"),
				},
				CustomProperties: model.PropertyBag{"owner": model.StringProp("alice")},
			})
			So(err, ShouldBeNil)
			So(firstID, ShouldEqual, 1)

			secondID, err := artifacts.Create(ctx, tx, &model.Node{TypeID: typeID, URI: "s3://bucket/second"})
			So(err, ShouldBeNil)
			So(secondID, ShouldEqual, 2)

			Convey("updating the first artifact replaces its property set wholesale", func() {
				newURI := "s3://bucket/first-renamed"
				err := artifacts.Update(ctx, tx, &model.Node{
					ID:     firstID,
					TypeID: typeID,
					URI:    newURI,
					Properties: model.PropertyBag{
						"version": model.IntProp(2),
						"label":   model.StringProp("v2"),
					},
					CustomProperties: model.PropertyBag{"owner": model.IntProp(42)},
				})
				So(err, ShouldBeNil)

				found, err := artifacts.FindById(ctx, tx, firstID)
				So(err, ShouldBeNil)
				So(found.Properties, ShouldResemble, model.PropertyBag{
					"version": model.IntProp(2),
					"label":   model.StringProp("v2"),
				})
				So(found.CustomProperties, ShouldResemble, model.PropertyBag{"owner": model.IntProp(42)})

				byURI, err := artifacts.FindByURI(ctx, tx, newURI)
				So(err, ShouldBeNil)
				So(len(byURI), ShouldEqual, 1)
				So(byURI[0].ID, ShouldEqual, firstID)
			})
		})

		Convey("a property not declared on the type is rejected", func() {
			_, err := artifacts.Create(ctx, tx, &model.Node{
				TypeID:     typeID,
				Properties: model.PropertyBag{"nope": model.IntProp(1)},
			})
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})

		Convey("a property with the wrong value kind is rejected", func() {
			_, err := artifacts.Create(ctx, tx, &model.Node{
				TypeID:     typeID,
				Properties: model.PropertyBag{"version": model.StringProp("not an int")},
			})
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})
	})
}

func TestContextUniqueness(t *testing.T) {
	ctx := context.Background()

	Convey("Given a ContextType", t, func() {
		tx := initializedTx(t, "nodemgr-context-uniqueness")
		types := typemgr.New()
		contexts := NewContextManager(types)

		typeID, err := types.CreateType(ctx, tx, &model.Type{Kind: model.ContextType, Name: "Experiment"})
		So(err, ShouldBeNil)

		_, err = contexts.Create(ctx, tx, &model.Node{TypeID: typeID, Name: "c"})
		So(err, ShouldBeNil)

		Convey("creating another context named \"c\" under the same type is ALREADY_EXISTS", func() {
			_, err := contexts.Create(ctx, tx, &model.Node{TypeID: typeID, Name: "c"})
			So(mlmderrors.Code(err).String(), ShouldEqual, "AlreadyExists")
		})

		Convey("an empty name is INVALID_ARGUMENT", func() {
			_, err := contexts.Create(ctx, tx, &model.Node{TypeID: typeID, Name: ""})
			So(mlmderrors.Code(err).String(), ShouldEqual, "InvalidArgument")
		})

		Convey("FindContextByTypeIdAndName with no match is NOT_FOUND", func() {
			_, err := contexts.FindContextByTypeIdAndName(ctx, tx, typeID, "missing")
			So(mlmderrors.Code(err).String(), ShouldEqual, "NotFound")
		})
	})
}
