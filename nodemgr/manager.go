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

// Package nodemgr implements CRUD for Artifact, Execution and Context
// instances. The three kinds share nearly all of their logic; a small
// capability table (table name, property table name, whether the kind
// has a Name column, whether it has a URI column) parameterizes a single
// implementation instead of three parallel ones.
package nodemgr

import (
	"context"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/typemgr"
	"github.com/covenant-labs/mlmd-core/utils"
)

// capability describes the kind-specific shape of the Node Manager's
// backing tables.
type capability struct {
	kind           model.TypeKind
	table          string
	propertyTable  string
	idColumn       string
	hasName        bool
	hasURI         bool
}

var capabilities = map[model.TypeKind]capability{
	model.ArtifactType: {
		kind: model.ArtifactType, table: "Artifact", propertyTable: "ArtifactProperty",
		idColumn: "artifact_id", hasURI: true,
	},
	model.ExecutionType: {
		kind: model.ExecutionType, table: "Execution", propertyTable: "ExecutionProperty",
		idColumn: "execution_id",
	},
	model.ContextType: {
		kind: model.ContextType, table: "Context", propertyTable: "ContextProperty",
		idColumn: "context_id", hasName: true,
	},
}

// Manager is the Node Manager for one kind (Artifact, Execution, or
// Context). Use NewArtifactManager / NewExecutionManager /
// NewContextManager rather than constructing it directly.
type Manager struct {
	cap   capability
	types *typemgr.Manager
}

// NewArtifactManager builds a Node Manager over Artifact instances.
func NewArtifactManager(types *typemgr.Manager) *Manager {
	return &Manager{cap: capabilities[model.ArtifactType], types: types}
}

// NewExecutionManager builds a Node Manager over Execution instances.
func NewExecutionManager(types *typemgr.Manager) *Manager {
	return &Manager{cap: capabilities[model.ExecutionType], types: types}
}

// NewContextManager builds a Node Manager over Context instances.
func NewContextManager(types *typemgr.Manager) *Manager {
	return &Manager{cap: capabilities[model.ContextType], types: types}
}

// Create validates n against its declared type and inserts it, assigning
// n.ID.
func (m *Manager) Create(ctx context.Context, tx query.Tx, n *model.Node) (int64, error) {
	if n.TypeID == 0 {
		return 0, mlmderrors.InvalidArgument("%s: type_id is required", m.cap.kind)
	}

	t, err := m.types.FindTypeById(ctx, tx, n.TypeID, m.cap.kind)
	if err != nil {
		return 0, mlmderrors.NotFound("%s: type_id %d does not exist: %v", m.cap.kind, n.TypeID, err)
	}

	if m.cap.hasName && n.Name == "" {
		return 0, mlmderrors.InvalidArgument("%s: name is required", m.cap.kind)
	}

	if err := validateTypedProperties(t, n.Properties); err != nil {
		return 0, err
	}

	var id int64
	switch {
	case m.cap.hasURI:
		id, _, err = tx.Exec(ctx, query.Q(
			"INSERT INTO `"+m.cap.table+"` (`type_id`, `uri`) VALUES (?, ?)", n.TypeID, n.URI))
	case m.cap.hasName:
		id, _, err = tx.Exec(ctx, query.Q(
			"INSERT INTO `"+m.cap.table+"` (`type_id`, `name`) VALUES (?, ?)", n.TypeID, n.Name))
		if err != nil {
			return 0, mlmderrors.AlreadyExists("%s: name %q already exists for type_id %d: %v", m.cap.kind, n.Name, n.TypeID, err)
		}
	default:
		id, _, err = tx.Exec(ctx, query.Q(
			"INSERT INTO `"+m.cap.table+"` (`type_id`) VALUES (?)", n.TypeID))
	}
	if err != nil {
		return 0, mlmderrors.Internal("%s: insert failed: %v", m.cap.kind, err)
	}

	if err := m.insertProperties(ctx, tx, id, n.Properties, false); err != nil {
		return 0, err
	}
	if err := m.insertProperties(ctx, tx, id, n.CustomProperties, true); err != nil {
		return 0, err
	}

	n.ID = id
	return id, nil
}

// FindById reconstructs the instance with the given id, or NOT_FOUND.
func (m *Manager) FindById(ctx context.Context, tx query.Tx, id int64) (*model.Node, error) {
	cols := "`id`, `type_id`"
	if m.cap.hasURI {
		cols += ", `uri`"
	}
	if m.cap.hasName {
		cols += ", `name`"
	}

	rs, err := tx.Query(ctx, query.Q("SELECT "+cols+" FROM `"+m.cap.table+"` WHERE `id` = ?", id))
	if err != nil {
		return nil, mlmderrors.Internal("%s: find by id: %v", m.cap.kind, err)
	}
	if rs.NumRows() == 0 {
		return nil, mlmderrors.NotFound("%s: no instance with id %d", m.cap.kind, id)
	}
	return m.loadRow(ctx, tx, rs.Rows[0])
}

// FindAll returns every instance of this kind.
func (m *Manager) FindAll(ctx context.Context, tx query.Tx) ([]*model.Node, error) {
	return m.find(ctx, tx, "", nil)
}

// FindByTypeId returns every instance whose type_id matches.
func (m *Manager) FindByTypeId(ctx context.Context, tx query.Tx, typeID int64) ([]*model.Node, error) {
	return m.find(ctx, tx, "`type_id` = ?", []interface{}{typeID})
}

// FindByURI returns every Artifact with the given uri. Calling this on a
// non-Artifact manager is a programming error.
func (m *Manager) FindByURI(ctx context.Context, tx query.Tx, uri string) ([]*model.Node, error) {
	if !m.cap.hasURI {
		return nil, mlmderrors.Internal("FindByURI is only defined for Artifact")
	}
	return m.find(ctx, tx, "`uri` = ?", []interface{}{uri})
}

// FindContextByTypeIdAndName returns the Context with the given
// (type_id, name), or NOT_FOUND. Calling this on a non-Context manager
// is a programming error.
func (m *Manager) FindContextByTypeIdAndName(ctx context.Context, tx query.Tx, typeID int64, name string) (*model.Node, error) {
	if !m.cap.hasName {
		return nil, mlmderrors.Internal("FindContextByTypeIdAndName is only defined for Context")
	}
	nodes, err := m.find(ctx, tx, "`type_id` = ? AND `name` = ?", []interface{}{typeID, name})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, mlmderrors.NotFound("context (type_id=%d, name=%q) not found", typeID, name)
	}
	return nodes[0], nil
}

func (m *Manager) find(ctx context.Context, tx query.Tx, where string, args []interface{}) ([]*model.Node, error) {
	cols := "`id`, `type_id`"
	if m.cap.hasURI {
		cols += ", `uri`"
	}
	if m.cap.hasName {
		cols += ", `name`"
	}

	q := "SELECT " + cols + " FROM `" + m.cap.table + "`"
	if where != "" {
		q += " WHERE " + where
	}

	rs, err := tx.Query(ctx, query.Q(q, args...))
	if err != nil {
		return nil, mlmderrors.Internal("%s: find: %v", m.cap.kind, err)
	}

	nodes := make([]*model.Node, 0, rs.NumRows())
	for _, row := range rs.Rows {
		n, err := m.loadRow(ctx, tx, row)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Update replaces n's property set wholesale, honouring the identity and
// type_id agreement rules documented in §4.4.
func (m *Manager) Update(ctx context.Context, tx query.Tx, n *model.Node) error {
	if n.ID == 0 {
		return mlmderrors.InvalidArgument("%s: id is required for update", m.cap.kind)
	}

	stored, err := m.FindById(ctx, tx, n.ID)
	if err != nil {
		return mlmderrors.InvalidArgument("%s: id %d does not resolve to an existing instance", m.cap.kind, n.ID)
	}

	if n.TypeID != 0 && n.TypeID != stored.TypeID {
		return mlmderrors.InvalidArgument("%s: type_id %d disagrees with stored type_id %d", m.cap.kind, n.TypeID, stored.TypeID)
	}

	t, err := m.types.FindTypeById(ctx, tx, stored.TypeID, m.cap.kind)
	if err != nil {
		return mlmderrors.Internal("%s: stored type_id %d vanished: %v", m.cap.kind, stored.TypeID, err)
	}
	if err := validateTypedProperties(t, n.Properties); err != nil {
		return err
	}

	if m.cap.hasURI && n.URI != stored.URI {
		if _, _, err := tx.Exec(ctx, query.Q("UPDATE `"+m.cap.table+"` SET `uri` = ? WHERE `id` = ?", n.URI, n.ID)); err != nil {
			return mlmderrors.Internal("%s: update uri: %v", m.cap.kind, err)
		}
	}

	if _, _, err := tx.Exec(ctx, query.Q("DELETE FROM `"+m.cap.propertyTable+"` WHERE `"+m.cap.idColumn+"` = ?", n.ID)); err != nil {
		return mlmderrors.Internal("%s: clear properties: %v", m.cap.kind, err)
	}
	if err := m.insertProperties(ctx, tx, n.ID, n.Properties, false); err != nil {
		return err
	}
	if err := m.insertProperties(ctx, tx, n.ID, n.CustomProperties, true); err != nil {
		return err
	}

	n.TypeID = stored.TypeID
	return nil
}

func (m *Manager) insertProperties(ctx context.Context, tx query.Tx, id int64, props model.PropertyBag, custom bool) error {
	for name, v := range props {
		var intVal, doubleVal interface{}
		var stringVal interface{}
		switch v.Type {
		case model.Int:
			intVal = v.IntValue
		case model.Double:
			doubleVal = v.DoubleValue
		case model.String:
			stringVal = v.StringValue
		}

		if _, _, err := tx.Exec(ctx, query.Q(
			"INSERT INTO `"+m.cap.propertyTable+"` (`"+m.cap.idColumn+"`, `name`, `is_custom_property`, `int_value`, `double_value`, `string_value`) VALUES (?, ?, ?, ?, ?, ?)",
			id, name, boolToInt(custom), intVal, doubleVal, stringVal)); err != nil {
			return mlmderrors.Internal("%s: insert property %q: %v", m.cap.kind, name, err)
		}
	}
	return nil
}

func (m *Manager) loadRow(ctx context.Context, tx query.Tx, row query.Row) (*model.Node, error) {
	n := &model.Node{
		ID:               utils.MustParseInt64(row[0]),
		TypeID:           utils.MustParseInt64(row[1]),
		Properties:       model.PropertyBag{},
		CustomProperties: model.PropertyBag{},
	}

	col := 2
	if m.cap.hasURI {
		n.URI = utils.StringOrEmpty(row[col])
		col++
	}
	if m.cap.hasName {
		n.Name = utils.StringOrEmpty(row[col])
		col++
	}

	rs, err := tx.Query(ctx, query.Q(
		"SELECT `name`, `is_custom_property`, `int_value`, `double_value`, `string_value` FROM `"+m.cap.propertyTable+"` WHERE `"+m.cap.idColumn+"` = ?",
		n.ID))
	if err != nil {
		return nil, mlmderrors.Internal("%s: load properties: %v", m.cap.kind, err)
	}

	for _, r := range rs.Rows {
		name := *r[0]
		isCustom := utils.MustParseInt(r[1]) != 0
		v := decodePropertyValue(r[2], r[3], r[4])
		if isCustom {
			n.CustomProperties[name] = v
		} else {
			n.Properties[name] = v
		}
	}

	return n, nil
}

func decodePropertyValue(intCol, doubleCol, stringCol *string) model.PropertyValue {
	switch {
	case intCol != nil:
		return model.IntProp(utils.MustParseInt64(intCol))
	case doubleCol != nil:
		return model.DoubleProp(utils.MustParseFloat64(doubleCol))
	default:
		return model.StringProp(utils.StringOrEmpty(stringCol))
	}
}

func validateTypedProperties(t *model.Type, props model.PropertyBag) error {
	for name, v := range props {
		declared, ok := t.Properties[name]
		if !ok {
			return mlmderrors.InvalidArgument("property %q is not declared on type %q", name, t.Name)
		}
		if declared != v.Type {
			return mlmderrors.InvalidArgument("property %q has value kind %s, type %q declares %s", name, v.Type, t.Name, declared)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
