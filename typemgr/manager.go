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

// Package typemgr implements CRUD for Artifact/Execution/Context types,
// including the additive property-schema evolution rules UpdateType
// enforces.
package typemgr

import (
	"context"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/utils"
)

// Manager is the Type Manager. It runs every operation against a single
// in-flight transaction handed in by the caller (normally the Facade).
type Manager struct{}

// New builds a Type Manager. It carries no state of its own; every
// method takes the transaction to run against.
func New() *Manager { return &Manager{} }

// CreateType allocates an id for t, persists it and its property
// schema, and writes the assigned id back onto t.
func (m *Manager) CreateType(ctx context.Context, tx query.Tx, t *model.Type) (int64, error) {
	if t.Name == "" {
		return 0, mlmderrors.InvalidArgument("type name must not be empty")
	}
	if t.HasUnknownProperty() {
		return 0, mlmderrors.InvalidArgument("type %q declares a property with UNKNOWN data type", t.Name)
	}

	inputBlob, err := encodeSignature(t.InputType)
	if err != nil {
		return 0, mlmderrors.Internal("encode input_type for type %q: %v", t.Name, err)
	}
	outputBlob, err := encodeSignature(t.OutputType)
	if err != nil {
		return 0, mlmderrors.Internal("encode output_type for type %q: %v", t.Name, err)
	}

	id, _, err := tx.Exec(ctx, query.Q(
		"INSERT INTO `Type` (`name`, `type_kind`, `input_type`, `output_type`) VALUES (?, ?, ?, ?)",
		t.Name, int(t.Kind), nullableBlob(inputBlob), nullableBlob(outputBlob)))
	if err != nil {
		return 0, mlmderrors.AlreadyExists("type name %q already exists for kind %s: %v", t.Name, t.Kind, err)
	}

	for name, pt := range t.Properties {
		if _, _, err := tx.Exec(ctx, query.Q(
			"INSERT INTO `TypeProperty` (`type_id`, `name`, `data_type`) VALUES (?, ?, ?)",
			id, name, int(pt))); err != nil {
			return 0, mlmderrors.Internal("persist property %q for type %q: %v", name, t.Name, err)
		}
	}

	t.ID = id
	return id, nil
}

// FindTypeById looks up a type by id, scoped to kind.
func (m *Manager) FindTypeById(ctx context.Context, tx query.Tx, id int64, kind model.TypeKind) (*model.Type, error) {
	rs, err := tx.Query(ctx, query.Q(
		"SELECT `id`, `name`, `type_kind`, `input_type`, `output_type` FROM `Type` WHERE `id` = ? AND `type_kind` = ?",
		id, int(kind)))
	if err != nil {
		return nil, mlmderrors.Internal("find type by id: %v", err)
	}
	if rs.NumRows() == 0 {
		return nil, mlmderrors.NotFound("no type with id %d and kind %s", id, kind)
	}
	return m.loadTypeRow(ctx, tx, rs.Rows[0])
}

// FindTypeByName looks up a type by name, scoped to kind.
func (m *Manager) FindTypeByName(ctx context.Context, tx query.Tx, name string, kind model.TypeKind) (*model.Type, error) {
	rs, err := tx.Query(ctx, query.Q(
		"SELECT `id`, `name`, `type_kind`, `input_type`, `output_type` FROM `Type` WHERE `name` = ? AND `type_kind` = ?",
		name, int(kind)))
	if err != nil {
		return nil, mlmderrors.Internal("find type by name: %v", err)
	}
	if rs.NumRows() == 0 {
		return nil, mlmderrors.NotFound("no type named %q with kind %s", name, kind)
	}
	return m.loadTypeRow(ctx, tx, rs.Rows[0])
}

// FindAllTypes returns every type of kind.
func (m *Manager) FindAllTypes(ctx context.Context, tx query.Tx, kind model.TypeKind) ([]*model.Type, error) {
	rs, err := tx.Query(ctx, query.Q(
		"SELECT `id`, `name`, `type_kind`, `input_type`, `output_type` FROM `Type` WHERE `type_kind` = ?", int(kind)))
	if err != nil {
		return nil, mlmderrors.Internal("find all types: %v", err)
	}

	types := make([]*model.Type, 0, rs.NumRows())
	for _, row := range rs.Rows {
		t, err := m.loadTypeRow(ctx, tx, row)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// UpdateType resolves the stored type by (name, kind) and unions its
// property schema with t.Properties, additively: a property absent from
// t is preserved, a property present in both with the same data type is
// a no-op, and a property present in both with a different data type is
// rejected as ALREADY_EXISTS.
func (m *Manager) UpdateType(ctx context.Context, tx query.Tx, t *model.Type) error {
	if t.Name == "" {
		return mlmderrors.InvalidArgument("type name must not be empty")
	}
	if t.HasUnknownProperty() {
		return mlmderrors.InvalidArgument("update to type %q declares a property with UNKNOWN data type", t.Name)
	}

	stored, err := m.FindTypeByName(ctx, tx, t.Name, t.Kind)
	if err != nil {
		return err
	}

	if t.ID != 0 && t.ID != stored.ID {
		return mlmderrors.InvalidArgument("type id %d does not match stored id %d for name %q", t.ID, stored.ID, t.Name)
	}

	for name, pt := range t.Properties {
		if existing, ok := stored.Properties[name]; ok {
			if existing != pt {
				return mlmderrors.AlreadyExists(
					"property %q on type %q is already %s and cannot be redefined as %s", name, t.Name, existing, pt)
			}
			continue
		}
		if _, _, err := tx.Exec(ctx, query.Q(
			"INSERT INTO `TypeProperty` (`type_id`, `name`, `data_type`) VALUES (?, ?, ?)",
			stored.ID, name, int(pt))); err != nil {
			return mlmderrors.Internal("persist new property %q for type %q: %v", name, t.Name, err)
		}
	}

	t.ID = stored.ID
	return nil
}

func (m *Manager) loadTypeRow(ctx context.Context, tx query.Tx, row query.Row) (*model.Type, error) {
	id := utils.MustParseInt64(row[0])
	kind := model.TypeKind(utils.MustParseInt(row[2]))

	inputType, err := decodeSignature(utils.BlobOrNil(row[3]))
	if err != nil {
		return nil, mlmderrors.Internal("decode input_type for type %d: %v", id, err)
	}
	outputType, err := decodeSignature(utils.BlobOrNil(row[4]))
	if err != nil {
		return nil, mlmderrors.Internal("decode output_type for type %d: %v", id, err)
	}

	t := &model.Type{
		ID:         id,
		Kind:       kind,
		Name:       *row[1],
		Properties: map[string]model.PropertyType{},
		InputType:  inputType,
		OutputType: outputType,
	}

	rs, err := tx.Query(ctx, query.Q(
		"SELECT `name`, `data_type` FROM `TypeProperty` WHERE `type_id` = ?", id))
	if err != nil {
		return nil, mlmderrors.Internal("load properties for type %d: %v", id, err)
	}
	for _, r := range rs.Rows {
		t.Properties[*r[0]] = model.PropertyType(utils.MustParseInt(r[1]))
	}

	return t, nil
}

func nullableBlob(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// encodeSignature msgpack-encodes an ExecutionType's opaque input/output
// signature before it is stored in the input_type/output_type BLOB
// columns. The core never interprets the bytes; msgpack only gives them a
// self-describing wire shape consistent with the rest of the module's
// serialized payloads.
func encodeSignature(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	buf, err := utils.EncodeMsgPack(b)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeSignature reverses encodeSignature.
func decodeSignature(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var out []byte
	if err := utils.DecodeMsgPack(blob, &out); err != nil {
		return nil, err
	}
	return out, nil
}
