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

package mlmd

import (
	"context"

	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/query"
)

// CreateType persists t and returns its assigned id.
func (s *Store) CreateType(ctx context.Context, t *model.Type) (int64, error) {
	var id int64
	err := s.withTx(ctx, "CreateType", func(tx query.Tx) error {
		var err error
		id, err = s.types.CreateType(ctx, tx, t)
		return err
	})
	return id, err
}

// FindTypeById looks up a type by id and kind.
func (s *Store) FindTypeById(ctx context.Context, id int64, kind model.TypeKind) (*model.Type, error) {
	var t *model.Type
	err := s.withTx(ctx, "FindTypeById", func(tx query.Tx) error {
		var err error
		t, err = s.types.FindTypeById(ctx, tx, id, kind)
		return err
	})
	return t, err
}

// FindTypeByName looks up a type by name and kind.
func (s *Store) FindTypeByName(ctx context.Context, name string, kind model.TypeKind) (*model.Type, error) {
	var t *model.Type
	err := s.withTx(ctx, "FindTypeByName", func(tx query.Tx) error {
		var err error
		t, err = s.types.FindTypeByName(ctx, tx, name, kind)
		return err
	})
	return t, err
}

// FindAllTypes returns every type of kind.
func (s *Store) FindAllTypes(ctx context.Context, kind model.TypeKind) ([]*model.Type, error) {
	var types []*model.Type
	err := s.withTx(ctx, "FindAllTypes", func(tx query.Tx) error {
		var err error
		types, err = s.types.FindAllTypes(ctx, tx, kind)
		return err
	})
	return types, err
}

// UpdateType applies the additive-union update described by typemgr.
func (s *Store) UpdateType(ctx context.Context, t *model.Type) error {
	return s.withTx(ctx, "UpdateType", func(tx query.Tx) error {
		return s.types.UpdateType(ctx, tx, t)
	})
}
