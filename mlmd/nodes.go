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
	"github.com/covenant-labs/mlmd-core/nodemgr"
	"github.com/covenant-labs/mlmd-core/query"
)

// CreateArtifact persists a and returns its assigned id.
func (s *Store) CreateArtifact(ctx context.Context, a *model.Artifact) (int64, error) {
	return s.createNode(ctx, "CreateArtifact", s.artifacts, a)
}

// CreateExecution persists e and returns its assigned id.
func (s *Store) CreateExecution(ctx context.Context, e *model.Execution) (int64, error) {
	return s.createNode(ctx, "CreateExecution", s.executions, e)
}

// CreateContext persists c and returns its assigned id.
func (s *Store) CreateContext(ctx context.Context, c *model.Context) (int64, error) {
	return s.createNode(ctx, "CreateContext", s.contexts, c)
}

func (s *Store) createNode(ctx context.Context, op string, mgr *nodemgr.Manager, n *model.Node) (int64, error) {
	var id int64
	err := s.withTx(ctx, op, func(tx query.Tx) error {
		var err error
		id, err = mgr.Create(ctx, tx, n)
		return err
	})
	return id, err
}

// FindArtifactById looks up an Artifact by id.
func (s *Store) FindArtifactById(ctx context.Context, id int64) (*model.Artifact, error) {
	return s.findNode(ctx, "FindArtifactById", s.artifacts, id)
}

// FindExecutionById looks up an Execution by id.
func (s *Store) FindExecutionById(ctx context.Context, id int64) (*model.Execution, error) {
	return s.findNode(ctx, "FindExecutionById", s.executions, id)
}

// FindContextById looks up a Context by id.
func (s *Store) FindContextById(ctx context.Context, id int64) (*model.Context, error) {
	return s.findNode(ctx, "FindContextById", s.contexts, id)
}

func (s *Store) findNode(ctx context.Context, op string, mgr *nodemgr.Manager, id int64) (*model.Node, error) {
	var n *model.Node
	err := s.withTx(ctx, op, func(tx query.Tx) error {
		var err error
		n, err = mgr.FindById(ctx, tx, id)
		return err
	})
	return n, err
}

// FindArtifactsByURI returns every Artifact with the given uri.
func (s *Store) FindArtifactsByURI(ctx context.Context, uri string) ([]*model.Artifact, error) {
	var nodes []*model.Node
	err := s.withTx(ctx, "FindArtifactsByURI", func(tx query.Tx) error {
		var err error
		nodes, err = s.artifacts.FindByURI(ctx, tx, uri)
		return err
	})
	return nodes, err
}

// FindContextByTypeIdAndName looks up a Context by (type_id, name).
func (s *Store) FindContextByTypeIdAndName(ctx context.Context, typeID int64, name string) (*model.Context, error) {
	var n *model.Node
	err := s.withTx(ctx, "FindContextByTypeIdAndName", func(tx query.Tx) error {
		var err error
		n, err = s.contexts.FindContextByTypeIdAndName(ctx, tx, typeID, name)
		return err
	})
	return n, err
}

// UpdateArtifact replaces a's property set wholesale.
func (s *Store) UpdateArtifact(ctx context.Context, a *model.Artifact) error {
	return s.updateNode(ctx, "UpdateArtifact", s.artifacts, a)
}

// UpdateExecution replaces e's property set wholesale.
func (s *Store) UpdateExecution(ctx context.Context, e *model.Execution) error {
	return s.updateNode(ctx, "UpdateExecution", s.executions, e)
}

// UpdateContext replaces c's property set wholesale.
func (s *Store) UpdateContext(ctx context.Context, c *model.Context) error {
	return s.updateNode(ctx, "UpdateContext", s.contexts, c)
}

func (s *Store) updateNode(ctx context.Context, op string, mgr *nodemgr.Manager, n *model.Node) error {
	return s.withTx(ctx, op, func(tx query.Tx) error {
		return mgr.Update(ctx, tx, n)
	})
}
