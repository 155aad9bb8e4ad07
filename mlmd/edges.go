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

// CreateEvent validates and persists e.
func (s *Store) CreateEvent(ctx context.Context, e *model.Event) error {
	return s.withTx(ctx, "CreateEvent", func(tx query.Tx) error {
		return s.edges.CreateEvent(ctx, tx, e)
	})
}

// FindEventsByArtifact returns every event touching artifactID.
func (s *Store) FindEventsByArtifact(ctx context.Context, artifactID int64) ([]*model.Event, error) {
	var events []*model.Event
	err := s.withTx(ctx, "FindEventsByArtifact", func(tx query.Tx) error {
		var err error
		events, err = s.edges.FindEventsByArtifact(ctx, tx, artifactID)
		return err
	})
	return events, err
}

// FindEventsByExecution returns every event touching executionID.
func (s *Store) FindEventsByExecution(ctx context.Context, executionID int64) ([]*model.Event, error) {
	var events []*model.Event
	err := s.withTx(ctx, "FindEventsByExecution", func(tx query.Tx) error {
		var err error
		events, err = s.edges.FindEventsByExecution(ctx, tx, executionID)
		return err
	})
	return events, err
}

// CreateAttribution validates and persists a, rejecting a duplicate pair.
func (s *Store) CreateAttribution(ctx context.Context, a *model.Attribution) error {
	return s.withTx(ctx, "CreateAttribution", func(tx query.Tx) error {
		return s.edges.CreateAttribution(ctx, tx, a)
	})
}

// CreateAssociation validates and persists a, rejecting a duplicate pair.
func (s *Store) CreateAssociation(ctx context.Context, a *model.Association) error {
	return s.withTx(ctx, "CreateAssociation", func(tx query.Tx) error {
		return s.edges.CreateAssociation(ctx, tx, a)
	})
}

// FindContextsByArtifact returns the context ids attributed to artifactID.
func (s *Store) FindContextsByArtifact(ctx context.Context, artifactID int64) ([]int64, error) {
	var ids []int64
	err := s.withTx(ctx, "FindContextsByArtifact", func(tx query.Tx) error {
		var err error
		ids, err = s.edges.FindContextsByArtifact(ctx, tx, artifactID)
		return err
	})
	return ids, err
}

// FindArtifactsByContext returns the artifact ids attributed to contextID.
func (s *Store) FindArtifactsByContext(ctx context.Context, contextID int64) ([]int64, error) {
	var ids []int64
	err := s.withTx(ctx, "FindArtifactsByContext", func(tx query.Tx) error {
		var err error
		ids, err = s.edges.FindArtifactsByContext(ctx, tx, contextID)
		return err
	})
	return ids, err
}

// FindContextsByExecution returns the context ids associated with executionID.
func (s *Store) FindContextsByExecution(ctx context.Context, executionID int64) ([]int64, error) {
	var ids []int64
	err := s.withTx(ctx, "FindContextsByExecution", func(tx query.Tx) error {
		var err error
		ids, err = s.edges.FindContextsByExecution(ctx, tx, executionID)
		return err
	})
	return ids, err
}

// FindExecutionsByContext returns the execution ids associated with contextID.
func (s *Store) FindExecutionsByContext(ctx context.Context, contextID int64) ([]int64, error) {
	var ids []int64
	err := s.withTx(ctx, "FindExecutionsByContext", func(tx query.Tx) error {
		var err error
		ids, err = s.edges.FindExecutionsByContext(ctx, tx, contextID)
		return err
	})
	return ids, err
}
