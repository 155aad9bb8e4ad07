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

// Package mlmd composes the Type Manager, Node Manager, Edge Manager and
// Migration Engine behind a single Store: the MAO Facade. Every public
// method runs inside its own short transaction against the configured
// query.Executor.
package mlmd

import (
	"context"

	"github.com/covenant-labs/mlmd-core/edgemgr"
	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/metrics"
	"github.com/covenant-labs/mlmd-core/migrate"
	"github.com/covenant-labs/mlmd-core/nodemgr"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/typemgr"
	"github.com/covenant-labs/mlmd-core/utils/log"
)

// Store is the MAO Facade: the public surface of this package.
type Store struct {
	executor   query.Executor
	migration  *migrate.Engine
	types      *typemgr.Manager
	artifacts  *nodemgr.Manager
	executions *nodemgr.Manager
	contexts   *nodemgr.Manager
	edges      *edgemgr.Manager
	collector  *metrics.Collector
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithCollector attaches a prometheus collector that every operation
// reports its outcome to. Registering it with a prometheus.Registerer is
// the caller's responsibility.
func WithCollector(c *metrics.Collector) Option {
	return func(s *Store) { s.collector = c }
}

// New builds a Store over executor. It does not touch the database; call
// InitMetadataSourceIfNotExists before issuing other operations.
func New(executor query.Executor, opts ...Option) *Store {
	types := typemgr.New()
	s := &Store{
		executor:   executor,
		migration:  migrate.New(executor),
		types:      types,
		artifacts:  nodemgr.NewArtifactManager(types),
		executions: nodemgr.NewExecutionManager(types),
		contexts:   nodemgr.NewContextManager(types),
		edges:      edgemgr.New(),
		collector:  metrics.NewCollector(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitMetadataSourceIfNotExists runs the Migration Engine's init
// protocol (see migrate.Engine).
func (s *Store) InitMetadataSourceIfNotExists(ctx context.Context, enableUpgradeMigration bool) error {
	err := s.migration.InitMetadataSourceIfNotExists(ctx, enableUpgradeMigration)
	s.observe("InitMetadataSourceIfNotExists", err)
	return err
}

// InitMetadataSource applies the library schema's DDL to the store (see
// migrate.Engine.InitMetadataSource).
func (s *Store) InitMetadataSource(ctx context.Context) error {
	err := s.migration.InitMetadataSource(ctx)
	s.observe("InitMetadataSource", err)
	return err
}

// DowngradeMetadataSource runs the Migration Engine's downgrade protocol.
func (s *Store) DowngradeMetadataSource(ctx context.Context, toVersion int) error {
	err := s.migration.DowngradeMetadataSource(ctx, toVersion)
	s.observe("DowngradeMetadataSource", err)
	return err
}

// GetSchemaVersion returns the stored schema version.
func (s *Store) GetSchemaVersion(ctx context.Context) (int, error) {
	return s.migration.GetSchemaVersion(ctx)
}

// GetLibraryVersion returns the highest schema version this binary
// supports.
func (s *Store) GetLibraryVersion() int {
	return s.migration.GetLibraryVersion()
}

func (s *Store) observe(op string, err error) {
	code := mlmderrors.Code(err).String()
	s.collector.ObserveOperation(op, code)
	if err != nil {
		log.Debugf("mlmd: %s failed: %v", op, err)
	}
}

// withTx runs fn inside a fresh transaction, committing on success and
// rolling back on any error fn returns. Per the failed-statement
// semantics documented on query.Tx.Rollback, a caller whose
// transaction errors mid-flight must not reuse it; withTx always starts
// a brand new one for the next call.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx query.Tx) error) error {
	tx, err := s.executor.Begin(ctx)
	if err != nil {
		s.observe(op, err)
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		s.observe(op, err)
		return err
	}

	err = tx.Commit()
	s.observe(op, err)
	return err
}
