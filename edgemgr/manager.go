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

// Package edgemgr implements CRUD for Event, Attribution and
// Association edges, plus the reverse-lookup queries that join them back
// to Artifact/Execution/Context.
package edgemgr

import (
	"context"
	"time"

	mlmderrors "github.com/covenant-labs/mlmd-core/errors"
	"github.com/covenant-labs/mlmd-core/model"
	"github.com/covenant-labs/mlmd-core/query"
	"github.com/covenant-labs/mlmd-core/utils"
)

// nowMillis is the wall-clock source for Event.MillisecondsSinceEpoch
// when the caller does not supply one. It is a var so tests can pin it.
var nowMillis = func() int64 { return time.Now().UnixNano() / int64(time.Millisecond) }

// Manager is the Edge Manager.
type Manager struct{}

// New builds an Edge Manager.
func New() *Manager { return &Manager{} }

func rowExists(ctx context.Context, tx query.Tx, table string, id int64) (bool, error) {
	rs, err := tx.Query(ctx, query.Q("SELECT `id` FROM `"+table+"` WHERE `id` = ?", id))
	if err != nil {
		return false, mlmderrors.Internal("check existence in %s: %v", table, err)
	}
	return rs.NumRows() > 0, nil
}

// CreateEvent validates and persists e, assigning MillisecondsSinceEpoch
// if the caller left it unset.
func (m *Manager) CreateEvent(ctx context.Context, tx query.Tx, e *model.Event) error {
	if e.ArtifactID == 0 || e.ExecutionID == 0 || e.Type == model.UnknownEvent {
		return mlmderrors.InvalidArgument("event requires artifact_id, execution_id and a known type")
	}

	if ok, err := rowExists(ctx, tx, "Artifact", e.ArtifactID); err != nil {
		return err
	} else if !ok {
		return mlmderrors.InvalidArgument("event: artifact_id %d does not exist", e.ArtifactID)
	}
	if ok, err := rowExists(ctx, tx, "Execution", e.ExecutionID); err != nil {
		return err
	} else if !ok {
		return mlmderrors.InvalidArgument("event: execution_id %d does not exist", e.ExecutionID)
	}

	if e.MillisecondsSinceEpoch == 0 {
		e.MillisecondsSinceEpoch = nowMillis()
	}

	id, _, err := tx.Exec(ctx, query.Q(
		"INSERT INTO `Event` (`artifact_id`, `execution_id`, `type`, `milliseconds_since_epoch`) VALUES (?, ?, ?, ?)",
		e.ArtifactID, e.ExecutionID, int(e.Type), e.MillisecondsSinceEpoch))
	if err != nil {
		return mlmderrors.Internal("insert event: %v", err)
	}

	for i, step := range e.Path {
		var indexVal, keyVal interface{}
		isIndex := 0
		if step.Kind == model.IndexStep {
			isIndex = 1
			indexVal = step.Index
		} else {
			keyVal = step.Key
		}
		if _, _, err := tx.Exec(ctx, query.Q(
			"INSERT INTO `EventPath` (`event_id`, `step_index`, `is_index_step`, `step_index_value`, `step_key_value`) VALUES (?, ?, ?, ?, ?)",
			id, i, isIndex, indexVal, keyVal)); err != nil {
			return mlmderrors.Internal("insert event path step %d: %v", i, err)
		}
	}

	return nil
}

func (m *Manager) loadEvents(ctx context.Context, tx query.Tx, where string, arg int64) ([]*model.Event, error) {
	rs, err := tx.Query(ctx, query.Q(
		"SELECT `id`, `artifact_id`, `execution_id`, `type`, `milliseconds_since_epoch` FROM `Event` WHERE "+where+" = ?", arg))
	if err != nil {
		return nil, mlmderrors.Internal("find events: %v", err)
	}

	events := make([]*model.Event, 0, rs.NumRows())
	for _, row := range rs.Rows {
		eventID := utils.MustParseInt64(row[0])
		e := &model.Event{
			ArtifactID:             utils.MustParseInt64(row[1]),
			ExecutionID:            utils.MustParseInt64(row[2]),
			Type:                   model.EventType(utils.MustParseInt(row[3])),
			MillisecondsSinceEpoch: utils.MustParseInt64(row[4]),
		}

		pathRS, err := tx.Query(ctx, query.Q(
			"SELECT `is_index_step`, `step_index_value`, `step_key_value` FROM `EventPath` WHERE `event_id` = ? ORDER BY `step_index` ASC",
			eventID))
		if err != nil {
			return nil, mlmderrors.Internal("load event path: %v", err)
		}
		for _, p := range pathRS.Rows {
			if utils.MustParseInt(p[0]) != 0 {
				e.Path = append(e.Path, model.PathStep{Kind: model.IndexStep, Index: utils.MustParseInt64(p[1])})
			} else {
				e.Path = append(e.Path, model.PathStep{Kind: model.KeyStep, Key: utils.StringOrEmpty(p[2])})
			}
		}

		events = append(events, e)
	}
	return events, nil
}

// FindEventsByArtifact returns every event touching artifactID.
func (m *Manager) FindEventsByArtifact(ctx context.Context, tx query.Tx, artifactID int64) ([]*model.Event, error) {
	return m.loadEvents(ctx, tx, "`artifact_id`", artifactID)
}

// FindEventsByExecution returns every event touching executionID.
func (m *Manager) FindEventsByExecution(ctx context.Context, tx query.Tx, executionID int64) ([]*model.Event, error) {
	return m.loadEvents(ctx, tx, "`execution_id`", executionID)
}

// CreateAttribution validates and persists a, rejecting a duplicate pair.
func (m *Manager) CreateAttribution(ctx context.Context, tx query.Tx, a *model.Attribution) error {
	if a.ArtifactID == 0 || a.ContextID == 0 {
		return mlmderrors.InvalidArgument("attribution requires artifact_id and context_id")
	}
	if ok, err := rowExists(ctx, tx, "Artifact", a.ArtifactID); err != nil {
		return err
	} else if !ok {
		return mlmderrors.InvalidArgument("attribution: artifact_id %d does not exist", a.ArtifactID)
	}
	if ok, err := rowExists(ctx, tx, "Context", a.ContextID); err != nil {
		return err
	} else if !ok {
		return mlmderrors.InvalidArgument("attribution: context_id %d does not exist", a.ContextID)
	}

	if _, _, err := tx.Exec(ctx, query.Q(
		"INSERT INTO `Attribution` (`artifact_id`, `context_id`) VALUES (?, ?)", a.ArtifactID, a.ContextID)); err != nil {
		return mlmderrors.AlreadyExists("attribution (artifact_id=%d, context_id=%d) already exists: %v", a.ArtifactID, a.ContextID, err)
	}
	return nil
}

// CreateAssociation validates and persists a, rejecting a duplicate pair.
func (m *Manager) CreateAssociation(ctx context.Context, tx query.Tx, a *model.Association) error {
	if a.ExecutionID == 0 || a.ContextID == 0 {
		return mlmderrors.InvalidArgument("association requires execution_id and context_id")
	}
	if ok, err := rowExists(ctx, tx, "Execution", a.ExecutionID); err != nil {
		return err
	} else if !ok {
		return mlmderrors.InvalidArgument("association: execution_id %d does not exist", a.ExecutionID)
	}
	if ok, err := rowExists(ctx, tx, "Context", a.ContextID); err != nil {
		return err
	} else if !ok {
		return mlmderrors.InvalidArgument("association: context_id %d does not exist", a.ContextID)
	}

	if _, _, err := tx.Exec(ctx, query.Q(
		"INSERT INTO `Association` (`execution_id`, `context_id`) VALUES (?, ?)", a.ExecutionID, a.ContextID)); err != nil {
		return mlmderrors.AlreadyExists("association (execution_id=%d, context_id=%d) already exists: %v", a.ExecutionID, a.ContextID, err)
	}
	return nil
}

// FindContextsByArtifact returns the context ids attributed to artifactID.
func (m *Manager) FindContextsByArtifact(ctx context.Context, tx query.Tx, artifactID int64) ([]int64, error) {
	return m.findIDs(ctx, tx, "SELECT `context_id` FROM `Attribution` WHERE `artifact_id` = ?", artifactID)
}

// FindArtifactsByContext returns the artifact ids attributed to contextID.
func (m *Manager) FindArtifactsByContext(ctx context.Context, tx query.Tx, contextID int64) ([]int64, error) {
	return m.findIDs(ctx, tx, "SELECT `artifact_id` FROM `Attribution` WHERE `context_id` = ?", contextID)
}

// FindContextsByExecution returns the context ids associated with executionID.
func (m *Manager) FindContextsByExecution(ctx context.Context, tx query.Tx, executionID int64) ([]int64, error) {
	return m.findIDs(ctx, tx, "SELECT `context_id` FROM `Association` WHERE `execution_id` = ?", executionID)
}

// FindExecutionsByContext returns the execution ids associated with contextID.
func (m *Manager) FindExecutionsByContext(ctx context.Context, tx query.Tx, contextID int64) ([]int64, error) {
	return m.findIDs(ctx, tx, "SELECT `execution_id` FROM `Association` WHERE `context_id` = ?", contextID)
}

func (m *Manager) findIDs(ctx context.Context, tx query.Tx, q string, arg int64) ([]int64, error) {
	rs, err := tx.Query(ctx, query.Q(q, arg))
	if err != nil {
		return nil, mlmderrors.Internal("reverse lookup: %v", err)
	}
	ids := make([]int64, 0, rs.NumRows())
	for _, row := range rs.Rows {
		ids = append(ids, utils.MustParseInt64(row[0]))
	}
	return ids, nil
}
