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

package model

// EventType enumerates the role an Artifact plays in an Execution.
type EventType int

const (
	// UnknownEvent is the zero value; CreateEvent rejects it.
	UnknownEvent EventType = iota
	// InputEvent marks the Artifact as consumed by the Execution.
	InputEvent
	// OutputEvent marks the Artifact as produced by the Execution.
	OutputEvent
	// DeclaredInputEvent marks an intended-but-not-yet-bound input.
	DeclaredInputEvent
	// DeclaredOutputEvent marks an intended-but-not-yet-bound output.
	DeclaredOutputEvent
)

// String implements fmt.Stringer.
func (t EventType) String() string {
	switch t {
	case InputEvent:
		return "INPUT"
	case OutputEvent:
		return "OUTPUT"
	case DeclaredInputEvent:
		return "DECLARED_INPUT"
	case DeclaredOutputEvent:
		return "DECLARED_OUTPUT"
	default:
		return "UNKNOWN"
	}
}

// StepKind distinguishes the two ways a PathStep may address a structured
// artifact: by integer index or by string key.
type StepKind int

const (
	// IndexStep addresses an element of a list-like structure.
	IndexStep StepKind = iota
	// KeyStep addresses an element of a map-like structure.
	KeyStep
)

// PathStep is one element of an Event's Path. Exactly one of Index/Key is
// meaningful, selected by Kind.
type PathStep struct {
	Kind  StepKind
	Index int64
	Key   string
}

// Event is an edge between an Artifact and an Execution, optionally
// carrying a structured Path describing where within the Artifact the
// Execution consumed or produced data.
type Event struct {
	ArtifactID            int64
	ExecutionID           int64
	Type                  EventType
	MillisecondsSinceEpoch int64
	Path                  []PathStep
}

// Attribution is an undirected edge between an Artifact and a Context.
type Attribution struct {
	ArtifactID int64
	ContextID  int64
}

// Association is an undirected edge between an Execution and a Context.
type Association struct {
	ExecutionID int64
	ContextID   int64
}
