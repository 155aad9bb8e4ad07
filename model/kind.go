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

// Package model defines the domain types shared by every manager: type
// kinds, property value kinds, and the node/edge entities themselves.
package model

// TypeKind distinguishes the three families of user-declared Type: an
// ArtifactType, an ExecutionType, or a ContextType. A Type exists in
// exactly one kind; two types in different kinds may share a name.
type TypeKind int

const (
	// ArtifactType is the kind of types that describe Artifact instances.
	ArtifactType TypeKind = iota
	// ExecutionType is the kind of types that describe Execution instances.
	ExecutionType
	// ContextType is the kind of types that describe Context instances.
	ContextType
)

// String renders the kind the way table/log output expects it.
func (k TypeKind) String() string {
	switch k {
	case ArtifactType:
		return "ARTIFACT"
	case ExecutionType:
		return "EXECUTION"
	case ContextType:
		return "CONTEXT"
	default:
		return "UNKNOWN_KIND"
	}
}

// TableName returns the node table backing instances of this kind.
func (k TypeKind) TableName() string {
	switch k {
	case ArtifactType:
		return "Artifact"
	case ExecutionType:
		return "Execution"
	case ContextType:
		return "Context"
	default:
		return ""
	}
}

// PropertyTableName returns the property table backing instances of this kind.
func (k TypeKind) PropertyTableName() string {
	switch k {
	case ArtifactType:
		return "ArtifactProperty"
	case ExecutionType:
		return "ExecutionProperty"
	case ContextType:
		return "ContextProperty"
	default:
		return ""
	}
}
