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

// Package errors defines the status taxonomy surfaced by every public
// mlmd operation. Kinds are borrowed from gRPC's status codes since they
// already cover the cases the access layer needs to distinguish.
package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InvalidArgument reports malformed input: a missing required field, an
// unknown property name on update, a value kind mismatch, or an UNKNOWN
// property data type.
func InvalidArgument(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// NotFound reports a lookup that found nothing: an unknown type/instance
// id or name, or a type referenced by Create that does not exist.
func NotFound(format string, args ...interface{}) error {
	return status.Errorf(codes.NotFound, format, args...)
}

// AlreadyExists reports a uniqueness violation: a duplicate type name
// within a kind, a duplicate context name within a type, a duplicate
// edge pair, or a property type redefinition on UpdateType.
func AlreadyExists(format string, args ...interface{}) error {
	return status.Errorf(codes.AlreadyExists, format, args...)
}

// FailedPrecondition reports a schema version mismatch at connect time.
func FailedPrecondition(format string, args ...interface{}) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}

// Aborted reports a corrupt store: a required table is missing, or the
// environment row is missing from an otherwise populated store.
func Aborted(format string, args ...interface{}) error {
	return status.Errorf(codes.Aborted, format, args...)
}

// Internal reports an implementation-level failure, such as a migration
// verification query that returned the wrong shape or a false result.
func Internal(format string, args ...interface{}) error {
	return status.Errorf(codes.Internal, format, args...)
}

// Code extracts the gRPC status code carried by err. Errors not produced
// by this package report codes.Unknown, matching status.Code's default.
func Code(err error) codes.Code {
	return status.Code(err)
}

// Is reports whether err carries the given status code.
func Is(err error, code codes.Code) bool {
	return status.Code(err) == code
}

// IsNotFound is a convenience wrapper around Is(err, codes.NotFound).
func IsNotFound(err error) bool { return Is(err, codes.NotFound) }

// IsAlreadyExists is a convenience wrapper around Is(err, codes.AlreadyExists).
func IsAlreadyExists(err error) bool { return Is(err, codes.AlreadyExists) }

// IsInvalidArgument is a convenience wrapper around Is(err, codes.InvalidArgument).
func IsInvalidArgument(err error) bool { return Is(err, codes.InvalidArgument) }

// WithMessage re-tags err with an additional prefix while preserving its
// status code, mirroring the semantics callers expect from pkg/errors but
// keeping the code intact so callers further up the stack can still
// switch on it.
func WithMessage(err error, msg string) error {
	if err == nil {
		return nil
	}
	return status.Error(Code(err), fmt.Sprintf("%s: %s", msg, status.Convert(err).Message()))
}
