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

// Package schema is the static, compile-time-embedded bundle of DDL and
// migration scripts, keyed by integer schema version. It is immutable
// data; nothing here touches a database connection.
package schema

// Verification holds the query groups used by migration round-trip
// tests: setup queries that materialise the pre-migration state, and
// verification queries that must each return a single truthy row once
// the migration under test has run.
type Verification struct {
	PreviousVersionSetupQueries     []string
	PostMigrationVerificationQueries []string
}

// Scheme is one version's entry in the registry.
type Scheme struct {
	// DDL creates the full schema at this version, starting from empty.
	DDL []string
	// Upgrade transitions a database from Version-1 to Version.
	Upgrade []string
	// Downgrade transitions a database from Version to Version-1.
	Downgrade []string
	// UpgradeVerification is nil for v0, which cannot be upgraded into
	// (it is the pre-Environment-table baseline).
	UpgradeVerification *Verification
	// DowngradeVerification is nil for v0, since downgrading below it
	// is not defined.
	DowngradeVerification *Verification
	// RequiredTables lists the tables InitMetadataSourceIfNotExists must
	// find present for a store already at this version to be considered
	// non-corrupt.
	RequiredTables []string
}

// MinimumVersion is the lowest version the Migration Engine recognizes.
// Version 0 is the historical "v0.13.2" layout: no MLMDEnv table at all.
const MinimumVersion = 0

// LibraryVersion is the highest version this binary knows how to
// produce; InitMetadataSourceIfNotExists brings a fresh store here.
const LibraryVersion = 2

var registry = buildRegistry()

// DDL returns the ordered list of queries that creates the schema at
// version from empty, or (nil, false) if version is not registered.
func DDL(version int) ([]string, bool) {
	s, ok := registry[version]
	if !ok {
		return nil, false
	}
	return s.DDL, true
}

// Upgrade returns the ordered list of queries that upgrades a database
// from version-1 to version, or (nil, false) if version is not
// registered or has no upgrade path (version 0).
func Upgrade(version int) ([]string, bool) {
	s, ok := registry[version]
	if !ok || s.Upgrade == nil {
		return nil, false
	}
	return s.Upgrade, true
}

// Downgrade returns the ordered list of queries that downgrades a
// database from version to version-1, or (nil, false) if version is not
// registered or has no downgrade path (version 0).
func Downgrade(version int) ([]string, bool) {
	s, ok := registry[version]
	if !ok || s.Downgrade == nil {
		return nil, false
	}
	return s.Downgrade, true
}

// UpgradeVerification returns the verification query group for
// upgrading into version, if one is registered.
func UpgradeVerification(version int) (*Verification, bool) {
	s, ok := registry[version]
	if !ok || s.UpgradeVerification == nil {
		return nil, false
	}
	return s.UpgradeVerification, true
}

// DowngradeVerification returns the verification query group for
// downgrading out of version, if one is registered.
func DowngradeVerification(version int) (*Verification, bool) {
	s, ok := registry[version]
	if !ok || s.DowngradeVerification == nil {
		return nil, false
	}
	return s.DowngradeVerification, true
}

// RequiredTables returns the tables that must exist for a store already
// recorded at version to be considered structurally sound.
func RequiredTables(version int) ([]string, bool) {
	s, ok := registry[version]
	if !ok {
		return nil, false
	}
	return s.RequiredTables, true
}

// Registered reports whether version has a registry entry at all.
func Registered(version int) bool {
	_, ok := registry[version]
	return ok
}
