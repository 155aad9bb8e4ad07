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

package schema

// v0DDL is the historical "v0.13.2" layout: no MLMDEnv table, no
// Context/Attribution/Association/Event tables, and no input_type/
// output_type columns on Type. The Migration Engine recognizes a store
// with these tables and no MLMDEnv as being at version 0.
var v0DDL = []string{
	"CREATE TABLE IF NOT EXISTS `Type` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`name` TEXT NOT NULL, " +
		"`type_kind` INTEGER NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `TypeProperty` (" +
		"`type_id` INTEGER NOT NULL, " +
		"`name` TEXT NOT NULL, " +
		"`data_type` INTEGER NOT NULL, " +
		"PRIMARY KEY (`type_id`, `name`))",
	"CREATE TABLE IF NOT EXISTS `Artifact` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`type_id` INTEGER NOT NULL, " +
		"`uri` TEXT)",
	"CREATE TABLE IF NOT EXISTS `ArtifactProperty` (" +
		"`artifact_id` INTEGER NOT NULL, " +
		"`name` TEXT NOT NULL, " +
		"`is_custom_property` INTEGER NOT NULL, " +
		"`int_value` INTEGER, " +
		"`double_value` REAL, " +
		"`string_value` TEXT, " +
		"PRIMARY KEY (`artifact_id`, `name`, `is_custom_property`))",
	"CREATE TABLE IF NOT EXISTS `Execution` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`type_id` INTEGER NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `ExecutionProperty` (" +
		"`execution_id` INTEGER NOT NULL, " +
		"`name` TEXT NOT NULL, " +
		"`is_custom_property` INTEGER NOT NULL, " +
		"`int_value` INTEGER, " +
		"`double_value` REAL, " +
		"`string_value` TEXT, " +
		"PRIMARY KEY (`execution_id`, `name`, `is_custom_property`))",
}

// v0RequiredTables are the tables InitMetadataSourceIfNotExists checks
// for when it decides a store with no MLMDEnv table is genuinely at
// version 0 rather than corrupt.
var v0RequiredTables = []string{"Type", "TypeProperty", "Artifact", "ArtifactProperty", "Execution", "ExecutionProperty"}

// v1Additions brings in Context and the edge tables, the Environment
// table, and the Type signature-blob columns used by ExecutionType.
var v1Additions = []string{
	"ALTER TABLE `Type` ADD COLUMN `input_type` BLOB",
	"ALTER TABLE `Type` ADD COLUMN `output_type` BLOB",
	"CREATE TABLE IF NOT EXISTS `Context` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`type_id` INTEGER NOT NULL, " +
		"`name` TEXT NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `ContextProperty` (" +
		"`context_id` INTEGER NOT NULL, " +
		"`name` TEXT NOT NULL, " +
		"`is_custom_property` INTEGER NOT NULL, " +
		"`int_value` INTEGER, " +
		"`double_value` REAL, " +
		"`string_value` TEXT, " +
		"PRIMARY KEY (`context_id`, `name`, `is_custom_property`))",
	"CREATE TABLE IF NOT EXISTS `Attribution` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`artifact_id` INTEGER NOT NULL, " +
		"`context_id` INTEGER NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `Association` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`execution_id` INTEGER NOT NULL, " +
		"`context_id` INTEGER NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `Event` (" +
		"`id` INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"`artifact_id` INTEGER NOT NULL, " +
		"`execution_id` INTEGER NOT NULL, " +
		"`type` INTEGER NOT NULL, " +
		"`milliseconds_since_epoch` INTEGER NOT NULL)",
	"CREATE TABLE IF NOT EXISTS `EventPath` (" +
		"`event_id` INTEGER NOT NULL, " +
		"`step_index` INTEGER NOT NULL, " +
		"`is_index_step` INTEGER NOT NULL, " +
		"`step_index_value` INTEGER, " +
		"`step_key_value` TEXT, " +
		"PRIMARY KEY (`event_id`, `step_index`))",
	"CREATE TABLE IF NOT EXISTS `MLMDEnv` (`schema_version` INTEGER NOT NULL)",
	"INSERT INTO `MLMDEnv` (`schema_version`) VALUES (1)",
}

var v1Downgrade = []string{
	"DROP TABLE IF EXISTS `EventPath`",
	"DROP TABLE IF EXISTS `Event`",
	"DROP TABLE IF EXISTS `Association`",
	"DROP TABLE IF EXISTS `Attribution`",
	"DROP TABLE IF EXISTS `ContextProperty`",
	"DROP TABLE IF EXISTS `Context`",
	"DROP TABLE IF EXISTS `MLMDEnv`",
}

var v1RequiredTables = append(append([]string{}, v0RequiredTables...),
	"Context", "ContextProperty", "Attribution", "Association", "Event", "EventPath", "MLMDEnv")

// v2Additions is the library version: uniqueness indices that let the
// engine itself surface ALREADY_EXISTS on duplicate type names, context
// names, and edge pairs instead of the managers precheck-then-inserting.
var v2Additions = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS `idx_type_name_kind` ON `Type` (`name`, `type_kind`)",
	"CREATE UNIQUE INDEX IF NOT EXISTS `idx_context_type_name` ON `Context` (`type_id`, `name`)",
	"CREATE UNIQUE INDEX IF NOT EXISTS `idx_attribution_pair` ON `Attribution` (`artifact_id`, `context_id`)",
	"CREATE UNIQUE INDEX IF NOT EXISTS `idx_association_pair` ON `Association` (`execution_id`, `context_id`)",
	"UPDATE `MLMDEnv` SET `schema_version` = 2",
}

var v2Downgrade = []string{
	"DROP INDEX IF EXISTS `idx_type_name_kind`",
	"DROP INDEX IF EXISTS `idx_context_type_name`",
	"DROP INDEX IF EXISTS `idx_attribution_pair`",
	"DROP INDEX IF EXISTS `idx_association_pair`",
	"UPDATE `MLMDEnv` SET `schema_version` = 1",
}

func fullDDL(parts ...[]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func buildRegistry() map[int]Scheme {
	v1DDL := fullDDL(v0DDL, v1Additions)
	v2Full := fullDDL(v1DDL, []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS `idx_type_name_kind` ON `Type` (`name`, `type_kind`)",
		"CREATE UNIQUE INDEX IF NOT EXISTS `idx_context_type_name` ON `Context` (`type_id`, `name`)",
		"CREATE UNIQUE INDEX IF NOT EXISTS `idx_attribution_pair` ON `Attribution` (`artifact_id`, `context_id`)",
		"CREATE UNIQUE INDEX IF NOT EXISTS `idx_association_pair` ON `Association` (`execution_id`, `context_id`)",
		"UPDATE `MLMDEnv` SET `schema_version` = 2",
	})

	return map[int]Scheme{
		0: {
			DDL:            v0DDL,
			RequiredTables: v0RequiredTables,
		},
		1: {
			DDL:       v1DDL,
			Upgrade:   v1Additions,
			Downgrade: v1Downgrade,
			UpgradeVerification: &Verification{
				PreviousVersionSetupQueries: []string{
					"INSERT INTO `Type` (`name`, `type_kind`) VALUES ('v0_setup_type', 0)",
				},
				PostMigrationVerificationQueries: []string{
					"SELECT CASE WHEN COUNT(*) = 1 THEN 1 ELSE 0 END FROM `MLMDEnv`",
					"SELECT CASE WHEN COUNT(*) = 1 THEN 1 ELSE 0 END FROM `Type` WHERE `name` = 'v0_setup_type'",
				},
			},
			DowngradeVerification: &Verification{
				PostMigrationVerificationQueries: []string{
					"SELECT CASE WHEN COUNT(*) = 0 THEN 1 ELSE 0 END FROM `sqlite_master` WHERE `type` = 'table' AND `name` = 'Context'",
					"SELECT CASE WHEN COUNT(*) = 0 THEN 1 ELSE 0 END FROM `sqlite_master` WHERE `type` = 'table' AND `name` = 'MLMDEnv'",
				},
			},
			RequiredTables: v1RequiredTables,
		},
		2: {
			DDL:       v2Full,
			Upgrade:   v2Additions,
			Downgrade: v2Downgrade,
			UpgradeVerification: &Verification{
				PostMigrationVerificationQueries: []string{
					"SELECT CASE WHEN COUNT(*) = 1 THEN 1 ELSE 0 END FROM `sqlite_master` WHERE `type` = 'index' AND `name` = 'idx_type_name_kind'",
				},
			},
			DowngradeVerification: &Verification{
				PostMigrationVerificationQueries: []string{
					"SELECT CASE WHEN COUNT(*) = 0 THEN 1 ELSE 0 END FROM `sqlite_master` WHERE `type` = 'index' AND `name` = 'idx_type_name_kind'",
				},
			},
			RequiredTables: v1RequiredTables,
		},
	}
}
