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

// Command mlmd-migrate drives InitMetadataSourceIfNotExists and
// DowngradeMetadataSource against a configured store, the way cmd/cql's
// smaller utilities wrap a single client.Client operation behind flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/covenant-labs/mlmd-core/conf"
	"github.com/covenant-labs/mlmd-core/metrics"
	"github.com/covenant-labs/mlmd-core/mlmd"
	"github.com/covenant-labs/mlmd-core/query/sqlstore"
	"github.com/covenant-labs/mlmd-core/utils/log"
)

const name = "mlmd-migrate"

var (
	version     = "unknown"
	configFile  string
	downgradeTo int
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "./mlmd.yaml", "Configuration file for mlmd-migrate")
	flag.IntVar(&downgradeTo, "downgrade-to", -1, "Downgrade the store to this schema version instead of upgrading")
	flag.BoolVar(&showVersion, "version", false, "Show version information and exit")
}

func main() {
	flag.Parse()
	if showVersion {
		fmt.Printf("%v %v %v %v %v\n", name, version, runtime.GOOS, runtime.GOARCH, runtime.Version())
		os.Exit(0)
	}

	cfg, err := conf.LoadConfigFile(configFile)
	if err != nil {
		log.Fatalf("load config %s: %v", configFile, err)
	}
	log.SetStringLevel(cfg.LogLevel, log.InfoLevel)

	driver, dsn, err := cfg.Driver()
	if err != nil {
		log.Fatalf("resolve DSN: %v", err)
	}

	executor, err := sqlstore.Open(driver, dsn)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer executor.Close()

	store := mlmd.New(executor, mlmd.WithCollector(metrics.NewCollector(cfg.MetricsNamespace)))
	ctx := context.Background()

	if downgradeTo >= 0 {
		if err := store.DowngradeMetadataSource(ctx, downgradeTo); err != nil {
			log.Fatalf("downgrade to %d: %v", downgradeTo, err)
		}
		log.Infof("%s: downgraded store to schema_version=%d", name, downgradeTo)
		return
	}

	if err := store.InitMetadataSourceIfNotExists(ctx, cfg.EnableUpgradeMigration); err != nil {
		log.Fatalf("init metadata source: %v", err)
	}

	v, err := store.GetSchemaVersion(ctx)
	if err != nil {
		log.Fatalf("read schema version: %v", err)
	}
	log.Infof("%s: store is at schema_version=%d (library=%d)", name, v, store.GetLibraryVersion())
}
