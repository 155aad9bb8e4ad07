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

package conf

import (
	"io/ioutil"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeTempConfig(t *testing.T, body string) string {
	f, err := ioutil.TempFile("", "mlmd-conf-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(body); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	f.Close()
	return f.Name()
}

func TestLoadConfigFile(t *testing.T) {
	Convey("Given a well-formed config file", t, func() {
		path := writeTempConfig(t, `
DSN: sqlite3://metadata.db
EnableUpgradeMigration: true
LogLevel: info
MetricsNamespace: mlmd_test
`)
		defer os.Remove(path)

		Convey("LoadConfigFile parses it and sets GConf", func() {
			cfg, err := LoadConfigFile(path)
			So(err, ShouldBeNil)
			So(cfg.DSN, ShouldEqual, "sqlite3://metadata.db")
			So(cfg.EnableUpgradeMigration, ShouldBeTrue)
			So(cfg.MetricsNamespace, ShouldEqual, "mlmd_test")
			So(GConf, ShouldEqual, cfg)

			Convey("Driver splits the DSN into driver name and driver-native DSN", func() {
				driver, dsn, err := cfg.Driver()
				So(err, ShouldBeNil)
				So(driver, ShouldEqual, "sqlite3")
				So(dsn, ShouldEqual, "metadata.db")
			})
		})
	})

	Convey("Given a config file missing the required DSN", t, func() {
		path := writeTempConfig(t, "LogLevel: info\n")
		defer os.Remove(path)

		Convey("LoadConfigFile reports a validation error", func() {
			_, err := LoadConfigFile(path)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a path that does not exist", t, func() {
		Convey("LoadConfigFile reports a read error", func() {
			_, err := LoadConfigFile("/nonexistent/mlmd-conf.yaml")
			So(err, ShouldNotBeNil)
		})
	})
}
