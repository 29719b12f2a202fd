// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/logging"
	"github.com/stockparfait/prism"
	"github.com/stockparfait/prism/export"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()
	tmpdir, tmpdirErr := os.MkdirTemp("", "test_prism")
	defer os.RemoveAll(tmpdir)

	Convey("Test setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{"-conf", "c.json", "-log-level", "warning"})
		So(err, ShouldBeNil)
		So(flags.Config, ShouldEqual, "c.json")
		So(flags.LogLevel, ShouldEqual, logging.Warning)

		_, err = parseFlags([]string{})
		So(err, ShouldNotBeNil)
	})

	Convey("run a batch end to end", t, func() {
		csvPath := filepath.Join(tmpdir, "prices.csv")
		So(os.WriteFile(csvPath, []byte(`date,B,A
2020-01-02,10,20
2020-01-03,11,19
2020-01-06,12.5,21
2020-01-07,12,22
2020-01-08,11,20
`), 0644), ShouldBeNil)
		outDir := filepath.Join(tmpdir, "out")
		confPath := filepath.Join(tmpdir, "config.json")
		So(os.WriteFile(confPath, []byte(fmt.Sprintf(`
{
  "data": {"csv": "%s"},
  "output_dir": "%s",
  "min_trading_days": 3,
  "min_window": 2,
  "pairs": [["A", "B"]]
}`, csvPath, outDir)), 0644), ShouldBeNil)

		flags, err := parseFlags([]string{"-conf", confPath})
		So(err, ShouldBeNil)

		ctx := context.Background()
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		values := make(prism.Values)
		ctx = prism.UseValues(ctx, values)

		So(run(ctx, flags), ShouldBeNil)
		So(values["years"], ShouldEqual, "2020")
		So(values["surfaces"], ShouldEqual, "1")

		data, err := os.ReadFile(filepath.Join(outDir, export.ManifestFile))
		So(err, ShouldBeNil)
		man, err := export.ParseManifest(data)
		So(err, ShouldBeNil)
		e, ok := man.Entry(2020)
		So(ok, ShouldBeTrue)
		So(e.NTickers, ShouldEqual, 2)
		So(e.NDays, ShouldEqual, 4)
	})

	Convey("run fails on a missing config", t, func() {
		ctx := context.Background()
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		So(run(ctx, &Flags{Config: filepath.Join(tmpdir, "missing.json")}), ShouldNotBeNil)
	})
}
