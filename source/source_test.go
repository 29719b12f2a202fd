// Copyright 2026 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stockparfait/logging"
	"github.com/stockparfait/prism/config"
	"github.com/stockparfait/prism/panel"
	"github.com/stockparfait/stockparfait/db"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSource(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_source")
	defer os.RemoveAll(tmpdir)

	Convey("Test setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	d := func(date string) db.Date {
		res, err := db.NewDateFromString(date)
		if err != nil {
			panic(err)
		}
		return res
	}
	price := func(date string, p float32) db.PriceRow {
		return db.TestPrice(d(date), p, p, p, 1000.0, true)
	}

	Convey("LoadCSV works", t, func() {
		Convey("the usual case", func() {
			p, err := LoadCSV(strings.NewReader(`date,AAPL,MSFT
2020-01-02, 100, 200
2020-01-03,,201
2020-01-06,102,NaN
`))
			So(err, ShouldBeNil)
			So(p.Tickers, ShouldResemble, []string{"AAPL", "MSFT"})
			So(p.DateStrings(), ShouldResemble,
				[]string{"2020-01-02", "2020-01-03", "2020-01-06"})
			So(p.Values[0][0], ShouldEqual, 100.0)
			So(math.IsNaN(p.Values[0][1]), ShouldBeTrue)
			So(p.Values[0][2], ShouldEqual, 102.0)
			So(p.Values[1][:2], ShouldResemble, []float64{200, 201})
			So(math.IsNaN(p.Values[1][2]), ShouldBeTrue)
		})

		Convey("header only", func() {
			p, err := LoadCSV(strings.NewReader("date,A\n"))
			So(err, ShouldBeNil)
			So(p.Len(), ShouldEqual, 0)
			So(p.NumSeries(), ShouldEqual, 1)
		})

		Convey("unsorted dates", func() {
			_, err := LoadCSV(strings.NewReader("date,A\n2020-01-03,1\n2020-01-02,2\n"))
			So(err, ShouldHaveSameTypeAs, &panel.InvalidPanelError{})
		})

		Convey("bad value", func() {
			_, err := LoadCSV(strings.NewReader("date,A\n2020-01-03,x\n"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "bad value for A in row 2")
		})

		Convey("bad date", func() {
			_, err := LoadCSV(strings.NewReader("date,A\nyesterday,1\n"))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "bad date in row 2")

			for _, d := range []string{"2020-13-01", "2020/01/02", "2020-01-32", ""} {
				_, err = LoadCSV(strings.NewReader("date,A\n2020-01-02,1\n" + d + ",2\n"))
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "bad date in row 3")
			}
		})

		Convey("no tickers", func() {
			_, err := LoadCSV(strings.NewReader("date\n2020-01-03\n"))
			So(err, ShouldNotBeNil)
		})

		Convey("from a file", func() {
			path := filepath.Join(tmpdir, "prices.csv")
			So(os.WriteFile(path, []byte("date,A\n2020-01-02,1\n2020-01-03,2\n"), 0644),
				ShouldBeNil)
			var c config.Source
			So(c.InitMessage(testutil.JSON(fmt.Sprintf(`{"csv": "%s"}`, path))),
				ShouldBeNil)
			p, err := Load(context.Background(), &c)
			So(err, ShouldBeNil)
			So(p.Values, ShouldResemble, [][]float64{{1, 2}})

			_, err = LoadCSVFile(filepath.Join(tmpdir, "missing.csv"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("LoadDB works", t, func() {
		ctx := context.Background()
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		dbName := "db"
		tickers := map[string]db.TickerRow{
			"A": {},
			"B": {},
		}
		prices := map[string][]db.PriceRow{
			"A": {
				price("2020-01-02", 10),
				price("2020-01-03", 11),
				price("2020-01-06", 12),
			},
			"B": {
				price("2020-01-03", 20),
				price("2020-01-07", 22),
			},
		}
		w := db.NewWriter(tmpdir, dbName)
		So(w.WriteTickers(tickers), ShouldBeNil)
		for t, p := range prices {
			So(w.WritePrices(t, p), ShouldBeNil)
		}

		var c config.Source
		So(c.InitMessage(testutil.JSON(fmt.Sprintf(`
{
  "db": {"DB path": "%s", "DB": "%s"},
  "tickers": ["B", "A"]
}`, tmpdir, dbName))), ShouldBeNil)

		p, err := Load(ctx, &c)
		So(err, ShouldBeNil)
		So(p.Tickers, ShouldResemble, []string{"B", "A"})
		So(p.DateStrings(), ShouldResemble, []string{
			"2020-01-02", "2020-01-03", "2020-01-06", "2020-01-07"})
		So(math.IsNaN(p.Values[0][0]), ShouldBeTrue)
		So(p.Values[0][1], ShouldEqual, 20.0)
		So(math.IsNaN(p.Values[0][2]), ShouldBeTrue)
		So(p.Values[0][3], ShouldEqual, 22.0)
		So(p.Values[1][:3], ShouldResemble, []float64{10, 11, 12})
		So(math.IsNaN(p.Values[1][3]), ShouldBeTrue)
	})
}
