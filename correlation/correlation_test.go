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

package correlation

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stockparfait/prism/panel"
	"github.com/stockparfait/stockparfait/db"

	. "github.com/smartystreets/goconvey/convey"
)

func testPanel(tickers []string, values [][]float64) *panel.Panel {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]db.Date, len(values[0]))
	for i := range dates {
		d, err := db.NewDateFromString(start.AddDate(0, 0, i).Format("2006-01-02"))
		if err != nil {
			panic(err)
		}
		dates[i] = d
	}
	p, err := panel.New(dates, tickers, values)
	if err != nil {
		panic(err)
	}
	return p
}

func TestCorrelation(t *testing.T) {
	t.Parallel()

	a := []float64{0.01, -0.02, 0.015, 0.00, 0.03, -0.01}
	b := []float64{0.02, -0.01, 0.01, 0.01, 0.025, -0.015}

	Convey("Round works", t, func() {
		So(Round(0.123456), ShouldEqual, 0.1235)
		So(Round(-0.99996), ShouldEqual, -1.0)
		So(Round(math.NaN()), ShouldEqual, 0.0)
		So(Round(math.Inf(1)), ShouldEqual, 0.0)
		So(Round(1.00002), ShouldEqual, 1.0)
	})

	Convey("IsConstant works", t, func() {
		So(IsConstant([]float64{0.1, 0.1, 0.1}), ShouldBeTrue)
		So(IsConstant([]float64{0.1, 0.1, 0.2}), ShouldBeFalse)
		So(IsConstant(nil), ShouldBeTrue)
	})

	Convey("Compute works", t, func() {
		Convey("known values", func() {
			neg := make([]float64, len(a))
			for i, v := range a {
				neg[i] = -2*v + 1
			}
			m, err := Compute(testPanel([]string{"A", "B", "N"}, [][]float64{a, b, neg}))
			So(err, ShouldBeNil)
			So(m.Tickers, ShouldResemble, []string{"A", "B", "N"})
			So(m.Values, ShouldResemble, [][]float64{
				{1, 0.8898, -1},
				{0.8898, 1, -0.8898},
				{-1, -0.8898, 1},
			})
			So(m.OffDiagonal(), ShouldResemble, []float64{0.8898, -1, -0.8898})
		})

		Convey("zero variance series correlate as 0", func() {
			c := []float64{0.01, 0.01, 0.01, 0.01, 0.01, 0.01}
			m, err := Compute(testPanel([]string{"A", "C"}, [][]float64{a, c}))
			So(err, ShouldBeNil)
			So(m.Values, ShouldResemble, [][]float64{{1, 0}, {0, 1}})
		})

		Convey("missing values are rejected", func() {
			c := []float64{0.01, math.NaN(), 0.01, 0.01, 0.01, 0.01}
			_, err := Compute(testPanel([]string{"A", "C"}, [][]float64{a, c}))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing value for C")
		})

		Convey("empty panel", func() {
			m, err := Compute(&panel.Panel{})
			So(err, ShouldBeNil)
			So(m.Size(), ShouldEqual, 0)
		})

		Convey("symmetry, range and determinism on random data", func() {
			r := rand.New(rand.NewSource(42))
			n, T := 12, 60
			tickers := make([]string, n)
			values := make([][]float64, n)
			for i := range values {
				tickers[i] = string(rune('A' + i))
				values[i] = make([]float64, T)
				for t := range values[i] {
					values[i][t] = r.NormFloat64() * 0.02
				}
			}
			p := testPanel(tickers, values)
			m, err := Compute(p)
			So(err, ShouldBeNil)
			for i := 0; i < n; i++ {
				So(m.Values[i][i], ShouldEqual, 1.0)
				for j := 0; j < n; j++ {
					So(m.Values[i][j], ShouldEqual, m.Values[j][i])
					So(math.IsNaN(m.Values[i][j]), ShouldBeFalse)
					So(m.Values[i][j], ShouldBeBetweenOrEqual, -1.0, 1.0)
				}
			}
			m2, err := Compute(p)
			So(err, ShouldBeNil)
			So(m2, ShouldResemble, m)

			Convey("Subset is the leading block", func() {
				s := m.Subset(3)
				So(s.Tickers, ShouldResemble, []string{"A", "B", "C"})
				for i := 0; i < 3; i++ {
					So(s.Values[i], ShouldResemble, m.Values[i][:3])
				}
				So(m.Subset(100), ShouldPointTo, m)
			})
		})
	})
}
