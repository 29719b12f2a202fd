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

// Package panel implements a time series panel: a set of named series sharing
// a single date axis, and the transformations preparing it for correlation
// analysis.
//
// Missing observations are represented as NaN.
package panel

import (
	"math"
	"sort"

	"github.com/stockparfait/stockparfait/db"
)

// Panel is a set of series (tickers) sharing the same strictly increasing date
// axis. Values[i] holds the observations of Tickers[i], one per date.
type Panel struct {
	Dates   []db.Date
	Tickers []string
	Values  [][]float64
	Year    int // calendar year of a year slice, 0 for a full panel
}

// New creates a Panel and validates its structure.
func New(dates []db.Date, tickers []string, values [][]float64) (*Panel, error) {
	p := &Panel{Dates: dates, Tickers: tickers, Values: values}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the structural invariants of the panel. The returned error,
// if any, is *InvalidPanelError.
func (p *Panel) Validate() error {
	if len(p.Tickers) != len(p.Values) {
		return invalidPanel("%d tickers but %d series", len(p.Tickers), len(p.Values))
	}
	for i := 1; i < len(p.Dates); i++ {
		if !p.Dates[i-1].Before(p.Dates[i]) {
			return invalidPanel("dates are not strictly increasing at %s", p.Dates[i])
		}
	}
	seen := make(map[string]struct{}, len(p.Tickers))
	for i, t := range p.Tickers {
		if t == "" {
			return invalidPanel("series %d has an empty ticker", i)
		}
		if _, ok := seen[t]; ok {
			return invalidPanel("duplicate ticker %s", t)
		}
		seen[t] = struct{}{}
		if len(p.Values[i]) != len(p.Dates) {
			return invalidPanel("series %s has %d values for %d dates",
				t, len(p.Values[i]), len(p.Dates))
		}
	}
	return nil
}

// Len is the number of dates.
func (p *Panel) Len() int { return len(p.Dates) }

// NumSeries is the number of tickers.
func (p *Panel) NumSeries() int { return len(p.Tickers) }

// Index of the ticker in the panel, or -1.
func (p *Panel) Index(ticker string) int {
	for i, t := range p.Tickers {
		if t == ticker {
			return i
		}
	}
	return -1
}

// Series returns the observations of the ticker.
func (p *Panel) Series(ticker string) ([]float64, error) {
	i := p.Index(ticker)
	if i < 0 {
		return nil, &SeriesNotFoundError{Ticker: ticker, Year: p.Year}
	}
	return p.Values[i], nil
}

// DateStrings formats the date axis as ISO dates.
func (p *Panel) DateStrings() []string {
	res := make([]string, len(p.Dates))
	for i, d := range p.Dates {
		res[i] = d.String()
	}
	return res
}

func yearOf(d db.Date) int { return int(d.Year()) }

// Years present on the date axis, in increasing order.
func (p *Panel) Years() []int {
	var res []int
	for _, d := range p.Dates {
		y := yearOf(d)
		if len(res) == 0 || res[len(res)-1] != y {
			res = append(res, y)
		}
	}
	return res
}

// YearSlice is a view of the panel restricted to the dates of the given
// calendar year. The series share the backing arrays with p.
func (p *Panel) YearSlice(year int) *Panel {
	lo := sort.Search(len(p.Dates), func(i int) bool {
		return yearOf(p.Dates[i]) >= year
	})
	hi := sort.Search(len(p.Dates), func(i int) bool {
		return yearOf(p.Dates[i]) > year
	})
	values := make([][]float64, len(p.Values))
	for i, v := range p.Values {
		values[i] = v[lo:hi]
	}
	return &Panel{
		Dates:   p.Dates[lo:hi],
		Tickers: p.Tickers,
		Values:  values,
		Year:    year,
	}
}

// Subset keeps the first n tickers in alphabetical order. When n is at least
// the number of series, the panel is returned as is.
func (p *Panel) Subset(n int) *Panel {
	if n >= len(p.Tickers) {
		return p
	}
	if n < 0 {
		n = 0
	}
	idx := sortedIndices(p.Tickers)[:n]
	return p.selectSeries(idx)
}

// Sorted is the panel with the series ordered by ticker.
func (p *Panel) Sorted() *Panel {
	return p.selectSeries(sortedIndices(p.Tickers))
}

func (p *Panel) selectSeries(idx []int) *Panel {
	res := &Panel{
		Dates:   p.Dates,
		Tickers: make([]string, len(idx)),
		Values:  make([][]float64, len(idx)),
		Year:    p.Year,
	}
	for k, i := range idx {
		res.Tickers[k] = p.Tickers[i]
		res.Values[k] = p.Values[i]
	}
	return res
}

func sortedIndices(tickers []string) []int {
	idx := make([]int, len(tickers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return tickers[idx[i]] < tickers[idx[j]]
	})
	return idx
}

// Missing reports whether the value is a missing observation.
func Missing(v float64) bool { return math.IsNaN(v) }

func countPresent(vs []float64) int {
	n := 0
	for _, v := range vs {
		if !Missing(v) {
			n++
		}
	}
	return n
}
