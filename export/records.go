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

package export

import (
	"fmt"
	"strconv"

	"github.com/stockparfait/prism/correlation"
	"github.com/stockparfait/prism/panel"
	"github.com/stockparfait/prism/surface"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	ManifestFile = "correlation_manifest.json"
	ReturnsFile  = "returns_all.json"
	// ReturnsDigits is the precision of the exported log-returns.
	ReturnsDigits = 6
)

func YearFile(year int) string { return fmt.Sprintf("full_corr_%d.json", year) }

func SubsetFile(year, n int) string {
	return fmt.Sprintf("corr_matrix_%d_N%d.json", year, n)
}

func SurfaceFile(a, b string, year int) string {
	return fmt.Sprintf("prism_pair_%s_%s_%d.json", a, b, year)
}

// YearRecord is the full correlation matrix of a year.
type YearRecord struct {
	Year     int         `json:"year"`
	Tickers  []string    `json:"tickers"`
	NTickers int         `json:"n_tickers"`
	NDays    int         `json:"n_days"`
	Matrix   [][]float64 `json:"matrix"`
}

func NewYearRecord(year, nDays int, m *correlation.Matrix) *YearRecord {
	return &YearRecord{
		Year:     year,
		Tickers:  m.Tickers,
		NTickers: m.Size(),
		NDays:    nDays,
		Matrix:   m.Values,
	}
}

// SubsetRecord is the correlation matrix of the first N tickers of a year.
type SubsetRecord struct {
	Year    int         `json:"year"`
	N       int         `json:"n"`
	Tickers []string    `json:"tickers"`
	Matrix  [][]float64 `json:"matrix"`
}

func NewSubsetRecord(year int, m *correlation.Matrix) *SubsetRecord {
	return &SubsetRecord{
		Year:    year,
		N:       m.Size(),
		Tickers: m.Tickers,
		Matrix:  m.Values,
	}
}

// SurfaceRecord is the correlation surface of a pair of tickers in a year.
type SurfaceRecord struct {
	TickerA       string            `json:"ticker_a"`
	TickerB       string            `json:"ticker_b"`
	Year          int               `json:"year"`
	T             int               `json:"T"`
	MinWindow     int               `json:"min_window"`
	Dates         []string          `json:"dates"`
	GridSparse    []surface.Cell    `json:"grid_sparse"`
	GridDense     [][]surface.Value `json:"grid_dense"`
	NumValidCells int               `json:"num_valid_cells"`
}

func NewSurfaceRecord(a, b string, year int, dates []string, s *surface.Surface) *SurfaceRecord {
	sparse := s.Sparse
	if sparse == nil {
		sparse = []surface.Cell{}
	}
	return &SurfaceRecord{
		TickerA:       a,
		TickerB:       b,
		Year:          year,
		T:             s.T,
		MinWindow:     s.MinWindow,
		Dates:         dates,
		GridSparse:    sparse,
		GridDense:     s.Dense,
		NumValidCells: s.NumValid(),
	}
}

// ReturnsYear is the log-return panel of a single year.
type ReturnsYear struct {
	Dates   []string    `json:"dates"`
	T       int         `json:"T"`
	Returns [][]float64 `json:"returns"` // [ticker][day]
}

// ReturnsRecord is the log-return panel of all the tickers split by year, with
// tickers in alphabetical order. Missing values are exported as 0.
type ReturnsRecord struct {
	Tickers []string               `json:"tickers"`
	Years   map[string]ReturnsYear `json:"years"`
}

// NewReturnsRecord exports the given years of p which have at least minDays
// dates.
func NewReturnsRecord(p *panel.Panel, years []int, minDays int) *ReturnsRecord {
	p = p.Sorted()
	res := &ReturnsRecord{
		Tickers: p.Tickers,
		Years:   make(map[string]ReturnsYear, len(years)),
	}
	for _, y := range years {
		ys := p.YearSlice(y)
		if ys.Len() == 0 || ys.Len() < minDays {
			continue
		}
		ry := ReturnsYear{
			Dates:   ys.DateStrings(),
			T:       ys.Len(),
			Returns: make([][]float64, ys.NumSeries()),
		}
		for i, vs := range ys.Values {
			rs := make([]float64, len(vs))
			for k, v := range vs {
				if !panel.Missing(v) {
					rs[k] = scalar.Round(v, ReturnsDigits)
				}
			}
			ry.Returns[i] = rs
		}
		res.Years[strconv.Itoa(y)] = ry
	}
	return res
}
