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

// Package surface computes the rolling-window correlation surface (the
// "prism") of a pair of return series.
//
// A cell (e, w) is the Pearson correlation of the w observations ending just
// before the end day e, that is, at indices [e-w, e). The cell is structurally
// valid when minWindow <= w <= e < T. A valid cell whose window is constant in
// either series, or whose correlation is otherwise undefined, has value 0.
//
// The surface is available both as a sparse list of valid cells and as a dense
// [w][e] grid where invalid cells are absent.
package surface

import (
	"math"
	"strconv"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/prism/correlation"
	"gonum.org/v1/gonum/stat"
)

// DefaultMinWindow is the default minimum window length.
const DefaultMinWindow = 5

// Cell is a single valid point of the surface.
type Cell struct {
	E int     `json:"e"`
	W int     `json:"w"`
	V float64 `json:"v"`
}

// Value is an entry of the dense grid. Absent entries encode as JSON null.
type Value struct {
	V       float64
	Present bool
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.V, 'f', -1, 64), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return errors.Annotate(err, "failed to parse grid value")
	}
	*v = Value{V: f, Present: true}
	return nil
}

// Surface of a pair of series of length T.
type Surface struct {
	T         int
	MinWindow int
	Sparse    []Cell    // ordered by e, then w
	Dense     [][]Value // Dense[w][e], T x T
}

// Valid reports whether (e, w) is in the domain of a surface of length T.
func Valid(e, w, T, minWindow int) bool {
	return minWindow <= w && w <= e && e < T
}

func newSurface(T, minWindow int) *Surface {
	s := &Surface{T: T, MinWindow: minWindow, Dense: make([][]Value, T)}
	for w := range s.Dense {
		s.Dense[w] = make([]Value, T)
	}
	return s
}

func (s *Surface) set(e, w int, v float64) {
	s.Dense[w][e] = Value{V: correlation.Round(v), Present: true}
}

// collect fills in the sparse list from the dense grid, so both
// representations hold the same values.
func (s *Surface) collect() {
	for e := s.MinWindow; e < s.T; e++ {
		for w := s.MinWindow; w <= e; w++ {
			if v := s.Dense[w][e]; v.Present {
				s.Sparse = append(s.Sparse, Cell{E: e, W: w, V: v.V})
			}
		}
	}
}

// At returns the value of the cell and whether it is valid.
func (s *Surface) At(e, w int) (float64, bool) {
	if e < 0 || w < 0 || e >= s.T || w >= s.T {
		return 0, false
	}
	v := s.Dense[w][e]
	return v.V, v.Present
}

// NumValid is the number of valid cells.
func (s *Surface) NumValid() int { return len(s.Sparse) }

func check(a, b []float64, minWindow int) error {
	if len(a) != len(b) {
		return errors.Reason("series lengths differ: %d != %d", len(a), len(b))
	}
	if minWindow < 2 {
		return errors.Reason("min window=%d must be >= 2", minWindow)
	}
	return nil
}

// moments accumulates the sums for a Pearson correlation.
type moments struct {
	n   float64
	sx  float64
	sy  float64
	sxx float64
	syy float64
	sxy float64
}

func (m *moments) add(x, y float64) {
	m.n++
	m.sx += x
	m.sy += y
	m.sxx += x * x
	m.syy += y * y
	m.sxy += x * y
}

func (m *moments) correlation() float64 {
	cov := m.sxy - m.sx*m.sy/m.n
	varX := m.sxx - m.sx*m.sx/m.n
	varY := m.syy - m.sy*m.sy/m.n
	if !(varX > 0 && varY > 0) {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// runs[i] is the number of consecutive values equal to xs[i] ending at i.
func runs(xs []float64) []int {
	res := make([]int, len(xs))
	for i := range xs {
		res[i] = 1
		if i > 0 && xs[i] == xs[i-1] {
			res[i] = res[i-1] + 1
		}
	}
	return res
}

// centered subtracts the mean of the present values. Correlation is invariant
// to the shift, and the raw sums lose less precision on centered data.
func centered(xs []float64) []float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
	}
	res := make([]float64, len(xs))
	var mean float64
	if n > 0 {
		mean = sum / float64(n)
	}
	for i, x := range xs {
		res[i] = x - mean
	}
	return res
}

// Compute the surface in O(T^2) time. For each window start the window is
// extended one observation at a time while maintaining running sums.
// Constant windows are detected exactly from the runs of equal values rather
// than from the sums.
func Compute(a, b []float64, minWindow int) (*Surface, error) {
	if err := check(a, b, minWindow); err != nil {
		return nil, err
	}
	T := len(a)
	res := newSurface(T, minWindow)
	ca, cb := centered(a), centered(b)
	runsA, runsB := runs(a), runs(b)
	for start := 0; start+minWindow < T; start++ {
		var m moments
		for e := start + 1; e < T; e++ {
			m.add(ca[e-1], cb[e-1])
			w := e - start
			if w < minWindow {
				continue
			}
			var v float64
			if runsA[e-1] < w && runsB[e-1] < w {
				v = m.correlation()
			}
			res.set(e, w, v)
		}
	}
	res.collect()
	return res, nil
}

// ComputeNaive evaluates every cell independently in O(T^3) time. It is the
// reference implementation for Compute.
func ComputeNaive(a, b []float64, minWindow int) (*Surface, error) {
	if err := check(a, b, minWindow); err != nil {
		return nil, err
	}
	T := len(a)
	res := newSurface(T, minWindow)
	for e := minWindow; e < T; e++ {
		for w := minWindow; w <= e; w++ {
			wa, wb := a[e-w:e], b[e-w:e]
			var v float64
			if !correlation.IsConstant(wa) && !correlation.IsConstant(wb) {
				v = stat.Correlation(wa, wb, nil)
			}
			res.set(e, w, v)
		}
	}
	res.collect()
	return res, nil
}

// Algorithm computes a surface for a pair of series.
type Algorithm func(a, b []float64, minWindow int) (*Surface, error)

// AlgorithmByName returns "rolling" (Compute) or "naive" (ComputeNaive).
func AlgorithmByName(name string) (Algorithm, error) {
	switch name {
	case "rolling", "":
		return Compute, nil
	case "naive":
		return ComputeNaive, nil
	}
	return nil, errors.Reason("unknown surface algorithm '%s'", name)
}
