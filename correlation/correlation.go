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

// Package correlation computes cross-sectional Pearson correlation matrices
// over a cleaned panel of returns.
package correlation

import (
	"math"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/prism/panel"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Digits is the number of decimal digits kept in every emitted correlation.
const Digits = 4

// Matrix is a symmetric unit-diagonal correlation matrix. Values[i][j] is the
// correlation between Tickers[i] and Tickers[j].
type Matrix struct {
	Tickers []string
	Values  [][]float64
}

// Size is the number of tickers.
func (m *Matrix) Size() int { return len(m.Tickers) }

// Round v to Digits, mapping undefined values to 0 and clamping to [-1, 1].
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	v = scalar.Round(v, Digits)
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// IsConstant reports whether all the values are identical, i.e. the sample
// variance is exactly 0.
func IsConstant(xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// Compute the Pearson correlation matrix of all the series in p, in the
// panel's ticker order. The panel must not contain missing values (see
// panel.Filter). Pairs involving a constant series have correlation 0, and the
// diagonal is exactly 1.
func Compute(p *panel.Panel) (*Matrix, error) {
	n := p.NumSeries()
	T := p.Len()
	res := &Matrix{
		Tickers: p.Tickers,
		Values:  make([][]float64, n),
	}
	for i := range res.Values {
		res.Values[i] = make([]float64, n)
		res.Values[i][i] = 1
	}
	if n == 0 || T < 2 {
		return res, nil
	}
	degenerate := make([]bool, n)
	x := mat.NewDense(T, n, nil)
	for j, vs := range p.Values {
		for t, v := range vs {
			if panel.Missing(v) {
				return nil, errors.Reason("missing value for %s at %s",
					p.Tickers[j], p.Dates[t])
			}
			x.Set(t, j, v)
		}
		degenerate[j] = IsConstant(vs)
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var v float64
			if !degenerate[i] && !degenerate[j] {
				v = Round(corr.At(i, j))
			}
			res.Values[i][j] = v
			res.Values[j][i] = v
		}
	}
	return res, nil
}

// Subset is the correlation matrix of the first n tickers. Since Compute
// preserves the filtered (alphabetical) ticker order, this is the alphabetical
// truncation of the ticker set.
func (m *Matrix) Subset(n int) *Matrix {
	if n >= m.Size() {
		return m
	}
	if n < 0 {
		n = 0
	}
	res := &Matrix{
		Tickers: m.Tickers[:n],
		Values:  make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		res.Values[i] = m.Values[i][:n]
	}
	return res
}

// OffDiagonal returns the upper triangle of the matrix, excluding the diagonal.
func (m *Matrix) OffDiagonal() []float64 {
	n := m.Size()
	res := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		res = append(res, m.Values[i][i+1:]...)
	}
	return res
}
