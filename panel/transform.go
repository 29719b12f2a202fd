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

package panel

import (
	"math"
)

// DefaultMinTradingDays is the default threshold for Filter.
const DefaultMinTradingDays = 200

// LogReturns converts a price panel into log returns: ln(P[t]/P[t-1]). The
// result has one fewer date than prices. A return is missing unless both
// prices are present and positive; missing values are never filled.
func LogReturns(prices *Panel) (*Panel, error) {
	if prices.Len() < 2 {
		return nil, invalidPanel("need at least 2 dates for log returns, got %d",
			prices.Len())
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}
	res := &Panel{
		Dates:   prices.Dates[1:],
		Tickers: prices.Tickers,
		Values:  make([][]float64, len(prices.Values)),
		Year:    prices.Year,
	}
	for i, ps := range prices.Values {
		rs := make([]float64, len(ps)-1)
		for t := 1; t < len(ps); t++ {
			prev, curr := ps[t-1], ps[t]
			if Missing(prev) || Missing(curr) || prev <= 0 || curr <= 0 {
				rs[t-1] = math.NaN()
				continue
			}
			rs[t-1] = math.Log(curr / prev)
		}
		res.Values[i] = rs
	}
	return res, nil
}

// Filter selects the part of the panel usable for a stable estimate in the
// given year. The year must have at least minDays dates, otherwise the whole
// year is rejected with *InsufficientDataError. Only series with more than
// minDays present values and no missing values at all are kept, sorted by
// ticker.
func Filter(p *Panel, year, minDays int) (*Panel, error) {
	ys := p.YearSlice(year)
	if ys.Len() < minDays {
		return nil, &InsufficientDataError{
			Year: year,
			Have: ys.Len(),
			Need: minDays,
			What: "trading days",
		}
	}
	var keep []int
	for _, i := range sortedIndices(ys.Tickers) {
		n := countPresent(ys.Values[i])
		if n <= minDays {
			continue // too sparse
		}
		if n < ys.Len() {
			continue // no imputation
		}
		keep = append(keep, i)
	}
	if len(keep) == 0 {
		return nil, &InsufficientDataError{
			Year: year,
			Have: 0,
			Need: 1,
			What: "series",
		}
	}
	return ys.selectSeries(keep), nil
}
