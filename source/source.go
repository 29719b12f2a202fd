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

// Package source loads price panels from time series stores: a stockparfait
// price database or a wide CSV file.
package source

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/prism/config"
	"github.com/stockparfait/prism/panel"
	"github.com/stockparfait/stockparfait/db"
	"github.com/stockparfait/stockparfait/stats"
)

// Load the price panel configured by c.
func Load(ctx context.Context, c *config.Source) (*panel.Panel, error) {
	if c.Reader != nil {
		p, err := LoadDB(ctx, c.Reader, c.Tickers)
		return p, errors.Annotate(err, "failed to load prices from DB")
	}
	p, err := LoadCSVFile(c.CSV)
	return p, errors.Annotate(err, "failed to load prices from '%s'", c.CSV)
}

// LoadDB reads fully adjusted close prices of the tickers and aligns them on
// the union of their dates. A ticker without a price on some date has a
// missing value there.
func LoadDB(ctx context.Context, r *db.Reader, tickers []string) (*panel.Panel, error) {
	series := make([]*stats.Timeseries, len(tickers))
	for i, t := range tickers {
		prices, err := r.Prices(t)
		if err != nil {
			return nil, errors.Annotate(err, "failed to read prices for '%s'", t)
		}
		if len(prices) == 0 {
			logging.Warningf(ctx, "no prices for %s", t)
		}
		series[i] = stats.NewTimeseriesFromPrices(prices, stats.PriceCloseFullyAdjusted)
	}
	return Align(tickers, series)
}

// Align a set of timeseries on the union of their dates.
func Align(tickers []string, series []*stats.Timeseries) (*panel.Panel, error) {
	if len(tickers) != len(series) {
		return nil, errors.Reason("%d tickers for %d series", len(tickers), len(series))
	}
	dateSet := make(map[db.Date]struct{})
	for _, ts := range series {
		for _, d := range ts.Dates() {
			dateSet[d] = struct{}{}
		}
	}
	dates := make([]db.Date, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	index := make(map[db.Date]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}
	values := make([][]float64, len(series))
	for i, ts := range series {
		vs := make([]float64, len(dates))
		for k := range vs {
			vs[k] = math.NaN()
		}
		for k, d := range ts.Dates() {
			vs[index[d]] = ts.Data()[k]
		}
		values[i] = vs
	}
	return panel.New(dates, tickers, values)
}

// LoadCSVFile reads a wide CSV price file, see LoadCSV.
func LoadCSVFile(path string) (*panel.Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open '%s'", path)
	}
	defer f.Close()
	return LoadCSV(f)
}

// parseDate accepts only well-formed YYYY-MM-DD dates; db.NewDateFromString
// silently yields a zero date otherwise.
func parseDate(s string) (db.Date, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return db.Date{}, err
	}
	return db.NewDateFromString(s)
}

func parseValue(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// LoadCSV reads a wide CSV table: the header is "date,<ticker>,..." and each
// row is a date (YYYY-MM-DD) followed by one price per ticker. Empty cells and
// NaN are missing values. Rows must be in increasing date order.
func LoadCSV(r io.Reader) (*panel.Panel, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read CSV header")
	}
	if len(header) < 2 {
		return nil, errors.Reason("CSV header must have a date and at least one ticker")
	}
	tickers := header[1:]
	var dates []db.Date
	values := make([][]float64, len(tickers))
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Annotate(err, "failed to read CSV row %d", row)
		}
		d, err := parseDate(record[0])
		if err != nil {
			return nil, errors.Annotate(err, "bad date in row %d", row)
		}
		dates = append(dates, d)
		for i := range tickers {
			v, err := parseValue(record[i+1])
			if err != nil {
				return nil, errors.Annotate(err, "bad value for %s in row %d",
					tickers[i], row)
			}
			values[i] = append(values[i], v)
		}
	}
	for i := range values {
		if values[i] == nil {
			values[i] = []float64{}
		}
	}
	return panel.New(dates, tickers, values)
}
