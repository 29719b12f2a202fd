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

// Package config implements the configuration schema of a batch run.
package config

import (
	"runtime"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/stockparfait/db"
	"github.com/stockparfait/stockparfait/message"
)

// Source of the price panel. Exactly one of "db" or "csv" must be present.
type Source struct {
	// Price database; prices of Tickers are read and aligned on the union of
	// their dates.
	Reader  *db.Reader `json:"db"`
	Tickers []string   `json:"tickers"`
	// Wide CSV file: "date,<ticker>,..." header, one row per date.
	CSV string `json:"csv"`
}

var _ message.Message = &Source{}

func (s *Source) InitMessage(js any) error {
	if err := message.Init(s, js); err != nil {
		return errors.Annotate(err, "failed to init Source")
	}
	if (s.Reader == nil) == (s.CSV == "") {
		return errors.Reason(`exactly one of "db" or "csv" must be specified`)
	}
	if s.Reader != nil && len(s.Tickers) == 0 {
		return errors.Reason(`"tickers" are required with "db"`)
	}
	return nil
}

// Pair of tickers for a correlation surface, written as a 2-element list:
// ["AAPL", "MSFT"].
type Pair struct {
	A string
	B string
}

var _ message.Message = &Pair{}

func (p *Pair) InitMessage(js any) error {
	l, ok := js.([]any)
	if !ok || len(l) != 2 {
		return errors.Reason("pair must be a list of 2 tickers: %v", js)
	}
	a, okA := l[0].(string)
	b, okB := l[1].(string)
	if !okA || !okB || a == "" || b == "" {
		return errors.Reason("pair tickers must be non-empty strings: %v", js)
	}
	if a == b {
		return errors.Reason("pair must have distinct tickers: %s", a)
	}
	p.A = a
	p.B = b
	return nil
}

func (p Pair) String() string { return p.A + "-" + p.B }

// Prism is the configuration of a batch run: yearly correlation matrices for
// the whole panel and correlation surfaces for the requested pairs.
type Prism struct {
	Data      *Source `json:"data" required:"true"`
	OutputDir string  `json:"output_dir" required:"true"`
	// Years to compute; default: all the years in the data.
	Years []int `json:"years"`
	// A year needs at least this many trading days, and a series needs more
	// than this many values within the year.
	MinTradingDays int `json:"min_trading_days" default:"200"`
	MinWindow      int `json:"min_window" default:"5"` // >= 2
	// Additional matrices for the first N tickers in alphabetical order.
	SubsetSizes []int  `json:"subset_sizes"`
	Pairs       []Pair `json:"pairs"`
	// Years for pair surfaces; default: same as Years.
	PairYears        []int  `json:"pair_years"`
	SurfaceAlgorithm string `json:"surface_algorithm" choices:"rolling,naive" default:"rolling"`
	ExportReturns    bool   `json:"export_returns"` // write returns_all.json
	Workers          int    `json:"parallel_workers"` // default: 2*runtime.NumCPU()
	// Manifest summary table: "-" for stdout, otherwise a CSV file path.
	Summary string `json:"summary"`
}

var _ message.Message = &Prism{}

func (c *Prism) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init Prism")
	}
	if c.MinTradingDays < 1 {
		return errors.Reason("min_trading_days=%d must be >= 1", c.MinTradingDays)
	}
	if c.MinWindow < 2 {
		return errors.Reason("min_window=%d must be >= 2", c.MinWindow)
	}
	for _, n := range c.SubsetSizes {
		if n < 1 {
			return errors.Reason("subset size=%d must be >= 1", n)
		}
	}
	if c.Workers <= 0 {
		c.Workers = 2 * runtime.NumCPU()
	}
	return nil
}

// Load the configuration from a JSON file.
func Load(configPath string) (*Prism, error) {
	var c Prism
	if err := message.FromFile(&c, configPath); err != nil {
		return nil, errors.Annotate(err, "cannot read config '%s'", configPath)
	}
	return &c, nil
}
