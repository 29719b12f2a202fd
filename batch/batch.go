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

// Package batch runs the correlation analysis of a price panel: yearly
// matrices, ticker subsets, pair surfaces and the returns export.
package batch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/prism"
	"github.com/stockparfait/prism/config"
	"github.com/stockparfait/prism/correlation"
	"github.com/stockparfait/prism/export"
	"github.com/stockparfait/prism/panel"
	"github.com/stockparfait/prism/source"
	"github.com/stockparfait/prism/surface"
	"github.com/stockparfait/stockparfait/stats"
)

// Runner of a single batch. It is not reusable.
type Runner struct {
	config  *config.Prism
	surface surface.Algorithm
	writer  *export.Writer

	yearsWritten []int
	skippedYears []int
	skippedPairs []string
	surfaces     int
}

// NewRunner creates a Runner writing its results into sink. The existing
// manifest in the sink, if any, is merged with the results of this run.
func NewRunner(cfg *config.Prism, sink export.Sink) (*Runner, error) {
	alg, err := surface.AlgorithmByName(cfg.SurfaceAlgorithm)
	if err != nil {
		return nil, errors.Annotate(err, "invalid config")
	}
	w, err := export.NewWriter(sink)
	if err != nil {
		return nil, errors.Annotate(err, "failed to create writer")
	}
	return &Runner{
		config:  cfg,
		surface: alg,
		writer:  w,
	}, nil
}

// Run the batch configured by cfg: load the prices and write the results into
// cfg.OutputDir.
func Run(ctx context.Context, cfg *config.Prism) error {
	prices, err := source.Load(ctx, cfg.Data)
	if err != nil {
		return errors.Annotate(err, "failed to load price panel")
	}
	r, err := NewRunner(cfg, export.NewDirSink(cfg.OutputDir))
	if err != nil {
		return err
	}
	return r.Run(ctx, prices)
}

type yearsIter struct {
	years []int
	i     int
}

var _ iterator.Iterator[int] = &yearsIter{}

func (it *yearsIter) Next() (int, bool) {
	if it.i >= len(it.years) {
		return 0, false
	}
	it.i++
	return it.years[it.i-1], true
}

type yearResult struct {
	year   int
	panel  *panel.Panel // filtered
	matrix *correlation.Matrix
	err    error
}

func (r *Runner) computeYear(returns *panel.Panel, year int) yearResult {
	p, err := panel.Filter(returns, year, r.config.MinTradingDays)
	if err != nil {
		return yearResult{year: year, err: err}
	}
	m, err := correlation.Compute(p)
	if err != nil {
		return yearResult{year: year, err: errors.Annotate(
			err, "failed to compute correlations for %d", year)}
	}
	return yearResult{year: year, panel: p, matrix: m}
}

// processYears computes the years in parallel and writes each result as soon
// as it arrives, so only the years in flight are held in memory.
func (r *Runner) processYears(ctx context.Context, returns *panel.Panel, years []int) error {
	f := func(year int) yearResult { return r.computeYear(returns, year) }
	var it iterator.Iterator[int] = &yearsIter{years: years}
	pm := iterator.ParallelMap(ctx, r.config.Workers, it, f)
	defer pm.Close()

	for res, ok := pm.Next(); ok; res, ok = pm.Next() {
		if err := r.processYear(ctx, res); err != nil {
			return errors.Annotate(err, "failed to process year %d", res.year)
		}
	}
	sort.Ints(r.yearsWritten)
	sort.Ints(r.skippedYears)
	return nil
}

// Run the batch on the price panel.
func (r *Runner) Run(ctx context.Context, prices *panel.Panel) error {
	returns, err := panel.LogReturns(prices)
	if err != nil {
		return errors.Annotate(err, "failed to compute log returns")
	}
	years := r.config.Years
	if len(years) == 0 {
		years = returns.Years()
	}
	logging.Infof(ctx, "computing %d years for %d tickers", len(years), returns.NumSeries())

	if err := r.processYears(ctx, returns, years); err != nil {
		return err
	}
	if err := r.processPairs(ctx, returns, years); err != nil {
		return errors.Annotate(err, "failed to process pairs")
	}
	if r.config.ExportReturns {
		if err := r.writer.WriteReturns(returns, years, r.config.MinTradingDays); err != nil {
			return errors.Annotate(err, "failed to export returns")
		}
	}
	if err := r.writer.Flush(); err != nil {
		return errors.Annotate(err, "failed to write manifest")
	}
	if err := r.writer.Manifest().WriteSummary(r.config.Summary); err != nil {
		return errors.Annotate(err, "failed to write summary")
	}
	if err := r.addValues(ctx); err != nil {
		return errors.Annotate(err, "failed to add values")
	}
	return nil
}

func (r *Runner) processYear(ctx context.Context, res yearResult) error {
	if res.err != nil {
		if !panel.IsSkippable(res.err) {
			return res.err
		}
		logging.Warningf(ctx, "skipping year %d: %s", res.year, res.err.Error())
		r.skippedYears = append(r.skippedYears, res.year)
		return nil
	}
	m := res.matrix
	if err := r.writer.WriteYear(res.year, res.panel.Len(), m); err != nil {
		return errors.Annotate(err, "failed to write matrix")
	}
	r.yearsWritten = append(r.yearsWritten, res.year)
	for _, n := range r.config.SubsetSizes {
		if n > m.Size() {
			logging.Warningf(ctx, "skipping subset N=%d for %d: only %d tickers",
				n, res.year, m.Size())
			continue
		}
		if err := r.writer.WriteSubset(res.year, m.Subset(n)); err != nil {
			return errors.Annotate(err, "failed to write subset N=%d", n)
		}
	}
	logging.Infof(ctx, "%d: %d tickers, %d days", res.year, m.Size(), res.panel.Len())
	if off := m.OffDiagonal(); len(off) > 0 {
		mean := stats.NewSample(off).Mean()
		if err := prism.AddValue(ctx, fmt.Sprintf("mean correlation %d", res.year),
			fmt.Sprintf("%.4f", mean)); err != nil {
			return errors.Annotate(err, "failed to add mean correlation")
		}
	}
	return nil
}

func (r *Runner) processPair(p *panel.Panel, pair config.Pair, year int) error {
	a, err := p.Series(pair.A)
	if err != nil {
		return err
	}
	b, err := p.Series(pair.B)
	if err != nil {
		return err
	}
	s, err := r.surface(a, b, r.config.MinWindow)
	if err != nil {
		return errors.Annotate(err, "failed to compute surface")
	}
	if err := r.writer.WriteSurface(pair.A, pair.B, year, p.DateStrings(), s); err != nil {
		return errors.Annotate(err, "failed to write surface")
	}
	r.surfaces++
	return nil
}

func (r *Runner) processPairs(ctx context.Context, returns *panel.Panel, years []int) error {
	pairYears := r.config.PairYears
	if len(pairYears) == 0 {
		pairYears = years
	}
	if len(r.config.Pairs) == 0 {
		return nil
	}
	// The filtered panel of one year at a time is kept.
	for _, year := range pairYears {
		p, filterErr := panel.Filter(returns, year, r.config.MinTradingDays)
		for _, pair := range r.config.Pairs {
			err := filterErr
			if err == nil {
				err = r.processPair(p, pair, year)
			}
			if err == nil {
				continue
			}
			if !panel.IsSkippable(err) {
				return errors.Annotate(err, "pair %s in %d", pair, year)
			}
			logging.Warningf(ctx, "skipping pair %s in %d: %s", pair, year, err.Error())
			r.skippedPairs = append(r.skippedPairs, fmt.Sprintf("%s/%d", pair, year))
		}
	}
	return nil
}

func joinInts(xs []int) string {
	s := make([]string, len(xs))
	for i, x := range xs {
		s[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(s, ",")
}

func (r *Runner) addValues(ctx context.Context) error {
	values := map[string]string{
		"years":         joinInts(r.yearsWritten),
		"skipped years": joinInts(r.skippedYears),
		"skipped pairs": strings.Join(r.skippedPairs, ","),
		"surfaces":      fmt.Sprintf("%d", r.surfaces),
	}
	for k, v := range values {
		if err := prism.AddValue(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
