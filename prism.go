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

// Package prism computes correlation structure of asset return panels: yearly
// cross-sectional correlation matrices and windowed pair-correlation surfaces.
package prism

import (
	"context"
	"io"
	"sort"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/stockparfait/table"
)

type runKey struct{}

// Values summarize a run: years written, skipped years and pairs, surfaces
// written, mean correlation per year.
type Values = map[string]string

// UseValues attaches the run summary map to ctx. The batch records into it, and
// the command prints it once the run is over.
func UseValues(ctx context.Context, v Values) context.Context {
	return context.WithValue(ctx, runKey{}, v)
}

// GetValues attached by UseValues, or nil.
func GetValues(ctx context.Context) Values {
	v, _ := ctx.Value(runKey{}).(Values)
	return v
}

// AddValue records a summary entry of the run, replacing any prior value of
// the key. It fails when ctx carries no summary map.
func AddValue(ctx context.Context, key, value string) error {
	v := GetValues(ctx)
	if v == nil {
		return errors.Reason("no run summary in context for '%s'", key)
	}
	v[key] = value
	return nil
}

type valueRow struct {
	key   string
	value string
}

var _ table.Row = valueRow{}

func (r valueRow) CSV() []string { return []string{r.key, r.value} }

// WriteValues prints the values as a text table sorted by key.
func WriteValues(w io.Writer, v Values) error {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	t := table.NewTable("Key", "Value")
	for _, k := range keys {
		t.AddRow(valueRow{key: k, value: v[k]})
	}
	if err := t.WriteText(w, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to write values")
	}
	return nil
}
