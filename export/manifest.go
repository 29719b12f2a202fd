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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/stockparfait/table"
	"gonum.org/v1/gonum/floats/scalar"
)

// ManifestEntry describes the output file of a year.
type ManifestEntry struct {
	Filename   string  `json:"filename"`
	NTickers   int     `json:"n_tickers"`
	NDays      int     `json:"n_days"`
	FileSizeMB float64 `json:"file_size_mb"`
}

// Manifest is the index of the computed years. Only years whose full matrix
// has been successfully written have an entry.
type Manifest struct {
	Years []int                    `json:"years"`
	Files map[string]ManifestEntry `json:"files"`
}

func NewManifest() *Manifest {
	return &Manifest{Years: []int{}, Files: make(map[string]ManifestEntry)}
}

// ParseManifest decodes a manifest file.
func ParseManifest(data []byte) (*Manifest, error) {
	m := NewManifest()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Annotate(err, "failed to parse manifest")
	}
	if m.Years == nil {
		m.Years = []int{}
	}
	sort.Ints(m.Years)
	if m.Files == nil {
		m.Files = make(map[string]ManifestEntry)
	}
	return m, nil
}

// sizeMB in decimal megabytes.
func sizeMB(bytes int) float64 {
	return scalar.Round(float64(bytes)/1e6, 2)
}

// Set the entry for the year, replacing any prior entry.
func (m *Manifest) Set(year int, e ManifestEntry) {
	i := sort.SearchInts(m.Years, year)
	if i >= len(m.Years) || m.Years[i] != year {
		m.Years = append(m.Years, 0)
		copy(m.Years[i+1:], m.Years[i:])
		m.Years[i] = year
	}
	m.Files[strconv.Itoa(year)] = e
}

// Entry for the year, if present.
func (m *Manifest) Entry(year int) (ManifestEntry, bool) {
	e, ok := m.Files[strconv.Itoa(year)]
	return e, ok
}

// SummaryRow is a row of the manifest summary table.
type SummaryRow struct {
	Year  int
	Entry ManifestEntry
}

var _ table.Row = SummaryRow{}

func SummaryHeader() []string {
	return []string{"Year", "File", "Tickers", "Days", "Size MB"}
}

func (r SummaryRow) CSV() []string {
	return []string{
		fmt.Sprintf("%d", r.Year),
		r.Entry.Filename,
		fmt.Sprintf("%d", r.Entry.NTickers),
		fmt.Sprintf("%d", r.Entry.NDays),
		fmt.Sprintf("%.2f", r.Entry.FileSizeMB),
	}
}

// Rows of the summary table in increasing year order.
func (m *Manifest) Rows() []table.Row {
	var rows []table.Row
	for _, y := range m.Years {
		if e, ok := m.Entry(y); ok {
			rows = append(rows, SummaryRow{Year: y, Entry: e})
		}
	}
	return rows
}

// WriteSummary prints the manifest as a text table to stdout when file is
// "-", or saves it as CSV otherwise. Empty file means no summary.
func (m *Manifest) WriteSummary(file string) error {
	if file == "" {
		return nil
	}
	t := table.NewTable(SummaryHeader()...)
	t.AddRow(m.Rows()...)
	if file == "-" {
		if err := t.WriteText(os.Stdout, table.Params{}); err != nil {
			return errors.Annotate(err, "failed to write summary to stdout")
		}
		return nil
	}
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open summary file '%s'", file)
	}
	defer f.Close()
	if err = t.WriteCSV(f, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to write summary file '%s'", file)
	}
	return nil
}
