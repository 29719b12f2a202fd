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

	"github.com/stockparfait/errors"
	"github.com/stockparfait/prism/correlation"
	"github.com/stockparfait/prism/panel"
	"github.com/stockparfait/prism/surface"
)

// Writer serializes results into a Sink and keeps the manifest up to date. The
// manifest is merged with the one already present in the sink: entries of the
// years written by this Writer replace the prior ones, other entries are kept.
//
// Writer is not safe for concurrent use.
type Writer struct {
	sink     Sink
	manifest *Manifest
}

// NewWriter loads the existing manifest from the sink, if any.
func NewWriter(sink Sink) (*Writer, error) {
	w := &Writer{sink: sink, manifest: NewManifest()}
	if sink.Exists(ManifestFile) {
		data, err := sink.Read(ManifestFile)
		if err != nil {
			return nil, errors.Annotate(err, "failed to read existing manifest")
		}
		if w.manifest, err = ParseManifest(data); err != nil {
			return nil, errors.Annotate(err, "failed to load existing manifest")
		}
	}
	return w, nil
}

// Manifest as updated so far. It is saved to the sink by Flush.
func (w *Writer) Manifest() *Manifest { return w.manifest }

func (w *Writer) write(name string, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, errors.Annotate(err, "failed to encode '%s'", name)
	}
	if err := w.sink.Write(name, data); err != nil {
		return 0, errors.Annotate(err, "failed to save '%s'", name)
	}
	return len(data), nil
}

// WriteYear saves the full matrix of the year and records it in the manifest.
func (w *Writer) WriteYear(year, nDays int, m *correlation.Matrix) error {
	name := YearFile(year)
	size, err := w.write(name, NewYearRecord(year, nDays, m))
	if err != nil {
		return err
	}
	w.manifest.Set(year, ManifestEntry{
		Filename:   name,
		NTickers:   m.Size(),
		NDays:      nDays,
		FileSizeMB: sizeMB(size),
	})
	return nil
}

// WriteSubset saves the matrix of a ticker subset of the year.
func (w *Writer) WriteSubset(year int, m *correlation.Matrix) error {
	_, err := w.write(SubsetFile(year, m.Size()), NewSubsetRecord(year, m))
	return err
}

// WriteSurface saves the correlation surface of the pair (a, b) in the year.
func (w *Writer) WriteSurface(a, b string, year int, dates []string, s *surface.Surface) error {
	_, err := w.write(SurfaceFile(a, b, year), NewSurfaceRecord(a, b, year, dates, s))
	return err
}

// WriteReturns saves the log-return panel split by the given years, skipping
// years with fewer than minDays dates.
func (w *Writer) WriteReturns(p *panel.Panel, years []int, minDays int) error {
	_, err := w.write(ReturnsFile, NewReturnsRecord(p, years, minDays))
	return err
}

// Flush saves the manifest.
func (w *Writer) Flush() error {
	data, err := json.MarshalIndent(w.manifest, "", "  ")
	if err != nil {
		return errors.Annotate(err, "failed to encode manifest")
	}
	if err := w.sink.Write(ManifestFile, data); err != nil {
		return errors.Annotate(err, "failed to save manifest")
	}
	return nil
}
