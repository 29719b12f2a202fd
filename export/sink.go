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

// Package export writes correlation results as JSON files and maintains the
// manifest of what has been computed.
package export

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stockparfait/errors"
)

// Sink is a flat namespace of named files.
type Sink interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Exists(name string) bool
}

// DirSink stores files in a local directory. Writes are atomic: the data is
// written to a temporary file which is then renamed, so a reader never sees a
// partially written file.
type DirSink struct {
	Dir string
}

var _ Sink = &DirSink{}

func NewDirSink(dir string) *DirSink { return &DirSink{Dir: dir} }

func (s *DirSink) path(name string) string { return filepath.Join(s.Dir, name) }

func (s *DirSink) Write(name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return errors.Annotate(err, "failed to create directory '%s'", s.Dir)
	}
	tmpPath := s.path(name) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.Annotate(err, "failed to write '%s'", tmpPath)
	}
	if err := os.Rename(tmpPath, s.path(name)); err != nil {
		os.Remove(tmpPath)
		return errors.Annotate(err, "failed to rename '%s'", tmpPath)
	}
	return nil
}

func (s *DirSink) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, errors.Annotate(err, "failed to read '%s'", s.path(name))
	}
	return data, nil
}

func (s *DirSink) Exists(name string) bool {
	_, err := os.Stat(s.path(name))
	return err == nil
}

// MemSink keeps files in memory. It is safe for concurrent use.
type MemSink struct {
	mu    sync.Mutex
	files map[string][]byte
}

var _ Sink = &MemSink{}

func NewMemSink() *MemSink {
	return &MemSink{files: make(map[string][]byte)}
}

func (s *MemSink) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = append([]byte{}, data...)
	return nil
}

func (s *MemSink) Read(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, errors.Reason("no such file: '%s'", name)
	}
	return data, nil
}

func (s *MemSink) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

// Names of the stored files in sorted order.
func (s *MemSink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]string, 0, len(s.files))
	for n := range s.files {
		res = append(res, n)
	}
	sort.Strings(res)
	return res
}
