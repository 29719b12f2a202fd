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
	"fmt"
)

// InvalidPanelError is a structural problem with the input panel. It is fatal
// for the whole run.
type InvalidPanelError struct {
	Reason string
}

var _ error = &InvalidPanelError{}

func (e *InvalidPanelError) Error() string {
	return "invalid panel: " + e.Reason
}

func invalidPanel(format string, args ...any) *InvalidPanelError {
	return &InvalidPanelError{Reason: fmt.Sprintf(format, args...)}
}

// InsufficientDataError means a single year does not have enough trading days
// (What="trading days") or usable series (What="series"). The year is skipped.
type InsufficientDataError struct {
	Year int
	Have int
	Need int
	What string
}

var _ error = &InsufficientDataError{}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for year %d: %d %s, need %d",
		e.Year, e.Have, e.What, e.Need)
}

// SeriesNotFoundError is returned when a requested ticker is absent from a
// panel. Year is 0 when the panel is not a year slice.
type SeriesNotFoundError struct {
	Ticker string
	Year   int
}

var _ error = &SeriesNotFoundError{}

func (e *SeriesNotFoundError) Error() string {
	if e.Year == 0 {
		return fmt.Sprintf("series not found: %s", e.Ticker)
	}
	return fmt.Sprintf("series not found: %s in year %d", e.Ticker, e.Year)
}

// IsSkippable reports whether err only affects a single year or pair, so the
// rest of the run may continue.
func IsSkippable(err error) bool {
	switch err.(type) {
	case *InsufficientDataError, *SeriesNotFoundError:
		return true
	}
	return false
}
