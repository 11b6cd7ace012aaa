// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scenario

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
)

// Chapter is a named, ordered list of steps that produces the screenshots
// of one documentation section.
type Chapter struct {
	Name  string
	Title string
	Steps []Step
}

// Validate checks every step, that screenshot files are unique per target
// directory, and that popups are opened and closed in pairs.
func (c Chapter) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("chapter has no name")
	}
	seen := make(map[string]bool)
	popup := false
	for i, s := range c.Steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("chapter %s: step %d: %w", c.Name, i+1, err)
		}
		switch s.Action {
		case ActScreenshot:
			key := filepath.Join(c.Dir(s), s.File())
			if seen[key] {
				return fmt.Errorf("chapter %s: step %d: duplicate screenshot %s", c.Name, i+1, key)
			}
			seen[key] = true
		case ActOpenPopup:
			if popup {
				return fmt.Errorf("chapter %s: step %d: popup already open", c.Name, i+1)
			}
			popup = true
		case ActClosePopup:
			if !popup {
				return fmt.Errorf("chapter %s: step %d: no popup to close", c.Name, i+1)
			}
			popup = false
		}
	}
	if popup {
		return fmt.Errorf("chapter %s: popup is never closed", c.Name)
	}
	return nil
}

// Dir returns the chapter directory step s writes its screenshot to.
func (c Chapter) Dir(s Step) string {
	if s.Dest != "" {
		return s.Dest
	}
	return c.Name
}

// Shots returns the screenshots the chapter writes, in step order.
func (c Chapter) Shots(docsDir string) []string {
	var paths []string
	for _, s := range c.Steps {
		if s.Action == ActScreenshot {
			paths = append(paths, ShotPath(docsDir, c.Dir(s), s.Name))
		}
	}
	return paths
}

// ShotsByChapter groups the screenshot files of chapters by the chapter
// directory they are written to.
func ShotsByChapter(chapters ...Chapter) map[string][]string {
	out := make(map[string][]string)
	for _, c := range chapters {
		for _, s := range c.Steps {
			if s.Action == ActScreenshot {
				dir := c.Dir(s)
				out[dir] = append(out[dir], s.File())
			}
		}
	}
	return out
}

func (c Chapter) clone() Chapter {
	c.Steps = slices.Clone(c.Steps)
	return c
}

// WritePlan writes the numbered steps of each chapter to w.
func WritePlan(w io.Writer, chapters ...Chapter) error {
	for _, c := range chapters {
		if _, err := fmt.Fprintf(w, "== %s ==\n", c.Name); err != nil {
			return err
		}
		for i, s := range c.Steps {
			if _, err := fmt.Fprintf(w, "%2d. %s\n", i+1, s.Describe()); err != nil {
				return err
			}
		}
	}
	return nil
}
