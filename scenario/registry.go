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
	"slices"
)

// Registry maps chapter names to chapters and remembers registration order.
// A Registry is built once and is read-only afterwards; copies share state
// safely.
type Registry struct {
	order    []string
	chapters map[string]Chapter
}

// NewRegistry validates the chapters and registers them in the given order.
func NewRegistry(chapters ...Chapter) (Registry, error) {
	r := Registry{chapters: make(map[string]Chapter, len(chapters))}
	for _, c := range chapters {
		if err := c.Validate(); err != nil {
			return Registry{}, err
		}
		if _, exists := r.chapters[c.Name]; exists {
			return Registry{}, fmt.Errorf("chapter %s registered twice", c.Name)
		}
		r.chapters[c.Name] = c.clone()
		r.order = append(r.order, c.Name)
	}
	return r, nil
}

// Lookup returns the chapter registered under name.
func (r Registry) Lookup(name string) (Chapter, bool) {
	c, ok := r.chapters[name]
	if !ok {
		return Chapter{}, false
	}
	return c.clone(), true
}

// Names returns the registered names in registration order.
func (r Registry) Names() []string {
	return slices.Clone(r.order)
}

// Chapters returns all chapters in registration order.
func (r Registry) Chapters() []Chapter {
	out := make([]Chapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.chapters[name].clone())
	}
	return out
}

func (r Registry) Len() int {
	return len(r.order)
}
