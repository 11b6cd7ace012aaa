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
)

// HighlightColor is the color of every annotation.
const HighlightColor = "red"

// HighlightStyle selects how an annotated element is marked.
type HighlightStyle string

const (
	// StyleOutline draws an outline. Outlines take no space in the box
	// model, so the page layout is unchanged.
	StyleOutline HighlightStyle = "outline"
	// StyleBorder replaces the element's border. This may move content.
	StyleBorder HighlightStyle = "border"
)

// Extent selects how many matching elements are annotated.
type Extent string

const (
	ExtentFirst Extent = "first"
	ExtentAll   Extent = "all"
)

// TextFilter restricts annotation candidates by their text content.
//
// The text is read from the candidate itself, or, when Scope is set, from
// the candidate's closest ancestor matching Scope. When Within is set the
// text is read from the first descendant of that element matching Within.
type TextFilter struct {
	Scope  string   `json:"scope,omitempty"`
	Within string   `json:"within,omitempty"`
	All    []string `json:"all,omitempty"`
	Any    []string `json:"any,omitempty"`
	Exact  string   `json:"exact,omitempty"`
}

// Annotation is a highlight applied to page elements right before a
// screenshot. It is never removed; it lasts until the page navigates away.
type Annotation struct {
	Target Locator        `json:"target"`
	Style  HighlightStyle `json:"style"`
	Extent Extent         `json:"extent"`
	Width  string         `json:"width"`
	Radius string         `json:"radius,omitempty"`
	Offset string         `json:"offset,omitempty"`
	// Climb moves the highlight from the matched element to its closest
	// ancestor matching this CSS selector.
	Climb  string      `json:"climb,omitempty"`
	Filter *TextFilter `json:"filter,omitempty"`
}

// Outline returns a layout-neutral annotation of the first element matching target.
func Outline(target Locator) Annotation {
	return Annotation{
		Target: target,
		Style:  StyleOutline,
		Extent: ExtentFirst,
		Width:  "3px",
		Offset: "2px",
	}
}

// Border returns a border annotation of the first element matching target.
func Border(target Locator) Annotation {
	return Annotation{
		Target: target,
		Style:  StyleBorder,
		Extent: ExtentFirst,
		Width:  "3px",
		Radius: "4px",
	}
}

// All annotates every matching element instead of the first one.
func (a Annotation) All() Annotation {
	a.Extent = ExtentAll
	return a
}

// WithRadius sets the border radius of a border annotation.
func (a Annotation) WithRadius(r string) Annotation {
	a.Radius = r
	return a
}

// ClimbTo moves the highlight to the closest ancestor matching selector.
func (a Annotation) ClimbTo(selector string) Annotation {
	a.Climb = selector
	return a
}

// Where restricts the candidates to those passing f.
func (a Annotation) Where(f TextFilter) Annotation {
	a.Filter = &f
	return a
}

// Declarations returns the inline style properties the annotation sets,
// keyed by their CSSOM (camelCase) names.
func (a Annotation) Declarations() map[string]string {
	line := fmt.Sprintf("%s solid %s", a.Width, HighlightColor)
	switch a.Style {
	case StyleBorder:
		d := map[string]string{"border": line}
		if a.Radius != "" {
			d["borderRadius"] = a.Radius
		}
		return d
	default:
		d := map[string]string{"outline": line}
		if a.Offset != "" {
			d["outlineOffset"] = a.Offset
		}
		return d
	}
}

// Validate checks that the annotation is complete.
func (a Annotation) Validate() error {
	if err := a.Target.Validate(); err != nil {
		return fmt.Errorf("annotation target: %w", err)
	}
	switch a.Style {
	case StyleOutline, StyleBorder:
	default:
		return fmt.Errorf("unknown highlight style %q", a.Style)
	}
	switch a.Extent {
	case ExtentFirst, ExtentAll:
	default:
		return fmt.Errorf("unknown extent %q", a.Extent)
	}
	if a.Width == "" {
		return fmt.Errorf("annotation of %s has no width", a.Target)
	}
	if f := a.Filter; f != nil && len(f.All) == 0 && len(f.Any) == 0 && f.Exact == "" {
		return fmt.Errorf("annotation of %s has an empty text filter", a.Target)
	}
	return nil
}
