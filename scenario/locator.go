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
	"strings"
)

// LocatorKind says how a Locator's query is interpreted.
type LocatorKind string

const (
	KindCSS     LocatorKind = "css"
	KindXPath   LocatorKind = "xpath"
	KindText    LocatorKind = "text"
	KindHasText LocatorKind = "has-text"
)

// Locator identifies one or more elements on a page. Every locator renders
// to either a CSS selector or an XPath expression, see Expression.
type Locator struct {
	Kind  LocatorKind `json:"kind"`
	Query string      `json:"query"`
	Tag   string      `json:"tag,omitempty"`
}

// CSS locates elements with a CSS selector.
func CSS(selector string) Locator {
	return Locator{Kind: KindCSS, Query: selector}
}

// XPath locates elements with a raw XPath expression.
func XPath(expr string) Locator {
	return Locator{Kind: KindXPath, Query: expr}
}

// Text locates the element owning a text node that contains text.
func Text(text string) Locator {
	return Locator{Kind: KindText, Query: text}
}

// HasText locates <tag> elements whose text content contains text.
func HasText(tag, text string) Locator {
	return Locator{Kind: KindHasText, Query: text, Tag: tag}
}

// IsZero reports whether l is unset.
func (l Locator) IsZero() bool {
	return l.Query == ""
}

// IsXPath reports whether Expression returns an XPath expression rather than
// a CSS selector.
func (l Locator) IsXPath() bool {
	return l.Kind != KindCSS
}

// Expression returns the CSS selector or XPath expression for l.
func (l Locator) Expression() string {
	switch l.Kind {
	case KindCSS, KindXPath:
		return l.Query
	case KindText:
		return fmt.Sprintf(`//*[text()[contains(normalize-space(.), %s)]]`, xpathLiteral(l.Query))
	case KindHasText:
		tag := l.Tag
		if tag == "" {
			tag = "*"
		}
		return fmt.Sprintf(`//%s[contains(normalize-space(.), %s)]`, tag, xpathLiteral(l.Query))
	}
	return l.Query
}

// Validate checks that l can be rendered.
func (l Locator) Validate() error {
	if l.Query == "" {
		return fmt.Errorf("locator has empty query")
	}
	switch l.Kind {
	case KindCSS, KindXPath, KindText, KindHasText:
		return nil
	}
	return fmt.Errorf("unknown locator kind %q", l.Kind)
}

func (l Locator) String() string {
	switch l.Kind {
	case KindHasText:
		return fmt.Sprintf(`%s:has-text(%q)`, l.Tag, l.Query)
	case "":
		return l.Query
	}
	return string(l.Kind) + "=" + l.Query
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote characters are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	var b strings.Builder
	b.WriteString("concat(")
	for i, p := range parts {
		if i > 0 {
			b.WriteString(`, '"', `)
		}
		b.WriteString(`"` + p + `"`)
	}
	b.WriteString(")")
	return b.String()
}
