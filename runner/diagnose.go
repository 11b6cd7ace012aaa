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

package runner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSummaryItems caps each list of SummarizePage.
const maxSummaryItems = 25

// SummarizePage lists the title, buttons, and links of an HTML document so
// a failure log shows which labels the page actually offered.
func SummarizePage(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to create goquery document: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		fmt.Fprintf(&b, "title: %s\n", title)
	}
	writeList(&b, "buttons", collectTexts(doc.Find(`button, [role="button"], input[type="submit"]`)))
	writeList(&b, "links", collectTexts(doc.Find("a[href]")))
	return b.String(), nil
}

func collectTexts(sel *goquery.Selection) []string {
	seen := make(map[string]bool)
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if _, hidden := s.Attr("hidden"); hidden {
			return
		}
		if v, _ := s.Attr("aria-hidden"); v == "true" {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			text, _ = s.Attr("aria-label")
		}
		if text == "" {
			text, _ = s.Attr("value")
		}
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, text)
	})
	return out
}

func writeList(b *strings.Builder, name string, items []string) {
	fmt.Fprintf(b, "%s (%d):", name, len(items))
	for i, it := range items {
		if i == maxSummaryItems {
			fmt.Fprintf(b, " ... and %d more", len(items)-i)
			break
		}
		fmt.Fprintf(b, " %q", it)
	}
	b.WriteString("\n")
}
