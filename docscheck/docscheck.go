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

// Package docscheck compares the screenshots the chapters produce with the
// images the chapter Markdown pages reference.
package docscheck

import (
	"fmt"
	"maps"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ImageRefs returns the destinations of the Markdown images in source, in
// document order.
func ImageRefs(source []byte) []string {
	doc := md.Parser().Parse(text.NewReader(source))
	var refs []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			refs = append(refs, string(img.Destination))
		}
		return ast.WalkContinue, nil
	})
	return refs
}

// imageName returns the file name of a reference into the chapter's
// images directory, or "" for any other reference.
func imageName(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	dir, file := path.Split(path.Clean(u.Path))
	if strings.TrimSuffix(dir, "/") != "images" {
		return ""
	}
	return file
}

// Report is the result of checking one chapter.
type Report struct {
	Chapter string
	// Pages are the Markdown files read, relative to the docs directory.
	Pages []string
	// Unreferenced are produced images that no page shows.
	Unreferenced []string
	// Missing are images pages show that no step produces.
	Missing []string
}

func (r Report) OK() bool {
	return len(r.Unreferenced) == 0 && len(r.Missing) == 0
}

func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d pages", r.Chapter, len(r.Pages))
	if r.OK() {
		b.WriteString(", all images referenced")
	}
	for _, f := range r.Unreferenced {
		fmt.Fprintf(&b, "\n  unreferenced: images/%s", f)
	}
	for _, f := range r.Missing {
		fmt.Fprintf(&b, "\n  missing: images/%s", f)
	}
	return b.String()
}

// Check reads the Markdown pages of every chapter in produced, which maps
// a chapter directory to the image files its steps write. Images whose
// <chapter>/images/<file> path matches an ignore pattern are skipped.
func Check(docsDir string, produced map[string][]string, ignore ...string) ([]Report, error) {
	var patterns []glob.Glob
	for _, p := range ignore {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern '%s': %w", p, err)
		}
		patterns = append(patterns, g)
	}
	ignored := func(chapter, file string) bool {
		name := chapter + "/images/" + file
		return slices.ContainsFunc(patterns, func(g glob.Glob) bool { return g.Match(name) })
	}

	var reports []Report
	for _, chapter := range slices.Sorted(maps.Keys(produced)) {
		pages, err := filepath.Glob(filepath.Join(docsDir, chapter, "*.md"))
		if err != nil {
			return nil, err
		}
		r := Report{Chapter: chapter}
		referenced := make(map[string]bool)
		for _, page := range pages {
			source, err := os.ReadFile(page)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", page, err)
			}
			rel, _ := filepath.Rel(docsDir, page)
			r.Pages = append(r.Pages, rel)
			for _, ref := range ImageRefs(source) {
				if name := imageName(ref); name != "" {
					referenced[name] = true
				}
			}
		}
		made := make(map[string]bool)
		for _, f := range produced[chapter] {
			made[f] = true
			if !referenced[f] && !ignored(chapter, f) {
				r.Unreferenced = append(r.Unreferenced, f)
			}
		}
		for _, f := range slices.Sorted(maps.Keys(referenced)) {
			if !made[f] && !ignored(chapter, f) {
				r.Missing = append(r.Missing, f)
			}
		}
		slices.Sort(r.Unreferenced)
		reports = append(reports, r)
	}
	return reports, nil
}
