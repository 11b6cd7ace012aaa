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

// Package script holds the JavaScript functions the browser drivers
// evaluate in the page. Each function takes a single JSON argument.
package script

import (
	"encoding/json"
	"fmt"

	"github.com/ttbt-io/labshots/scenario"
)

// Target is the JSON form of a scenario.Locator.
type Target struct {
	Kind string `json:"kind"`
	Expr string `json:"expr"`
}

func TargetOf(l scenario.Locator) Target {
	kind := "css"
	if l.IsXPath() {
		kind = "xpath"
	}
	return Target{Kind: kind, Expr: l.Expression()}
}

// Highlight is the argument of HighlightFunc.
type Highlight struct {
	Target Target               `json:"target"`
	Extent scenario.Extent      `json:"extent"`
	Climb  string               `json:"climb,omitempty"`
	Filter *scenario.TextFilter `json:"filter,omitempty"`
	Style  map[string]string    `json:"style"`
}

func HighlightOf(a scenario.Annotation) Highlight {
	return Highlight{
		Target: TargetOf(a.Target),
		Extent: a.Extent,
		Climb:  a.Climb,
		Filter: a.Filter,
		Style:  a.Declarations(),
	}
}

// Fill is the argument of FillFunc.
type Fill struct {
	Target Target `json:"target"`
	Value  string `json:"value"`
}

const findAll = `function __find(t) {
	if (t.kind === 'xpath') {
		const r = document.evaluate(t.expr, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const out = [];
		for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
		return out;
	}
	return Array.from(document.querySelectorAll(t.expr));
}`

const isVisible = `function __visible(el) {
	const style = window.getComputedStyle(el);
	return style.display !== 'none' && style.visibility !== 'hidden' && el.getClientRects().length > 0;
}`

// MarkAttr is the attribute MarkVisibleFunc puts on the element it picks.
const MarkAttr = "data-labshots-target"

// MarkSelector selects the element MarkVisibleFunc picked.
const MarkSelector = "[" + MarkAttr + "]"

// MarkVisibleFunc moves MarkAttr to the first visible element matching a
// Target. It returns false, leaving no element marked, when no match is
// visible.
const MarkVisibleFunc = `function(t) {
	` + findAll + `
	` + isVisible + `
	for (const el of document.querySelectorAll('` + MarkSelector + `')) el.removeAttribute('` + MarkAttr + `');
	const el = __find(t).find(__visible);
	if (!el) return false;
	el.setAttribute('` + MarkAttr + `', '');
	return true;
}`

// CountFunc returns the number of elements matching a Target.
const CountFunc = `function(t) {
	` + findAll + `
	return __find(t).length;
}`

// FillFunc sets the value of the first visible matching input or textarea,
// or the first match when none is visible, through
// the native setter and fires input and change events, so frameworks that
// track the value see the change. It returns false when nothing matches.
const FillFunc = `function(a) {
	` + findAll + `
	` + isVisible + `
	const els = __find(a.target);
	const el = els.find(__visible) || els[0];
	if (!el) return false;
	el.focus();
	const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	Object.getOwnPropertyDescriptor(proto, 'value').set.call(el, a.value);
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
}`

// HighlightFunc styles the elements selected by a Highlight and returns how
// many it styled.
const HighlightFunc = `function(a) {
	` + findAll + `
	const f = a.filter;
	const textOf = (el) => {
		let src = el;
		if (f.scope) src = src.closest(f.scope);
		if (src && f.within) src = src.querySelector(f.within);
		return src ? (src.textContent || '') : null;
	};
	const pass = (el) => {
		if (!f) return true;
		const text = textOf(el);
		if (text === null) return false;
		if (f.exact && text.trim() !== f.exact) return false;
		if (f.all && !f.all.every(s => text.includes(s))) return false;
		if (f.any && !f.any.some(s => text.includes(s))) return false;
		return true;
	};
	let els = __find(a.target).filter(pass);
	if (a.climb) els = els.map(el => el.closest(a.climb)).filter(Boolean);
	if (a.extent !== 'all') els = els.slice(0, 1);
	for (const el of els) Object.assign(el.style, a.style);
	return els.length;
}`

// ZoomFunc scales the page body.
const ZoomFunc = `function(factor) {
	document.body.style.zoom = String(factor);
	return true;
}`

// DisableAnimationsFunc turns off CSS transitions and animations so
// screenshots never catch an element mid-transition.
const DisableAnimationsFunc = `function() {
	const style = document.createElement('style');
	style.innerHTML = '*{-webkit-transition-duration:0s!important;transition-duration:0s!important;-webkit-animation-duration:0s!important;animation-duration:0s!important;}';
	document.head.appendChild(style);
	return true;
}`

// Call returns an expression that applies fn to the JSON encoding of args.
func Call(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for _, a := range args {
		b, err := json.Marshal(a)
		if err != nil {
			return "", fmt.Errorf("encode script argument: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	expr := "(" + fn + ")("
	for i, e := range encoded {
		if i > 0 {
			expr += ", "
		}
		expr += e
	}
	return expr + ")", nil
}
