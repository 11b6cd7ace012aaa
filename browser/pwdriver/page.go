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

package pwdriver

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ttbt-io/labshots/browser/script"
	"github.com/ttbt-io/labshots/runner"
	"github.com/ttbt-io/labshots/scenario"
)

// Page is one Playwright page. It implements runner.Page.
type Page struct {
	s     *Session
	page  playwright.Page
	popup bool
}

var _ runner.Page = (*Page)(nil)

// timeout converts the ctx deadline to a Playwright timeout in milliseconds.
// Playwright calls are not cancelable, so the deadline is all they see.
func timeout(ctx context.Context) (*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dl, ok := ctx.Deadline()
	if !ok {
		return nil, nil
	}
	// Zero disables the timeout in Playwright.
	return playwright.Float(max(1, millis(time.Until(dl)))), nil
}

func selector(l scenario.Locator) string {
	if l.IsXPath() {
		return "xpath=" + l.Expression()
	}
	return "css=" + l.Expression()
}

func (p *Page) eval(ctx context.Context, fn string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	expr, err := script.Call(fn, args...)
	if err != nil {
		return nil, err
	}
	return p.page.Evaluate(expr)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	to, err := timeout(ctx)
	if err != nil {
		return err
	}
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{Timeout: to}); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitIdle(ctx context.Context) error {
	to, err := timeout(ctx)
	if err != nil {
		return err
	}
	err = p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: to,
	})
	if err != nil {
		return fmt.Errorf("timeout waiting for network idle: %w", err)
	}
	return nil
}

func (p *Page) WaitVisible(ctx context.Context, l scenario.Locator) error {
	to, err := timeout(ctx)
	if err != nil {
		return err
	}
	err = p.page.Locator(selector(l)).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: to,
	})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", l, err)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, l scenario.Locator) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := p.page.Locator(selector(l)).Count()
	if err != nil {
		return false, fmt.Errorf("look up %s: %w", l, err)
	}
	return n > 0, nil
}

func (p *Page) Click(ctx context.Context, l scenario.Locator) error {
	to, err := timeout(ctx)
	if err != nil {
		return err
	}
	if err := p.page.Locator(selector(l)).First().Click(playwright.LocatorClickOptions{Timeout: to}); err != nil {
		return fmt.Errorf("click %s: %w", l, err)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, l scenario.Locator, value string) error {
	if err := p.WaitVisible(ctx, l); err != nil {
		return err
	}
	res, err := p.eval(ctx, script.FillFunc, script.Fill{Target: script.TargetOf(l), Value: value})
	if err != nil {
		return fmt.Errorf("fill %s: %w", l, err)
	}
	if ok, _ := res.(bool); !ok {
		return fmt.Errorf("fill %s: no such element", l)
	}
	return nil
}

func (p *Page) Highlight(ctx context.Context, a scenario.Annotation) (int, error) {
	res, err := p.eval(ctx, script.HighlightFunc, script.HighlightOf(a))
	if err != nil {
		return 0, err
	}
	return count(res), nil
}

// count reads a JS number, which Playwright returns as int or float64.
func count(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if p.s.opts.DisableAnimations {
		if _, err := p.eval(ctx, script.DisableAnimationsFunc); err != nil {
			return nil, err
		}
	}
	to, err := timeout(ctx)
	if err != nil {
		return nil, err
	}
	png, err := p.page.Screenshot(playwright.PageScreenshotOptions{Timeout: to})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return png, nil
}

func (p *Page) Zoom(ctx context.Context, factor float64) error {
	_, err := p.eval(ctx, script.ZoomFunc, factor)
	return err
}

// OpenPopup clicks trigger inside ExpectPopup, which waits for the page the
// click opens.
func (p *Page) OpenPopup(ctx context.Context, trigger scenario.Locator) (runner.Page, error) {
	to, err := timeout(ctx)
	if err != nil {
		return nil, err
	}
	popup, err := p.page.ExpectPopup(func() error {
		return p.Click(ctx, trigger)
	}, playwright.PageExpectPopupOptions{Timeout: to})
	if err != nil {
		return nil, fmt.Errorf("timeout waiting for popup: %w", err)
	}
	return &Page{s: p.s, page: popup, popup: true}, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to capture HTML: %w", err)
	}
	return html, nil
}

// Close closes a popup. The main page closes with the session.
func (p *Page) Close(ctx context.Context) error {
	if !p.popup {
		return nil
	}
	return p.page.Close()
}
